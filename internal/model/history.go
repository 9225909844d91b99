package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PriceHistory struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	Timestamp time.Time       `json:"timestamp"`
}

type StockHistory struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	OldQuantity  int       `json:"old_quantity"`
	NewQuantity  int       `json:"new_quantity"`
	ChangeReason *string   `json:"change_reason"`
	Timestamp    time.Time `json:"timestamp"`
}

// CombinedHistory is the price and stock history of one product.
type CombinedHistory struct {
	ProductID    int64          `json:"product_id"`
	ProductName  string         `json:"product_name"`
	PriceHistory []PriceHistory `json:"price_history"`
	StockHistory []StockHistory `json:"stock_history"`
}
