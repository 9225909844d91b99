package event

import (
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
)

const (
	TopicProductCreated      = "catalog.product.created"
	TopicProductUpdated      = "catalog.product.updated"
	TopicProductPriceChanged = "catalog.product.price_changed"
	TopicProductStockChanged = "catalog.product.stock_changed"
	TopicProductDeleted      = "catalog.product.deleted"
	TopicSupplierChanged     = "catalog.supplier.changed"
)

// ProductTopics are the topics that change product statistics.
var ProductTopics = []string{
	TopicProductCreated,
	TopicProductUpdated,
	TopicProductStockChanged,
	TopicProductDeleted,
}

type ProductEvent struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Category      *string         `json:"category"`
}

func NewProductEvent(p model.Product) ProductEvent {
	return ProductEvent{
		ProductID:     p.ID,
		Name:          p.Name,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		Category:      p.Category,
	}
}

type PriceChangedEvent struct {
	ProductID int64           `json:"product_id"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
}

type StockChangedEvent struct {
	ProductID    int64   `json:"product_id"`
	OldQuantity  int     `json:"old_quantity"`
	NewQuantity  int     `json:"new_quantity"`
	ChangeReason *string `json:"change_reason"`
}

type SupplierAction string

const (
	SupplierCreated SupplierAction = "created"
	SupplierUpdated SupplierAction = "updated"
	SupplierDeleted SupplierAction = "deleted"
)

type SupplierChangedEvent struct {
	SupplierID int64          `json:"supplier_id"`
	Action     SupplierAction `json:"action"`
}
