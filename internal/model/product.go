package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/pkg/optional"
)

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Description   *string         `json:"description"`
	StockQuantity int             `json:"stock_quantity"`
	Category      *string         `json:"category"`
	Discount      float64         `json:"discount"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Suppliers []Supplier `json:"suppliers"`
}

// NewProduct holds the caller supplied fields of a product to create.
type NewProduct struct {
	Name          string          `json:"name" validate:"required,min=3,max=100"`
	Price         decimal.Decimal `json:"price" validate:"price"`
	Description   *string         `json:"description" validate:"omitempty,max=1000"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0,lte=2147483647"`
	Category      *string         `json:"category" validate:"omitempty,max=100"`
	Discount      float64         `json:"discount" validate:"gte=0,lte=100"`
	SupplierIDs   []int64         `json:"supplier_ids" validate:"omitempty,dive,gt=0"`
}

// ProductPatch is a partial update. Absent fields are left untouched, null is
// only accepted for description and category.
type ProductPatch struct {
	Name          optional.Value[string]          `json:"name" validate:"omitempty,min=3,max=100"`
	Price         optional.Value[decimal.Decimal] `json:"price" validate:"omitempty,price"`
	Description   optional.Value[string]          `json:"description" validate:"omitempty,max=1000"`
	StockQuantity optional.Value[int]             `json:"stock_quantity" validate:"omitempty,gte=0,lte=2147483647"`
	Category      optional.Value[string]          `json:"category" validate:"omitempty,max=100"`
	Discount      optional.Value[float64]         `json:"discount" validate:"omitempty,gte=0,lte=100"`
}

// ProductStatistics summarizes the catalog.
type ProductStatistics struct {
	TotalProducts      int64            `json:"total_products"`
	ProductsByCategory map[string]int64 `json:"products_by_category"`
	LowStockProducts   int64            `json:"low_stock_products"`
}
