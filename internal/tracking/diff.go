// Package tracking records price and stock changes of a product as immutable
// history rows in the same transaction that applies the update.
package tracking

import (
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
)

type PriceChange struct {
	Old decimal.Decimal
	New decimal.Decimal
}

type StockChange struct {
	Old    int
	New    int
	Reason *string
}

// Diff lists the tracked fields whose value an update changes.
type Diff struct {
	Price *PriceChange
	Stock *StockChange
}

func (d Diff) Empty() bool {
	return d.Price == nil && d.Stock == nil
}

// Compute compares the tracked fields of current against patch by value, so a
// patch that repeats the current value yields no change. The reason is kept
// only when the stock quantity changes.
func Compute(current model.Product, patch model.ProductPatch, reason *string) Diff {
	var d Diff

	if price, ok := patch.Price.Get(); ok && !price.Equal(current.Price) {
		d.Price = &PriceChange{Old: current.Price, New: price}
	}

	if stock, ok := patch.StockQuantity.Get(); ok && stock != current.StockQuantity {
		d.Stock = &StockChange{Old: current.StockQuantity, New: stock, Reason: nonEmpty(reason)}
	}

	return d
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
