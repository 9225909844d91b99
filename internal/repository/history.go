package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

// TimeRange bounds history timestamps inclusively. Nil bounds are open.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

func (tr TimeRange) criteria(productID int64) query.Criteria {
	filters := query.Filters{"product_id": query.Exact{Value: productID}}

	var r query.Range
	if tr.Start != nil {
		r.Min = *tr.Start
	}
	if tr.End != nil {
		r.Max = *tr.End
	}
	filters["timestamp"] = r

	return query.Criteria{Filters: filters}
}

var newestFirst = query.Sort{Field: "timestamp", Direction: query.Desc, Tiebreak: query.Desc}

func historySchema(valueKind query.Kind, oldField, newField string) query.Schema {
	return query.MustSchema(query.Schema{
		ID: "id",
		Fields: map[string]query.Field{
			"id":         {Column: "id", Kind: query.KindInt, Sortable: true, Filterable: true},
			"product_id": {Column: "product_id", Kind: query.KindInt, Filterable: true},
			oldField:     {Column: oldField, Kind: valueKind},
			newField:     {Column: newField, Kind: valueKind},
			"timestamp":  {Column: "timestamp", Kind: query.KindTime, Sortable: true, Filterable: true},
		},
	})
}

var priceHistoryTable = &Table[model.PriceHistory]{
	Name:     "price_history",
	Schema:   historySchema(query.KindNumeric, "old_price", "new_price"),
	Columns:  []string{"id", "product_id", "old_price", "new_price", "timestamp"},
	Writable: []string{"product_id", "old_price", "new_price"},
	NotFound: apperr.ProductNotFoundErr,
	Scan:     scanPriceHistory,
	ID:       func(h model.PriceHistory) int64 { return h.ID },
}

// PriceHistoryRepository is append-only: rows disappear only by cascade when
// their product is deleted.
type PriceHistoryRepository interface {
	WithDB(db db.DB) PriceHistoryRepository
	Append(ctx context.Context, productID int64, oldPrice, newPrice decimal.Decimal) (model.PriceHistory, error)
	ListByProduct(ctx context.Context, productID int64, tr TimeRange, page query.Page) ([]model.PriceHistory, error)
	CountByProduct(ctx context.Context, productID int64, tr TimeRange) (int64, error)
}

type priceHistoryRepository struct {
	crud CRUD[model.PriceHistory]
}

func NewPriceHistoryRepository(db db.DB) PriceHistoryRepository {
	return &priceHistoryRepository{crud: NewCRUD(db, priceHistoryTable)}
}

func (r priceHistoryRepository) WithDB(db db.DB) PriceHistoryRepository {
	return &priceHistoryRepository{crud: r.crud.WithDB(db)}
}

func (r priceHistoryRepository) Append(ctx context.Context, productID int64, oldPrice, newPrice decimal.Decimal) (model.PriceHistory, error) {
	h, err := r.crud.Create(ctx, Record{
		"product_id": productID,
		"old_price":  oldPrice,
		"new_price":  newPrice,
	})
	if err != nil {
		return model.PriceHistory{}, fmt.Errorf("append price history: %w", err)
	}
	return h, nil
}

func (r priceHistoryRepository) ListByProduct(ctx context.Context, productID int64, tr TimeRange, page query.Page) ([]model.PriceHistory, error) {
	return r.crud.List(ctx, query.Spec{Criteria: tr.criteria(productID), Sort: newestFirst, Page: page})
}

func (r priceHistoryRepository) CountByProduct(ctx context.Context, productID int64, tr TimeRange) (int64, error) {
	return r.crud.Count(ctx, tr.criteria(productID))
}

var stockHistoryTable = &Table[model.StockHistory]{
	Name:     "stock_history",
	Schema:   withField(historySchema(query.KindInt, "old_quantity", "new_quantity"), "change_reason", query.Field{Column: "change_reason", Kind: query.KindText}),
	Columns:  []string{"id", "product_id", "old_quantity", "new_quantity", "change_reason", "timestamp"},
	Writable: []string{"product_id", "old_quantity", "new_quantity", "change_reason"},
	NotFound: apperr.ProductNotFoundErr,
	Scan:     scanStockHistory,
	ID:       func(h model.StockHistory) int64 { return h.ID },
}

type StockHistoryRepository interface {
	WithDB(db db.DB) StockHistoryRepository
	Append(ctx context.Context, productID int64, oldQuantity, newQuantity int, reason *string) (model.StockHistory, error)
	ListByProduct(ctx context.Context, productID int64, tr TimeRange, page query.Page) ([]model.StockHistory, error)
	CountByProduct(ctx context.Context, productID int64, tr TimeRange) (int64, error)
}

type stockHistoryRepository struct {
	crud CRUD[model.StockHistory]
}

func NewStockHistoryRepository(db db.DB) StockHistoryRepository {
	return &stockHistoryRepository{crud: NewCRUD(db, stockHistoryTable)}
}

func (r stockHistoryRepository) WithDB(db db.DB) StockHistoryRepository {
	return &stockHistoryRepository{crud: r.crud.WithDB(db)}
}

func (r stockHistoryRepository) Append(ctx context.Context, productID int64, oldQuantity, newQuantity int, reason *string) (model.StockHistory, error) {
	h, err := r.crud.Create(ctx, Record{
		"product_id":    productID,
		"old_quantity":  oldQuantity,
		"new_quantity":  newQuantity,
		"change_reason": reason,
	})
	if err != nil {
		return model.StockHistory{}, fmt.Errorf("append stock history: %w", err)
	}
	return h, nil
}

func (r stockHistoryRepository) ListByProduct(ctx context.Context, productID int64, tr TimeRange, page query.Page) ([]model.StockHistory, error) {
	return r.crud.List(ctx, query.Spec{Criteria: tr.criteria(productID), Sort: newestFirst, Page: page})
}

func (r stockHistoryRepository) CountByProduct(ctx context.Context, productID int64, tr TimeRange) (int64, error) {
	return r.crud.Count(ctx, tr.criteria(productID))
}

func withField(s query.Schema, name string, f query.Field) query.Schema {
	fields := make(map[string]query.Field, len(s.Fields)+1)
	for k, v := range s.Fields {
		fields[k] = v
	}
	fields[name] = f
	return query.MustSchema(query.Schema{ID: s.ID, Fields: fields})
}

func scanPriceHistory(row pgx.Row) (model.PriceHistory, error) {
	var (
		h            model.PriceHistory
		oldPr, newPr pgtype.Numeric
	)
	if err := row.Scan(&h.ID, &h.ProductID, &oldPr, &newPr, &h.Timestamp); err != nil {
		return model.PriceHistory{}, err
	}

	var err error
	if h.OldPrice, err = db.Decimal(oldPr); err != nil {
		return model.PriceHistory{}, fmt.Errorf("convert old price: %w", err)
	}
	if h.NewPrice, err = db.Decimal(newPr); err != nil {
		return model.PriceHistory{}, fmt.Errorf("convert new price: %w", err)
	}

	return h, nil
}

func scanStockHistory(row pgx.Row) (model.StockHistory, error) {
	var h model.StockHistory
	err := row.Scan(&h.ID, &h.ProductID, &h.OldQuantity, &h.NewQuantity, &h.ChangeReason, &h.Timestamp)
	return h, err
}
