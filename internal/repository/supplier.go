package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

var SupplierSchema = query.MustSchema(query.Schema{
	ID: "id",
	Fields: map[string]query.Field{
		"id":            {Column: "id", Kind: query.KindInt, Sortable: true, Filterable: true},
		"name":          {Column: "name", Kind: query.KindText, Sortable: true, Filterable: true, Searchable: true},
		"contact_info":  {Column: "contact_info", Kind: query.KindText, Searchable: true},
		"credit_rating": {Column: "credit_rating", Kind: query.KindInt, Sortable: true, Filterable: true},
		"created_at":    {Column: "created_at", Kind: query.KindTime, Sortable: true, Filterable: true},
		"updated_at":    {Column: "updated_at", Kind: query.KindTime, Sortable: true},
	},
})

var supplierTable = &Table[model.Supplier]{
	Name:     "suppliers",
	Schema:   SupplierSchema,
	Columns:  []string{"id", "name", "contact_info", "credit_rating", "created_at", "updated_at"},
	Writable: []string{"name", "contact_info", "credit_rating"},
	Touch:    true,
	NotFound: apperr.SupplierNotFoundErr,
	Scan:     scanSupplier,
	ID:       func(s model.Supplier) int64 { return s.ID },
}

type SupplierRepository interface {
	WithDB(db db.DB) SupplierRepository

	Get(ctx context.Context, id int64) (model.Supplier, error)
	List(ctx context.Context, spec query.Spec) ([]model.Supplier, error)
	Search(ctx context.Context, term string, fields []string, spec query.Spec) ([]model.Supplier, error)
	Count(ctx context.Context, criteria query.Criteria) (int64, error)
	Create(ctx context.Context, rec Record) (model.Supplier, error)
	BatchCreate(ctx context.Context, recs []Record) ([]model.Supplier, error)
	Update(ctx context.Context, id int64, rec Record) (model.Supplier, error)
	BatchUpdate(ctx context.Context, ids []int64, rec Record) ([]model.Supplier, error)
	Delete(ctx context.Context, id int64) (model.Supplier, error)
	BatchDelete(ctx context.Context, ids []int64) ([]model.Supplier, error)
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type supplierRepository struct {
	CRUD[model.Supplier]
}

func NewSupplierRepository(db db.DB) SupplierRepository {
	return &supplierRepository{CRUD: NewCRUD(db, supplierTable)}
}

func (r supplierRepository) WithDB(db db.DB) SupplierRepository {
	return &supplierRepository{CRUD: r.CRUD.WithDB(db)}
}

func scanSupplier(row pgx.Row) (model.Supplier, error) {
	var s model.Supplier
	err := row.Scan(&s.ID, &s.Name, &s.ContactInfo, &s.CreditRating, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
