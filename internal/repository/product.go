package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

// UncategorizedKey groups products without a category in statistics.
const UncategorizedKey = "uncategorized"

var ProductSchema = query.MustSchema(query.Schema{
	ID: "id",
	Fields: map[string]query.Field{
		"id":             {Column: "id", Kind: query.KindInt, Sortable: true, Filterable: true},
		"name":           {Column: "name", Kind: query.KindText, Sortable: true, Filterable: true, Searchable: true},
		"description":    {Column: "description", Kind: query.KindText, Searchable: true},
		"price":          {Column: "price", Kind: query.KindNumeric, Sortable: true, Filterable: true},
		"stock_quantity": {Column: "stock_quantity", Kind: query.KindInt, Sortable: true, Filterable: true},
		"category":       {Column: "category", Kind: query.KindText, Sortable: true, Filterable: true},
		"discount":       {Column: "discount", Kind: query.KindFloat, Sortable: true, Filterable: true},
		"created_at":     {Column: "created_at", Kind: query.KindTime, Sortable: true, Filterable: true},
		"updated_at":     {Column: "updated_at", Kind: query.KindTime, Sortable: true},
	},
})

var productTable = &Table[model.Product]{
	Name:     "products",
	Schema:   ProductSchema,
	Columns:  []string{"id", "name", "price", "description", "stock_quantity", "category", "discount", "created_at", "updated_at"},
	Writable: []string{"name", "price", "description", "stock_quantity", "category", "discount"},
	Touch:    true,
	NotFound: apperr.ProductNotFoundErr,
	Scan:     scanProduct,
	ID:       func(p model.Product) int64 { return p.ID },
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository

	Get(ctx context.Context, id int64) (model.Product, error)
	List(ctx context.Context, spec query.Spec) ([]model.Product, error)
	Search(ctx context.Context, term string, fields []string, spec query.Spec) ([]model.Product, error)
	Count(ctx context.Context, criteria query.Criteria) (int64, error)
	Create(ctx context.Context, rec Record) (model.Product, error)
	BatchCreate(ctx context.Context, recs []Record) ([]model.Product, error)
	Update(ctx context.Context, id int64, rec Record) (model.Product, error)
	BatchUpdate(ctx context.Context, ids []int64, rec Record) ([]model.Product, error)
	Delete(ctx context.Context, id int64) (model.Product, error)
	BatchDelete(ctx context.Context, ids []int64) ([]model.Product, error)
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)

	// AddSupplier links a supplier to a product. Linking twice is a no-op.
	AddSupplier(ctx context.Context, productID, supplierID int64) error
	// RemoveSupplier unlinks a supplier. Removing a missing link is a no-op.
	RemoveSupplier(ctx context.Context, productID, supplierID int64) error
	ListSuppliers(ctx context.Context, productID int64) ([]model.Supplier, error)
	SuppliersByProducts(ctx context.Context, productIDs []int64) (map[int64][]model.Supplier, error)
	CountByCategory(ctx context.Context) (map[string]int64, error)
}

type productRepository struct {
	CRUD[model.Product]
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{CRUD: NewCRUD(db, productTable)}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{CRUD: r.CRUD.WithDB(db)}
}

func (r productRepository) AddSupplier(ctx context.Context, productID, supplierID int64) error {
	if err := r.mustExist(ctx, "products", productID); err != nil {
		return err
	}
	if err := r.mustExist(ctx, "suppliers", supplierID); err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO product_suppliers (product_id, supplier_id)
		VALUES (@product_id, @supplier_id)
		ON CONFLICT DO NOTHING
	`, pgx.NamedArgs{
		"product_id":  productID,
		"supplier_id": supplierID,
	}); err != nil {
		return fmt.Errorf("add supplier to product: %w", err)
	}

	return nil
}

func (r productRepository) RemoveSupplier(ctx context.Context, productID, supplierID int64) error {
	if err := r.mustExist(ctx, "products", productID); err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, `
		DELETE FROM product_suppliers
		WHERE product_id = @product_id AND supplier_id = @supplier_id
	`, pgx.NamedArgs{
		"product_id":  productID,
		"supplier_id": supplierID,
	}); err != nil {
		return fmt.Errorf("remove supplier from product: %w", err)
	}

	return nil
}

func (r productRepository) ListSuppliers(ctx context.Context, productID int64) ([]model.Supplier, error) {
	if err := r.mustExist(ctx, "products", productID); err != nil {
		return nil, err
	}

	byProduct, err := r.SuppliersByProducts(ctx, []int64{productID})
	if err != nil {
		return nil, err
	}

	return byProduct[productID], nil
}

func (r productRepository) SuppliersByProducts(ctx context.Context, productIDs []int64) (map[int64][]model.Supplier, error) {
	out := make(map[int64][]model.Supplier, len(productIDs))
	for _, id := range productIDs {
		out[id] = []model.Supplier{}
	}
	if len(productIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT ps.product_id, s.id, s.name, s.contact_info, s.credit_rating, s.created_at, s.updated_at
		FROM product_suppliers ps
		JOIN suppliers s ON s.id = ps.supplier_id
		WHERE ps.product_id = ANY(@product_ids)
		ORDER BY ps.product_id, s.id
	`, pgx.NamedArgs{"product_ids": productIDs})
	if err != nil {
		return nil, fmt.Errorf("list product suppliers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			s         model.Supplier
		)
		if err := rows.Scan(&productID, &s.ID, &s.Name, &s.ContactInfo, &s.CreditRating, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product supplier: %w", err)
		}
		out[productID] = append(out[productID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product suppliers: %w", err)
	}

	return out, nil
}

func (r productRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(category, @uncategorized), COUNT(*)
		FROM products
		GROUP BY 1
	`, pgx.NamedArgs{"uncategorized": UncategorizedKey})
	if err != nil {
		return nil, fmt.Errorf("count products by category: %w", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var (
			category string
			count    int64
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		out[category] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}

	return out, nil
}

func (r productRepository) mustExist(ctx context.Context, table string, id int64) error {
	var exists bool
	//nolint:gosec
	sql := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = @id)", table)
	if err := r.db.QueryRow(ctx, sql, pgx.NamedArgs{"id": id}).Scan(&exists); err != nil {
		return fmt.Errorf("check %s exists: %w", table, err)
	}
	if exists {
		return nil
	}

	if table == "suppliers" {
		return apperr.SupplierNotFoundErr.WithMsgf("supplier with id %d not found", id)
	}
	return apperr.ProductNotFoundErr.WithMsgf("product with id %d not found", id)
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		p     model.Product
		price pgtype.Numeric
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&price,
		&p.Description,
		&p.StockQuantity,
		&p.Category,
		&p.Discount,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return model.Product{}, err
	}

	d, err := db.Decimal(price)
	if err != nil {
		return model.Product{}, fmt.Errorf("convert price: %w", err)
	}
	p.Price = d

	return p, nil
}
