package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/batch"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/cache"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/internal/tracking"
)

// ProductSearchFields are matched by the search term of product listings.
var ProductSearchFields = []string{"name", "description"}

type ProductFilter struct {
	// Name is a case-insensitive substring of the product name.
	Name     string
	Category *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	MinStock *int
	MaxStock *int
}

func (f ProductFilter) filters() query.Filters {
	filters := query.Filters{}
	if f.Category != nil {
		filters["category"] = query.Exact{Value: *f.Category}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		var r query.Range
		if f.MinPrice != nil {
			r.Min = *f.MinPrice
		}
		if f.MaxPrice != nil {
			r.Max = *f.MaxPrice
		}
		filters["price"] = r
	}
	if f.MinStock != nil || f.MaxStock != nil {
		var r query.Range
		if f.MinStock != nil {
			r.Min = *f.MinStock
		}
		if f.MaxStock != nil {
			r.Max = *f.MaxStock
		}
		filters["stock_quantity"] = r
	}
	return filters
}

type ListProductsParams struct {
	Filter ProductFilter
	// Search is matched case-insensitively against ProductSearchFields. It
	// takes precedence over Filter.Name.
	Search string
	Sort   query.Sort
	Page   query.Page
}

func (p ListProductsParams) criteria() query.Criteria {
	c := query.Criteria{Filters: p.Filter.filters()}
	switch {
	case p.Search != "":
		c.Search = query.Search{Term: p.Search, Fields: ProductSearchFields}
	case p.Filter.Name != "":
		c.Search = query.Search{Term: p.Filter.Name, Fields: []string{"name"}}
	}
	return c
}

type ProductList struct {
	Items []model.Product
	Total int64
}

// ProductUpdate is one item of a batch update.
type ProductUpdate struct {
	ID           int64
	Patch        model.ProductPatch
	ChangeReason *string
}

type ProductService interface {
	GetProduct(ctx context.Context, id int64) (model.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) (ProductList, error)
	CreateProduct(ctx context.Context, params model.NewProduct) (model.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch model.ProductPatch, changeReason *string) (model.Product, error)
	DeleteProduct(ctx context.Context, id int64) (model.Product, error)

	BatchCreateProducts(ctx context.Context, params []model.NewProduct) ([]model.Product, error)
	BatchUpdateProducts(ctx context.Context, policy batch.Policy, updates []ProductUpdate) ([]model.Product, error)
	BatchDeleteProducts(ctx context.Context, policy batch.Policy, ids []int64) ([]model.Product, error)

	AddSupplier(ctx context.Context, productID, supplierID int64) (model.Product, error)
	RemoveSupplier(ctx context.Context, productID, supplierID int64) (model.Product, error)
	ListProductSuppliers(ctx context.Context, productID int64) ([]model.Supplier, error)

	ListLowStockProducts(ctx context.Context, threshold *int, page query.Page) ([]model.Product, error)
	GetStatistics(ctx context.Context) (model.ProductStatistics, error)
}

type productService struct {
	cfg           config.Catalog
	logger        *slog.Logger
	db            db.DB
	productRepo   repository.ProductRepository
	outboxMsgRepo repository.OutboxMsgRepository
	pipeline      *tracking.Pipeline
	statsCache    cache.StatisticsCache
}

func NewProductService(
	cfg config.Catalog,
	logger *slog.Logger,
	db db.DB,
	productRepo repository.ProductRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
	pipeline *tracking.Pipeline,
	statsCache cache.StatisticsCache,
) ProductService {
	return &productService{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "product")),
		db:            db,
		productRepo:   productRepo,
		outboxMsgRepo: outboxMsgRepo,
		pipeline:      pipeline,
		statsCache:    statsCache,
	}
}

func (s *productService) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	product, err := s.productRepo.Get(ctx, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository get: %w", err)
	}

	products, err := s.withSuppliers(ctx, s.db, product)
	if err != nil {
		return model.Product{}, err
	}

	return products[0], nil
}

func (s *productService) ListProducts(ctx context.Context, params ListProductsParams) (ProductList, error) {
	criteria := params.criteria()

	items, err := s.productRepo.List(ctx, query.Spec{Criteria: criteria, Sort: params.Sort, Page: params.Page})
	if err != nil {
		return ProductList{}, fmt.Errorf("product repository list: %w", err)
	}

	total, err := s.productRepo.Count(ctx, criteria)
	if err != nil {
		return ProductList{}, fmt.Errorf("product repository count: %w", err)
	}

	items, err = s.withSuppliers(ctx, s.db, items...)
	if err != nil {
		return ProductList{}, err
	}

	return ProductList{Items: items, Total: total}, nil
}

func (s *productService) CreateProduct(ctx context.Context, params model.NewProduct) (model.Product, error) {
	var product model.Product
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		created, err := s.productRepo.WithDB(tx).Create(ctx, repository.ProductRecord(params))
		if err != nil {
			return fmt.Errorf("product repository create: %w", err)
		}

		product, err = s.afterCreate(ctx, tx, created, params.SupplierIDs)
		return err
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	s.invalidateStatistics(ctx)
	return product, nil
}

// BatchCreateProducts creates all products or none.
func (s *productService) BatchCreateProducts(ctx context.Context, params []model.NewProduct) ([]model.Product, error) {
	recs := make([]repository.Record, len(params))
	for i, p := range params {
		recs[i] = repository.ProductRecord(p)
	}

	var products []model.Product
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		created, err := s.productRepo.WithDB(tx).BatchCreate(ctx, recs)
		if err != nil {
			return fmt.Errorf("product repository batch create: %w", err)
		}

		products = make([]model.Product, 0, len(created))
		for i, p := range created {
			p, err = s.afterCreate(ctx, tx, p, params[i].SupplierIDs)
			if err != nil {
				return err
			}
			products = append(products, p)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("db with tx: %w", err)
	}

	s.invalidateStatistics(ctx)
	return products, nil
}

// afterCreate links suppliers and announces the new product. A supplier that
// cannot be linked is logged and skipped; it never fails the creation.
func (s *productService) afterCreate(ctx context.Context, tx db.DB, product model.Product, supplierIDs []int64) (model.Product, error) {
	for _, supplierID := range batch.Dedupe(supplierIDs) {
		if err := tx.WithTx(ctx, func(sp db.DB) error {
			return s.productRepo.WithDB(sp).AddSupplier(ctx, product.ID, supplierID)
		}); err != nil {
			s.logger.WarnContext(ctx, "skipping supplier association",
				slog.Int64("product_id", product.ID),
				slog.Int64("supplier_id", supplierID),
				slog.Any("error", err),
			)
		}
	}

	products, err := s.withSuppliers(ctx, tx, product)
	if err != nil {
		return model.Product{}, err
	}

	if err := event.Publish(ctx, s.outboxMsgRepo.WithDB(tx), event.TopicProductCreated, product.ID, event.NewProductEvent(product)); err != nil {
		return model.Product{}, err
	}

	return products[0], nil
}

func (s *productService) UpdateProduct(ctx context.Context, id int64, patch model.ProductPatch, changeReason *string) (model.Product, error) {
	res, err := s.pipeline.Update(ctx, s.db, id, patch, changeReason)
	if err != nil {
		return model.Product{}, fmt.Errorf("tracked update: %w", err)
	}

	s.logUpdate(ctx, res)
	s.invalidateStatistics(ctx)

	products, err := s.withSuppliers(ctx, s.db, res.Product)
	if err != nil {
		return model.Product{}, err
	}
	return products[0], nil
}

// BatchUpdateProducts runs every item through the tracked pipeline inside one
// transaction. Items are applied in request order.
func (s *productService) BatchUpdateProducts(ctx context.Context, policy batch.Policy, updates []ProductUpdate) ([]model.Product, error) {
	ids := make([]int64, len(updates))
	for i, u := range updates {
		ids[i] = u.ID
	}

	var products []model.Product
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		res, err := batch.Run(ctx, batch.Spec[model.Product]{
			Policy:   policy,
			IDs:      ids,
			Existing: s.productRepo.WithDB(tx).ExistingIDs,
			NotFound: apperr.ProductsNotFoundErr,
			Apply: func(ctx context.Context, present []int64) ([]model.Product, error) {
				keep := make(map[int64]struct{}, len(present))
				for _, id := range present {
					keep[id] = struct{}{}
				}

				kept := make([]ProductUpdate, 0, len(updates))
				for _, u := range updates {
					if _, ok := keep[u.ID]; ok {
						kept = append(kept, u)
					}
				}

				return batch.Each(ctx, kept, func(ctx context.Context, u ProductUpdate) (model.Product, error) {
					r, err := s.pipeline.Update(ctx, tx, u.ID, u.Patch, u.ChangeReason)
					if err != nil {
						return model.Product{}, fmt.Errorf("update product %d: %w", u.ID, err)
					}
					s.logUpdate(ctx, r)
					return r.Product, nil
				})
			},
		})
		if err != nil {
			return err
		}

		s.logSkipped(ctx, "batch update", res.Skipped)
		products, err = s.withSuppliers(ctx, tx, res.Items...)
		return err
	}); err != nil {
		return nil, fmt.Errorf("db with tx: %w", err)
	}

	s.invalidateStatistics(ctx)
	return products, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id int64) (model.Product, error) {
	var product model.Product
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		deleted, err := s.deleteProducts(ctx, tx, []int64{id}, true)
		if err != nil {
			return err
		}
		product = deleted[0]
		return nil
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	s.invalidateStatistics(ctx)
	return product, nil
}

func (s *productService) BatchDeleteProducts(ctx context.Context, policy batch.Policy, ids []int64) ([]model.Product, error) {
	var products []model.Product
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		res, err := batch.Run(ctx, batch.Spec[model.Product]{
			Policy:   policy,
			IDs:      ids,
			Existing: s.productRepo.WithDB(tx).ExistingIDs,
			NotFound: apperr.ProductsNotFoundErr,
			Apply: func(ctx context.Context, present []int64) ([]model.Product, error) {
				return s.deleteProducts(ctx, tx, present, false)
			},
		})
		if err != nil {
			return err
		}

		s.logSkipped(ctx, "batch delete", res.Skipped)
		products = res.Items
		return nil
	}); err != nil {
		return nil, fmt.Errorf("db with tx: %w", err)
	}

	s.invalidateStatistics(ctx)
	return products, nil
}

// deleteProducts returns the last state of each deleted product, suppliers
// included. With single set a missing id fails with ProductNotFound.
func (s *productService) deleteProducts(ctx context.Context, tx db.DB, ids []int64, single bool) ([]model.Product, error) {
	productRepo := s.productRepo.WithDB(tx)

	suppliers, err := productRepo.SuppliersByProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("product repository suppliers by products: %w", err)
	}

	var deleted []model.Product
	if single {
		p, err := productRepo.Delete(ctx, ids[0])
		if err != nil {
			return nil, fmt.Errorf("product repository delete: %w", err)
		}
		deleted = []model.Product{p}
	} else {
		deleted, err = productRepo.BatchDelete(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("product repository batch delete: %w", err)
		}
	}

	outboxRepo := s.outboxMsgRepo.WithDB(tx)
	for i := range deleted {
		deleted[i].Suppliers = suppliers[deleted[i].ID]
		if deleted[i].Suppliers == nil {
			deleted[i].Suppliers = []model.Supplier{}
		}
		if err := event.Publish(ctx, outboxRepo, event.TopicProductDeleted, deleted[i].ID, event.NewProductEvent(deleted[i])); err != nil {
			return nil, err
		}
	}

	return deleted, nil
}

func (s *productService) AddSupplier(ctx context.Context, productID, supplierID int64) (model.Product, error) {
	if err := s.productRepo.AddSupplier(ctx, productID, supplierID); err != nil {
		return model.Product{}, fmt.Errorf("product repository add supplier: %w", err)
	}
	return s.GetProduct(ctx, productID)
}

func (s *productService) RemoveSupplier(ctx context.Context, productID, supplierID int64) (model.Product, error) {
	if err := s.productRepo.RemoveSupplier(ctx, productID, supplierID); err != nil {
		return model.Product{}, fmt.Errorf("product repository remove supplier: %w", err)
	}
	return s.GetProduct(ctx, productID)
}

func (s *productService) ListProductSuppliers(ctx context.Context, productID int64) ([]model.Supplier, error) {
	suppliers, err := s.productRepo.ListSuppliers(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product repository list suppliers: %w", err)
	}
	return suppliers, nil
}

// ListLowStockProducts returns products whose stock is below threshold,
// ordered by id. A nil threshold uses the configured default.
func (s *productService) ListLowStockProducts(ctx context.Context, threshold *int, page query.Page) ([]model.Product, error) {
	t := s.cfg.LowStockThreshold
	if threshold != nil {
		t = *threshold
	}

	items, err := s.productRepo.List(ctx, query.Spec{
		Criteria: lowStockCriteria(t),
		Page:     page,
	})
	if err != nil {
		return nil, fmt.Errorf("product repository list: %w", err)
	}

	return s.withSuppliers(ctx, s.db, items...)
}

func lowStockCriteria(threshold int) query.Criteria {
	return query.Criteria{Filters: query.Filters{
		"stock_quantity": query.Range{Max: threshold - 1},
	}}
}

// GetStatistics serves from the statistics cache when possible. Cache failures
// are logged and fall back to the database.
func (s *productService) GetStatistics(ctx context.Context) (model.ProductStatistics, error) {
	if stats, ok, err := s.statsCache.Get(ctx); err != nil {
		s.logger.WarnContext(ctx, "statistics cache get failed", slog.Any("error", err))
	} else if ok {
		return stats, nil
	}

	total, err := s.productRepo.Count(ctx, query.Criteria{})
	if err != nil {
		return model.ProductStatistics{}, fmt.Errorf("product repository count: %w", err)
	}

	byCategory, err := s.productRepo.CountByCategory(ctx)
	if err != nil {
		return model.ProductStatistics{}, fmt.Errorf("product repository count by category: %w", err)
	}

	lowStock, err := s.productRepo.Count(ctx, lowStockCriteria(s.cfg.LowStockThreshold))
	if err != nil {
		return model.ProductStatistics{}, fmt.Errorf("product repository count low stock: %w", err)
	}

	stats := model.ProductStatistics{
		TotalProducts:      total,
		ProductsByCategory: byCategory,
		LowStockProducts:   lowStock,
	}

	if err := s.statsCache.Set(ctx, stats); err != nil {
		s.logger.WarnContext(ctx, "statistics cache set failed", slog.Any("error", err))
	}

	return stats, nil
}

func (s *productService) withSuppliers(ctx context.Context, d db.DB, products ...model.Product) ([]model.Product, error) {
	if len(products) == 0 {
		return []model.Product{}, nil
	}

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	suppliers, err := s.productRepo.WithDB(d).SuppliersByProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("product repository suppliers by products: %w", err)
	}

	for i := range products {
		products[i].Suppliers = suppliers[products[i].ID]
		if products[i].Suppliers == nil {
			products[i].Suppliers = []model.Supplier{}
		}
	}
	return products, nil
}

func (s *productService) invalidateStatistics(ctx context.Context) {
	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "statistics cache invalidate failed", slog.Any("error", err))
	}
}

func (s *productService) logUpdate(ctx context.Context, res tracking.Result) {
	if res.Diff.Empty() {
		return
	}

	attrs := []any{slog.Int64("product_id", res.Product.ID)}
	if c := res.Diff.Price; c != nil {
		attrs = append(attrs, slog.String("old_price", c.Old.String()), slog.String("new_price", c.New.String()))
	}
	if c := res.Diff.Stock; c != nil {
		attrs = append(attrs, slog.Int("old_quantity", c.Old), slog.Int("new_quantity", c.New))
	}
	s.logger.InfoContext(ctx, "tracked product change recorded", attrs...)
}

func (s *productService) logSkipped(ctx context.Context, op string, ids []int64) {
	if len(ids) == 0 {
		return
	}
	s.logger.InfoContext(ctx, "skipped missing products",
		slog.String("operation", op),
		slog.String("product_ids", batch.FormatIDs(ids)),
	)
}
