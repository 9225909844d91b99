package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository/repotest"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/cache"
	"github.com/tuanvumaihuynh/product-catalog/internal/tracking"
)

var testCatalogCfg = config.Catalog{
	LowStockThreshold: 10,
	DefaultPageSize:   10,
	MaxPageSize:       100,
	MaxBatchSize:      100,
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store *repotest.Store
	db    *repotest.DB

	products  ProductService
	suppliers SupplierService
	history   HistoryService
}

func newFixture(t *testing.T, statsCache cache.StatisticsCache) *fixture {
	t.Helper()

	if statsCache == nil {
		statsCache = cache.NoopStatisticsCache{}
	}

	store := repotest.NewStore()
	d := &repotest.DB{}
	productRepo := store.ProductRepository()
	outboxRepo := store.OutboxMsgRepository()
	pipeline := tracking.NewPipeline(productRepo, store.PriceHistoryRepository(), store.StockHistoryRepository(), outboxRepo)

	return &fixture{
		store:     store,
		db:        d,
		products:  NewProductService(testCatalogCfg, discardLogger(), d, productRepo, outboxRepo, pipeline, statsCache),
		suppliers: NewSupplierService(discardLogger(), d, store.SupplierRepository(), outboxRepo),
		history:   NewHistoryService(productRepo, store.PriceHistoryRepository(), store.StockHistoryRepository()),
	}
}

func (f *fixture) seedProduct(t *testing.T, name, price string, stock int, category *string) model.Product {
	t.Helper()

	p, err := f.store.ProductRepository().Create(context.Background(), repository.ProductRecord(model.NewProduct{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		Category:      category,
	}))
	require.NoError(t, err)
	return p
}

func (f *fixture) seedSupplier(t *testing.T, name string, rating int) model.Supplier {
	t.Helper()

	s, err := f.store.SupplierRepository().Create(context.Background(), repository.SupplierRecord(model.NewSupplier{
		Name:         name,
		ContactInfo:  name + "@example.com",
		CreditRating: &rating,
	}))
	require.NoError(t, err)
	return s
}
