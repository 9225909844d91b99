package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/pkg/optional"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

func TestHistoryService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	p := f.seedProduct(t, "Speaker", "10.00", 10, nil)

	for _, price := range []string{"11.00", "12.00", "13.00"} {
		_, err := f.products.UpdateProduct(ctx, p.ID, model.ProductPatch{Price: optional.Of(decimal.RequireFromString(price))}, nil)
		require.NoError(t, err)
	}
	_, err := f.products.UpdateProduct(ctx, p.ID, model.ProductPatch{StockQuantity: optional.Of(8)}, ptr.New("damaged"))
	require.NoError(t, err)

	t.Run("Should list price history newest first with the full total", func(t *testing.T) {
		list, err := f.history.GetPriceHistory(ctx, p.ID, HistoryParams{Page: query.Page{Limit: 2}})
		require.NoError(t, err)
		assert.Equal(t, int64(3), list.Total)
		require.Len(t, list.Items, 2)
		assert.Equal(t, "13", list.Items[0].NewPrice.String())
		assert.Equal(t, "12", list.Items[1].NewPrice.String())
	})

	t.Run("Should list stock history", func(t *testing.T) {
		list, err := f.history.GetStockHistory(ctx, p.ID, HistoryParams{})
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		assert.Equal(t, ptr.New("damaged"), list.Items[0].ChangeReason)
	})

	t.Run("Should combine both histories", func(t *testing.T) {
		h, err := f.history.GetCombinedHistory(ctx, p.ID, HistoryParams{})
		require.NoError(t, err)
		assert.Equal(t, p.ID, h.ProductID)
		assert.Equal(t, "Speaker", h.ProductName)
		assert.Len(t, h.PriceHistory, 3)
		assert.Len(t, h.StockHistory, 1)
	})

	t.Run("Should count within the date range", func(t *testing.T) {
		start := f.store.PriceHistory[1].Timestamp
		list, err := f.history.GetPriceHistory(ctx, p.ID, HistoryParams{Range: repository.TimeRange{Start: &start}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), list.Total)
	})

	t.Run("Should reject a reversed date range before the lookup", func(t *testing.T) {
		start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		end := start.Add(-time.Hour)

		_, err := f.history.GetPriceHistory(ctx, 999, HistoryParams{Range: repository.TimeRange{Start: &start, End: &end}})
		require.ErrorIs(t, err, apperr.InvalidDateRangeErr)
	})

	t.Run("Should fail with not found for an unknown product", func(t *testing.T) {
		_, err := f.history.GetStockHistory(ctx, 999, HistoryParams{})
		require.ErrorIs(t, err, apperr.ProductNotFoundErr)

		_, err = f.history.GetCombinedHistory(ctx, 999, HistoryParams{})
		require.ErrorIs(t, err, apperr.ProductNotFoundErr)
	})
}
