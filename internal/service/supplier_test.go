package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/batch"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
	"github.com/tuanvumaihuynh/product-catalog/pkg/optional"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

func TestSupplierService_CreateSupplier(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create a supplier and announce it", func(t *testing.T) {
		f := newFixture(t, nil)

		s, err := f.suppliers.CreateSupplier(ctx, model.NewSupplier{Name: "Acme", ContactInfo: "sales@acme.test", CreditRating: ptr.New(5)})
		require.NoError(t, err)
		assert.NotZero(t, s.ID)
		assert.False(t, s.CreatedAt.IsZero())
		assert.Equal(t, []string{event.TopicSupplierChanged}, f.store.Topics())
	})

	t.Run("Should reject an out of range rating before writing", func(t *testing.T) {
		f := newFixture(t, nil)

		_, err := f.suppliers.CreateSupplier(ctx, model.NewSupplier{Name: "Acme", ContactInfo: "x", CreditRating: ptr.New(6)})
		require.ErrorIs(t, err, apperr.InvalidCreditRatingErr)
		assert.Empty(t, f.store.Suppliers)
		assert.Zero(t, f.db.Txs)
	})

	t.Run("Should reject a supplier without a credit rating", func(t *testing.T) {
		f := newFixture(t, nil)

		_, err := f.suppliers.CreateSupplier(ctx, model.NewSupplier{Name: "Acme", ContactInfo: "x"})
		require.ErrorIs(t, err, apperr.InvalidCreditRatingErr)
		assert.Empty(t, f.store.Suppliers)
	})
}

func TestSupplierService_BatchCreateSuppliers(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reject the whole batch for one bad rating", func(t *testing.T) {
		f := newFixture(t, nil)

		_, err := f.suppliers.BatchCreateSuppliers(ctx, []model.NewSupplier{
			{Name: "Good", ContactInfo: "g", CreditRating: ptr.New(3)},
			{Name: "Bad", ContactInfo: "b", CreditRating: ptr.New(-1)},
		})
		require.ErrorIs(t, err, apperr.InvalidCreditRatingErr)
		assert.Empty(t, f.store.Suppliers)
	})

	t.Run("Should create every supplier", func(t *testing.T) {
		f := newFixture(t, nil)

		got, err := f.suppliers.BatchCreateSuppliers(ctx, []model.NewSupplier{
			{Name: "One", ContactInfo: "1", CreditRating: ptr.New(0)},
			{Name: "Two", ContactInfo: "2", CreditRating: ptr.New(5)},
		})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Len(t, f.store.Suppliers, 2)
	})
}

func TestSupplierService_UpdateSupplier(t *testing.T) {
	ctx := context.Background()

	t.Run("Should apply only present fields", func(t *testing.T) {
		f := newFixture(t, nil)
		s := f.seedSupplier(t, "Acme", 2)

		got, err := f.suppliers.UpdateSupplier(ctx, s.ID, model.SupplierPatch{CreditRating: optional.Of(4)})
		require.NoError(t, err)
		assert.Equal(t, 4, got.CreditRating)
		assert.Equal(t, "Acme", got.Name)
	})

	t.Run("Should reject an out of range rating", func(t *testing.T) {
		f := newFixture(t, nil)
		s := f.seedSupplier(t, "Acme", 2)

		_, err := f.suppliers.UpdateSupplier(ctx, s.ID, model.SupplierPatch{CreditRating: optional.Of(9)})
		require.ErrorIs(t, err, apperr.InvalidCreditRatingErr)
		assert.Equal(t, 2, f.store.Suppliers[s.ID].CreditRating)
	})

	t.Run("Should reject a null name", func(t *testing.T) {
		f := newFixture(t, nil)
		s := f.seedSupplier(t, "Acme", 2)

		_, err := f.suppliers.UpdateSupplier(ctx, s.ID, model.SupplierPatch{Name: optional.Null[string]()})
		require.ErrorIs(t, err, apperr.ValidationErr)
	})

	t.Run("Should fail with not found", func(t *testing.T) {
		f := newFixture(t, nil)

		_, err := f.suppliers.UpdateSupplier(ctx, 5, model.SupplierPatch{Name: optional.Of("Nope")})
		require.ErrorIs(t, err, apperr.SupplierNotFoundErr)
	})
}

func TestSupplierService_BatchUpdateSuppliers(t *testing.T) {
	ctx := context.Background()
	patch := model.SupplierPatch{CreditRating: optional.Of(1)}

	t.Run("Should abort a strict batch with missing ids", func(t *testing.T) {
		f := newFixture(t, nil)
		s := f.seedSupplier(t, "Acme", 5)

		_, err := f.suppliers.BatchUpdateSuppliers(ctx, batch.Strict, []int64{s.ID, 404}, patch)
		require.ErrorIs(t, err, apperr.SuppliersNotFoundErr)
		assert.Equal(t, 5, f.store.Suppliers[s.ID].CreditRating)
	})

	t.Run("Should update existing ids in a lenient batch", func(t *testing.T) {
		f := newFixture(t, nil)
		s := f.seedSupplier(t, "Acme", 5)

		got, err := f.suppliers.BatchUpdateSuppliers(ctx, batch.Lenient, []int64{s.ID, 404}, patch)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 1, got[0].CreditRating)
	})
}

func TestSupplierService_DeleteSuppliers(t *testing.T) {
	ctx := context.Background()

	t.Run("Should delete and report not found afterwards", func(t *testing.T) {
		f := newFixture(t, nil)
		s := f.seedSupplier(t, "Acme", 5)

		_, err := f.suppliers.DeleteSupplier(ctx, s.ID)
		require.NoError(t, err)

		_, err = f.suppliers.GetSupplier(ctx, s.ID)
		require.ErrorIs(t, err, apperr.SupplierNotFoundErr)
	})

	t.Run("Should keep everything in a strict batch with missing ids", func(t *testing.T) {
		f := newFixture(t, nil)
		s := f.seedSupplier(t, "Acme", 5)

		_, err := f.suppliers.BatchDeleteSuppliers(ctx, batch.Strict, []int64{s.ID, 404})
		require.ErrorIs(t, err, apperr.SuppliersNotFoundErr)
		assert.Len(t, f.store.Suppliers, 1)
	})

	t.Run("Should delete existing ids in a lenient batch", func(t *testing.T) {
		f := newFixture(t, nil)
		s1 := f.seedSupplier(t, "Acme", 5)
		s2 := f.seedSupplier(t, "Globex", 1)

		got, err := f.suppliers.BatchDeleteSuppliers(ctx, batch.Lenient, []int64{s2.ID, 404, s1.ID})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, s1.ID, got[0].ID)
		assert.Equal(t, s2.ID, got[1].ID)
	})
}

func TestSupplierService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("Should filter by rating range and search name and contact", func(t *testing.T) {
		f := newFixture(t, nil)

		_, err := f.suppliers.ListSuppliers(ctx, ListSuppliersParams{
			Name:      "acme",
			MinRating: ptr.New(3),
		})
		require.NoError(t, err)

		spec := f.store.Specs[0]
		assert.Equal(t, query.Range{Min: 3}, spec.Filters["credit_rating"])
		assert.Equal(t, query.Search{Term: "acme", Fields: SupplierSearchFields}, spec.Search)
	})

	t.Run("Should order top rated by rating descending", func(t *testing.T) {
		f := newFixture(t, nil)

		_, err := f.suppliers.ListTopRatedSuppliers(ctx, 3)
		require.NoError(t, err)

		spec := f.store.Specs[0]
		assert.Equal(t, query.Sort{Field: "credit_rating", Direction: query.Desc}, spec.Sort)
		assert.Equal(t, 3, spec.Page.Limit)
	})
}
