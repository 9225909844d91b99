package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
)

func createSupplier(t *testing.T, s *server, body map[string]any) model.Supplier {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/suppliers", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Supplier](t, rec)
}

func TestSupplierCRUD(t *testing.T) {
	t.Run("Should create get update and delete a supplier", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		sup := createSupplier(t, s, map[string]any{"name": "Acme", "contact_info": "acme@example.com", "credit_rating": 3})

		rec := s.do(t, http.MethodGet, "/suppliers/"+itoa(sup.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Acme", decode[model.Supplier](t, rec).Name)

		rec = s.do(t, http.MethodPut, "/suppliers/"+itoa(sup.ID), map[string]any{"credit_rating": 5})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 5, decode[model.Supplier](t, rec).CreditRating)

		rec = s.do(t, http.MethodDelete, "/suppliers/"+itoa(sup.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, s.store.Suppliers)
	})

	t.Run("Should reject a credit rating out of bounds", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodPost, "/suppliers", map[string]any{"name": "Acme", "contact_info": "x", "credit_rating": 6})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "INVALID_CREDIT_RATING", decode[errorBody](t, rec).Code)
	})

	t.Run("Should require a credit rating", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodPost, "/suppliers", map[string]any{"name": "Acme", "contact_info": "x"})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode[errorBody](t, rec)
		assert.Equal(t, "VALIDATION_FAILED", body.Code)
		require.Len(t, body.Details, 1)
		assert.Equal(t, "credit_rating", body.Details[0].Field)
		assert.Empty(t, s.store.Suppliers)
	})

	t.Run("Should accept a zero credit rating", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		sup := createSupplier(t, s, map[string]any{"name": "Acme", "contact_info": "x", "credit_rating": 0})

		assert.Zero(t, sup.CreditRating)
	})

	t.Run("Should require contact info", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodPost, "/suppliers", map[string]any{"name": "Acme"})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "contact_info", decode[errorBody](t, rec).Details[0].Field)
	})

	t.Run("Should return 404 for an unknown supplier", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodGet, "/suppliers/9", nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "SUPPLIER_NOT_FOUND", decode[errorBody](t, rec).Code)
	})
}

func TestListSuppliers(t *testing.T) {
	t.Run("Should filter by rating and search by name", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		createSupplier(t, s, map[string]any{"name": "Acme", "contact_info": "a", "credit_rating": 4})

		rec := s.do(t, http.MethodGet, "/suppliers?name=ac&min_rating=2&max_rating=5", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		spec := s.store.Specs[len(s.store.Specs)-1]
		assert.Equal(t, "ac", spec.Search.Term)
		assert.Equal(t, query.Range{Min: 2, Max: 5}, spec.Filters["credit_rating"])
		assert.Equal(t, 100, spec.Page.Limit)
	})

	t.Run("Should reject a rating filter out of bounds", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/suppliers?min_rating=6", nil).Code)
	})

	t.Run("Should list top rated suppliers", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		createSupplier(t, s, map[string]any{"name": "Acme", "contact_info": "a", "credit_rating": 4})

		rec := s.do(t, http.MethodGet, "/suppliers/top-rated?limit=3", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		spec := s.store.Specs[len(s.store.Specs)-1]
		assert.Equal(t, query.Sort{Field: "credit_rating", Direction: query.Desc}, spec.Sort)
		assert.Equal(t, 3, spec.Page.Limit)
		assert.Len(t, decode[[]model.Supplier](t, rec), 1)
	})
}

func TestSupplierBatches(t *testing.T) {
	t.Run("Should create suppliers in a batch", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodPost, "/suppliers/batch/create", map[string]any{"suppliers": []map[string]any{
			{"name": "Acme", "contact_info": "a", "credit_rating": 1},
			{"name": "Bolt", "contact_info": "b", "credit_rating": 2},
		}})

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Len(t, decode[map[string][]model.Supplier](t, rec)["suppliers"], 2)
	})

	t.Run("Should apply one patch to every supplier", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		a := createSupplier(t, s, map[string]any{"name": "Acme", "contact_info": "a", "credit_rating": 3})
		b := createSupplier(t, s, map[string]any{"name": "Bolt", "contact_info": "b", "credit_rating": 3})

		rec := s.do(t, http.MethodPut, "/suppliers/batch/update", map[string]any{
			"supplier_ids": []int64{a.ID, b.ID},
			"update_data":  map[string]any{"credit_rating": 2},
		})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated := decode[map[string][]model.Supplier](t, rec)["updated"]
		require.Len(t, updated, 2)
		for _, sup := range updated {
			assert.Equal(t, 2, sup.CreditRating)
		}
	})

	t.Run("Should fail a strict batch delete with a missing id", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		a := createSupplier(t, s, map[string]any{"name": "Acme", "contact_info": "a", "credit_rating": 3})

		rec := s.do(t, http.MethodPost, "/suppliers/batch/delete", map[string]any{"supplier_ids": []int64{a.ID, 404}})

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "SUPPLIERS_NOT_FOUND", decode[errorBody](t, rec).Code)
		assert.Len(t, s.store.Suppliers, 1)
	})

	t.Run("Should skip a missing id in a lenient batch delete", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		a := createSupplier(t, s, map[string]any{"name": "Acme", "contact_info": "a", "credit_rating": 3})

		rec := s.do(t, http.MethodPost, "/suppliers/batch/delete?policy=lenient", map[string]any{"supplier_ids": []int64{a.ID, 404}})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, []int64{a.ID}, decode[map[string][]int64](t, rec)["deleted"])
	})

	t.Run("Should reject an empty id list", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodPost, "/suppliers/batch/delete", map[string]any{"supplier_ids": []int64{}})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
