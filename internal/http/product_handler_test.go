package http_test

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
)

type productList struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
	Pages int             `json:"pages"`
}

func createProduct(t *testing.T, s *server, body map[string]any) model.Product {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/products", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Product](t, rec)
}

func TestProductCRUD(t *testing.T) {
	t.Run("Should create a product and publish its event", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		p := createProduct(t, s, map[string]any{"name": "Widget", "price": 9.99, "stock_quantity": 5, "category": "tools"})

		assert.Equal(t, "Widget", p.Name)
		assert.True(t, decimal.RequireFromString("9.99").Equal(p.Price))
		assert.Equal(t, "tools", *p.Category)
		assert.Equal(t, []string{event.TopicProductCreated}, s.store.Topics())
	})

	t.Run("Should reject an invalid product with field details", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodPost, "/products", map[string]any{"name": "ab", "price": 1.234, "stock_quantity": -1})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode[errorBody](t, rec)
		assert.Equal(t, "VALIDATION_FAILED", body.Code)

		fields := make([]string, 0, len(body.Details))
		for _, d := range body.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"name", "price", "stock_quantity"}, fields)
		assert.Empty(t, s.store.Products)
	})

	t.Run("Should reject values beyond the column limits with 422", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodPost, "/products", `{"name":"Huge","price":100000000000,"stock_quantity":3000000000}`)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		body := decode[errorBody](t, rec)
		assert.Equal(t, "VALIDATION_FAILED", body.Code)

		fields := make([]string, 0, len(body.Details))
		for _, d := range body.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"price", "stock_quantity"}, fields)
		assert.Empty(t, s.store.Products)
	})

	t.Run("Should reject a stock update beyond the column limit with 422", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		p := createProduct(t, s, map[string]any{"name": "Widget", "price": 10, "stock_quantity": 5})

		rec := s.do(t, http.MethodPut, "/products/"+itoa(p.ID), `{"stock_quantity":3000000000}`)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		assert.Empty(t, s.store.StockHistory)
	})

	t.Run("Should reject malformed json with 400", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodPost, "/products", `{"name":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should get a product by id", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		p := createProduct(t, s, map[string]any{"name": "Widget", "price": 10})

		rec := s.do(t, http.MethodGet, "/products/"+itoa(p.ID), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, p.ID, decode[model.Product](t, rec).ID)
	})

	t.Run("Should return 404 for an unknown product", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodGet, "/products/42", nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "PRODUCT_NOT_FOUND", decode[errorBody](t, rec).Code)
	})

	t.Run("Should reject a non numeric or non positive id", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/products/abc", nil).Code)
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/products/0", nil).Code)
	})

	t.Run("Should update a product and record its history", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		p := createProduct(t, s, map[string]any{"name": "Widget", "price": 10, "stock_quantity": 5})

		rec := s.do(t, http.MethodPut, "/products/"+itoa(p.ID), map[string]any{
			"price":          12.5,
			"stock_quantity": 3,
			"change_reason":  "sold",
		})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated := decode[model.Product](t, rec)
		assert.True(t, decimal.RequireFromString("12.5").Equal(updated.Price))
		assert.Equal(t, 3, updated.StockQuantity)
		require.Len(t, s.store.PriceHistory, 1)
		require.Len(t, s.store.StockHistory, 1)
		assert.Equal(t, "sold", *s.store.StockHistory[0].ChangeReason)
	})

	t.Run("Should clear a nullable field on update", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		p := createProduct(t, s, map[string]any{"name": "Widget", "price": 10, "category": "tools"})

		rec := s.do(t, http.MethodPut, "/products/"+itoa(p.ID), `{"category": null}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Nil(t, decode[model.Product](t, rec).Category)
	})

	t.Run("Should reject null for a required field", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		p := createProduct(t, s, map[string]any{"name": "Widget", "price": 10})

		rec := s.do(t, http.MethodPut, "/products/"+itoa(p.ID), `{"price": null}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("Should delete a product and return it", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		p := createProduct(t, s, map[string]any{"name": "Widget", "price": 10})

		rec := s.do(t, http.MethodDelete, "/products/"+itoa(p.ID), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, p.ID, decode[model.Product](t, rec).ID)
		assert.Empty(t, s.store.Products)
	})
}

func TestListProducts(t *testing.T) {
	seed := func(t *testing.T, s *server, n int) {
		t.Helper()
		for i := 0; i < n; i++ {
			createProduct(t, s, map[string]any{"name": "Product " + itoa(int64(i)), "price": 10})
		}
	}

	t.Run("Should paginate with skip and limit", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		seed(t, s, 5)

		rec := s.do(t, http.MethodGet, "/products?skip=2&limit=2", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[productList](t, rec)
		assert.Len(t, list.Items, 2)
		assert.Equal(t, int64(5), list.Total)
		assert.Equal(t, 2, list.Page)
		assert.Equal(t, 2, list.Size)
		assert.Equal(t, 3, list.Pages)
	})

	t.Run("Should let page and size override skip and limit", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		seed(t, s, 5)

		rec := s.do(t, http.MethodGet, "/products?skip=0&limit=1&page=2&size=4", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[productList](t, rec)
		assert.Len(t, list.Items, 1)
		assert.Equal(t, 2, list.Page)
		assert.Equal(t, 4, list.Size)
		assert.Equal(t, 2, list.Pages)
	})

	t.Run("Should pass filters and sort to the repository", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodGet, "/products?category=tools&min_price=1.5&max_stock=9&sort_by=price&sort_order=desc", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, s.store.Specs)
		spec := s.store.Specs[len(s.store.Specs)-1]
		assert.Equal(t, query.Sort{Field: "price", Direction: query.Desc}, spec.Sort)
		assert.Equal(t, query.Exact{Value: "tools"}, spec.Filters["category"])
		assert.Equal(t, query.Range{Min: decimal.RequireFromString("1.5")}, spec.Filters["price"])
		assert.Equal(t, query.Range{Max: 9}, spec.Filters["stock_quantity"])
	})

	t.Run("Should reject out of range pagination", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		for _, target := range []string{
			"/products?skip=-1",
			"/products?limit=0",
			"/products?limit=101",
			"/products?page=0",
			"/products?size=0",
			"/products?page=1844674407370955161&size=10",
			"/products?min_price=-1",
			"/products?min_price=abc",
		} {
			assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, target, nil).Code, target)
		}
	})

	t.Run("Should require a search term", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/products/search", nil).Code)

		rec := s.do(t, http.MethodGet, "/products/search?query=wid", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		spec := s.store.Specs[len(s.store.Specs)-1]
		assert.Equal(t, "wid", spec.Search.Term)
	})

	t.Run("Should list low stock products", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		createProduct(t, s, map[string]any{"name": "Low", "price": 10, "stock_quantity": 1})

		rec := s.do(t, http.MethodGet, "/products/low-stock?threshold=5", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		spec := s.store.Specs[len(s.store.Specs)-1]
		assert.Equal(t, query.Range{Max: 4}, spec.Filters["stock_quantity"])
		assert.Equal(t, 100, spec.Page.Limit)
	})

	t.Run("Should return statistics", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		createProduct(t, s, map[string]any{"name": "Widget", "price": 10, "category": "tools"})

		rec := s.do(t, http.MethodGet, "/products/statistics", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		stats := decode[model.ProductStatistics](t, rec)
		assert.Equal(t, int64(1), stats.TotalProducts)
		assert.Equal(t, int64(1), stats.ProductsByCategory["tools"])
	})
}

func TestProductBatches(t *testing.T) {
	t.Run("Should create products in a batch", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodPost, "/products/batch", map[string]any{"products": []map[string]any{
			{"name": "One", "price": 1},
			{"name": "Two", "price": 2},
		}})

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Len(t, decode[map[string][]model.Product](t, rec)["products"], 2)
	})

	t.Run("Should reject a batch above the configured maximum", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		items := make([]map[string]any, testCatalogCfg.MaxBatchSize+1)
		for i := range items {
			items[i] = map[string]any{"name": "Item " + itoa(int64(i)), "price": 1}
		}

		rec := s.do(t, http.MethodPost, "/products/batch", map[string]any{"products": items})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, s.store.Products)
	})

	t.Run("Should fail a strict batch update naming the missing ids", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		p := createProduct(t, s, map[string]any{"name": "Widget", "price": 10})

		rec := s.do(t, http.MethodPut, "/products/batch", map[string]any{"updates": []map[string]any{
			{"id": p.ID, "price": 11},
			{"id": 999, "price": 12},
		}})

		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decode[errorBody](t, rec)
		assert.Equal(t, "PRODUCTS_NOT_FOUND", body.Code)
		assert.Contains(t, body.Message, "999")
		assert.Equal(t, []int64{999}, body.Meta.MissingIDs)
		assert.Empty(t, s.store.PriceHistory)
	})

	t.Run("Should skip missing ids in a lenient batch update", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		p := createProduct(t, s, map[string]any{"name": "Widget", "price": 10})

		rec := s.do(t, http.MethodPut, "/products/batch?policy=lenient", map[string]any{"updates": []map[string]any{
			{"id": p.ID, "price": 11},
			{"id": 999, "price": 12},
		}})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated := decode[map[string][]model.Product](t, rec)["updated"]
		require.Len(t, updated, 1)
		assert.Equal(t, p.ID, updated[0].ID)
		assert.Len(t, s.store.PriceHistory, 1)
	})

	t.Run("Should reject an unknown policy", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		rec := s.do(t, http.MethodDelete, "/products/batch?product_ids=1&policy=maybe", nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_BATCH_POLICY", decode[errorBody](t, rec).Code)
	})

	t.Run("Should batch delete by comma separated ids", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		a := createProduct(t, s, map[string]any{"name": "One", "price": 1})
		b := createProduct(t, s, map[string]any{"name": "Two", "price": 2})

		rec := s.do(t, http.MethodDelete, "/products/batch?product_ids="+itoa(a.ID)+","+itoa(b.ID)+",999&policy=lenient", nil)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.ElementsMatch(t, []int64{a.ID, b.ID}, decode[map[string][]int64](t, rec)["deleted"])
		assert.Empty(t, s.store.Products)
	})

	t.Run("Should require product ids for a batch delete", func(t *testing.T) {
		s := newServer(t, config.Auth{})

		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodDelete, "/products/batch", nil).Code)
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodDelete, "/products/batch?product_ids=1,x", nil).Code)
	})
}

func TestProductSuppliers(t *testing.T) {
	t.Run("Should add list and remove a supplier", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		p := createProduct(t, s, map[string]any{"name": "Widget", "price": 10})
		sup := createSupplier(t, s, map[string]any{"name": "Acme", "contact_info": "acme@example.com", "credit_rating": 4})
		path := "/products/" + itoa(p.ID) + "/suppliers"

		rec := s.do(t, http.MethodPost, path+"/"+itoa(sup.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Len(t, decode[model.Product](t, rec).Suppliers, 1)

		rec = s.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[map[string][]model.Supplier](t, rec)["suppliers"], 1)

		rec = s.do(t, http.MethodDelete, path+"/"+itoa(sup.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[model.Product](t, rec).Suppliers)
	})

	t.Run("Should return 404 for an unknown supplier", func(t *testing.T) {
		s := newServer(t, config.Auth{})
		p := createProduct(t, s, map[string]any{"name": "Widget", "price": 10})

		rec := s.do(t, http.MethodPost, "/products/"+itoa(p.ID)+"/suppliers/77", nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "SUPPLIER_NOT_FOUND", decode[errorBody](t, rec).Code)
	})
}
