package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/batch"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

const lowStockDefaultLimit = 100

type productHandler struct {
	cfg config.Catalog
	v   validator.Validator
	svc service.ProductService
}

type updateProductRequest struct {
	model.ProductPatch
	ChangeReason *string `json:"change_reason" validate:"omitempty,max=255"`
}

type batchCreateProductsRequest struct {
	Products []model.NewProduct `json:"products" validate:"required,min=1,dive"`
}

type productUpdateItem struct {
	ID int64 `json:"id" validate:"gt=0"`
	model.ProductPatch
	ChangeReason *string `json:"change_reason" validate:"omitempty,max=255"`
}

type batchUpdateProductsRequest struct {
	Updates []productUpdateItem `json:"updates" validate:"required,min=1,dive"`
}

func (h *productHandler) List(w http.ResponseWriter, r *http.Request) error {
	return h.list(w, r, "")
}

// Search requires a non-empty query term matched against name and description.
func (h *productHandler) Search(w http.ResponseWriter, r *http.Request) error {
	term, err := queryString(r, "query", "q")
	if err != nil {
		return err
	}
	if term == "" {
		return &apierr.InvalidParamError{Param: "query", Err: errors.New("is required")}
	}
	return h.list(w, r, term)
}

func (h *productHandler) list(w http.ResponseWriter, r *http.Request, search string) error {
	page, err := pagination(r, h.cfg.DefaultPageSize, h.cfg.MaxPageSize)
	if err != nil {
		return err
	}
	filter, err := productFilter(r)
	if err != nil {
		return err
	}
	sort, err := sorting(r)
	if err != nil {
		return err
	}

	res, err := h.svc.ListProducts(r.Context(), service.ListProductsParams{
		Filter: filter,
		Search: search,
		Sort:   sort,
		Page:   page.Page,
	})
	if err != nil {
		return fmt.Errorf("product service list products: %w", err)
	}

	return writeJSON(w, http.StatusOK, newListResponse(res.Items, res.Total, page))
}

func productFilter(r *http.Request) (service.ProductFilter, error) {
	var (
		f   service.ProductFilter
		err error
	)
	if f.Name, err = queryString(r, "name"); err != nil {
		return f, err
	}
	category, err := queryString(r, "category")
	if err != nil {
		return f, err
	}
	if category != "" {
		f.Category = &category
	}
	if f.MinPrice, err = queryDecimal(r, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(r, "max_price"); err != nil {
		return f, err
	}
	if f.MinStock, err = queryIntIn(r, "min_stock", 0, 0); err != nil {
		return f, err
	}
	if f.MaxStock, err = queryIntIn(r, "max_stock", 0, 0); err != nil {
		return f, err
	}
	return f, nil
}

func (h *productHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "product_id")
	if err != nil {
		return err
	}

	product, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		return fmt.Errorf("product service get product: %w", err)
	}

	return writeJSON(w, http.StatusOK, product)
}

func (h *productHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var req model.NewProduct
	if err := decodeJSON(w, r, h.v, &req); err != nil {
		return err
	}

	product, err := h.svc.CreateProduct(r.Context(), req)
	if err != nil {
		return fmt.Errorf("product service create product: %w", err)
	}

	return writeJSON(w, http.StatusCreated, product)
}

func (h *productHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "product_id")
	if err != nil {
		return err
	}

	var req updateProductRequest
	if err := decodeJSON(w, r, h.v, &req); err != nil {
		return err
	}

	product, err := h.svc.UpdateProduct(r.Context(), id, req.ProductPatch, req.ChangeReason)
	if err != nil {
		return fmt.Errorf("product service update product: %w", err)
	}

	return writeJSON(w, http.StatusOK, product)
}

func (h *productHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "product_id")
	if err != nil {
		return err
	}

	product, err := h.svc.DeleteProduct(r.Context(), id)
	if err != nil {
		return fmt.Errorf("product service delete product: %w", err)
	}

	return writeJSON(w, http.StatusOK, product)
}

func (h *productHandler) BatchCreate(w http.ResponseWriter, r *http.Request) error {
	var req batchCreateProductsRequest
	if err := decodeJSON(w, r, h.v, &req); err != nil {
		return err
	}
	if err := checkBatchSize(len(req.Products), h.cfg.MaxBatchSize); err != nil {
		return err
	}

	products, err := h.svc.BatchCreateProducts(r.Context(), req.Products)
	if err != nil {
		return fmt.Errorf("product service batch create products: %w", err)
	}

	return writeJSON(w, http.StatusCreated, map[string][]model.Product{"products": products})
}

func (h *productHandler) BatchUpdate(w http.ResponseWriter, r *http.Request) error {
	policy, err := batchPolicy(r)
	if err != nil {
		return err
	}

	var req batchUpdateProductsRequest
	if err := decodeJSON(w, r, h.v, &req); err != nil {
		return err
	}
	if err := checkBatchSize(len(req.Updates), h.cfg.MaxBatchSize); err != nil {
		return err
	}

	updates := make([]service.ProductUpdate, len(req.Updates))
	for i, u := range req.Updates {
		updates[i] = service.ProductUpdate{ID: u.ID, Patch: u.ProductPatch, ChangeReason: u.ChangeReason}
	}

	products, err := h.svc.BatchUpdateProducts(r.Context(), policy, updates)
	if err != nil {
		return fmt.Errorf("product service batch update products: %w", err)
	}

	return writeJSON(w, http.StatusOK, map[string][]model.Product{"updated": products})
}

func (h *productHandler) BatchDelete(w http.ResponseWriter, r *http.Request) error {
	policy, err := batchPolicy(r)
	if err != nil {
		return err
	}
	ids, err := queryIDs(r, "product_ids")
	if err != nil {
		return err
	}
	if err := checkBatchSize(len(ids), h.cfg.MaxBatchSize); err != nil {
		return err
	}

	products, err := h.svc.BatchDeleteProducts(r.Context(), policy, ids)
	if err != nil {
		return fmt.Errorf("product service batch delete products: %w", err)
	}

	deleted := make([]int64, len(products))
	for i, p := range products {
		deleted[i] = p.ID
	}
	return writeJSON(w, http.StatusOK, map[string][]int64{"deleted": deleted})
}

// LowStock lists products whose stock is below threshold, ordered by id.
func (h *productHandler) LowStock(w http.ResponseWriter, r *http.Request) error {
	threshold, err := queryIntIn(r, "threshold", 0, 0)
	if err != nil {
		return err
	}
	page, err := pagination(r, lowStockDefaultLimit, h.cfg.MaxPageSize)
	if err != nil {
		return err
	}

	products, err := h.svc.ListLowStockProducts(r.Context(), threshold, page.Page)
	if err != nil {
		return fmt.Errorf("product service list low stock products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}

	return writeJSON(w, http.StatusOK, products)
}

func (h *productHandler) Statistics(w http.ResponseWriter, r *http.Request) error {
	stats, err := h.svc.GetStatistics(r.Context())
	if err != nil {
		return fmt.Errorf("product service get statistics: %w", err)
	}

	return writeJSON(w, http.StatusOK, stats)
}

func (h *productHandler) Suppliers(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "product_id")
	if err != nil {
		return err
	}

	suppliers, err := h.svc.ListProductSuppliers(r.Context(), id)
	if err != nil {
		return fmt.Errorf("product service list product suppliers: %w", err)
	}
	if suppliers == nil {
		suppliers = []model.Supplier{}
	}

	return writeJSON(w, http.StatusOK, map[string][]model.Supplier{"suppliers": suppliers})
}

func (h *productHandler) AddSupplier(w http.ResponseWriter, r *http.Request) error {
	return h.association(w, r, h.svc.AddSupplier)
}

func (h *productHandler) RemoveSupplier(w http.ResponseWriter, r *http.Request) error {
	return h.association(w, r, h.svc.RemoveSupplier)
}

func (h *productHandler) association(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, productID, supplierID int64) (model.Product, error),
) error {
	productID, err := pathID(r, "product_id")
	if err != nil {
		return err
	}
	supplierID, err := pathID(r, "supplier_id")
	if err != nil {
		return err
	}

	product, err := apply(r.Context(), productID, supplierID)
	if err != nil {
		return fmt.Errorf("product service supplier association: %w", err)
	}

	return writeJSON(w, http.StatusOK, product)
}

func batchPolicy(r *http.Request) (batch.Policy, error) {
	s, err := queryString(r, "policy")
	if err != nil {
		return 0, err
	}
	return batch.ParsePolicy(s)
}

func checkBatchSize(n, limit int) error {
	if limit > 0 && n > limit {
		return apperr.ValidationErr.WithMsgf("batch must contain at most %d items, got %d", limit, n)
	}
	return nil
}
