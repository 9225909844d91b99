package http

import (
	"fmt"
	"net/http"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

const (
	supplierDefaultLimit = 100
	topRatedDefaultLimit = 10
)

type supplierHandler struct {
	cfg config.Catalog
	v   validator.Validator
	svc service.SupplierService
}

type batchCreateSuppliersRequest struct {
	Suppliers []model.NewSupplier `json:"suppliers" validate:"required,min=1,dive"`
}

type batchUpdateSuppliersRequest struct {
	SupplierIDs []int64             `json:"supplier_ids" validate:"required,min=1,dive,gt=0"`
	UpdateData  model.SupplierPatch `json:"update_data"`
}

type batchDeleteSuppliersRequest struct {
	SupplierIDs []int64 `json:"supplier_ids" validate:"required,min=1,dive,gt=0"`
}

// List filters by credit rating range. A name searches name and contact info.
func (h *supplierHandler) List(w http.ResponseWriter, r *http.Request) error {
	page, err := pagination(r, supplierDefaultLimit, h.cfg.MaxPageSize)
	if err != nil {
		return err
	}
	name, err := queryString(r, "name")
	if err != nil {
		return err
	}
	minRating, err := queryIntIn(r, "min_rating", model.MinCreditRating, model.MaxCreditRating)
	if err != nil {
		return err
	}
	maxRating, err := queryIntIn(r, "max_rating", model.MinCreditRating, model.MaxCreditRating)
	if err != nil {
		return err
	}
	sort, err := sorting(r)
	if err != nil {
		return err
	}

	res, err := h.svc.ListSuppliers(r.Context(), service.ListSuppliersParams{
		Name:      name,
		MinRating: minRating,
		MaxRating: maxRating,
		Sort:      sort,
		Page:      page.Page,
	})
	if err != nil {
		return fmt.Errorf("supplier service list suppliers: %w", err)
	}

	return writeJSON(w, http.StatusOK, newListResponse(res.Items, res.Total, page))
}

func (h *supplierHandler) TopRated(w http.ResponseWriter, r *http.Request) error {
	limit, err := queryIntIn(r, "limit", 1, h.cfg.MaxPageSize)
	if err != nil {
		return err
	}
	n := topRatedDefaultLimit
	if limit != nil {
		n = *limit
	}

	suppliers, err := h.svc.ListTopRatedSuppliers(r.Context(), n)
	if err != nil {
		return fmt.Errorf("supplier service list top rated suppliers: %w", err)
	}
	if suppliers == nil {
		suppliers = []model.Supplier{}
	}

	return writeJSON(w, http.StatusOK, suppliers)
}

func (h *supplierHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "supplier_id")
	if err != nil {
		return err
	}

	supplier, err := h.svc.GetSupplier(r.Context(), id)
	if err != nil {
		return fmt.Errorf("supplier service get supplier: %w", err)
	}

	return writeJSON(w, http.StatusOK, supplier)
}

func (h *supplierHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var req model.NewSupplier
	if err := decodeJSON(w, r, h.v, &req); err != nil {
		return err
	}

	supplier, err := h.svc.CreateSupplier(r.Context(), req)
	if err != nil {
		return fmt.Errorf("supplier service create supplier: %w", err)
	}

	return writeJSON(w, http.StatusCreated, supplier)
}

func (h *supplierHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "supplier_id")
	if err != nil {
		return err
	}

	var req model.SupplierPatch
	if err := decodeJSON(w, r, h.v, &req); err != nil {
		return err
	}

	supplier, err := h.svc.UpdateSupplier(r.Context(), id, req)
	if err != nil {
		return fmt.Errorf("supplier service update supplier: %w", err)
	}

	return writeJSON(w, http.StatusOK, supplier)
}

func (h *supplierHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "supplier_id")
	if err != nil {
		return err
	}

	supplier, err := h.svc.DeleteSupplier(r.Context(), id)
	if err != nil {
		return fmt.Errorf("supplier service delete supplier: %w", err)
	}

	return writeJSON(w, http.StatusOK, supplier)
}

func (h *supplierHandler) BatchCreate(w http.ResponseWriter, r *http.Request) error {
	var req batchCreateSuppliersRequest
	if err := decodeJSON(w, r, h.v, &req); err != nil {
		return err
	}
	if err := checkBatchSize(len(req.Suppliers), h.cfg.MaxBatchSize); err != nil {
		return err
	}

	suppliers, err := h.svc.BatchCreateSuppliers(r.Context(), req.Suppliers)
	if err != nil {
		return fmt.Errorf("supplier service batch create suppliers: %w", err)
	}

	return writeJSON(w, http.StatusCreated, map[string][]model.Supplier{"suppliers": suppliers})
}

func (h *supplierHandler) BatchUpdate(w http.ResponseWriter, r *http.Request) error {
	policy, err := batchPolicy(r)
	if err != nil {
		return err
	}

	var req batchUpdateSuppliersRequest
	if err := decodeJSON(w, r, h.v, &req); err != nil {
		return err
	}
	if err := checkBatchSize(len(req.SupplierIDs), h.cfg.MaxBatchSize); err != nil {
		return err
	}

	suppliers, err := h.svc.BatchUpdateSuppliers(r.Context(), policy, req.SupplierIDs, req.UpdateData)
	if err != nil {
		return fmt.Errorf("supplier service batch update suppliers: %w", err)
	}

	return writeJSON(w, http.StatusOK, map[string][]model.Supplier{"updated": suppliers})
}

func (h *supplierHandler) BatchDelete(w http.ResponseWriter, r *http.Request) error {
	policy, err := batchPolicy(r)
	if err != nil {
		return err
	}

	var req batchDeleteSuppliersRequest
	if err := decodeJSON(w, r, h.v, &req); err != nil {
		return err
	}
	if err := checkBatchSize(len(req.SupplierIDs), h.cfg.MaxBatchSize); err != nil {
		return err
	}

	suppliers, err := h.svc.BatchDeleteSuppliers(r.Context(), policy, req.SupplierIDs)
	if err != nil {
		return fmt.Errorf("supplier service batch delete suppliers: %w", err)
	}

	deleted := make([]int64, len(suppliers))
	for i, s := range suppliers {
		deleted[i] = s.ID
	}
	return writeJSON(w, http.StatusOK, map[string][]int64{"deleted": deleted})
}
