package http

import (
	"fmt"
	"net/http"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
)

const historyDefaultLimit = 100

type historyHandler struct {
	cfg config.Catalog
	svc service.HistoryService
}

type historyListResponse[T any] struct {
	ProductID int64 `json:"product_id"`
	listResponse[T]
}

func (h *historyHandler) params(r *http.Request) (int64, service.HistoryParams, query.Pagination, error) {
	id, err := pathID(r, "product_id")
	if err != nil {
		return 0, service.HistoryParams{}, query.Pagination{}, err
	}
	page, err := pagination(r, historyDefaultLimit, h.cfg.MaxPageSize)
	if err != nil {
		return 0, service.HistoryParams{}, query.Pagination{}, err
	}

	var tr repository.TimeRange
	if tr.Start, err = queryTime(r, "start_date"); err != nil {
		return 0, service.HistoryParams{}, query.Pagination{}, err
	}
	if tr.End, err = queryTime(r, "end_date"); err != nil {
		return 0, service.HistoryParams{}, query.Pagination{}, err
	}

	return id, service.HistoryParams{Range: tr, Page: page.Page}, page, nil
}

func (h *historyHandler) Price(w http.ResponseWriter, r *http.Request) error {
	id, params, page, err := h.params(r)
	if err != nil {
		return err
	}

	res, err := h.svc.GetPriceHistory(r.Context(), id, params)
	if err != nil {
		return fmt.Errorf("history service get price history: %w", err)
	}

	return writeJSON(w, http.StatusOK, historyListResponse[model.PriceHistory]{
		ProductID:    id,
		listResponse: newListResponse(res.Items, res.Total, page),
	})
}

func (h *historyHandler) Stock(w http.ResponseWriter, r *http.Request) error {
	id, params, page, err := h.params(r)
	if err != nil {
		return err
	}

	res, err := h.svc.GetStockHistory(r.Context(), id, params)
	if err != nil {
		return fmt.Errorf("history service get stock history: %w", err)
	}

	return writeJSON(w, http.StatusOK, historyListResponse[model.StockHistory]{
		ProductID:    id,
		listResponse: newListResponse(res.Items, res.Total, page),
	})
}

func (h *historyHandler) Combined(w http.ResponseWriter, r *http.Request) error {
	id, params, _, err := h.params(r)
	if err != nil {
		return err
	}

	res, err := h.svc.GetCombinedHistory(r.Context(), id, params)
	if err != nil {
		return fmt.Errorf("history service get combined history: %w", err)
	}
	if res.PriceHistory == nil {
		res.PriceHistory = []model.PriceHistory{}
	}
	if res.StockHistory == nil {
		res.StockHistory = []model.StockHistory{}
	}

	return writeJSON(w, http.StatusOK, res)
}
