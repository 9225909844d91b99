package http

import (
	"encoding/json"
	"net/http"

	"github.com/tuanvumaihuynh/product-catalog/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

const maxBodyBytes = 1 << 20

type listResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Pages int   `json:"pages"`
}

func newListResponse[T any](items []T, total int64, p query.Pagination) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{
		Items: items,
		Total: total,
		Page:  p.Number,
		Size:  p.Size,
		Pages: query.Pages(total, p.Size),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// decodeJSON reads the body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v validator.Validator, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &apierr.InvalidBodyError{Err: err}
	}
	return v.Validate(dst)
}
