package http

import (
	"net/http"

	"github.com/tuanvumaihuynh/product-catalog/internal/auth"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

type systemHandler struct {
	health db.HealthChecker
}

// Health reports 503 when the database cannot be reached.
func (h *systemHandler) Health(w http.ResponseWriter, r *http.Request) error {
	if ok, err := h.health.IsHealthy(r.Context()); err != nil || !ok {
		return writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
		})
	}

	return writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

func (h *systemHandler) Me(w http.ResponseWriter, r *http.Request) error {
	p, err := auth.RequireActive(r.Context())
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, p)
}

func (h *systemHandler) AdminProducts(w http.ResponseWriter, r *http.Request) error {
	p, err := auth.RequireAdmin(r.Context())
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, map[string]string{
		"status":     "success",
		"message":    "Admin-only products endpoint",
		"admin_user": p.Subject,
	})
}
