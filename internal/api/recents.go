package api

import (
	"net/http"
	"strconv"

	"github.com/arcticalls/arcticalls/internal/config"
	"github.com/arcticalls/arcticalls/internal/models"
)

// RecentsHandler serves the call history
type RecentsHandler struct {
	deps *Dependencies
}

// NewRecentsHandler creates a new RecentsHandler
func NewRecentsHandler(deps *Dependencies) *RecentsHandler {
	return &RecentsHandler{deps: deps}
}

// List returns recent calls, most recent first. The limit query
// parameter may shrink the page but never grow it past the cap.
func (h *RecentsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := config.RecentsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid limit", nil)
			return
		}
		if n < limit {
			limit = n
		}
	}

	records, err := h.deps.DB.Recents.List(r.Context(), limit)
	if err != nil {
		WriteInternalError(w)
		return
	}
	if records == nil {
		records = []*models.CallRecord{}
	}
	WriteJSON(w, http.StatusOK, records)
}
