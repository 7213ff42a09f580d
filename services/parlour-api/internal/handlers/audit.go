package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/utiibeauty/parlour/libs/httpx"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/audit"
)

type AuditLister interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

type AuditHandler struct {
	audit AuditLister
}

func NewAuditHandler(lister AuditLister) *AuditHandler {
	return &AuditHandler{audit: lister}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	events, err := h.audit.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to load audit events", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, events)
}
