package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/utiibeauty/parlour/libs/httpx"
	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/audit"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/storage"
)

type ShopStatusStore interface {
	Current(ctx context.Context) (model.ShopStatus, error)
	Update(ctx context.Context, id string, patch model.ShopStatusPatch) (model.ShopStatus, error)
}

// ShopStatusBroadcaster receives every committed status change.
type ShopStatusBroadcaster interface {
	PublishShopStatus(status model.ShopStatus)
}

type ShopStatusHandler struct {
	store     ShopStatusStore
	broadcast ShopStatusBroadcaster
	audit     Auditor
	logger    *slog.Logger
	// requireAdmin guards the write path only; reads are public.
	requireAdmin func(http.Handler) http.Handler
}

func NewShopStatusHandler(
	store ShopStatusStore,
	broadcast ShopStatusBroadcaster,
	auditor Auditor,
	logger *slog.Logger,
	requireAdmin func(http.Handler) http.Handler,
) *ShopStatusHandler {
	return &ShopStatusHandler{
		store:        store,
		broadcast:    broadcast,
		audit:        auditor,
		logger:       logger,
		requireAdmin: requireAdmin,
	}
}

type shopStatusUpdateRequest struct {
	ID        string    `json:"id"`
	IsOpen    *bool     `json:"is_open"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

func (h *ShopStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.requireAdmin(http.HandlerFunc(h.put)).ServeHTTP(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ShopStatusHandler) get(w http.ResponseWriter, r *http.Request) {
	status, err := h.store.Current(r.Context())
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, model.ShopStatusNotConfigured, http.StatusNotFound)
			return
		}
		h.logger.Error("shop status read failed", "err", err)
		http.Error(w, "failed to load shop status", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, status)
}

func (h *ShopStatusHandler) put(w http.ResponseWriter, r *http.Request) {
	var req shopStatusUpdateRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" || req.IsOpen == nil {
		http.Error(w, "id and is_open required", http.StatusBadRequest)
		return
	}
	updatedBy := strings.TrimSpace(req.UpdatedBy)
	if updatedBy == "" {
		updatedBy = model.UpdatedByAdmin
	}
	updatedAt := req.UpdatedAt.UTC()
	if req.UpdatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	status, err := h.store.Update(r.Context(), req.ID, model.ShopStatusPatch{
		IsOpen:    *req.IsOpen,
		UpdatedAt: updatedAt,
		UpdatedBy: updatedBy,
	})
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "shop status not found", http.StatusNotFound)
			return
		}
		h.logger.Error("shop status update failed", "err", err)
		http.Error(w, "failed to update shop status", http.StatusInternalServerError)
		return
	}

	h.broadcast.PublishShopStatus(status)
	recordAudit(r.Context(), h.audit, h.logger, audit.EventShopStatusUpdated, actorID(r), map[string]any{
		"id":      status.ID,
		"is_open": status.IsOpen,
	})
	httpx.WriteJSON(w, http.StatusOK, status)
}
