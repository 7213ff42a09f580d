package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utiibeauty/parlour/libs/httpx"
	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/audit"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/storage"
)

type ReviewStore interface {
	List(ctx context.Context, filter model.ReviewFilter) ([]model.Review, error)
	Create(ctx context.Context, nr model.NewReview, approved bool) (model.Review, error)
	Delete(ctx context.Context, id string) error
}

type ReviewsHandler struct {
	store       ReviewStore
	audit       Auditor
	logger      *slog.Logger
	autoApprove bool
}

// NewReviewsHandler builds the review endpoints. autoApprove decides the
// stored is_approved of public submissions.
func NewReviewsHandler(store ReviewStore, auditor Auditor, logger *slog.Logger, autoApprove bool) *ReviewsHandler {
	return &ReviewsHandler{store: store, audit: auditor, logger: logger, autoApprove: autoApprove}
}

// AdminList returns every review, approved or not.
func (h *ReviewsHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.list(w, r, model.ReviewFilter{})
}

func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req idRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	if err := h.store.Delete(r.Context(), req.ID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "review not found", http.StatusNotFound)
			return
		}
		h.logger.Error("review delete failed", "err", err, "review_id", req.ID)
		http.Error(w, "failed to delete review", http.StatusInternalServerError)
		return
	}
	recordAudit(r.Context(), h.audit, h.logger, audit.EventReviewDeleted, actorID(r), map[string]any{"id": req.ID})
	w.WriteHeader(http.StatusNoContent)
}

// Public lists approved reviews on GET and accepts submissions on POST.
func (h *ReviewsHandler) Public(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r, model.ReviewFilter{ApprovedOnly: true})
	case http.MethodPost:
		h.submit(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ReviewsHandler) list(w http.ResponseWriter, r *http.Request, filter model.ReviewFilter) {
	reviews, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("review list failed", "err", err)
		http.Error(w, "failed to load reviews", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, reviews)
}

func (h *ReviewsHandler) submit(w http.ResponseWriter, r *http.Request) {
	var nr model.NewReview
	if !decodeValidated(w, r, reviewSchema, &nr) {
		return
	}
	nr.CustomerName = strings.TrimSpace(nr.CustomerName)
	nr.ReviewText = strings.TrimSpace(nr.ReviewText)
	if nr.CustomerName == "" || nr.ReviewText == "" {
		http.Error(w, "customer_name and review_text required", http.StatusBadRequest)
		return
	}
	if nr.Rating < model.MinRating || nr.Rating > model.MaxRating {
		http.Error(w, "rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	review, err := h.store.Create(r.Context(), nr, h.autoApprove)
	if err != nil {
		h.logger.Error("review insert failed", "err", err)
		http.Error(w, "failed to create review", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, review)
}
