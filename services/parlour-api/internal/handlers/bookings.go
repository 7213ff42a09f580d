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

type BookingStore interface {
	List(ctx context.Context) ([]model.Booking, error)
	Create(ctx context.Context, rows []model.NewBooking) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (model.Booking, error)
	Delete(ctx context.Context, id string) error
}

type BookingsHandler struct {
	store  BookingStore
	audit  Auditor
	logger *slog.Logger
}

func NewBookingsHandler(store BookingStore, auditor Auditor, logger *slog.Logger) *BookingsHandler {
	return &BookingsHandler{store: store, audit: auditor, logger: logger}
}

type bookingStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type idRequest struct {
	ID string `json:"id"`
}

// Collection lists bookings on GET and inserts admin rows on POST.
func (h *BookingsHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		bookings, err := h.store.List(r.Context())
		if err != nil {
			h.logger.Error("booking list failed", "err", err)
			http.Error(w, "failed to load bookings", http.StatusInternalServerError)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, bookings)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BookingsHandler) create(w http.ResponseWriter, r *http.Request) {
	var rows []model.NewBooking
	if !httpx.DecodeJSON(w, r, &rows) {
		return
	}
	if len(rows) == 0 {
		http.Error(w, "at least one booking required", http.StatusBadRequest)
		return
	}
	for i := range rows {
		if msg := validateNewBooking(&rows[i]); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
	}

	created, err := h.store.Create(r.Context(), rows)
	if err != nil {
		h.logger.Error("booking insert failed", "err", err)
		http.Error(w, "failed to create bookings", http.StatusInternalServerError)
		return
	}
	recordAudit(r.Context(), h.audit, h.logger, audit.EventBookingsCreated, actorID(r), map[string]any{
		"count": len(created),
	})
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *BookingsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req bookingStatusRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	status, err := model.ParseBookingStatus(req.Status)
	if err != nil {
		http.Error(w, "invalid booking status", http.StatusBadRequest)
		return
	}

	booking, err := h.store.UpdateStatus(r.Context(), req.ID, status)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		h.logger.Error("booking status update failed", "err", err, "booking_id", req.ID)
		http.Error(w, "failed to update booking", http.StatusInternalServerError)
		return
	}
	recordAudit(r.Context(), h.audit, h.logger, audit.EventBookingStatusUpdate, actorID(r), map[string]any{
		"id":     booking.ID,
		"status": booking.Status,
	})
	httpx.WriteJSON(w, http.StatusOK, booking)
}

func (h *BookingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		h.logger.Error("booking delete failed", "err", err, "booking_id", req.ID)
		http.Error(w, "failed to delete booking", http.StatusInternalServerError)
		return
	}
	recordAudit(r.Context(), h.audit, h.logger, audit.EventBookingDeleted, actorID(r), map[string]any{"id": req.ID})
	w.WriteHeader(http.StatusNoContent)
}

// PublicSubmit accepts a storefront booking. Status and deposit fields from
// the client are ignored.
func (h *BookingsHandler) PublicSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var nb model.NewBooking
	if !decodeValidated(w, r, bookingSchema, &nb) {
		return
	}
	nb.Status = model.BookingPending
	nb.DepositAmount = model.DefaultDeposit
	nb.DepositPaid = false
	if msg := validateNewBooking(&nb); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	created, err := h.store.Create(r.Context(), []model.NewBooking{nb})
	if err != nil {
		h.logger.Error("public booking insert failed", "err", err)
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created[0])
}

// validateNewBooking normalizes nb in place and returns a client message for
// the first problem found.
func validateNewBooking(nb *model.NewBooking) string {
	nb.CustomerName = strings.TrimSpace(nb.CustomerName)
	nb.Phone = strings.TrimSpace(nb.Phone)
	nb.Service = strings.TrimSpace(nb.Service)
	nb.PreferredDate = strings.TrimSpace(nb.PreferredDate)
	nb.PreferredTime = strings.TrimSpace(nb.PreferredTime)
	nb.Notes = strings.TrimSpace(nb.Notes)
	if nb.CustomerName == "" || nb.Phone == "" || nb.Service == "" || nb.PreferredDate == "" || nb.PreferredTime == "" {
		return "customer_name, phone, service, preferred_date and preferred_time required"
	}
	if nb.Status == "" {
		nb.Status = model.BookingPending
	}
	if !nb.Status.Valid() {
		return "invalid booking status"
	}
	if nb.DepositAmount < 0 {
		return "deposit_amount must not be negative"
	}
	return ""
}
