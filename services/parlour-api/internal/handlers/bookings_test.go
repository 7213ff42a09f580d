package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/utiibeauty/parlour/libs/model"
)

func TestBookingsListNewestFirst(t *testing.T) {
	store := &fakeBookings{rows: []model.Booking{
		{ID: "old", CreatedAt: time.Unix(10, 0)},
		{ID: "new", CreatedAt: time.Unix(20, 0)},
	}}
	h := NewBookingsHandler(store, &fakeAudit{}, discardLogger())

	rec := httptest.NewRecorder()
	h.Collection(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []model.Booking
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != "new" {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

func TestBookingsCreateAdminRows(t *testing.T) {
	store := &fakeBookings{}
	h := NewBookingsHandler(store, &fakeAudit{}, discardLogger())

	body := `[{"customer_name":"Sample Customer","phone":"+91 9000000000","service":"Hair Spa",
		"preferred_date":"2026-10-20","preferred_time":"11:00","deposit_amount":100}]`
	rec := httptest.NewRecorder()
	h.Collection(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.rows) != 1 || store.rows[0].Status != model.BookingPending {
		t.Fatalf("expected one pending row, got %+v", store.rows)
	}

	rec = httptest.NewRecorder()
	h.Collection(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`[]`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty insert, got %d", rec.Code)
	}
}

func TestBookingsUpdateStatus(t *testing.T) {
	store := &fakeBookings{rows: []model.Booking{{ID: "b1", Status: model.BookingCancelled}}}
	auditor := &fakeAudit{}
	h := NewBookingsHandler(store, auditor, discardLogger())

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.UpdateStatus(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings/status", strings.NewReader(body)))
		return rec
	}

	// Any status may follow any other.
	if rec := post(`{"id":"b1","status":"pending"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.rows[0].Status != model.BookingPending {
		t.Fatalf("expected pending, got %s", store.rows[0].Status)
	}
	if rec := post(`{"id":"b1","status":"done"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
	if rec := post(`{"id":"nope","status":"confirmed"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if len(auditor.events) != 1 {
		t.Fatalf("expected exactly one audit event, got %v", auditor.events)
	}
}

func TestBookingsDelete(t *testing.T) {
	store := &fakeBookings{rows: []model.Booking{{ID: "b1"}}}
	h := NewBookingsHandler(store, &fakeAudit{}, discardLogger())

	rec := httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings/delete", strings.NewReader(`{"id":"b1"}`)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(store.rows) != 0 {
		t.Fatal("expected row removed")
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings/delete", strings.NewReader(`{"id":"b1"}`)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPublicBookingForcesPendingDeposit(t *testing.T) {
	store := &fakeBookings{}
	h := NewBookingsHandler(store, &fakeAudit{}, discardLogger())

	body := `{"customer_name":"Asha","phone":"+91 9346163673","service":"Bridal Makeup",
		"preferred_date":"2026-11-02","preferred_time":"10:30","status":"confirmed","deposit_paid":true,"deposit_amount":0}`
	rec := httptest.NewRecorder()
	h.PublicSubmit(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/bookings", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	got := store.rows[0]
	if got.Status != model.BookingPending || got.DepositAmount != model.DefaultDeposit || got.DepositPaid {
		t.Fatalf("client-controlled fields leaked: %+v", got)
	}
}

func TestPublicBookingSchemaRejects(t *testing.T) {
	h := NewBookingsHandler(&fakeBookings{}, &fakeAudit{}, discardLogger())

	for _, body := range []string{
		`{"customer_name":"Asha","service":"Hair Spa","preferred_date":"2026-11-02","preferred_time":"10:30"}`,
		`{"customer_name":"Asha","phone":"1","service":"Hair Spa","preferred_date":"next week","preferred_time":"10:30"}`,
		`not json`,
	} {
		rec := httptest.NewRecorder()
		h.PublicSubmit(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/bookings", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.PublicSubmit(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/bookings",
		strings.NewReader(`{"customer_name":"Asha","service":"Hair Spa","preferred_date":"2026-11-02","preferred_time":"10:30"}`)))
	if !strings.Contains(rec.Body.String(), "phone") {
		t.Fatalf("expected missing field named, got %q", rec.Body.String())
	}
}
