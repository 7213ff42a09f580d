package storage_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/utiibeauty/parlour/libs/db"
	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/outbox"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/pgtest"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/storage"
)

const testOrigin = "parlour-api-test"

func pendingEvents(t *testing.T, pool *db.Pool, repo *outbox.Repository) []outbox.Record {
	t.Helper()
	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	records, err := repo.FetchUnpublished(ctx, tx, 100)
	if err != nil {
		t.Fatalf("fetch outbox: %v", err)
	}
	return records
}

func TestMigrateIsIdempotent(t *testing.T) {
	pool := pgtest.Open(t)
	applied, err := storage.Migrate(context.Background(), pool)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected nothing to apply, got %v", applied)
	}
}

func TestShopStatusUpdateWritesOutboxEvent(t *testing.T) {
	pool := pgtest.Open(t)
	ctx := context.Background()
	ob := outbox.NewRepository(pool, testOrigin)
	repo := storage.NewShopStatusRepository(pool, ob)

	if _, err := repo.Current(ctx); !storage.IsNotFound(err) {
		t.Fatalf("expected not found on empty table, got %v", err)
	}
	seeded, err := repo.EnsureSeeded(ctx)
	if err != nil || !seeded {
		t.Fatalf("seed: seeded=%v err=%v", seeded, err)
	}
	if seeded, _ := repo.EnsureSeeded(ctx); seeded {
		t.Fatal("second seed should be a no-op")
	}
	current, err := repo.Current(ctx)
	if err != nil || !current.IsOpen {
		t.Fatalf("current: %+v err=%v", current, err)
	}

	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	updated, err := repo.Update(ctx, current.ID, model.ShopStatusPatch{IsOpen: false, UpdatedAt: at, UpdatedBy: model.UpdatedByAdmin})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.IsOpen || updated.UpdatedBy != model.UpdatedByAdmin || !updated.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected row %+v", updated)
	}

	records := pendingEvents(t, pool, ob)
	if len(records) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(records))
	}
	rec := records[0]
	if rec.EventType != outbox.TopicShopStatusUpdated || rec.AggregateID != current.ID || rec.Origin != testOrigin {
		t.Fatalf("unexpected record %+v", rec)
	}
	var change model.ShopStatusChange
	if err := json.Unmarshal(rec.Payload, &change); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if change.Event != model.EventUpdate || change.Table != model.TableShopStatus || change.New.IsOpen {
		t.Fatalf("unexpected payload %+v", change)
	}

	for _, id := range []string{"not-a-uuid", "00000000-0000-0000-0000-000000000000"} {
		if _, err := repo.Update(ctx, id, model.ShopStatusPatch{IsOpen: true}); !storage.IsNotFound(err) {
			t.Fatalf("update %q: expected not found, got %v", id, err)
		}
	}
	if got := len(pendingEvents(t, pool, ob)); got != 1 {
		t.Fatalf("failed updates must not enqueue events, have %d", got)
	}
}

func TestReviewListApprovedOnly(t *testing.T) {
	pool := pgtest.Open(t)
	ctx := context.Background()
	ob := outbox.NewRepository(pool, testOrigin)
	repo := storage.NewReviewRepository(pool, ob)

	for _, tc := range []struct {
		name     string
		rating   int
		approved bool
	}{
		{"Asha", 5, true},
		{"Meera", 2, false},
		{"Divya", 4, true},
	} {
		if _, err := repo.Create(ctx, model.NewReview{CustomerName: tc.name, Rating: tc.rating, ReviewText: "visit"}, tc.approved); err != nil {
			t.Fatalf("create %s: %v", tc.name, err)
		}
	}

	public, err := repo.List(ctx, model.ReviewFilter{ApprovedOnly: true})
	if err != nil {
		t.Fatalf("list approved: %v", err)
	}
	if len(public) != 2 {
		t.Fatalf("expected 2 approved reviews, got %d", len(public))
	}
	for _, rv := range public {
		if !rv.IsApproved {
			t.Fatalf("unapproved review leaked: %+v", rv)
		}
	}
	if avg := model.AverageRating(public); avg != 4.5 {
		t.Fatalf("average = %v, want 4.5", avg)
	}

	all, err := repo.List(ctx, model.ReviewFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("list all: %d err=%v", len(all), err)
	}
	if all[0].CustomerName != "Divya" {
		t.Fatalf("expected newest first, got %q", all[0].CustomerName)
	}

	if err := repo.Delete(ctx, all[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, all[0].ID); !storage.IsNotFound(err) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
	if got := len(pendingEvents(t, pool, ob)); got != 4 {
		t.Fatalf("expected 3 submitted + 1 deleted events, got %d", got)
	}
}

func TestBookingLifecycle(t *testing.T) {
	pool := pgtest.Open(t)
	ctx := context.Background()
	ob := outbox.NewRepository(pool, testOrigin)
	repo := storage.NewBookingRepository(pool, ob)

	created, err := repo.Create(ctx, []model.NewBooking{{
		CustomerName:  "Sample Customer",
		Phone:         "+91 9346163673",
		Service:       model.Services[0],
		PreferredDate: "2026-05-02",
		PreferredTime: "11:00",
		DepositAmount: model.DefaultDeposit,
	}})
	if err != nil || len(created) != 1 {
		t.Fatalf("create: %v", err)
	}
	b := created[0]
	if b.Status != model.BookingPending || b.DepositPaid {
		t.Fatalf("unexpected defaults %+v", b)
	}

	updated, err := repo.UpdateStatus(ctx, b.ID, model.BookingConfirmed)
	if err != nil || updated.Status != model.BookingConfirmed {
		t.Fatalf("update status: %+v err=%v", updated, err)
	}
	if _, err := repo.UpdateStatus(ctx, "missing", model.BookingCancelled); !storage.IsNotFound(err) {
		t.Fatalf("expected not found for bad id, got %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 || list[0].Status != model.BookingConfirmed {
		t.Fatalf("list: %+v err=%v", list, err)
	}
	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, err = repo.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list after delete, got %d err=%v", len(list), err)
	}

	var types []string
	for _, rec := range pendingEvents(t, pool, ob) {
		types = append(types, rec.EventType)
	}
	want := []string{outbox.TopicBookingSubmitted, outbox.TopicBookingStatusChanged, outbox.TopicBookingDeleted}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("events = %v, want %v", types, want)
		}
	}
}

func TestAdminUpsertResetsPassword(t *testing.T) {
	pool := pgtest.Open(t)
	ctx := context.Background()
	repo := storage.NewAdminRepository(pool)

	first, err := repo.Upsert(ctx, "owner@utii.test", "first-pass")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, "owner@utii.test", "second-pass")
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same admin, got %s and %s", first.ID, second.ID)
	}
	got, err := repo.GetByEmail(ctx, "OWNER@utii.test")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.CheckPassword("first-pass") || !got.CheckPassword("second-pass") {
		t.Fatal("expected password reset to second-pass")
	}
}
