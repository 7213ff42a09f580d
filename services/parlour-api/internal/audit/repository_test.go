package audit_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/utiibeauty/parlour/services/parlour-api/internal/audit"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/pgtest"
)

func TestRecordAndListRecent(t *testing.T) {
	pool := pgtest.Open(t)
	ctx := context.Background()
	repo := audit.NewRepository(pool)

	if err := repo.Record(ctx, audit.EventLogin, "admin-1", nil); err != nil {
		t.Fatalf("record login: %v", err)
	}
	if err := repo.Record(ctx, audit.EventShopStatusUpdated, "", map[string]any{"is_open": false}); err != nil {
		t.Fatalf("record status: %v", err)
	}

	events, err := repo.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != audit.EventShopStatusUpdated || events[0].ActorID != "" {
		t.Fatalf("unexpected newest event %+v", events[0])
	}
	var meta map[string]any
	if err := json.Unmarshal(events[0].Metadata, &meta); err != nil || meta["is_open"] != false {
		t.Fatalf("metadata = %s err=%v", events[0].Metadata, err)
	}
	if events[1].ActorID != "admin-1" || string(events[1].Metadata) != "{}" {
		t.Fatalf("unexpected oldest event %+v", events[1])
	}
}
