package inbox_test

import (
	"context"
	"testing"

	"github.com/utiibeauty/parlour/services/parlour-api/internal/inbox"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/pgtest"
)

func TestRecordDeduplicates(t *testing.T) {
	pool := pgtest.Open(t)
	ctx := context.Background()
	repo := inbox.NewRepository(pool)

	first, err := repo.Record(ctx, "shop-status-fanout", "evt-1", "parlour.shop_status.updated.v1")
	if err != nil || !first {
		t.Fatalf("first record: ok=%v err=%v", first, err)
	}
	again, err := repo.Record(ctx, "shop-status-fanout", "evt-1", "parlour.shop_status.updated.v1")
	if err != nil || again {
		t.Fatalf("duplicate record: ok=%v err=%v", again, err)
	}
	other, err := repo.Record(ctx, "another-consumer", "evt-1", "parlour.shop_status.updated.v1")
	if err != nil || !other {
		t.Fatalf("other consumer: ok=%v err=%v", other, err)
	}
}
