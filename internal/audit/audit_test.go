package audit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newTestTrail(t *testing.T) *Trail {
	t.Helper()
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTrail(client, zap.NewNop())
}

func TestRecordAndRecentNewestFirst(t *testing.T) {
	trail := newTestTrail(t)
	ctx := context.Background()

	for _, action := range []string{"CREATE_ORDER", "UPDATE_ORDER", "DELETE_ORDER"} {
		if err := trail.Record(ctx, "acme", action, map[string]any{"orderId": "ord-1"}); err != nil {
			t.Fatalf("record %s: %v", action, err)
		}
	}

	entries, err := trail.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	if entries[0].Action != "DELETE_ORDER" || entries[2].Action != "CREATE_ORDER" {
		t.Fatalf("entries not newest first: %+v", entries)
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	trail := newTestTrail(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := trail.Record(ctx, "acme", "CREATE_ORDER", nil); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	entries, err := trail.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
}
