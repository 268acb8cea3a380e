// Package audit keeps an append-only trail of mutating actions in the store.
package audit

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/stocktide/stocktide/internal/entity"
	"github.com/stocktide/stocktide/internal/store"
)

// Module provides the audit trail to Fx.
var Module = fx.Provide(NewTrail)

// Trail records and reads audit entries, newest first.
type Trail struct {
	client *goredis.Client
	logger *zap.Logger
}

// NewTrail wires a trail backed by the store client.
func NewTrail(client *goredis.Client, logger *zap.Logger) *Trail {
	return &Trail{client: client, logger: logger}
}

// Record appends one entry to the trail.
func (t *Trail) Record(ctx context.Context, userID, action string, details map[string]any) error {
	entry := entity.AuditEntry{
		UserID:    userID,
		Action:    action,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return t.client.LPush(ctx, store.AuditLogKey, payload).Err()
}

// RecordAsync appends an entry without blocking the caller. Failures are
// logged and swallowed; the trail never fails a business operation.
func (t *Trail) RecordAsync(ctx context.Context, userID, action string, details map[string]any) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		recordCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := t.Record(recordCtx, userID, action, details); err != nil {
			t.logger.Warn("audit record failed",
				zap.String("user", userID),
				zap.String("action", action),
				zap.Error(err),
			)
		}
	}()
}

// Recent returns up to limit entries, newest first.
func (t *Trail) Recent(ctx context.Context, limit int) ([]entity.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	raws, err := t.client.LRange(ctx, store.AuditLogKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]entity.AuditEntry, 0, len(raws))
	for _, raw := range raws {
		var e entity.AuditEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
