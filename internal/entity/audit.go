package entity

import "time"

// AuditEntry records one mutating action against the store.
type AuditEntry struct {
	UserID    string         `json:"userId"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
