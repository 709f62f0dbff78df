// Package cache keeps recent provider responses so repeated runs (watch mode,
// the HTTP API) do not hammer the upstream sources.
package cache

import (
	"context"
	"time"
)

// Snapshot is one cached payload.
type Snapshot struct {
	Payload   []byte
	FetchedAt time.Time
}

// Store persists snapshots by kind and key.
type Store interface {
	Get(ctx context.Context, kind, key string) (Snapshot, bool, error)
	Put(ctx context.Context, kind, key string, payload []byte) error
	Close() error
}

// Snapshot kinds.
const (
	KindFundamentals = "fundamentals"
	KindHistory      = "history"
)
