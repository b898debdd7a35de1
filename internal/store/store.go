// Package store persists the per-source history of previously seen
// exposure records, keyed by each schema's natural key.
package store

import (
	"context"

	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

// HistoryEntry is one persisted previously-seen record. FirstSeen is set
// on insertion and never modified; LastSeen advances every run the
// natural key reappears.
type HistoryEntry struct {
	ID        int64
	Fields    map[string]string
	FirstSeen int64
	LastSeen  int64
}

// Store defines the history operations the Delta Engine needs.
type Store interface {
	// EnsureSchema creates the source's history table if absent. Safe to
	// call every run.
	EnsureSchema(ctx context.Context, schema *domain.Schema) error

	// Find looks up an entry by exact natural-key equality. Returns nil
	// when the key has never been seen.
	Find(ctx context.Context, schema *domain.Schema, key map[string]string) (*HistoryEntry, error)

	// Insert creates an entry with first_seen = last_seen = seenAt and
	// returns its surrogate ID.
	Insert(ctx context.Context, schema *domain.Schema, rec domain.Record, seenAt int64) (int64, error)

	// Touch advances last_seen only.
	Touch(ctx context.Context, schema *domain.Schema, id int64, seenAt int64) error

	// UpdateMutable replaces the tracked mutable fields and advances last_seen.
	UpdateMutable(ctx context.Context, schema *domain.Schema, id int64, mutable map[string]string, seenAt int64) error
}
