// Package delta classifies a freshly scraped batch against the history
// store: new keys, already-known keys, and known keys whose tracked
// mutable fields changed.
package delta

import (
	"context"

	"go.uber.org/zap"

	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
	"github.com/kronicd/WA-Covid-Mailer/internal/logger"
	"github.com/kronicd/WA-Covid-Mailer/internal/store"
)

// Engine compares canonical batches against the history store.
type Engine struct {
	store store.Store
}

// NewEngine creates a delta engine backed by the given store.
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// Process classifies every record of one source's batch, persisting the
// corresponding history mutation as it goes. Input order is preserved so
// the report keeps the source's row order. Running Process twice with
// the same batch yields Unchanged for every record the second time.
func (e *Engine) Process(ctx context.Context, batch []domain.Record, runTS int64) ([]domain.Change, error) {
	changes := make([]domain.Change, 0, len(batch))

	for _, rec := range batch {
		entry, err := e.store.Find(ctx, rec.Schema, rec.Key())
		if err != nil {
			return nil, err
		}

		if entry == nil {
			id, err := e.store.Insert(ctx, rec.Schema, rec, runTS)
			if err != nil {
				return nil, err
			}
			changes = append(changes, domain.Change{Record: rec, Class: domain.New, EntryID: id})
			continue
		}

		if mutableChanged(rec, entry) {
			if err := e.store.UpdateMutable(ctx, rec.Schema, entry.ID, rec.Mutable(), runTS); err != nil {
				return nil, err
			}
			changes = append(changes, domain.Change{Record: rec, Class: domain.Updated, EntryID: entry.ID})
			continue
		}

		if err := e.store.Touch(ctx, rec.Schema, entry.ID, runTS); err != nil {
			return nil, err
		}
		changes = append(changes, domain.Change{Record: rec, Class: domain.Unchanged, EntryID: entry.ID})
	}

	logSummary(batch, changes)
	return changes, nil
}

func mutableChanged(rec domain.Record, entry *store.HistoryEntry) bool {
	for _, name := range rec.Schema.MutableFields {
		if rec.Values[name] != entry.Fields[name] {
			return true
		}
	}
	return false
}

func logSummary(batch []domain.Record, changes []domain.Change) {
	if len(batch) == 0 {
		return
	}

	var created, updated int
	for _, c := range changes {
		switch c.Class {
		case domain.New:
			created++
		case domain.Updated:
			updated++
		}
	}
	logger.Debug("processed batch",
		zap.String("source", batch[0].Schema.Name),
		zap.Int("records", len(batch)),
		zap.Int("new", created),
		zap.Int("updated", updated),
	)
}
