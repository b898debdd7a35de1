package delta_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kronicd/WA-Covid-Mailer/internal/delta"
	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
	"github.com/kronicd/WA-Covid-Mailer/internal/logger"
	"github.com/kronicd/WA-Covid-Mailer/internal/store"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// memStore is an in-memory Store for engine tests.
type memStore struct {
	entries map[string]map[string]*store.HistoryEntry
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]map[string]*store.HistoryEntry)}
}

func keyOf(schema *domain.Schema, key map[string]string) string {
	parts := make([]string, len(schema.KeyFields))
	for i, name := range schema.KeyFields {
		parts[i] = key[name]
	}
	return strings.Join(parts, "\x1f")
}

func (m *memStore) EnsureSchema(_ context.Context, schema *domain.Schema) error {
	if m.entries[schema.Table] == nil {
		m.entries[schema.Table] = make(map[string]*store.HistoryEntry)
	}
	return nil
}

func (m *memStore) Find(_ context.Context, schema *domain.Schema, key map[string]string) (*store.HistoryEntry, error) {
	entry, ok := m.entries[schema.Table][keyOf(schema, key)]
	if !ok {
		return nil, nil
	}
	copied := *entry
	fields := make(map[string]string, len(entry.Fields))
	for k, v := range entry.Fields {
		fields[k] = v
	}
	copied.Fields = fields
	return &copied, nil
}

func (m *memStore) Insert(_ context.Context, schema *domain.Schema, rec domain.Record, seenAt int64) (int64, error) {
	if m.entries[schema.Table] == nil {
		m.entries[schema.Table] = make(map[string]*store.HistoryEntry)
	}
	m.nextID++
	fields := make(map[string]string, len(rec.Values))
	for k, v := range rec.Values {
		fields[k] = v
	}
	m.entries[schema.Table][keyOf(schema, rec.Key())] = &store.HistoryEntry{
		ID:        m.nextID,
		Fields:    fields,
		FirstSeen: seenAt,
		LastSeen:  seenAt,
	}
	return m.nextID, nil
}

func (m *memStore) Touch(_ context.Context, schema *domain.Schema, id int64, seenAt int64) error {
	for _, entry := range m.entries[schema.Table] {
		if entry.ID == id {
			entry.LastSeen = seenAt
			return nil
		}
	}
	return nil
}

func (m *memStore) UpdateMutable(_ context.Context, schema *domain.Schema, id int64, mutable map[string]string, seenAt int64) error {
	for _, entry := range m.entries[schema.Table] {
		if entry.ID == id {
			for k, v := range mutable {
				entry.Fields[k] = v
			}
			entry.LastSeen = seenAt
			return nil
		}
	}
	return nil
}

func record(loc string) domain.Record {
	return domain.Record{
		Schema: domain.Sheet,
		Values: map[string]string{
			"datentime": "10:00 1/1/2024 to 11:00 1/1/2024",
			"suburb":    "Perth",
			"location":  loc,
		},
	}
}

func TestProcessNewRecord(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	engine := delta.NewEngine(st)

	changes, err := engine.Process(ctx, []domain.Record{record("Cafe X")}, 1000)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.New, changes[0].Class)

	entry, err := st.Find(ctx, domain.Sheet, record("Cafe X").Key())
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, changes[0].EntryID, entry.ID)
	assert.Equal(t, int64(1000), entry.FirstSeen)
	assert.Equal(t, int64(1000), entry.LastSeen)
}

func TestProcessIdempotentRerun(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	engine := delta.NewEngine(st)
	batch := []domain.Record{record("Cafe X"), record("Cafe Y")}

	first, err := engine.Process(ctx, batch, 1000)
	require.NoError(t, err)
	for _, c := range first {
		assert.Equal(t, domain.New, c.Class)
	}

	second, err := engine.Process(ctx, batch, 2000)
	require.NoError(t, err)
	for _, c := range second {
		assert.Equal(t, domain.Unchanged, c.Class)
	}

	// no duplicate rows; first_seen unchanged, last_seen advanced
	require.Len(t, st.entries[domain.Sheet.Table], 2)
	entry, err := st.Find(ctx, domain.Sheet, record("Cafe X").Key())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), entry.FirstSeen)
	assert.Equal(t, int64(2000), entry.LastSeen)
}

func TestProcessUpdatedMutableFields(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	engine := delta.NewEngine(st)

	base := domain.Record{
		Schema: domain.WAHealth,
		Values: map[string]string{
			"datentime": "10:00am to 11:00am 1/1/2024",
			"suburb":    "Perth",
			"location":  "Cafe X",
			"updated":   "1/1/2024",
			"advice":    "Get tested",
		},
	}

	_, err := engine.Process(ctx, []domain.Record{base}, 1000)
	require.NoError(t, err)

	revised := domain.Record{Schema: domain.WAHealth, Values: map[string]string{}}
	for k, v := range base.Values {
		revised.Values[k] = v
	}
	revised.Values["advice"] = "Get tested immediately"
	revised.Values["updated"] = "2/1/2024"

	changes, err := engine.Process(ctx, []domain.Record{revised}, 2000)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.Updated, changes[0].Class)

	// still one row, with the advisory fields replaced
	require.Len(t, st.entries[domain.WAHealth.Table], 1)
	entry, err := st.Find(ctx, domain.WAHealth, base.Key())
	require.NoError(t, err)
	assert.Equal(t, "Get tested immediately", entry.Fields["advice"])
	assert.Equal(t, int64(1000), entry.FirstSeen)
	assert.Equal(t, int64(2000), entry.LastSeen)

	// byte-identical mutable fields next run go back to Unchanged
	changes, err = engine.Process(ctx, []domain.Record{revised}, 3000)
	require.NoError(t, err)
	assert.Equal(t, domain.Unchanged, changes[0].Class)
}

func TestProcessPreservesBatchOrder(t *testing.T) {
	ctx := context.Background()
	engine := delta.NewEngine(newMemStore())

	batch := []domain.Record{record("C"), record("A"), record("B")}
	changes, err := engine.Process(ctx, batch, 1000)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	for i, c := range changes {
		assert.Equal(t, batch[i].Values["location"], c.Record.Values["location"])
	}
}
