package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

// SQLiteStore implements Store on a single sqlite database file, one
// table per source schema. It also owns the file-level snapshot used by
// the run wrapper in place of a long-lived transaction.
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// Open opens or creates the sqlite database at path.
func Open(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, &domain.StorageError{Op: "open", Err: err}
	}

	// The store is accessed by exactly one run at a time; a single
	// connection keeps last_insert_rowid() reliable.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, &domain.StorageError{Op: "open", Err: err}
	}
	sqlDB.SetMaxOpenConns(1)

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EnsureSchema creates the history table for a schema if it is absent.
func (s *SQLiteStore) EnsureSchema(ctx context.Context, schema *domain.Schema) error {
	cols := make([]string, 0, len(schema.Fields)+3)
	cols = append(cols, "id INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, f := range schema.Fields {
		cols = append(cols, f.Name+" TEXT")
	}
	cols = append(cols, "first_seen INTEGER NOT NULL", "last_seen INTEGER NOT NULL")

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", schema.Table, strings.Join(cols, ", "))
	if err := s.db.WithContext(ctx).Exec(ddl).Error; err != nil {
		return &domain.StorageError{Op: "ensure schema " + schema.Table, Err: err}
	}
	return nil
}

// Find looks up an entry by exact equality on every natural-key field.
func (s *SQLiteStore) Find(ctx context.Context, schema *domain.Schema, key map[string]string) (*HistoryEntry, error) {
	conds := make(map[string]any, len(key))
	for name, v := range key {
		conds[name] = v
	}

	var rows []map[string]any
	err := s.db.WithContext(ctx).
		Table(schema.Table).
		Where(conds).
		Order("id").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, &domain.StorageError{Op: "find in " + schema.Table, Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return entryFromRow(schema, rows[0]), nil
}

// Insert creates a history entry with first_seen = last_seen = seenAt.
func (s *SQLiteStore) Insert(ctx context.Context, schema *domain.Schema, rec domain.Record, seenAt int64) (int64, error) {
	values := make(map[string]any, len(schema.Fields)+2)
	for _, f := range schema.Fields {
		values[f.Name] = rec.Values[f.Name]
	}
	values["first_seen"] = seenAt
	values["last_seen"] = seenAt

	var id int64
	err := s.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		if err := tx.Table(schema.Table).Create(values).Error; err != nil {
			return err
		}
		return tx.Raw("SELECT last_insert_rowid()").Scan(&id).Error
	})
	if err != nil {
		return 0, &domain.StorageError{Op: "insert into " + schema.Table, Err: err}
	}
	return id, nil
}

// Touch advances last_seen without touching first_seen or key fields.
func (s *SQLiteStore) Touch(ctx context.Context, schema *domain.Schema, id int64, seenAt int64) error {
	err := s.db.WithContext(ctx).
		Table(schema.Table).
		Where("id = ?", id).
		Update("last_seen", seenAt).Error
	if err != nil {
		return &domain.StorageError{Op: "touch " + schema.Table, Err: err}
	}
	return nil
}

// UpdateMutable replaces the tracked mutable fields and advances last_seen.
func (s *SQLiteStore) UpdateMutable(ctx context.Context, schema *domain.Schema, id int64, mutable map[string]string, seenAt int64) error {
	updates := make(map[string]any, len(mutable)+1)
	for name, v := range mutable {
		updates[name] = v
	}
	updates["last_seen"] = seenAt

	err := s.db.WithContext(ctx).
		Table(schema.Table).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return &domain.StorageError{Op: "update " + schema.Table, Err: err}
	}
	return nil
}

// backupPath is where Snapshot keeps the pre-run copy.
func (s *SQLiteStore) backupPath() string {
	return s.path + ".bak"
}

// Snapshot copies the database file aside before any mutation. The run
// wrapper calls it once per run, after EnsureSchema and before the Delta
// Engine writes anything.
func (s *SQLiteStore) Snapshot() error {
	src, err := os.Open(s.path)
	if err != nil {
		return &domain.StorageError{Op: "snapshot", Err: err}
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(s.backupPath())
	if err != nil {
		return &domain.StorageError{Op: "snapshot", Err: err}
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return &domain.StorageError{Op: "snapshot", Err: err}
	}
	return dst.Sync()
}

// Commit discards the snapshot, making the run's mutations permanent.
func (s *SQLiteStore) Commit() error {
	if err := os.Remove(s.backupPath()); err != nil && !os.IsNotExist(err) {
		return &domain.StorageError{Op: "commit", Err: err}
	}
	return nil
}

// Restore closes the database and puts the snapshot back, so the next
// run re-attempts the same records. The store is unusable afterwards.
func (s *SQLiteStore) Restore() error {
	if err := s.Close(); err != nil {
		return &domain.StorageError{Op: "restore", Err: err}
	}
	if err := os.Rename(s.backupPath(), s.path); err != nil {
		return &domain.StorageError{Op: "restore", Err: err}
	}
	return nil
}

func entryFromRow(schema *domain.Schema, row map[string]any) *HistoryEntry {
	entry := &HistoryEntry{
		ID:        toInt64(row["id"]),
		Fields:    make(map[string]string, len(schema.Fields)),
		FirstSeen: toInt64(row["first_seen"]),
		LastSeen:  toInt64(row["last_seen"]),
	}
	for _, f := range schema.Fields {
		entry.Fields[f.Name] = toString(row[f.Name])
	}
	return entry
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}
