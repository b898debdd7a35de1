package domain

import "strings"

// Field is a single named column of a source schema together with its
// human-readable report label.
type Field struct {
	Name  string
	Label string
}

// Schema describes one exposure source: its persisted table, the ordered
// field set, the natural-key subset used for deduplication and the
// mutable fields tracked for change detection.
type Schema struct {
	// Name is the short source identifier (e.g. "wahealth")
	Name string
	// Table is the history table backing this source
	Table string
	// Title is the report section header for this source
	Title string
	// Fields is the full ordered field set; report entries render in this order
	Fields []Field
	// KeyFields is the subset of field names that identifies a real-world
	// exposure event. Advisory free-text fields are deliberately excluded
	// so wording tweaks do not re-notify.
	KeyFields []string
	// MutableFields are non-key fields tracked for the Updated classification
	MutableFields []string
}

// FieldNames returns the names of all fields in declared order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Record is one canonicalized exposure row belonging to a schema.
type Record struct {
	Schema *Schema
	Values map[string]string
}

// Key returns the natural-key subset of the record's values.
func (r Record) Key() map[string]string {
	key := make(map[string]string, len(r.Schema.KeyFields))
	for _, name := range r.Schema.KeyFields {
		key[name] = r.Values[name]
	}
	return key
}

// Mutable returns the tracked mutable subset of the record's values.
func (r Record) Mutable() map[string]string {
	mutable := make(map[string]string, len(r.Schema.MutableFields))
	for _, name := range r.Schema.MutableFields {
		mutable[name] = r.Values[name]
	}
	return mutable
}

// KeyString flattens the natural key into a single comparable string.
func (r Record) KeyString() string {
	parts := make([]string, len(r.Schema.KeyFields))
	for i, name := range r.Schema.KeyFields {
		parts[i] = r.Values[name]
	}
	return strings.Join(parts, "\x1f")
}

// Classification is the Delta Engine's verdict for one record.
type Classification int

const (
	// New means the natural key has never been seen before
	New Classification = iota
	// Unchanged means the key is known and tracked mutable fields are identical
	Unchanged
	// Updated means the key is known but tracked mutable fields differ
	Updated
)

// String returns the classification name for logs.
func (c Classification) String() string {
	switch c {
	case New:
		return "new"
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// Change is one classified record together with its history entry ID.
type Change struct {
	Record Record
	Class  Classification
	// EntryID is the surrogate ID of the history entry backing this record
	EntryID int64
}
