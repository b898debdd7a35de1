// Package normalize canonicalizes scraped field text so that record
// equality is stable across runs. The Delta Engine relies on Clean being
// deterministic.
package normalize

import (
	"fmt"
	"strings"

	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

// Clean canonicalizes one raw field value: non-breaking spaces are
// stripped, internal line breaks become ", " separators, each line is
// trimmed and doubled separators left by empty lines collapse to "; ".
func Clean(s string) string {
	s = strings.ReplaceAll(s, " ", "")

	var b strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strings.TrimSpace(line))
	}

	out := strings.Trim(b.String(), ", ")
	out = strings.ReplaceAll(out, ", , ", "; ")
	out = strings.ReplaceAll(out, " , ", " ")
	return strings.TrimRight(out, "\r\n")
}

// Batch cleans every field value of every record, returning fresh records.
func Batch(recs []domain.Record) []domain.Record {
	out := make([]domain.Record, len(recs))
	for i, rec := range recs {
		values := make(map[string]string, len(rec.Values))
		for name, v := range rec.Values {
			values[name] = Clean(v)
		}
		out[i] = domain.Record{Schema: rec.Schema, Values: values}
	}
	return out
}

// DedupeKeys splits legitimately repeated natural keys within one batch
// into distinct synthetic keys, by suffixing the last key field of each
// repeat. Sources occasionally report several time ranges for one
// location as identical rows; without this they would collapse into a
// single history entry.
func DedupeKeys(recs []domain.Record) []domain.Record {
	seen := make(map[string]int, len(recs))
	out := make([]domain.Record, len(recs))

	for i, rec := range recs {
		key := rec.KeyString()
		seen[key]++
		if seen[key] == 1 || len(rec.Schema.KeyFields) == 0 {
			out[i] = rec
			continue
		}

		values := make(map[string]string, len(rec.Values))
		for name, v := range rec.Values {
			values[name] = v
		}
		last := rec.Schema.KeyFields[len(rec.Schema.KeyFields)-1]
		values[last] = fmt.Sprintf("%s #%d", values[last], seen[key])
		out[i] = domain.Record{Schema: rec.Schema, Values: values}
	}

	return out
}
