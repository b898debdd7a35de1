// Package render turns classified records into the human-readable alert
// body, one labelled block per record in each schema's declared field
// order.
package render

import (
	"strings"

	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

// Entry renders one record as "<Label>: <value>" lines terminated by a
// blank line. Only fields declared by the record's schema are emitted.
func Entry(rec domain.Record) string {
	var b strings.Builder
	for _, f := range rec.Schema.Fields {
		b.WriteString(f.Label)
		b.WriteString(": ")
		b.WriteString(rec.Values[f.Name])
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// Policy decides which classifications notify for a given source. New
// records always notify; Updated is a per-source choice.
type Policy struct {
	// NotifyOnUpdate lists sources whose mutable-field changes re-notify
	NotifyOnUpdate map[string]bool
}

// Notifiable reports whether a change should appear in the alert body.
func (p Policy) Notifiable(c domain.Change) bool {
	switch c.Class {
	case domain.New:
		return true
	case domain.Updated:
		return p.NotifyOnUpdate[c.Record.Schema.Name]
	default:
		return false
	}
}

// Report assembles the full alert body from per-source change sets,
// keeping the given source order. Sources with nothing to notify emit no
// section; an empty report means nothing is dispatched this run.
func Report(changeSets [][]domain.Change, policy Policy) string {
	var b strings.Builder

	for _, changes := range changeSets {
		section := Section(changes, policy)
		if section == "" {
			continue
		}
		b.WriteString(section)
	}

	return b.String()
}

// Section renders one source's notifiable changes under its title
// header, or "" when there is nothing to say.
func Section(changes []domain.Change, policy Policy) string {
	var entries strings.Builder
	var schema *domain.Schema

	for _, c := range changes {
		if !policy.Notifiable(c) {
			continue
		}
		schema = c.Record.Schema
		entries.WriteString(Entry(c.Record))
	}

	if schema == nil {
		return ""
	}

	return "*" + schema.Title + "*\n\n" + entries.String() + "\n\n"
}
