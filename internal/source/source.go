// Package source fetches exposure notices from the external sites and
// hands the core normalized-shape records. Each adapter validates the
// page's column layout before trusting any row, since these pages change
// without notice.
package source

import (
	"context"

	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

// Source is one external origin of exposure data.
type Source interface {
	// Name is the short source identifier used in config and logs
	Name() string

	// Schema describes the records this source produces
	Schema() *domain.Schema

	// Fetch retrieves and extracts the source's current records, in page
	// order. A layout change surfaces as domain.ErrSchemaMismatch rather
	// than silently malformed records.
	Fetch(ctx context.Context) ([]domain.Record, error)
}
