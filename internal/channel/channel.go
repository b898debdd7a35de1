// Package channel delivers rendered alert bodies to the configured
// user-facing notification channels, and operator alerts to the
// administrative channel. Each dispatcher makes exactly one delivery
// attempt per run; retrying is the next run's job.
package channel

import "context"

// Dispatcher posts a rendered report to one notification channel.
type Dispatcher interface {
	// Name identifies the channel in logs and errors
	Name() string

	// Critical reports whether a delivery failure on this channel must
	// roll back the run's history mutations
	Critical() bool

	// Send delivers the report. Any non-success transport status is an
	// error; the caller decides what a failure means for the run.
	Send(ctx context.Context, report string) error
}
