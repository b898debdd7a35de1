package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaMismatch is returned when a source page no longer matches
	// the expected column layout
	ErrSchemaMismatch = errors.New("source schema mismatch")

	// ErrNoRecords is returned when a source unexpectedly reports zero rows
	ErrNoRecords = errors.New("no records found")
)

// Process exit codes, consumed by the invoking scheduler to distinguish
// failure classes.
const (
	ExitSuccess  = 0
	ExitConfig   = 1
	ExitFetch    = 2
	ExitStorage  = 3
	ExitDelivery = 4
)

// FetchError marks a source fetch or parse failure. Fatal for the run
// under the fail-fast policy; no history mutation has happened yet.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StorageError marks a history store failure. Always fatal.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// DeliveryError marks a channel delivery failure. Non-fatal per channel;
// a failed critical channel rolls back the run's history mutations.
type DeliveryError struct {
	Channel  string
	Critical bool
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ExitCode maps a run error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return ExitFetch
	}

	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return ExitStorage
	}

	var deliveryErr *DeliveryError
	if errors.As(err, &deliveryErr) {
		return ExitDelivery
	}

	return ExitConfig
}
