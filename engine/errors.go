/*
errors.go - Centralized error types for the metrics engine

PURPOSE:
  All error types in one place. The store, report and api packages wrap
  these so callers can test with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Store errors - the fact store cannot be opened or has no table (fatal)
  2. Record errors - a counter is missing, non-numeric or negative
  3. Render errors - a report scalar is absent
  4. Input errors - unknown region, bad weekday, non-positive top N

POLICY:
  A malformed record aborts the whole region load. There are no partial
  results: either every record of a region is valid and all metrics are
  computed, or the caller gets an error and renders nothing.

SEE ALSO:
  - store/sqlite/sqlite.go: Wraps ErrStoreUnavailable, builds MalformedRecordError
  - report/pdf.go: Returns RenderError
*/
package engine

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStoreUnavailable is returned when the fact store cannot be opened
	// or the stats table does not exist. Populate the store and restart.
	ErrStoreUnavailable = errors.New("fact store unavailable")

	// ErrMalformedRecord is returned when a record field is missing or invalid.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrRenderFailed is returned when a report cannot be rendered.
	ErrRenderFailed = errors.New("report render failed")

	// ErrRegionNotFound is returned for a region absent from the store.
	ErrRegionNotFound = errors.New("region not found")

	// ErrInvalidTopN is returned when a top-N selection is not positive.
	ErrInvalidTopN = errors.New("top n must be positive")

	// ErrUnknownWeekday is returned when a weekday name cannot be parsed.
	ErrUnknownWeekday = errors.New("unknown weekday")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MalformedRecordError names the offending field of a record.
type MalformedRecordError struct {
	Field    string
	District string
	Date     time.Time
	Value    string
	Reason   string
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("malformed record: field %q", e.Field)
	if e.District != "" {
		msg += fmt.Sprintf(" (district %s", e.District)
		if !e.Date.IsZero() {
			msg += ", date " + e.Date.Format("2006-01-02")
		}
		msg += ")"
	}
	if e.Value != "" {
		msg += fmt.Sprintf(": value %q", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// RenderError names the report section that could not be rendered.
type RenderError struct {
	Section string
	Err     error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render %s: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("render %s: required value missing", e.Section)
}

func (e *RenderError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRenderFailed, e.Err}
	}
	return []error{ErrRenderFailed}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTopN) ||
		errors.Is(err, ErrUnknownWeekday)
}

// IsNotFound returns true if the error indicates a missing region.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRegionNotFound)
}
