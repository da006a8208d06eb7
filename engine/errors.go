/*
errors.go - Centralized error types for the calculation engine

PURPOSE:
  All engine error types in one place. The taxonomy follows the batch
  semantics: missing configuration, missing lines, and missing targets are
  recovered locally (zero contribution plus a warning) and never abort a
  period; invalid input and persistence failures are fatal for the period.

USAGE:
  Callers distinguish with errors.Is:

    if errors.Is(err, engine.ErrNotConfigured) {
        // treat as 0% and record a warning
    }

SEE ALSO:
  - resolver.go: returns ErrNotConfigured
  - commission/coordinator.go: maps fatal errors to the caller
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotConfigured is returned when a rate lookup finds no active row at
	// any precedence level. Callers treat it as 0% and emit a warning; they
	// must not substitute a guessed default.
	ErrNotConfigured = errors.New("no configuration for rate lookup")

	// ErrAgentNotFound is returned when a computation targets an unknown agent.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrInvalidPeriod is returned for a malformed month/year or quarter
	// before any computation begins.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrRecordNotFound is returned by read accessors for periods that were
	// never computed.
	ErrRecordNotFound = errors.New("record not found")

	// ErrPersistence wraps any failure while upserting a record or replacing
	// its detail rows. Fatal for the period: the previous period data must
	// remain intact.
	ErrPersistence = errors.New("persistence failed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// NotConfiguredError carries the lookup key that found no row.
type NotConfiguredError struct {
	Kind  RateKind
	Brand string
	Key   string // order-type for commission lookups, "" otherwise
	Year  int
}

func (e *NotConfiguredError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("no active %s config for brand %q, type %q, year %d", e.Kind, e.Brand, e.Key, e.Year)
	}
	return fmt.Sprintf("no active %s config for brand %q, year %d", e.Kind, e.Brand, e.Year)
}

func (e *NotConfiguredError) Unwrap() error { return ErrNotConfigured }

// PersistenceError carries the period whose write failed.
type PersistenceError struct {
	Agent AgentID
	Month int
	Year  int
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist commission for agent %s %d/%d: %v", e.Agent, e.Month, e.Year, e.Err)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistence }

// IsRecoverable reports whether the error is one of the locally-recovered
// conditions that never abort a batch.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsClientError reports whether the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) || errors.Is(err, ErrAgentNotFound)
}
