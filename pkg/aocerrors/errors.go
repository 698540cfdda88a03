// Package aocerrors defines the closed error taxonomy of the Analysis
// Orchestration Core (spec.md §7). Every error the core returns across a
// component boundary carries one of these Kinds so that API responses and
// bus events can report a stable, machine-readable classification alongside
// the Go error chain.
package aocerrors

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of error classifications from spec.md §7.
type Kind string

const (
	KindInputInvalid       Kind = "INPUT_INVALID"
	KindRegistryConflict   Kind = "REGISTRY_CONFLICT"
	KindToolUnavailable    Kind = "TOOL_UNAVAILABLE"
	KindToolFailedTransient Kind = "TOOL_FAILED_TRANSIENT"
	KindToolFailedPermanent Kind = "TOOL_FAILED_PERMANENT"
	KindToolTimeout         Kind = "TOOL_TIMEOUT"
	KindBusSubscriberLost   Kind = "BUS_SUBSCRIBER_LOST"
	KindCorrelationMalformed Kind = "CORRELATION_MALFORMED"
	KindAuditCancelled      Kind = "AUDIT_CANCELLED"
	KindAuditPartialTimeout Kind = "AUDIT_PARTIAL_TIMEOUT"
	KindInternal            Kind = "INTERNAL"
)

// Error wraps an underlying cause with a stable Kind.
type Error struct {
	Kind Kind
	Op   string // operation that produced the error, e.g. "registry.Register"
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf is a convenience constructor for a formatted message.
func Wrapf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err's chain, defaulting to KindInternal
// when err does not carry a classified *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Sentinel errors for conditions that are checked with errors.Is rather than
// classified by Kind (they are not surfaced across the API boundary as
// top-level errors, only used internally for control flow), mirroring the
// teacher's pkg/queue/types.go sentinel pattern.
var (
	// ErrNotFound indicates a lookup (tool id, audit id, subscription) found
	// nothing.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a duplicate registration.
	ErrAlreadyExists = errors.New("already exists")

	// ErrClosed indicates an operation on an already-closed resource (a bus
	// subscription, a scheduler that has already terminated).
	ErrClosed = errors.New("closed")
)
