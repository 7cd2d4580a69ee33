package engine

import "github.com/pkg/errors"

// Kind classifies why Execute failed, so MarketStatus.LastError carries
// enough structure for an operator to tell a config mistake from a
// consensus-threatening bug without re-running the block.
type Kind string

const (
	// InvalidMarket: quote or base asset record missing, or either
	// asset's market is halted.
	InvalidMarket Kind = "invalid_market"
	// InsufficientFeeds: a market-issued asset has no feed price yet.
	// Vestigial: no asset in this engine's scope is market-issued, so
	// this Kind is never actually raised, only retained for parity with
	// the rest of the error set.
	InsufficientFeeds Kind = "insufficient_feeds"
	// MatchingLoopStuck: a pass advanced neither cursor, tripping the
	// progress guard.
	MatchingLoopStuck Kind = "matching_loop_stuck"
	// InvariantViolation: settlement or sizing produced a state the
	// engine refuses to persist (negative balance, failed whitelist).
	InvariantViolation Kind = "invariant_violation"
	// StorageError: the underlying ChainState panicked.
	StorageError Kind = "storage_error"
)

// Error wraps a classified failure with the underlying cause, captured
// with a stack via github.com/pkg/errors so MarketStatus.LastError's
// string form is enough to diagnose without re-running the block.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// newError classifies cause as kind, wrapping it with a stack trace
// captured at this call (even if cause already carries one).
func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: errors.WithStack(cause)}
}

func newErrorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Cause: errors.Errorf(format, args...)}
}
