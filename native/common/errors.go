package common

import "errors"

// Failure kinds shared across the native engines. Every error returned by an
// engine wraps exactly one of these sentinels so the facade and RPC layers can
// dispatch with errors.Is without parsing messages. All of them are fatal to
// the current invocation: the staged state is discarded and the caller must
// resubmit.
var (
	// ErrUnauthorized marks a caller acting on an account it does not control.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalid marks malformed input: non-positive amounts, out-of-range
	// percentages or durations, malformed swap paths.
	ErrInvalid = errors.New("invalid input")
	// ErrConflict marks an operation against a record not in the required
	// status (e.g. executing an already-settled transfer).
	ErrConflict = errors.New("state conflict")
	// ErrNotFound marks a lookup of a record that does not exist or whose
	// lifetime has lapsed.
	ErrNotFound = errors.New("not found")
	// ErrPrecondition marks a time bound that is not yet met, an expired rate
	// lock, a duplicate active plan, or an insufficient balance.
	ErrPrecondition = errors.New("precondition not met")
	// ErrNotConfigured marks a missing piece of instance configuration, such
	// as an unset venue.
	ErrNotConfigured = errors.New("not configured")
	// ErrSlippage marks a swap whose output fell below the caller's floor.
	ErrSlippage = errors.New("slippage limit exceeded")
)
