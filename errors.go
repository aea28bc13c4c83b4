package throttler

import "errors"

// Validation errors returned at construction time. No worker goroutines are
// started until validation passes, so a constructor error never requires
// cleanup. After construction succeeds no operational error is surfaced:
// closing the input conduit is normal termination, and a token dropped on
// overflow is intended and silent.
var (
	ErrInvalidRate        = errors.New("rate must be a positive, finite number")
	ErrUnknownUnit        = errors.New("unknown time unit")
	ErrInvalidBurst       = errors.New("burst must be non-negative")
	ErrInvalidGranularity = errors.New("granularity must be at least 1, or a known time unit")

	// ErrClosed is reported by Pacer.Wait once the pacer has been closed.
	ErrClosed = errors.New("throttler is closed")
)
