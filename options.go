package throttler

import "github.com/zoobzio/clockz"

// settings collects the optional parts of a rate specification before
// validation. Validation happens once, in derive, before any goroutine
// starts.
type settings struct {
	clock clockz.Clock
	gran  granularity
	burst int
}

// Option configures a Throttler or Pacer at construction time.
type Option func(*settings)

// Burst sets the minimum bucket capacity, in tokens. Tokens earned while no
// reader is active accumulate up to the capacity and can then be consumed
// back-to-back, so burst bounds how far ahead of the steady rate a consumer
// may momentarily run. Negative values fail construction.
func Burst(n int) Option {
	return func(s *settings) {
		s.burst = n
	}
}

// Granularity sets the quantum of emission shaping to n messages. The
// default of 1 shapes every message individually; larger values let at least
// n messages through per filler tick without changing the long-run rate
// (more than n when the 10ms tick floor applies).
// Values below 1 fail construction.
func Granularity(n int) Option {
	return func(s *settings) {
		s.gran = granularity{n: n}
	}
}

// GranularityUnit sets the quantum of emission shaping to the number of
// messages expected in one u at the configured rate. Passing the rate's own
// unit disables intra-unit shaping entirely: the whole unit's worth of
// messages becomes available at every tick.
func GranularityUnit(u Unit) Option {
	return func(s *settings) {
		s.gran = granularity{unit: u, isUnit: true}
	}
}

// WithClock sets the clock implementation. This is primarily intended for
// testing with clockz.FakeClock; the default is clockz.RealClock.
func WithClock(clock clockz.Clock) Option {
	return func(s *settings) {
		s.clock = clock
	}
}
