package throttler

// Unit is a time unit a rate is expressed against, as in "1500 messages
// per Second". Rates are internally normalized to messages per millisecond,
// so any two specifications that describe the same throughput behave the
// same way regardless of the unit they were written in.
type Unit string

// Accepted time units.
const (
	Microsecond Unit = "microsecond"
	Millisecond Unit = "millisecond"
	Second      Unit = "second"
	Minute      Unit = "minute"
	Hour        Unit = "hour"
	Day         Unit = "day"

	// Month is exactly 31 days (2 678 400 000 ms). Callers that need
	// calendar-month semantics must account for the difference themselves.
	Month Unit = "month"
)

// unitMillis maps each unit to its length in milliseconds.
var unitMillis = map[Unit]float64{
	Microsecond: 0.001,
	Millisecond: 1,
	Second:      1_000,
	Minute:      60_000,
	Hour:        3_600_000,
	Day:         86_400_000,
	Month:       2_678_400_000,
}

// Units returns the accepted time units in ascending order of length.
// The slice is freshly allocated; callers may modify it.
func Units() []Unit {
	return []Unit{Microsecond, Millisecond, Second, Minute, Hour, Day, Month}
}

// String returns the unit's name.
func (u Unit) String() string {
	return string(u)
}

// millis returns the unit's length in milliseconds, or 0 for an unknown unit.
func (u Unit) millis() float64 {
	return unitMillis[u]
}

// valid reports whether u is one of the accepted units.
func (u Unit) valid() bool {
	_, ok := unitMillis[u]
	return ok
}
