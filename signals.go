package throttler

import "github.com/zoobzio/capitan"

// Signals for throttler events.
// Signals follow the pattern: <component>.<event>.
var (
	// Throttler lifecycle signals.
	SignalThrottlerStarted = capitan.NewSignal("throttler.started", "Throttler instance started")
	SignalThrottlerClosed  = capitan.NewSignal("throttler.closed", "Throttler instance closed")

	// Conduit signals.
	SignalConduitOpened = capitan.NewSignal("throttler.conduit.opened", "Conduit opened")
	SignalConduitClosed = capitan.NewSignal("throttler.conduit.closed", "Conduit closed")

	// Filler signals.
	SignalBucketSaturated = capitan.NewSignal("throttler.bucket.saturated", "Bucket saturated")
	SignalFillerStopped   = capitan.NewSignal("throttler.filler.stopped", "Filler stopped")

	// Pacer signals.
	SignalPacerWaited = capitan.NewSignal("pacer.waited", "Pacer waited")
)

// Common field keys using capitan primitive types.
// All keys use primitive types to avoid custom struct serialization.
var (
	// Common fields.
	FieldName      = capitan.NewStringKey("name")       // Throttler instance name
	FieldTimestamp = capitan.NewFloat64Key("timestamp") // Unix timestamp

	// Rate specification fields.
	FieldRate  = capitan.NewFloat64Key("rate") // Messages per unit
	FieldUnit  = capitan.NewStringKey("unit")  // Time unit of the rate
	FieldBurst = capitan.NewIntKey("burst")    // Requested burst allowance

	// Schedule fields.
	FieldTokenValue = capitan.NewIntKey("token_value")     // Tokens deposited per tick
	FieldIntervalMS = capitan.NewFloat64Key("interval_ms") // Filler tick period
	FieldCapacity   = capitan.NewIntKey("capacity")        // Bucket capacity

	// Runtime fields.
	FieldDropped  = capitan.NewIntKey("dropped")       // Tokens dropped in one tick
	FieldConduits = capitan.NewIntKey("conduits")      // Active output conduits
	FieldWaitTime = capitan.NewFloat64Key("wait_time") // Pacer wait in seconds
)
