// Package throttler provides a token-bucket throughput throttler for
// channels and function calls.
//
// # Overview
//
// throttler regulates the rate at which values flow through a channel and,
// by extension, the rate at which arbitrary functions are invoked. It
// supports steady-state average rates across seven time units, configurable
// burstiness, and statistical multiplexing: several producers can share one
// combined rate budget by attaching to the same Throttler.
//
// # Core Concepts
//
// A Throttler owns a bounded token bucket and a filler goroutine that
// deposits tokens on a fixed schedule. Each throttled channel gets a piper
// goroutine that consumes exactly one token per forwarded value:
//
//	in := make(chan Request)
//	limiter, err := throttler.NewThrottler[Request]("api", 100, throttler.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out := limiter.Throttle(in)
//
//	go produce(in)   // writes as fast as it likes
//	for req := range out {
//	    handle(req)  // arrives at ≤100 per second
//	}
//
// The bucket drops tokens silently when full, which bounds the burst a
// consumer can accumulate while idle, and blocks takers when empty, which
// is what paces the pipers. Closing the input channel propagates: the
// output channel closes, the bucket closes, and the filler stops.
//
// # Rate Specifications
//
// A rate is a positive number of messages per Unit. Two optional knobs
// shape emission without changing the long-run rate:
//
//   - Burst(n) lets up to n values pass back-to-back after an idle period.
//   - Granularity(n) / GranularityUnit(u) widen the atom of emission:
//     tokens arrive in batches of n instead of one by one.
//
// At high rates the tick period is pinned to a 10ms floor and each tick
// deposits many tokens; at low rates the filler sleeps long intervals and
// deposits one. Both directions preserve the average rate.
//
// # Throttling Functions
//
// Pacer gates function calls on the same machinery:
//
//	pacer, _ := throttler.NewPacer("outbound", 10, throttler.Second)
//	defer pacer.Close()
//
//	slowAdd := throttler.Wrap2(pacer, func(a, b int) int { return a + b })
//	slowAdd(1, 2) // at most 10 calls per second, shared with every
//	              // other function wrapped over this pacer
//
// # Sharing a Budget
//
// Every channel passed to one Throttler's Throttle draws from the same
// bucket, so the sum of their emission rates obeys the single configured
// rate. Per-channel budgets need one Throttler each. Note that closing any
// attached input shuts the whole Throttler down; sharing a budget also
// means sharing a lifetime.
//
// # Accuracy
//
// Long-run mean error stays within about 10% for tick periods at the 10ms
// floor; below ~10ms of ideal period the runtime timer's jitter dominates,
// which is why the floor exists. There is no instantaneous-rate guarantee
// at sub-10ms scales, no fairness beyond FIFO token consumption, and no
// distributed coordination.
//
// # Observability
//
// Each Throttler carries a metricz registry (token and message counters,
// active-conduit gauge), a tracez tracer (conduit attachment and paced
// waits), hookz events (conduit opened/closed, tokens dropped), and emits
// capitan signals for lifecycle transitions. All time flows through a
// clockz.Clock so tests can drive the schedule deterministically with a
// FakeClock.
package throttler
