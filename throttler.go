package throttler

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Name is a type alias for throttler and pacer names.
// Using this type encourages storing names as constants rather than
// using inline strings throughout your code.
//
// Example:
//
//	const (
//	    APIThrottlerName    Name = "api-throttler"
//	    IngestThrottlerName Name = "ingest-throttler"
//	)
type Name = string

// Metric keys for Throttler observability.
const (
	ThrottlerTokensFilledTotal      = metricz.Key("throttler.tokens.filled.total")
	ThrottlerTokensDroppedTotal     = metricz.Key("throttler.tokens.dropped.total")
	ThrottlerTokensConsumedTotal    = metricz.Key("throttler.tokens.consumed.total")
	ThrottlerMessagesForwardedTotal = metricz.Key("throttler.messages.forwarded.total")
	ThrottlerConduitsActive         = metricz.Key("throttler.conduits.active")
)

// Span names for Throttler.
const (
	ThrottlerThrottleSpan = tracez.Key("throttler.throttle")
)

// Span tags for Throttler.
const (
	ThrottlerTagConnector = tracez.Tag("throttler.connector")
	ThrottlerTagConduits  = tracez.Tag("throttler.conduits")

	// Hook event keys.
	ThrottlerEventConduitOpened = hookz.Key("throttler.conduit.opened")
	ThrottlerEventConduitClosed = hookz.Key("throttler.conduit.closed")
	ThrottlerEventTokensDropped = hookz.Key("throttler.tokens.dropped")
)

// ThrottlerEvent represents a throttler lifecycle or saturation event.
// It is emitted via hookz when conduits open or close and when the filler
// drops tokens against a full bucket, allowing external systems to observe
// throughput shaping without touching the hot path.
type ThrottlerEvent struct {
	Name      Name      // Throttler instance name
	Conduits  int       // Active output conduits after the event
	Dropped   int       // Tokens dropped in the filler tick (drop events only)
	Timestamp time.Time // When the event occurred
}

// Throttler regulates the rate at which values flow through channels using
// a token bucket. A Throttler owns one bucket and one filler goroutine; each
// call to Throttle attaches an input channel and returns a rate-limited
// output channel. Values are forwarded one per token, so the long-run
// emission rate converges to the configured rate while the burst allowance
// bounds how many values can pass back-to-back after an idle period.
//
// CRITICAL: Throttler is a STATEFUL component that maintains a shared token
// bucket. Create it once and share it; every channel throttled by the same
// instance draws from the same rate budget (statistical multiplexing). A
// fresh Throttler per channel gives each channel its own independent budget.
//
// ❌ WRONG - Sharing when you wanted per-stream limits:
//
//	var limiter, _ = throttler.NewThrottler[Event]("events", 100, throttler.Second)
//
//	// Both streams now split 100 msg/s between them.
//	slow1 := limiter.Throttle(stream1)
//	slow2 := limiter.Throttle(stream2)
//
// ✅ RIGHT - One Throttler per independent budget:
//
//	t1, _ := throttler.NewThrottler[Event]("stream-1", 100, throttler.Second)
//	t2, _ := throttler.NewThrottler[Event]("stream-2", 100, throttler.Second)
//
// The shared-budget form is equally deliberate: pass several channels to one
// Throttler when their combined throughput must obey a single limit.
//
// Closing the input channel of any attached conduit shuts the whole
// Throttler down: that conduit's output is closed, the bucket is closed, the
// filler stops, and every sibling conduit closes on its next forward
// attempt. Callers that never close an input must call Close to release the
// filler goroutine.
//
// # Observability
//
// Throttler provides comprehensive observability through metrics, tracing,
// and events:
//
// Metrics:
//   - throttler.tokens.filled.total: Counter of tokens deposited by the filler
//   - throttler.tokens.dropped.total: Counter of tokens dropped against a full bucket
//   - throttler.tokens.consumed.total: Counter of tokens consumed by forwards
//   - throttler.messages.forwarded.total: Counter of values delivered downstream
//   - throttler.conduits.active: Gauge of currently attached conduits
//
// Traces:
//   - throttler.throttle: Span for conduit attachment
//
// Events (via hooks):
//   - throttler.conduit.opened: Fired when Throttle attaches a conduit
//   - throttler.conduit.closed: Fired when a conduit shuts down
//   - throttler.tokens.dropped: Fired when a filler tick drops tokens
//
// Example with hooks:
//
//	limiter, _ := throttler.NewThrottler[Job]("jobs", 50, throttler.Second)
//
//	limiter.OnTokensDropped(func(ctx context.Context, event throttler.ThrottlerEvent) error {
//	    log.Printf("bucket full, dropped %d tokens", event.Dropped)
//	    return nil
//	})
type Throttler[T any] struct {
	sched     atomic.Pointer[schedule]
	bucket    *bucket
	clock     clockz.Clock
	name      Name
	gran      granularity
	conduits  atomic.Int64
	mu        sync.Mutex
	closeOnce sync.Once

	// Observability
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[ThrottlerEvent]
}

// NewThrottler creates a Throttler emitting at most rate messages per unit.
// The burst and granularity options refine the shape of emission without
// changing the long-run rate; see Burst, Granularity and GranularityUnit.
//
// Validation happens here, before the filler starts: a non-positive rate,
// an unknown unit, a negative burst or an invalid granularity all fail
// construction and no goroutine is left behind.
func NewThrottler[T any](name Name, rate float64, unit Unit, opts ...Option) (*Throttler[T], error) {
	s := settings{
		clock: clockz.RealClock,
		gran:  granularity{n: 1},
	}
	for _, opt := range opts {
		opt(&s)
	}

	sched, err := derive(rate, unit, s.burst, s.gran)
	if err != nil {
		return nil, err
	}

	// Initialize observability components
	registry := metricz.New()
	tracer := tracez.New()

	// Register metrics
	registry.Counter(ThrottlerTokensFilledTotal)
	registry.Counter(ThrottlerTokensDroppedTotal)
	registry.Counter(ThrottlerTokensConsumedTotal)
	registry.Counter(ThrottlerMessagesForwardedTotal)
	registry.Gauge(ThrottlerConduitsActive)

	t := &Throttler[T]{
		bucket:  newBucket(sched.capacity),
		clock:   s.clock,
		name:    name,
		gran:    s.gran,
		metrics: registry,
		tracer:  tracer,
		hooks:   hookz.New[ThrottlerEvent](),
	}
	t.sched.Store(&sched)

	go t.fill()

	capitan.Info(context.Background(), SignalThrottlerStarted,
		FieldName.Field(string(t.name)),
		FieldRate.Field(sched.rate),
		FieldUnit.Field(string(sched.unit)),
		FieldBurst.Field(sched.burst),
		FieldTokenValue.Field(sched.tokenValue),
		FieldIntervalMS.Field(float64(sched.interval)/float64(time.Millisecond)),
		FieldCapacity.Field(sched.capacity),
		FieldTimestamp.Field(float64(t.clock.Now().Unix())),
	)

	return t, nil
}

// Throttle attaches in to the shared bucket and returns a channel that
// yields in's values at the throttled rate, preserving their order. The
// returned channel is closed when in closes or when the Throttler shuts
// down; the caller must drain or abandon it.
func (t *Throttler[T]) Throttle(in <-chan T) <-chan T {
	ctx, span := t.tracer.StartSpan(context.Background(), ThrottlerThrottleSpan)
	defer span.Finish()
	span.SetTag(ThrottlerTagConnector, string(t.name))

	out := make(chan T)
	conduits := int(t.conduits.Add(1))
	t.metrics.Gauge(ThrottlerConduitsActive).Set(float64(conduits))
	span.SetTag(ThrottlerTagConduits, strconv.Itoa(conduits))

	go t.pipe(in, out)

	capitan.Info(ctx, SignalConduitOpened,
		FieldName.Field(string(t.name)),
		FieldConduits.Field(conduits),
		FieldTimestamp.Field(float64(t.clock.Now().Unix())),
	)

	_ = t.hooks.Emit(ctx, ThrottlerEventConduitOpened, ThrottlerEvent{ //nolint:errcheck
		Name:      t.name,
		Conduits:  conduits,
		Timestamp: t.clock.Now(),
	})

	return out
}

// SetRate installs a new rate specification on a live Throttler. The filler
// consults the schedule on every cycle, so the change takes effect within
// one tick. The burst and granularity configured at construction are kept.
func (t *Throttler[T]) SetRate(rate float64, unit Unit) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.sched.Load()
	sched, err := derive(rate, unit, cur.burst, t.gran)
	if err != nil {
		return err
	}
	t.sched.Store(&sched)
	t.bucket.setCapacity(sched.capacity)
	return nil
}

// SetBurst installs a new burst allowance on a live Throttler.
func (t *Throttler[T]) SetBurst(burst int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.sched.Load()
	sched, err := derive(cur.rate, cur.unit, burst, t.gran)
	if err != nil {
		return err
	}
	t.sched.Store(&sched)
	t.bucket.setCapacity(sched.capacity)
	return nil
}

// Rate returns the configured rate in messages per Unit.
func (t *Throttler[T]) Rate() float64 {
	return t.sched.Load().rate
}

// Unit returns the time unit the rate is expressed against.
func (t *Throttler[T]) Unit() Unit {
	return t.sched.Load().unit
}

// Burst returns the configured burst allowance.
func (t *Throttler[T]) Burst() int {
	return t.sched.Load().burst
}

// Interval returns the filler's tick period.
func (t *Throttler[T]) Interval() time.Duration {
	return t.sched.Load().interval
}

// TokenValue returns the number of tokens deposited per filler tick.
func (t *Throttler[T]) TokenValue() int {
	return t.sched.Load().tokenValue
}

// Capacity returns the bucket capacity in tokens.
func (t *Throttler[T]) Capacity() int {
	return t.sched.Load().capacity
}

// Tokens returns the number of tokens currently available for immediate
// consumption. This method is primarily intended for testing and debugging.
func (t *Throttler[T]) Tokens() int {
	return t.bucket.len()
}

// Conduits returns the number of currently attached output conduits.
func (t *Throttler[T]) Conduits() int {
	return int(t.conduits.Load())
}

// Name returns the name of this throttler.
func (t *Throttler[T]) Name() Name {
	return t.name
}

// Metrics returns the metrics registry for this throttler.
func (t *Throttler[T]) Metrics() *metricz.Registry {
	return t.metrics
}

// Tracer returns the tracer for this throttler.
func (t *Throttler[T]) Tracer() *tracez.Tracer {
	return t.tracer
}

// OnConduitOpened registers a handler for conduit attachment.
// The handler is called asynchronously after Throttle returns.
func (t *Throttler[T]) OnConduitOpened(handler func(context.Context, ThrottlerEvent) error) error {
	_, err := t.hooks.Hook(ThrottlerEventConduitOpened, handler)
	return err
}

// OnConduitClosed registers a handler for conduit shutdown.
func (t *Throttler[T]) OnConduitClosed(handler func(context.Context, ThrottlerEvent) error) error {
	_, err := t.hooks.Hook(ThrottlerEventConduitClosed, handler)
	return err
}

// OnTokensDropped registers a handler for filler ticks that dropped tokens
// against a full bucket. Drops are normal while consumers idle; the event
// exists for dashboards, not for correctness.
func (t *Throttler[T]) OnTokensDropped(handler func(context.Context, ThrottlerEvent) error) error {
	_, err := t.hooks.Hook(ThrottlerEventTokensDropped, handler)
	return err
}

// Close shuts the Throttler down: the bucket closes, the filler stops, and
// every attached conduit closes its output on its next forward attempt.
// Close is idempotent and safe to call concurrently with channel traffic.
func (t *Throttler[T]) Close() error {
	t.closeOnce.Do(func() {
		t.bucket.close()

		capitan.Info(context.Background(), SignalThrottlerClosed,
			FieldName.Field(string(t.name)),
			FieldConduits.Field(int(t.conduits.Load())),
			FieldTimestamp.Field(float64(t.clock.Now().Unix())),
		)

		if t.tracer != nil {
			t.tracer.Close()
		}
		t.hooks.Close()
	})
	return nil
}

// ThrottleChan is the convenience form of NewThrottler plus a single
// Throttle: it returns a channel yielding in's values at most rate messages
// per unit. The backing Throttler shuts down when in closes, so no Close
// call is needed as long as the caller eventually closes in.
func ThrottleChan[T any](name Name, in <-chan T, rate float64, unit Unit, opts ...Option) (<-chan T, error) {
	t, err := NewThrottler[T](name, rate, unit, opts...)
	if err != nil {
		return nil, err
	}
	return t.Throttle(in), nil
}
