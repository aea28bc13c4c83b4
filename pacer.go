package throttler

import (
	"context"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Span names for Pacer.
const (
	PacerWaitSpan = tracez.Key("pacer.wait")
)

// Span tags for Pacer.
const (
	PacerTagConnector = tracez.Tag("pacer.connector")
	PacerTagError     = tracez.Tag("pacer.error")
)

// Pacer gates arbitrary function calls on a shared rate budget. It is the
// function-call face of Throttler: internally a capacity-1 pacing channel is
// piped through a throttled conduit, and each Wait performs one send into
// the pacing channel followed by one receive from the throttled side. The
// receive is the rate-limited step.
//
// All functions wrapped over one Pacer share its budget: wrapping ten
// callables over a 10-per-second Pacer yields a combined invocation rate of
// 10 per second, split between them by demand.
//
// Concurrent Wait callers are released roughly in arrival order; the
// ordering comes from the runtime's channel wakeup order and is not a
// strict FIFO guarantee.
//
// Example:
//
//	pacer, _ := throttler.NewPacer("api-calls", 10, throttler.Second)
//	defer pacer.Close()
//
//	fetch := throttler.Wrap1(pacer, client.Fetch)
//	for _, url := range urls {
//	    fetch(url) // at most 10 of these per second
//	}
type Pacer struct {
	t    *Throttler[struct{}]
	pace chan struct{}
	out  <-chan struct{}
}

// NewPacer creates a Pacer allowing at most rate gated calls per unit.
// It accepts the same options as NewThrottler and fails on the same invalid
// specifications. Callers must Close the Pacer when done with it to release
// its filler and piper goroutines.
func NewPacer(name Name, rate float64, unit Unit, opts ...Option) (*Pacer, error) {
	t, err := NewThrottler[struct{}](name, rate, unit, opts...)
	if err != nil {
		return nil, err
	}

	pace := make(chan struct{}, 1)
	return &Pacer{
		t:    t,
		pace: pace,
		out:  t.Throttle(pace),
	}, nil
}

// Wait blocks for one token passage through the throttled conduit: the call
// returns once the shared rate budget admits one more invocation. It
// returns ctx.Err() if the context is canceled first, or ErrClosed once the
// Pacer has been closed.
func (p *Pacer) Wait(ctx context.Context) error {
	ctx, span := p.t.tracer.StartSpan(ctx, PacerWaitSpan)
	defer span.Finish()
	span.SetTag(PacerTagConnector, string(p.t.name))

	start := p.t.clock.Now()

	select {
	case p.pace <- struct{}{}:
	case <-p.t.bucket.done:
		span.SetTag(PacerTagError, ErrClosed.Error())
		return ErrClosed
	case <-ctx.Done():
		span.SetTag(PacerTagError, ctx.Err().Error())
		return ctx.Err()
	}

	select {
	case _, ok := <-p.out:
		if !ok {
			span.SetTag(PacerTagError, ErrClosed.Error())
			return ErrClosed
		}
	case <-ctx.Done():
		span.SetTag(PacerTagError, ctx.Err().Error())
		return ctx.Err()
	}

	capitan.Info(ctx, SignalPacerWaited,
		FieldName.Field(string(p.t.name)),
		FieldWaitTime.Field(p.t.clock.Since(start).Seconds()),
		FieldTimestamp.Field(float64(p.t.clock.Now().Unix())),
	)

	return nil
}

// Name returns the name of this pacer.
func (p *Pacer) Name() Name {
	return p.t.Name()
}

// Rate returns the configured rate in calls per Unit.
func (p *Pacer) Rate() float64 {
	return p.t.Rate()
}

// Unit returns the time unit the rate is expressed against.
func (p *Pacer) Unit() Unit {
	return p.t.Unit()
}

// Metrics returns the metrics registry of the backing throttler.
func (p *Pacer) Metrics() *metricz.Registry {
	return p.t.Metrics()
}

// Tracer returns the tracer of the backing throttler.
func (p *Pacer) Tracer() *tracez.Tracer {
	return p.t.Tracer()
}

// Close shuts the Pacer down. Waiters blocked in Wait return ErrClosed;
// functions wrapped over the Pacer keep working but are no longer
// throttled. Close is idempotent.
func (p *Pacer) Close() error {
	return p.t.Close()
}

// Wrap returns a function that calls fn after waiting for the pacer's rate
// budget. Once the Pacer is closed the returned function calls fn without
// waiting; wrap-time throttling is a liveness aid, not an access control.
func Wrap[R any](p *Pacer, fn func() R) func() R {
	return func() R {
		_ = p.Wait(context.Background()) //nolint:errcheck
		return fn()
	}
}

// Wrap1 is Wrap for single-argument functions.
func Wrap1[A, R any](p *Pacer, fn func(A) R) func(A) R {
	return func(a A) R {
		_ = p.Wait(context.Background()) //nolint:errcheck
		return fn(a)
	}
}

// Wrap2 is Wrap for two-argument functions.
func Wrap2[A, B, R any](p *Pacer, fn func(A, B) R) func(A, B) R {
	return func(a A, b B) R {
		_ = p.Wait(context.Background()) //nolint:errcheck
		return fn(a, b)
	}
}
