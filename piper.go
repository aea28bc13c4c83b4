package throttler

import (
	"context"

	"github.com/zoobzio/capitan"
)

// pipe is the piper goroutine: one per call to Throttle, joining one input
// channel to one output channel through the shared bucket. Exactly one
// token is consumed per forwarded value, which is what makes the emission
// rate converge to the schedule: the filler batches deposits, the piper
// never batches forwards.
//
// Termination:
//   - input closed: close the output, then close the whole throttler so
//     the filler and every sibling piper stop too.
//   - bucket closed (a sibling's input closed, or Close was called): close
//     the output and exit, leaving the caller-owned input alone.
func (t *Throttler[T]) pipe(in <-chan T, out chan<- T) {
	defer t.conduitClosed()

	for {
		if !t.bucket.take() {
			close(out)
			return
		}
		t.metrics.Counter(ThrottlerTokensConsumedTotal).Inc()

		select {
		case v, ok := <-in:
			if !ok {
				close(out)
				_ = t.Close()
				return
			}
			select {
			case out <- v:
				t.metrics.Counter(ThrottlerMessagesForwardedTotal).Inc()
			case <-t.bucket.done:
				close(out)
				return
			}
		case <-t.bucket.done:
			close(out)
			return
		}
	}
}

// conduitClosed records one piper's exit: gauge, signal, hook event.
func (t *Throttler[T]) conduitClosed() {
	ctx := context.Background()
	conduits := int(t.conduits.Add(-1))
	t.metrics.Gauge(ThrottlerConduitsActive).Set(float64(conduits))

	capitan.Info(ctx, SignalConduitClosed,
		FieldName.Field(string(t.name)),
		FieldConduits.Field(conduits),
		FieldTimestamp.Field(float64(t.clock.Now().Unix())),
	)

	_ = t.hooks.Emit(ctx, ThrottlerEventConduitClosed, ThrottlerEvent{ //nolint:errcheck
		Name:      t.name,
		Conduits:  conduits,
		Timestamp: t.clock.Now(),
	})
}
