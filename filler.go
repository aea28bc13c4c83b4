package throttler

import (
	"context"

	"github.com/zoobzio/capitan"
)

// fill is the filler goroutine: one per Throttler, started at construction,
// alive until the bucket closes. Each cycle it deposits tokenValue tokens
// one at a time, then sleeps for the schedule's interval.
//
// Tokens are offered individually so a full bucket never stalls the cycle;
// offer drops the surplus and the loop proceeds straight to the sleep. The
// only early exit is bucket closure.
//
// The schedule is re-read every cycle, never cached across one, so SetRate
// and SetBurst take effect within a single tick.
func (t *Throttler[T]) fill() {
	ctx := context.Background()

	for {
		sched := t.sched.Load()

		filled, dropped := 0, 0
		for i := 0; i < sched.tokenValue; i++ {
			open, drop := t.bucket.offer()
			if !open {
				t.flushFillCounts(filled, dropped)
				t.fillerStopped(ctx)
				return
			}
			if drop {
				dropped++
			} else {
				filled++
			}
		}
		t.flushFillCounts(filled, dropped)

		if dropped > 0 {
			capitan.Warn(ctx, SignalBucketSaturated,
				FieldName.Field(string(t.name)),
				FieldDropped.Field(dropped),
				FieldCapacity.Field(sched.capacity),
				FieldTimestamp.Field(float64(t.clock.Now().Unix())),
			)

			_ = t.hooks.Emit(ctx, ThrottlerEventTokensDropped, ThrottlerEvent{ //nolint:errcheck
				Name:      t.name,
				Conduits:  int(t.conduits.Load()),
				Dropped:   dropped,
				Timestamp: t.clock.Now(),
			})
		}

		select {
		case <-t.clock.After(sched.interval):
		case <-t.bucket.done:
			t.fillerStopped(ctx)
			return
		}
	}
}

func (t *Throttler[T]) flushFillCounts(filled, dropped int) {
	if filled > 0 {
		t.metrics.Counter(ThrottlerTokensFilledTotal).Add(float64(filled))
	}
	if dropped > 0 {
		t.metrics.Counter(ThrottlerTokensDroppedTotal).Add(float64(dropped))
	}
}

func (t *Throttler[T]) fillerStopped(ctx context.Context) {
	capitan.Info(ctx, SignalFillerStopped,
		FieldName.Field(string(t.name)),
		FieldTimestamp.Field(float64(t.clock.Now().Unix())),
	)
}
