package throttler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestPacer_Validation(t *testing.T) {
	if _, err := NewPacer("bad", 0, Second); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("expected ErrInvalidRate, got %v", err)
	}
	if _, err := NewPacer("bad", 10, Unit("foo")); !errors.Is(err, ErrUnknownUnit) {
		t.Errorf("expected ErrUnknownUnit, got %v", err)
	}
}

func TestPacer_WrappedCallsArePaced(t *testing.T) {
	clock := clockz.NewFakeClock()
	pacer, err := NewPacer("add", 10, Second, WithClock(clock))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer pacer.Close()

	add := Wrap2(pacer, func(a, b int) int { return a + b })

	results := make(chan int)
	go func() {
		for i := 0; i < 3; i++ {
			results <- add(1, 1)
		}
	}()

	// First call rides the construction tick's token.
	select {
	case r := <-results:
		if r != 2 {
			t.Errorf("expected 2, got %d", r)
		}
	case <-time.After(time.Second):
		t.Fatal("first call did not complete")
	}

	// The second call is gated until the clock advances.
	select {
	case r := <-results:
		t.Fatalf("call returned %d without a token", r)
	case <-time.After(50 * time.Millisecond):
	}

	for i := 0; i < 2; i++ {
		clock.BlockUntilReady()
		clock.Advance(100 * time.Millisecond)
		select {
		case r := <-results:
			if r != 2 {
				t.Errorf("expected 2, got %d", r)
			}
		case <-time.After(time.Second):
			t.Fatalf("call %d did not complete after advancing", i+2)
		}
	}
}

func TestPacer_SharedBudget(t *testing.T) {
	clock := clockz.NewFakeClock()
	pacer, err := NewPacer("shared", 10, Second, WithClock(clock))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer pacer.Close()

	double := Wrap1(pacer, func(n int) int { return n * 2 })
	negate := Wrap1(pacer, func(n int) int { return -n })

	results := make(chan int)
	go func() {
		results <- double(2)
		results <- negate(3)
	}()

	// Both wrapped functions draw from the same budget: one call per token.
	select {
	case r := <-results:
		if r != 4 {
			t.Errorf("expected 4, got %d", r)
		}
	case <-time.After(time.Second):
		t.Fatal("first call did not complete")
	}

	select {
	case r := <-results:
		t.Fatalf("second function returned %d on the first token", r)
	case <-time.After(50 * time.Millisecond):
	}

	clock.BlockUntilReady()
	clock.Advance(100 * time.Millisecond)
	select {
	case r := <-results:
		if r != -3 {
			t.Errorf("expected -3, got %d", r)
		}
	case <-time.After(time.Second):
		t.Fatal("second call did not complete after advancing")
	}
}

func TestPacer_WaitContext(t *testing.T) {
	clock := clockz.NewFakeClock()
	pacer, err := NewPacer("ctx", 10, Second, WithClock(clock))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer pacer.Close()

	// Spend the construction tick's token.
	if err := pacer.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- pacer.Wait(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("Wait returned %v without a token", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not observe cancellation")
	}
}

func TestPacer_Close(t *testing.T) {
	clock := clockz.NewFakeClock()
	pacer, err := NewPacer("closing", 10, Second, WithClock(clock))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := pacer.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- pacer.Wait(context.Background())
	}()
	select {
	case err := <-waitErr:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Close")
	}

	// Wrapped functions keep working, just unthrottled.
	add := Wrap(pacer, func() int { return 42 })
	if got := add(); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	if err := pacer.Close(); err != nil {
		t.Errorf("Close must be idempotent, got %v", err)
	}
}
