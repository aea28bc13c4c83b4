package throttler

import (
	"testing"
	"time"
)

func TestBucket_OfferAndTake(t *testing.T) {
	t.Run("Tokens Accumulate Up To Capacity", func(t *testing.T) {
		b := newBucket(2)

		for i := 0; i < 2; i++ {
			open, dropped := b.offer()
			if !open || dropped {
				t.Fatalf("offer %d: expected open and kept, got open=%t dropped=%t", i, open, dropped)
			}
		}
		if n := b.len(); n != 2 {
			t.Errorf("expected 2 tokens, got %d", n)
		}
	})

	t.Run("Overflow Drops Silently", func(t *testing.T) {
		b := newBucket(2)

		b.offer()
		b.offer()
		open, dropped := b.offer()
		if !open {
			t.Error("bucket should still be open")
		}
		if !dropped {
			t.Error("third offer should have been dropped")
		}
		if n := b.len(); n != 2 {
			t.Errorf("expected 2 tokens after overflow, got %d", n)
		}
	})

	t.Run("Each Take Consumes One Token", func(t *testing.T) {
		b := newBucket(3)
		b.offer()
		b.offer()

		if !b.take() || !b.take() {
			t.Fatal("expected both takes to succeed")
		}
		if n := b.len(); n != 0 {
			t.Errorf("expected empty bucket, got %d tokens", n)
		}
	})

	t.Run("Take Blocks Until Offer", func(t *testing.T) {
		b := newBucket(1)

		got := make(chan bool, 1)
		go func() {
			got <- b.take()
		}()

		select {
		case <-got:
			t.Fatal("take should block on an empty bucket")
		case <-time.After(20 * time.Millisecond):
		}

		b.offer()
		select {
		case ok := <-got:
			if !ok {
				t.Error("expected take to return a token")
			}
		case <-time.After(time.Second):
			t.Fatal("take did not wake after offer")
		}
	})
}

func TestBucket_Close(t *testing.T) {
	t.Run("Offer After Close Reports Closed", func(t *testing.T) {
		b := newBucket(1)
		b.close()

		open, _ := b.offer()
		if open {
			t.Error("offer after close should report closed")
		}
	})

	t.Run("Close Wakes Blocked Takers", func(t *testing.T) {
		b := newBucket(1)

		got := make(chan bool, 1)
		go func() {
			got <- b.take()
		}()

		time.Sleep(10 * time.Millisecond) // let the taker park
		b.close()

		select {
		case ok := <-got:
			if ok {
				t.Error("taker should observe closure, not a token")
			}
		case <-time.After(time.Second):
			t.Fatal("close did not wake the taker")
		}
	})

	t.Run("Take Reports Closure Before Residual Tokens", func(t *testing.T) {
		b := newBucket(2)
		b.offer()
		b.offer()
		b.close()

		if b.take() {
			t.Error("take after close should report closed even with tokens left")
		}
	})

	t.Run("Close Is Idempotent", func(t *testing.T) {
		b := newBucket(1)
		b.close()
		b.close() // must not panic

		select {
		case <-b.done:
		default:
			t.Error("done channel should be closed")
		}
	})
}

func TestBucket_SetCapacity(t *testing.T) {
	b := newBucket(5)
	for i := 0; i < 5; i++ {
		b.offer()
	}

	// Shrinking does not evict earned tokens, but new offers drop.
	b.setCapacity(2)
	if n := b.len(); n != 5 {
		t.Errorf("expected 5 tokens kept after shrink, got %d", n)
	}
	if _, dropped := b.offer(); !dropped {
		t.Error("offer above the new capacity should drop")
	}

	// Growing opens room again.
	b.setCapacity(10)
	if _, dropped := b.offer(); dropped {
		t.Error("offer below the new capacity should be kept")
	}
}
