package sequencer

import (
	"testing"
	"time"
)

func TestSequenceBarrierWaitForAlreadyPublished(t *testing.T) {
	cursor := NewSequence(5)
	b := newSequenceBarrier(cursor, nil, NewBusySpinWaitStrategy(), NewSingleThreadedClaimStrategy(8))

	got, err := b.WaitFor(3)
	if err != nil {
		t.Fatalf("WaitFor() error = %v", err)
	}
	if got != 5 {
		t.Fatalf("WaitFor() = %d, want 5 (batching effect: returns cursor, not target)", got)
	}
}

func TestSequenceBarrierAlert(t *testing.T) {
	cursor := NewSequence(InitialCursorValue)
	b := newSequenceBarrier(cursor, nil, NewBusySpinWaitStrategy(), NewSingleThreadedClaimStrategy(8))

	if b.IsAlerted() {
		t.Fatalf("IsAlerted() = true before any Alert()")
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := b.WaitFor(0)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	b.Alert()

	select {
	case err := <-errCh:
		if err != ErrAlerted {
			t.Fatalf("WaitFor() error = %v, want ErrAlerted", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("WaitFor() never returned after Alert()")
	}

	if !b.IsAlerted() {
		t.Fatalf("IsAlerted() = false after Alert()")
	}

	b.ClearAlert()
	if b.IsAlerted() {
		t.Fatalf("IsAlerted() = true after ClearAlert()")
	}
}

func TestSequenceBarrierGetCursor(t *testing.T) {
	cursor := NewSequence(InitialCursorValue)
	b := newSequenceBarrier(cursor, nil, NewBusySpinWaitStrategy(), NewSingleThreadedClaimStrategy(8))

	if got := b.GetCursor(); got != InitialCursorValue {
		t.Fatalf("GetCursor() = %d, want %d", got, InitialCursorValue)
	}
	cursor.Set(7)
	if got := b.GetCursor(); got != 7 {
		t.Fatalf("GetCursor() = %d, want 7", got)
	}
}

// Multi-producer barrier: WaitFor must clamp to the highest contiguously
// published sequence, not merely whatever the raw cursor/claim counter
// says, when a gap exists.
func TestSequenceBarrierMultiProducerContiguity(t *testing.T) {
	claim := NewMultiThreadedClaimStrategy(8)
	cursor := NewSequence(InitialCursorValue)
	b := newSequenceBarrier(cursor, nil, NewBusySpinWaitStrategy(), claim)

	claim.IncrementAndGet(nil) // 0
	claim.IncrementAndGet(nil) // 1
	claim.IncrementAndGet(nil) // 2

	claim.SetAvailable(0)
	claim.SetAvailable(2) // 1 still missing
	cursor.Set(claim.HighestPublishedSequence(0, claim.GetSequence()))

	got, err := b.WaitFor(0)
	if err != nil {
		t.Fatalf("WaitFor() error = %v", err)
	}
	if got != 0 {
		t.Fatalf("WaitFor() = %d, want 0 (sequence 1 not yet published)", got)
	}
}
