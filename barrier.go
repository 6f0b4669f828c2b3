package sequencer

import "sync/atomic"

// SequenceBarrier is a waitable view combining a producer cursor and a set
// of upstream dependent (gating) sequences. Consumers call WaitFor(target)
// to block until the cursor and every dependent have reached at least
// target, then read up through the returned sequence (which may exceed
// target — the batching effect).
type SequenceBarrier struct {
	cursor       *Sequence
	dependents   []*Sequence
	waitStrategy WaitStrategy
	claim        ClaimStrategy // consulted for the highest-contiguous walk
	alerted      atomic.Bool
}

func newSequenceBarrier(cursor *Sequence, dependents []*Sequence, waitStrategy WaitStrategy, claim ClaimStrategy) *SequenceBarrier {
	return &SequenceBarrier{
		cursor:       cursor,
		dependents:   dependents,
		waitStrategy: waitStrategy,
		claim:        claim,
	}
}

// WaitFor blocks until min(cursor, dependents) >= target, or returns
// ErrAlerted if the barrier is alerted first. On success it returns the
// highest sequence known to be contiguously published starting from
// target, which may be greater than target.
func (b *SequenceBarrier) WaitFor(target int64) (int64, error) {
	available, err := b.waitStrategy.WaitFor(target, b.cursor, b.dependents, b)
	if err != nil {
		return -1, err
	}
	if available < target {
		return available, nil
	}
	return b.claim.HighestPublishedSequence(target, available), nil
}

// GetCursor returns the latest observed cursor value.
func (b *SequenceBarrier) GetCursor() int64 {
	return b.cursor.Get()
}

// IsAlerted reports whether Alert has been called without an intervening
// ClearAlert.
func (b *SequenceBarrier) IsAlerted() bool {
	return b.alerted.Load()
}

// Alert sets the alerted flag and wakes any goroutine blocked in WaitFor so
// it observes the flag and returns ErrAlerted. Alerts are sticky until
// ClearAlert is called.
func (b *SequenceBarrier) Alert() {
	b.alerted.Store(true)
	b.waitStrategy.SignalAllWhenBlocking()
}

// ClearAlert resets the alerted flag to normal.
func (b *SequenceBarrier) ClearAlert() {
	b.alerted.Store(false)
}
