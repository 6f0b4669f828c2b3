package sequencer

import "time"

// ClaimStrategyKind selects how a Sequencer allocates sequences to
// producers.
type ClaimStrategyKind int

const (
	// SingleThreaded supports exactly one producer goroutine.
	SingleThreaded ClaimStrategyKind = iota
	// MultiThreaded supports any number of concurrent producer goroutines.
	MultiThreaded
)

// WaitStrategyKind selects the policy a barrier follows while it has
// nothing to consume.
type WaitStrategyKind int

const (
	// Blocking parks on a mutex+condvar; cheapest CPU, highest latency.
	Blocking WaitStrategyKind = iota
	// Yielding busy-spins briefly, then calls runtime.Gosched repeatedly.
	Yielding
	// BusySpin never yields; lowest latency, highest CPU use.
	BusySpin
	// Sleeping escalates from spin to yield to jittered sleep back-off.
	Sleeping
)

// Sequencer is the orchestrator: it owns the cursor, the claim strategy,
// the wait strategy, and the gating set, and produces barriers for
// consumers. It addresses ring slots by sequence & (capacity-1); the slot
// storage itself belongs to the caller.
type Sequencer struct {
	capacity int64
	cursor   *Sequence
	claim    ClaimStrategy
	wait     WaitStrategy
	kind     ClaimStrategyKind

	gating []*Sequence
}

// Option customizes wait-strategy tuning at construction time.
type Option func(*sequencerConfig)

type sequencerConfig struct {
	yieldSpinTries  int
	sleepSpinTries  int
	sleepYieldTries int
	sleepBaseNanos  int64
	sleepMaxNanos   int64
}

func durationFromNanos(nanos int64) time.Duration {
	return time.Duration(nanos)
}

// WithYieldSpinTries sets how many iterations the Yielding wait strategy
// busy-spins before it starts calling runtime.Gosched on every attempt.
func WithYieldSpinTries(tries int) Option {
	return func(c *sequencerConfig) { c.yieldSpinTries = tries }
}

// WithSleepTuning sets the Sleeping wait strategy's spin count, yield
// count, and sleep bounds (in nanoseconds).
func WithSleepTuning(spinTries, yieldTries int, baseNanos, maxNanos int64) Option {
	return func(c *sequencerConfig) {
		c.sleepSpinTries = spinTries
		c.sleepYieldTries = yieldTries
		c.sleepBaseNanos = baseNanos
		c.sleepMaxNanos = maxNanos
	}
}

// New constructs a Sequencer over a ring of the given capacity (must be a
// power of two and >= 1), using the given claim and wait strategy kinds.
func New(capacity int64, claimKind ClaimStrategyKind, waitKind WaitStrategyKind, opts ...Option) (*Sequencer, error) {
	if capacity < 1 || capacity&(capacity-1) != 0 {
		return nil, ErrInvalidCapacity
	}

	cfg := &sequencerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var claim ClaimStrategy
	switch claimKind {
	case SingleThreaded:
		claim = NewSingleThreadedClaimStrategy(capacity)
	case MultiThreaded:
		claim = NewMultiThreadedClaimStrategy(capacity)
	default:
		return nil, ErrInvalidArgument
	}

	wait, err := newWaitStrategy(waitKind, cfg)
	if err != nil {
		return nil, err
	}

	return &Sequencer{
		capacity: capacity,
		cursor:   NewSequence(InitialCursorValue),
		claim:    claim,
		wait:     wait,
		kind:     claimKind,
	}, nil
}

func newWaitStrategy(kind WaitStrategyKind, cfg *sequencerConfig) (WaitStrategy, error) {
	switch kind {
	case Blocking:
		return NewBlockingWaitStrategy(), nil
	case Yielding:
		return NewYieldingWaitStrategy(cfg.yieldSpinTries), nil
	case BusySpin:
		return NewBusySpinWaitStrategy(), nil
	case Sleeping:
		return NewSleepingWaitStrategy(
			cfg.sleepSpinTries,
			cfg.sleepYieldTries,
			durationFromNanos(cfg.sleepBaseNanos),
			durationFromNanos(cfg.sleepMaxNanos),
		), nil
	default:
		return nil, ErrInvalidArgument
	}
}

// SetGatingSequences installs the gating set consulted to find the
// slowest consumer. Must be called before the first Next()/Claim(); a
// second call before any claim has happened is an idempotent replacement,
// but calling it after claiming has begun returns ErrInvalidArgument. A nil
// gating set also returns ErrInvalidArgument.
func (s *Sequencer) SetGatingSequences(seqs []*Sequence) error {
	if seqs == nil || s.claim.GetSequence() != InitialCursorValue {
		return ErrInvalidArgument
	}
	s.gating = seqs
	return nil
}

// NewBarrier creates a barrier that waits on the cursor plus the given
// dependent consumer sequences, sharing this Sequencer's wait strategy.
func (s *Sequencer) NewBarrier(dependents []*Sequence) *SequenceBarrier {
	return newSequenceBarrier(s.cursor, dependents, s.wait, s.claim)
}

// Capacity returns the configured ring size.
func (s *Sequencer) Capacity() int64 {
	return s.capacity
}

// HasAvailableCapacity reports whether the claim strategy has at least one
// free slot against the current gating set.
func (s *Sequencer) HasAvailableCapacity() bool {
	return s.claim.HasAvailableCapacity(s.gating)
}

// RemainingCapacity returns capacity - (nextClaim - min(gating)).
func (s *Sequencer) RemainingCapacity() int64 {
	claimed := s.claim.GetSequence()
	consumed := int64(0)
	if len(s.gating) > 0 {
		consumed = claimed - minSequence(s.gating)
	}
	return s.capacity - consumed
}

// OccupiedCapacity returns cursor - min(gating), clamped to >= 0.
func (s *Sequencer) OccupiedCapacity() int64 {
	if len(s.gating) == 0 {
		return 0
	}
	occupied := s.cursor.Get() - minSequence(s.gating)
	if occupied < 0 {
		return 0
	}
	return occupied
}

// Next claims one sequence, blocking per the claim strategy until a free
// slot is available. The returned sequence is not yet published; the
// cursor is unchanged until Publish is called.
func (s *Sequencer) Next() int64 {
	return s.claim.IncrementAndGet(s.gating)
}

// NextBatch claims batch.Size contiguous sequences, blocking until the
// whole run fits, and populates batch.End.
func (s *Sequencer) NextBatch(batch *BatchDescriptor) error {
	if batch.Size() < 1 || batch.Size() > s.capacity {
		return ErrInvalidArgument
	}
	batch.end = s.claim.IncrementAndGetDelta(batch.Size(), s.gating)
	return nil
}

// Claim force-sets the claim counter to exactly s (must satisfy gating);
// returns s. The cursor is unchanged. Used for recovery paths that need to
// skip ahead to a known sequence without going through Next.
func (s *Sequencer) Claim(seq int64) int64 {
	s.claim.SetSequence(seq, s.gating)
	return seq
}

// Publish marks sequence as published. In single-producer mode the cursor
// advances directly to sequence; in multi-producer mode the slot is marked
// available and the cursor advances over any contiguous run of available
// slots starting at cursor+1. Either way, all waiters are signaled
// afterward.
func (s *Sequencer) Publish(sequence int64) {
	s.publish(sequence)
	s.wait.SignalAllWhenBlocking()
}

func (s *Sequencer) publish(sequence int64) {
	if s.kind == SingleThreaded {
		s.cursor.Set(sequence)
		return
	}

	s.claim.SetAvailable(sequence)
	s.advanceCursorOverAvailable()
}

// advanceCursorOverAvailable walks the cursor forward over any
// contiguous run of available (published) slots starting at cursor+1.
// Concurrent publishers race to CAS the cursor forward; a loser simply
// reobserves the winner's new cursor value and either finds more newly
// available slots to claim or gives up.
func (s *Sequencer) advanceCursorOverAvailable() {
	for {
		current := s.cursor.Get()
		next := current + 1
		claimed := s.claim.GetSequence()
		if next > claimed || !s.claim.IsAvailable(next) {
			return
		}
		highest := s.claim.HighestPublishedSequence(next, claimed)
		if highest <= current {
			return
		}
		if !s.cursor.CompareAndSwap(current, highest) {
			continue
		}
	}
}

// PublishBatch publishes the whole [Start, End] range described by batch.
// Equivalent in effect to Publish(batch.End).
func (s *Sequencer) PublishBatch(batch *BatchDescriptor) {
	if s.kind == SingleThreaded {
		s.cursor.Set(batch.End())
		s.wait.SignalAllWhenBlocking()
		return
	}
	for seq := batch.Start(); seq <= batch.End(); seq++ {
		s.claim.SetAvailable(seq)
	}
	s.advanceCursorOverAvailable()
	s.wait.SignalAllWhenBlocking()
}

// ForcePublish sets the cursor directly to sequence, bypassing normal
// claim-order tracking, and signals waiters. Used after Claim for recovery
// paths. In multi-producer mode this runs the same availability-mark +
// contiguous-advance walk as Publish, rather than overwriting the cursor
// unconditionally, so the cursor never skips over an unpublished slot.
func (s *Sequencer) ForcePublish(sequence int64) {
	if s.kind == SingleThreaded {
		s.cursor.Set(sequence)
	} else {
		s.claim.SetAvailable(sequence)
		s.advanceCursorOverAvailable()
	}
	s.wait.SignalAllWhenBlocking()
}

// GetCursor returns the highest published sequence, or InitialCursorValue
// if nothing has been published yet.
func (s *Sequencer) GetCursor() int64 {
	return s.cursor.Get()
}
