package sequencer

import (
	"runtime"
	"sync/atomic"
)

// ClaimStrategy allocates sequence numbers to producers. SingleThreaded is
// for exactly one producer goroutine; MultiThreaded is safe for any number
// of concurrent producers.
type ClaimStrategy interface {
	// IncrementAndGet allocates exactly one sequence, blocking while the
	// new sequence minus min(gatingSequences) would exceed capacity.
	IncrementAndGet(gatingSequences []*Sequence) int64
	// IncrementAndGetDelta allocates delta contiguous sequences, returning
	// the highest. Blocks until the whole run fits.
	IncrementAndGetDelta(delta int64, gatingSequences []*Sequence) int64
	// SetSequence force-sets the claim counter to exactly s, blocking
	// until gating allows it.
	SetSequence(s int64, gatingSequences []*Sequence)
	// HasAvailableCapacity is a non-blocking capacity test.
	HasAvailableCapacity(gatingSequences []*Sequence) bool
	// GetSequence returns the highest sequence claimed so far.
	GetSequence() int64
	// IsAvailable reports whether sequence seq has been published
	// (not merely claimed). Used by the Sequencer's multi-producer
	// cursor-advance walk; single-threaded claim strategies never need
	// it since their cursor IS the claim counter.
	IsAvailable(seq int64) bool
	// SetAvailable marks seq as published. No-op for single-threaded.
	SetAvailable(seq int64)
	// HighestPublishedSequence returns the highest sequence in
	// [lowerBound, availableSequence] that is contiguously available
	// starting from lowerBound.
	HighestPublishedSequence(lowerBound, availableSequence int64) int64
	// PublisherFollowsSequence spins until the claim counter has reached
	// s, so a caller can be sure no producer still holds an unclaimed
	// slot below s. A no-op for single-threaded strategies, whose claim
	// counter is already exactly the cursor.
	PublisherFollowsSequence(s int64)
}

const claimBackoffSpins = 1000

// waitForGate spins (yielding periodically) until nextClaim - min(gating) <=
// capacity, or immediately returns if gatingSequences is empty (no
// consumers registered yet; caller should not normally claim in that
// state, but we do not deadlock on it).
func waitForGate(nextClaim, capacity int64, gatingSequences []*Sequence) {
	if len(gatingSequences) == 0 {
		return
	}
	spins := 0
	for nextClaim-minSequence(gatingSequences) > capacity {
		spins++
		if spins%claimBackoffSpins == 0 {
			runtime.Gosched()
		}
	}
}

// SingleThreadedClaimStrategy is a claim counter for a single producer
// goroutine.
type SingleThreadedClaimStrategy struct {
	capacity int64
	claimed  atomic.Int64 // highest sequence claimed; InitialCursorValue if none
}

// NewSingleThreadedClaimStrategy returns a claim strategy for exactly one
// producer goroutine. The claim counter is stored atomically purely so
// that other goroutines may safely read it via GetSequence/
// HasAvailableCapacity (capacity monitoring, tests) without racing; it is
// never subject to CAS contention since only one goroutine ever writes it.
func NewSingleThreadedClaimStrategy(capacity int64) *SingleThreadedClaimStrategy {
	c := &SingleThreadedClaimStrategy{capacity: capacity}
	c.claimed.Store(InitialCursorValue)
	return c
}

func (c *SingleThreadedClaimStrategy) IncrementAndGet(gatingSequences []*Sequence) int64 {
	return c.IncrementAndGetDelta(1, gatingSequences)
}

func (c *SingleThreadedClaimStrategy) IncrementAndGetDelta(delta int64, gatingSequences []*Sequence) int64 {
	next := c.claimed.Load() + delta
	waitForGate(next, c.capacity, gatingSequences)
	c.claimed.Store(next)
	return next
}

func (c *SingleThreadedClaimStrategy) SetSequence(s int64, gatingSequences []*Sequence) {
	waitForGate(s, c.capacity, gatingSequences)
	c.claimed.Store(s)
}

func (c *SingleThreadedClaimStrategy) HasAvailableCapacity(gatingSequences []*Sequence) bool {
	if len(gatingSequences) == 0 {
		return true
	}
	return c.claimed.Load()-minSequence(gatingSequences) < c.capacity
}

func (c *SingleThreadedClaimStrategy) GetSequence() int64 {
	return c.claimed.Load()
}

// IsAvailable is trivially true for every claimed sequence: the
// single-threaded cursor doubles as the claim counter, so the Sequencer
// advances its cursor directly on Publish without consulting an
// availability bitmap.
func (c *SingleThreadedClaimStrategy) IsAvailable(seq int64) bool { return true }

func (c *SingleThreadedClaimStrategy) SetAvailable(seq int64) {}

func (c *SingleThreadedClaimStrategy) HighestPublishedSequence(lowerBound, availableSequence int64) int64 {
	return availableSequence
}

func (c *SingleThreadedClaimStrategy) PublisherFollowsSequence(s int64) {}

// MultiThreadedClaimStrategy allocates sequences to any number of
// concurrent producers via CAS, and tracks which claimed slots have
// actually been published with a per-slot generation bitmap so the
// Sequencer can advance its cursor only over a contiguous published run.
type MultiThreadedClaimStrategy struct {
	capacity  int64
	mask      int64
	claimed   atomic.Int64
	available []atomic.Int32 // generation (seq / capacity) per slot once published
}

// NewMultiThreadedClaimStrategy returns a claim strategy safe for any
// number of concurrent producer goroutines. capacity must be a power of
// two (validated by the Sequencer).
func NewMultiThreadedClaimStrategy(capacity int64) *MultiThreadedClaimStrategy {
	c := &MultiThreadedClaimStrategy{
		capacity:  capacity,
		mask:      capacity - 1,
		available: make([]atomic.Int32, capacity),
	}
	for i := range c.available {
		c.available[i].Store(-1)
	}
	c.claimed.Store(InitialCursorValue)
	return c
}

func (c *MultiThreadedClaimStrategy) IncrementAndGet(gatingSequences []*Sequence) int64 {
	return c.IncrementAndGetDelta(1, gatingSequences)
}

func (c *MultiThreadedClaimStrategy) IncrementAndGetDelta(delta int64, gatingSequences []*Sequence) int64 {
	spins := 0
	for {
		current := c.claimed.Load()
		next := current + delta
		waitForGate(next, c.capacity, gatingSequences)
		if c.claimed.CompareAndSwap(current, next) {
			return next
		}
		spins++
		if spins%claimBackoffSpins == 0 {
			runtime.Gosched()
		}
	}
}

func (c *MultiThreadedClaimStrategy) SetSequence(s int64, gatingSequences []*Sequence) {
	waitForGate(s, c.capacity, gatingSequences)
	spins := 0
	for {
		current := c.claimed.Load()
		if current >= s {
			return
		}
		if c.claimed.CompareAndSwap(current, s) {
			return
		}
		spins++
		if spins%claimBackoffSpins == 0 {
			runtime.Gosched()
		}
	}
}

func (c *MultiThreadedClaimStrategy) HasAvailableCapacity(gatingSequences []*Sequence) bool {
	if len(gatingSequences) == 0 {
		return true
	}
	return c.claimed.Load()-minSequence(gatingSequences) < c.capacity
}

func (c *MultiThreadedClaimStrategy) GetSequence() int64 {
	return c.claimed.Load()
}

func (c *MultiThreadedClaimStrategy) slotIndex(seq int64) int64 {
	return seq & c.mask
}

func (c *MultiThreadedClaimStrategy) generation(seq int64) int32 {
	return int32(seq >> bitsForMask(c.mask))
}

func (c *MultiThreadedClaimStrategy) IsAvailable(seq int64) bool {
	return c.available[c.slotIndex(seq)].Load() == c.generation(seq)
}

func (c *MultiThreadedClaimStrategy) SetAvailable(seq int64) {
	c.available[c.slotIndex(seq)].Store(c.generation(seq))
}

func (c *MultiThreadedClaimStrategy) HighestPublishedSequence(lowerBound, availableSequence int64) int64 {
	for seq := lowerBound; seq <= availableSequence; seq++ {
		if !c.IsAvailable(seq) {
			return seq - 1
		}
	}
	return availableSequence
}

func (c *MultiThreadedClaimStrategy) PublisherFollowsSequence(s int64) {
	spins := 0
	for c.claimed.Load() < s {
		spins++
		if spins%claimBackoffSpins == 0 {
			runtime.Gosched()
		}
	}
}

// bitsForMask returns the number of set low bits in a power-of-two-minus-one
// mask, i.e. log2(capacity). Used to compute the wrap generation (seq >>
// bits == seq / capacity) without a division.
func bitsForMask(mask int64) uint {
	var bits uint
	for mask != 0 {
		bits++
		mask >>= 1
	}
	return bits
}
