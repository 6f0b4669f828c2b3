package sequencer

import (
	"runtime"
	"sync"
	"time"

	"github.com/valyala/fastrand"
)

// alertableBarrier is the minimal view of a SequenceBarrier a WaitStrategy
// needs: whether it has been alerted. Waking blocked waiters is done through
// the strategy's own SignalAllWhenBlocking.
type alertableBarrier interface {
	IsAlerted() bool
}

// WaitStrategy is the policy a waiter follows when it cannot yet make
// progress: WaitFor blocks until min(cursor, dependents) >= target or the
// barrier is alerted, and SignalAllWhenBlocking wakes any waiter parked on
// this strategy. The Sequencer calls SignalAllWhenBlocking after every
// publish that advances the cursor.
type WaitStrategy interface {
	WaitFor(target int64, cursor *Sequence, dependents []*Sequence, barrier alertableBarrier) (int64, error)
	SignalAllWhenBlocking()
}

func observe(cursor *Sequence, dependents []*Sequence) int64 {
	if len(dependents) == 0 {
		return cursor.Get()
	}
	c := cursor.Get()
	d := minSequence(dependents)
	if d < c {
		return d
	}
	return c
}

// BusySpinWaitStrategy pure-spins on the cursor/dependents, re-checking the
// alerted flag every iteration. Lowest latency, highest CPU use.
type BusySpinWaitStrategy struct{}

// NewBusySpinWaitStrategy returns a BusySpinWaitStrategy.
func NewBusySpinWaitStrategy() *BusySpinWaitStrategy { return &BusySpinWaitStrategy{} }

func (w *BusySpinWaitStrategy) WaitFor(target int64, cursor *Sequence, dependents []*Sequence, barrier alertableBarrier) (int64, error) {
	for {
		if barrier.IsAlerted() {
			return -1, ErrAlerted
		}
		if v := observe(cursor, dependents); v >= target {
			return v, nil
		}
	}
}

func (w *BusySpinWaitStrategy) SignalAllWhenBlocking() {}

// YieldingWaitStrategy busy-spins for a bounded number of iterations, then
// calls runtime.Gosched() on every iteration thereafter.
type YieldingWaitStrategy struct {
	spinTries int
}

// NewYieldingWaitStrategy returns a YieldingWaitStrategy that spins
// spinTries times before yielding the goroutine on every further attempt.
func NewYieldingWaitStrategy(spinTries int) *YieldingWaitStrategy {
	if spinTries <= 0 {
		spinTries = 100
	}
	return &YieldingWaitStrategy{spinTries: spinTries}
}

func (w *YieldingWaitStrategy) WaitFor(target int64, cursor *Sequence, dependents []*Sequence, barrier alertableBarrier) (int64, error) {
	counter := w.spinTries
	for {
		if barrier.IsAlerted() {
			return -1, ErrAlerted
		}
		if v := observe(cursor, dependents); v >= target {
			return v, nil
		}
		if counter > 0 {
			counter--
		} else {
			runtime.Gosched()
		}
	}
}

func (w *YieldingWaitStrategy) SignalAllWhenBlocking() {}

// SleepingWaitStrategy spins briefly, then yields, then sleeps for
// progressively longer intervals, jittered to avoid every waiter waking on
// the same tick.
type SleepingWaitStrategy struct {
	spinTries  int
	yieldTries int
	baseSleep  time.Duration
	maxSleep   time.Duration
}

// NewSleepingWaitStrategy returns a SleepingWaitStrategy with the given
// spin/yield iteration counts and sleep bounds. Zero values fall back to
// reasonable defaults.
func NewSleepingWaitStrategy(spinTries, yieldTries int, baseSleep, maxSleep time.Duration) *SleepingWaitStrategy {
	if spinTries <= 0 {
		spinTries = 100
	}
	if yieldTries <= 0 {
		yieldTries = 100
	}
	if baseSleep <= 0 {
		baseSleep = time.Microsecond
	}
	if maxSleep <= 0 {
		maxSleep = time.Millisecond
	}
	return &SleepingWaitStrategy{
		spinTries:  spinTries,
		yieldTries: yieldTries,
		baseSleep:  baseSleep,
		maxSleep:   maxSleep,
	}
}

func (w *SleepingWaitStrategy) WaitFor(target int64, cursor *Sequence, dependents []*Sequence, barrier alertableBarrier) (int64, error) {
	spinLeft := w.spinTries
	yieldLeft := w.yieldTries
	sleep := w.baseSleep

	for {
		if barrier.IsAlerted() {
			return -1, ErrAlerted
		}
		if v := observe(cursor, dependents); v >= target {
			return v, nil
		}

		switch {
		case spinLeft > 0:
			spinLeft--
		case yieldLeft > 0:
			yieldLeft--
			runtime.Gosched()
		default:
			jitter := time.Duration(fastrand.Uint32n(uint32(sleep/2 + 1)))
			time.Sleep(sleep + jitter)
			if sleep < w.maxSleep {
				sleep *= 2
				if sleep > w.maxSleep {
					sleep = w.maxSleep
				}
			}
		}
	}
}

func (w *SleepingWaitStrategy) SignalAllWhenBlocking() {}

// BlockingWaitStrategy parks on a condition variable and wakes on every
// publish. Cheapest CPU use, highest latency; the only strategy that holds
// a lock.
type BlockingWaitStrategy struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// NewBlockingWaitStrategy returns a BlockingWaitStrategy.
func NewBlockingWaitStrategy() *BlockingWaitStrategy {
	w := &BlockingWaitStrategy{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *BlockingWaitStrategy) WaitFor(target int64, cursor *Sequence, dependents []*Sequence, barrier alertableBarrier) (int64, error) {
	if v := observe(cursor, dependents); v >= target {
		return v, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		if barrier.IsAlerted() {
			return -1, ErrAlerted
		}
		if v := observe(cursor, dependents); v >= target {
			return v, nil
		}
		w.cond.Wait()
	}
}

func (w *BlockingWaitStrategy) SignalAllWhenBlocking() {
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}
