package sequencer

import (
	"sync"
	"testing"
	"time"
)

// testBarrier is a minimal alertableBarrier for wait-strategy unit tests
// that don't need a full Sequencer.
type testBarrier struct {
	alerted bool
}

func (b *testBarrier) IsAlerted() bool { return b.alerted }

func waitStrategies() map[string]WaitStrategy {
	return map[string]WaitStrategy{
		"BusySpin": NewBusySpinWaitStrategy(),
		"Yielding": NewYieldingWaitStrategy(10),
		"Sleeping": NewSleepingWaitStrategy(10, 10, time.Microsecond, time.Millisecond),
		"Blocking": NewBlockingWaitStrategy(),
	}
}

func TestWaitStrategyReturnsImmediatelyWhenAlreadySatisfied(t *testing.T) {
	for name, ws := range waitStrategies() {
		t.Run(name, func(t *testing.T) {
			cursor := NewSequence(5)
			got, err := ws.WaitFor(3, cursor, nil, &testBarrier{})
			if err != nil {
				t.Fatalf("WaitFor() error = %v", err)
			}
			if got != 5 {
				t.Fatalf("WaitFor() = %d, want 5", got)
			}
		})
	}
}

func TestWaitStrategyBlocksThenWakesOnPublish(t *testing.T) {
	for name, ws := range waitStrategies() {
		t.Run(name, func(t *testing.T) {
			cursor := NewSequence(InitialCursorValue)
			done := make(chan int64, 1)

			go func() {
				v, err := ws.WaitFor(0, cursor, nil, &testBarrier{})
				if err != nil {
					t.Errorf("WaitFor() error = %v", err)
					return
				}
				done <- v
			}()

			// Give the waiter a moment to actually start waiting.
			time.Sleep(10 * time.Millisecond)
			cursor.Set(0)
			ws.SignalAllWhenBlocking()

			select {
			case v := <-done:
				if v != 0 {
					t.Fatalf("WaitFor() = %d, want 0", v)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("WaitFor() never returned after publish")
			}
		})
	}
}

func TestWaitStrategyAlertReturnsError(t *testing.T) {
	for name, ws := range waitStrategies() {
		t.Run(name, func(t *testing.T) {
			cursor := NewSequence(InitialCursorValue)
			barrier := &testBarrier{}
			errCh := make(chan error, 1)

			go func() {
				_, err := ws.WaitFor(0, cursor, nil, barrier)
				errCh <- err
			}()

			time.Sleep(10 * time.Millisecond)
			barrier.alerted = true
			ws.SignalAllWhenBlocking()

			select {
			case err := <-errCh:
				if err != ErrAlerted {
					t.Fatalf("WaitFor() error = %v, want ErrAlerted", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("WaitFor() never returned after alert")
			}
		})
	}
}

func TestWaitStrategyConsultsDependents(t *testing.T) {
	for name, ws := range waitStrategies() {
		t.Run(name, func(t *testing.T) {
			cursor := NewSequence(10) // producer is way ahead
			dep := NewSequence(InitialCursorValue)

			done := make(chan int64, 1)
			go func() {
				v, err := ws.WaitFor(0, cursor, []*Sequence{dep}, &testBarrier{})
				if err != nil {
					t.Errorf("WaitFor() error = %v", err)
					return
				}
				done <- v
			}()

			time.Sleep(10 * time.Millisecond)
			select {
			case <-done:
				t.Fatalf("WaitFor() returned before the dependent advanced")
			default:
			}

			dep.Set(0)
			ws.SignalAllWhenBlocking()

			select {
			case v := <-done:
				if v != 0 {
					t.Fatalf("WaitFor() = %d, want 0 (min of cursor=10, dependent=0)", v)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("WaitFor() never returned after dependent advanced")
			}
		})
	}
}

func TestBlockingWaitStrategyManyWaiters(t *testing.T) {
	ws := NewBlockingWaitStrategy()
	cursor := NewSequence(InitialCursorValue)

	const waiters = 8
	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			if _, err := ws.WaitFor(0, cursor, nil, &testBarrier{}); err != nil {
				t.Errorf("WaitFor() error = %v", err)
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	cursor.Set(0)
	ws.SignalAllWhenBlocking()

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("not all waiters woke up after broadcast")
	}
}
