package sequencer

import "fmt"

// ErrInvalidCapacity occurs when a Sequencer is constructed with a capacity
// that is zero or not a power of two.
var ErrInvalidCapacity = fmt.Errorf("sequencer: capacity must be a power of two and > 0")

// ErrInvalidArgument occurs when an operation is called with an argument
// that violates a documented precondition (a batch larger than the ring,
// a negative size, a nil gating set, gating sequences replaced after
// claiming has begun).
var ErrInvalidArgument = fmt.Errorf("sequencer: invalid argument")

// ErrAlerted occurs when a barrier wait is interrupted by Alert. It is
// recoverable: the waiter may ClearAlert and retry.
var ErrAlerted = fmt.Errorf("sequencer: barrier alerted")

// ErrTimeout is reserved for timed barrier-wait variants. No timed WaitFor
// is exposed in this build; the error is declared so callers and future
// timed strategies share one sentinel.
var ErrTimeout = fmt.Errorf("sequencer: timed out waiting for sequence")
