// Package sequencer implements a bounded ring-buffer sequencer in the style
// of the LMAX Disruptor: producers claim monotonically increasing sequence
// numbers in a preallocated ring, and consumers observe published sequences
// through barriers that wait on the producer cursor and any upstream
// consumer (gating) sequences.
//
// The package owns the coordination protocol only — cursor, gating
// sequences, claim/wait strategies, and barriers. Ring slot storage itself
// is the caller's concern: a sequence number s addresses slot s & (N-1) in
// whatever backing array the caller allocates alongside the Sequencer.
package sequencer
