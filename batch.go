package sequencer

// BatchDescriptor describes a contiguous range of sequences claimed for a
// single producer batch. An unallocated descriptor has End == unallocated;
// Sequencer.NextBatch fills in End once the range has been claimed.
type BatchDescriptor struct {
	size int64
	end  int64
}

const unallocated = InitialCursorValue - 1

// NewBatchDescriptor returns an unallocated descriptor requesting size
// contiguous sequences. size must be positive; the Sequencer validates it
// against capacity at claim time.
func NewBatchDescriptor(size int64) *BatchDescriptor {
	return &BatchDescriptor{size: size, end: unallocated}
}

// Size returns the requested batch size.
func (b *BatchDescriptor) Size() int64 {
	return b.size
}

// End returns the last sequence in the claimed range. Only meaningful once
// allocated (see IsAllocated).
func (b *BatchDescriptor) End() int64 {
	return b.end
}

// Start returns the first sequence in the claimed range: End - Size + 1.
func (b *BatchDescriptor) Start() int64 {
	return b.end - b.size + 1
}

// IsAllocated reports whether the Sequencer has populated End yet.
func (b *BatchDescriptor) IsAllocated() bool {
	return b.end != unallocated
}

// Reset clears End so the descriptor can be reused for a new claim of the
// same size.
func (b *BatchDescriptor) Reset() {
	b.end = unallocated
}
