package sequencer

import "testing"

func TestBatchDescriptorUnallocated(t *testing.T) {
	b := NewBatchDescriptor(3)
	if b.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", b.Size())
	}
	if b.IsAllocated() {
		t.Fatalf("IsAllocated() = true before any claim")
	}
}

func TestBatchDescriptorStartEnd(t *testing.T) {
	b := NewBatchDescriptor(3)
	b.end = 2 // as if Sequencer.NextBatch claimed [0, 2]

	if b.End() != 2 {
		t.Fatalf("End() = %d, want 2", b.End())
	}
	if b.Start() != 0 {
		t.Fatalf("Start() = %d, want 0", b.Start())
	}
	if !b.IsAllocated() {
		t.Fatalf("IsAllocated() = false after claim")
	}
}

func TestBatchDescriptorReset(t *testing.T) {
	b := NewBatchDescriptor(3)
	b.end = 2
	b.Reset()
	if b.IsAllocated() {
		t.Fatalf("IsAllocated() = true after Reset")
	}
}
