package particle

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	minClassShift = 4 // 16 elements
	numClasses    = 28
)

// classPool recycles slices by power-of-two capacity class
type classPool[T any] struct {
	classes [numClasses]sync.Pool
}

func classOf(n int) int {
	if n <= 1<<minClassShift {
		return 0
	}
	return bits.Len(uint(n-1)) - minClassShift
}

// Heap is the particle-system-wide allocator for column and scratch memory
// Safe for concurrent use; runtimes on different workers share one Heap
type Heap struct {
	f32 classPool[float32]
	v3  classPool[mgl32.Vec3]
	q   classPool[mgl32.Quat]
	u32 classPool[uint32]
	ids classPool[ID]
	u8  classPool[uint8]

	allocs atomic.Int64
	reuses atomic.Int64
}

// NewHeap creates an empty heap
func NewHeap() *Heap {
	return &Heap{}
}

// HeapStats reports allocation activity
type HeapStats struct {
	Allocs int64
	Reuses int64
}

// Stats returns cumulative allocation counters
func (h *Heap) Stats() HeapStats {
	return HeapStats{Allocs: h.allocs.Load(), Reuses: h.reuses.Load()}
}

func acquire[T any](h *Heap, p *classPool[T], n int) []T {
	c := classOf(n)
	Precondition(c < numClasses, "Heap.acquire", "request of %d elements exceeds largest class", n)
	if v := p.classes[c].Get(); v != nil {
		h.reuses.Add(1)
		return (*v.(*[]T))[:0]
	}
	h.allocs.Add(1)
	return make([]T, 0, 1<<(c+minClassShift))
}

func release[T any](p *classPool[T], s []T) {
	if cap(s) == 0 {
		return
	}
	c := classOf(cap(s))
	// Only exact class capacities come back; foreign slices are left to the GC
	if c >= numClasses || cap(s) != 1<<(c+minClassShift) {
		return
	}
	s = s[:0]
	p.classes[c].Put(&s)
}

// resize returns s with length n, reallocating through the heap when capacity is short
// New elements are zeroed
func resize[T any](h *Heap, p *classPool[T], s []T, n int) []T {
	if n <= cap(s) {
		old := len(s)
		s = s[:n]
		if n > old {
			clear(s[old:])
		}
		return s
	}
	grown := acquire(h, p, n)[:n]
	copy(grown, s)
	clear(grown[len(s):])
	release(p, s)
	return grown
}

// Float32s returns a zeroed scratch slice of length n; give it back with ReleaseFloat32s
func (h *Heap) Float32s(n int) []float32 {
	s := acquire(h, &h.f32, n)[:n]
	clear(s)
	return s
}

// ReleaseFloat32s returns scratch memory to the heap
func (h *Heap) ReleaseFloat32s(s []float32) { release(&h.f32, s) }

// IDs returns a zero-length scratch id slice with capacity for n
func (h *Heap) IDs(n int) []ID { return acquire(h, &h.ids, n) }

// ReleaseIDs returns scratch ids to the heap
func (h *Heap) ReleaseIDs(s []ID) { release(&h.ids, s) }
