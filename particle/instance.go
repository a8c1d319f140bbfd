package particle

import (
	"slices"
	"unsafe"
)

// Instance binds a component to one parent particle, or to the root
type Instance struct {
	ParentID   ID
	StartDelay float32
}

// InstanceTable stores instances plus their feature data blob
// Blob row i belongs to instance i; both move together on removal
type InstanceTable struct {
	instances []Instance
	stride    int
	words     []uint64
	data      []byte
}

// NewInstanceTable creates a table for a frozen layout
func NewInstanceTable(layout *InstanceLayout) *InstanceTable {
	stride := 0
	if layout != nil {
		Precondition(layout.Frozen(), "NewInstanceTable", "layout not frozen")
		stride = layout.Stride()
	}
	return &InstanceTable{stride: stride}
}

// Len returns the instance count
func (t *InstanceTable) Len() int { return len(t.instances) }

// Stride returns the per-instance blob size
func (t *InstanceTable) Stride() int { return t.stride }

// At returns instance i
func (t *InstanceTable) At(i int) Instance {
	Precondition(i >= 0 && i < len(t.instances), "InstanceTable.At", "index %d out of %d", i, len(t.instances))
	return t.instances[i]
}

// ParentID returns the parent particle of instance i
func (t *InstanceTable) ParentID(i int) ID { return t.At(i).ParentID }

// SetStartDelay overwrites the remaining delay of instance i
func (t *InstanceTable) SetStartDelay(i int, delay float32) {
	Precondition(i >= 0 && i < len(t.instances), "InstanceTable.SetStartDelay", "index %d out of %d", i, len(t.instances))
	t.instances[i].StartDelay = delay
}

// Instances exposes the backing slice for read-only iteration
func (t *InstanceTable) Instances() []Instance { return t.instances }

// Data exposes the raw blob, len() == Len()*Stride()
func (t *InstanceTable) Data() []byte { return t.data[:len(t.instances)*t.stride] }

// Add appends instances with zeroed rows and returns the index of the first one
func (t *InstanceTable) Add(insts ...Instance) int {
	first := len(t.instances)
	t.instances = append(t.instances, insts...)
	t.resizeBlob(len(t.instances))
	clear(t.data[first*t.stride : len(t.instances)*t.stride])
	return first
}

func (t *InstanceTable) resizeBlob(n int) {
	need := (n*t.stride + 7) / 8
	if need > cap(t.words) {
		grown := make([]uint64, need, max(need, 2*cap(t.words)))
		copy(grown, t.words)
		t.words = grown
	}
	t.words = t.words[:need]
	if need == 0 {
		t.data = nil
		return
	}
	t.data = unsafe.Slice((*byte)(unsafe.Pointer(&t.words[0])), need*8)
}

// Remove deletes the given instance indices, compacting instances and rows together
func (t *InstanceTable) Remove(indices []int) int {
	if len(indices) == 0 {
		return 0
	}
	slices.Sort(indices)
	indices = slices.Compact(indices)
	Precondition(indices[0] >= 0 && indices[len(indices)-1] < len(t.instances), "InstanceTable.Remove", "index out of %d", len(t.instances))

	r, w := 0, 0
	for i := range t.instances {
		if r < len(indices) && indices[r] == i {
			r++
			continue
		}
		if w != i {
			t.instances[w] = t.instances[i]
			copy(t.data[w*t.stride:(w+1)*t.stride], t.data[i*t.stride:(i+1)*t.stride])
		}
		w++
	}
	t.instances = t.instances[:w]
	t.resizeBlob(w)
	return len(indices)
}

// RemoveWhere deletes every instance the predicate selects and returns how many went
func (t *InstanceTable) RemoveWhere(pred func(i int, inst Instance) bool) int {
	var drop []int
	for i, inst := range t.instances {
		if pred(i, inst) {
			drop = append(drop, i)
		}
	}
	return t.Remove(drop)
}

// Reparent applies a parent compaction mapping
// Parent ids inside the mapping are rewritten, ids beyond it are left alone,
// and instances whose parent was removed are dropped
func (t *InstanceTable) Reparent(swapIDs []ID) int {
	if len(swapIDs) == 0 {
		return 0
	}
	orphaned := false
	for i := range t.instances {
		p := t.instances[i].ParentID
		if int(p) >= len(swapIDs) {
			continue
		}
		t.instances[i].ParentID = swapIDs[p]
		if swapIDs[p] == InvalidID {
			orphaned = true
		}
	}
	if !orphaned {
		return 0
	}
	return t.RemoveWhere(func(_ int, inst Instance) bool { return inst.ParentID == InvalidID })
}

// Clear drops every instance, keeping storage
func (t *InstanceTable) Clear() {
	t.instances = t.instances[:0]
	t.resizeBlob(0)
}

// InstanceData returns a typed pointer into instance idx's row
// Offset plus size must fit the stride and idx must be a live instance
func InstanceData[T any](t *InstanceTable, idx int, off DataOffset[T]) *T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	Precondition(off.valid, "InstanceData", "offset was not declared")
	Precondition(off.off+size <= t.stride, "InstanceData", "offset %d + size %d exceeds stride %d", off.off, size, t.stride)
	Precondition(idx >= 0 && idx < len(t.instances), "InstanceData", "index %d out of %d", idx, len(t.instances))
	return (*T)(unsafe.Pointer(&t.data[idx*t.stride+off.off]))
}
