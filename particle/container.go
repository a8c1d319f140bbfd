package particle

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// column holds the data of one DataType; exactly one slice matches kind
type column struct {
	kind Kind
	f32  []float32
	v3   []mgl32.Vec3
	q    []mgl32.Quat
	u32  []uint32
	ids  []ID
	u8   []uint8
}

func (c *column) resize(h *Heap, n int) {
	switch c.kind {
	case KindFloat:
		c.f32 = resize(h, &h.f32, c.f32, n)
	case KindVec3:
		c.v3 = resize(h, &h.v3, c.v3, n)
	case KindQuat:
		c.q = resize(h, &h.q, c.q, n)
	case KindUint32:
		c.u32 = resize(h, &h.u32, c.u32, n)
	case KindID:
		c.ids = resize(h, &h.ids, c.ids, n)
	case KindUint8:
		c.u8 = resize(h, &h.u8, c.u8, n)
	}
}

func (c *column) reserve(h *Heap, n int) {
	l := c.len()
	if n <= l {
		return
	}
	c.resize(h, n)
	c.resize(h, l)
}

func (c *column) move(dst, src int) {
	switch c.kind {
	case KindFloat:
		c.f32[dst] = c.f32[src]
	case KindVec3:
		c.v3[dst] = c.v3[src]
	case KindQuat:
		c.q[dst] = c.q[src]
	case KindUint32:
		c.u32[dst] = c.u32[src]
	case KindID:
		c.ids[dst] = c.ids[src]
	case KindUint8:
		c.u8[dst] = c.u8[src]
	}
}

func (c *column) len() int {
	switch c.kind {
	case KindFloat:
		return len(c.f32)
	case KindVec3:
		return len(c.v3)
	case KindQuat:
		return len(c.q)
	case KindUint32:
		return len(c.u32)
	case KindID:
		return len(c.ids)
	case KindUint8:
		return len(c.u8)
	}
	return 0
}

func (c *column) free(h *Heap) {
	release(&h.f32, c.f32)
	release(&h.v3, c.v3)
	release(&h.q, c.q)
	release(&h.u32, c.u32)
	release(&h.ids, c.ids)
	release(&h.u8, c.u8)
	*c = column{kind: c.kind}
}

// Container is columnar storage of one runtime's particles
// All used columns always have length Count()
type Container struct {
	heap   *Heap
	schema *Schema
	cols   []column
	used   []DataType

	count     int
	spawned   Range
	spawnAges []float32
	serial    uint32
}

// NewContainer allocates empty columns for every type the schema uses
func NewContainer(heap *Heap, schema *Schema) *Container {
	if heap == nil {
		heap = NewHeap()
	}
	c := &Container{
		heap:   heap,
		schema: schema,
		cols:   make([]column, schema.Len()),
		used:   schema.Types(),
	}
	for _, t := range c.used {
		c.cols[t].kind = schema.Info(t).Kind
	}
	return c
}

// Schema returns the column set
func (c *Container) Schema() *Schema { return c.schema }

// Count returns the number of live particles
func (c *Container) Count() int { return c.count }

// Has reports whether a column is stored
func (c *Container) Has(t DataType) bool {
	return int(t) < len(c.cols) && c.cols[t].kind != KindNone
}

// FullRange returns every live particle
func (c *Container) FullRange() Range { return NewRange(0, c.count) }

// SpawnedRange returns the particles appended since ResetSpawned
func (c *Container) SpawnedRange() Range { return c.spawned }

// SpawnAges returns the frame-start age in seconds of each spawned particle, aligned with SpawnedRange
// Particles born during the frame have a negative age
func (c *Container) SpawnAges() []float32 { return c.spawnAges }

// ResetSpawned clears the spawned range and New flags, called at frame start
func (c *Container) ResetSpawned() {
	if c.Has(State) {
		st := c.cols[State].u8
		for i := c.spawned.Start; i < c.spawned.End; i++ {
			st[i] &^= StateNew
		}
	}
	c.spawned = NewRange(c.count, c.count)
	c.heap.ReleaseFloat32s(c.spawnAges)
	c.spawnAges = nil
}

// Reserve grows column capacity to hold n particles without reallocation
func (c *Container) Reserve(n int) {
	for _, t := range c.used {
		c.cols[t].reserve(c.heap, n)
	}
}

// Capacity returns the smallest column capacity
func (c *Container) Capacity() int {
	capacity := -1
	for _, t := range c.used {
		col := &c.cols[t]
		var cp int
		switch col.kind {
		case KindFloat:
			cp = cap(col.f32)
		case KindVec3:
			cp = cap(col.v3)
		case KindQuat:
			cp = cap(col.q)
		case KindUint32:
			cp = cap(col.u32)
		case KindID:
			cp = cap(col.ids)
		case KindUint8:
			cp = cap(col.u8)
		}
		if capacity < 0 || cp < capacity {
			capacity = cp
		}
	}
	if capacity < 0 {
		return 0
	}
	return capacity
}

// AddParticles appends the requested particles and returns their range
// New rows are zeroed; parent, serial, state and orientation are filled in
func (c *Container) AddParticles(entries []SpawnEntry) Range {
	total := 0
	for _, e := range entries {
		total += int(e.Count)
	}
	if total == 0 {
		return NewRange(c.count, c.count)
	}

	first := c.count
	c.count += total
	for _, t := range c.used {
		c.cols[t].resize(c.heap, c.count)
	}

	ages := c.heap.Float32s(c.spawned.Size() + total)
	copy(ages, c.spawnAges)
	tail := ages[c.spawned.Size():]
	c.heap.ReleaseFloat32s(c.spawnAges)

	id := first
	k := 0
	for _, e := range entries {
		for j := uint32(0); j < e.Count; j++ {
			// Negative: the frame's age update brings it to the time lived since birth
			tail[k] = -(e.Delay + float32(j)*e.DelayStep)
			if c.Has(ParentID) {
				c.cols[ParentID].ids[id] = e.ParentID
			}
			if c.Has(SpawnID) {
				c.cols[SpawnID].u32[id] = c.serial
			}
			c.serial++
			if c.Has(State) {
				c.cols[State].u8[id] = StateNew
			}
			if c.Has(Orientation) {
				c.cols[Orientation].q[id] = mgl32.QuatIdent()
			}
			id++
			k++
		}
	}

	if c.spawned.Empty() {
		c.spawned = NewRange(first, c.count)
	} else {
		c.spawned.End = ID(c.count)
	}
	c.spawnAges = ages
	return NewRange(first, c.count)
}

// MarkDead schedules a particle for the next RemoveParticles pass
func (c *Container) MarkDead(id ID) {
	Precondition(int(id) < c.count, "Container.MarkDead", "id %d out of %d", id, c.count)
	c.cols[State].u8[id] |= StateDead
}

// IsDead reports whether a particle is scheduled for removal
func (c *Container) IsDead(id ID) bool {
	Precondition(int(id) < c.count, "Container.IsDead", "id %d out of %d", id, c.count)
	return c.cols[State].u8[id]&StateDead != 0
}

// CollectDead appends ids marked dead in ascending order
func (c *Container) CollectDead(out []ID) []ID {
	st := c.cols[State].u8
	for i := 0; i < c.count; i++ {
		if st[i]&StateDead != 0 {
			out = append(out, ID(i))
		}
	}
	return out
}

// RemoveParticles compacts out the given ids keeping survivor order
// swapIDs is reused for the old->new mapping, InvalidID for removed ids
func (c *Container) RemoveParticles(toRemove []ID, swapIDs []ID) []ID {
	swapIDs = swapIDs[:0]
	if len(toRemove) == 0 {
		return swapIDs
	}
	if !slices.IsSorted(toRemove) {
		slices.Sort(toRemove)
	}
	toRemove = slices.Compact(toRemove)
	Precondition(int(toRemove[len(toRemove)-1]) < c.count, "Container.RemoveParticles", "id %d out of %d", toRemove[len(toRemove)-1], c.count)

	swapIDs = slices.Grow(swapIDs, c.count)[:c.count]
	spawnStart := int(c.spawned.Start)
	if c.spawned.Empty() {
		spawnStart = c.count
	}
	newSpawnStart := -1
	r, w, k := 0, 0, 0
	for id := 0; id < c.count; id++ {
		if r < len(toRemove) && int(toRemove[r]) == id {
			swapIDs[id] = InvalidID
			r++
			continue
		}
		swapIDs[id] = ID(w)
		if w != id {
			for _, t := range c.used {
				c.cols[t].move(w, id)
			}
		}
		if id >= spawnStart {
			if newSpawnStart < 0 {
				newSpawnStart = w
			}
			if c.spawnAges != nil {
				c.spawnAges[k] = c.spawnAges[id-spawnStart]
			}
			k++
		}
		w++
	}

	c.count = w
	for _, t := range c.used {
		c.cols[t].resize(c.heap, w)
	}
	if newSpawnStart < 0 {
		newSpawnStart = w
	}
	c.spawned = NewRange(newSpawnStart, w)
	if c.spawnAges != nil {
		c.spawnAges = c.spawnAges[:k]
	}
	return swapIDs
}

// Clear drops every particle, keeping buffers for reuse
func (c *Container) Clear() {
	c.count = 0
	for _, t := range c.used {
		c.cols[t].resize(c.heap, 0)
	}
	c.spawned = Range{}
	c.heap.ReleaseFloat32s(c.spawnAges)
	c.spawnAges = nil
}

// Release returns every column buffer to the heap
func (c *Container) Release() {
	c.Clear()
	for _, t := range c.used {
		c.cols[t].free(c.heap)
	}
}

func (c *Container) column(t DataType, kind Kind, op string) *column {
	Precondition(c.Has(t), op, "column %s not in schema", t)
	col := &c.cols[t]
	Precondition(col.kind == kind, op, "column %s is %s, not %s", t, col.kind, kind)
	return col
}

// Float returns the live float column
func (c *Container) Float(t DataType) []float32 {
	return c.column(t, KindFloat, "Container.Float").f32
}

// Vec3 returns the live vector column
func (c *Container) Vec3(t DataType) []mgl32.Vec3 {
	return c.column(t, KindVec3, "Container.Vec3").v3
}

// Quat returns the live quaternion column
func (c *Container) Quat(t DataType) []mgl32.Quat {
	return c.column(t, KindQuat, "Container.Quat").q
}

// Uint32 returns the live uint32 column
func (c *Container) Uint32(t DataType) []uint32 {
	return c.column(t, KindUint32, "Container.Uint32").u32
}

// IDs returns the live particle-id column
func (c *Container) IDs(t DataType) []ID {
	return c.column(t, KindID, "Container.IDs").ids
}

// Bytes returns the live uint8 column
func (c *Container) Bytes(t DataType) []uint8 {
	return c.column(t, KindUint8, "Container.Bytes").u8
}

// ColumnLen returns the stored length of a column, for invariant checks
func (c *Container) ColumnLen(t DataType) int {
	if !c.Has(t) {
		return 0
	}
	return c.cols[t].len()
}
