package particle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitState struct {
	Accum float32
	Count uint32
}

func newTestLayout() (*InstanceLayout, DataOffset[float32], DataOffset[emitState]) {
	l := NewInstanceLayout()
	a := Declare[float32](l, "rate")
	b := Declare[emitState](l, "burst")
	l.Freeze()
	return l, a, b
}

func TestInstanceLayoutOffsets(t *testing.T) {
	l, a, b := newTestLayout()
	assert.Equal(t, 0, a.Offset())
	assert.Equal(t, 4, b.Offset())
	assert.Equal(t, 16, l.Stride(), "stride rounds to row alignment")
	assert.Len(t, l.Fields(), 2)
	assert.Equal(t, "burst", l.Fields()[1].Owner)

	assert.Panics(t, func() { Declare[int32](l, "late") }, "frozen layout")
	assert.Panics(t, func() { Declare[*int](NewInstanceLayout(), "ptr") }, "pointer type")
	assert.Panics(t, func() { Declare[[]byte](NewInstanceLayout(), "slice") }, "slice type")
}

func TestInstanceDataAccess(t *testing.T) {
	l, a, b := newTestLayout()
	tbl := NewInstanceTable(l)
	first := tbl.Add(Instance{ParentID: 1}, Instance{ParentID: 2})
	assert.Equal(t, 0, first)

	*InstanceData(tbl, 1, a) = 2.5
	InstanceData(tbl, 1, b).Count = 7
	assert.Equal(t, float32(2.5), *InstanceData(tbl, 1, a))
	assert.Equal(t, uint32(7), InstanceData(tbl, 1, b).Count)
	assert.Zero(t, *InstanceData(tbl, 0, a))
	assert.Len(t, tbl.Data(), 2*l.Stride())

	assert.Panics(t, func() { InstanceData(tbl, 2, a) }, "index past count")
	assert.Panics(t, func() { InstanceData(tbl, -1, a) }, "negative index")
	assert.Panics(t, func() { InstanceData(tbl, 0, DataOffset[float32]{}) }, "undeclared offset")

	bad := DataOffset[[4]float32]{off: 8, valid: true}
	assert.Panics(t, func() { InstanceData(tbl, 0, bad) }, "stride overrun")
}

func TestInstanceTableRemoveMovesRows(t *testing.T) {
	l, a, _ := newTestLayout()
	tbl := NewInstanceTable(l)
	tbl.Add(Instance{ParentID: 10}, Instance{ParentID: 11}, Instance{ParentID: 12})
	for i := 0; i < 3; i++ {
		*InstanceData(tbl, i, a) = float32(i)
	}

	removed := tbl.Remove([]int{1})
	assert.Equal(t, 1, removed)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, ID(12), tbl.ParentID(1))
	assert.Equal(t, float32(2), *InstanceData(tbl, 1, a), "row follows its instance")

	tbl.Add(Instance{ParentID: 13})
	assert.Zero(t, *InstanceData(tbl, 2, a), "new rows start zeroed")
}

// Mapped parent ids are rewritten; unmapped ones are unchanged
func TestInstanceTableReparent(t *testing.T) {
	tbl := NewInstanceTable(nil)
	tbl.Add(
		Instance{ParentID: 0},
		Instance{ParentID: 2},
		Instance{ParentID: 3},
		Instance{ParentID: 9},
	)
	swap := []ID{0, InvalidID, 1, 2}

	dropped := tbl.Reparent(swap)
	assert.Zero(t, dropped)
	assert.Equal(t, []Instance{{ParentID: 0}, {ParentID: 1}, {ParentID: 2}, {ParentID: 9}}, tbl.Instances())

	tbl.Add(Instance{ParentID: 1})
	dropped = tbl.Reparent([]ID{0, InvalidID})
	assert.Equal(t, 2, dropped, "instances bound to the removed parent go away")
	for _, inst := range tbl.Instances() {
		assert.NotEqual(t, InvalidID, inst.ParentID)
	}
}

func TestInstanceTableClear(t *testing.T) {
	l, _, _ := newTestLayout()
	tbl := NewInstanceTable(l)
	tbl.Add(Instance{}, Instance{})
	tbl.Clear()
	assert.Zero(t, tbl.Len())
	assert.Empty(t, tbl.Data())
}
