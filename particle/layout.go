package particle

import (
	"reflect"
	"unsafe"
)

const rowAlign = 8

// InstanceField records one feature's slice of the per-instance blob
type InstanceField struct {
	Owner  string
	Offset int
	Size   int
	Type   reflect.Type
}

// InstanceLayout maps features to (offset, type, size) inside each instance row
// Declared while compiling an effect, frozen before any runtime uses it
type InstanceLayout struct {
	fields []InstanceField
	stride int
	frozen bool
}

// NewInstanceLayout returns an empty layout
func NewInstanceLayout() *InstanceLayout {
	return &InstanceLayout{}
}

// DataOffset is a typed, validated position inside an instance row
type DataOffset[T any] struct {
	off   int
	valid bool
}

// Offset returns the byte offset
func (d DataOffset[T]) Offset() int { return d.off }

// Valid reports whether the offset was produced by Declare
func (d DataOffset[T]) Valid() bool { return d.valid }

// Declare reserves room for a T in every instance row
// T must be free of pointers since the blob is raw memory
func Declare[T any](l *InstanceLayout, owner string) DataOffset[T] {
	Precondition(!l.frozen, "Declare", "layout frozen, %s declared too late", owner)
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	Precondition(pointerFree(t), "Declare", "%s: type %s holds pointers", owner, t)

	size := int(unsafe.Sizeof(zero))
	align := int(unsafe.Alignof(zero))
	off := alignUp(l.stride, align)
	l.stride = off + size
	l.fields = append(l.fields, InstanceField{Owner: owner, Offset: off, Size: size, Type: t})
	return DataOffset[T]{off: off, valid: true}
}

// Freeze rounds the stride to row alignment and stops declarations
func (l *InstanceLayout) Freeze() {
	if l.frozen {
		return
	}
	l.stride = alignUp(l.stride, rowAlign)
	l.frozen = true
}

// Frozen reports whether declarations are closed
func (l *InstanceLayout) Frozen() bool { return l.frozen }

// Stride returns the row size in bytes
func (l *InstanceLayout) Stride() int { return l.stride }

// Fields lists declarations in order
func (l *InstanceLayout) Fields() []InstanceField { return l.fields }

func alignUp(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) / a * a
}

func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return pointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	}
	return false
}
