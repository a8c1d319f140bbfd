package particle

import "fmt"

// Kind is the element type of a column
type Kind uint8

const (
	KindNone Kind = iota
	KindFloat
	KindVec3
	KindQuat
	KindUint32
	KindID
	KindUint8
)

var kindNames = [...]string{"none", "float", "vec3", "quat", "uint32", "id", "uint8"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// DataType identifies a particle column
type DataType uint16

// Built-in columns
const (
	Position DataType = iota
	Velocity
	Orientation
	NormalAge
	InvLifetime
	Size
	Alpha
	Color
	ParentID
	SpawnID
	State
	builtinCount
)

// DataTypeInfo describes one column
type DataTypeInfo struct {
	Name string
	Kind Kind
}

var builtinInfo = [builtinCount]DataTypeInfo{
	Position:    {"position", KindVec3},
	Velocity:    {"velocity", KindVec3},
	Orientation: {"orientation", KindQuat},
	NormalAge:   {"normal_age", KindFloat},
	InvLifetime: {"inv_lifetime", KindFloat},
	Size:        {"size", KindFloat},
	Alpha:       {"alpha", KindFloat},
	Color:       {"color", KindUint32},
	ParentID:    {"parent_id", KindID},
	SpawnID:     {"spawn_id", KindUint32},
	State:       {"state", KindUint8},
}

func (t DataType) String() string {
	if t < builtinCount {
		return builtinInfo[t].Name
	}
	return fmt.Sprintf("custom(%d)", uint16(t))
}

// Schema is the set of columns a component uses
// Built during effect compilation and read-only afterwards
type Schema struct {
	infos  []DataTypeInfo
	used   []bool
	frozen bool
}

// NewSchema returns a schema holding the columns every runtime needs
func NewSchema() *Schema {
	s := &Schema{
		infos: append([]DataTypeInfo(nil), builtinInfo[:]...),
		used:  make([]bool, builtinCount),
	}
	s.Use(NormalAge, InvLifetime, ParentID, SpawnID, State)
	return s
}

// Use marks columns as required
func (s *Schema) Use(types ...DataType) {
	Precondition(!s.frozen, "Schema.Use", "schema is frozen")
	for _, t := range types {
		Precondition(int(t) < len(s.infos), "Schema.Use", "unknown data type %d", t)
		s.used[t] = true
	}
}

// Custom registers a feature-owned column; registering the same name twice returns the same type
func (s *Schema) Custom(name string, kind Kind) DataType {
	Precondition(!s.frozen, "Schema.Custom", "schema is frozen")
	Precondition(kind != KindNone, "Schema.Custom", "column %q needs a kind", name)
	for i, info := range s.infos {
		if info.Name == name {
			Precondition(info.Kind == kind, "Schema.Custom", "column %q redeclared as %s, was %s", name, kind, info.Kind)
			s.used[i] = true
			return DataType(i)
		}
	}
	s.infos = append(s.infos, DataTypeInfo{Name: name, Kind: kind})
	s.used = append(s.used, true)
	return DataType(len(s.infos) - 1)
}

// RegisterFloat registers a custom float column
func (s *Schema) RegisterFloat(name string) DataType { return s.Custom(name, KindFloat) }

// Freeze stops further registration
func (s *Schema) Freeze() { s.frozen = true }

// Has reports whether a column is in use
func (s *Schema) Has(t DataType) bool {
	return int(t) < len(s.used) && s.used[t]
}

// Info returns the column description
func (s *Schema) Info(t DataType) DataTypeInfo {
	Precondition(int(t) < len(s.infos), "Schema.Info", "unknown data type %d", t)
	return s.infos[t]
}

// Lookup finds a column by name
func (s *Schema) Lookup(name string) (DataType, bool) {
	for i, info := range s.infos {
		if info.Name == name && s.used[i] {
			return DataType(i), true
		}
	}
	return 0, false
}

// Types lists the used columns in id order
func (s *Schema) Types() []DataType {
	out := make([]DataType, 0, len(s.used))
	for i, u := range s.used {
		if u {
			out = append(out, DataType(i))
		}
	}
	return out
}

// Len returns the number of known column ids, used or not
func (s *Schema) Len() int { return len(s.infos) }
