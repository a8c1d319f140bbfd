package particle

import "math"

// ID is a dense index into a Container's columns
type ID uint32

// InvalidID marks a removed particle in swap mappings and orphaned parent references
const InvalidID ID = math.MaxUint32

// Range is a half-open span [Start, End) of particle ids
type Range struct {
	Start, End ID
}

// NewRange returns [start, end)
func NewRange(start, end int) Range {
	return Range{Start: ID(start), End: ID(end)}
}

// Size returns the number of ids in the range
func (r Range) Size() int {
	if r.End <= r.Start {
		return 0
	}
	return int(r.End - r.Start)
}

// Empty reports whether the range holds no ids
func (r Range) Empty() bool { return r.End <= r.Start }

// Contains reports whether id lies inside the range
func (r Range) Contains(id ID) bool { return id >= r.Start && id < r.End }

// GroupRange is a Range widened to lane-aligned boundaries for vectorized features
// Lanes beyond the source range must be masked by the caller
type GroupRange struct {
	Start, End ID
	Source     Range
}

// Groups aligns the range outward to multiples of lanes
func (r Range) Groups(lanes int) GroupRange {
	l := ID(lanes)
	if l == 0 {
		l = 1
	}
	start := r.Start / l * l
	end := (r.End + l - 1) / l * l
	return GroupRange{Start: start, End: end, Source: r}
}

// Count returns the number of lane groups
func (g GroupRange) Count(lanes int) int {
	if lanes <= 0 || g.End <= g.Start {
		return 0
	}
	return int(g.End-g.Start) / lanes
}

// Sub slices a full column to the range
func Sub[T any](col []T, r Range) []T {
	Precondition(int(r.End) <= len(col) && r.Start <= r.End, "Sub", "range [%d,%d) outside column of %d", r.Start, r.End, len(col))
	return col[r.Start:r.End]
}

// Domain names a data subset with its own size query
type Domain uint8

const (
	DomainParticle Domain = iota
	DomainSpawned
	DomainInstance
	DomainParentParticle
)

var domainNames = [...]string{"particle", "spawned", "instance", "parent"}

func (d Domain) String() string {
	if int(d) < len(domainNames) {
		return domainNames[d]
	}
	return "unknown"
}

// SpawnEntry asks for Count particles bound to one instance
// Delay is how far into the frame, in seconds, the first particle is born; each following
// particle is born DelayStep later. Zero means born at frame start.
type SpawnEntry struct {
	Instance  uint32
	ParentID  ID
	Count     uint32
	Delay     float32
	DelayStep float32
}

// State flags stored in the State column
const (
	StateNew  uint8 = 1 << iota // spawned this frame
	StateDead                   // scheduled for removal on the next remove pass
)
