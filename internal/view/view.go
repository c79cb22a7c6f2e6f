// Package view defines the read surface of a text buffer that the command
// resolver depends on, plus an in-memory implementation.
//
// Offsets are rune offsets into the buffer text. A Region spans from its
// anchor A to its caret B; either may be the larger offset.
package view

// Region is a selection or marked span of text.
type Region struct {
	A int `yaml:"a"`
	B int `yaml:"b"`
}

// Point returns an empty region at offset p.
func Point(p int) Region {
	return Region{A: p, B: p}
}

// Begin returns the smaller offset.
func (r Region) Begin() int {
	return min(r.A, r.B)
}

// End returns the larger offset.
func (r Region) End() int {
	return max(r.A, r.B)
}

// Size returns the number of runes covered.
func (r Region) Size() int {
	return r.End() - r.Begin()
}

// Empty reports whether the region covers no text.
func (r Region) Empty() bool {
	return r.A == r.B
}

// Contains reports whether p lies within the region, inclusive of both ends.
func (r Region) Contains(p int) bool {
	return p >= r.Begin() && p <= r.End()
}

// Query is the buffer surface consumed by the resolver and session bootstrap.
type Query interface {
	// RowCol translates an offset into a zero-based row and column.
	RowCol(point int) (row, col int)

	// TextPoint translates a row and column into an offset.
	TextPoint(row, col int) int

	// Line returns the region of the line containing point, without its newline.
	Line(point int) Region

	// Size returns the length of the buffer text.
	Size() int

	// Selections returns the current selection set. The first entry is primary.
	Selections() []Region

	// AddRegions stores a named region set for later restoration.
	AddRegions(key string, regions []Region)

	// Show scrolls the region into view.
	Show(r Region)

	// IsTextBuffer reports whether this is a genuine document rather than a
	// transient input widget.
	IsTextBuffer() bool
}

// Primary returns the first selection.
func Primary(q Query) (Region, bool) {
	sels := q.Selections()
	if len(sels) == 0 {
		return Region{}, false
	}
	return sels[0], true
}

// HasNonEmptySelection reports whether any selection covers text.
func HasNonEmptySelection(q Query) bool {
	for _, r := range q.Selections() {
		if !r.Empty() {
			return true
		}
	}
	return false
}
