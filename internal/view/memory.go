package view

import (
	"sync"
)

// Memory is an in-memory buffer implementing Query and the editing
// primitives used by the bundled execution commands.
type Memory struct {
	mu sync.RWMutex

	text    []rune
	sels    []Region
	regions map[string][]Region
	shown   []Region
	widget  bool
}

// NewMemory creates a buffer holding text with a caret at offset 0.
func NewMemory(text string) *Memory {
	return &Memory{
		text:    []rune(text),
		sels:    []Region{Point(0)},
		regions: make(map[string][]Region),
	}
}

// NewWidget creates a buffer that reports itself as a non-text input widget.
func NewWidget() *Memory {
	m := NewMemory("")
	m.widget = true
	return m
}

// Text returns the buffer contents.
func (m *Memory) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return string(m.text)
}

// SetText replaces the buffer contents and clamps selections.
func (m *Memory) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = []rune(text)
	for i, r := range m.sels {
		m.sels[i] = Region{A: m.clampLocked(r.A), B: m.clampLocked(r.B)}
	}
}

// Size implements Query.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.text)
}

// Substr returns the text covered by r.
func (m *Memory) Substr(r Region) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, e := m.clampLocked(r.Begin()), m.clampLocked(r.End())
	return string(m.text[b:e])
}

// RowCol implements Query.
func (m *Memory) RowCol(point int) (row, col int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	point = m.clampLocked(point)
	for i := 0; i < point; i++ {
		if m.text[i] == '\n' {
			row++
			col = 0
			continue
		}
		col++
	}
	return row, col
}

// TextPoint implements Query. Columns past the end of a line clamp to the
// line end; rows past the last line clamp to the buffer end.
func (m *Memory) TextPoint(row, col int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := 0
	for r := 0; r < row; r++ {
		for p < len(m.text) && m.text[p] != '\n' {
			p++
		}
		if p >= len(m.text) {
			return len(m.text)
		}
		p++
	}
	for c := 0; c < col && p < len(m.text) && m.text[p] != '\n'; c++ {
		p++
	}
	return p
}

// Line implements Query.
func (m *Memory) Line(point int) Region {
	m.mu.RLock()
	defer m.mu.RUnlock()

	point = m.clampLocked(point)
	begin := point
	for begin > 0 && m.text[begin-1] != '\n' {
		begin--
	}
	end := point
	for end < len(m.text) && m.text[end] != '\n' {
		end++
	}
	return Region{A: begin, B: end}
}

// Selections implements Query.
func (m *Memory) Selections() []Region {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Region, len(m.sels))
	copy(out, m.sels)
	return out
}

// SetSelections replaces the selection set.
func (m *Memory) SetSelections(regions ...Region) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sels = m.sels[:0]
	for _, r := range regions {
		m.sels = append(m.sels, Region{A: m.clampLocked(r.A), B: m.clampLocked(r.B)})
	}
}

// AddRegions implements Query.
func (m *Memory) AddRegions(key string, regions []Region) {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make([]Region, len(regions))
	copy(saved, regions)
	m.regions[key] = saved
}

// Regions returns the named region set.
func (m *Memory) Regions(key string) []Region {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.regions[key]
}

// Show implements Query.
func (m *Memory) Show(r Region) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown = append(m.shown, r)
}

// Shown returns every region passed to Show, oldest first.
func (m *Memory) Shown() []Region {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Region, len(m.shown))
	copy(out, m.shown)
	return out
}

// IsTextBuffer implements Query.
func (m *Memory) IsTextBuffer() bool {
	return !m.widget
}

// Insert inserts s at point and shifts selections after it.
func (m *Memory) Insert(point int, s string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	point = m.clampLocked(point)
	ins := []rune(s)
	text := make([]rune, 0, len(m.text)+len(ins))
	text = append(text, m.text[:point]...)
	text = append(text, ins...)
	text = append(text, m.text[point:]...)
	m.text = text

	shift := func(p int) int {
		if p >= point {
			return p + len(ins)
		}
		return p
	}
	for i, r := range m.sels {
		m.sels[i] = Region{A: shift(r.A), B: shift(r.B)}
	}
}

// Erase removes the text covered by r and collapses selections into the gap.
func (m *Memory) Erase(r Region) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, e := m.clampLocked(r.Begin()), m.clampLocked(r.End())
	removed := string(m.text[b:e])
	m.text = append(m.text[:b:b], m.text[e:]...)

	n := e - b
	shift := func(p int) int {
		switch {
		case p >= e:
			return p - n
		case p > b:
			return b
		default:
			return p
		}
	}
	for i, s := range m.sels {
		m.sels[i] = Region{A: shift(s.A), B: shift(s.B)}
	}
	return removed
}

func (m *Memory) clampLocked(p int) int {
	return max(0, min(p, len(m.text)))
}
