package app

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/vintage/internal/catalog"
	"github.com/dshills/vintage/internal/view"
)

// motionResult is where a motion takes a caret.
type motionResult struct {
	target    int
	linewise  bool
	inclusive bool
}

// resolveMotion computes the effect of inv on a caret at p. ok is false when
// the motion cannot move, such as a failed search.
func resolveMotion(v *view.Memory, p int, inv catalog.Invocation) (motionResult, bool) {
	count := inv.Args.IntOr("count", 1)

	switch inv.Command {
	case "_vi_j":
		return motionResult{target: lineTarget(v, p, count, inv.Args.IntOr("xpos", 0)), linewise: true}, true
	case "_vi_k":
		return motionResult{target: lineTarget(v, p, -count, inv.Args.IntOr("xpos", 0)), linewise: true}, true
	case "_vi_w":
		return motionResult{target: wordTarget(v, p, count)}, true
	case "_vi_dollar":
		return motionResult{target: lineEndTarget(v, p, count)}, true
	case "_vi_find_in_line":
		t, ok := findTarget(v, p, inv.Args.StringOr("char", ""), count)
		return motionResult{target: t, inclusive: true}, ok
	case "_vi_slash":
		t, ok := searchTarget(v, p, inv.Args.StringOr("search_string", ""), count)
		return motionResult{target: t}, ok
	}
	return motionResult{}, false
}

func lastRow(v *view.Memory) int {
	row, _ := v.RowCol(v.Size())
	return row
}

func lineTarget(v *view.Memory, p, delta, xpos int) int {
	row, _ := v.RowCol(p)
	row = max(0, min(row+delta, lastRow(v)))
	return v.TextPoint(row, xpos)
}

func lineEndTarget(v *view.Memory, p, count int) int {
	row, _ := v.RowCol(p)
	row = min(row+count-1, lastRow(v))
	return v.Line(v.TextPoint(row, 0)).End()
}

type charClass int

const (
	classSpace charClass = iota
	classWord
	classPunct
)

func classOf(r rune) charClass {
	switch {
	case unicode.IsSpace(r):
		return classSpace
	case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
		return classWord
	}
	return classPunct
}

// wordTarget moves to the start of the count-th next word.
func wordTarget(v *view.Memory, p, count int) int {
	text := []rune(v.Text())
	for ; count > 0 && p < len(text); count-- {
		if c := classOf(text[p]); c != classSpace {
			for p < len(text) && classOf(text[p]) == c {
				p++
			}
		}
		for p < len(text) && classOf(text[p]) == classSpace {
			p++
		}
	}
	return p
}

// findTarget finds the count-th char after p on the same line.
func findTarget(v *view.Memory, p int, char string, count int) (int, bool) {
	want, size := utf8.DecodeRuneInString(char)
	if size == 0 || size != len(char) {
		return p, false
	}
	line := v.Line(p)
	text := []rune(v.Substr(view.Region{A: p + 1, B: line.End()}))
	for i, r := range text {
		if r == want {
			count--
			if count == 0 {
				return p + 1 + i, true
			}
		}
	}
	return p, false
}

// searchTarget finds the count-th match of pattern after p, wrapping
// around the end of the buffer.
func searchTarget(v *view.Memory, p int, pattern string, count int) (int, bool) {
	if pattern == "" {
		return p, false
	}
	text := v.Text()
	for ; count > 0; count-- {
		next, ok := indexFrom(text, pattern, p+1)
		if !ok {
			if next, ok = indexFrom(text, pattern, 0); !ok {
				return p, false
			}
		}
		p = next
	}
	return p, true
}

// indexFrom returns the rune offset of the first match at or after the
// rune offset from.
func indexFrom(text, pattern string, from int) (int, bool) {
	runes := []rune(text)
	if from > len(runes) {
		return 0, false
	}
	rest := string(runes[from:])
	i := strings.Index(rest, pattern)
	if i < 0 {
		return 0, false
	}
	return from + utf8.RuneCountInString(rest[:i]), true
}

// operatorRegion is the text a motion from p covers for an operator.
func operatorRegion(v *view.Memory, p int, m motionResult) view.Region {
	begin, end := min(p, m.target), max(p, m.target)
	if m.inclusive {
		end++
	}
	if m.linewise {
		return linewise(v, view.Region{A: begin, B: end})
	}
	return view.Region{A: begin, B: min(end, v.Size())}
}

// linewise extends r to whole lines, including the final newline.
func linewise(v *view.Memory, r view.Region) view.Region {
	begin := v.Line(r.Begin()).Begin()
	end := v.Line(r.End()).End()
	if end < v.Size() {
		end++
	}
	return view.Region{A: begin, B: end}
}

// caretFor keeps a normal mode caret on a character.
func caretFor(v *view.Memory, p int) int {
	line := v.Line(p)
	if p >= line.End() && line.End() > line.Begin() {
		return line.End() - 1
	}
	return p
}
