package app

import (
	"sync"

	"github.com/dshills/vintage/internal/view"
)

// maxUndoSteps bounds the history kept per buffer.
const maxUndoSteps = 1000

type undoStep struct {
	text string
	sels []view.Region
}

// undoLog is the edit history of one buffer. While grouping, every edit up
// to the next return to normal mode shares one step.
type undoLog struct {
	mu       sync.Mutex
	steps    []undoStep
	grouping bool
	opened   bool
}

// BeginGrouping implements session.UndoGrouper.
func (u *undoLog) BeginGrouping() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.grouping = true
	u.opened = false
}

// ClearGroupingMarkers implements session.UndoGrouper.
func (u *undoLog) ClearGroupingMarkers() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.grouping = false
	u.opened = false
}

// record saves the buffer before an edit.
func (u *undoLog) record(v *view.Memory) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.grouping {
		if u.opened {
			return
		}
		u.opened = true
	}
	u.steps = append(u.steps, undoStep{text: v.Text(), sels: v.Selections()})
	if len(u.steps) > maxUndoSteps {
		u.steps = u.steps[len(u.steps)-maxUndoSteps:]
	}
}

// undo restores up to count steps and reports how many were undone.
func (u *undoLog) undo(v *view.Memory, count int) int {
	u.mu.Lock()
	defer u.mu.Unlock()

	n := 0
	for ; n < count && len(u.steps) > 0; n++ {
		step := u.steps[len(u.steps)-1]
		u.steps = u.steps[:len(u.steps)-1]
		v.SetText(step.text)
		v.SetSelections(step.sels...)
	}
	return n
}

func (u *undoLog) size() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.steps)
}
