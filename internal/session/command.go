package session

import (
	"github.com/dshills/vintage/internal/input/mode"
)

// CommandType classifies a command descriptor.
type CommandType string

const (
	// Motion commands move or extend the selection.
	Motion CommandType = "motion"
	// Action commands edit the buffer or otherwise act on it.
	Action CommandType = "action"
)

// Descriptor is a parsed command as produced by the key sequence lookup.
// The resolver consumes descriptors; it never builds them.
type Descriptor struct {
	Type CommandType `yaml:"type"`
	Name string      `yaml:"name"`

	// MotionRequired marks operators that wait for a motion. Actions only.
	MotionRequired bool `yaml:"motion_required,omitempty"`
	// Repeatable marks actions that '.' may repeat. Actions only.
	Repeatable bool `yaml:"repeatable,omitempty"`

	// Input names the parser that collects extra input, if any.
	Input string `yaml:"input,omitempty"`

	// UpdatesXpos makes the caret column sticky after the motion runs.
	UpdatesXpos bool `yaml:"updates_xpos,omitempty"`
	// ScrollIntoView scrolls the primary caret into view after the command.
	ScrollIntoView bool `yaml:"scroll_into_view,omitempty"`
}

// NeedsInput reports whether the descriptor requests a parser.
func (d Descriptor) NeedsInput() bool {
	return d.Input != ""
}

// Repeat kinds.
const (
	// RepeatVi marks a key sequence to feed back through the resolver.
	RepeatVi = "vi"
	// RepeatNative marks a named execution command run directly.
	RepeatNative = "native"
)

// RepeatData is the minimal record needed to repeat the last change.
type RepeatData struct {
	Kind     string        `yaml:"kind"`
	Sequence string        `yaml:"sequence"`
	Mode     mode.Mode     `yaml:"mode"`
	Visual   *VisualRepeat `yaml:"visual,omitempty"`
}

// VisualRepeat is the extent of a visual selection, kept so that a visual
// command can be reapplied over an equivalent extent from normal mode.
type VisualRepeat struct {
	// Lines is the row delta between the selection ends.
	Lines int `yaml:"lines"`
	// Chars is the end column when Lines > 0, otherwise the selection size.
	Chars int `yaml:"chars"`
}
