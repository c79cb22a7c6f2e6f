package mode

// Mode identifies an editing mode.
// The zero value is not a valid mode; use Unknown for an unset mode.
type Mode string

// Standard mode names.
const (
	Normal          Mode = "mode_normal"
	InternalNormal  Mode = "mode_internal_normal"
	Visual          Mode = "mode_visual"
	VisualLine      Mode = "mode_visual_line"
	VisualBlock     Mode = "mode_visual_block"
	Insert          Mode = "mode_insert"
	Replace         Mode = "mode_replace"
	Select          Mode = "mode_select"
	OperatorPending Mode = "mode_operator_pending"
	Unknown         Mode = "mode_unknown"
)

// All lists every known mode in declaration order.
var All = []Mode{
	Normal,
	InternalNormal,
	Visual,
	VisualLine,
	VisualBlock,
	Insert,
	Replace,
	Select,
	OperatorPending,
	Unknown,
}

// Parse returns the mode named s.
// Unrecognized names map to Unknown with ok set to false.
func Parse(s string) (m Mode, ok bool) {
	for _, candidate := range All {
		if string(candidate) == s {
			return candidate, true
		}
	}
	return Unknown, false
}

// String returns the mode identifier.
func (m Mode) String() string {
	if m == "" {
		return string(Unknown)
	}
	return string(m)
}

// IsVisual reports whether m is one of the visual selection modes.
// Select mode is not a visual mode for command resolution purposes.
func (m Mode) IsVisual() bool {
	switch m {
	case Visual, VisualLine, VisualBlock:
		return true
	}
	return false
}

// IsInsertLike reports whether m accepts text input directly.
func (m Mode) IsInsertLike() bool {
	return m == Insert || m == Replace
}

// IsUserVisible reports whether m may be observed between commands.
// InternalNormal only exists while a compound edit is executing.
func (m Mode) IsUserVisible() bool {
	switch m {
	case InternalNormal, Unknown, "":
		return false
	}
	return true
}

// DisplayName returns the friendly name shown in the status line,
// or an empty string for modes that have none.
func (m Mode) DisplayName() string {
	switch m {
	case Normal:
		return "NORMAL"
	case Visual:
		return "VISUAL"
	case VisualLine:
		return "VISUAL LINE"
	case VisualBlock:
		return "VISUAL BLOCK"
	case Insert:
		return "INSERT"
	case Replace:
		return "REPLACE"
	case Select:
		return "SELECT"
	default:
		return ""
	}
}

// StatusLabel returns the display name wrapped for the status line,
// e.g. "-- VISUAL --".
func (m Mode) StatusLabel() string {
	name := m.DisplayName()
	if name == "" {
		return ""
	}
	return "-- " + name + " --"
}

// Direction is the growth direction of a visual block selection.
type Direction uint8

const (
	// Down is the default direction.
	Down Direction = iota + 1
	// Up indicates the block grows upwards from its anchor.
	Up
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return "unknown"
	}
}

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Down || d == Up
}
