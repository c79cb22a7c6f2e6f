package session

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/dshills/vintage/internal/input/mode"
)

// Field keys.
const (
	KeyAction               = "action"
	KeyMotion               = "motion"
	KeyActionCount          = "action_count"
	KeyMotionCount          = "motion_count"
	KeySequence             = "sequence"
	KeyPartialSequence      = "partial_sequence"
	KeyRegister             = "register"
	KeyCaptureRegister      = "capture_register"
	KeyUserInput            = "user_input"
	KeyInputParsers         = "input_parsers"
	KeyXpos                 = "xpos"
	KeyVisualBlockDirection = "visual_block_direction"
	KeyMode                 = "mode"
	KeyNormalInsertCount    = "normal_insert_count"

	KeyLastCharacterSearch        = "last_character_search"
	KeyLastCharacterSearchForward = "last_character_search_forward"
	KeyLastBufferSearch           = "last_buffer_search"
	KeyLastMacro                  = "last_macro"
	KeyRecordingMacro             = "recording_macro"
	KeyRepeatData                 = "repeat_data"

	KeyGlueUntilNormalMode = "glue_until_normal_mode"
	KeyGluingSequence      = "gluing_sequence"
	KeyNonInteractive      = "non_interactive"
	KeyResetDuringInit     = "reset_during_init"
)

// DefaultRegister is the unnamed register.
const DefaultRegister = `"`

// Scope selects the store a field lives in.
type Scope uint8

const (
	// ViewScope fields belong to a single buffer.
	ViewScope Scope = iota
	// WindowScope fields are shared by every buffer in a window.
	WindowScope
)

// String returns the scope name.
func (s Scope) String() string {
	if s == WindowScope {
		return "window"
	}
	return "view"
}

// FieldType is the value type of a field.
type FieldType uint8

const (
	TypeString FieldType = iota
	TypeBool
	TypeInt
	TypeMode
	TypeDirection
	TypeDescriptor
	TypeStrings
	TypeRepeat
)

// Field describes one session state field.
type Field struct {
	Key   string
	Scope Scope
	Type  FieldType

	// Default is returned when the field is absent.
	Default any

	// Volatile fields are reset at session start and never persisted.
	Volatile bool

	Description string
}

// Validate checks that value can be stored in the field.
func (f *Field) Validate(value any) error {
	switch f.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		if f.Key == KeyRegister && utf8.RuneCountInString(s) != 1 {
			return fmt.Errorf("register must be a single character, got %q", s)
		}
	case TypeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case TypeInt:
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("expected integer, got %T", value)
		}
		if n < 0 {
			return fmt.Errorf("value %d is less than minimum 0", n)
		}
	case TypeMode:
		var s string
		switch v := value.(type) {
		case mode.Mode:
			s = string(v)
		case string:
			s = v
		default:
			return fmt.Errorf("expected mode, got %T", value)
		}
		if _, ok := mode.Parse(s); !ok {
			return fmt.Errorf("unknown mode %q", s)
		}
	case TypeDirection:
		var d mode.Direction
		switch v := value.(type) {
		case mode.Direction:
			d = v
		case int:
			d = mode.Direction(v)
		default:
			return fmt.Errorf("expected direction, got %T", value)
		}
		if !d.Valid() {
			return fmt.Errorf("invalid direction %d", d)
		}
	case TypeDescriptor:
		switch value.(type) {
		case Descriptor, *Descriptor:
		default:
			return fmt.Errorf("expected command descriptor, got %T", value)
		}
	case TypeStrings:
		if _, ok := value.([]string); !ok {
			return fmt.Errorf("expected list of strings, got %T", value)
		}
	case TypeRepeat:
		switch value.(type) {
		case RepeatData, *RepeatData:
		default:
			return fmt.Errorf("expected repeat data, got %T", value)
		}
	}
	return nil
}

var fields = map[string]*Field{}

func define(f Field) {
	fields[f.Key] = &f
}

func init() {
	define(Field{Key: KeyAction, Scope: ViewScope, Type: TypeDescriptor,
		Description: "Pending action"})
	define(Field{Key: KeyMotion, Scope: ViewScope, Type: TypeDescriptor,
		Description: "Pending motion"})
	define(Field{Key: KeyActionCount, Scope: ViewScope, Type: TypeString, Default: "",
		Description: "Count typed before the action"})
	define(Field{Key: KeyMotionCount, Scope: ViewScope, Type: TypeString, Default: "",
		Description: "Count typed before the motion"})
	define(Field{Key: KeySequence, Scope: ViewScope, Type: TypeString, Default: "",
		Description: "Full key sequence of the command being built"})
	define(Field{Key: KeyPartialSequence, Scope: ViewScope, Type: TypeString, Default: "",
		Description: "Keys not yet resolved to a command"})
	define(Field{Key: KeyRegister, Scope: ViewScope, Type: TypeString, Default: DefaultRegister,
		Description: "Register requested by the user"})
	define(Field{Key: KeyCaptureRegister, Scope: ViewScope, Type: TypeBool, Default: false,
		Description: "Next key names a register"})
	define(Field{Key: KeyUserInput, Scope: ViewScope, Type: TypeString, Default: "",
		Description: "Input collected for the current parser"})
	define(Field{Key: KeyInputParsers, Scope: ViewScope, Type: TypeStrings, Default: []string{},
		Description: "Outstanding input parsers, innermost last"})
	define(Field{Key: KeyXpos, Scope: ViewScope, Type: TypeInt, Default: 0,
		Description: "Sticky caret column"})
	define(Field{Key: KeyVisualBlockDirection, Scope: ViewScope, Type: TypeDirection, Default: mode.Down,
		Description: "Growth direction of the visual block"})
	define(Field{Key: KeyMode, Scope: ViewScope, Type: TypeMode, Default: mode.Unknown,
		Description: "Current mode"})
	define(Field{Key: KeyNormalInsertCount, Scope: ViewScope, Type: TypeString, Default: "1",
		Description: "Count applied to text typed after an insert command"})

	define(Field{Key: KeyLastCharacterSearch, Scope: WindowScope, Type: TypeString, Default: "",
		Description: "Target of the last f/t/F/T search"})
	define(Field{Key: KeyLastCharacterSearchForward, Scope: WindowScope, Type: TypeBool, Default: false,
		Description: "Direction of the last character search"})
	define(Field{Key: KeyLastBufferSearch, Scope: WindowScope, Type: TypeString, Default: "",
		Description: "Pattern of the last / or ? search"})
	define(Field{Key: KeyLastMacro, Scope: WindowScope, Type: TypeString, Default: "",
		Description: "Register of the last played or recorded macro"})
	define(Field{Key: KeyRecordingMacro, Scope: WindowScope, Type: TypeBool, Default: false,
		Description: "A macro is being recorded"})
	define(Field{Key: KeyRepeatData, Scope: WindowScope, Type: TypeRepeat,
		Description: "Last repeatable command"})

	define(Field{Key: KeyGlueUntilNormalMode, Scope: ViewScope, Type: TypeBool, Default: false, Volatile: true,
		Description: "Group edits into one undo step until normal mode"})
	define(Field{Key: KeyGluingSequence, Scope: ViewScope, Type: TypeBool, Default: false, Volatile: true,
		Description: "A longer key sequence is already being glued"})
	define(Field{Key: KeyNonInteractive, Scope: ViewScope, Type: TypeBool, Default: false, Volatile: true,
		Description: "Commands are replayed rather than typed"})
	define(Field{Key: KeyResetDuringInit, Scope: WindowScope, Type: TypeBool, Default: true, Volatile: true,
		Description: "Bootstrap may reset the command state"})
}

// LookupField returns the field registered under key.
func LookupField(key string) (*Field, bool) {
	f, ok := fields[key]
	return f, ok
}

// Fields returns every field sorted by key.
func Fields() []*Field {
	out := make([]*Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}

// VolatileKeys returns the keys of volatile fields in scope.
// File-backed stores mark these transient.
func VolatileKeys(scope Scope) []string {
	var keys []string
	for _, f := range Fields() {
		if f.Volatile && f.Scope == scope {
			keys = append(keys, f.Key)
		}
	}
	return keys
}
