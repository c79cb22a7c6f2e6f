// Package parser provides the registry of input parsers.
//
// Some commands need more input than their key sequence: a target character
// for f, a register name for q, a pattern for /. Such a command names a
// parser in its descriptor. The resolver pushes that parser onto the session
// and suspends the command until the parser produces a value.
//
// Immediate parsers are fed one key at a time by the key pipeline until
// Validate accepts the collected input. Panel parsers ask the host to open
// an input panel and receive the whole value at once when it closes.
package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Delivery describes how a parser receives its input.
type Delivery uint8

const (
	// Immediate parsers receive keys as they are typed.
	Immediate Delivery = iota

	// ViaPanel parsers receive a complete value from an input panel.
	ViaPanel
)

// String returns a string representation of the delivery mode.
func (d Delivery) String() string {
	switch d {
	case Immediate:
		return "immediate"
	case ViaPanel:
		return "via_panel"
	default:
		return "unknown"
	}
}

// Built-in parser names.
const (
	OneChar      = "one_char"
	RegisterName = "register"
	MacroRecord  = "vi_q"
	MacroPlay    = "vi_at"
	SearchFwd    = "vi_slash"
	SearchBwd    = "vi_question"
)

// Registry errors.
var (
	// ErrInvalidParser indicates a parser definition is incomplete.
	ErrInvalidParser = errors.New("parser: invalid parser")

	// ErrDuplicateParser indicates a parser name is already registered.
	ErrDuplicateParser = errors.New("parser: duplicate parser")
)

// Parser collects secondary input for a command.
type Parser struct {
	// Name identifies the parser in command descriptors.
	Name string

	// Delivery selects between key-by-key and panel input.
	Delivery Delivery

	// Panel is the host command that opens the input panel.
	// Required for ViaPanel parsers.
	Panel string

	// Validate reports whether the collected input is complete.
	// Nil accepts any non-empty input.
	Validate func(input string) bool

	// Post transforms accepted input before it is stored. Optional.
	Post func(input string) string
}

// Accepts reports whether input completes the parser.
func (p Parser) Accepts(input string) bool {
	if p.Validate == nil {
		return input != ""
	}
	return p.Validate(input)
}

// Finish applies post-processing to accepted input.
func (p Parser) Finish(input string) string {
	if p.Post == nil {
		return input
	}
	return p.Post(input)
}

// Registry maps parser names to parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

// Register adds a parser.
func (r *Registry) Register(p Parser) error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidParser)
	}
	if p.Delivery == ViaPanel && p.Panel == "" {
		return fmt.Errorf("%w: %s: panel parser without panel command", ErrInvalidParser, p.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.parsers[p.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateParser, p.Name)
	}
	r.parsers[p.Name] = p
	return nil
}

// Get returns the parser named name.
func (r *Registry) Get(name string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[name]
	return p, ok
}

// List returns the registered parser names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a registry holding the built-in parsers.
func Builtin() *Registry {
	r := NewRegistry()
	for _, p := range []Parser{
		{Name: OneChar, Delivery: Immediate, Validate: isOneChar, Post: TranslateKey},
		{Name: RegisterName, Delivery: Immediate, Validate: validRegister(IsRegister)},
		{Name: MacroRecord, Delivery: Immediate, Validate: validRegister(IsMacroRegister)},
		{Name: MacroPlay, Delivery: Immediate, Validate: validRegister(isPlayRegister)},
		{Name: SearchFwd, Delivery: ViaPanel, Panel: "_vi_slash_panel", Post: TranslateKey},
		{Name: SearchBwd, Delivery: ViaPanel, Panel: "_vi_question_panel", Post: TranslateKey},
	} {
		// Built-in definitions are static and unique.
		_ = r.Register(p)
	}
	return r
}

var keyNames = map[string]string{
	"<space>": " ",
	"<lt>":    "<",
	"<cr>":    "\n",
	"<enter>": "\n",
	"<tab>":   "\t",
	"<bar>":   "|",
}

// TranslateKey replaces key names such as <space> with the text they type.
// Key names are matched without regard to case.
func TranslateKey(input string) string {
	if !strings.Contains(input, "<") {
		return input
	}

	var b strings.Builder
	for len(input) > 0 {
		if input[0] == '<' {
			if end := strings.IndexByte(input, '>'); end > 0 {
				if text, ok := keyNames[strings.ToLower(input[:end+1])]; ok {
					b.WriteString(text)
					input = input[end+1:]
					continue
				}
			}
		}
		b.WriteByte(input[0])
		input = input[1:]
	}
	return b.String()
}

func isOneChar(input string) bool {
	return utf8.RuneCountInString(TranslateKey(input)) == 1
}

func validRegister(valid func(rune) bool) func(string) bool {
	return func(input string) bool {
		r, size := utf8.DecodeRuneInString(input)
		return size > 0 && size == len(input) && valid(r)
	}
}

// IsRegister reports whether r names a register that may precede a command.
func IsRegister(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune(`"-_.%#:/+*`, r)
}

// IsMacroRegister reports whether r may hold a recorded macro.
func IsMacroRegister(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return r == '"'
}

func isPlayRegister(r rune) bool {
	return IsMacroRegister(r) || r == '@' || r == ':'
}
