package keys

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dshills/vintage/internal/input/mode"
	"github.com/dshills/vintage/internal/input/parser"
	"github.com/dshills/vintage/internal/session"
)

// Match describes how a key sequence relates to the bindings of a mode.
type Match uint8

const (
	// NoMatch means no binding starts with the sequence.
	NoMatch Match = iota
	// PartialMatch means the sequence is a strict prefix of a binding.
	PartialMatch
	// FullMatch means the sequence is bound.
	FullMatch
)

// String returns a string representation of the match.
func (m Match) String() string {
	switch m {
	case NoMatch:
		return "none"
	case PartialMatch:
		return "partial"
	case FullMatch:
		return "full"
	default:
		return "unknown"
	}
}

// ErrInvalidBinding indicates a binding that can never resolve.
var ErrInvalidBinding = errors.New("invalid key binding")

// Keymap maps key sequences to command descriptors per mode.
// A sequence is the concatenation of its key names.
type Keymap struct {
	mu       sync.RWMutex
	bindings map[mode.Mode]map[string]session.Descriptor
}

// NewKeymap creates an empty keymap.
func NewKeymap() *Keymap {
	return &Keymap{bindings: make(map[mode.Mode]map[string]session.Descriptor)}
}

// Bind maps seq to d in every given mode, replacing earlier bindings.
func (k *Keymap) Bind(seq string, d session.Descriptor, modes ...mode.Mode) error {
	if seq == "" {
		return fmt.Errorf("%w: empty key sequence", ErrInvalidBinding)
	}
	if d.Type != session.Motion && d.Type != session.Action {
		return fmt.Errorf("%w: %s: unknown command type %q", ErrInvalidBinding, seq, d.Type)
	}
	if d.Name == "" {
		return fmt.Errorf("%w: %s: empty command name", ErrInvalidBinding, seq)
	}
	if len(modes) == 0 {
		return fmt.Errorf("%w: %s: no modes", ErrInvalidBinding, seq)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for _, m := range modes {
		if k.bindings[m] == nil {
			k.bindings[m] = make(map[string]session.Descriptor)
		}
		k.bindings[m][seq] = d
	}
	return nil
}

// Unbind removes seq from the given modes.
func (k *Keymap) Unbind(seq string, modes ...mode.Mode) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, m := range modes {
		delete(k.bindings[m], seq)
	}
}

// Replace swaps in the bindings of other. Feeders holding k see the new
// bindings on their next lookup.
func (k *Keymap) Replace(other *Keymap) {
	other.mu.RLock()
	bindings := make(map[mode.Mode]map[string]session.Descriptor, len(other.bindings))
	for m, bound := range other.bindings {
		cp := make(map[string]session.Descriptor, len(bound))
		for seq, d := range bound {
			cp[seq] = d
		}
		bindings[m] = cp
	}
	other.mu.RUnlock()

	k.mu.Lock()
	defer k.mu.Unlock()
	k.bindings = bindings
}

// Lookup resolves seq in mode m.
func (k *Keymap) Lookup(m mode.Mode, seq string) (session.Descriptor, Match) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	bound := k.bindings[m]
	if d, ok := bound[seq]; ok {
		return d, FullMatch
	}
	for s := range bound {
		if strings.HasPrefix(s, seq) {
			return session.Descriptor{}, PartialMatch
		}
	}
	return session.Descriptor{}, NoMatch
}

// Sequences returns the sequences bound in m, sorted.
func (k *Keymap) Sequences(m mode.Mode) []string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := make([]string, 0, len(k.bindings[m]))
	for s := range k.bindings[m] {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

type bindingFile struct {
	Bindings []struct {
		Keys    string             `yaml:"keys"`
		Modes   []string           `yaml:"modes"`
		Command session.Descriptor `yaml:"command"`
	} `yaml:"bindings"`
}

// LoadYAML adds the bindings of a YAML keymap file:
//
//	bindings:
//	  - keys: "gj"
//	    modes: [mode_normal, mode_visual]
//	    command: {type: motion, name: vi_j}
func (k *Keymap) LoadYAML(data []byte) error {
	var f bindingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decoding keymap: %w", err)
	}

	for i, b := range f.Bindings {
		modes := make([]mode.Mode, 0, len(b.Modes))
		for _, name := range b.Modes {
			m, ok := mode.Parse(name)
			if !ok {
				return fmt.Errorf("%w: binding %d: unknown mode %q", ErrInvalidBinding, i, name)
			}
			modes = append(modes, m)
		}
		if err := k.Bind(b.Keys, b.Command, modes...); err != nil {
			return fmt.Errorf("binding %d: %w", i, err)
		}
	}
	return nil
}

var (
	motionModes = []mode.Mode{mode.Normal, mode.OperatorPending, mode.Visual, mode.VisualLine, mode.VisualBlock}
	actionModes = []mode.Mode{mode.Normal, mode.Visual, mode.VisualLine, mode.VisualBlock}
)

// Default returns the bindings of the built-in commands.
func Default() *Keymap {
	k := NewKeymap()

	motion := func(name string) session.Descriptor {
		return session.Descriptor{Type: session.Motion, Name: name}
	}
	action := func(name string) session.Descriptor {
		return session.Descriptor{Type: session.Action, Name: name}
	}

	j, kk := motion("vi_j"), motion("vi_k")
	w := motion("vi_w")
	w.UpdatesXpos = true
	dollar := motion("vi_dollar")
	dollar.UpdatesXpos = true
	f := motion("vi_f")
	f.Input = parser.OneChar
	f.UpdatesXpos = true
	slash := motion("vi_slash")
	slash.Input = parser.SearchFwd
	slash.UpdatesXpos = true
	slash.ScrollIntoView = true

	d := action("vi_d")
	d.MotionRequired = true
	d.Repeatable = true
	y := action("vi_y")
	y.MotionRequired = true
	x := action("vi_x")
	x.Repeatable = true
	i := action("vi_i")
	i.Repeatable = true
	q := action("vi_q")
	q.Input = parser.MacroRecord
	at := action("vi_at")
	at.Input = parser.MacroPlay

	// Built-in bindings are static and valid.
	for seq, desc := range map[string]session.Descriptor{
		"j": j, "<down>": j, "gj": j,
		"k": kk, "<up>": kk, "gk": kk,
		"w": w, "$": dollar, "<end>": dollar,
		"f": f, "/": slash,
	} {
		_ = k.Bind(seq, desc, motionModes...)
	}
	for seq, desc := range map[string]session.Descriptor{
		"d": d, "y": y, "x": x, "<del>": x,
	} {
		_ = k.Bind(seq, desc, actionModes...)
	}
	_ = k.Bind("i", i, mode.Normal)
	_ = k.Bind("q", q, mode.Normal)
	_ = k.Bind("@", at, mode.Normal)
	_ = k.Bind(".", action("vi_dot"), mode.Normal)
	_ = k.Bind("u", action("vi_u"), mode.Normal)

	return k
}
