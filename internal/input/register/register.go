// Package register stores yanked and deleted text under vi register names.
//
// Named registers a-z are written through their uppercase names to append.
// Deletes rotate registers 1-9 and yanks land in 0; both also fill the
// unnamed register ". The + and * registers go to the system clipboard.
package register

import (
	"strings"
	"sync"
	"unicode"

	"github.com/atotto/clipboard"
)

// Unnamed is the default register.
const Unnamed = '"'

// Kind categorizes registers by behavior.
type Kind uint8

const (
	KindUnnamed Kind = iota
	KindNamed
	KindYank
	KindNumbered
	KindSmallDelete
	KindBlackHole
	KindReadOnly
	KindClipboard
	KindInvalid
)

// KindOf returns the kind of register name.
func KindOf(name rune) Kind {
	switch {
	case name == Unnamed:
		return KindUnnamed
	case name >= 'a' && name <= 'z', name >= 'A' && name <= 'Z':
		return KindNamed
	case name == '0':
		return KindYank
	case name >= '1' && name <= '9':
		return KindNumbered
	case name == '-':
		return KindSmallDelete
	case name == '_':
		return KindBlackHole
	case name == '.', name == '%', name == '#', name == ':', name == '/':
		return KindReadOnly
	case name == '+', name == '*':
		return KindClipboard
	}
	return KindInvalid
}

// Content is the text held by a register.
type Content struct {
	Text     string
	Linewise bool
}

// Clipboard abstracts the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard is the host clipboard.
type SystemClipboard struct{}

// ReadAll implements Clipboard.
func (SystemClipboard) ReadAll() (string, error) { return clipboard.ReadAll() }
// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Store holds register contents. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	contents  map[rune]Content
	clipboard Clipboard
}

// Option configures a Store.
type Option func(*Store)

// WithClipboard sets the clipboard backing + and *. Without one those
// registers behave like named registers.
func WithClipboard(c Clipboard) Option {
	return func(s *Store) {
		s.clipboard = c
	}
}

// NewStore creates an empty register store.
func NewStore(opts ...Option) *Store {
	s := &Store{contents: make(map[rune]Content)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the content of register name.
func (s *Store) Get(name rune) (Content, error) {
	kind := KindOf(name)
	if kind == KindInvalid {
		return Content{}, &Error{Register: name, Reason: "unknown register"}
	}
	name = unicode.ToLower(name)

	if kind == KindClipboard {
		if c := s.clipboardProvider(); c != nil {
			text, err := c.ReadAll()
			if err != nil {
				return Content{}, &Error{Register: name, Reason: "reading clipboard", Err: err}
			}
			return Content{Text: text}, nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contents[name], nil
}

// Set stores content in register name. An uppercase name appends to the
// lowercase register.
func (s *Store) Set(name rune, content Content) error {
	kind := KindOf(name)
	switch kind {
	case KindInvalid:
		return &Error{Register: name, Reason: "unknown register"}
	case KindReadOnly:
		return &Error{Register: name, Reason: "register is read-only"}
	case KindBlackHole:
		return nil
	case KindClipboard:
		if c := s.clipboardProvider(); c != nil {
			if err := c.WriteAll(content.Text); err != nil {
				return &Error{Register: name, Reason: "writing clipboard", Err: err}
			}
			return nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if unicode.IsUpper(name) {
		name = unicode.ToLower(name)
		prev := s.contents[name]
		if prev.Linewise && prev.Text != "" {
			prev.Text += "\n"
		}
		prev.Text += content.Text
		prev.Linewise = prev.Linewise || content.Linewise
		s.contents[name] = prev
		return nil
	}
	s.contents[name] = content
	return nil
}

// Yank records yanked text. Without an explicit register it goes to 0.
// The unnamed register always receives it.
func (s *Store) Yank(name rune, content Content) error {
	if name == 0 || name == Unnamed {
		s.mu.Lock()
		s.contents['0'] = content
		s.contents[Unnamed] = content
		s.mu.Unlock()
		return nil
	}
	if KindOf(name) == KindBlackHole {
		return nil
	}
	if err := s.Set(name, content); err != nil {
		return err
	}
	s.setUnnamed(content)
	return nil
}

// Delete records deleted text. Without an explicit register, linewise or
// multi-line deletes rotate the numbered registers and smaller ones go to
// the small delete register. The unnamed register always receives it.
func (s *Store) Delete(name rune, content Content) error {
	if KindOf(name) == KindBlackHole {
		return nil
	}
	if name != 0 && name != Unnamed {
		if err := s.Set(name, content); err != nil {
			return err
		}
		s.setUnnamed(content)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !content.Linewise && !strings.Contains(content.Text, "\n") {
		s.contents['-'] = content
	} else {
		for r := '9'; r > '1'; r-- {
			s.contents[r] = s.contents[r-1]
		}
		s.contents['1'] = content
	}
	s.contents[Unnamed] = content
	return nil
}

// SetReadOnly updates one of the read-only registers (. % # : /).
func (s *Store) SetReadOnly(name rune, text string) error {
	if KindOf(name) != KindReadOnly {
		return &Error{Register: name, Reason: "not a read-only register"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents[name] = Content{Text: text}
	return nil
}

func (s *Store) setUnnamed(content Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents[Unnamed] = content
}

func (s *Store) clipboardProvider() Clipboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clipboard
}
