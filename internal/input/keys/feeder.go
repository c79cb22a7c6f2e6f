// Package keys turns typed keys into command resolution.
//
// The Feeder is the host side of the resolver: it accumulates counts and
// register names, resolves key sequences through a Keymap, hands waiting
// parsers their input and keeps the macro recorder in step. Keys are
// identified by name: printable characters stand for themselves and
// special keys use angle-bracket names such as <esc> or <space>.
package keys

import (
	"github.com/dshills/vintage/internal/catalog"
	"github.com/dshills/vintage/internal/input/macro"
	"github.com/dshills/vintage/internal/input/mode"
	"github.com/dshills/vintage/internal/input/parser"
	"github.com/dshills/vintage/internal/resolver"
	"github.com/dshills/vintage/internal/session"
)

// Special key names.
const (
	Escape = "<esc>"
	Quote  = `"`
)

// Execution commands run by the feeder itself.
const (
	EnterNormalCommand = "_enter_normal_mode"
	InsertTextCommand  = "_insert_text"
)

// Config holds the collaborators of a Feeder.
type Config struct {
	Resolver *resolver.Resolver
	Keymap   *Keymap
	Sink     resolver.Sink
	Recorder *macro.Recorder
	Logger   session.Logger
}

// Feeder feeds keys of one buffer into its resolver.
type Feeder struct {
	resolver *resolver.Resolver
	keymap   *Keymap
	sink     resolver.Sink
	recorder *macro.Recorder
	logger   session.Logger
}

// NewFeeder creates a Feeder. A nil Keymap is replaced by Default().
func NewFeeder(cfg Config) *Feeder {
	f := &Feeder{
		resolver: cfg.Resolver,
		keymap:   cfg.Keymap,
		sink:     cfg.Sink,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}
	if f.keymap == nil {
		f.keymap = Default()
	}
	return f
}

// Keymap returns the keymap in use.
func (f *Feeder) Keymap() *Keymap {
	return f.keymap
}

// Feed processes one key.
//
// A contract violation aborts the sequence being assembled and is
// returned. A key is recorded into the running macro only when a macro
// was being recorded both before and after the key was processed, so the
// keys that start and stop a recording are never part of it.
func (f *Feeder) Feed(key string) error {
	return f.process(key, true)
}

// Replay processes a key replayed from a macro or a repeat. Replayed keys
// are never recorded.
func (f *Feeder) Replay(key string) error {
	return f.process(key, false)
}

func (f *Feeder) process(key string, record bool) error {
	wasRecording := record && f.recorder != nil && f.recorder.IsRecording()

	err := f.feed(key)
	if err != nil && session.IsContractViolation(err) {
		f.warn("aborting %q: %v", f.resolver.State().Sequence(), err)
		f.resolver.Abort()
	}

	if wasRecording && f.recorder.IsRecording() {
		f.recorder.Record(key)
	}
	return err
}

// FeedAll processes keys in order and stops at the first error.
func (f *Feeder) FeedAll(keys ...string) error {
	for _, k := range keys {
		if err := f.Feed(k); err != nil {
			return err
		}
	}
	return nil
}

func (f *Feeder) feed(key string) error {
	s := f.resolver.State()

	if p, ok := f.resolver.WaitingParser(); ok {
		return f.feedParser(p, key)
	}

	if key == Escape {
		f.escape()
		return nil
	}

	if s.Mode().IsInsertLike() {
		f.run(InsertTextCommand, catalog.Args{
			"mode":       s.Mode(),
			"characters": parser.TranslateKey(key),
		})
		return nil
	}

	if s.CaptureRegister() {
		s.SetSequence(s.Sequence() + key)
		return f.resolver.SetRegister(key)
	}

	if s.PartialSequence() == "" {
		if key == Quote {
			s.SetSequence(s.Sequence() + key)
			f.resolver.CaptureRegister()
			return nil
		}
		if f.feedCount(key) {
			return nil
		}
	}

	return f.feedCommand(key)
}

// feedParser delivers key to the waiting parser. Keys for panel parsers
// belong to the panel; only escape reaches the resolver.
func (f *Feeder) feedParser(p parser.Parser, key string) error {
	if key == Escape {
		f.resolver.CancelInput()
		return nil
	}
	if p.Delivery == parser.ViaPanel {
		f.debug("key %q ignored while %s panel is open", key, p.Name)
		return nil
	}

	s := f.resolver.State()
	s.SetSequence(s.Sequence() + key)
	_, err := f.resolver.ResumeCommand(p.Name, key)
	return err
}

// feedCount accumulates digits into the action count until an action is
// pending and into the motion count afterwards. A leading 0 is a command,
// not a count.
func (f *Feeder) feedCount(key string) bool {
	if len(key) != 1 || key[0] < '0' || key[0] > '9' {
		return false
	}

	s := f.resolver.State()
	toMotion := s.Action() != nil || s.Mode() == mode.OperatorPending
	current := s.ActionCount()
	if toMotion {
		current = s.MotionCount()
	}
	if key == "0" && current == "" {
		return false
	}

	if toMotion {
		s.SetMotionCount(current + key)
	} else {
		s.SetActionCount(current + key)
	}
	s.SetSequence(s.Sequence() + key)
	return true
}

func (f *Feeder) feedCommand(key string) error {
	s := f.resolver.State()
	seq := s.PartialSequence() + key

	d, match := f.keymap.Lookup(s.Mode(), seq)
	switch match {
	case PartialMatch:
		s.AppendSequence(key)
		return nil
	case NoMatch:
		f.info("no binding for %q in %s", seq, s.Mode().DisplayName())
		f.resolver.Abort()
		return nil
	}

	s.AppendSequence(key)
	s.ResetPartialSequence()

	pending, err := f.resolver.SetCommand(d)
	if err != nil || pending.Waiting() {
		return err
	}
	return f.resolver.Eval()
}

// escape leaves the current mode, or drops the sequence being assembled.
func (f *Feeder) escape() {
	s := f.resolver.State()
	assembling := s.Action() != nil || s.Motion() != nil || s.Sequence() != ""

	switch m := s.Mode(); {
	case m == mode.OperatorPending, assembling:
		f.resolver.Abort()
	case m.IsVisual(), m.IsInsertLike(), m == mode.Select:
		f.run(EnterNormalCommand, catalog.Args{"mode": m})
	default:
		f.resolver.Abort()
	}
}

func (f *Feeder) run(command string, args catalog.Args) {
	if f.sink == nil {
		f.warn("no sink for %s", command)
		return
	}
	f.sink.Run(command, args)
}

func (f *Feeder) info(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Info(msg, args...)
	}
}

func (f *Feeder) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}

func (f *Feeder) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
