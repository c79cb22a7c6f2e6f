// Package resolver assembles command descriptors into runnable commands and
// evaluates them.
//
// The key pipeline feeds descriptors to SetCommand as keys resolve to
// motions and actions, then calls Eval. Eval does nothing until the pending
// fields form a runnable command: a lone motion, an action that needs no
// motion (or runs on a visual selection), or an operator with its motion.
// A runnable command is turned into a single execution command and handed
// to the sink, after which all command data is reset.
//
// Commands that need more input suspend the assembly. SetCommand returns a
// Pending value naming the parser that is waiting; the host later delivers
// the value through ResumeCommand, which completes the command. All partial
// state lives in the session stores, so nothing is held across the
// suspension but the parser stack.
package resolver

import (
	"fmt"

	"github.com/dshills/vintage/internal/catalog"
	"github.com/dshills/vintage/internal/input/mode"
	"github.com/dshills/vintage/internal/input/parser"
	"github.com/dshills/vintage/internal/session"
	"github.com/dshills/vintage/internal/view"
)

// VisualSelectionKey names the region set that preserves a visual selection
// across a visual action.
const VisualSelectionKey = "visual_sel"

// Sink executes execution commands against the active buffer.
type Sink interface {
	Run(command string, args catalog.Args)
}

// Panel opens the input panel of a panel-driven parser.
// The collected value comes back through ResumeCommand.
type Panel interface {
	OpenPanel(p parser.Parser)
}

// Config holds the collaborators of a Resolver.
type Config struct {
	State   *session.State
	Catalog *catalog.Catalog
	Parsers *parser.Registry
	Sink    Sink
	Panel   Panel
	Logger  session.Logger
}

// Pending describes a command suspended on input.
type Pending struct {
	// Parser is the parser waiting for input.
	Parser string
	// ViaPanel is set when the host was asked to open an input panel.
	ViaPanel bool
}

// Waiting reports whether a parser is waiting for input.
func (p Pending) Waiting() bool {
	return p.Parser != ""
}

// Resolver is the command assembly state machine of one buffer.
type Resolver struct {
	state   *session.State
	catalog *catalog.Catalog
	parsers *parser.Registry
	sink    Sink
	panel   Panel
	logger  session.Logger
}

// New creates a Resolver. A nil Catalog or Parsers is replaced by the
// built-in set.
func New(cfg Config) *Resolver {
	r := &Resolver{
		state:   cfg.State,
		catalog: cfg.Catalog,
		parsers: cfg.Parsers,
		sink:    cfg.Sink,
		panel:   cfg.Panel,
		logger:  cfg.Logger,
	}
	if r.catalog == nil {
		r.catalog = catalog.Builtin()
	}
	if r.parsers == nil {
		r.parsers = parser.Builtin()
	}
	return r
}

// State returns the session state the resolver works on.
func (r *Resolver) State() *session.State {
	return r.state
}

// SetCommand sets the pending motion or action.
//
// It fails with a contract violation when a command of the same kind is
// already pending or the pending fields are already runnable. When the
// command needs input, the returned Pending names the waiting parser.
func (r *Resolver) SetCommand(d session.Descriptor) (Pending, error) {
	s := r.state

	switch d.Type {
	case session.Motion:
		if err := r.checkNotRunnable("too many motions"); err != nil {
			return Pending{}, err
		}
		if s.Motion() != nil {
			return Pending{}, session.Violation("set_command", session.KeyMotion, "too many motions")
		}

		s.SetMotion(&d)
		if s.Mode() == mode.OperatorPending {
			s.EnterNormalMode()
		}

	case session.Action:
		if err := r.checkNotRunnable("too many actions"); err != nil {
			return Pending{}, err
		}
		if s.Action() != nil {
			return Pending{}, session.Violation("set_command", session.KeyAction, "too many actions")
		}

		s.SetAction(&d)
		if d.MotionRequired && !s.InAnyVisualMode() {
			s.SetMode(mode.OperatorPending)
		}

	default:
		r.info("unexpected command: %+v", d)
		return Pending{}, session.Violation("set_command", "", fmt.Sprintf("unexpected command type %q", d.Type))
	}

	return r.setParsers(d)
}

func (r *Resolver) checkNotRunnable(reason string) error {
	runnable, err := r.Runnable()
	if err != nil {
		return err
	}
	if runnable {
		return session.Violation("set_command", "", reason)
	}
	return nil
}

// setParsers queues the parser requested by d.
func (r *Resolver) setParsers(d session.Descriptor) (Pending, error) {
	if !d.NeedsInput() {
		return Pending{}, nil
	}

	// q stops the recorder; it must not wait for a register while recording.
	if r.state.RecordingMacro() && d.Input == parser.MacroRecord {
		return Pending{}, nil
	}

	r.state.PushParser(d.Input)
	return r.runParserViaPanel()
}

// runParserViaPanel reports the innermost waiting parser and opens its
// panel when it is panel-driven.
func (r *Resolver) runParserViaPanel() (Pending, error) {
	name, ok := r.state.TopParser()
	if !ok {
		return Pending{}, nil
	}

	p, ok := r.parsers.Get(name)
	if !ok {
		return Pending{}, session.Violation("set_command", session.KeyInputParsers, fmt.Sprintf("unknown parser %q", name))
	}

	if p.Delivery != parser.ViaPanel {
		return Pending{Parser: name}, nil
	}

	// Focus moves to the panel; keep bootstrap from resetting the command
	// when the buffer is activated again.
	r.state.SetResetDuringInit(false)
	if r.panel != nil {
		r.panel.OpenPanel(p)
	}
	return Pending{Parser: name, ViaPanel: true}, nil
}

// WaitingParser returns the innermost parser waiting for input.
func (r *Resolver) WaitingParser() (parser.Parser, bool) {
	name, ok := r.state.TopParser()
	if !ok {
		return parser.Parser{}, false
	}
	return r.parsers.Get(name)
}

// ResumeCommand delivers value to the waiting parser named name and
// evaluates the command once no parser is left waiting.
//
// Delivering to a parser that is not waiting is a contract violation.
// An empty or rejected value aborts the sequence.
func (r *Resolver) ResumeCommand(name, value string) (Pending, error) {
	s := r.state

	top, ok := s.TopParser()
	if !ok || top != name {
		return Pending{}, session.Violation("resume_command", session.KeyInputParsers, fmt.Sprintf("parser %q is not waiting for input", name))
	}
	p, ok := r.parsers.Get(name)
	if !ok {
		return Pending{}, session.Violation("resume_command", session.KeyInputParsers, fmt.Sprintf("unknown parser %q", name))
	}

	if p.Delivery == parser.ViaPanel {
		s.SetResetDuringInit(true)
	}

	if value == "" || !p.Accepts(value) {
		r.info("input rejected by %s: %q", name, value)
		r.CancelInput()
		return Pending{}, nil
	}

	s.SetUserInput(p.Finish(value))
	s.PopParser()

	next, err := r.runParserViaPanel()
	if err != nil || next.Waiting() {
		return next, err
	}
	return Pending{}, r.Eval()
}

// CancelInput aborts a sequence waiting for input.
func (r *Resolver) CancelInput() {
	r.state.SetResetDuringInit(true)
	r.Abort()
}

// Abort discards the command being assembled. Callers use it after a
// contract violation.
func (r *Resolver) Abort() {
	switch r.state.Mode() {
	case mode.OperatorPending, mode.InternalNormal:
		r.state.EnterNormalMode()
	}
	r.state.ResetCommandData()
}

// SetRegister selects the register for the command being assembled.
func (r *Resolver) SetRegister(name string) error {
	return r.state.SetRegister(name)
}

// CaptureRegister makes the next key name a register.
func (r *Resolver) CaptureRegister() {
	r.state.SetCaptureRegister(true)
}

// Runnable reports whether the pending fields form a complete command.
//
// Pending fields that can never run in the current mode are a contract
// violation: an operator with its motion outside normal mode, or a lone
// action or motion in operator-pending mode.
func (r *Resolver) Runnable() (bool, error) {
	s := r.state
	if len(s.InputParsers()) > 0 {
		return false, nil
	}

	action, motion := s.Action(), s.Motion()
	m := s.Mode()

	if action != nil && motion != nil {
		if m != mode.Normal {
			return false, session.Violation("runnable", session.KeyMode, fmt.Sprintf("wrong mode %s for action and motion", m))
		}
		return true, nil
	}

	if s.CanRunAction() {
		if m == mode.OperatorPending {
			return false, session.Violation("runnable", session.KeyMode, "wrong mode for lone action")
		}
		return true, nil
	}

	if motion != nil {
		if m == mode.OperatorPending {
			return false, session.Violation("runnable", session.KeyMode, "wrong mode for lone motion")
		}
		return true, nil
	}

	return false, nil
}

// VisualRepeatData returns the extent of the primary selection in visual
// mode, or nil in any other mode.
func (r *Resolver) VisualRepeatData() *session.VisualRepeat {
	if r.state.Mode() != mode.Visual {
		return nil
	}
	v := r.state.View()
	if v == nil {
		return nil
	}
	s0, ok := view.Primary(v)
	if !ok {
		return nil
	}

	beginRow, _ := v.RowCol(s0.Begin())
	endRow, endCol := v.RowCol(s0.End())
	lines := endRow - beginRow
	chars := s0.Size()
	if lines > 0 {
		chars = endCol
	}
	return &session.VisualRepeat{Lines: lines, Chars: chars}
}

func (r *Resolver) info(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Resolver) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func (r *Resolver) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
