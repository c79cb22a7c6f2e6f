// Package session holds the mutable state a key sequence is assembled in.
//
// State is a typed view over two key-value stores: one per buffer and one
// per window. Every field has a default used when the key is absent, and
// setters validate what they store. Nothing is cached in the State itself,
// so two State values over the same stores observe each other's writes.
package session

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/vintage/internal/input/mode"
	"github.com/dshills/vintage/internal/session/store"
	"github.com/dshills/vintage/internal/view"
)

// Logger is the logging surface used by the session and the packages built
// on it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// UndoGrouper controls grouping of successive edits into one undo step.
// Requests are fire-and-forget.
type UndoGrouper interface {
	// BeginGrouping groups every following edit until normal mode is entered.
	BeginGrouping()

	// ClearGroupingMarkers drops any pending grouping request for the buffer.
	ClearGroupingMarkers()
}

// State is the command assembly state of one buffer.
type State struct {
	viewStore   store.Store
	windowStore store.Store

	buf    view.Query
	undo   UndoGrouper
	logger Logger
}

// Option configures a State.
type Option func(*State)

// WithView attaches the buffer the state belongs to.
func WithView(q view.Query) Option {
	return func(s *State) {
		s.buf = q
	}
}

// WithUndo attaches the undo grouping control.
func WithUndo(u UndoGrouper) Option {
	return func(s *State) {
		s.undo = u
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(s *State) {
		s.logger = l
	}
}

// New creates a State over the given view and window stores.
func New(viewStore, windowStore store.Store, opts ...Option) *State {
	s := &State{
		viewStore:   viewStore,
		windowStore: windowStore,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View returns the attached buffer, or nil.
func (s *State) View() view.Query {
	return s.buf
}

// Undo returns the attached undo grouping control, or nil.
func (s *State) Undo() UndoGrouper {
	return s.undo
}

func (s *State) storeFor(f *Field) store.Store {
	if f.Scope == WindowScope {
		return s.windowStore
	}
	return s.viewStore
}

// Get returns the value of the field named key, or its default.
func (s *State) Get(key string) (any, error) {
	f, ok := fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	if v, ok := s.storeFor(f).Get(key); ok {
		return v, nil
	}
	return f.Default, nil
}

// SetField validates value and stores it under key.
// A nil value restores the default.
func (s *State) SetField(key string, value any) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	if value == nil {
		s.storeFor(f).Delete(key)
		return nil
	}
	if err := f.Validate(value); err != nil {
		return Violation("set", key, err.Error())
	}
	if f.Type == TypeMode {
		if str, ok := value.(string); ok {
			value = mode.Mode(str)
		}
	}
	if key == KeyRegister {
		s.put(KeyCaptureRegister, false)
	}
	s.put(key, value)
	return nil
}

func (s *State) put(key string, value any) {
	s.storeFor(fields[key]).Set(key, value)
}

func (s *State) lookup(key string, out any) bool {
	raw, ok := s.storeFor(fields[key]).Get(key)
	if !ok {
		return false
	}
	return store.Decode(raw, out) == nil
}

func (s *State) str(key string) string {
	var v string
	if s.lookup(key, &v) {
		return v
	}
	return fields[key].Default.(string)
}

func (s *State) flag(key string) bool {
	var v bool
	if s.lookup(key, &v) {
		return v
	}
	return fields[key].Default.(bool)
}

func (s *State) descriptor(key string) *Descriptor {
	var d Descriptor
	if s.lookup(key, &d) {
		return &d
	}
	return nil
}

func (s *State) setDescriptor(key string, d *Descriptor) {
	if d == nil {
		s.put(key, nil)
		return
	}
	s.put(key, *d)
}

// Action returns the pending action, or nil.
func (s *State) Action() *Descriptor { return s.descriptor(KeyAction) }

// SetAction sets the pending action. Nil clears it.
func (s *State) SetAction(d *Descriptor) { s.setDescriptor(KeyAction, d) }

// Motion returns the pending motion, or nil.
func (s *State) Motion() *Descriptor { return s.descriptor(KeyMotion) }

// SetMotion sets the pending motion. Nil clears it.
func (s *State) SetMotion(d *Descriptor) { s.setDescriptor(KeyMotion, d) }

// ActionCount returns the digits typed before the action.
func (s *State) ActionCount() string { return s.str(KeyActionCount) }
// SetActionCount sets the digits typed before the action.
func (s *State) SetActionCount(c string) { s.put(KeyActionCount, c) }
// MotionCount returns the digits typed before the motion.
func (s *State) MotionCount() string { return s.str(KeyMotionCount) }
// SetMotionCount sets the digits typed before the motion.
func (s *State) SetMotionCount(c string) { s.put(KeyMotionCount, c) }
// Sequence returns every key of the command so far.
func (s *State) Sequence() string { return s.str(KeySequence) }
// SetSequence replaces the full key sequence.
func (s *State) SetSequence(seq string) { s.put(KeySequence, seq) }
// PartialSequence returns the keys not yet resolved to a command.
func (s *State) PartialSequence() string { return s.str(KeyPartialSequence) }
// SetPartialSequence replaces the unresolved keys.
func (s *State) SetPartialSequence(p string) { s.put(KeyPartialSequence, p) }
// UserInput returns the input collected by the last parser.
func (s *State) UserInput() string { return s.str(KeyUserInput) }
// SetUserInput stores input collected by a parser.
func (s *State) SetUserInput(in string) { s.put(KeyUserInput, in) }

// NormalInsertCount is the count applied to text typed after an insert
// command such as 3i.
func (s *State) NormalInsertCount() string { return s.str(KeyNormalInsertCount) }
// SetNormalInsertCount sets the count given to an insert command.
func (s *State) SetNormalInsertCount(c string) { s.put(KeyNormalInsertCount, c) }

// AppendSequence appends key to both the full and the partial sequence.
func (s *State) AppendSequence(key string) {
	s.SetSequence(s.Sequence() + key)
	s.SetPartialSequence(s.PartialSequence() + key)
}

// Register returns the register requested for the current command.
func (s *State) Register() string {
	return s.str(KeyRegister)
}

// SetRegister selects a register. name must be exactly one character.
// Selecting a register ends register capture.
func (s *State) SetRegister(name string) error {
	if utf8.RuneCountInString(name) != 1 {
		return Violation("set_register", KeyRegister, fmt.Sprintf("register must be a single character, got %q", name))
	}
	s.debug("opening register %s", name)
	s.put(KeyRegister, name)
	s.put(KeyCaptureRegister, false)
	return nil
}

// CaptureRegister reports whether the next key names a register.
func (s *State) CaptureRegister() bool { return s.flag(KeyCaptureRegister) }
// SetCaptureRegister marks that the next key names a register.
func (s *State) SetCaptureRegister(v bool) { s.put(KeyCaptureRegister, v) }

// InputParsers returns a copy of the outstanding parser stack.
func (s *State) InputParsers() []string {
	var parsers []string
	if !s.lookup(KeyInputParsers, &parsers) {
		return []string{}
	}
	out := make([]string, len(parsers))
	copy(out, parsers)
	return out
}

// SetInputParsers replaces the parser stack.
func (s *State) SetInputParsers(parsers []string) {
	out := make([]string, len(parsers))
	copy(out, parsers)
	s.put(KeyInputParsers, out)
}

// PushParser pushes a parser onto the stack.
func (s *State) PushParser(name string) {
	s.SetInputParsers(append(s.InputParsers(), name))
}

// PopParser removes and returns the innermost parser.
func (s *State) PopParser() (string, bool) {
	parsers := s.InputParsers()
	if len(parsers) == 0 {
		return "", false
	}
	top := parsers[len(parsers)-1]
	s.SetInputParsers(parsers[:len(parsers)-1])
	return top, true
}

// TopParser returns the innermost parser without removing it.
func (s *State) TopParser() (string, bool) {
	parsers := s.InputParsers()
	if len(parsers) == 0 {
		return "", false
	}
	return parsers[len(parsers)-1], true
}

// Xpos returns the sticky caret column.
func (s *State) Xpos() int {
	var n int
	if s.lookup(KeyXpos, &n) {
		return n
	}
	return 0
}

// SetXpos sets the sticky caret column. Negative columns are rejected.
func (s *State) SetXpos(col int) error {
	if col < 0 {
		return Violation("set_xpos", KeyXpos, fmt.Sprintf("xpos must be non-negative, got %d", col))
	}
	s.put(KeyXpos, col)
	return nil
}

// VisualBlockDirection returns the visual block growth direction.
func (s *State) VisualBlockDirection() mode.Direction {
	var d mode.Direction
	if s.lookup(KeyVisualBlockDirection, &d) && d.Valid() {
		return d
	}
	var n int
	if s.lookup(KeyVisualBlockDirection, &n) && mode.Direction(n).Valid() {
		return mode.Direction(n)
	}
	return mode.Down
}

// SetVisualBlockDirection sets the visual block growth direction.
func (s *State) SetVisualBlockDirection(d mode.Direction) error {
	if !d.Valid() {
		return Violation("set_visual_block_direction", KeyVisualBlockDirection, fmt.Sprintf("invalid direction %d", d))
	}
	s.put(KeyVisualBlockDirection, d)
	return nil
}

// Mode returns the current mode. An unset mode is Unknown.
func (s *State) Mode() mode.Mode {
	var m mode.Mode
	if s.lookup(KeyMode, &m) && m != "" {
		return m
	}
	return mode.Unknown
}

// SetMode sets the current mode.
func (s *State) SetMode(m mode.Mode) { s.put(KeyMode, m) }

// EnterNormalMode switches to normal mode.
func (s *State) EnterNormalMode() { s.SetMode(mode.Normal) }
// EnterVisualMode switches to characterwise visual mode.
func (s *State) EnterVisualMode() { s.SetMode(mode.Visual) }
// EnterVisualLineMode switches to linewise visual mode.
func (s *State) EnterVisualLineMode() { s.SetMode(mode.VisualLine) }
// EnterVisualBlockMode switches to blockwise visual mode.
func (s *State) EnterVisualBlockMode() { s.SetMode(mode.VisualBlock) }
// EnterInsertMode switches to insert mode.
func (s *State) EnterInsertMode() { s.SetMode(mode.Insert) }
// EnterReplaceMode switches to replace mode.
func (s *State) EnterReplaceMode() { s.SetMode(mode.Replace) }
// EnterSelectMode switches to select mode.
func (s *State) EnterSelectMode() { s.SetMode(mode.Select) }

// InAnyVisualMode reports whether the current mode is a visual mode.
func (s *State) InAnyVisualMode() bool {
	return s.Mode().IsVisual()
}

// CanRunAction reports whether the pending action can run without a motion.
func (s *State) CanRunAction() bool {
	a := s.Action()
	return a != nil && (!a.MotionRequired || s.InAnyVisualMode())
}

// LastCharacterSearch returns the character of the last f, t, F or T.
func (s *State) LastCharacterSearch() string { return s.str(KeyLastCharacterSearch) }
// SetLastCharacterSearch records the character of an in-line search.
func (s *State) SetLastCharacterSearch(c string) { s.put(KeyLastCharacterSearch, c) }
// LastCharacterSearchForward reports whether the last in-line search went forward.
func (s *State) LastCharacterSearchForward() bool { return s.flag(KeyLastCharacterSearchForward) }
// SetLastCharacterSearchForward records the in-line search direction.
func (s *State) SetLastCharacterSearchForward(fwd bool) { s.put(KeyLastCharacterSearchForward, fwd) }
// LastBufferSearch returns the last / or ? pattern.
func (s *State) LastBufferSearch() string { return s.str(KeyLastBufferSearch) }
// SetLastBufferSearch records a / or ? pattern.
func (s *State) SetLastBufferSearch(pattern string) { s.put(KeyLastBufferSearch, pattern) }

// LastMacro returns the register of the last recorded or played macro.
func (s *State) LastMacro() string { return s.str(KeyLastMacro) }

// SetLastMacro records the last macro register. An empty name clears it.
func (s *State) SetLastMacro(reg string) {
	if reg == "" {
		s.put(KeyLastMacro, nil)
		return
	}
	s.put(KeyLastMacro, reg)
}

// RecordingMacro reports whether a macro is being recorded.
func (s *State) RecordingMacro() bool { return s.flag(KeyRecordingMacro) }
// SetRecordingMacro mirrors the macro recorder state.
func (s *State) SetRecordingMacro(v bool) { s.put(KeyRecordingMacro, v) }

// RepeatData returns the last repeatable command, or nil.
func (s *State) RepeatData() *RepeatData {
	var rd RepeatData
	if s.lookup(KeyRepeatData, &rd) {
		return &rd
	}
	return nil
}

// SetRepeatData records the last repeatable command. Nil clears it.
func (s *State) SetRepeatData(rd *RepeatData) {
	if rd == nil {
		s.put(KeyRepeatData, nil)
		return
	}
	s.debug("repeat data: %s %q %s", rd.Kind, rd.Sequence, rd.Mode)
	s.put(KeyRepeatData, *rd)
}

// GlueUntilNormalMode reports whether edits are grouped until normal mode.
func (s *State) GlueUntilNormalMode() bool { return s.flag(KeyGlueUntilNormalMode) }
// SetGlueUntilNormalMode asks for edits to be grouped until normal mode.
func (s *State) SetGlueUntilNormalMode(v bool) { s.put(KeyGlueUntilNormalMode, v) }
// GluingSequence reports whether an enclosing sequence groups the edits.
func (s *State) GluingSequence() bool { return s.flag(KeyGluingSequence) }
// SetGluingSequence marks an enclosing sequence that groups the edits.
func (s *State) SetGluingSequence(v bool) { s.put(KeyGluingSequence, v) }
// NonInteractive reports whether commands are run by a script rather than typed.
func (s *State) NonInteractive() bool { return s.flag(KeyNonInteractive) }
// SetNonInteractive marks commands as run by a script.
func (s *State) SetNonInteractive(v bool) { s.put(KeyNonInteractive, v) }
// SetResetDuringInit sets whether bootstrap may reset the command state.
func (s *State) SetResetDuringInit(v bool) { s.put(KeyResetDuringInit, v) }

// ResetDuringInit reports whether bootstrap may reset the command state.
// Anything but a stored boolean reads as true.
func (s *State) ResetDuringInit() bool {
	raw, ok := s.windowStore.Get(KeyResetDuringInit)
	if !ok {
		return true
	}
	v, isBool := raw.(bool)
	if !isBool {
		return true
	}
	return v
}

// Count returns the effective count of the pending command: the action
// count times the motion count, each defaulting to 1.
func (s *State) Count() (int, error) {
	ac, mc := s.ActionCount(), s.MotionCount()
	if ac != "" && !isDigits(ac) {
		return 0, Violation("count", KeyActionCount, "action count must be a digit")
	}
	if mc != "" && !isDigits(mc) {
		return 0, Violation("count", KeyMotionCount, "motion count must be a digit")
	}

	a, err := countValue(KeyActionCount, ac)
	if err != nil {
		return 0, err
	}
	m, err := countValue(KeyMotionCount, mc)
	if err != nil {
		return 0, err
	}
	if a > math.MaxInt/m {
		return 0, Violation("count", "", "count is too large")
	}
	return a * m, nil
}

// ResetSequence clears the full key sequence.
func (s *State) ResetSequence() { s.SetSequence("") }

// ResetPartialSequence clears the unresolved keys.
func (s *State) ResetPartialSequence() { s.SetPartialSequence("") }

// ResetUserInput drops outstanding parsers and collected input.
func (s *State) ResetUserInput() {
	s.SetInputParsers(nil)
	s.SetUserInput("")
}

// ResetRegisterData restores the unnamed register and ends capture.
func (s *State) ResetRegisterData() {
	s.put(KeyRegister, DefaultRegister)
	s.SetCaptureRegister(false)
}

// ResetCommandData clears everything needed to build a command.
// Window-scoped history is left alone.
func (s *State) ResetCommandData() {
	s.updateXpos()
	if m := s.Motion(); m != nil && m.ScrollIntoView {
		s.scrollIntoView()
	}
	s.SetAction(nil)
	s.SetMotion(nil)
	s.SetActionCount("")
	s.SetMotionCount("")

	s.ResetSequence()
	s.ResetPartialSequence()
	s.ResetUserInput()
	s.ResetRegisterData()
}

// ResetVolatileData resets data that must not survive a new session.
func (s *State) ResetVolatileData() {
	s.SetGlueUntilNormalMode(false)
	if s.undo != nil {
		s.undo.ClearGroupingMarkers()
	}
	s.SetGluingSequence(false)
	s.SetNonInteractive(false)
	s.SetResetDuringInit(true)
}

func (s *State) updateXpos() {
	m := s.Motion()
	if m == nil || !m.UpdatesXpos {
		return
	}
	if s.buf == nil {
		s.warn("cannot update xpos: no view attached")
		return
	}
	primary, ok := view.Primary(s.buf)
	if !ok {
		s.warn("cannot update xpos: no selection")
		return
	}
	_, col := s.buf.RowCol(primary.B)
	s.put(KeyXpos, col)
}

func (s *State) scrollIntoView() {
	if s.buf == nil {
		return
	}
	// Show the first caret without its surroundings.
	if primary, ok := view.Primary(s.buf); ok {
		s.buf.Show(view.Point(primary.B))
	}
}

// StatusLine returns the mode label followed by the key sequence.
func (s *State) StatusLine() string {
	return strings.TrimSpace(s.Mode().StatusLabel() + " " + s.Sequence())
}

func (s *State) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *State) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// countValue parses one digit count. Empty and zero counts are 1.
func countValue(key, digits string) (int, error) {
	if digits == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, Violation("count", key, "count is too large")
	}
	if n == 0 {
		return 1, nil
	}
	return n, nil
}
