package app

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/vintage/internal/catalog"
	"github.com/dshills/vintage/internal/dispatcher"
	"github.com/dshills/vintage/internal/dispatcher/handler"
	"github.com/dshills/vintage/internal/input/keys"
	"github.com/dshills/vintage/internal/input/mode"
	"github.com/dshills/vintage/internal/input/register"
	"github.com/dshills/vintage/internal/session"
	"github.com/dshills/vintage/internal/view"
)

// Execution commands implemented by the application.
const (
	CmdEnterInsert = "_enter_insert_mode"
	CmdEnterNormal = keys.EnterNormalCommand
	CmdInsertText  = keys.InsertTextCommand
)

var motionCommands = []string{"_vi_j", "_vi_k", "_vi_w", "_vi_dollar", "_vi_find_in_line", "_vi_slash"}

type operator int

const (
	opDelete operator = iota
	opYank
)

// registerHandlers registers every execution command with d.
func (a *Application) registerHandlers(d *dispatcher.Dispatcher) {
	for _, name := range motionCommands {
		d.RegisterFunc(name, a.handleMotion)
	}
	d.RegisterFunc("_vi_d", a.operatorHandler(opDelete))
	d.RegisterFunc("_vi_y", a.operatorHandler(opYank))
	d.RegisterFunc("_vi_x", a.handleDeleteChar)
	d.RegisterFunc("_vi_u", a.handleUndo)
	d.RegisterFunc("_vi_q", a.handleRecordMacro)
	d.RegisterFunc("_vi_at", a.handlePlayMacro)
	d.RegisterFunc("_vi_dot", a.handleRepeat)
	d.RegisterFunc(CmdEnterInsert, a.handleEnterInsert)
	d.RegisterFunc(CmdEnterNormal, a.handleEnterNormal)
	d.RegisterFunc(CmdInsertText, a.handleInsertText)
}

func modeArg(args catalog.Args) mode.Mode {
	switch m := args["mode"].(type) {
	case mode.Mode:
		return m
	case string:
		if parsed, ok := mode.Parse(m); ok {
			return parsed
		}
	}
	return mode.Normal
}

// registerArg returns the register named in args, or 0 for the default.
func registerArg(args catalog.Args) rune {
	name := args.StringOr("register", "")
	if name == "" || name == session.DefaultRegister {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(name)
	return r
}

func (a *Application) handleMotion(cmd handler.Command) handler.Result {
	b := a.buffers.Active()
	if b == nil {
		return handler.Error(ErrNoActiveBuffer)
	}
	m := modeArg(cmd.Args)
	v := b.View
	inv := catalog.Invocation{Command: cmd.Name, Args: cmd.Args}

	sels := v.Selections()
	moved := false
	for i, s := range sels {
		res, ok := resolveMotion(v, s.B, inv)
		if !ok {
			continue
		}
		moved = true
		if m.IsVisual() {
			sels[i] = view.Region{A: s.A, B: res.target}
		} else {
			sels[i] = view.Point(caretFor(v, res.target))
		}
	}
	if !moved {
		return handler.NoOpWithMessage(cmd.Name + ": no match")
	}
	v.SetSelections(sels...)
	return handler.Success()
}

func (a *Application) operatorHandler(op operator) func(handler.Command) handler.Result {
	return func(cmd handler.Command) handler.Result {
		b := a.buffers.Active()
		if b == nil {
			return handler.Error(ErrNoActiveBuffer)
		}
		m := modeArg(cmd.Args)
		v := b.View

		var regions []view.Region
		lines := false
		if m.IsVisual() {
			for _, s := range v.Selections() {
				r := view.Region{A: s.Begin(), B: s.End()}
				if m == mode.VisualLine {
					r = linewise(v, r)
					lines = true
				}
				regions = append(regions, r)
			}
		} else {
			inv, ok := cmd.Args["motion"].(catalog.Invocation)
			if !ok {
				return handler.Errorf("%s: missing motion", cmd.Name)
			}
			for _, s := range v.Selections() {
				res, ok := resolveMotion(v, s.B, inv)
				if !ok {
					continue
				}
				lines = lines || res.linewise
				regions = append(regions, operatorRegion(v, s.B, res))
			}
		}
		if len(regions) == 0 {
			return handler.NoOpWithMessage(cmd.Name + ": nothing to operate on")
		}

		result := handler.Success()
		if m.IsVisual() {
			result = result.WithModeChange(mode.Normal)
		}
		content := register.Content{Text: regionText(v, regions), Linewise: lines}

		if op == opYank {
			if err := a.registers.Yank(registerArg(cmd.Args), content); err != nil {
				return handler.Error(err)
			}
			carets := make([]view.Region, len(regions))
			for i, r := range regions {
				carets[i] = view.Point(r.Begin())
			}
			v.SetSelections(carets...)
			return result
		}

		if err := a.registers.Delete(registerArg(cmd.Args), content); err != nil {
			return handler.Error(err)
		}
		b.undo.record(v)
		eraseRegions(v, regions)
		return result
	}
}

func (a *Application) handleDeleteChar(cmd handler.Command) handler.Result {
	if modeArg(cmd.Args).IsVisual() {
		return a.operatorHandler(opDelete)(cmd)
	}
	b := a.buffers.Active()
	if b == nil {
		return handler.Error(ErrNoActiveBuffer)
	}
	v := b.View
	count := cmd.Args.IntOr("count", 1)

	var regions []view.Region
	for _, s := range v.Selections() {
		end := min(s.B+count, v.Line(s.B).End())
		if end > s.B {
			regions = append(regions, view.Region{A: s.B, B: end})
		}
	}
	if len(regions) == 0 {
		return handler.NoOp()
	}

	content := register.Content{Text: regionText(v, regions)}
	if err := a.registers.Delete(registerArg(cmd.Args), content); err != nil {
		return handler.Error(err)
	}
	b.undo.record(v)
	eraseRegions(v, regions)
	return handler.Success()
}

func (a *Application) handleUndo(cmd handler.Command) handler.Result {
	b := a.buffers.Active()
	if b == nil {
		return handler.Error(ErrNoActiveBuffer)
	}
	if b.undo.undo(b.View, cmd.Args.IntOr("count", 1)) == 0 {
		return handler.NoOpWithMessage("already at oldest change")
	}
	return handler.Success()
}

func (a *Application) handleEnterInsert(cmd handler.Command) handler.Result {
	b := a.buffers.Active()
	if b == nil {
		return handler.Error(ErrNoActiveBuffer)
	}
	if modeArg(cmd.Args).IsVisual() {
		collapse(b.View, func(s view.Region) int { return s.Begin() })
	}
	b.startInsert(!b.State.NonInteractive())
	return handler.Success().WithModeChange(mode.Insert)
}

func (a *Application) handleInsertText(cmd handler.Command) handler.Result {
	b := a.buffers.Active()
	if b == nil {
		return handler.Error(ErrNoActiveBuffer)
	}
	text := cmd.Args.StringOr("characters", "")
	if text == "" {
		return handler.NoOp()
	}
	b.undo.record(b.View)
	if text == keyBackspace {
		backspace(b.View)
		b.trimInserted()
		return handler.Success()
	}
	insertAtCarets(b.View, text)
	b.addInserted(text)
	return handler.Success()
}

// handleEnterNormal leaves any mode for normal mode. Leaving insert mode
// completes the repeat data of the insert with the typed text.
func (a *Application) handleEnterNormal(cmd handler.Command) handler.Result {
	b := a.buffers.Active()
	if b == nil {
		return handler.Error(ErrNoActiveBuffer)
	}
	m := modeArg(cmd.Args)
	fromInit, _ := cmd.Args["from_init"].(bool)
	s, v := b.State, b.View

	switch {
	case m.IsInsertLike():
		text, repeat := b.endInsert()
		if text != "" && !fromInit {
			if n, err := strconv.Atoi(s.NormalInsertCount()); err == nil && n > 1 {
				insertAtCarets(v, strings.Repeat(text, n-1))
			}
			_ = a.registers.SetReadOnly('.', text)
			if rd := s.RepeatData(); repeat && rd != nil && rd.Kind == session.RepeatVi {
				rd.Sequence += text + keys.Escape
				s.SetRepeatData(rd)
			}
		}
		s.SetNormalInsertCount("1")
		if !fromInit {
			collapse(v, func(r view.Region) int {
				if r.B > v.Line(r.B).Begin() {
					return r.B - 1
				}
				return r.B
			})
		}
	case m.IsVisual(), m == mode.Select:
		collapse(v, func(r view.Region) int { return r.B })
	}

	if s.GlueUntilNormalMode() {
		s.SetGlueUntilNormalMode(false)
		if u := s.Undo(); u != nil {
			u.ClearGroupingMarkers()
		}
	}
	return handler.Success().WithModeChange(mode.Normal)
}

func (a *Application) handleRecordMacro(cmd handler.Command) handler.Result {
	name := cmd.Args.StringOr("name", "")
	if name == "" {
		if !a.recorder.IsRecording() {
			return handler.NoOpWithMessage("not recording")
		}
		a.recorder.StopRecording()
		return handler.Success()
	}
	if err := a.recorder.StartRecording(name); err != nil {
		return handler.Error(err)
	}
	return handler.Success().WithMessage("recording @" + name)
}

// handlePlayMacro queues the keys of a macro. They are fed once the
// current key has been processed.
func (a *Application) handlePlayMacro(cmd handler.Command) handler.Result {
	name := cmd.Args.StringOr("name", "")
	if name == "" {
		return handler.Errorf("no macro to play")
	}
	reg, _ := utf8.DecodeRuneInString(name)

	var queued []string
	err := a.player.Play(reg, cmd.Args.IntOr("count", 1), func(k string) error {
		queued = append(queued, k)
		return nil
	})
	if err != nil {
		return handler.Error(err)
	}
	a.enqueue(queued...)
	return handler.Success()
}

// handleRepeat replays the last change. A count replaces the recorded one.
func (a *Application) handleRepeat(cmd handler.Command) handler.Result {
	rd, ok := cmd.Args["repeat_data"].(session.RepeatData)
	if !ok || rd.Sequence == "" {
		return handler.NoOpWithMessage("nothing to repeat")
	}
	if rd.Kind == session.RepeatNative {
		a.dispatcher.Run(rd.Sequence, catalog.Args{"mode": mode.Normal})
		return handler.Success()
	}

	seq := keys.Split(rd.Sequence)
	if count := cmd.Args.IntOr("count", 1); count > 1 {
		seq = append(keys.Split(strconv.Itoa(count)), stripCount(seq)...)
	}

	result := handler.Success()
	if b := a.buffers.Active(); b != nil && rd.Mode.IsVisual() && rd.Visual != nil {
		v := b.View
		if p, ok := view.Primary(v); ok {
			end := p.B + rd.Visual.Chars
			if rd.Visual.Lines > 0 {
				row, _ := v.RowCol(p.B)
				end = v.TextPoint(row+rd.Visual.Lines, rd.Visual.Chars)
			}
			v.SetSelections(view.Region{A: p.B, B: end})
			result = result.WithModeChange(rd.Mode)
		}
	}

	a.enqueue(seq...)
	return result
}

func stripCount(seq []string) []string {
	for len(seq) > 0 && len(seq[0]) == 1 && seq[0][0] >= '0' && seq[0][0] <= '9' {
		seq = seq[1:]
	}
	return seq
}

func regionText(v *view.Memory, regions []view.Region) string {
	parts := make([]string, len(regions))
	for i, r := range regions {
		parts[i] = v.Substr(r)
	}
	return strings.Join(parts, "\n")
}

// eraseRegions erases regions back to front and leaves carets on text.
func eraseRegions(v *view.Memory, regions []view.Region) {
	sorted := append([]view.Region(nil), regions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Begin() > sorted[j].Begin() })
	for _, r := range sorted {
		v.Erase(r)
	}
	collapse(v, func(r view.Region) int { return caretFor(v, r.B) })
}

func insertAtCarets(v *view.Memory, text string) {
	sels := v.Selections()
	sort.Slice(sels, func(i, j int) bool { return sels[i].B > sels[j].B })
	for _, s := range sels {
		v.Insert(s.B, text)
	}
}

// backspace erases the character before every caret.
func backspace(v *view.Memory) {
	sels := v.Selections()
	sort.Slice(sels, func(i, j int) bool { return sels[i].B > sels[j].B })
	for _, s := range sels {
		if s.B > 0 {
			v.Erase(view.Region{A: s.B - 1, B: s.B})
		}
	}
}

// collapse turns every selection into the caret chosen by at.
func collapse(v *view.Memory, at func(view.Region) int) {
	sels := v.Selections()
	for i, s := range sels {
		sels[i] = view.Point(at(s))
	}
	v.SetSelections(sels...)
}
