package resolver

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dshills/vintage/internal/catalog"
	"github.com/dshills/vintage/internal/input/mode"
	"github.com/dshills/vintage/internal/input/parser"
	"github.com/dshills/vintage/internal/session"
	"github.com/dshills/vintage/internal/session/store"
	"github.com/dshills/vintage/internal/view"
)

type call struct {
	command string
	args    catalog.Args
	mode    mode.Mode
}

type fakeSink struct {
	state *session.State
	calls []call
}

func (f *fakeSink) Run(command string, args catalog.Args) {
	c := call{command: command, args: args.Clone()}
	if f.state != nil {
		c.mode = f.state.Mode()
	}
	f.calls = append(f.calls, c)
}

type fakePanel struct {
	opened []string
}

func (p *fakePanel) OpenPanel(pr parser.Parser) { p.opened = append(p.opened, pr.Panel) }

type fakeUndo struct {
	begun int
}

func (u *fakeUndo) BeginGrouping() { u.begun++ }
func (u *fakeUndo) ClearGroupingMarkers() {}

type fixture struct {
	r     *Resolver
	state *session.State
	sink  *fakeSink
	panel *fakePanel
	view  *view.Memory
	undo  *fakeUndo
}

func newFixture(text string) *fixture {
	v := view.NewMemory(text)
	u := &fakeUndo{}
	s := session.New(store.NewMemory(), store.NewMemory(), session.WithView(v), session.WithUndo(u))
	s.EnterNormalMode()

	sink := &fakeSink{state: s}
	panel := &fakePanel{}
	r := New(Config{State: s, Sink: sink, Panel: panel})
	return &fixture{r: r, state: s, sink: sink, panel: panel, view: v, undo: u}
}

var (
	viD   = session.Descriptor{Type: session.Action, Name: "vi_d", MotionRequired: true, Repeatable: true}
	viX   = session.Descriptor{Type: session.Action, Name: "vi_x", Repeatable: true}
	viI   = session.Descriptor{Type: session.Action, Name: "vi_i", Repeatable: true}
	viQ   = session.Descriptor{Type: session.Action, Name: "vi_q", Input: parser.MacroRecord}
	viW   = session.Descriptor{Type: session.Motion, Name: "vi_w"}
	viJ   = session.Descriptor{Type: session.Motion, Name: "vi_j"}
	viF   = session.Descriptor{Type: session.Motion, Name: "vi_f", Input: parser.OneChar}
	viSl  = session.Descriptor{Type: session.Motion, Name: "vi_slash", Input: parser.SearchFwd, ScrollIntoView: true}
	viDol = session.Descriptor{Type: session.Motion, Name: "vi_dollar", UpdatesXpos: true}
)

func assertReset(t *testing.T, s *session.State) {
	t.Helper()
	if s.Action() != nil || s.Motion() != nil {
		t.Error("action and motion should be reset")
	}
	if s.ActionCount() != "" || s.MotionCount() != "" {
		t.Error("counts should be reset")
	}
	if s.Sequence() != "" || s.PartialSequence() != "" {
		t.Error("sequences should be reset")
	}
	if len(s.InputParsers()) != 0 || s.UserInput() != "" {
		t.Error("input should be reset")
	}
	if s.Register() != session.DefaultRegister || s.CaptureRegister() {
		t.Error("register should be reset")
	}
}

func TestDeleteWord(t *testing.T) {
	f := newFixture("one two three four")
	s := f.state
	s.SetSequence("2d3w")
	s.SetActionCount("2")

	if _, err := f.r.SetCommand(viD); err != nil {
		t.Fatalf("SetCommand(vi_d) error = %v", err)
	}
	if s.Mode() != mode.OperatorPending {
		t.Errorf("Mode() = %v, want %v", s.Mode(), mode.OperatorPending)
	}
	if ok, err := f.r.Runnable(); ok || err != nil {
		t.Errorf("Runnable() = %v, %v, want false, nil", ok, err)
	}

	s.SetMotionCount("3")
	if _, err := f.r.SetCommand(viW); err != nil {
		t.Fatalf("SetCommand(vi_w) error = %v", err)
	}
	if s.Mode() != mode.Normal {
		t.Errorf("Mode() = %v, want %v", s.Mode(), mode.Normal)
	}
	if ok, err := f.r.Runnable(); !ok || err != nil {
		t.Errorf("Runnable() = %v, %v, want true, nil", ok, err)
	}

	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}

	if len(f.sink.calls) != 1 {
		t.Fatalf("sink calls = %d, want 1", len(f.sink.calls))
	}
	c := f.sink.calls[0]
	if c.command != "_vi_d" {
		t.Errorf("command = %q, want _vi_d", c.command)
	}
	if c.mode != mode.InternalNormal {
		t.Errorf("mode during dispatch = %v, want %v", c.mode, mode.InternalNormal)
	}
	if c.args["count"] != 1 {
		t.Errorf("action count = %v, want 1", c.args["count"])
	}
	if c.args["mode"] != mode.InternalNormal {
		t.Errorf("action mode = %v, want %v", c.args["mode"], mode.InternalNormal)
	}
	if c.args["register"] != session.DefaultRegister {
		t.Errorf("register = %v, want %q", c.args["register"], session.DefaultRegister)
	}
	motion, ok := c.args["motion"].(catalog.Invocation)
	if !ok {
		t.Fatalf("motion arg = %T, want catalog.Invocation", c.args["motion"])
	}
	if motion.Command != "_vi_w" || motion.Args["count"] != 6 {
		t.Errorf("motion = %v, want _vi_w with count 6", motion)
	}
	if motion.Args["mode"] != mode.InternalNormal {
		t.Errorf("motion mode = %v, want %v", motion.Args["mode"], mode.InternalNormal)
	}

	if s.Mode() != mode.Normal {
		t.Errorf("Mode() after Eval = %v, want %v", s.Mode(), mode.Normal)
	}
	rd := s.RepeatData()
	if rd == nil {
		t.Fatal("RepeatData() = nil")
	}
	want := session.RepeatData{Kind: session.RepeatVi, Sequence: "2d3w", Mode: mode.Normal}
	if rd.Kind != want.Kind || rd.Sequence != want.Sequence || rd.Mode != want.Mode || rd.Visual != nil {
		t.Errorf("RepeatData() = %+v, want %+v", *rd, want)
	}
	assertReset(t, s)
}

func TestNonInteractiveSkipsRepeat(t *testing.T) {
	f := newFixture("one two")
	f.state.SetNonInteractive(true)

	mustSet(t, f.r, viD)
	mustSet(t, f.r, viW)
	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if f.state.RepeatData() != nil {
		t.Error("non-interactive commands must not record repeat data")
	}
}

func mustSet(t *testing.T, r *Resolver, d session.Descriptor) Pending {
	t.Helper()
	p, err := r.SetCommand(d)
	if err != nil {
		t.Fatalf("SetCommand(%s) error = %v", d.Name, err)
	}
	return p
}

func TestSetCommandDuplicates(t *testing.T) {
	f := newFixture("")
	s := f.state

	// An operator waiting for its motion is not runnable, so a second
	// action reaches the duplicate check.
	mustSet(t, f.r, viD)
	_, err := f.r.SetCommand(viX)
	if !errors.Is(err, session.ErrContract) {
		t.Errorf("second action error = %v, want contract violation", err)
	}
	if s.Action().Name != "vi_d" || s.Mode() != mode.OperatorPending {
		t.Error("failed SetCommand must not change state")
	}

	g := newFixture("")
	g.state.EnterVisualMode()
	mustSet(t, g.r, viJ)
	if _, err := g.r.SetCommand(viW); !errors.Is(err, session.ErrContract) {
		t.Errorf("motion after runnable motion error = %v, want contract violation", err)
	}
	if g.state.Motion().Name != "vi_j" {
		t.Errorf("Motion() = %s, want vi_j", g.state.Motion().Name)
	}

	h := newFixture("")
	if _, err := h.r.SetCommand(session.Descriptor{Type: "bogus", Name: "x"}); !errors.Is(err, session.ErrContract) {
		t.Errorf("unknown type error = %v, want contract violation", err)
	}
}

func TestRunnable(t *testing.T) {
	tests := []struct {
		name    string
		mode    mode.Mode
		action  *session.Descriptor
		motion  *session.Descriptor
		want    bool
		wantErr bool
	}{
		{"empty", mode.Normal, nil, nil, false, false},
		{"operator and motion", mode.Normal, &viD, &viW, true, false},
		{"lone action", mode.Normal, &viX, nil, true, false},
		{"operator in visual", mode.Visual, &viD, nil, true, false},
		{"lone motion", mode.Visual, nil, &viW, true, false},
		{"pending operator", mode.OperatorPending, &viD, nil, false, false},
		{"operator and motion outside normal", mode.Visual, &viD, &viW, false, true},
		{"lone action in operator pending", mode.OperatorPending, &viX, nil, false, true},
		{"lone motion in operator pending", mode.OperatorPending, nil, &viW, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("")
			f.state.SetMode(tt.mode)
			f.state.SetAction(tt.action)
			f.state.SetMotion(tt.motion)

			got, err := f.r.Runnable()
			if tt.wantErr != errors.Is(err, session.ErrContract) {
				t.Errorf("Runnable() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Runnable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunnableWaitsForParsers(t *testing.T) {
	f := newFixture("")
	f.state.SetMotion(&viW)
	f.state.PushParser(parser.OneChar)

	if ok, err := f.r.Runnable(); ok || err != nil {
		t.Errorf("Runnable() = %v, %v, want false, nil", ok, err)
	}
}

func TestLoneMotion(t *testing.T) {
	f := newFixture("abc\ndefgh")
	f.state.SetMotionCount("2")
	f.view.SetSelections(view.Point(7))

	mustSet(t, f.r, viDol)
	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}

	if len(f.sink.calls) != 1 || f.sink.calls[0].command != "_vi_dollar" {
		t.Fatalf("sink calls = %+v", f.sink.calls)
	}
	c := f.sink.calls[0]
	if c.args["count"] != 2 || c.args["mode"] != mode.Normal {
		t.Errorf("args = %v", c.args)
	}
	if f.state.Xpos() != 3 {
		t.Errorf("Xpos() = %d, want 3", f.state.Xpos())
	}
	if f.state.RepeatData() != nil {
		t.Error("motions must not record repeat data")
	}
	assertReset(t, f.state)
}

func TestLoneActionNormal(t *testing.T) {
	f := newFixture("abc")
	f.state.SetSequence("x")

	mustSet(t, f.r, viX)
	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}

	c := f.sink.calls[0]
	if c.mode != mode.InternalNormal || c.args["mode"] != mode.InternalNormal {
		t.Errorf("dispatch mode = %v, args mode = %v, want internal normal", c.mode, c.args["mode"])
	}
	if f.state.Mode() != mode.Normal {
		t.Errorf("Mode() = %v, want %v", f.state.Mode(), mode.Normal)
	}
	rd := f.state.RepeatData()
	if rd == nil || rd.Sequence != "x" || rd.Mode != mode.Normal || rd.Visual != nil {
		t.Errorf("RepeatData() = %+v", rd)
	}
	assertReset(t, f.state)
}

func TestLoneActionVisual(t *testing.T) {
	f := newFixture("abc\ndefgh\nij")
	f.state.EnterVisualMode()
	f.state.SetSequence("d")
	sel := view.Region{A: 1, B: 6}
	f.view.SetSelections(sel)

	mustSet(t, f.r, viD)
	if f.state.Mode() != mode.Visual {
		t.Errorf("Mode() = %v, want %v", f.state.Mode(), mode.Visual)
	}
	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}

	if got := f.view.Regions(VisualSelectionKey); len(got) != 1 || got[0] != sel {
		t.Errorf("Regions(%s) = %v, want [%v]", VisualSelectionKey, got, sel)
	}
	if c := f.sink.calls[0]; c.args["mode"] != mode.Visual {
		t.Errorf("args mode = %v, want %v", c.args["mode"], mode.Visual)
	}
	if f.state.Mode() != mode.Visual {
		t.Errorf("Mode() after Eval = %v, want %v", f.state.Mode(), mode.Visual)
	}

	rd := f.state.RepeatData()
	if rd == nil || rd.Mode != mode.Visual || rd.Visual == nil {
		t.Fatalf("RepeatData() = %+v", rd)
	}
	if rd.Visual.Lines != 1 || rd.Visual.Chars != 2 {
		t.Errorf("Visual = %+v, want {Lines:1 Chars:2}", *rd.Visual)
	}
}

func TestVisualRepeatData(t *testing.T) {
	tests := []struct {
		name string
		mode mode.Mode
		sel  view.Region
		want *session.VisualRepeat
	}{
		{"single line", mode.Visual, view.Region{A: 0, B: 3}, &session.VisualRepeat{Lines: 0, Chars: 3}},
		{"two lines", mode.Visual, view.Region{A: 1, B: 6}, &session.VisualRepeat{Lines: 1, Chars: 2}},
		{"reversed", mode.Visual, view.Region{A: 10, B: 2}, &session.VisualRepeat{Lines: 2, Chars: 0}},
		{"visual line", mode.VisualLine, view.Region{A: 0, B: 3}, nil},
		{"normal", mode.Normal, view.Region{A: 0, B: 3}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("abc\ndefgh\nij")
			f.state.SetMode(tt.mode)
			f.view.SetSelections(tt.sel)

			got := f.r.VisualRepeatData()
			if tt.want == nil {
				if got != nil {
					t.Errorf("VisualRepeatData() = %+v, want nil", *got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Errorf("VisualRepeatData() = %+v, want %+v", got, *tt.want)
			}
		})
	}
}

func TestMissingCatalogEntry(t *testing.T) {
	f := newFixture("")
	f.r = New(Config{State: f.state, Catalog: catalog.New(), Sink: f.sink})

	mustSet(t, f.r, viD)
	mustSet(t, f.r, viW)
	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v, want nil", err)
	}
	if len(f.sink.calls) != 0 {
		t.Errorf("sink calls = %d, want 0", len(f.sink.calls))
	}
	if f.state.Mode() != mode.Normal {
		t.Errorf("Mode() = %v, want %v", f.state.Mode(), mode.Normal)
	}
	assertReset(t, f.state)
}

func TestCatalogSeesEntryMode(t *testing.T) {
	f := newFixture("one two")
	var seen []string
	record := func(label, command string) catalog.Func {
		return func(env *catalog.Env) (catalog.Invocation, error) {
			seen = append(seen, label+"@"+string(env.State.Mode()))
			return catalog.Invocation{Command: command, Args: catalog.Args{"mode": env.State.Mode()}}, nil
		}
	}
	c := catalog.New()
	c.RegisterAction("vi_d", record("action", "_vi_d"))
	c.RegisterMotion("vi_w", record("motion", "_vi_w"))
	c.RegisterAction("vi_x", record("lone", "_vi_x"))
	f.r = New(Config{State: f.state, Catalog: c, Sink: f.sink})

	mustSet(t, f.r, viD)
	mustSet(t, f.r, viW)
	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	mustSet(t, f.r, viX)
	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}

	want := []string{"action@mode_normal", "motion@mode_normal", "lone@mode_normal"}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("catalog calls = %v, want %v", seen, want)
	}
	for i, c := range f.sink.calls {
		if c.mode != mode.InternalNormal || c.args["mode"] != mode.InternalNormal {
			t.Errorf("call %d ran in %v with mode arg %v, want %v", i, c.mode, c.args["mode"], mode.InternalNormal)
		}
	}
}

func TestLoneActionVisualKeepsModeArg(t *testing.T) {
	f := newFixture("one two")
	f.state.EnterVisualMode()
	f.view.SetSelections(view.Region{A: 0, B: 3})

	c := catalog.New()
	c.RegisterAction("vi_x", func(env *catalog.Env) (catalog.Invocation, error) {
		return catalog.Invocation{Command: "_vi_x", Args: catalog.Args{"mode": mode.Normal}}, nil
	})
	f.r = New(Config{State: f.state, Catalog: c, Sink: f.sink})

	mustSet(t, f.r, viX)
	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if len(f.sink.calls) != 1 || f.sink.calls[0].args["mode"] != mode.Normal {
		t.Errorf("sink calls = %+v, want the entry's own mode argument", f.sink.calls)
	}
}

func TestCatalogErrorResets(t *testing.T) {
	f := newFixture("")
	f.state.SetActionCount("x")

	mustSet(t, f.r, viX)
	if err := f.r.Eval(); !errors.Is(err, session.ErrContract) {
		t.Errorf("Eval() error = %v, want contract violation", err)
	}
	if len(f.sink.calls) != 0 {
		t.Errorf("sink calls = %d, want 0", len(f.sink.calls))
	}
	if f.state.Mode() != mode.Normal {
		t.Errorf("Mode() = %v, want %v", f.state.Mode(), mode.Normal)
	}
	assertReset(t, f.state)
}

func TestEvalNotRunnable(t *testing.T) {
	f := newFixture("")
	f.state.SetSequence("d")
	mustSet(t, f.r, viD)

	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if len(f.sink.calls) != 0 {
		t.Error("incomplete command must not dispatch")
	}
	if f.state.Action() == nil || f.state.Sequence() != "d" {
		t.Error("incomplete command must be kept")
	}
}

func TestGlueRequest(t *testing.T) {
	f := newFixture("abc")
	mustSet(t, f.r, viI)
	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if f.undo.begun != 1 {
		t.Errorf("BeginGrouping() calls = %d, want 1", f.undo.begun)
	}
	if !f.state.GlueUntilNormalMode() {
		t.Error("GlueUntilNormalMode() should be set by vi_i")
	}
	if f.state.RepeatData() == nil {
		t.Error("vi_i outside a gluing sequence should record repeat data")
	}

	// Inside an enclosing gluing sequence no new group is started and the
	// action is not recorded on its own.
	g := newFixture("abc")
	g.state.SetGluingSequence(true)
	mustSet(t, g.r, viI)
	if err := g.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if g.undo.begun != 0 {
		t.Errorf("BeginGrouping() calls = %d, want 0", g.undo.begun)
	}
	if g.state.RepeatData() != nil {
		t.Error("glued actions must not record repeat data")
	}
}

func TestImmediateParser(t *testing.T) {
	f := newFixture("abc")

	p := mustSet(t, f.r, viF)
	if !p.Waiting() || p.Parser != parser.OneChar || p.ViaPanel {
		t.Errorf("Pending = %+v, want immediate %s", p, parser.OneChar)
	}
	if err := f.r.Eval(); err != nil || len(f.sink.calls) != 0 {
		t.Fatalf("Eval() while waiting dispatched %d calls, err %v", len(f.sink.calls), err)
	}

	p, err := f.r.ResumeCommand(parser.OneChar, "<space>")
	if err != nil || p.Waiting() {
		t.Fatalf("ResumeCommand() = %+v, %v", p, err)
	}
	if len(f.sink.calls) != 1 {
		t.Fatalf("sink calls = %d, want 1", len(f.sink.calls))
	}
	if got := f.sink.calls[0].args["char"]; got != " " {
		t.Errorf("char = %q, want space", got)
	}
	if f.state.LastCharacterSearch() != " " {
		t.Errorf("LastCharacterSearch() = %q", f.state.LastCharacterSearch())
	}
	assertReset(t, f.state)
}

func TestPanelParser(t *testing.T) {
	f := newFixture("abc")
	f.state.SetSequence("/")

	p := mustSet(t, f.r, viSl)
	if !p.Waiting() || !p.ViaPanel {
		t.Errorf("Pending = %+v, want panel", p)
	}
	if len(f.panel.opened) != 1 || f.panel.opened[0] != "_vi_slash_panel" {
		t.Errorf("opened panels = %v", f.panel.opened)
	}
	if f.state.ResetDuringInit() {
		t.Error("ResetDuringInit() should be false while a panel is open")
	}
	if f.state.Motion() == nil || f.state.Sequence() != "/" {
		t.Error("pending command must survive while the panel is open")
	}

	if _, err := f.r.ResumeCommand(parser.SearchFwd, "foo"); err != nil {
		t.Fatalf("ResumeCommand() error = %v", err)
	}
	if !f.state.ResetDuringInit() {
		t.Error("ResetDuringInit() should be restored after resume")
	}
	if len(f.sink.calls) != 1 || f.sink.calls[0].args["search_string"] != "foo" {
		t.Fatalf("sink calls = %+v", f.sink.calls)
	}
	if got := f.view.Shown(); len(got) != 1 {
		t.Errorf("Shown() = %v, want one region", got)
	}
}

func TestResumeCommandErrors(t *testing.T) {
	f := newFixture("abc")
	mustSet(t, f.r, viD)
	mustSet(t, f.r, viF)

	if _, err := f.r.ResumeCommand(parser.RegisterName, "a"); !errors.Is(err, session.ErrContract) {
		t.Errorf("ResumeCommand(wrong parser) error = %v, want contract violation", err)
	}
	if f.state.Action() == nil {
		t.Error("wrong parser must not abort the command")
	}

	if _, err := f.r.ResumeCommand(parser.OneChar, ""); err != nil {
		t.Errorf("ResumeCommand(empty) error = %v", err)
	}
	if len(f.sink.calls) != 0 {
		t.Error("cancelled input must not dispatch")
	}
	if f.state.Mode() != mode.Normal {
		t.Errorf("Mode() = %v, want %v", f.state.Mode(), mode.Normal)
	}
	assertReset(t, f.state)
}

func TestCancelInput(t *testing.T) {
	f := newFixture("abc")
	mustSet(t, f.r, viSl)

	f.r.CancelInput()
	if !f.state.ResetDuringInit() {
		t.Error("ResetDuringInit() should be restored on cancel")
	}
	assertReset(t, f.state)
}

func TestMacroRecordWhileRecording(t *testing.T) {
	f := newFixture("")
	f.state.SetRecordingMacro(true)

	p := mustSet(t, f.r, viQ)
	if p.Waiting() {
		t.Errorf("Pending = %+v, want none while recording", p)
	}
	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if len(f.sink.calls) != 1 || f.sink.calls[0].command != "_vi_q" {
		t.Fatalf("sink calls = %+v", f.sink.calls)
	}
	if f.sink.calls[0].args["name"] != "" {
		t.Errorf("name = %v, want empty", f.sink.calls[0].args["name"])
	}

	g := newFixture("")
	if p := mustSet(t, g.r, viQ); p.Parser != parser.MacroRecord {
		t.Errorf("Pending = %+v, want %s", p, parser.MacroRecord)
	}
}

func TestSetRegister(t *testing.T) {
	f := newFixture("")
	f.r.CaptureRegister()
	if !f.state.CaptureRegister() {
		t.Fatal("CaptureRegister() should be set")
	}

	if err := f.r.SetRegister("ab"); !errors.Is(err, session.ErrContract) {
		t.Errorf("SetRegister(ab) error = %v, want contract violation", err)
	}
	if err := f.r.SetRegister("a"); err != nil {
		t.Fatalf("SetRegister(a) error = %v", err)
	}
	if f.state.Register() != "a" || f.state.CaptureRegister() {
		t.Errorf("Register() = %q, capture = %v", f.state.Register(), f.state.CaptureRegister())
	}

	mustSet(t, f.r, viX)
	if err := f.r.Eval(); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if got := f.sink.calls[0].args["register"]; got != "a" {
		t.Errorf("register = %v, want a", got)
	}
	if f.state.Register() != session.DefaultRegister {
		t.Error("register should reset after the command")
	}
}

func TestAbort(t *testing.T) {
	f := newFixture("")
	mustSet(t, f.r, viD)

	f.r.Abort()
	if f.state.Mode() != mode.Normal {
		t.Errorf("Mode() = %v, want %v", f.state.Mode(), mode.Normal)
	}
	assertReset(t, f.state)

	g := newFixture("")
	g.state.EnterInsertMode()
	g.r.Abort()
	if g.state.Mode() != mode.Insert {
		t.Errorf("Abort() changed mode to %v", g.state.Mode())
	}
}
