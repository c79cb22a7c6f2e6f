package macro

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

type fakeMirror struct {
	recording bool
	last      string
}

func (m *fakeMirror) SetRecordingMacro(v bool) { m.recording = v }
func (m *fakeMirror) SetLastMacro(reg string)  { m.last = reg }

func record(t *testing.T, r *Recorder, reg string, keys ...string) {
	t.Helper()
	if err := r.StartRecording(reg); err != nil {
		t.Fatalf("StartRecording(%q) error = %v", reg, err)
	}
	for _, k := range keys {
		r.Record(k)
	}
	r.StopRecording()
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		r    rune
		want rune
	}{
		{'a', 'a'},
		{'z', 'z'},
		{'A', 'a'},
		{'5', '5'},
		{'"', '"'},
		{'+', 0},
		{'@', 0},
	}
	for _, tt := range tests {
		if got := NormalizeRegister(tt.r); got != tt.want {
			t.Errorf("NormalizeRegister(%q) = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	m := &fakeMirror{}
	r.SetMirror(m)

	if err := r.StartRecording("q"); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	if !r.IsRecording() || !m.recording {
		t.Error("recording should be mirrored")
	}
	if r.CurrentRegister() != 'q' {
		t.Errorf("CurrentRegister() = %q, want q", r.CurrentRegister())
	}
	if err := r.StartRecording("w"); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("nested StartRecording() error = %v, want %v", err, ErrAlreadyRecording)
	}

	r.Record("d")
	r.Record("w")
	got := r.StopRecording()
	if !reflect.DeepEqual(got, []string{"d", "w"}) {
		t.Errorf("StopRecording() = %v", got)
	}
	if m.recording || m.last != "q" {
		t.Errorf("mirror = %+v, want stopped with last q", m)
	}
	if !reflect.DeepEqual(r.Get('q'), []string{"d", "w"}) {
		t.Errorf("Get(q) = %v", r.Get('q'))
	}
	if r.StopRecording() != nil {
		t.Error("StopRecording() while idle should return nil")
	}
}

func TestRecorderAppend(t *testing.T) {
	r := NewRecorder()
	record(t, r, "a", "x")
	record(t, r, "A", "j", "x")

	if got := r.Get('a'); !reflect.DeepEqual(got, []string{"x", "j", "x"}) {
		t.Errorf("Get(a) = %v", got)
	}
}

func TestRecorderInvalid(t *testing.T) {
	r := NewRecorder()
	for _, name := range []string{"", "ab", "+"} {
		if err := r.StartRecording(name); !errors.Is(err, ErrInvalidRegister) {
			t.Errorf("StartRecording(%q) error = %v, want %v", name, err, ErrInvalidRegister)
		}
	}
	if err := r.Set('%', []string{"x"}); !errors.Is(err, ErrInvalidRegister) {
		t.Errorf("Set(%%) error = %v", err)
	}
}

func TestRecorderRegisters(t *testing.T) {
	r := NewRecorder()
	_ = r.Set('c', []string{"x"})
	_ = r.Set('a', []string{"x"})
	_ = r.Set('b', nil)

	if got := r.Registers(); !reflect.DeepEqual(got, []rune{'a', 'c'}) {
		t.Errorf("Registers() = %q", got)
	}
	if r.HasMacro('b') {
		t.Error("HasMacro(b) = true for an empty register")
	}
}

func TestPlayer(t *testing.T) {
	r := NewRecorder()
	m := &fakeMirror{}
	r.SetMirror(m)
	record(t, r, "q", "j", "x")
	p := NewPlayer(r)

	var played []string
	handler := func(k string) error {
		played = append(played, k)
		return nil
	}

	if err := p.Play('q', 2, handler); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if want := []string{"j", "x", "j", "x"}; !reflect.DeepEqual(played, want) {
		t.Errorf("played = %v, want %v", played, want)
	}
	if r.LastPlayed() != 'q' || m.last != "q" {
		t.Errorf("LastPlayed() = %q", r.LastPlayed())
	}

	played = nil
	if err := p.Play('@', 0, handler); err != nil {
		t.Fatalf("Play(@) error = %v", err)
	}
	if len(played) != 2 {
		t.Errorf("Play(@) replayed %d keys, want 2", len(played))
	}
}

func TestPlayerErrors(t *testing.T) {
	r := NewRecorder()
	p := NewPlayer(r)
	noop := func(string) error { return nil }

	if err := p.Play('@', 1, noop); !errors.Is(err, ErrNothingPlayed) {
		t.Errorf("Play(@) error = %v, want %v", err, ErrNothingPlayed)
	}
	if err := p.Play('a', 1, noop); !errors.Is(err, ErrEmptyRegister) {
		t.Errorf("Play(empty) error = %v, want %v", err, ErrEmptyRegister)
	}
	if err := p.Play('+', 1, noop); !errors.Is(err, ErrInvalidRegister) {
		t.Errorf("Play(+) error = %v, want %v", err, ErrInvalidRegister)
	}

	_ = r.Set('a', []string{"@", "a"})
	nested := func(k string) error {
		if k == "a" {
			return p.Play('a', 1, noop)
		}
		return nil
	}
	if err := p.Play('a', 1, nested); !errors.Is(err, ErrAlreadyPlaying) {
		t.Errorf("recursive Play() error = %v, want %v", err, ErrAlreadyPlaying)
	}
	if p.IsPlaying() {
		t.Error("IsPlaying() = true after playback ended")
	}

	boom := errors.New("boom")
	if err := p.Play('a', 1, func(string) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Play() error = %v, want %v", err, boom)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "macros.yaml")

	r := NewRecorder()
	record(t, r, "q", "d", "w")
	_ = r.Set('1', []string{"<esc>"})
	r.SetLastPlayed('q')

	if err := Save(r, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := NewRecorder()
	if err := Load(loaded, path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(loaded.Get('q'), []string{"d", "w"}) || !reflect.DeepEqual(loaded.Get('1'), []string{"<esc>"}) {
		t.Errorf("loaded registers = %q", loaded.Registers())
	}
	if loaded.LastPlayed() != 'q' {
		t.Errorf("LastPlayed() = %q, want q", loaded.LastPlayed())
	}

	if err := LoadOrCreate(NewRecorder(), filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Errorf("LoadOrCreate(missing) error = %v", err)
	}
}

func TestImportMerge(t *testing.T) {
	r := NewRecorder()
	_ = r.Set('a', []string{"x"})

	raw := []byte("version: 1\nmacros:\n  - register: b\n    keys: [j, k]\n")
	if err := Import(r, raw, true); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !r.HasMacro('a') || !r.HasMacro('b') {
		t.Errorf("Registers() = %q, want a and b", r.Registers())
	}

	if err := Import(r, raw, false); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if r.HasMacro('a') {
		t.Error("Import without merge should drop existing macros")
	}

	if err := Import(r, []byte("version: 9\n"), false); err == nil {
		t.Error("Import(future version) error = nil")
	}
	if err := Import(r, []byte("macros:\n  - register: '+'\n    keys: [x]\n"), false); !errors.Is(err, ErrInvalidRegister) {
		t.Errorf("Import(bad register) error = %v", err)
	}
}
