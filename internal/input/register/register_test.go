package register

import (
	"errors"
	"testing"
)

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) ReadAll() (string, error) { return f.text, f.err }

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

func get(t *testing.T, s *Store, name rune) Content {
	t.Helper()
	c, err := s.Get(name)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", name, err)
	}
	return c
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name rune
		want Kind
	}{
		{'"', KindUnnamed},
		{'a', KindNamed},
		{'Q', KindNamed},
		{'0', KindYank},
		{'7', KindNumbered},
		{'-', KindSmallDelete},
		{'_', KindBlackHole},
		{'/', KindReadOnly},
		{'+', KindClipboard},
		{'!', KindInvalid},
	}
	for _, tt := range tests {
		if got := KindOf(tt.name); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSetAppend(t *testing.T) {
	s := NewStore()
	if err := s.Set('a', Content{Text: "foo"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set('A', Content{Text: "bar"}); err != nil {
		t.Fatalf("Set(A) error = %v", err)
	}
	if got := get(t, s, 'a'); got.Text != "foobar" {
		t.Errorf("Get(a) = %q, want foobar", got.Text)
	}

	_ = s.Set('l', Content{Text: "one", Linewise: true})
	_ = s.Set('L', Content{Text: "two"})
	if got := get(t, s, 'l'); got.Text != "one\ntwo" || !got.Linewise {
		t.Errorf("Get(l) = %+v", got)
	}
}

func TestSetErrors(t *testing.T) {
	s := NewStore()
	if err := s.Set('/', Content{Text: "x"}); !errors.Is(err, ErrRegister) {
		t.Errorf("Set(/) error = %v, want %v", err, ErrRegister)
	}
	if err := s.Set('!', Content{Text: "x"}); !errors.Is(err, ErrRegister) {
		t.Errorf("Set(!) error = %v", err)
	}
	if _, err := s.Get('!'); !errors.Is(err, ErrRegister) {
		t.Errorf("Get(!) error = %v", err)
	}
	if err := s.Set('_', Content{Text: "x"}); err != nil {
		t.Errorf("Set(_) error = %v", err)
	}
	if got := get(t, s, '_'); got.Text != "" {
		t.Errorf("black hole register holds %q", got.Text)
	}
}

func TestYank(t *testing.T) {
	s := NewStore()
	_ = s.Yank(0, Content{Text: "word"})
	if get(t, s, '0').Text != "word" || get(t, s, Unnamed).Text != "word" {
		t.Error("Yank() should fill 0 and the unnamed register")
	}

	_ = s.Yank('b', Content{Text: "other"})
	if get(t, s, 'b').Text != "other" || get(t, s, Unnamed).Text != "other" {
		t.Error("Yank(b) should fill b and the unnamed register")
	}
	if get(t, s, '0').Text != "word" {
		t.Error("Yank(b) should leave register 0 alone")
	}
}

func TestDelete(t *testing.T) {
	s := NewStore()
	_ = s.Delete(0, Content{Text: "x"})
	if get(t, s, '-').Text != "x" {
		t.Error("small deletes go to -")
	}

	_ = s.Delete(0, Content{Text: "first", Linewise: true})
	_ = s.Delete(0, Content{Text: "a\nb"})
	if get(t, s, '1').Text != "a\nb" || get(t, s, '2').Text != "first" {
		t.Errorf("numbered registers = %q, %q", get(t, s, '1').Text, get(t, s, '2').Text)
	}
	if get(t, s, Unnamed).Text != "a\nb" {
		t.Error("Delete() should fill the unnamed register")
	}

	_ = s.Delete('_', Content{Text: "gone"})
	if get(t, s, Unnamed).Text != "a\nb" {
		t.Error("black hole deletes must not touch the unnamed register")
	}
}

func TestDeleteRotation(t *testing.T) {
	s := NewStore()
	for _, text := range []string{"1\n", "2\n", "3\n", "4\n", "5\n", "6\n", "7\n", "8\n", "9\n", "10\n"} {
		_ = s.Delete(0, Content{Text: text})
	}
	if got := get(t, s, '1').Text; got != "10\n" {
		t.Errorf("Get(1) = %q, want 10", got)
	}
	if got := get(t, s, '9').Text; got != "2\n" {
		t.Errorf("Get(9) = %q, want 2", got)
	}
}

func TestClipboard(t *testing.T) {
	cb := &fakeClipboard{}
	s := NewStore(WithClipboard(cb))

	if err := s.Set('+', Content{Text: "shared"}); err != nil {
		t.Fatalf("Set(+) error = %v", err)
	}
	if cb.text != "shared" {
		t.Errorf("clipboard = %q, want shared", cb.text)
	}
	cb.text = "external"
	if got := get(t, s, '*'); got.Text != "external" {
		t.Errorf("Get(*) = %q, want external", got.Text)
	}

	boom := errors.New("no display")
	cb.err = boom
	if _, err := s.Get('+'); !errors.Is(err, boom) || !errors.Is(err, ErrRegister) {
		t.Errorf("Get(+) error = %v, want %v", err, boom)
	}
}

func TestReadOnly(t *testing.T) {
	s := NewStore()
	if err := s.SetReadOnly('/', "needle"); err != nil {
		t.Fatalf("SetReadOnly() error = %v", err)
	}
	if get(t, s, '/').Text != "needle" {
		t.Error("SetReadOnly() did not store the text")
	}
	if err := s.SetReadOnly('a', "x"); !errors.Is(err, ErrRegister) {
		t.Errorf("SetReadOnly(a) error = %v", err)
	}
}
