package parser

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(Parser{}); !errors.Is(err, ErrInvalidParser) {
		t.Errorf("Register(empty) error = %v, want ErrInvalidParser", err)
	}
	if err := r.Register(Parser{Name: "p", Delivery: ViaPanel}); !errors.Is(err, ErrInvalidParser) {
		t.Errorf("Register(panel without command) error = %v, want ErrInvalidParser", err)
	}
	if err := r.Register(Parser{Name: "p"}); err != nil {
		t.Fatalf("Register(p) error = %v", err)
	}
	if err := r.Register(Parser{Name: "p"}); !errors.Is(err, ErrDuplicateParser) {
		t.Errorf("Register(p) again error = %v, want ErrDuplicateParser", err)
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
}

func TestBuiltin(t *testing.T) {
	r := Builtin()

	want := []string{MacroRecord, OneChar, RegisterName, MacroPlay, SearchBwd, SearchFwd}
	got := r.List()
	if len(got) != len(want) {
		t.Fatalf("List() = %v", got)
	}

	tests := []struct {
		name     string
		delivery Delivery
		panel    string
	}{
		{OneChar, Immediate, ""},
		{RegisterName, Immediate, ""},
		{MacroRecord, Immediate, ""},
		{MacroPlay, Immediate, ""},
		{SearchFwd, ViaPanel, "_vi_slash_panel"},
		{SearchBwd, ViaPanel, "_vi_question_panel"},
	}

	for _, tt := range tests {
		p, ok := r.Get(tt.name)
		if !ok {
			t.Errorf("Get(%s) not found", tt.name)
			continue
		}
		if p.Delivery != tt.delivery {
			t.Errorf("%s.Delivery = %v, want %v", tt.name, p.Delivery, tt.delivery)
		}
		if p.Panel != tt.panel {
			t.Errorf("%s.Panel = %q, want %q", tt.name, p.Panel, tt.panel)
		}
	}
}

func TestBuiltinValidation(t *testing.T) {
	r := Builtin()

	tests := []struct {
		parser string
		input  string
		want   bool
	}{
		{OneChar, "x", true},
		{OneChar, "<space>", true},
		{OneChar, "<lt>", true},
		{OneChar, "", false},
		{OneChar, "xy", false},
		{RegisterName, "a", true},
		{RegisterName, "+", true},
		{RegisterName, "_", true},
		{RegisterName, "!", false},
		{RegisterName, "ab", false},
		{MacroRecord, "q", true},
		{MacroRecord, "Q", true},
		{MacroRecord, "+", false},
		{MacroPlay, "@", true},
		{MacroPlay, ":", true},
		{MacroPlay, "-", false},
		{SearchFwd, "foo", true},
		{SearchFwd, "", false},
	}

	for _, tt := range tests {
		p, _ := r.Get(tt.parser)
		if got := p.Accepts(tt.input); got != tt.want {
			t.Errorf("%s.Accepts(%q) = %v, want %v", tt.parser, tt.input, got, tt.want)
		}
	}
}

func TestFinish(t *testing.T) {
	r := Builtin()

	oneChar, _ := r.Get(OneChar)
	if got := oneChar.Finish("<space>"); got != " " {
		t.Errorf("one_char.Finish(<space>) = %q, want space", got)
	}

	reg, _ := r.Get(RegisterName)
	if got := reg.Finish("a"); got != "a" {
		t.Errorf("register.Finish(a) = %q, want a", got)
	}
}

func TestTranslateKey(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"a", "a"},
		{"<space>", " "},
		{"<SPACE>", " "},
		{"<lt>", "<"},
		{"<cr>", "\n"},
		{"<tab>", "\t"},
		{"foo<space>bar<cr>", "foo bar\n"},
		{"<unknown>", "<unknown>"},
		{"a<b", "a<b"},
		{"<", "<"},
	}

	for _, tt := range tests {
		if got := TranslateKey(tt.input); got != tt.want {
			t.Errorf("TranslateKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDeliveryString(t *testing.T) {
	got := []string{Immediate.String(), ViaPanel.String(), Delivery(9).String()}
	want := []string{"immediate", "via_panel", "unknown"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("String() = %v, want %v", got, want)
	}
}
