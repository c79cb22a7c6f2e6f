package dispatcher_test

import (
	"errors"
	"testing"

	"github.com/dshills/vintage/internal/catalog"
	"github.com/dshills/vintage/internal/dispatcher"
	"github.com/dshills/vintage/internal/dispatcher/handler"
	"github.com/dshills/vintage/internal/input/mode"
)

type modeRecorder struct {
	modes []mode.Mode
}

func (r *modeRecorder) SetMode(m mode.Mode) { r.modes = append(r.modes, m) }

func TestNewWithDefaults(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	if d.Registry() == nil {
		t.Error("expected non-nil registry")
	}
	if d.Metrics() != nil {
		t.Error("expected nil metrics by default")
	}

	d = dispatcher.New(dispatcher.DefaultConfig().WithMetrics())
	if d.Metrics() == nil {
		t.Error("expected non-nil metrics when enabled")
	}
}

func TestDispatchNoHandler(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	result := d.Dispatch("_vi_nothing", nil)
	if result.Status != handler.StatusError {
		t.Errorf("expected StatusError for unknown command, got %v", result.Status)
	}
	if !errors.Is(result.Error, dispatcher.ErrNoHandler) {
		t.Errorf("expected ErrNoHandler, got %v", result.Error)
	}

	result = d.Dispatch("", nil)
	if !errors.Is(result.Error, dispatcher.ErrInvalidCommand) {
		t.Errorf("expected ErrInvalidCommand, got %v", result.Error)
	}
}

func TestDispatchPassesArgs(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	var got handler.Command
	d.RegisterFunc("_vi_w", func(cmd handler.Command) handler.Result {
		got = cmd
		return handler.Success()
	})

	result := d.Dispatch("_vi_w", catalog.Args{"count": 3, "mode": mode.Normal})
	if !result.IsOK() {
		t.Fatalf("expected StatusOK, got %v", result.Status)
	}
	if got.Name != "_vi_w" || got.Args.IntOr("count", 0) != 3 {
		t.Errorf("handler received %+v", got)
	}
}

func TestDispatchPriority(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	var called string
	d.Register("_vi_x", handler.NewFuncWithPriority(func(cmd handler.Command) handler.Result {
		called = "low"
		return handler.Success()
	}, 0))
	d.Register("_vi_x", handler.NewFuncWithPriority(func(cmd handler.Command) handler.Result {
		called = "high"
		return handler.Success()
	}, 10))

	d.Run("_vi_x", nil)
	if called != "high" {
		t.Errorf("expected high priority handler, got %s", called)
	}
}

func TestDispatchModeChange(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	rec := &modeRecorder{}
	d.SetModeSetter(rec)

	d.RegisterFunc("_enter_normal_mode", func(cmd handler.Command) handler.Result {
		return handler.Success().WithModeChange(mode.Normal)
	})
	d.RegisterFunc("_vi_j", func(cmd handler.Command) handler.Result {
		return handler.Success()
	})

	d.Run("_enter_normal_mode", nil)
	d.Run("_vi_j", nil)

	if len(rec.modes) != 1 || rec.modes[0] != mode.Normal {
		t.Errorf("mode changes = %v, want [mode_normal]", rec.modes)
	}
}

func TestDispatchPanicRecovery(t *testing.T) {
	d := dispatcher.New(dispatcher.DefaultConfig().WithMetrics())
	d.RegisterFunc("_vi_boom", func(cmd handler.Command) handler.Result {
		panic("boom")
	})

	result := d.Dispatch("_vi_boom", nil)
	if !errors.Is(result.Error, dispatcher.ErrPanic) {
		t.Errorf("expected ErrPanic, got %v", result.Error)
	}
	if d.Metrics().TotalPanics() != 1 {
		t.Errorf("TotalPanics() = %d, want 1", d.Metrics().TotalPanics())
	}
}

func TestDispatchClampsCount(t *testing.T) {
	d := dispatcher.New(dispatcher.DefaultConfig().WithMaxRepeatCount(5))

	var count int
	d.RegisterFunc("_vi_j", func(cmd handler.Command) handler.Result {
		count = cmd.Args.IntOr("count", 0)
		return handler.Success()
	})

	args := catalog.Args{"count": 50}
	d.Run("_vi_j", args)

	if count != 5 {
		t.Errorf("handler count = %d, want 5", count)
	}
	if args["count"] != 50 {
		t.Error("caller args must not be modified")
	}
}

func TestSetMaxRepeatCount(t *testing.T) {
	d := dispatcher.New(dispatcher.DefaultConfig().WithMaxRepeatCount(5))

	var count int
	d.RegisterFunc("_vi_j", func(cmd handler.Command) handler.Result {
		count = cmd.Args.IntOr("count", 0)
		return handler.Success()
	})

	d.SetMaxRepeatCount(3)
	d.Run("_vi_j", catalog.Args{"count": 50})
	if count != 3 {
		t.Errorf("handler count = %d, want 3", count)
	}

	d.SetMaxRepeatCount(0)
	d.Run("_vi_j", catalog.Args{"count": 50})
	if count != 50 {
		t.Errorf("handler count = %d, want 50 without a cap", count)
	}
}

func TestMetrics(t *testing.T) {
	d := dispatcher.New(dispatcher.DefaultConfig().WithMetrics())
	d.RegisterFunc("_vi_j", func(cmd handler.Command) handler.Result { return handler.Success() })
	d.RegisterFunc("_vi_fail", func(cmd handler.Command) handler.Result { return handler.Errorf("nope") })

	d.Run("_vi_j", nil)
	d.Run("_vi_j", nil)
	d.Run("_vi_fail", nil)

	m := d.Metrics()
	if m.TotalDispatches() != 3 {
		t.Errorf("TotalDispatches() = %d, want 3", m.TotalDispatches())
	}
	if m.TotalErrors() != 1 {
		t.Errorf("TotalErrors() = %d, want 1", m.TotalErrors())
	}

	stats := m.CommandStats("_vi_j")
	if stats == nil || stats.DispatchCount != 2 {
		t.Errorf("CommandStats(_vi_j) = %+v", stats)
	}

	top := m.TopCommands(1)
	if len(top) != 1 || top[0].Name != "_vi_j" {
		t.Errorf("TopCommands(1) = %+v", top)
	}

	m.Reset()
	if m.TotalDispatches() != 0 || m.CommandStats("_vi_j") != nil {
		t.Error("Reset() should clear metrics")
	}
}

func TestRegistry(t *testing.T) {
	r := dispatcher.NewRegistry()
	h := handler.NewFunc(func(cmd handler.Command) handler.Result { return handler.NoOp() })

	r.Register("_vi_y", h)
	r.Register("_vi_d", h)

	if !r.Has("_vi_y") || r.Has("_vi_p") {
		t.Error("Has() returned unexpected values")
	}
	if got := r.List(); len(got) != 2 || got[0] != "_vi_d" {
		t.Errorf("List() = %v", got)
	}

	r.Unregister("_vi_y")
	if r.Get("_vi_y") != nil {
		t.Error("Get() after Unregister should be nil")
	}
}

func TestDispatchMessages(t *testing.T) {
	var got []string
	d := dispatcher.New(dispatcher.DefaultConfig().WithMessageHandler(func(command, msg string) {
		got = append(got, command+": "+msg)
	}))
	d.RegisterFunc("_vi_q", func(handler.Command) handler.Result {
		return handler.Success().WithMessage("recording @a")
	})
	d.RegisterFunc("_vi_w", func(handler.Command) handler.Result {
		return handler.Success()
	})

	d.Run("_vi_w", nil)
	d.Run("_vi_q", nil)
	if len(got) != 1 || got[0] != "_vi_q: recording @a" {
		t.Errorf("messages = %q, want one from _vi_q", got)
	}
}

func TestResultHelpers(t *testing.T) {
	if !handler.Success().IsOK() {
		t.Error("Success() should be OK")
	}
	if handler.NoOpWithMessage("x").Message != "x" {
		t.Error("NoOpWithMessage() lost its message")
	}
	if !handler.Error(errors.New("x")).IsError() {
		t.Error("Error() should be an error result")
	}
	if handler.StatusNoOp.String() != "no-op" {
		t.Errorf("StatusNoOp.String() = %q", handler.StatusNoOp.String())
	}
	if got := handler.ResultStatus(9).String(); got != "status(9)" {
		t.Errorf("String() = %q, want status(9)", got)
	}
	if r := handler.Errorf("bad %d", 1); r.Error == nil || r.Error.Error() != "bad 1" {
		t.Errorf("Errorf() = %+v", r)
	}

	var nilFunc handler.Func
	if !nilFunc.Handle(handler.Command{}).IsError() {
		t.Error("nil handler function should produce an error result")
	}
}
