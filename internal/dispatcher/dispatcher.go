package dispatcher

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dshills/vintage/internal/catalog"
	"github.com/dshills/vintage/internal/dispatcher/handler"
	"github.com/dshills/vintage/internal/input/mode"
)

// ModeSetter applies mode changes requested by handler results.
type ModeSetter interface {
	SetMode(m mode.Mode)
}

// Logger is the logging surface used by the dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Dispatcher routes execution commands to handlers.
type Dispatcher struct {
	mu sync.RWMutex

	registry *Registry
	config   Config
	metrics  *Metrics

	modes  ModeSetter
	logger Logger
}

// New creates a new dispatcher with the given configuration.
func New(config Config) *Dispatcher {
	d := &Dispatcher{
		registry: NewRegistry(),
		config:   config,
	}
	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	return d
}

// NewWithDefaults creates a new dispatcher with default configuration.
func NewWithDefaults() *Dispatcher {
	return New(DefaultConfig())
}

// SetModeSetter sets the target of mode changes requested by handlers.
func (d *Dispatcher) SetModeSetter(m ModeSetter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modes = m
}

// SetMaxRepeatCount changes the count cap. Zero disables it.
func (d *Dispatcher) SetMaxRepeatCount(limit int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config.MaxRepeatCount = limit
}

// SetLogger sets the logger.
func (d *Dispatcher) SetLogger(l Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = l
}

// Register adds a handler for a command name.
func (d *Dispatcher) Register(name string, h handler.Handler) {
	d.registry.Register(name, h)
}

// RegisterFunc adds a function handler for a command name.
func (d *Dispatcher) RegisterFunc(name string, fn func(cmd handler.Command) handler.Result) {
	d.registry.Register(name, handler.NewFunc(fn))
}

// Registry returns the handler registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Metrics returns the metrics collector, or nil when metrics are disabled.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Run executes a command and discards the result.
// Failures are logged; the caller does not consume results.
func (d *Dispatcher) Run(name string, args catalog.Args) {
	result := d.Dispatch(name, args)
	if result.IsError() {
		d.logError("command %s failed: %v", name, result.Error)
	}
}

// Dispatch executes a command synchronously.
func (d *Dispatcher) Dispatch(name string, args catalog.Args) handler.Result {
	startTime := time.Now()

	if name == "" {
		return handler.Error(fmt.Errorf("%w: empty command name", ErrInvalidCommand))
	}
	if args == nil {
		args = catalog.Args{}
	}
	args = d.clampCount(args)

	h := d.registry.Get(name)
	if h == nil {
		d.logWarn("no handler for command %s", name)
		return handler.Error(fmt.Errorf("%w: %s", ErrNoHandler, name))
	}

	d.logDebug("dispatch %s", catalog.Invocation{Command: name, Args: args})

	cmd := handler.Command{Name: name, Args: args}
	var result handler.Result
	if d.config.RecoverFromPanic {
		result = d.executeWithRecovery(h, cmd)
	} else {
		result = h.Handle(cmd)
	}

	d.processResult(name, result)

	if d.metrics != nil {
		d.metrics.RecordDispatch(name, time.Since(startTime), result.Status)
	}
	return result
}

// executeWithRecovery executes a handler with panic recovery.
func (d *Dispatcher) executeWithRecovery(h handler.Handler, cmd handler.Command) (result handler.Result) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			d.logError("handler panic for %s: %v\n%s", cmd.Name, r, string(stack[:n]))

			result = handler.Error(fmt.Errorf("%w: %s: %v", ErrPanic, cmd.Name, r))
			if d.metrics != nil {
				d.metrics.RecordPanic(cmd.Name)
			}
		}
	}()

	return h.Handle(cmd)
}

func (d *Dispatcher) processResult(name string, result handler.Result) {
	if result.Message != "" && d.config.OnMessage != nil {
		d.config.OnMessage(name, result.Message)
	}
	if result.ModeChange == "" {
		return
	}
	d.mu.RLock()
	modes := d.modes
	d.mu.RUnlock()
	if modes != nil {
		modes.SetMode(result.ModeChange)
	}
}

func (d *Dispatcher) clampCount(args catalog.Args) catalog.Args {
	d.mu.RLock()
	limit := d.config.MaxRepeatCount
	d.mu.RUnlock()
	if limit <= 0 {
		return args
	}
	if count, ok := args["count"].(int); ok && count > limit {
		args = args.Clone()
		args["count"] = limit
	}
	return args
}

func (d *Dispatcher) log() Logger {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.logger
}

func (d *Dispatcher) logDebug(msg string, args ...any) {
	if l := d.log(); l != nil {
		l.Debug(msg, args...)
	}
}

func (d *Dispatcher) logWarn(msg string, args ...any) {
	if l := d.log(); l != nil {
		l.Warn(msg, args...)
	}
}

func (d *Dispatcher) logError(msg string, args ...any) {
	if l := d.log(); l != nil {
		l.Error(msg, args...)
	}
}
