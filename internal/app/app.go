// Package app wires the command resolution core into an editor session.
//
// An Application owns the buffers of one window, the registers, the macro
// recorder and the dispatcher that executes resolved commands. Hosts feed
// it key names and render the active buffer; everything else happens here.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dshills/vintage/internal/bootstrap"
	"github.com/dshills/vintage/internal/catalog"
	"github.com/dshills/vintage/internal/config"
	"github.com/dshills/vintage/internal/dispatcher"
	"github.com/dshills/vintage/internal/input/keys"
	"github.com/dshills/vintage/internal/input/macro"
	"github.com/dshills/vintage/internal/input/mode"
	"github.com/dshills/vintage/internal/input/parser"
	"github.com/dshills/vintage/internal/input/register"
	"github.com/dshills/vintage/internal/plugin/lua"
	"github.com/dshills/vintage/internal/resolver"
	"github.com/dshills/vintage/internal/session"
	"github.com/dshills/vintage/internal/session/store"
)

// maxReplayedKeys bounds the keys replayed for one typed key, which stops
// macros that play themselves.
const maxReplayedKeys = 100000

// Panel key names.
const (
	keyEnter     = "<cr>"
	keyBackspace = "<bs>"
)

// Application is the central coordinator of an editing session.
type Application struct {
	mu sync.Mutex

	logger   *Logger
	settings atomic.Pointer[config.Settings]
	metrics  *Metrics

	dispatcher *dispatcher.Dispatcher
	buffers    *BufferManager
	window     store.Store
	catalog    *catalog.Catalog
	parsers    *parser.Registry
	keymap     *keys.Keymap

	recorder  *macro.Recorder
	player    *macro.Player
	registers *register.Store

	startup      *lua.Startup
	bootstrapper *bootstrap.Bootstrapper
	watcher      *config.Watcher

	queue       []string
	replayLimit int
	panel       *panelState
	message     atomic.Pointer[string]

	sessionID string
	macroPath string
	onPanel   func(prompt string)
	started   bool
	closed    atomic.Bool
}

// panelState is an open input panel.
type panelState struct {
	buffer *Buffer
	parser parser.Parser
	text   strings.Builder
}

// Options configures the application.
type Options struct {
	// ConfigPath is the settings file. Empty uses the defaults.
	ConfigPath string

	// StateFile overrides the state_file setting.
	StateFile string

	// LogLevel overrides the log_level setting.
	LogLevel string

	// LogOutput receives log lines. Defaults to stderr.
	LogOutput io.Writer

	// Clipboard backs the + and * registers. Nil leaves them in memory.
	Clipboard register.Clipboard

	// Watch reloads the settings file when it changes.
	Watch bool

	// OnPanel is called with the prompt whenever an input panel opens.
	OnPanel func(prompt string)
}

// New creates an Application. Nothing is activated until a buffer is
// opened.
func New(opts Options) (*Application, error) {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, NewComponentError("config", "load", err))
	}
	if opts.StateFile != "" {
		settings.StateFile = opts.StateFile
	}
	if opts.LogLevel != "" {
		if !ValidLogLevel(opts.LogLevel) {
			verr := &config.ValidationError{Setting: "log_level", Value: opts.LogLevel, Message: "must be debug, info, warn or error"}
			return nil, fmt.Errorf("%w: %w", ErrInitialization, NewComponentError("config", "log level", verr))
		}
		settings.LogLevel = opts.LogLevel
	}

	a := &Application{
		sessionID:   bootstrap.NewSessionID(),
		metrics:     NewMetrics(),
		replayLimit: maxReplayedKeys,
		onPanel:     opts.OnPanel,
	}
	a.settings.Store(&settings)

	cfg := DefaultLoggerConfig()
	cfg.Level = ParseLogLevel(settings.LogLevel)
	if opts.LogOutput != nil {
		cfg.Output = opts.LogOutput
	}
	a.logger = NewLogger(cfg).WithField("session", a.sessionID)

	if err := a.initState(settings); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	var regOpts []register.Option
	if opts.Clipboard != nil {
		regOpts = append(regOpts, register.WithClipboard(opts.Clipboard))
	}
	a.registers = register.NewStore(regOpts...)

	dcfg := dispatcher.DefaultConfig().
		WithPanicRecovery(true).
		WithMaxRepeatCount(settings.MaxRepeatCount).
		WithMessageHandler(a.showMessage)
	if settings.Metrics {
		dcfg = dcfg.WithMetrics()
	}
	a.dispatcher = dispatcher.New(dcfg)
	a.dispatcher.SetLogger(a.logger.WithComponent("dispatcher"))
	a.dispatcher.SetModeSetter(a)
	a.registerHandlers(a.dispatcher)

	a.catalog = catalog.Builtin()
	a.parsers = parser.Builtin()
	a.keymap = keys.Default()
	if err := loadKeymap(a.keymap, settings.KeymapFile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, NewComponentError("keymap", "load", err))
	}

	a.startup = lua.NewStartup(settings.StartupScript, a.dispatcher, a.logger.WithComponent("lua"))
	a.bootstrapper = bootstrap.New(bootstrap.Config{
		Host:    a.buffers,
		Prefs:   a,
		Sink:    a.dispatcher,
		Startup: a.startup,
		Logger:  a.logger.WithComponent("bootstrap"),
	})

	if opts.Watch && opts.ConfigPath != "" {
		w, err := config.NewWatcher(opts.ConfigPath, a.ApplySettings,
			config.WithErrorHandler(func(err error) {
				a.logger.Warn("settings reload failed: %v", err)
			}))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInitialization, NewComponentError("config", "watch", err))
		}
		a.watcher = w
	}

	a.logger.Info("session started")
	return a, nil
}

// loadKeymap applies the bindings in path over km. A missing file is not an
// error.
func loadKeymap(km *keys.Keymap, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return km.LoadYAML(data)
}

// initState sets up the window store and the macro recorder, loading both
// from disk when a state file is configured.
func (a *Application) initState(settings config.Settings) error {
	transient := append(session.VolatileKeys(session.WindowScope), session.KeyRecordingMacro)

	if settings.StateFile != "" {
		f := store.NewFile(settings.StateFile, store.WithTransient(transient...))
		if err := f.Load(); err != nil {
			return NewComponentError("state", "load", err)
		}
		a.window = f
		a.macroPath = filepath.Join(filepath.Dir(settings.StateFile), "macros.yaml")
	} else {
		a.window = store.NewMemory()
	}

	a.buffers = NewBufferManager(a.window, a.build)

	a.recorder = macro.NewRecorder()
	a.recorder.SetMirror(session.New(store.NewMemory(), a.window))
	if a.macroPath != "" {
		if err := macro.LoadOrCreate(a.recorder, a.macroPath); err != nil {
			return NewComponentError("macro", "load", err)
		}
	}
	a.player = macro.NewPlayer(a.recorder)
	return nil
}

// build attaches session state, a resolver and a feeder to a new buffer.
func (a *Application) build(b *Buffer) {
	log := a.logger.WithComponent("resolver").WithField("buffer", b.Name)
	b.State = session.New(store.NewMemory(), a.window,
		session.WithView(b.View),
		session.WithUndo(b.undo),
		session.WithLogger(log))
	b.Resolver = resolver.New(resolver.Config{
		State:   b.State,
		Catalog: a.catalog,
		Parsers: a.parsers,
		Sink:    a.dispatcher,
		Panel:   a,
		Logger:  log,
	})
	b.Feeder = keys.NewFeeder(keys.Config{
		Resolver: b.Resolver,
		Keymap:   a.keymap,
		Sink:     a.dispatcher,
		Recorder: a.recorder,
		Logger:   a.logger.WithComponent("keys").WithField("buffer", b.Name),
	})
}

// OpenBuffer opens a text buffer and gives it the focus.
func (a *Application) OpenBuffer(name, text string) (*Buffer, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	b := a.buffers.Open(name, text)
	return b, a.Activate(b)
}

// OpenWidget opens a non-text input buffer and gives it the focus.
func (a *Application) OpenWidget(name string) (*Buffer, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	b := a.buffers.OpenWidget(name)
	return b, a.Activate(b)
}

// Activate gives b the focus and reconciles its mode. The first activation
// starts the session.
func (a *Application) Activate(b *Buffer) error {
	a.buffers.SetActive(b)

	a.mu.Lock()
	newSession := !a.started
	a.started = true
	a.mu.Unlock()

	if err := a.bootstrapper.Init(b.View, newSession); err != nil {
		return NewComponentError("bootstrap", "init", err)
	}
	return nil
}

// NextBuffer moves the focus to the next buffer.
func (a *Application) NextBuffer() error {
	b := a.buffers.Next()
	if b == nil {
		return ErrNoActiveBuffer
	}
	return a.Activate(b)
}

// Feed processes one typed key against the active buffer, then replays any
// keys queued by macros or repeats.
func (a *Application) Feed(key string) error {
	if a.closed.Load() {
		return ErrClosed
	}
	timer := StartTimer()
	defer func() { a.metrics.RecordKey(timer.Stop()) }()
	a.message.Store(nil)

	err := a.feed(key, true)
	if err == nil {
		err = a.drain()
	}
	if err != nil {
		a.metrics.RecordAbort()
	}
	return err
}

// FeedKeys feeds keys in order and stops at the first error.
func (a *Application) FeedKeys(keys ...string) error {
	for _, k := range keys {
		if err := a.Feed(k); err != nil {
			return err
		}
	}
	return nil
}

func (a *Application) feed(key string, typed bool) error {
	if a.panelOpen() {
		if typed && a.recorder.IsRecording() {
			a.recorder.Record(key)
		}
		return a.feedPanel(key)
	}

	b := a.buffers.Active()
	if b == nil {
		return ErrNoActiveBuffer
	}
	if !b.Modal() {
		// Widgets type every key but escape.
		if key != keys.Escape {
			a.dispatcher.Run(CmdInsertText, catalog.Args{"characters": parser.TranslateKey(key)})
		}
		return nil
	}
	if typed {
		return b.Feeder.Feed(key)
	}
	return b.Feeder.Replay(key)
}

func (a *Application) enqueue(keys ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queue = append(a.queue, keys...)
}

func (a *Application) dequeue() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) == 0 {
		return "", false
	}
	k := a.queue[0]
	a.queue = a.queue[1:]
	return k, true
}

func (a *Application) clearQueue() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queue = nil
}

func (a *Application) drain() error {
	for n := 0; ; n++ {
		k, ok := a.dequeue()
		if !ok {
			a.metrics.RecordReplayed(n)
			return nil
		}
		if n >= a.replayLimit {
			a.clearQueue()
			return ErrMacroLimit
		}
		if err := a.feed(k, false); err != nil {
			a.clearQueue()
			return err
		}
	}
}

// OpenPanel implements resolver.Panel.
func (a *Application) OpenPanel(p parser.Parser) {
	b := a.buffers.Active()

	a.mu.Lock()
	a.panel = &panelState{buffer: b, parser: p}
	a.mu.Unlock()

	a.logger.Debug("panel %s opened", p.Panel)
	if a.onPanel != nil {
		a.onPanel(a.PanelPrompt())
	}
}

func (a *Application) panelOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.panel != nil
}

func (a *Application) feedPanel(key string) error {
	switch key {
	case keys.Escape:
		return a.CancelPanel()
	case keyEnter:
		return a.SubmitPanel()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if key == keyBackspace {
		text := []rune(a.panel.text.String())
		if len(text) > 0 {
			a.panel.text.Reset()
			a.panel.text.WriteString(string(text[:len(text)-1]))
		}
		return nil
	}
	a.panel.text.WriteString(parser.TranslateKey(key))
	return nil
}

// PanelPrompt returns the prompt and text of the open panel, or "".
func (a *Application) PanelPrompt() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.panel == nil {
		return ""
	}
	prompt := "/"
	if a.panel.parser.Name == parser.SearchBwd {
		prompt = "?"
	}
	return prompt + a.panel.text.String()
}

func (a *Application) closePanel() (*panelState, error) {
	a.mu.Lock()
	p := a.panel
	a.panel = nil
	a.mu.Unlock()

	if p == nil {
		return nil, ErrNoPanel
	}
	// The buffer regains focus before the value is delivered.
	if p.buffer != nil {
		if err := a.Activate(p.buffer); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// SubmitPanel closes the panel and delivers its text to the waiting parser.
func (a *Application) SubmitPanel() error {
	p, err := a.closePanel()
	if err != nil {
		return err
	}
	a.metrics.RecordPanel(true)
	if p.buffer == nil {
		return nil
	}
	_, err = p.buffer.Resolver.ResumeCommand(p.parser.Name, p.text.String())
	if session.IsContractViolation(err) {
		p.buffer.Resolver.Abort()
	}
	return err
}

// CancelPanel closes the panel and aborts the waiting command.
func (a *Application) CancelPanel() error {
	p, err := a.closePanel()
	if err != nil {
		return err
	}
	a.metrics.RecordPanel(false)
	if p.buffer != nil {
		p.buffer.Resolver.CancelInput()
	}
	return nil
}

// SetMode implements dispatcher.ModeSetter.
func (a *Application) SetMode(m mode.Mode) {
	if b := a.buffers.Active(); b != nil {
		b.State.SetMode(m)
	}
}

// ResetModeWhenSwitchingTabs implements bootstrap.Preferences.
func (a *Application) ResetModeWhenSwitchingTabs() bool {
	return a.Settings().ResetModeWhenSwitchingTabs
}

// Settings returns the current settings.
func (a *Application) Settings() config.Settings {
	return *a.settings.Load()
}

// ApplySettings replaces the settings after a reload. The log level, the
// count cap and the keymap file apply at once. A keymap file that fails to
// load leaves the current bindings in place. StateFile, StartupScript and
// Metrics take effect on the next session.
func (a *Application) ApplySettings(s config.Settings) {
	a.settings.Store(&s)
	a.logger.SetLevel(ParseLogLevel(s.LogLevel))
	a.dispatcher.SetMaxRepeatCount(s.MaxRepeatCount)

	km := keys.Default()
	if err := loadKeymap(km, s.KeymapFile); err != nil {
		a.logger.Warn("keymap reload failed, keeping current bindings: %v", err)
	} else {
		a.keymap.Replace(km)
	}
	a.logger.Info("settings reloaded")
}

// Logger returns the application logger.
func (a *Application) Logger() *Logger {
	return a.logger
}

// SessionID returns the identifier of this session.
func (a *Application) SessionID() string {
	return a.sessionID
}

// Buffers returns the buffer manager.
func (a *Application) Buffers() *BufferManager {
	return a.buffers
}

// Registers returns the register store.
func (a *Application) Registers() *register.Store {
	return a.registers
}

// Recorder returns the macro recorder.
func (a *Application) Recorder() *macro.Recorder {
	return a.recorder
}

// Dispatcher returns the dispatcher.
func (a *Application) Dispatcher() *dispatcher.Dispatcher {
	return a.dispatcher
}

// Keymap returns the key bindings shared by every buffer.
func (a *Application) Keymap() *keys.Keymap {
	return a.keymap
}

func (a *Application) showMessage(command, msg string) {
	a.logger.Debug("%s: %s", command, msg)
	a.message.Store(&msg)
}

// Message returns the last command message produced by the key being
// processed, such as "recording @q".
func (a *Application) Message() string {
	if m := a.message.Load(); m != nil {
		return *m
	}
	return ""
}

// Status returns the status line of the active buffer.
func (a *Application) Status() string {
	if prompt := a.PanelPrompt(); prompt != "" {
		return prompt
	}
	b := a.buffers.Active()
	if b == nil || !b.Modal() {
		return ""
	}
	status := b.State.StatusLine()
	if a.recorder.IsRecording() {
		status = strings.TrimSpace(status + " recording @" + string(a.recorder.CurrentRegister()))
	}
	return status
}

// Close saves persistent state and stops the watcher.
func (a *Application) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	var errs ErrorList
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil && !errors.Is(err, config.ErrWatcherClosed) {
			errs.Add(NewComponentError("config", "watch", err))
		}
	}
	if a.recorder.IsRecording() {
		a.recorder.StopRecording()
	}
	if a.macroPath != "" {
		if err := macro.Save(a.recorder, a.macroPath); err != nil {
			errs.Add(NewComponentError("macro", "save", err))
		}
	}
	if f, ok := a.window.(*store.File); ok {
		if err := f.Save(); err != nil {
			errs.Add(NewComponentError("state", "save", err))
		}
	}

	a.logger.Info("session closed")
	return errs.AsError()
}
