// Package bootstrap reconciles a buffer's mode with its selection shape
// whenever the buffer is activated.
package bootstrap

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/vintage/internal/catalog"
	"github.com/dshills/vintage/internal/input/mode"
	"github.com/dshills/vintage/internal/session"
	"github.com/dshills/vintage/internal/view"
)

// EnterNormalCommand is the execution command used to leave a mode on
// activation.
const EnterNormalCommand = "_enter_normal_mode"

// Host attaches session state to buffers.
type Host interface {
	// State returns the session state of v, creating it on first use.
	State(v view.Query) *session.State
	// DisableModal turns modal editing off for v.
	DisableModal(v view.Query)
}

// Preferences holds the user settings read during activation.
type Preferences interface {
	ResetModeWhenSwitchingTabs() bool
}

// Sink executes execution commands.
type Sink interface {
	Run(command string, args catalog.Args)
}

// Startup runs user configuration once per session.
type Startup interface {
	Run(s *session.State) error
}

// Logger is the logging surface used during activation.
type Logger interface {
	Info(msg string, args ...any)
}

// Config holds the collaborators of a Bootstrapper.
type Config struct {
	Host    Host
	Prefs   Preferences
	Sink    Sink
	Startup Startup
	Logger  Logger
}

// Bootstrapper runs activation logic for buffers.
type Bootstrapper struct {
	host    Host
	prefs   Preferences
	sink    Sink
	startup Startup
	logger  Logger
}

// New creates a Bootstrapper.
func New(cfg Config) *Bootstrapper {
	return &Bootstrapper{
		host:    cfg.Host,
		prefs:   cfg.Prefs,
		sink:    cfg.Sink,
		startup: cfg.Startup,
		logger:  cfg.Logger,
	}
}

// Init runs when v is activated. newSession is set once, at startup, and
// additionally wipes volatile data and runs user configuration.
func (b *Bootstrapper) Init(v view.Query, newSession bool) error {
	if !v.IsTextBuffer() {
		b.host.DisableModal(v)
		return nil
	}

	s := b.host.State(v)

	if !s.ResetDuringInit() {
		// Returning from an input panel; the pending command still needs
		// its state.
		s.SetResetDuringInit(true)
		return nil
	}

	if b.prefs != nil && !b.prefs.ResetModeWhenSwitchingTabs() && s.Mode() == mode.Normal {
		return nil
	}

	b.info("running init")

	m := s.Mode()
	switch {
	case m.IsVisual(), m.IsInsertLike():
		b.run(EnterNormalCommand, catalog.Args{"mode": m, "from_init": true})

	case view.HasNonEmptySelection(v) && len(v.Selections()) > 1 && m != mode.Visual:
		// Several selections, for example after a find-all.
		s.EnterVisualMode()

	default:
		next := mode.Insert
		if view.HasNonEmptySelection(v) {
			next = mode.Visual
		}
		s.EnterNormalMode()
		b.run(EnterNormalCommand, catalog.Args{"mode": next, "from_init": true})
	}

	s.ResetCommandData()
	if !newSession {
		return nil
	}

	s.ResetVolatileData()
	if b.startup == nil {
		return nil
	}
	if err := b.startup.Run(s); err != nil {
		return fmt.Errorf("startup configuration: %w", err)
	}
	return nil
}

func (b *Bootstrapper) run(command string, args catalog.Args) {
	if b.sink != nil {
		b.sink.Run(command, args)
	}
}

func (b *Bootstrapper) info(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

// NewSessionID returns a fresh identifier for an editing session.
func NewSessionID() string {
	return uuid.NewString()
}
