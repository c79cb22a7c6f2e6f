package dispatcher

// MessageHandler receives the user message of a command result.
type MessageHandler func(command, msg string)

// Config controls how execution commands are run.
type Config struct {
	// EnableMetrics records per-command timings and failures.
	EnableMetrics bool

	// RecoverFromPanic turns a panicking handler into an error result.
	RecoverFromPanic bool

	// MaxRepeatCount caps the "count" argument of every command. Zero
	// leaves counts alone.
	MaxRepeatCount int

	// OnMessage is called for every result carrying a message.
	OnMessage MessageHandler
}

// DefaultConfig recovers from panics and caps counts at 10000.
func DefaultConfig() Config {
	return Config{
		RecoverFromPanic: true,
		MaxRepeatCount:   10000,
	}
}

// WithMetrics enables metrics.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}

// WithPanicRecovery sets RecoverFromPanic.
func (c Config) WithPanicRecovery(enabled bool) Config {
	c.RecoverFromPanic = enabled
	return c
}

// WithMaxRepeatCount sets the count cap.
func (c Config) WithMaxRepeatCount(limit int) Config {
	c.MaxRepeatCount = limit
	return c
}

// WithMessageHandler sets OnMessage.
func (c Config) WithMessageHandler(h MessageHandler) Config {
	c.OnMessage = h
	return c
}
