// Package config loads the editor settings.
//
// Settings come from a TOML file and may be overridden by VINTAGE_*
// environment variables. A missing file yields the defaults.
//
//	s, err := config.Load("~/.config/vintage/settings.toml")
//	if err != nil {
//	    return err
//	}
//
// A Watcher reloads the file when it changes and hands the new Settings to
// a callback.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Errors returned by configuration operations.
var (
	// ErrValidationFailed indicates a setting holds an invalid value.
	ErrValidationFailed = errors.New("validation failed")

	// ErrWatcherClosed indicates the watcher was already closed.
	ErrWatcherClosed = errors.New("watcher closed")
)

// Settings are the user preferences read by the editor. StartupScript,
// StateFile and Metrics are read once at startup. The others follow reloads.
type Settings struct {
	// ResetModeWhenSwitchingTabs reconciles the mode of a buffer even when
	// it is already in normal mode as it regains focus.
	ResetModeWhenSwitchingTabs bool `toml:"reset_mode_when_switching_tabs"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level"`

	// StartupScript is a Lua file run once per session.
	StartupScript string `toml:"startup_script"`

	// StateFile persists window state (macros, searches, repeat data)
	// across restarts. Empty keeps state in memory.
	StateFile string `toml:"state_file"`

	// KeymapFile holds extra YAML key bindings applied over the defaults.
	KeymapFile string `toml:"keymap_file"`

	// MaxRepeatCount caps the count handed to execution commands.
	MaxRepeatCount int `toml:"max_repeat_count"`

	// Metrics enables dispatch statistics.
	Metrics bool `toml:"metrics"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		ResetModeWhenSwitchingTabs: true,
		LogLevel:                   "info",
		MaxRepeatCount:             10000,
	}
}

// Validate checks every setting.
func (s Settings) Validate() error {
	var errs []error
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, &ValidationError{Setting: "log_level", Value: s.LogLevel, Message: "must be debug, info, warn or error"})
	}
	if s.MaxRepeatCount < 0 {
		errs = append(errs, &ValidationError{Setting: "max_repeat_count", Value: s.MaxRepeatCount, Message: "must not be negative"})
	}
	return errors.Join(errs...)
}

// ExpandPaths replaces a leading ~ in file settings with the home directory.
func (s *Settings) ExpandPaths() {
	s.StartupScript = expandHome(s.StartupScript)
	s.StateFile = expandHome(s.StateFile)
	s.KeymapFile = expandHome(s.KeymapFile)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ParseError represents an error while parsing a settings file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError describes a setting holding an invalid value.
type ValidationError struct {
	Setting string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s = %v: %s", e.Setting, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
