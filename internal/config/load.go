package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VINTAGE_"

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads settings from path, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (Settings, error) {
	s := Default()
	if path != "" {
		data, err := os.ReadFile(expandHome(path))
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Settings{}, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if s, err = parse(path, data); err != nil {
				return Settings{}, err
			}
		}
	}

	if err := ApplyEnv(&s, os.LookupEnv); err != nil {
		return Settings{}, err
	}
	s.ExpandPaths()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Parse decodes TOML settings over the defaults.
func Parse(data []byte) (Settings, error) {
	s, err := parse("<input>", data)
	if err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func parse(source string, data []byte) (Settings, error) {
	s := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			pe.Message = sme.String()
		}
		return Settings{}, pe
	}
	return s, nil
}

// ApplyEnv overrides settings from VINTAGE_* variables read through lookup.
func ApplyEnv(s *Settings, lookup LookupFunc) error {
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		s.LogLevel = v
	}
	if v, ok := lookup(EnvPrefix + "STARTUP_SCRIPT"); ok {
		s.StartupScript = v
	}
	if v, ok := lookup(EnvPrefix + "STATE_FILE"); ok {
		s.StateFile = v
	}
	if v, ok := lookup(EnvPrefix + "KEYMAP_FILE"); ok {
		s.KeymapFile = v
	}
	if v, ok := lookup(EnvPrefix + "RESET_MODE_WHEN_SWITCHING_TABS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ValidationError{Setting: EnvPrefix + "RESET_MODE_WHEN_SWITCHING_TABS", Value: v, Message: "must be a boolean"}
		}
		s.ResetModeWhenSwitchingTabs = b
	}
	if v, ok := lookup(EnvPrefix + "MAX_REPEAT_COUNT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Setting: EnvPrefix + "MAX_REPEAT_COUNT", Value: v, Message: "must be an integer"}
		}
		s.MaxRepeatCount = n
	}
	if v, ok := lookup(EnvPrefix + "METRICS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ValidationError{Setting: EnvPrefix + "METRICS", Value: v, Message: "must be a boolean"}
		}
		s.Metrics = b
	}
	return nil
}
