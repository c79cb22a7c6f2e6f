package macro

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const fileVersion = 1

type fileMacro struct {
	Register string   `yaml:"register"`
	Keys     []string `yaml:"keys"`
}

type fileData struct {
	Version    int         `yaml:"version"`
	SavedAt    time.Time   `yaml:"saved_at"`
	LastPlayed string      `yaml:"last_played,omitempty"`
	Macros     []fileMacro `yaml:"macros"`
}

// Export encodes every macro held by recorder as YAML.
func Export(recorder *Recorder) ([]byte, error) {
	registers, last := recorder.snapshot()

	data := fileData{Version: fileVersion, SavedAt: time.Now().UTC()}
	if last != 0 {
		data.LastPlayed = string(last)
	}
	for reg, keys := range registers {
		data.Macros = append(data.Macros, fileMacro{Register: string(reg), Keys: keys})
	}
	sort.Slice(data.Macros, func(i, j int) bool { return data.Macros[i].Register < data.Macros[j].Register })

	return yaml.Marshal(&data)
}

// Import replaces the recorder's macros with the ones encoded in raw.
// When merge is true existing registers not present in raw are kept.
func Import(recorder *Recorder, raw []byte, merge bool) error {
	var data fileData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("decoding macros: %w", err)
	}
	if data.Version > fileVersion {
		return fmt.Errorf("unsupported macro file version %d", data.Version)
	}

	registers := make(map[rune][]string)
	var last rune
	if merge {
		registers, last = recorder.snapshot()
	}
	for _, m := range data.Macros {
		reg, ok := parseRegister(m.Register)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidRegister, m.Register)
		}
		registers[NormalizeRegister(reg)] = m.Keys
	}
	if r, ok := parseRegister(data.LastPlayed); ok {
		last = r
	}

	recorder.restore(registers, last)
	return nil
}

// Save writes the recorder's macros to path. The file is replaced
// atomically.
func Save(recorder *Recorder, path string) error {
	raw, err := Export(recorder)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating macro directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, raw, 0o644); err != nil {
		return fmt.Errorf("writing macros: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replacing macros: %w", err)
	}
	return nil
}

// Load reads macros from path into recorder.
func Load(recorder *Recorder, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading macros: %w", err)
	}
	return Import(recorder, raw, false)
}

// LoadOrCreate loads macros from path. A missing file leaves the
// recorder empty.
func LoadOrCreate(recorder *Recorder, path string) error {
	err := Load(recorder, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
