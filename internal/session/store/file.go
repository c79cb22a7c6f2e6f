package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const fileVersion = 1

// fileData is the on-disk layout of a File store.
type fileData struct {
	Version int            `yaml:"version"`
	SavedAt time.Time      `yaml:"saved_at"`
	Values  map[string]any `yaml:"values"`
}

// File is a Memory store that can be saved to and loaded from a YAML file.
// Keys listed as transient are kept in memory but never written.
type File struct {
	*Memory

	path      string
	transient map[string]bool
}

// FileOption configures a File store.
type FileOption func(*File)

// WithTransient marks keys that must not be persisted.
func WithTransient(keys ...string) FileOption {
	return func(f *File) {
		for _, k := range keys {
			f.transient[k] = true
		}
	}
}

// NewFile creates a file-backed store for path. Nothing is read until Load.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{
		Memory:    NewMemory(),
		path:      path,
		transient: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Load replaces the in-memory values with the file contents.
// A missing file leaves the store empty and is not an error.
func (f *File) Load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var fd fileData
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return fmt.Errorf("failed to parse state file %s: %w", f.path, err)
	}
	if fd.Version > fileVersion {
		return fmt.Errorf("unsupported state file version %d", fd.Version)
	}

	values := make(map[string]any, len(fd.Values))
	for k, v := range fd.Values {
		if !f.transient[k] {
			values[k] = v
		}
	}
	f.Replace(values)
	return nil
}

// Save writes the persistent values to the file.
// The file is written atomically using a temporary file and rename.
func (f *File) Save() error {
	snapshot := f.Snapshot()
	for k := range f.transient {
		delete(snapshot, k)
	}

	data, err := yaml.Marshal(fileData{
		Version: fileVersion,
		SavedAt: time.Now().UTC(),
		Values:  snapshot,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
