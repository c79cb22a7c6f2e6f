// Package store provides the key-value persistence behind session state.
//
// A session reads and writes its fields through two stores: one scoped to a
// buffer (view) and one scoped to a window. Stores hold arbitrary values;
// typed access and validation live in the session package.
package store

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrDecode indicates a stored value could not be converted to the requested type.
var ErrDecode = errors.New("store: cannot decode value")

// Store is a scoped key-value map.
type Store interface {
	// Get returns the value stored under key.
	// Returns nil, false if the key is absent.
	Get(key string) (any, bool)

	// Set stores value under key, replacing any previous value.
	// Setting nil removes the key.
	Set(key string, value any)

	// Delete removes key.
	Delete(key string)
}

// Memory is an in-memory Store safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]any)}
}

// Get implements Store.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set implements Store.
func (m *Memory) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == nil {
		delete(m.values, key)
		return
	}
	m.values[key] = value
}

// Delete implements Store.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

// Keys returns the stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Snapshot returns a shallow copy of the stored values.
func (m *Memory) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Replace swaps the stored values for values.
func (m *Memory) Replace(values map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]any, len(values))
	for k, v := range values {
		if v != nil {
			m.values[k] = v
		}
	}
}

// Decode converts a stored value into out, which must be a non-nil pointer.
//
// Values written in-process are returned as-is when their type matches.
// Values read back from a file arrive as generic maps, slices and scalars;
// those are converted through a YAML round trip.
func Decode(raw any, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: target must be a non-nil pointer, got %T", ErrDecode, out)
	}
	if raw == nil {
		return fmt.Errorf("%w: nil value", ErrDecode)
	}

	target := rv.Elem()
	src := reflect.ValueOf(raw)
	if src.Type().AssignableTo(target.Type()) {
		target.Set(src)
		return nil
	}
	if src.Kind() == reflect.Pointer && !src.IsNil() && src.Elem().Type().AssignableTo(target.Type()) {
		target.Set(src.Elem())
		return nil
	}

	switch src.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
	case target.Kind():
		// Named scalar types such as mode.Mode come back as their base kind.
		target.Set(src.Convert(target.Type()))
		return nil
	default:
		return fmt.Errorf("%w: cannot convert %T to %s", ErrDecode, raw, target.Type())
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
