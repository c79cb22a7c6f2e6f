// Package catalog maps motion and action names to the code that turns the
// session state into an execution command.
//
// A catalog entry never edits the buffer. It reads the pending command from
// the session (count, register, collected input) and returns an Invocation:
// the name of an execution command and its arguments. The resolver hands
// invocations to the execution sink.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/vintage/internal/session"
	"github.com/dshills/vintage/internal/view"
)

// Args are the arguments of an execution command.
type Args map[string]any

// Has reports whether key is present.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Clone returns a shallow copy.
func (a Args) Clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// IntOr returns the integer stored under key, or def.
func (a Args) IntOr(key string, def int) int {
	if v, ok := a[key].(int); ok {
		return v
	}
	return def
}

// StringOr returns the string stored under key, or def.
func (a Args) StringOr(key, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return def
}

// Invocation names an execution command and its arguments.
type Invocation struct {
	Command string
	Args    Args
}

// String returns a compact representation for logging.
func (i Invocation) String() string {
	keys := make([]string, 0, len(i.Args))
	for k := range i.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := i.Command + "("
	for n, k := range keys {
		if n > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s=%v", k, i.Args[k])
	}
	return s + ")"
}

// Env is what a catalog entry may read.
type Env struct {
	State *session.State
	View  view.Query
}

// Func builds the invocation for a motion or action.
type Func func(env *Env) (Invocation, error)

// Catalog holds motions and actions by name.
type Catalog struct {
	mu      sync.RWMutex
	motions map[string]Func
	actions map[string]Func
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		motions: make(map[string]Func),
		actions: make(map[string]Func),
	}
}

// RegisterMotion adds or replaces a motion.
func (c *Catalog) RegisterMotion(name string, fn Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.motions[name] = fn
}

// RegisterAction adds or replaces an action.
func (c *Catalog) RegisterAction(name string, fn Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions[name] = fn
}

// Motion returns the motion registered under name.
func (c *Catalog) Motion(name string) (Func, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.motions[name]
	return fn, ok
}

// Action returns the action registered under name.
func (c *Catalog) Action(name string) (Func, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.actions[name]
	return fn, ok
}

// Motions returns the registered motion names in sorted order.
func (c *Catalog) Motions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.motions)
}

// Actions returns the registered action names in sorted order.
func (c *Catalog) Actions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.actions)
}

func sortedKeys(m map[string]Func) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
