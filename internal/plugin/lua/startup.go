package lua

import (
	"errors"
	"fmt"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/vintage/internal/catalog"
	"github.com/dshills/vintage/internal/session"
)

// ModuleName is the global table exposed to startup scripts.
const ModuleName = "vintage"

// Sink executes execution commands.
type Sink interface {
	Run(command string, args catalog.Args)
}

// Logger is the logging surface exposed to scripts.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Startup runs the user's startup script against a session.
//
// Scripts see a vintage table:
//
//	vintage.set("last_buffer_search", "needle")
//	vintage.get("xpos")
//	vintage.run("_vi_j", { count = 3 })
//	vintage.mode()
//	vintage.log("loaded")
type Startup struct {
	path    string
	sink    Sink
	logger  Logger
	timeout time.Duration
}

// NewStartup creates a runner for the script at path. An empty path or a
// missing file makes Run a no-op.
func NewStartup(path string, sink Sink, logger Logger) *Startup {
	return &Startup{path: path, sink: sink, logger: logger, timeout: DefaultExecutionTimeout}
}

// Path returns the script location.
func (st *Startup) Path() string {
	return st.path
}

// Run executes the script.
func (st *Startup) Run(s *session.State) error {
	if st.path == "" {
		return nil
	}
	if _, err := os.Stat(st.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	L := NewState(WithExecutionTimeout(st.timeout))
	defer L.Close()

	L.RegisterModule(ModuleName, st.module(s))
	if err := L.DoFile(st.path); err != nil {
		return fmt.Errorf("running %s: %w", st.path, err)
	}
	st.info("startup script %s done", st.path)
	return nil
}

// RunString executes code as if it were the startup script.
func (st *Startup) RunString(s *session.State, code string) error {
	L := NewState(WithExecutionTimeout(st.timeout))
	defer L.Close()

	L.RegisterModule(ModuleName, st.module(s))
	return L.DoString(code)
}

func (st *Startup) module(s *session.State) map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"set": func(L *lua.LState) int {
			key := L.CheckString(1)
			value, err := toGo(L.Get(2))
			if err != nil {
				L.ArgError(2, err.Error())
				return 0
			}
			if err := s.SetField(key, value); err != nil {
				L.RaiseError("vintage.set: %v", err)
			}
			return 0
		},
		"get": func(L *lua.LState) int {
			value, err := s.Get(L.CheckString(1))
			if err != nil {
				L.RaiseError("vintage.get: %v", err)
				return 0
			}
			L.Push(toLua(L, value))
			return 1
		},
		"run": func(L *lua.LState) int {
			command := L.CheckString(1)
			args := catalog.Args{}
			if L.GetTop() >= 2 {
				tbl := L.CheckTable(2)
				v, err := toGo(tbl)
				if err != nil {
					L.ArgError(2, err.Error())
					return 0
				}
				a, ok := v.(catalog.Args)
				if !ok {
					L.ArgError(2, "arguments must be a keyed table")
					return 0
				}
				args = a
			}
			if st.sink == nil {
				st.warn("vintage.run(%s): no sink", command)
				return 0
			}
			st.sink.Run(command, args)
			return 0
		},
		"mode": func(L *lua.LState) int {
			L.Push(lua.LString(s.Mode().String()))
			return 1
		},
		"log": func(L *lua.LState) int {
			st.info("%s", L.CheckString(1))
			return 0
		},
	}
}

func (st *Startup) info(msg string, args ...any) {
	if st.logger != nil {
		st.logger.Info(msg, args...)
	}
}

func (st *Startup) warn(msg string, args ...any) {
	if st.logger != nil {
		st.logger.Warn(msg, args...)
	}
}
