package lua

import (
	"fmt"
	"math"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/vintage/internal/catalog"
)

// toGo converts a Lua value to the Go value session fields and command
// arguments expect: integral numbers become int, arrays of strings become
// []string and keyed tables become catalog.Args.
func toGo(lv lua.LValue) (any, error) {
	return toGoVisited(lv, make(map[*lua.LTable]bool))
}

func toGoVisited(lv lua.LValue, visited map[*lua.LTable]bool) (any, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(v), nil
	case lua.LString:
		return string(v), nil
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32 {
			return int(f), nil
		}
		return f, nil
	case *lua.LTable:
		if visited[v] {
			return nil, fmt.Errorf("%w: circular table", ErrUnsupportedValue)
		}
		visited[v] = true
		return tableToGo(v, visited)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, lv.Type())
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) (any, error) {
	if n := t.Len(); n > 0 && arrayLen(t) == n {
		out := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			s, ok := t.RawGetInt(i).(lua.LString)
			if !ok {
				return nil, fmt.Errorf("%w: list elements must be strings", ErrUnsupportedValue)
			}
			out = append(out, string(s))
		}
		return out, nil
	}

	args := catalog.Args{}
	var err error
	t.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok {
			err = fmt.Errorf("%w: table keys must be strings", ErrUnsupportedValue)
			return
		}
		var gv any
		if gv, err = toGoVisited(v, visited); err == nil {
			args[string(key)] = gv
		}
	})
	if err != nil {
		return nil, err
	}
	return args, nil
}

// arrayLen counts the entries of t.
func arrayLen(t *lua.LTable) int {
	n := 0
	t.ForEach(func(_, _ lua.LValue) { n++ })
	return n
}

// toLua converts a Go value read from the session into a Lua value.
func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case []string:
		t := L.NewTable()
		for _, s := range x {
			t.Append(lua.LString(s))
		}
		return t
	case catalog.Args:
		t := L.NewTable()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, toLua(L, x[k]))
		}
		return t
	case fmt.Stringer:
		return lua.LString(x.String())
	default:
		return lua.LString(fmt.Sprint(x))
	}
}
