package plugin

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// luaToGo converts a Lua value to its Go equivalent. Tables with
// contiguous integer keys from 1 become slices, all other tables become
// string-keyed maps. Functions and userdata convert to nil.
func luaToGo(lv lua.LValue) any {
	return luaToGoVisited(lv, make(map[*lua.LTable]bool))
}

func luaToGoVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			// Cycle; truncate rather than recurse forever.
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	isArray := true
	maxN := 0
	count := 0
	t.ForEach(func(k, _ lua.LValue) {
		count++
		kn, ok := k.(lua.LNumber)
		if !ok {
			isArray = false
			return
		}
		n := int(kn)
		if float64(n) != float64(kn) || n < 1 {
			isArray = false
			return
		}
		if n > maxN {
			maxN = n
		}
	})

	if isArray && maxN > 0 && count == maxN {
		arr := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = luaToGoVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = luaToGoVisited(v, visited)
	})
	return m
}

// goToLua converts a Go value to a Lua value on the given state. Slices
// become 1-indexed tables, maps become string-keyed tables.
func goToLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []string:
		t := L.NewTable()
		for i, s := range val {
			t.RawSetInt(i+1, lua.LString(s))
		}
		return t
	case []any:
		t := L.NewTable()
		for i, e := range val {
			t.RawSetInt(i+1, goToLua(L, e))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, e := range val {
			t.RawSetString(k, goToLua(L, e))
		}
		return t
	default:
		return lua.LNil
	}
}

// payloadFromLua coerces a producer return value into a block payload.
func payloadFromLua(lv lua.LValue) (map[string]any, error) {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: produce returned %s, want table", ErrBadReturn, lv.Type())
	}
	m, ok := luaToGo(t).(map[string]any)
	if !ok {
		// An array-shaped table is not a block payload.
		return nil, fmt.Errorf("%w: produce returned an array, want string-keyed table", ErrBadReturn)
	}
	return m, nil
}
