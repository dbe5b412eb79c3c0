package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/blockpress/blockpress/internal/paste"
)

// Loader evaluates Lua pattern scripts and exposes them as paste patterns.
// One Loader owns one Lua state; every loaded pattern's match and produce
// calls are serialized through it.
type Loader struct {
	mu     sync.Mutex
	state  *lua.LState
	logger zerolog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the loader logger.
func WithLogger(logger zerolog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a loader with a sandboxed Lua state.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		state:  newSandboxedState(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// newSandboxedState opens only the libraries a pattern script legitimately
// needs. No io, no os, no package loading.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	// OpenBase installs code-loading escapes; strip them.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	return L
}

// Close releases the Lua state. Patterns loaded from this loader stop
// matching once it is closed.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != nil {
		l.state.Close()
		l.state = nil
	}
}

// LoadFile evaluates the script at path and returns the pattern it defines.
func (l *Loader) LoadFile(path string) (paste.Pattern, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return paste.Pattern{}, fmt.Errorf("reading pattern script: %w", err)
	}
	return l.LoadScript(string(src), filepath.Base(path))
}

// LoadScript evaluates src and returns the pattern it defines. chunk names
// the script in error messages.
func (l *Loader) LoadScript(src, chunk string) (paste.Pattern, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == nil {
		return paste.Pattern{}, ErrClosed
	}

	fn, err := l.state.Load(strings.NewReader(src), chunk)
	if err != nil {
		return paste.Pattern{}, fmt.Errorf("compiling %s: %w", chunk, err)
	}
	l.state.Push(fn)
	if err := l.state.PCall(0, 1, nil); err != nil {
		return paste.Pattern{}, fmt.Errorf("evaluating %s: %w", chunk, err)
	}
	ret := l.state.Get(-1)
	l.state.Pop(1)

	table, ok := ret.(*lua.LTable)
	if !ok {
		return paste.Pattern{}, fmt.Errorf("%s: %w: script returned %s, want table", chunk, ErrBadReturn, ret.Type())
	}

	return l.patternFromTable(table, chunk)
}

func (l *Loader) patternFromTable(t *lua.LTable, chunk string) (paste.Pattern, error) {
	name, ok := tableString(t, "name")
	if !ok {
		return paste.Pattern{}, fmt.Errorf("%s: %w: name", chunk, ErrMissingField)
	}
	kind, ok := tableString(t, "kind")
	if !ok {
		return paste.Pattern{}, fmt.Errorf("%s: %w: kind", chunk, ErrMissingField)
	}
	matchFn, ok := t.RawGetString("match").(*lua.LFunction)
	if !ok {
		return paste.Pattern{}, fmt.Errorf("%s: %w: match", chunk, ErrMissingField)
	}

	priority := 0
	if n, ok := t.RawGetString("priority").(lua.LNumber); ok {
		priority = int(n)
	}
	produceFn, _ := t.RawGetString("produce").(*lua.LFunction)

	return paste.Pattern{
		Name:     name,
		Kind:     kind,
		Priority: priority,
		Match: func(text string) (paste.Match, bool) {
			return l.callMatch(name, matchFn, text)
		},
		Produce: func(ctx context.Context, text string, m paste.Match) (map[string]any, error) {
			return l.callProduce(ctx, name, produceFn, text, m)
		},
	}, nil
}

func (l *Loader) callMatch(name string, fn *lua.LFunction, text string) (paste.Match, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == nil {
		return paste.Match{}, false
	}

	err := l.state.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(text))
	if err != nil {
		l.logger.Warn().Str("pattern", name).Err(err).Msg("lua match failed")
		return paste.Match{}, false
	}
	ret := l.state.Get(-1)
	l.state.Pop(1)

	switch v := ret.(type) {
	case lua.LBool:
		if bool(v) {
			return paste.Match{Text: text}, true
		}
		return paste.Match{}, false
	case lua.LString:
		return paste.Match{Text: string(v)}, true
	case *lua.LTable:
		m := paste.Match{Text: text}
		if s, ok := tableString(v, "text"); ok {
			m.Text = s
		}
		if groups, ok := v.RawGetString("groups").(*lua.LTable); ok {
			m.Groups = stringSlice(groups)
		}
		return m, true
	default:
		return paste.Match{}, false
	}
}

func (l *Loader) callProduce(ctx context.Context, name string, fn *lua.LFunction, text string, m paste.Match) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := m.Text
	if matched == "" {
		matched = text
	}
	if fn == nil {
		return map[string]any{"text": matched}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == nil {
		return nil, ErrClosed
	}

	// The producer deadline applies inside the script too.
	l.state.SetContext(ctx)
	defer l.state.RemoveContext()

	matchArg := goToLua(l.state, map[string]any{
		"text":   matched,
		"groups": m.Groups,
	})
	err := l.state.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(text), matchArg)
	if err != nil {
		return nil, fmt.Errorf("pattern %q produce: %w", name, err)
	}
	ret := l.state.Get(-1)
	l.state.Pop(1)

	if ret == lua.LNil {
		return nil, nil
	}
	payload, err := payloadFromLua(ret)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", name, err)
	}
	return payload, nil
}

func tableString(t *lua.LTable, key string) (string, bool) {
	if s, ok := t.RawGetString(key).(lua.LString); ok && s != "" {
		return string(s), true
	}
	return "", false
}

func stringSlice(t *lua.LTable) []string {
	arr, _ := luaToGo(t).([]any)
	if len(arr) == 0 {
		return nil
	}
	out := make([]string, len(arr))
	for i, v := range arr {
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprintf("%v", v)
		}
		out[i] = s
	}
	return out
}
