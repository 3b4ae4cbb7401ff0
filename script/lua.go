// script/lua.go
//
// Lua VM built on gopher-lua. Element proxies are tables whose methods
// queue mutations through the shared bridge; reactive variables are
// intercepted on the globals table so scripts use them as first-class names.

package script

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kryonlabs/kryon-renderer/core"
	lua "github.com/yuin/gopher-lua"
)

type luaEngine struct {
	L      *lua.LState
	bridge *Bridge
	vars   *Store

	readyFns  []*lua.LFunction
	listeners map[string][]*lua.LFunction
}

// NewLuaEngine is the registry factory for the "lua" language tag.
func NewLuaEngine(b *Bridge, vars *Store) (Engine, error) {
	e := &luaEngine{
		L:         lua.NewState(),
		bridge:    b,
		vars:      vars,
		listeners: make(map[string][]*lua.LFunction),
	}
	e.setupAPI()
	e.setupReactiveGlobals()
	return e, nil
}

func (e *luaEngine) Lang() string { return "lua" }

func (e *luaEngine) Load(name, source string) error {
	if err := e.L.DoString(source); err != nil {
		return fmt.Errorf("lua module %q: %w", name, err)
	}
	return nil
}

func (e *luaEngine) HasFunction(name string) bool {
	return e.L.GetGlobal(name).Type() == lua.LTFunction
}

func (e *luaEngine) Call(ctx context.Context, fn string) error {
	v := e.L.GetGlobal(fn)
	f, ok := v.(*lua.LFunction)
	if !ok {
		return fmt.Errorf("lua: %q is not a function", fn)
	}
	return e.protectedCall(ctx, f)
}

func (e *luaEngine) EmitReady(ctx context.Context) error {
	for _, f := range e.readyFns {
		if err := e.protectedCall(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (e *luaEngine) EmitGlobal(ctx context.Context, event string) error {
	for _, f := range e.listeners[event] {
		if err := e.protectedCall(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (e *luaEngine) Close() {
	e.L.Close()
}

func (e *luaEngine) protectedCall(ctx context.Context, f *lua.LFunction) error {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		e.L.SetContext(ctx)
		defer e.L.SetContext(context.Background())
	}
	err := e.L.CallByParam(lua.P{Fn: f, NRet: 0, Protect: true})
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrBudgetExceeded, err)
	}
	return err
}

// --- bridged API ---

func (e *luaEngine) setupAPI() {
	L := e.L

	L.SetGlobal("getElementById", L.NewFunction(func(L *lua.LState) int {
		id, ok := e.bridge.ElementByID(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(e.newProxy(id))
		return 1
	}))
	L.SetGlobal("getElementsByTag", L.NewFunction(func(L *lua.LState) int {
		L.Push(e.proxyList(e.bridge.ElementsByTag(L.CheckString(1))))
		return 1
	}))
	L.SetGlobal("getElementsByClass", L.NewFunction(func(L *lua.LState) int {
		L.Push(e.proxyList(e.bridge.ElementsByClass(L.CheckString(1))))
		return 1
	}))
	L.SetGlobal("querySelector", L.NewFunction(func(L *lua.LState) int {
		ids := e.bridge.Query(L.CheckString(1))
		if len(ids) == 0 {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(e.newProxy(ids[0]))
		return 1
	}))
	L.SetGlobal("querySelectorAll", L.NewFunction(func(L *lua.LState) int {
		L.Push(e.proxyList(e.bridge.Query(L.CheckString(1))))
		return 1
	}))
	L.SetGlobal("getComponentProperty", L.NewFunction(func(L *lua.LState) int {
		id, ok := e.bridge.ElementByID(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		if v, ok := e.bridge.ComponentProperty(id, L.CheckString(2)); ok {
			L.Push(lua.LString(v))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))
	L.SetGlobal("onReady", L.NewFunction(func(L *lua.LState) int {
		e.readyFns = append(e.readyFns, L.CheckFunction(1))
		return 0
	}))
	L.SetGlobal("addEventListener", L.NewFunction(func(L *lua.LState) int {
		event := L.CheckString(1)
		e.listeners[event] = append(e.listeners[event], L.CheckFunction(2))
		return 0
	}))
}

func (e *luaEngine) proxyList(ids []core.ElementID) *lua.LTable {
	t := e.L.NewTable()
	for _, id := range ids {
		t.Append(e.newProxy(id))
	}
	return t
}

// newProxy wraps an element handle in an opaque table. Scripts never see
// the raw handle; every method goes through the bridge.
func (e *luaEngine) newProxy(id core.ElementID) *lua.LTable {
	L := e.L
	t := L.NewTable()

	method := func(name string, fn lua.LGFunction) {
		L.SetField(t, name, L.NewFunction(fn))
	}
	method("setText", func(L *lua.LState) int {
		e.bridge.SetText(id, L.CheckString(2))
		return 0
	})
	method("setStyle", func(L *lua.LState) int {
		e.bridge.SetStyle(id, L.CheckString(2))
		return 0
	})
	method("setVisible", func(L *lua.LState) int {
		e.bridge.SetVisible(id, lua.LVAsBool(L.Get(2)))
		return 0
	})
	method("setChecked", func(L *lua.LState) int {
		e.bridge.SetChecked(id, lua.LVAsBool(L.Get(2)))
		return 0
	})
	method("getText", func(L *lua.LState) int {
		L.Push(lua.LString(e.bridge.GetText(id)))
		return 1
	})
	method("getVisible", func(L *lua.LState) int {
		L.Push(lua.LBool(e.bridge.GetVisible(id)))
		return 1
	})
	method("getChecked", func(L *lua.LState) int {
		L.Push(lua.LBool(e.bridge.GetChecked(id)))
		return 1
	})
	method("getParent", func(L *lua.LState) int {
		if p, ok := e.bridge.Parent(id); ok {
			L.Push(e.newProxy(p))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	})
	method("getChildren", func(L *lua.LState) int {
		L.Push(e.proxyList(e.bridge.Children(id)))
		return 1
	})
	method("getNextSibling", func(L *lua.LState) int {
		if s, ok := e.bridge.NextSibling(id); ok {
			L.Push(e.newProxy(s))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	})
	method("getPreviousSibling", func(L *lua.LState) int {
		if s, ok := e.bridge.PreviousSibling(id); ok {
			L.Push(e.newProxy(s))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	})
	return t
}

// setupReactiveGlobals installs __index/__newindex on the globals table so
// declared reactive variables read and write like plain globals. Everything
// else falls through to a raw set, which is how script-defined functions
// keep working.
func (e *luaEngine) setupReactiveGlobals() {
	L := e.L
	mt := L.NewTable()
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		if !e.vars.Has(name) {
			L.Push(lua.LNil)
			return 1
		}
		v := e.vars.Get(name)
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			L.Push(lua.LNumber(n))
		} else {
			L.Push(lua.LString(v))
		}
		return 1
	}))
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		name := L.CheckString(2)
		value := L.Get(3)
		if e.vars.Has(name) {
			e.vars.Set(name, lua.LVAsString(value))
			return 0
		}
		L.RawSet(tbl, lua.LString(name), value)
		return 0
	}))
	L.SetMetatable(L.G.Global, mt)
}
