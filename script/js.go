// script/js.go
//
// JavaScript VM built on goja. Mirrors the Lua surface exactly: proxies
// queue through the shared bridge, reactive variables are accessor
// properties on the global object.

package script

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/kryonlabs/kryon-renderer/core"
)

type jsEngine struct {
	vm     *goja.Runtime
	bridge *Bridge
	vars   *Store

	readyFns  []goja.Callable
	listeners map[string][]goja.Callable
}

// NewJSEngine is the registry factory for the "js" language tag.
func NewJSEngine(b *Bridge, vars *Store) (Engine, error) {
	e := &jsEngine{
		vm:        goja.New(),
		bridge:    b,
		vars:      vars,
		listeners: make(map[string][]goja.Callable),
	}
	if err := e.setupAPI(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *jsEngine) Lang() string { return "js" }

func (e *jsEngine) Load(name, source string) error {
	// Reactive variables must be installed before user code references
	// them; new declarations since VM creation are picked up here.
	if err := e.installReactiveGlobals(); err != nil {
		return err
	}
	if _, err := e.vm.RunScript(name, source); err != nil {
		return fmt.Errorf("js module %q: %w", name, err)
	}
	return nil
}

func (e *jsEngine) HasFunction(name string) bool {
	v := e.vm.Get(name)
	if v == nil {
		return false
	}
	_, ok := goja.AssertFunction(v)
	return ok
}

func (e *jsEngine) Call(ctx context.Context, fn string) error {
	v := e.vm.Get(fn)
	callable, ok := goja.AssertFunction(v)
	if !ok {
		return fmt.Errorf("js: %q is not a function", fn)
	}
	return e.protectedCall(ctx, callable)
}

func (e *jsEngine) EmitReady(ctx context.Context) error {
	for _, f := range e.readyFns {
		if err := e.protectedCall(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (e *jsEngine) EmitGlobal(ctx context.Context, event string) error {
	for _, f := range e.listeners[event] {
		if err := e.protectedCall(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (e *jsEngine) Close() {
	e.vm.Interrupt("engine closed")
}

func (e *jsEngine) protectedCall(ctx context.Context, f goja.Callable) error {
	var timer *time.Timer
	if deadline, ok := ctx.Deadline(); ok {
		timer = time.AfterFunc(time.Until(deadline), func() {
			e.vm.Interrupt("budget exceeded")
		})
	}
	_, err := f(goja.Undefined())
	if timer != nil {
		timer.Stop()
		e.vm.ClearInterrupt()
	}
	if err != nil {
		if _, interrupted := err.(*goja.InterruptedError); interrupted {
			return fmt.Errorf("%w: %v", ErrBudgetExceeded, err)
		}
	}
	return err
}

// --- bridged API ---

func (e *jsEngine) setupAPI() error {
	vm := e.vm

	set := func(name string, fn any) error {
		return vm.Set(name, fn)
	}
	if err := set("getElementById", func(id string) goja.Value {
		eid, ok := e.bridge.ElementByID(id)
		if !ok {
			return goja.Null()
		}
		return e.newProxy(eid)
	}); err != nil {
		return err
	}
	if err := set("getElementsByTag", func(tag string) []goja.Value {
		return e.proxyList(e.bridge.ElementsByTag(tag))
	}); err != nil {
		return err
	}
	if err := set("getElementsByClass", func(name string) []goja.Value {
		return e.proxyList(e.bridge.ElementsByClass(name))
	}); err != nil {
		return err
	}
	if err := set("querySelector", func(sel string) goja.Value {
		ids := e.bridge.Query(sel)
		if len(ids) == 0 {
			return goja.Null()
		}
		return e.newProxy(ids[0])
	}); err != nil {
		return err
	}
	if err := set("querySelectorAll", func(sel string) []goja.Value {
		return e.proxyList(e.bridge.Query(sel))
	}); err != nil {
		return err
	}
	if err := set("getComponentProperty", func(id, name string) goja.Value {
		eid, ok := e.bridge.ElementByID(id)
		if !ok {
			return goja.Null()
		}
		if v, ok := e.bridge.ComponentProperty(eid, name); ok {
			return e.vm.ToValue(v)
		}
		return goja.Null()
	}); err != nil {
		return err
	}
	if err := set("onReady", func(cb goja.Value) {
		if f, ok := goja.AssertFunction(cb); ok {
			e.readyFns = append(e.readyFns, f)
		}
	}); err != nil {
		return err
	}
	return set("addEventListener", func(event string, cb goja.Value) {
		if f, ok := goja.AssertFunction(cb); ok {
			e.listeners[event] = append(e.listeners[event], f)
		}
	})
}

func (e *jsEngine) proxyList(ids []core.ElementID) []goja.Value {
	out := make([]goja.Value, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.newProxy(id))
	}
	return out
}

func (e *jsEngine) newProxy(id core.ElementID) goja.Value {
	obj := e.vm.NewObject()
	must := func(name string, fn any) {
		_ = obj.Set(name, fn)
	}
	must("setText", func(text string) { e.bridge.SetText(id, text) })
	must("setStyle", func(name string) { e.bridge.SetStyle(id, name) })
	must("setVisible", func(v bool) { e.bridge.SetVisible(id, v) })
	must("setChecked", func(v bool) { e.bridge.SetChecked(id, v) })
	must("getText", func() string { return e.bridge.GetText(id) })
	must("getVisible", func() bool { return e.bridge.GetVisible(id) })
	must("getChecked", func() bool { return e.bridge.GetChecked(id) })
	must("getParent", func() goja.Value {
		if p, ok := e.bridge.Parent(id); ok {
			return e.newProxy(p)
		}
		return goja.Null()
	})
	must("getChildren", func() []goja.Value { return e.proxyList(e.bridge.Children(id)) })
	must("getNextSibling", func() goja.Value {
		if s, ok := e.bridge.NextSibling(id); ok {
			return e.newProxy(s)
		}
		return goja.Null()
	})
	must("getPreviousSibling", func() goja.Value {
		if s, ok := e.bridge.PreviousSibling(id); ok {
			return e.newProxy(s)
		}
		return goja.Null()
	})
	return obj
}

// installReactiveGlobals defines each declared variable as an accessor pair
// on the global object. Reads coerce to the native type; writes queue into
// the shared store.
func (e *jsEngine) installReactiveGlobals() error {
	global := e.vm.GlobalObject()
	for _, name := range e.vars.Names() {
		name := name
		if global.Get(name) != nil && !goja.IsUndefined(global.Get(name)) {
			continue
		}
		getter := e.vm.ToValue(func() any {
			return CoerceScalar(e.vars.Get(name))
		})
		setter := e.vm.ToValue(func(v goja.Value) {
			e.vars.Set(name, v.String())
		})
		if err := global.DefineAccessorProperty(name, getter, setter, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return fmt.Errorf("js: defining reactive %q: %w", name, err)
		}
	}
	return nil
}
