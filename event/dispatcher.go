// event/dispatcher.go
//
// Converts backend-neutral input events into hit-tested element callbacks
// and document events. Pointer targets come from reverse paint order; every
// dispatch ends with a mutation drain so script writes land before the next
// style/layout pass.

package event

import (
	"github.com/kryonlabs/kryon-renderer/core"
	"github.com/kryonlabs/kryon-renderer/krb"
	"github.com/kryonlabs/kryon-renderer/render"
	"github.com/kryonlabs/kryon-renderer/script"
)

// Event is the record handed to host-registered handlers during
// propagation. Setting StopPropagation halts bubbling.
type Event struct {
	Kind            krb.EventKind
	Target          core.ElementID
	X, Y            float32
	Key             string
	StopPropagation bool
}

// Handler is a host-side (Go) event handler, registered by name like the
// script handlers the compiler binds.
type Handler func(*Event)

type Dispatcher struct {
	doc     *core.Document
	scripts *script.System

	handlers map[string]Handler

	hovered core.ElementID
	focused core.ElementID
	pressed core.ElementID

	// OnResize is invoked for backend resize events; the host rewires the
	// layout viewport there.
	OnResize func(w, h int)
}

func NewDispatcher(doc *core.Document, scripts *script.System) *Dispatcher {
	return &Dispatcher{
		doc:      doc,
		scripts:  scripts,
		handlers: make(map[string]Handler),
		hovered:  core.InvalidElement,
		focused:  core.InvalidElement,
		pressed:  core.InvalidElement,
	}
}

// RegisterHandler installs a Go handler for a callback name. Go handlers
// take precedence over script functions of the same name.
func (d *Dispatcher) RegisterHandler(name string, h Handler) {
	d.handlers[name] = h
}

// Focused returns the currently focused element.
func (d *Dispatcher) Focused() core.ElementID { return d.focused }

// Dispatch processes one input event. Always ends with a mutation drain.
func (d *Dispatcher) Dispatch(ev render.InputEvent) {
	switch ev.Kind {
	case render.InputPointerMove:
		d.pointerMove(ev.X, ev.Y)
	case render.InputPointerDown:
		d.pointerDown(ev.X, ev.Y)
	case render.InputPointerUp:
		d.pointerUp(ev.X, ev.Y)
	case render.InputPointerWheel:
		// No element-level wheel binding in the closed event set; document
		// listeners still observe it.
		d.scripts.EmitGlobal("wheel")
	case render.InputKeyDown:
		d.keyDown(ev.Key)
	case render.InputKeyUp:
		d.keyEvent(krb.EventKindKeyUp, ev.Key, "keyup")
	case render.InputResize:
		if d.OnResize != nil {
			d.OnResize(ev.Width, ev.Height)
		}
		d.scripts.EmitGlobal("resize")
	case render.InputFocusChange:
		if !ev.FocusGained {
			d.clearHover()
			d.setActive(core.InvalidElement)
		}
		d.scripts.EmitGlobal("focuschange")
	}
	d.scripts.DrainAll()
}

// HitTest walks the laid-out tree in reverse paint order and returns the
// first interactive element whose box, adjusted by the transforms and clips
// along its root path, contains the point.
func (d *Dispatcher) HitTest(x, y float32) core.ElementID {
	order := render.PaintOrder(d.doc)
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		if !d.doc.Interactive(id) {
			continue
		}
		lx, ly, ok := d.localPoint(id, x, y)
		if !ok || !d.doc.Get(id).Layout.Contains(lx, ly) {
			continue
		}
		if d.clippedOut(id, x, y) {
			continue
		}
		return id
	}
	return core.InvalidElement
}

// clippedOut rejects points outside any overflow-clipping ancestor. Each
// ancestor's clip rect lives in that ancestor's transformed space.
func (d *Dispatcher) clippedOut(id core.ElementID, x, y float32) bool {
	for p := d.doc.Get(id).Parent; p != core.InvalidElement; p = d.doc.Get(p).Parent {
		m := d.doc.ResolveAll(p)
		clipped := m[krb.PropOverflow].Enum != krb.EnumOverflowVisible ||
			m[krb.PropOverflowX].Enum != krb.EnumOverflowVisible ||
			m[krb.PropOverflowY].Enum != krb.EnumOverflowVisible
		if !clipped {
			continue
		}
		lx, ly, ok := d.localPoint(p, x, y)
		if !ok || !d.doc.Get(p).Layout.Contains(lx, ly) {
			return true
		}
	}
	return false
}

var identity = [6]float32{1, 0, 0, 1, 0, 0}

// localPoint maps a viewport point into the element's untransformed
// coordinate space by inverting each transform along the root path, in the
// order the translator pushes them during paint. Returns ok=false for a
// degenerate (non-invertible) transform, which makes the element unhittable.
func (d *Dispatcher) localPoint(id core.ElementID, x, y float32) (float32, float32, bool) {
	var path []core.ElementID
	for e := id; e != core.InvalidElement; e = d.doc.Get(e).Parent {
		path = append(path, e)
	}
	for i := len(path) - 1; i >= 0; i-- {
		t := d.doc.Resolved(path[i], krb.PropTransform).Transform
		if t == identity {
			continue
		}
		var ok bool
		x, y, ok = invertAffine(t, x, y)
		if !ok {
			return 0, 0, false
		}
	}
	return x, y, true
}

// invertAffine maps a point through the inverse of the 2x3 affine matrix
// [a b c d e f], where forward is (a*x + c*y + e, b*x + d*y + f).
func invertAffine(t [6]float32, x, y float32) (float32, float32, bool) {
	a, b, c, dd, e, f := t[0], t[1], t[2], t[3], t[4], t[5]
	det := a*dd - b*c
	if det == 0 {
		return 0, 0, false
	}
	px, py := x-e, y-f
	return (dd*px - c*py) / det, (a*py - b*px) / det, true
}

// --- pointer handling ---

func (d *Dispatcher) pointerMove(x, y float32) {
	target := d.HitTest(x, y)
	if target == d.hovered {
		return
	}
	d.clearHover()
	d.hovered = target
	// Hover sets the pseudo bit on the target and its ancestors along the
	// event path.
	for id := target; id != core.InvalidElement; id = d.doc.Get(id).Parent {
		d.doc.SetPseudo(id, krb.PseudoHover, true)
	}
	if target != core.InvalidElement {
		d.propagate(&Event{Kind: krb.EventKindHover, Target: target, X: x, Y: y})
	}
}

func (d *Dispatcher) clearHover() {
	for id := d.hovered; id != core.InvalidElement; id = d.doc.Get(id).Parent {
		d.doc.SetPseudo(id, krb.PseudoHover, false)
	}
	d.hovered = core.InvalidElement
}

func (d *Dispatcher) pointerDown(x, y float32) {
	target := d.HitTest(x, y)
	d.setActive(target)
	d.pressed = target
	if target == core.InvalidElement {
		d.SetFocus(core.InvalidElement)
		return
	}
	if d.doc.Focusable(target) {
		d.SetFocus(target)
	}
	d.propagate(&Event{Kind: krb.EventKindPress, Target: target, X: x, Y: y})
}

func (d *Dispatcher) pointerUp(x, y float32) {
	target := d.HitTest(x, y)
	pressed := d.pressed
	d.setActive(core.InvalidElement)
	d.pressed = core.InvalidElement

	if target != core.InvalidElement {
		d.propagate(&Event{Kind: krb.EventKindRelease, Target: target, X: x, Y: y})
	}
	if target == core.InvalidElement || target != pressed {
		return
	}

	d.widgetDefaults(target, x, y)
	d.propagate(&Event{Kind: krb.EventKindClick, Target: target, X: x, Y: y})
}

// widgetDefaults applies the built-in behavior of stateful widgets before
// user handlers observe the click.
func (d *Dispatcher) widgetDefaults(target core.ElementID, x, y float32) {
	el := d.doc.Get(target)
	switch el.Kind {
	case krb.ElemKindCheckbox:
		d.doc.SetProperty(target, krb.PropChecked, core.BoolValue(!d.doc.Checked(target)))
		d.invoke(el.Handlers[krb.EventKindChange])
	case krb.ElemKindSlider:
		box := el.Layout
		if lx, _, ok := d.localPoint(target, x, y); ok && box.W > 0 {
			m := d.doc.ResolveAll(target)
			min := m[krb.PropMinValue].AsFloat()
			max := m[krb.PropMaxValue].AsFloat()
			ratio := (lx - box.X) / box.W
			if ratio < 0 {
				ratio = 0
			}
			if ratio > 1 {
				ratio = 1
			}
			d.doc.SetProperty(target, krb.PropValue, core.FloatValue(min+ratio*(max-min)))
			d.invoke(el.Handlers[krb.EventKindChange])
		}
	}
}

func (d *Dispatcher) setActive(id core.ElementID) {
	if d.pressed != core.InvalidElement {
		d.doc.SetPseudo(d.pressed, krb.PseudoActive, false)
	}
	if id != core.InvalidElement {
		d.doc.SetPseudo(id, krb.PseudoActive, true)
	}
}

// --- focus ---

// SetFocus moves focus, updating pseudo bits and firing blur/focus
// handlers.
func (d *Dispatcher) SetFocus(id core.ElementID) {
	if id == d.focused {
		return
	}
	if d.focused != core.InvalidElement {
		d.doc.SetPseudo(d.focused, krb.PseudoFocus, false)
		d.invoke(d.doc.Get(d.focused).Handlers[krb.EventKindBlur])
	}
	d.focused = id
	if id != core.InvalidElement {
		d.doc.SetPseudo(id, krb.PseudoFocus, true)
		d.invoke(d.doc.Get(id).Handlers[krb.EventKindFocus])
	}
}

// FocusNext advances Tab navigation through focusable elements in document
// order, wrapping at the ends.
func (d *Dispatcher) FocusNext(backward bool) {
	var focusables []core.ElementID
	for i := range d.doc.Elements {
		id := d.doc.Elements[i].ID
		if d.doc.Visible(id) && d.doc.Focusable(id) {
			focusables = append(focusables, id)
		}
	}
	if len(focusables) == 0 {
		return
	}
	cur := -1
	for i, id := range focusables {
		if id == d.focused {
			cur = i
			break
		}
	}
	var next int
	if backward {
		next = cur - 1
		if next < 0 {
			next = len(focusables) - 1
		}
	} else {
		next = cur + 1
		if next >= len(focusables) {
			next = 0
		}
	}
	d.SetFocus(focusables[next])
}

// --- keyboard ---

func (d *Dispatcher) keyDown(key string) {
	switch key {
	case "Tab":
		d.FocusNext(false)
		return
	case "Shift+Tab":
		d.FocusNext(true)
		return
	}
	d.keyEvent(krb.EventKindKeyDown, key, "keydown")
}

// keyEvent routes a key to the focused element first, bubbles it, and falls
// back to global listeners when nothing handled it.
func (d *Dispatcher) keyEvent(kind krb.EventKind, key, globalName string) {
	if d.focused != core.InvalidElement {
		ev := &Event{Kind: kind, Target: d.focused, Key: key}
		if d.propagate(ev) {
			return
		}
	}
	d.scripts.EmitGlobal(globalName)
}

// --- propagation ---

// propagate dispatches an event along the target's root path. The wire
// format has no capture-only bindings, so no capture pass runs; handlers
// bound on the path fire for the event kind in bubble order, target to
// root, and a Go handler may stop the bubble. Returns true when any handler
// ran.
func (d *Dispatcher) propagate(ev *Event) bool {
	// Build the root->target path.
	var path []core.ElementID
	for id := ev.Target; id != core.InvalidElement; id = d.doc.Get(id).Parent {
		path = append(path, id)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	handled := false
	// Bubble phase: target back to root.
	for i := len(path) - 1; i >= 0; i-- {
		id := path[i]
		name := d.doc.Get(id).Handlers[ev.Kind]
		if name == "" {
			continue
		}
		handled = true
		if h, ok := d.handlers[name]; ok {
			h(ev)
		} else {
			d.scripts.Invoke(name)
		}
		if ev.StopPropagation {
			break
		}
	}
	return handled
}

func (d *Dispatcher) invoke(name string) {
	if name == "" {
		return
	}
	if h, ok := d.handlers[name]; ok {
		h(&Event{})
		return
	}
	d.scripts.Invoke(name)
}
