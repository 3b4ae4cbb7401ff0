// script/bridge.go
//
// The Go side of the DOM-like API every VM exposes. Mutating calls land in
// four per-frame pending tables; the host drains them after each activation
// completes and applies them atomically. Reads see the caller's own pending
// writes (read-your-writes within an activation).

package script

import (
	"strings"

	"github.com/kryonlabs/kryon-renderer/core"
	"github.com/kryonlabs/kryon-renderer/krb"
)

type Bridge struct {
	doc *core.Document

	pendingStyle   map[core.ElementID]string
	pendingText    map[core.ElementID]string
	pendingVisible map[core.ElementID]bool
	pendingChecked map[core.ElementID]bool
}

func NewBridge(doc *core.Document) *Bridge {
	b := &Bridge{doc: doc}
	b.reset()
	return b
}

func (b *Bridge) reset() {
	b.pendingStyle = make(map[core.ElementID]string)
	b.pendingText = make(map[core.ElementID]string)
	b.pendingVisible = make(map[core.ElementID]bool)
	b.pendingChecked = make(map[core.ElementID]bool)
}

// --- queries ---

func (b *Bridge) ElementByID(id string) (core.ElementID, bool) {
	return b.doc.FindByID(id)
}

func (b *Bridge) ElementsByTag(tag string) []core.ElementID {
	kind, ok := kindByName(tag)
	if !ok {
		return nil
	}
	return b.doc.FindByKind(kind)
}

func (b *Bridge) ElementsByClass(styleName string) []core.ElementID {
	return b.doc.FindByStyleName(styleName)
}

// Query resolves a simple selector: "#id", ".class" or a tag name.
func (b *Bridge) Query(selector string) []core.ElementID {
	switch {
	case strings.HasPrefix(selector, "#"):
		if id, ok := b.ElementByID(selector[1:]); ok {
			return []core.ElementID{id}
		}
		return nil
	case strings.HasPrefix(selector, "."):
		return b.ElementsByClass(selector[1:])
	default:
		return b.ElementsByTag(selector)
	}
}

func kindByName(tag string) (krb.ElementKind, bool) {
	switch strings.ToLower(tag) {
	case "app":
		return krb.ElemKindApp, true
	case "container":
		return krb.ElemKindContainer, true
	case "text":
		return krb.ElemKindText, true
	case "button":
		return krb.ElemKindButton, true
	case "image":
		return krb.ElemKindImage, true
	case "input":
		return krb.ElemKindInput, true
	case "checkbox":
		return krb.ElemKindCheckbox, true
	case "slider":
		return krb.ElemKindSlider, true
	}
	return 0, false
}

// --- reads (read-your-writes) ---

func (b *Bridge) GetText(id core.ElementID) string {
	if t, ok := b.pendingText[id]; ok {
		return t
	}
	return b.doc.Text(id)
}

func (b *Bridge) GetVisible(id core.ElementID) bool {
	if v, ok := b.pendingVisible[id]; ok {
		return v
	}
	return b.doc.Visible(id)
}

func (b *Bridge) GetChecked(id core.ElementID) bool {
	if v, ok := b.pendingChecked[id]; ok {
		return v
	}
	return b.doc.Checked(id)
}

func (b *Bridge) GetStyleName(id core.ElementID) string {
	if s, ok := b.pendingStyle[id]; ok {
		return s
	}
	return b.doc.StyleName(id)
}

func (b *Bridge) Parent(id core.ElementID) (core.ElementID, bool) {
	p := b.doc.Get(id).Parent
	return p, p != core.InvalidElement
}

func (b *Bridge) Children(id core.ElementID) []core.ElementID {
	return b.doc.ChildrenOf(id)
}

func (b *Bridge) NextSibling(id core.ElementID) (core.ElementID, bool) {
	return b.sibling(id, 1)
}

func (b *Bridge) PreviousSibling(id core.ElementID) (core.ElementID, bool) {
	return b.sibling(id, -1)
}

func (b *Bridge) sibling(id core.ElementID, delta int) (core.ElementID, bool) {
	parent := b.doc.Get(id).Parent
	if parent == core.InvalidElement {
		return core.InvalidElement, false
	}
	siblings := b.doc.ChildrenOf(parent)
	for i, s := range siblings {
		if s == id {
			j := i + delta
			if j >= 0 && j < len(siblings) {
				return siblings[j], true
			}
			return core.InvalidElement, false
		}
	}
	return core.InvalidElement, false
}

// ComponentProperty reads a custom-component instance property.
func (b *Bridge) ComponentProperty(id core.ElementID, name string) (string, bool) {
	v, ok := b.doc.Get(id).Customs[name]
	return v, ok
}

// --- writes (queued) ---

func (b *Bridge) SetText(id core.ElementID, text string) {
	b.pendingText[id] = text
}

func (b *Bridge) SetStyle(id core.ElementID, name string) {
	b.pendingStyle[id] = name
}

func (b *Bridge) SetVisible(id core.ElementID, visible bool) {
	b.pendingVisible[id] = visible
}

func (b *Bridge) SetChecked(id core.ElementID, checked bool) {
	b.pendingChecked[id] = checked
}

// --- drain protocol ---

// Drain applies all pending mutations atomically, setting the appropriate
// dirty flags through the document API, and clears the tables.
func (b *Bridge) Drain() {
	for id, text := range b.pendingText {
		b.doc.SetProperty(id, krb.PropTextContent, core.StringValue(text))
	}
	for id, name := range b.pendingStyle {
		b.doc.SetStyle(id, name)
	}
	for id, visible := range b.pendingVisible {
		b.doc.SetProperty(id, krb.PropVisibility, core.BoolValue(visible))
	}
	for id, checked := range b.pendingChecked {
		b.doc.SetProperty(id, krb.PropChecked, core.BoolValue(checked))
	}
	b.reset()
}

// Discard drops pending mutations without applying them. Used when an
// activation is aborted by the budget timeout.
func (b *Bridge) Discard() {
	b.reset()
}

// Pending reports whether any mutation is queued.
func (b *Bridge) Pending() bool {
	return len(b.pendingText)+len(b.pendingStyle)+len(b.pendingVisible)+len(b.pendingChecked) > 0
}
