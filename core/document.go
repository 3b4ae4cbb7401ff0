// core/document.go

package core

import (
	"fmt"
	"log"
	"strings"

	"github.com/kryonlabs/kryon-renderer/krb"
)

// Logger receives user-visible engine failures. The host may replace it; the
// default forwards to the standard logger.
type Logger func(level, msg string)

func defaultLogger(level, msg string) {
	log.Printf("%s %s", level, msg)
}

// Document is the runtime element tree plus the immutable tables loaded from
// the KRB file. A single goroutine owns it; mutation happens only between
// event/script phases through the property-setter API.
type Document struct {
	Elements []Element

	Source *krb.Document // string/resource/script tables, immutable post-load

	styleEpoch uint64

	idIndex    map[string]ElementID
	styleNames map[uint16]string // style id -> name
	styleByName map[string]uint16

	logger Logger

	// Dangling-style reports, deduplicated per document load.
	reportedStyles map[string]bool
}

// NewDocument builds the runtime tree from a parsed KRB document.
func NewDocument(src *krb.Document) (*Document, error) {
	d := &Document{
		Source:         src,
		idIndex:        make(map[string]ElementID),
		styleNames:     make(map[uint16]string),
		styleByName:    make(map[string]uint16),
		logger:         defaultLogger,
		styleEpoch:     1,
		reportedStyles: make(map[string]bool),
	}
	for i := range src.Styles {
		name := src.StringAt(src.Styles[i].NameIndex)
		d.styleNames[src.Styles[i].ID] = name
		d.styleByName[name] = src.Styles[i].ID
	}

	d.Elements = make([]Element, len(src.Elements))
	for i := range src.Elements {
		rec := &src.Elements[i]
		el := &d.Elements[i]
		el.ID = ElementID(i)
		el.Kind = rec.Kind
		el.StyleID = rec.StyleID
		el.Visible = true
		el.LayoutDirty = true
		el.Inline = make(map[krb.PropertyKey]Value)
		el.Handlers = make(map[krb.EventKind]string)

		if rec.IDIndex != krb.NoStringIndex {
			el.StringID = src.StringAt(rec.IDIndex)
			if el.StringID != "" {
				d.idIndex[el.StringID] = el.ID
			}
		}
		if rec.ParentIdx == krb.NoParentIndex {
			el.Parent = InvalidElement
		} else {
			el.Parent = ElementID(rec.ParentIdx)
			parent := &d.Elements[rec.ParentIdx]
			parent.Children = append(parent.Children, el.ID)
		}
		for _, ev := range rec.Events {
			el.Handlers[ev.Kind] = src.StringAt(ev.Function)
		}
		if len(rec.Customs) > 0 {
			el.Customs = make(map[string]string, len(rec.Customs))
			for _, cp := range rec.Customs {
				el.Customs[src.StringAt(cp.KeyIndex)] = src.StringAt(cp.ValueIndex)
			}
		}
		if block, ok := src.BlockAt(rec.PropBlock); ok {
			for _, p := range block.Properties {
				v, ok := DecodeProperty(src, p)
				if !ok {
					d.logger("WARN", fmt.Sprintf("element %d: undecodable property 0x%04X, skipped", i, p.Key))
					continue
				}
				el.Inline[p.Key] = v
			}
		}
		if v, ok := el.Inline[krb.PropVisibility]; ok && v.Kind == KindBool {
			el.Visible = v.Bool
		}
		if v, ok := el.Inline[krb.PropChecked]; ok && v.Kind == KindBool {
			el.Checked = v.Bool
		}
		if v, ok := el.Inline[krb.PropTextContent]; ok && strings.Contains(v.Str, "{$") {
			el.TemplateText = v.Str
		}
	}

	for _, w := range src.Warnings {
		d.logger("WARN", "krb load: "+w)
	}
	return d, nil
}

// SetLogger installs the host logger callback.
func (d *Document) SetLogger(l Logger) {
	if l != nil {
		d.logger = l
	}
}

// Logf forwards to the installed logger.
func (d *Document) Logf(level, format string, args ...any) {
	d.logger(level, fmt.Sprintf(format, args...))
}

// StyleEpoch is the coarse invalidation counter for resolved-property
// caches. Any style-affecting change bumps it.
func (d *Document) StyleEpoch() uint64 { return d.styleEpoch }

// BumpStyleEpoch invalidates every resolved cache in the document.
func (d *Document) BumpStyleEpoch() { d.styleEpoch++ }

// Get returns the element record for a handle. Panics on stale handles in
// debug fashion; callers hold handles only for live documents.
func (d *Document) Get(id ElementID) *Element {
	return &d.Elements[id]
}

// Valid reports whether the handle refers to an element of this document.
func (d *Document) Valid(id ElementID) bool {
	return id >= 0 && int(id) < len(d.Elements)
}

// Root returns the document root handle, or InvalidElement for an empty
// document.
func (d *Document) Root() ElementID {
	if len(d.Elements) == 0 {
		return InvalidElement
	}
	return RootElement
}

// GetProperty returns the element's inline value for key, falling back to
// the built-in default. Cascade and inheritance are the resolver's job; this
// is the raw property store.
func (d *Document) GetProperty(id ElementID, key krb.PropertyKey) Value {
	el := d.Get(id)
	if v, ok := el.Inline[key]; ok {
		return v
	}
	return DefaultValue(key)
}

// SetProperty writes an inline property and propagates dirtiness:
// the element's resolved cache always; every descendant's cache when the
// property inherits; layout up to the root when the property affects layout.
func (d *Document) SetProperty(id ElementID, key krb.PropertyKey, v Value) {
	el := d.Get(id)
	el.Inline[key] = v
	el.resolvedEpoch = 0

	info := Info(key)
	if info.Inherited || info.AffectsDescendants {
		// Coarse subtree invalidation: one epoch bump covers all descendants.
		d.styleEpoch++
	}
	if info.AffectsLayout {
		d.MarkLayoutDirty(id)
	}
	switch key {
	case krb.PropVisibility:
		if v.Kind == KindBool {
			el.Visible = v.Bool
		}
	case krb.PropChecked:
		if v.Kind == KindBool {
			el.Checked = v.Bool
		}
	case krb.PropTextContent:
		if strings.Contains(v.Str, "{$") {
			el.TemplateText = v.Str
		}
	}
}

// SetStyle rebinds the element's style by name and invalidates its subtree.
func (d *Document) SetStyle(id ElementID, name string) bool {
	styleID, ok := d.styleByName[name]
	if !ok {
		d.warnUnknownStyle(0, name)
		return false
	}
	el := d.Get(id)
	el.StyleID = styleID
	el.resolvedEpoch = 0
	d.styleEpoch++
	d.MarkLayoutDirty(id)
	return true
}

// StyleName returns the style name bound to an element, "" when unstyled.
func (d *Document) StyleName(id ElementID) string {
	return d.styleNames[d.Get(id).StyleID]
}

// SetPseudo sets or clears a pseudo-class bit, invalidating the element's
// resolved cache (the cache is keyed by pseudo bitset, so no epoch bump).
func (d *Document) SetPseudo(id ElementID, state krb.PseudoState, on bool) {
	el := d.Get(id)
	before := el.Pseudo
	if on {
		el.Pseudo |= state
	} else {
		el.Pseudo &^= state
	}
	if el.Pseudo != before {
		d.MarkLayoutDirty(id)
	}
}

// MarkLayoutDirty marks the element and every ancestor up to the root.
// Re-layout starts from the highest dirty ancestor.
func (d *Document) MarkLayoutDirty(id ElementID) {
	for id != InvalidElement {
		el := d.Get(id)
		el.LayoutDirty = true
		id = el.Parent
	}
}

// ClearLayoutDirty clears the flag over the whole subtree after a layout
// pass.
func (d *Document) ClearLayoutDirty(id ElementID) {
	d.WalkPre(id, func(el *Element) bool {
		el.LayoutDirty = false
		return true
	})
}

// ChildrenOf returns the ordered child handles. The slice is owned by the
// document; callers must not mutate it.
func (d *Document) ChildrenOf(id ElementID) []ElementID {
	return d.Get(id).Children
}

// WalkPre visits the subtree rooted at id in pre-order. Returning false from
// the visitor skips the element's children.
func (d *Document) WalkPre(id ElementID, visit func(*Element) bool) {
	if !d.Valid(id) {
		return
	}
	el := d.Get(id)
	if !visit(el) {
		return
	}
	for _, c := range el.Children {
		d.WalkPre(c, visit)
	}
}

// WalkPost visits the subtree rooted at id in post-order.
func (d *Document) WalkPost(id ElementID, visit func(*Element)) {
	if !d.Valid(id) {
		return
	}
	el := d.Get(id)
	for _, c := range el.Children {
		d.WalkPost(c, visit)
	}
	visit(el)
}

// FindByID looks an element up by its string id.
func (d *Document) FindByID(id string) (ElementID, bool) {
	eid, ok := d.idIndex[id]
	return eid, ok
}

// FindByKind returns all elements of the given kind in document order.
func (d *Document) FindByKind(kind krb.ElementKind) []ElementID {
	var out []ElementID
	for i := range d.Elements {
		if d.Elements[i].Kind == kind {
			out = append(out, d.Elements[i].ID)
		}
	}
	return out
}

// FindByStyleName returns all elements bound to the named style.
func (d *Document) FindByStyleName(name string) []ElementID {
	styleID, ok := d.styleByName[name]
	if !ok {
		return nil
	}
	var out []ElementID
	for i := range d.Elements {
		if d.Elements[i].StyleID == styleID {
			out = append(out, d.Elements[i].ID)
		}
	}
	return out
}

// Text returns the element's displayed text content through the cascade.
func (d *Document) Text(id ElementID) string {
	return d.Resolved(id, krb.PropTextContent).Str
}

// Visible reports the element's effective visibility through the cascade,
// so visibility set by a named style behaves like an inline value.
func (d *Document) Visible(id ElementID) bool {
	v := d.Resolved(id, krb.PropVisibility)
	return v.Kind != KindBool || v.Bool
}

// Checked reports the widget checked state through the cascade.
func (d *Document) Checked(id ElementID) bool {
	return d.Resolved(id, krb.PropChecked).Bool
}

// Interactive reports whether hit testing may target the element. Buttons,
// inputs, checkboxes and sliders are interactive by construction; anything
// else opts in through the interactive property, resolved through the full
// cascade so style-driven opt-ins work.
func (d *Document) Interactive(id ElementID) bool {
	switch d.Get(id).Kind {
	case krb.ElemKindButton, krb.ElemKindInput, krb.ElemKindCheckbox, krb.ElemKindSlider:
		return true
	}
	return d.Resolved(id, krb.PropInteractive).Bool
}

// Focusable reports whether Tab navigation stops at the element, resolved
// through the cascade like Interactive.
func (d *Document) Focusable(id ElementID) bool {
	switch d.Get(id).Kind {
	case krb.ElemKindButton, krb.ElemKindInput, krb.ElemKindCheckbox, krb.ElemKindSlider:
		return true
	}
	return d.Resolved(id, krb.PropFocusable).Bool
}

func (d *Document) warnUnknownStyle(styleID uint16, name string) {
	key := fmt.Sprintf("%d/%s", styleID, name)
	if d.reportedStyles[key] {
		return
	}
	d.reportedStyles[key] = true
	if name != "" {
		d.logger("WARN", fmt.Sprintf("style %q not found, using defaults", name))
		return
	}
	d.logger("WARN", fmt.Sprintf("style id %d not found, using defaults", styleID))
}
