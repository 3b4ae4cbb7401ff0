// core/element.go

package core

import "github.com/kryonlabs/kryon-renderer/krb"

// ElementID is a dense handle into the document arena. Handles are assigned
// in document order by the parser and never reused within a document.
type ElementID int32

const InvalidElement ElementID = -1

// RootElement is the handle of the document root.
const RootElement ElementID = 0

// Box is a layout result: final border-box position and size in device
// pixels (float32 during computation; rounding happens at command emission).
type Box struct {
	X, Y, W, H float32
}

func (b Box) Contains(x, y float32) bool {
	return x >= b.X && x < b.X+b.W && y >= b.Y && y < b.Y+b.H
}

// Element is one node of the UI tree. Fields other than the caches are
// mutated only through the Document API so dirty flags stay consistent.
type Element struct {
	ID       ElementID
	Kind     krb.ElementKind
	StringID string // optional #id, "" when absent
	StyleID  uint16
	Parent   ElementID
	Children []ElementID

	// Inline properties set directly on the element. Highest cascade level.
	Inline map[krb.PropertyKey]Value

	// Event bindings: event kind -> script function name.
	Handlers map[krb.EventKind]string

	// Component properties of a custom-component instance, exposed to
	// scripts through getComponentProperty.
	Customs map[string]string

	Visible bool
	Pseudo  krb.PseudoState

	// Widget state owned by the runtime, mirrored into resolved properties.
	Checked    bool
	InputValue string

	// TemplateText holds the original text content when it contains
	// reactive placeholders like {$counter}; the displayed text is
	// recomputed from it on every reactive drain.
	TemplateText string

	// Resolved-property cache, valid iff resolvedEpoch matches the document
	// style epoch and resolvedPseudo matches the current pseudo bitset.
	resolved       map[krb.PropertyKey]Value
	resolvedEpoch  uint64
	resolvedPseudo krb.PseudoState

	// Layout cache.
	Layout      Box
	LayoutDirty bool
}

// HasPseudo reports whether the given pseudo state bit is set.
func (e *Element) HasPseudo(s krb.PseudoState) bool {
	return e.Pseudo&s != 0
}
