// render/translator.go
//
// Walks the laid-out tree in paint order and emits the flat command stream.
// Paint order is parents before children, siblings in document order and
// then by z-index. Clip and transform pushes are scoped per element, so the
// stream is statically balanced.

package render

import (
	"sort"

	"github.com/kryonlabs/kryon-renderer/core"
	"github.com/kryonlabs/kryon-renderer/krb"
	"github.com/kryonlabs/kryon-renderer/layout"
)

var identity = [6]float32{1, 0, 0, 1, 0, 0}

type Translator struct {
	doc  *core.Document
	cmds []Command
}

func NewTranslator(doc *core.Document) *Translator {
	return &Translator{doc: doc}
}

// Translate produces the frame's command stream. The returned slice is
// handed to the backend by move; the translator reuses nothing.
func (t *Translator) Translate() []Command {
	t.cmds = make([]Command, 0, len(t.doc.Elements)*2)
	if root := t.doc.Root(); root != core.InvalidElement {
		t.emit(root, 1.0)
	}
	if !Balanced(t.cmds) {
		// Statically impossible unless emit is broken; keep the frame but
		// make the violation visible.
		t.doc.Logf("ERROR", "render: unbalanced push/pop in command stream")
	}
	return t.cmds
}

// PaintOrder returns every visible element in paint order. The event
// dispatcher hit-tests this list back to front.
func PaintOrder(doc *core.Document) []core.ElementID {
	var out []core.ElementID
	var walk func(id core.ElementID)
	walk = func(id core.ElementID) {
		if !doc.Visible(id) {
			return
		}
		out = append(out, id)
		for _, c := range sortByZ(doc, doc.ChildrenOf(id)) {
			walk(c)
		}
	}
	if root := doc.Root(); root != core.InvalidElement {
		walk(root)
	}
	return out
}

func sortByZ(doc *core.Document, children []core.ElementID) []core.ElementID {
	sorted := make([]core.ElementID, len(children))
	copy(sorted, children)
	sort.SliceStable(sorted, func(i, j int) bool {
		return doc.Resolved(sorted[i], krb.PropZIndex).Int < doc.Resolved(sorted[j], krb.PropZIndex).Int
	})
	return sorted
}

func (t *Translator) emit(id core.ElementID, alpha float32) {
	if !t.doc.Visible(id) {
		return
	}
	el := t.doc.Get(id)
	m := t.doc.ResolveAll(id)
	rect := roundRect(el.Layout)

	elAlpha := alpha * m[krb.PropOpacity].AsFloat()
	if elAlpha != alpha {
		t.push(SetGlobalAlpha{Alpha: elAlpha})
	}

	transform := m[krb.PropTransform].Transform
	hasTransform := transform != identity
	if hasTransform {
		t.push(PushTransform{Matrix: transform})
	}

	t.drawElement(el, m, rect)

	clipped := m[krb.PropOverflow].Enum != krb.EnumOverflowVisible ||
		m[krb.PropOverflowX].Enum != krb.EnumOverflowVisible ||
		m[krb.PropOverflowY].Enum != krb.EnumOverflowVisible
	if clipped {
		t.push(PushClip{Rect: rect})
	}
	for _, c := range sortByZ(t.doc, el.Children) {
		t.emit(c, elAlpha)
	}
	if clipped {
		t.push(PopClip{})
	}

	if hasTransform {
		t.push(PopTransform{})
	}
	if elAlpha != alpha {
		t.push(SetGlobalAlpha{Alpha: alpha})
	}
}

func (t *Translator) drawElement(el *core.Element, m map[krb.PropertyKey]core.Value, rect Rect) {
	bg := m[krb.PropBackgroundColor].Color
	borderColor := m[krb.PropBorderColor].Color
	borderWidth := m[krb.PropBorderWidth].AsFloat()
	radius := m[krb.PropBorderRadius].AsFloat()

	if bg.A > 0 || (borderColor.A > 0 && borderWidth > 0) {
		t.push(DrawRect{
			Rect:        rect,
			Fill:        bg,
			Stroke:      borderColor,
			StrokeWidth: borderWidth,
			Radius:      radius,
		})
	}

	fg := m[krb.PropTextColor].Color
	fontSize := m[krb.PropFontSize].AsFloat()
	font := m[krb.PropFontFamily].Str
	align := m[krb.PropTextAlign].Enum

	if el.Kind >= krb.ElemKindCustomStart {
		if drawer, ok := customDrawerFor(t.doc, el.ID); ok {
			t.cmds = append(t.cmds, drawer.Draw(t.doc, el.ID, rect)...)
		}
		return
	}

	switch el.Kind {
	case krb.ElemKindText:
		if text := m[krb.PropTextContent].Str; text != "" {
			t.push(DrawText{Rect: rect, Text: text, FontSize: fontSize, Font: font, Color: fg, Align: align})
		}
	case krb.ElemKindButton:
		if text := m[krb.PropTextContent].Str; text != "" {
			t.push(DrawText{Rect: rect, Text: text, FontSize: fontSize, Font: font, Color: fg, Align: krb.EnumTextAlignCenter})
		}
	case krb.ElemKindImage:
		res := m[krb.PropImageSource].Resource
		if int(res) < len(t.doc.Source.Resources) {
			t.push(DrawImage{Rect: rect, Resource: res, Tint: m[krb.PropTint].Color})
		} else {
			// Missing resource paints a visible placeholder box.
			t.doc.Logf("WARN", "render: element %d references missing resource %d", el.ID, res)
			t.push(DrawRect{Rect: rect, Fill: krb.Color{R: 128, A: 255}, Stroke: krb.Color{R: 255, A: 255}, StrokeWidth: 1})
		}
	case krb.ElemKindInput:
		t.push(DrawTextInput{
			Rect: rect,
			State: TextInputState{
				Text:        el.InputValue,
				Placeholder: m[krb.PropPlaceholder].Str,
				Focused:     el.HasPseudo(krb.PseudoFocus),
				Disabled:    el.HasPseudo(krb.PseudoDisabled),
			},
			FontSize: fontSize,
			Color:    fg,
			Fill:     bg,
			Stroke:   borderColor,
		})
	case krb.ElemKindCheckbox:
		t.push(DrawCheckbox{
			Rect: rect,
			State: CheckboxState{
				Checked:  m[krb.PropChecked].Bool,
				Focused:  el.HasPseudo(krb.PseudoFocus),
				Disabled: el.HasPseudo(krb.PseudoDisabled),
			},
			Color:  fg,
			Stroke: borderColor,
		})
	case krb.ElemKindSlider:
		t.push(DrawSlider{
			Rect: rect,
			State: SliderState{
				Value:    m[krb.PropValue].AsFloat(),
				Min:      m[krb.PropMinValue].AsFloat(),
				Max:      m[krb.PropMaxValue].AsFloat(),
				Focused:  el.HasPseudo(krb.PseudoFocus),
				Disabled: el.HasPseudo(krb.PseudoDisabled),
			},
			Color: fg,
			Track: borderColor,
		})
	}
}

func (t *Translator) push(c Command) {
	t.cmds = append(t.cmds, c)
}

func roundRect(b core.Box) Rect {
	x0 := layout.RoundPx(b.X)
	y0 := layout.RoundPx(b.Y)
	x1 := layout.RoundPx(b.X + b.W)
	y1 := layout.RoundPx(b.Y + b.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
