// layout/layout.go
//
// Flex and absolute layout over the resolved property maps. The engine is
// dirty-flag driven: Compute is a no-op while the root is clean, and a clean
// subtree whose assigned box did not change is never re-walked.

package layout

import (
	"math"

	"github.com/kryonlabs/kryon-renderer/core"
	"github.com/kryonlabs/kryon-renderer/krb"
)

type Engine struct {
	doc      *core.Document
	Measurer TextMeasurer

	vpW, vpH float32
}

func New(doc *core.Document) *Engine {
	return &Engine{doc: doc, Measurer: DefaultMeasurer{}}
}

// SetViewport updates the viewport in device pixels and dirties the tree.
func (e *Engine) SetViewport(w, h float32) {
	if w == e.vpW && h == e.vpH {
		return
	}
	e.vpW, e.vpH = w, h
	if root := e.doc.Root(); root != core.InvalidElement {
		e.doc.MarkLayoutDirty(root)
	}
}

func (e *Engine) Viewport() (float32, float32) { return e.vpW, e.vpH }

// Compute runs layout from the highest dirty ancestor (the root, since
// dirtiness propagates upward) and clears the dirty flags.
func (e *Engine) Compute() {
	root := e.doc.Root()
	if root == core.InvalidElement || !e.doc.Get(root).LayoutDirty {
		return
	}
	vp := core.Box{X: 0, Y: 0, W: e.vpW, H: e.vpH}
	e.arrange(root, vp, vp)
	e.doc.ClearLayoutDirty(root)
}

// --- unit resolution ---

// dim resolves a dimension value against its containing-block base. base < 0
// means the base is indefinite (auto-sized parent); percentages of an
// indefinite base resolve to 0 per the documented boundary rule. Returns
// (value, false) when the dimension is auto.
func (e *Engine) dim(v core.Value, base, fontSize float32) (float32, bool) {
	switch v.Kind {
	case core.KindLength:
		switch v.Length.Unit {
		case krb.UnitPx:
			return v.Length.Value, true
		case krb.UnitPercent:
			if base < 0 {
				return 0, true
			}
			return v.Length.Value / 100 * base, true
		case krb.UnitEm:
			return v.Length.Value * fontSize, true
		case krb.UnitVw:
			return v.Length.Value / 100 * e.vpW, true
		case krb.UnitVh:
			return v.Length.Value / 100 * e.vpH, true
		case krb.UnitAuto:
			return 0, false
		}
	case core.KindFloat:
		return v.Float, true
	case core.KindInt:
		return float32(v.Int), true
	}
	return 0, false
}

// edges resolves a 4-side box property (padding/margin) plus per-side
// overrides. Percentages resolve against the containing block width on every
// side, matching common web behavior.
func (e *Engine) edges(m map[krb.PropertyKey]core.Value, all krb.PropertyKey, sides [4]krb.PropertyKey, baseW, fontSize float32) [4]float32 {
	var out [4]float32
	if v := m[all]; v.Kind == core.KindEdges {
		for i, l := range []krb.Length{v.Edges.Top, v.Edges.Right, v.Edges.Bottom, v.Edges.Left} {
			if r, ok := e.dim(core.LengthValue(l), baseW, fontSize); ok {
				out[i] = r
			}
		}
	} else if r, ok := e.dim(v, baseW, fontSize); ok {
		out = [4]float32{r, r, r, r}
	}
	for i, key := range sides {
		if r, ok := e.dim(m[key], baseW, fontSize); ok {
			out[i] = r
		}
	}
	return out
}

func (e *Engine) padding(m map[krb.PropertyKey]core.Value, baseW, fs float32) [4]float32 {
	return e.edges(m, krb.PropPadding,
		[4]krb.PropertyKey{krb.PropPaddingTop, krb.PropPaddingRight, krb.PropPaddingBottom, krb.PropPaddingLeft}, baseW, fs)
}

func (e *Engine) margin(m map[krb.PropertyKey]core.Value, baseW, fs float32) [4]float32 {
	return e.edges(m, krb.PropMargin,
		[4]krb.PropertyKey{krb.PropMarginTop, krb.PropMarginRight, krb.PropMarginBottom, krb.PropMarginLeft}, baseW, fs)
}

func (e *Engine) border(m map[krb.PropertyKey]core.Value, baseW, fs float32) [4]float32 {
	return e.edges(m, krb.PropBorderWidth,
		[4]krb.PropertyKey{krb.PropBorderWidthTop, krb.PropBorderWidthRight, krb.PropBorderWidthBottom, krb.PropBorderWidthLeft}, baseW, fs)
}

// sanitize clamps degenerate sizes. Layout is infallible; bad numbers are
// clamped to zero and logged.
func (e *Engine) sanitize(v float32, what string) float32 {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		e.doc.Logf("WARN", "layout: %s is not finite, clamped to 0", what)
		return 0
	}
	if v < 0 {
		e.doc.Logf("WARN", "layout: %s is negative, clamped to 0", what)
		return 0
	}
	return v
}

// --- measurement (phase 1) ---

// measure returns the element's preferred border-box size given the parent's
// available content area. availW/availH < 0 mean indefinite.
func (e *Engine) measure(id core.ElementID, availW, availH float32) (float32, float32) {
	el := e.doc.Get(id)
	m := e.doc.ResolveAll(id)
	fs := m[krb.PropFontSize].AsFloat()

	pad := e.padding(m, maxF(availW, 0), fs)
	bor := e.border(m, maxF(availW, 0), fs)
	padBorW := pad[1] + pad[3] + bor[1] + bor[3]
	padBorH := pad[0] + pad[2] + bor[0] + bor[2]
	borderBox := m[krb.PropBoxSizing].Enum == krb.EnumBoxSizingBorder

	expW, hasW := e.dim(m[krb.PropWidth], availW, fs)
	expH, hasH := e.dim(m[krb.PropHeight], availH, fs)
	if hasW && !borderBox {
		expW += padBorW
	}
	if hasH && !borderBox {
		expH += padBorH
	}

	var conW, conH float32 // intrinsic content size
	switch el.Kind {
	case krb.ElemKindText, krb.ElemKindButton:
		conW, conH = e.Measurer.MeasureText(e.doc.Text(id), fs)
	case krb.ElemKindInput:
		conW, conH = 160, fs*1.5
	case krb.ElemKindCheckbox:
		conW, conH = 16, 16
	case krb.ElemKindSlider:
		conW, conH = 160, 16
	case krb.ElemKindImage:
		// Image dimensions live in the backend's resource cache; without an
		// explicit size the placeholder box is used.
		conW, conH = 0, 0
	default:
		conW, conH = e.measureChildren(el, m,
			chooseF(hasW, expW-padBorW, -1),
			chooseF(hasH, expH-padBorH, -1), fs)
	}

	w := chooseF(hasW, expW, conW+padBorW)
	h := chooseF(hasH, expH, conH+padBorH)
	w, h = e.clampMinMax(m, w, h, availW, availH, fs, borderBox, padBorW, padBorH)
	return e.sanitize(w, "measured width"), e.sanitize(h, "measured height")
}

func (e *Engine) clampMinMax(m map[krb.PropertyKey]core.Value, w, h, availW, availH, fs float32, borderBox bool, padBorW, padBorH float32) (float32, float32) {
	// Min/max constraints are content-box values unless box-sizing flips
	// them, like the explicit dimensions they constrain.
	toBorder := func(v float32, pb float32) float32 {
		if borderBox {
			return v
		}
		return v + pb
	}
	if v, ok := e.dim(m[krb.PropMinWidth], availW, fs); ok {
		if v = toBorder(v, padBorW); v > 0 && w < v {
			w = v
		}
	}
	if v, ok := e.dim(m[krb.PropMaxWidth], availW, fs); ok {
		if v = toBorder(v, padBorW); v > 0 && w > v {
			w = v
		}
	}
	if v, ok := e.dim(m[krb.PropMinHeight], availH, fs); ok {
		if v = toBorder(v, padBorH); v > 0 && h < v {
			h = v
		}
	}
	if v, ok := e.dim(m[krb.PropMaxHeight], availH, fs); ok {
		if v = toBorder(v, padBorH); v > 0 && h > v {
			h = v
		}
	}
	return w, h
}

// measureChildren computes a container's intrinsic content size by flowing
// its children along the flex axis.
func (e *Engine) measureChildren(el *core.Element, m map[krb.PropertyKey]core.Value, availW, availH, fs float32) (float32, float32) {
	dir := m[krb.PropFlexDirection].Enum
	horizontal := dir == krb.EnumDirRow || dir == krb.EnumDirRowReverse
	mainGap, _ := e.gaps(m, fs)

	var mainSum, crossMax float32
	n := 0
	for _, cid := range el.Children {
		if !e.doc.Visible(cid) || e.outOfFlow(cid) {
			continue
		}
		cw, ch := e.measure(cid, availW, availH)
		cm := e.margin(e.doc.ResolveAll(cid), maxF(availW, 0), fs)
		cw += cm[1] + cm[3]
		ch += cm[0] + cm[2]
		if horizontal {
			mainSum += cw
			crossMax = maxF(crossMax, ch)
		} else {
			mainSum += ch
			crossMax = maxF(crossMax, cw)
		}
		n++
	}
	if n > 1 {
		mainSum += mainGap * float32(n-1)
	}
	if horizontal {
		return mainSum, crossMax
	}
	return crossMax, mainSum
}

func (e *Engine) gaps(m map[krb.PropertyKey]core.Value, fs float32) (main, cross float32) {
	g, _ := e.dim(m[krb.PropGap], 0, fs)
	main, cross = g, g
	if v, ok := e.dim(m[krb.PropColumnGap], 0, fs); ok {
		main = v
	}
	if v, ok := e.dim(m[krb.PropRowGap], 0, fs); ok {
		cross = v
	}
	return main, cross
}

func (e *Engine) position(id core.ElementID) uint16 {
	return e.doc.Resolved(id, krb.PropPosition).Enum
}

func (e *Engine) outOfFlow(id core.ElementID) bool {
	p := e.position(id)
	return p == krb.EnumPositionAbsolute || p == krb.EnumPositionFixed
}

// --- arrangement (phase 2) ---

// arrange assigns the element its border box and lays out its children.
// cb is the containing block for absolutely positioned descendants.
func (e *Engine) arrange(id core.ElementID, box core.Box, cb core.Box) {
	el := e.doc.Get(id)

	// Clean subtrees whose constraints did not change are never re-walked.
	if !el.LayoutDirty && el.Layout == box {
		return
	}
	box.W = e.sanitize(box.W, "box width")
	box.H = e.sanitize(box.H, "box height")
	el.Layout = box

	m := e.doc.ResolveAll(id)
	fs := m[krb.PropFontSize].AsFloat()
	pad := e.padding(m, box.W, fs)
	bor := e.border(m, box.W, fs)
	content := core.Box{
		X: box.X + bor[3] + pad[3],
		Y: box.Y + bor[0] + pad[0],
		W: maxF(0, box.W-(bor[1]+bor[3]+pad[1]+pad[3])),
		H: maxF(0, box.H-(bor[0]+bor[2]+pad[0]+pad[2])),
	}

	// A positioned element is the containing block for its absolute
	// descendants.
	childCB := cb
	if e.position(id) != krb.EnumPositionFlow || el.Parent == core.InvalidElement {
		childCB = content
	}

	var flow, absolute []core.ElementID
	for _, cid := range el.Children {
		if !e.doc.Visible(cid) {
			// Invisible subtrees keep a zero box and are skipped entirely.
			e.zeroSubtree(cid)
			continue
		}
		if e.outOfFlow(cid) {
			absolute = append(absolute, cid)
		} else {
			flow = append(flow, cid)
		}
	}

	if len(flow) > 0 {
		e.flexArrange(m, content, flow, childCB, fs)
	}
	for _, cid := range absolute {
		block := childCB
		if e.position(cid) == krb.EnumPositionFixed {
			block = core.Box{X: 0, Y: 0, W: e.vpW, H: e.vpH}
		}
		e.arrangeAbsolute(cid, block)
	}
}

func (e *Engine) zeroSubtree(id core.ElementID) {
	e.doc.WalkPre(id, func(el *core.Element) bool {
		el.Layout = core.Box{}
		return true
	})
}

type flexItem struct {
	id           core.ElementID
	idx          int
	main, cross  float32 // border-box sizes along the container axes
	grow, shrink float32
	alignSelf    uint16
	margins      [4]float32 // T R B L
	autoMain     bool
	autoCross    bool
	order        int64
}

func (it *flexItem) marginMain(horizontal bool) float32 {
	if horizontal {
		return it.margins[1] + it.margins[3]
	}
	return it.margins[0] + it.margins[2]
}

func (it *flexItem) marginCross(horizontal bool) float32 {
	if horizontal {
		return it.margins[0] + it.margins[2]
	}
	return it.margins[1] + it.margins[3]
}

func (e *Engine) flexArrange(m map[krb.PropertyKey]core.Value, content core.Box, flow []core.ElementID, childCB core.Box, fs float32) {
	dir := m[krb.PropFlexDirection].Enum
	horizontal := dir == krb.EnumDirRow || dir == krb.EnumDirRowReverse
	reversed := dir == krb.EnumDirRowReverse || dir == krb.EnumDirColumnReverse
	wrap := m[krb.PropFlexWrap].Enum == krb.EnumWrapWrap
	justify := m[krb.PropJustifyContent].Enum
	alignItems := m[krb.PropAlignItems].Enum
	alignContent := m[krb.PropAlignContent].Enum
	mainGap, crossGap := e.gaps(m, fs)

	containerMain := chooseF(horizontal, content.W, content.H)
	containerCross := chooseF(horizontal, content.H, content.W)

	items := make([]flexItem, 0, len(flow))
	for i, cid := range flow {
		cm := e.doc.ResolveAll(cid)
		cfs := cm[krb.PropFontSize].AsFloat()
		w, h := e.measure(cid, content.W, content.H)

		it := flexItem{
			id:      cid,
			idx:     i,
			grow:    cm[krb.PropFlexGrow].AsFloat(),
			shrink:  cm[krb.PropFlexShrink].AsFloat(),
			margins: e.margin(cm, content.W, cfs),
			order:   cm[krb.PropOrder].Int,
		}
		it.alignSelf = cm[krb.PropAlignSelf].Enum
		if it.alignSelf == krb.EnumAlignAuto {
			it.alignSelf = alignItems
		}

		_, hasW := e.dim(cm[krb.PropWidth], content.W, cfs)
		_, hasH := e.dim(cm[krb.PropHeight], content.H, cfs)
		if horizontal {
			it.main, it.cross = w, h
			it.autoMain, it.autoCross = !hasW, !hasH
		} else {
			it.main, it.cross = h, w
			it.autoMain, it.autoCross = !hasH, !hasW
		}
		// flex-basis overrides the hypothetical main size when set.
		if basis, ok := e.dim(cm[krb.PropFlexBasis], containerMain, cfs); ok {
			it.main = basis
			it.autoMain = false
		}
		items = append(items, it)
	}

	// `order` reorders within the container without mutating the tree.
	// Insertion order is canonical for equal values (stable sort).
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j-1].order > items[j].order; j-- {
			items[j-1], items[j] = items[j], items[j-1]
		}
	}

	// Pack into lines.
	var lines [][]flexItem
	if wrap && containerMain > 0 {
		var cur []flexItem
		var used float32
		for _, it := range items {
			need := it.main + it.marginMain(horizontal)
			if len(cur) > 0 {
				need += mainGap
			}
			if len(cur) > 0 && used+need > containerMain {
				lines = append(lines, cur)
				cur = nil
				used = 0
				need = it.main + it.marginMain(horizontal)
			}
			cur = append(cur, it)
			used += need
		}
		if len(cur) > 0 {
			lines = append(lines, cur)
		}
	} else {
		lines = [][]flexItem{items}
	}

	// Resolve line cross sizes.
	lineCross := make([]float32, len(lines))
	var linesTotal float32
	for li, line := range lines {
		if len(lines) == 1 {
			lineCross[li] = containerCross
		} else {
			for _, it := range line {
				lineCross[li] = maxF(lineCross[li], it.cross+it.marginCross(horizontal))
			}
		}
		linesTotal += lineCross[li]
	}
	if len(lines) > 1 {
		linesTotal += crossGap * float32(len(lines)-1)
	}
	crossLead, crossBetween := alignOffsets(alignContent, containerCross-linesTotal, len(lines))

	crossPos := crossLead
	for li, line := range lines {
		// Distribute free main-axis space by grow/shrink.
		var sumMain, totalGrow, totalScaledShrink float32
		for _, it := range line {
			sumMain += it.main + it.marginMain(horizontal)
			totalGrow += it.grow
			totalScaledShrink += it.shrink * it.main
		}
		gapsTotal := mainGap * float32(maxI(0, len(line)-1))
		free := containerMain - sumMain - gapsTotal
		if free > 0 && totalGrow > 0 {
			for i := range line {
				line[i].main += free * line[i].grow / totalGrow
			}
			free = 0
		} else if free < 0 && totalScaledShrink > 0 {
			for i := range line {
				line[i].main += free * (line[i].shrink * line[i].main) / totalScaledShrink
				line[i].main = maxF(0, line[i].main)
			}
			free = 0
		}
		// Leftover after distribution feeds justification.
		sumMain = 0
		for _, it := range line {
			sumMain += it.main + it.marginMain(horizontal)
		}
		leftover := containerMain - sumMain - gapsTotal
		lead, between := justifyOffsets(justify, leftover, len(line))

		ordered := line
		if reversed {
			ordered = make([]flexItem, len(line))
			for i := range line {
				ordered[len(line)-1-i] = line[i]
			}
		}

		mainPos := lead
		for i, it := range ordered {
			crossSize := it.cross
			if it.alignSelf == krb.EnumAlignStretch && it.autoCross {
				crossSize = maxF(0, lineCross[li]-it.marginCross(horizontal))
			}
			crossOff := crossPos
			switch it.alignSelf {
			case krb.EnumAlignCenter:
				crossOff += (lineCross[li] - crossSize - it.marginCross(horizontal)) / 2
			case krb.EnumAlignEnd:
				crossOff += lineCross[li] - crossSize - it.marginCross(horizontal)
			}

			var child core.Box
			if horizontal {
				child = core.Box{
					X: content.X + mainPos + it.margins[3],
					Y: content.Y + crossOff + it.margins[0],
					W: it.main, H: crossSize,
				}
			} else {
				child = core.Box{
					X: content.X + crossOff + it.margins[3],
					Y: content.Y + mainPos + it.margins[0],
					W: crossSize, H: it.main,
				}
			}
			child = e.alignTextBox(it, child, content)
			e.arrange(it.id, child, childCB)

			mainPos += it.main + it.marginMain(horizontal) + between
			if i < len(ordered)-1 {
				mainPos += mainGap
			}
		}
		crossPos += lineCross[li] + crossBetween
		if li < len(lines)-1 {
			crossPos += crossGap
		}
	}
}

// alignTextBox applies text alignment to text elements whose width or height
// is auto. The box such an element reports is the measured text rectangle
// placed within its container's content area: centered or end-aligned
// horizontally per text-align, and for center also centered vertically.
// Flow-start text keeps its flex position.
func (e *Engine) alignTextBox(it flexItem, child core.Box, content core.Box) core.Box {
	el := e.doc.Get(it.id)
	if el.Kind != krb.ElemKindText {
		return child
	}
	align := e.doc.Resolved(it.id, krb.PropTextAlign).Enum
	if align == krb.EnumTextAlignStart {
		return child
	}
	if it.autoMain || it.autoCross {
		switch align {
		case krb.EnumTextAlignCenter:
			child.X = content.X + (content.W-child.W)/2
			if it.autoCross || it.autoMain {
				child.Y = content.Y + (content.H-child.H)/2
			}
		case krb.EnumTextAlignEnd:
			child.X = content.X + content.W - child.W
		}
	}
	return child
}

// arrangeAbsolute computes an out-of-flow element's box from its insets
// against the containing block.
func (e *Engine) arrangeAbsolute(id core.ElementID, cb core.Box) {
	m := e.doc.ResolveAll(id)
	fs := m[krb.PropFontSize].AsFloat()

	top, hasTop := e.dim(m[krb.PropTop], cb.H, fs)
	right, hasRight := e.dim(m[krb.PropRight], cb.W, fs)
	bottom, hasBottom := e.dim(m[krb.PropBottom], cb.H, fs)
	left, hasLeft := e.dim(m[krb.PropLeft], cb.W, fs)

	w, h := e.measure(id, cb.W, cb.H)
	_, hasW := e.dim(m[krb.PropWidth], cb.W, fs)
	_, hasH := e.dim(m[krb.PropHeight], cb.H, fs)
	if !hasW && hasLeft && hasRight {
		w = maxF(0, cb.W-left-right)
	}
	if !hasH && hasTop && hasBottom {
		h = maxF(0, cb.H-top-bottom)
	}

	x := cb.X
	switch {
	case hasLeft:
		x = cb.X + left
	case hasRight:
		x = cb.X + cb.W - right - w
	}
	y := cb.Y
	switch {
	case hasTop:
		y = cb.Y + top
	case hasBottom:
		y = cb.Y + cb.H - bottom - h
	}

	e.arrange(id, core.Box{X: x, Y: y, W: w, H: h}, cb)
}

// --- small helpers ---

func justifyOffsets(justify uint16, free float32, n int) (lead, between float32) {
	if free <= 0 || n == 0 {
		return 0, 0
	}
	switch justify {
	case krb.EnumJustifyCenter:
		return free / 2, 0
	case krb.EnumJustifyEnd:
		return free, 0
	case krb.EnumJustifySpaceBetween:
		if n > 1 {
			return 0, free / float32(n-1)
		}
		return 0, 0
	case krb.EnumJustifySpaceAround:
		pad := free / float32(n*2)
		return pad, pad * 2
	case krb.EnumJustifySpaceEvenly:
		pad := free / float32(n+1)
		return pad, pad
	}
	return 0, 0
}

func alignOffsets(align uint16, free float32, n int) (lead, between float32) {
	if free <= 0 || n == 0 {
		return 0, 0
	}
	switch align {
	case krb.EnumAlignCenter:
		return free / 2, 0
	case krb.EnumAlignEnd:
		return free, 0
	}
	return 0, 0
}

func chooseF(cond bool, a, b float32) float32 {
	if cond {
		return a
	}
	return b
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}
