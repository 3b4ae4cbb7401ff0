package layout

import (
	"testing"

	"github.com/kryonlabs/kryon-renderer/core"
	"github.com/kryonlabs/kryon-renderer/krb"
)

// buildDoc assembles a runtime document from element specs without going
// through the binary format.
type elemSpec struct {
	kind   krb.ElementKind
	parent uint32
	id     string
	props  map[krb.PropertyKey]core.Value
}

func buildDoc(t *testing.T, elems []elemSpec) *core.Document {
	t.Helper()
	src := &krb.Document{PropBlocks: map[uint32]*krb.PropBlock{}}
	strIdx := func(s string) uint16 {
		for i, v := range src.Strings {
			if v == s {
				return uint16(i)
			}
		}
		src.Strings = append(src.Strings, s)
		return uint16(len(src.Strings) - 1)
	}
	for _, es := range elems {
		rec := krb.Element{
			Kind:      es.kind,
			IDIndex:   krb.NoStringIndex,
			ParentIdx: es.parent,
			PropBlock: krb.NoPropBlock,
		}
		if es.id != "" {
			rec.IDIndex = strIdx(es.id)
		}
		src.Elements = append(src.Elements, rec)
	}
	doc, err := core.NewDocument(src)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	for i, es := range elems {
		for k, v := range es.props {
			doc.SetProperty(core.ElementID(i), k, v)
		}
	}
	return doc
}

func computed(t *testing.T, doc *core.Document, vpW, vpH float32) *Engine {
	t.Helper()
	eng := New(doc)
	eng.SetViewport(vpW, vpH)
	eng.Compute()
	return eng
}

func wantBox(t *testing.T, doc *core.Document, id core.ElementID, x, y, w, h float32) {
	t.Helper()
	got := doc.Get(id).Layout
	if got.X != x || got.Y != y || got.W != w || got.H != h {
		t.Errorf("element %d box = (%.1f,%.1f,%.1f,%.1f), want (%.1f,%.1f,%.1f,%.1f)",
			id, got.X, got.Y, got.W, got.H, x, y, w, h)
	}
}

// The hello-text scenario: App(800x600) > Container(absolute 200,100 200x100)
// > Text("Hello", center, 16px). The text box is the measured string rect
// centered in the container.
func TestHelloTextLayout(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0, props: map[krb.PropertyKey]core.Value{
			krb.PropPosition: core.EnumValue(krb.EnumPositionAbsolute),
			krb.PropLeft:     core.PxValue(200),
			krb.PropTop:      core.PxValue(100),
			krb.PropWidth:    core.PxValue(200),
			krb.PropHeight:   core.PxValue(100),
		}},
		{kind: krb.ElemKindText, parent: 1, id: "hello", props: map[krb.PropertyKey]core.Value{
			krb.PropTextContent: core.StringValue("Hello"),
			krb.PropTextAlign:   core.EnumValue(krb.EnumTextAlignCenter),
			krb.PropFontSize:    core.FloatValue(16),
		}},
	})
	computed(t, doc, 800, 600)

	wantBox(t, doc, 0, 0, 0, 800, 600)
	wantBox(t, doc, 1, 200, 100, 200, 100)
	// "Hello" at 16px: 5 * 16 * 1.1 = 88 wide, 16 tall, centered.
	wantBox(t, doc, 2, 256, 142, 88, 16)
}

func TestEmptyContainer(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0},
	})
	computed(t, doc, 640, 480)
	// Auto-sized empty container collapses to zero.
	wantBox(t, doc, 1, 0, 0, 0, 0)
}

func TestFlexRowGrow(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth:  core.PxValue(300),
			krb.PropHeight: core.PxValue(50),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(100), krb.PropHeight: core.PxValue(50),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(100), krb.PropHeight: core.PxValue(50),
			krb.PropFlexGrow: core.FloatValue(1),
		}},
	})
	computed(t, doc, 800, 600)

	wantBox(t, doc, 2, 0, 0, 100, 50)
	// The growing child absorbs the 100px of free space.
	wantBox(t, doc, 3, 100, 0, 200, 50)
}

func TestFlexGrowZeroDistributesNothing(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth:  core.PxValue(300),
			krb.PropHeight: core.PxValue(50),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(80), krb.PropHeight: core.PxValue(50),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(80), krb.PropHeight: core.PxValue(50),
		}},
	})
	computed(t, doc, 800, 600)
	wantBox(t, doc, 2, 0, 0, 80, 50)
	wantBox(t, doc, 3, 80, 0, 80, 50)
}

func TestFlexShrinkNeverNegative(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth:  core.PxValue(100),
			krb.PropHeight: core.PxValue(40),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(120), krb.PropHeight: core.PxValue(40),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(120), krb.PropHeight: core.PxValue(40),
		}},
	})
	computed(t, doc, 800, 600)

	for _, id := range []core.ElementID{2, 3} {
		box := doc.Get(id).Layout
		if box.W < 0 {
			t.Errorf("element %d shrunk below zero: %v", id, box)
		}
		// 240px of demand in a 100px container shrinks each item to 50.
		if box.W > 50.01 || box.W < 49.99 {
			t.Errorf("element %d width = %v, want 50", id, box.W)
		}
	}
}

func TestJustifyAndGap(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth:          core.PxValue(300),
			krb.PropHeight:         core.PxValue(50),
			krb.PropJustifyContent: core.EnumValue(krb.EnumJustifyCenter),
			krb.PropGap:            core.PxValue(20),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(50), krb.PropHeight: core.PxValue(50),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(50), krb.PropHeight: core.PxValue(50),
		}},
	})
	computed(t, doc, 800, 600)

	// Items use 50+20+50 = 120 of 300; centering leads with 90.
	wantBox(t, doc, 2, 90, 0, 50, 50)
	wantBox(t, doc, 3, 160, 0, 50, 50)
}

func TestColumnDirection(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth:         core.PxValue(100),
			krb.PropHeight:        core.PxValue(200),
			krb.PropFlexDirection: core.EnumValue(krb.EnumDirColumn),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(100), krb.PropHeight: core.PxValue(60),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(100), krb.PropHeight: core.PxValue(60),
		}},
	})
	computed(t, doc, 800, 600)
	wantBox(t, doc, 2, 0, 0, 100, 60)
	wantBox(t, doc, 3, 0, 60, 100, 60)
}

func TestWrap(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth:    core.PxValue(120),
			krb.PropHeight:   core.PxValue(100),
			krb.PropFlexWrap: core.EnumValue(krb.EnumWrapWrap),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(70), krb.PropHeight: core.PxValue(30),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(70), krb.PropHeight: core.PxValue(30),
		}},
	})
	computed(t, doc, 800, 600)

	// 70+70 exceeds 120, so the second item wraps to a new line.
	wantBox(t, doc, 2, 0, 0, 70, 30)
	wantBox(t, doc, 3, 0, 30, 70, 30)
}

func TestOrderProperty(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth:  core.PxValue(200),
			krb.PropHeight: core.PxValue(50),
		}},
		{kind: krb.ElemKindContainer, parent: 1, id: "first", props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(50), krb.PropHeight: core.PxValue(50),
			krb.PropOrder: core.IntValue(2),
		}},
		{kind: krb.ElemKindContainer, parent: 1, id: "second", props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(50), krb.PropHeight: core.PxValue(50),
			krb.PropOrder: core.IntValue(1),
		}},
	})
	computed(t, doc, 800, 600)

	// order reorders layout without mutating the tree.
	wantBox(t, doc, 3, 0, 0, 50, 50)
	wantBox(t, doc, 2, 50, 0, 50, 50)
	if doc.ChildrenOf(1)[0] != 2 {
		t.Error("order property mutated child order")
	}
}

func TestPercentOfAutoParentIsZero(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0}, // auto-sized
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth:  core.PctValue(50),
			krb.PropHeight: core.PxValue(10),
		}},
	})
	computed(t, doc, 800, 600)
	if got := doc.Get(2).Layout.W; got != 0 {
		t.Errorf("percent of auto parent = %v, want 0", got)
	}
}

func TestViewportUnits(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth:  core.LengthValue(krb.Length{Value: 50, Unit: krb.UnitVw}),
			krb.PropHeight: core.LengthValue(krb.Length{Value: 25, Unit: krb.UnitVh}),
		}},
	})
	computed(t, doc, 800, 600)
	wantBox(t, doc, 1, 0, 0, 400, 150)
}

func TestChildrenWithinParentContentBox(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth:   core.PxValue(200),
			krb.PropHeight:  core.PxValue(200),
			krb.PropPadding: core.EdgesValue(krb.Edges{Top: krb.Px(10), Right: krb.Px(10), Bottom: krb.Px(10), Left: krb.Px(10)}),
		}},
		{kind: krb.ElemKindContainer, parent: 1, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(50), krb.PropHeight: core.PxValue(50),
		}},
	})
	computed(t, doc, 800, 600)

	parent := doc.Get(1).Layout
	child := doc.Get(2).Layout
	if child.X < parent.X+10 || child.Y < parent.Y+10 ||
		child.X+child.W > parent.X+parent.W-10 || child.Y+child.H > parent.Y+parent.H-10 {
		t.Errorf("flow child %v escapes parent content box %v", child, parent)
	}
}

func TestRelayoutAfterDirtyWrite(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0, id: "left", props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(100), krb.PropHeight: core.PxValue(100),
		}},
		{kind: krb.ElemKindContainer, parent: 0, id: "right", props: map[krb.PropertyKey]core.Value{
			krb.PropWidth: core.PxValue(100), krb.PropHeight: core.PxValue(100),
		}},
	})
	eng := computed(t, doc, 800, 600)

	if doc.Get(0).LayoutDirty {
		t.Fatal("dirty flag survived Compute")
	}
	// Compute with nothing dirty is a no-op.
	eng.Compute()

	right, _ := doc.FindByID("right")
	doc.SetProperty(right, krb.PropHeight, core.PxValue(120))
	if !doc.Get(0).LayoutDirty {
		t.Fatal("root not dirtied by descendant write")
	}
	eng.Compute()
	if got := doc.Get(right).Layout.H; got != 120 {
		t.Errorf("right height = %v, want 120", got)
	}
}

func TestDegenerateSizesClamped(t *testing.T) {
	doc := buildDoc(t, []elemSpec{
		{kind: krb.ElemKindApp, parent: krb.NoParentIndex},
		{kind: krb.ElemKindContainer, parent: 0, props: map[krb.PropertyKey]core.Value{
			krb.PropWidth:  core.PxValue(-50),
			krb.PropHeight: core.FloatValue(float32(nan())),
		}},
	})
	computed(t, doc, 800, 600)
	box := doc.Get(1).Layout
	if box.W != 0 || box.H != 0 {
		t.Errorf("degenerate sizes not clamped: %v", box)
	}
}

func TestBankersRounding(t *testing.T) {
	if got := RoundPx(2.5); got != 2 {
		t.Errorf("RoundPx(2.5) = %v, want 2", got)
	}
	if got := RoundPx(3.5); got != 4 {
		t.Errorf("RoundPx(3.5) = %v, want 4", got)
	}
	if got := RoundPx(2.4); got != 2 {
		t.Errorf("RoundPx(2.4) = %v, want 2", got)
	}
}

func nan() float64 {
	v := 0.0
	return v / v
}
