package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kryonlabs/kryon-renderer/core"
	"github.com/kryonlabs/kryon-renderer/internal/config"
	"github.com/kryonlabs/kryon-renderer/krb"
	"github.com/kryonlabs/kryon-renderer/render"
)

// counterApp writes a complete KRB binary: App(640x480) with a counter
// variable, a button wired to on_click, and a text bound to {$counter}.
func counterApp(t *testing.T) string {
	t.Helper()
	doc := &krb.Document{PropBlocks: map[uint32]*krb.PropBlock{}}
	doc.Header.VersionMajor = krb.SpecVersionMajor
	doc.Header.VersionMinor = krb.SpecVersionMinor
	doc.Strings = []string{
		"app",        // 0
		"btn",        // 1
		"label",      // 2
		"{$counter}", // 3
		"main",       // 4
		"function on_click()\n  counter = counter + 1\nend", // 5
		"on_click", // 6
		"counter",  // 7
		"0",        // 8
		"Click me", // 9
	}
	doc.PropBlocks[0] = &krb.PropBlock{Offset: 0, Properties: []krb.Property{
		{Key: krb.PropWindowWidth, ValueType: krb.ValTypeInt, Value: krb.EncodeInt(640)},
		{Key: krb.PropWindowHeight, ValueType: krb.ValTypeInt, Value: krb.EncodeInt(480)},
	}}
	doc.PropBlocks[50] = &krb.PropBlock{Offset: 50, Properties: []krb.Property{
		{Key: krb.PropTextContent, ValueType: krb.ValTypeString, Value: krb.EncodeU16(9)},
		{Key: krb.PropWidth, ValueType: krb.ValTypeLength, Value: krb.EncodeLength(krb.Px(120))},
		{Key: krb.PropHeight, ValueType: krb.ValTypeLength, Value: krb.EncodeLength(krb.Px(40))},
	}}
	doc.PropBlocks[100] = &krb.PropBlock{Offset: 100, Properties: []krb.Property{
		{Key: krb.PropTextContent, ValueType: krb.ValTypeString, Value: krb.EncodeU16(3)},
	}}
	doc.Scripts = []krb.Script{
		{Lang: krb.ScriptLangLua, NameIndex: 4, SourceIndex: 5, Entries: []uint16{6}},
	}
	doc.Elements = []krb.Element{
		{Kind: krb.ElemKindApp, IDIndex: 0, ParentIdx: krb.NoParentIndex, PropBlock: 0,
			Customs: []krb.CustomProperty{{KeyIndex: 7, ValueIndex: 8}}},
		{Kind: krb.ElemKindButton, IDIndex: 1, ParentIdx: 0, PropBlock: 50,
			Events: []krb.EventBinding{{Kind: krb.EventKindClick, Function: 6}}},
		{Kind: krb.ElemKindText, IDIndex: 2, ParentIdx: 0, PropBlock: 100},
	}

	data, err := krb.WriteDocument(doc)
	if err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	path := filepath.Join(t.TempDir(), "counter.krb")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesWindowConfig(t *testing.T) {
	a, err := Load(counterApp(t), config.Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer a.Scripts.Close()

	if a.Config.Width != 640 || a.Config.Height != 480 {
		t.Errorf("window = %dx%d, want 640x480", a.Config.Width, a.Config.Height)
	}
}

func TestCounterClickThroughFrameLoop(t *testing.T) {
	a, err := Load(counterApp(t), config.Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer a.Scripts.Close()
	a.Scripts.Ready()

	label, ok := a.Doc.FindByID("label")
	if !ok {
		t.Fatal("label not found")
	}

	// First frame with no input: template shows "0".
	cmds := a.Frame(nil)
	if len(cmds) == 0 {
		t.Fatal("first frame emitted no commands")
	}
	if got := a.Doc.Text(label); got != "0" {
		t.Fatalf("initial bound text = %q, want 0", got)
	}

	// The button occupies (0,0,120,40); click it through the loop.
	btnBox := a.Doc.Get(1).Layout
	x, y := btnBox.X+5, btnBox.Y+5
	cmds = a.Frame([]render.InputEvent{
		{Kind: render.InputPointerDown, X: x, Y: y},
		{Kind: render.InputPointerUp, X: x, Y: y},
	})

	if got := a.Doc.Text(label); got != "1" {
		t.Errorf("bound text after click = %q, want 1", got)
	}
	found := false
	for _, c := range cmds {
		if dt, ok := c.(render.DrawText); ok && dt.Text == "1" {
			found = true
		}
	}
	if !found {
		t.Error("frame did not draw the updated counter text")
	}
	if !render.Balanced(cmds) {
		t.Error("frame command stream unbalanced")
	}
}

func TestFrameRespectsStrictOrder(t *testing.T) {
	a, err := Load(counterApp(t), config.Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer a.Scripts.Close()

	// A frame runs layout after the drains, so it leaves the layout dirty
	// flags clear.
	a.Frame(nil)
	if a.Doc.Get(core.RootElement).LayoutDirty {
		t.Error("layout left dirty after frame")
	}
}

func TestResizeEventRewiresViewport(t *testing.T) {
	a, err := Load(counterApp(t), config.Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer a.Scripts.Close()

	a.Frame([]render.InputEvent{{Kind: render.InputResize, Width: 1024, Height: 768}})
	if w, h := a.Layout.Viewport(); w != 1024 || h != 768 {
		t.Errorf("viewport = %vx%v, want 1024x768", w, h)
	}
	if a.Config.Width != 1024 {
		t.Errorf("config width = %d, want 1024", a.Config.Width)
	}
}
