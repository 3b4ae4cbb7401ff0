package script

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kryonlabs/kryon-renderer/core"
	"github.com/kryonlabs/kryon-renderer/krb"
)

// scriptedDoc builds App > Button(#btn, on_click) + Text(#label bound to
// {$counter}) with one embedded script module.
func scriptedDoc(t *testing.T, lang krb.ScriptLang, source string) (*core.Document, *System) {
	t.Helper()
	src := &krb.Document{
		Strings: []string{
			"app",      // 0
			"btn",      // 1
			"label",    // 2
			"{$counter}", // 3
			"main",     // 4
			source,     // 5
			"on_click", // 6
			"counter",  // 7
			"0",        // 8
		},
		PropBlocks: map[uint32]*krb.PropBlock{},
	}
	src.PropBlocks[0] = &krb.PropBlock{Offset: 0, Properties: []krb.Property{
		{Key: krb.PropTextContent, ValueType: krb.ValTypeString, Value: krb.EncodeU16(3)},
	}}
	src.Scripts = []krb.Script{
		{Lang: lang, NameIndex: 4, SourceIndex: 5, Entries: []uint16{6}},
	}
	src.Elements = []krb.Element{
		{Kind: krb.ElemKindApp, IDIndex: 0, ParentIdx: krb.NoParentIndex, PropBlock: krb.NoPropBlock,
			Customs: []krb.CustomProperty{{KeyIndex: 7, ValueIndex: 8}}},
		{Kind: krb.ElemKindButton, IDIndex: 1, ParentIdx: 0, PropBlock: krb.NoPropBlock,
			Events: []krb.EventBinding{{Kind: krb.EventKindClick, Function: 6}}},
		{Kind: krb.ElemKindText, IDIndex: 2, ParentIdx: 0, PropBlock: 0},
	}
	doc, err := core.NewDocument(src)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	sys := NewSystem(doc)
	sys.LoadDocumentScripts()
	sys.RenderAllTemplates()
	return doc, sys
}

func TestCounterReactivityLua(t *testing.T) {
	Convey("Given a counter bound to a text element", t, func() {
		doc, sys := scriptedDoc(t, krb.ScriptLangLua, `
			function on_click()
				counter = counter + 1
			end
		`)
		defer sys.Close()
		label, _ := doc.FindByID("label")

		Convey("The template renders the initial value", func() {
			So(doc.Text(label), ShouldEqual, "0")
		})

		Convey("When the click handler runs once", func() {
			sys.Invoke("on_click")

			So(sys.Vars().Committed("counter"), ShouldEqual, "1")
			So(doc.Text(label), ShouldEqual, "1")

			Convey("And a second activation increments again", func() {
				sys.Invoke("on_click")
				So(doc.Text(label), ShouldEqual, "2")
			})
		})
	})
}

func TestCounterReactivityJS(t *testing.T) {
	Convey("Given a JS handler writing the counter", t, func() {
		doc, sys := scriptedDoc(t, krb.ScriptLangJS, `
			function on_click() {
				counter = counter + 1;
			}
		`)
		defer sys.Close()
		label, _ := doc.FindByID("label")

		Convey("One click updates the bound text", func() {
			sys.Invoke("on_click")
			So(sys.Vars().Committed("counter"), ShouldEqual, "1")
			So(doc.Text(label), ShouldEqual, "1")
		})
	})
}

func TestScriptErrorIsolation(t *testing.T) {
	Convey("Given a handler that throws after queueing a mutation", t, func() {
		doc, sys := scriptedDoc(t, krb.ScriptLangLua, `
			function on_click()
				getElementById("label"):setText("before the throw")
				error("boom")
			end
		`)
		defer sys.Close()
		label, _ := doc.FindByID("label")

		Convey("The mutation queued before the throw is still applied", func() {
			sys.Invoke("on_click")
			So(doc.Text(label), ShouldEqual, "before the throw")

			Convey("And the handler stays invocable", func() {
				sys.Invoke("on_click")
				So(doc.Text(label), ShouldEqual, "before the throw")
			})
		})
	})
}

func TestMutationBatching(t *testing.T) {
	Convey("Given proxy mutations inside an activation", t, func() {
		doc, sys := scriptedDoc(t, krb.ScriptLangLua, `
			function on_click()
				local label = getElementById("label")
				label:setText("queued")
				-- read-your-writes inside the same activation
				observed = label:getText()
				label:setVisible(false)
			end
		`)
		defer sys.Close()
		label, _ := doc.FindByID("label")

		Convey("After the drain the writes are applied atomically", func() {
			sys.Invoke("on_click")
			So(doc.Text(label), ShouldEqual, "queued")
			So(doc.Get(label).Visible, ShouldBeFalse)
		})
	})
}

func TestBudgetTimeoutDiscardsMutations(t *testing.T) {
	Convey("Given a handler that never terminates", t, func() {
		doc, sys := scriptedDoc(t, krb.ScriptLangLua, `
			function on_click()
				getElementById("label"):setText("should never land")
				while true do end
			end
		`)
		defer sys.Close()
		sys.BudgetMS = 20
		label, _ := doc.FindByID("label")

		Convey("The activation aborts and its mutations are discarded", func() {
			sys.Invoke("on_click")
			So(doc.Text(label), ShouldEqual, "0")
		})
	})
}

func TestCrossVMVariableSync(t *testing.T) {
	Convey("Given lua and js modules sharing a reactive variable", t, func() {
		doc, sys := scriptedDoc(t, krb.ScriptLangLua, `
			function on_click()
				counter = 41
			end
		`)
		defer sys.Close()

		// Load a JS module into the same system after the fact.
		src := doc.Source
		src.Strings = append(src.Strings, "js_read", `
			function js_read() {
				counter = counter + 1;
			}
		`)
		src.Scripts = append(src.Scripts, krb.Script{
			Lang:        krb.ScriptLangJS,
			NameIndex:   uint16(len(src.Strings) - 2),
			SourceIndex: uint16(len(src.Strings) - 1),
		})
		sys.LoadDocumentScripts()

		Convey("A write committed in one VM is read by the other", func() {
			sys.Invoke("on_click") // lua: counter = 41
			So(sys.Vars().Committed("counter"), ShouldEqual, "41")

			sys.Invoke("js_read") // js: counter = 41 + 1
			So(sys.Vars().Committed("counter"), ShouldEqual, "42")
		})
	})
}

func TestOnReadyAndGlobalListeners(t *testing.T) {
	Convey("Given onReady and addEventListener registrations", t, func() {
		doc, sys := scriptedDoc(t, krb.ScriptLangLua, `
			onReady(function()
				getElementById("label"):setText("ready")
			end)
			addEventListener("keydown", function()
				getElementById("label"):setText("key")
			end)
		`)
		defer sys.Close()
		label, _ := doc.FindByID("label")

		Convey("Ready callbacks run with a drain", func() {
			sys.Ready()
			So(doc.Text(label), ShouldEqual, "ready")
		})

		Convey("Global listeners fire on document events", func() {
			sys.EmitGlobal("keydown")
			So(doc.Text(label), ShouldEqual, "key")
		})
	})
}

func TestUnknownLanguageLogsAndContinues(t *testing.T) {
	Convey("Given a python module with no registered VM", t, func() {
		doc, sys := scriptedDoc(t, krb.ScriptLangPython, `print("hi")`)
		defer sys.Close()

		var logged []string
		doc.SetLogger(func(level, msg string) { logged = append(logged, level+" "+msg) })
		sys.LoadDocumentScripts()

		Convey("Loading logs a ScriptError but does not fail", func() {
			So(len(logged), ShouldBeGreaterThan, 0)
		})
	})
}

func TestQuerySelectors(t *testing.T) {
	Convey("Given the selector forms", t, func() {
		doc, sys := scriptedDoc(t, krb.ScriptLangLua, `
			function on_click()
				hit_id = querySelector("#label"):getText()
				tags = #querySelectorAll("text")
				buttons = #getElementsByTag("button")
			end
		`)
		defer sys.Close()
		var logged []string
		doc.SetLogger(func(level, msg string) { logged = append(logged, level+" "+msg) })

		Convey("Selectors resolve ids and tags", func() {
			sys.Invoke("on_click")
			// A missed selector makes the handler index nil and fail, and the
			// failure is logged.
			So(logged, ShouldBeEmpty)
			So(sys.Bridge().Pending(), ShouldBeFalse)
		})
	})
}
