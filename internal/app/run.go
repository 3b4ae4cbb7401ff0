// internal/app/run.go
package app

import (
	"fmt"
	"log"
	"os"

	"github.com/kryonlabs/kryon-renderer/core"
	"github.com/kryonlabs/kryon-renderer/event"
	"github.com/kryonlabs/kryon-renderer/internal/config"
	"github.com/kryonlabs/kryon-renderer/krb"
	"github.com/kryonlabs/kryon-renderer/layout"
	"github.com/kryonlabs/kryon-renderer/render"
	"github.com/kryonlabs/kryon-renderer/script"
)

// App wires the parsed document to the style/layout/translate/dispatch
// cycle. A single goroutine owns all of it; backends only exchange commands
// and input events.
type App struct {
	Doc        *core.Document
	Layout     *layout.Engine
	Translator *render.Translator
	Scripts    *script.System
	Events     *event.Dispatcher
	Config     render.WindowConfig
}

// Load parses a KRB file and builds the full runtime.
func Load(path string, cfg config.Config) (*App, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open KRB file %q: %w", path, err)
	}
	src, err := krb.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse KRB file %q: %w", path, err)
	}
	log.Printf("Parsed KRB OK - Ver=%d.%d Elements=%d Styles=%d Strings=%d Resources=%d Scripts=%d",
		src.Header.VersionMajor, src.Header.VersionMinor&krb.MinorVersionMask,
		len(src.Elements), len(src.Styles), len(src.Strings), len(src.Resources), len(src.Scripts))

	doc, err := core.NewDocument(src)
	if err != nil {
		return nil, fmt.Errorf("failed to build element tree: %w", err)
	}
	doc.ResolveWarnings()

	a := &App{
		Doc:        doc,
		Layout:     layout.New(doc),
		Translator: render.NewTranslator(doc),
		Scripts:    script.NewSystem(doc),
		Config:     windowConfig(doc, cfg),
	}
	a.Scripts.BudgetMS = cfg.ScriptBudgetMS
	a.Events = event.NewDispatcher(doc, a.Scripts)
	a.Events.OnResize = func(w, h int) {
		a.Config.Width, a.Config.Height = w, h
		a.Layout.SetViewport(float32(w), float32(h))
	}

	a.Scripts.LoadDocumentScripts()
	a.Scripts.RenderAllTemplates()
	a.Layout.SetViewport(float32(a.Config.Width), float32(a.Config.Height))
	return a, nil
}

// windowConfig derives window settings from the App element's resolved
// properties, overlaid on launch configuration.
func windowConfig(doc *core.Document, cfg config.Config) render.WindowConfig {
	wc := render.DefaultWindowConfig()
	wc.Width = cfg.ViewportWidth
	wc.Height = cfg.ViewportHeight

	root := doc.Root()
	if root == core.InvalidElement || doc.Get(root).Kind != krb.ElemKindApp {
		log.Println("No App element found in KRB. Using default window configuration.")
		return wc
	}
	m := doc.ResolveAll(root)
	if w := m[krb.PropWindowWidth].Int; w > 0 {
		wc.Width = int(w)
	}
	if h := m[krb.PropWindowHeight].Int; h > 0 {
		wc.Height = int(h)
	}
	if t := m[krb.PropWindowTitle].Str; t != "" {
		wc.Title = t
	}
	wc.Resizable = m[krb.PropResizable].Bool
	if sf := m[krb.PropScaleFactor].AsFloat(); sf > 0 {
		wc.ScaleFactor = sf
	}
	if bg := m[krb.PropBackgroundColor].Color; bg.A > 0 {
		wc.DefaultBg = bg
	}
	return wc
}

// Frame advances the engine one frame in the strict order: input dispatch,
// mutation drains, style re-resolve, layout, command emission.
func (a *App) Frame(input []render.InputEvent) []render.Command {
	for _, ev := range input {
		a.Events.Dispatch(ev)
	}
	// Dispatch already drained per activation; a final drain catches
	// event-driven property toggles.
	a.Scripts.DrainAll()
	a.Layout.Compute()
	return a.Translator.Translate()
}

// Run executes the main loop against a backend until it asks to close.
func Run(a *App, renderer render.Renderer) error {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := renderer.Init(a.Config); err != nil {
		renderer.Cleanup()
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	defer renderer.Cleanup()
	defer a.Scripts.Close()

	a.Scripts.Ready()

	log.Println("Entering main loop...")
	for !renderer.ShouldClose() {
		commands := a.Frame(renderer.Poll())
		if err := renderer.Execute(commands); err != nil {
			return fmt.Errorf("backend paint failed: %w", err)
		}
	}
	log.Println("Exiting.")
	return nil
}
