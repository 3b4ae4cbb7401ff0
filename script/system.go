// script/system.go
//
// Multi-VM script system. One VM instance per enabled language; activations
// are synchronous and run to completion on the main thread between layout
// passes.

package script

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kryonlabs/kryon-renderer/core"
	"github.com/kryonlabs/kryon-renderer/krb"
)

// ErrBudgetExceeded marks an activation aborted by the host-configured
// budget timeout. Pending mutations from that activation are discarded.
var ErrBudgetExceeded = errors.New("script budget exceeded")

// Engine is the embedding contract one VM implements.
type Engine interface {
	Lang() string
	// Load compiles and runs a script module so its functions become
	// callable.
	Load(name, source string) error
	HasFunction(name string) bool
	// Call runs one activation to completion. ctx carries the budget
	// deadline when one is configured.
	Call(ctx context.Context, fn string) error
	// EmitReady fires the VM's queued onReady callbacks.
	EmitReady(ctx context.Context) error
	// EmitGlobal fires global addEventListener callbacks for an event kind.
	EmitGlobal(ctx context.Context, event string) error
	Close()
}

// Factory creates the VM for a language tag, wired to the shared bridge and
// reactive store.
type Factory func(b *Bridge, vars *Store) (Engine, error)

// System owns the VM registry and the activation/drain cycle.
type System struct {
	doc    *core.Document
	bridge *Bridge
	vars   *Store

	factories map[string]Factory
	engines   []Engine

	// BudgetMS bounds one activation in milliseconds; 0 means unlimited.
	BudgetMS int
}

func NewSystem(doc *core.Document) *System {
	s := &System{
		doc:       doc,
		bridge:    NewBridge(doc),
		vars:      NewStore(),
		factories: make(map[string]Factory),
	}
	s.Register("lua", NewLuaEngine)
	s.Register("js", NewJSEngine)
	return s
}

func (s *System) Bridge() *Bridge { return s.bridge }
func (s *System) Vars() *Store    { return s.vars }

// Register installs a VM factory for a language tag.
func (s *System) Register(lang string, f Factory) {
	s.factories[lang] = f
}

// LoadDocumentScripts declares reactive variables and loads every script
// module embedded in the document. Reactive variables are declared through
// the App element's custom properties.
func (s *System) LoadDocumentScripts() {
	if root := s.doc.Root(); root != core.InvalidElement {
		for name, value := range s.doc.Get(root).Customs {
			s.vars.Declare(name, value)
		}
	}

	src := s.doc.Source
	for _, sc := range src.Scripts {
		lang := sc.Lang.String()
		eng, err := s.engineFor(lang)
		if err != nil {
			s.doc.Logf("ERROR", "script: %v", err)
			continue
		}
		name := src.StringAt(sc.NameIndex)
		if err := eng.Load(name, src.StringAt(sc.SourceIndex)); err != nil {
			s.doc.Logf("ERROR", "script: loading %q: %v", name, err)
		}
	}
}

func (s *System) engineFor(lang string) (Engine, error) {
	for _, e := range s.engines {
		if e.Lang() == lang {
			return e, nil
		}
	}
	f, ok := s.factories[lang]
	if !ok {
		return nil, fmt.Errorf("no VM registered for language %q", lang)
	}
	eng, err := f(s.bridge, s.vars)
	if err != nil {
		return nil, fmt.Errorf("creating %s VM: %w", lang, err)
	}
	s.engines = append(s.engines, eng)
	return eng, nil
}

// Ready fires onReady callbacks in every live VM, once, after load.
func (s *System) Ready() {
	for _, eng := range s.engines {
		s.activate(eng.Lang()+":onReady", func(ctx context.Context) error {
			return eng.EmitReady(ctx)
		})
	}
}

// Invoke runs the named handler in whichever VM exports it. Unknown handler
// names log once per call and are otherwise ignored.
func (s *System) Invoke(fn string) {
	if fn == "" {
		return
	}
	for _, eng := range s.engines {
		if !eng.HasFunction(fn) {
			continue
		}
		s.activate(fn, func(ctx context.Context) error {
			return eng.Call(ctx, fn)
		})
		return
	}
	s.doc.Logf("WARN", "script: no handler named %q in any VM", fn)
}

// EmitGlobal fires document-level listeners (keydown, resize, ...) in every
// VM.
func (s *System) EmitGlobal(event string) {
	for _, eng := range s.engines {
		s.activate(event, func(ctx context.Context) error {
			return eng.EmitGlobal(ctx, event)
		})
	}
}

// activate runs one activation and completes the drain protocol. A script
// exception is logged with the handler identity and does not stop dispatch;
// mutations queued before the throw still apply. A budget abort discards
// them instead.
func (s *System) activate(label string, run func(ctx context.Context) error) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if s.BudgetMS > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.BudgetMS)*time.Millisecond)
		defer cancel()
	}

	err := run(ctx)
	if err != nil && errors.Is(err, ErrBudgetExceeded) {
		s.doc.Logf("ERROR", "script: handler %q aborted by budget, mutations discarded", label)
		s.bridge.Discard()
		s.vars.Discard()
		return
	}
	if err != nil {
		s.doc.Logf("ERROR", "script: handler %q failed: %v", label, err)
	}
	s.DrainAll()
}

// DrainAll applies pending element mutations, commits reactive writes and
// re-renders the template expressions referencing changed variables.
func (s *System) DrainAll() {
	s.bridge.Drain()

	changed := s.vars.Commit()
	if len(changed) == 0 {
		return
	}
	changedSet := make(map[string]bool, len(changed))
	for _, name := range changed {
		changedSet[name] = true
	}
	for i := range s.doc.Elements {
		el := &s.doc.Elements[i]
		if el.TemplateText == "" {
			continue
		}
		refs := TemplateRefs(el.TemplateText)
		hit := false
		for _, r := range refs {
			if changedSet[r] {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		rendered := RenderTemplate(el.TemplateText, s.vars.Committed)
		s.doc.SetProperty(el.ID, krb.PropTextContent, core.StringValue(rendered))
	}
}

// RenderAllTemplates renders every template expression from the current
// variable values; called once after load so initial bindings display.
func (s *System) RenderAllTemplates() {
	for i := range s.doc.Elements {
		el := &s.doc.Elements[i]
		if el.TemplateText == "" {
			continue
		}
		rendered := RenderTemplate(el.TemplateText, s.vars.Committed)
		s.doc.SetProperty(el.ID, krb.PropTextContent, core.StringValue(rendered))
	}
}

// Close tears down every VM.
func (s *System) Close() {
	for _, eng := range s.engines {
		eng.Close()
	}
	s.engines = nil
}

// CoerceScalar converts a canonical string value to the richest native type
// a VM can host: number, bool, else string.
func CoerceScalar(v string) any {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

// FormatScalar converts a VM-native value back to the canonical string.
func FormatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprintf("%v", v)
	}
}
