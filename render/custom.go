// render/custom.go
//
// Registry for custom-component draw handlers. Instances of element kinds at
// or above the custom range delegate their command emission to a registered
// handler; unregistered components fall back to plain container drawing.

package render

import (
	"fmt"

	"github.com/kryonlabs/kryon-renderer/core"
)

// CustomDrawer emits the commands for one custom-component instance. The
// returned commands are appended in the element's paint position; children
// are still emitted by the translator afterwards.
type CustomDrawer interface {
	Draw(doc *core.Document, id core.ElementID, rect Rect) []Command
}

type customRegistry struct {
	handlers map[string]CustomDrawer
}

var customs = &customRegistry{handlers: make(map[string]CustomDrawer)}

// RegisterCustomComponent binds a drawer to a component name. The name is
// matched against the instance's "component" custom property.
func RegisterCustomComponent(name string, drawer CustomDrawer) error {
	if _, exists := customs.handlers[name]; exists {
		return fmt.Errorf("render: custom component %q already registered", name)
	}
	customs.handlers[name] = drawer
	return nil
}

func customDrawerFor(doc *core.Document, id core.ElementID) (CustomDrawer, bool) {
	name, ok := doc.Get(id).Customs["component"]
	if !ok {
		return nil, false
	}
	d, ok := customs.handlers[name]
	return d, ok
}
