// render/renderer.go

package render

import "github.com/kryonlabs/kryon-renderer/krb"

// WindowConfig holds application-level settings derived from the App element
// and the launch configuration.
type WindowConfig struct {
	Width       int
	Height      int
	Title       string
	Resizable   bool
	ScaleFactor float32
	DefaultBg   krb.Color
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:       800,
		Height:      600,
		Title:       "Kryon Application",
		Resizable:   true,
		ScaleFactor: 1.0,
		DefaultBg:   krb.Color{R: 30, G: 30, B: 30, A: 255},
	}
}

// InputEvent is a backend-neutral input record handed to the event
// dispatcher each frame.
type InputEvent struct {
	Kind InputKind
	X, Y float32 // pointer events
	// WheelDX/WheelDY for wheel events
	WheelDX, WheelDY float32
	Key              string // key events, layout-independent name
	Width, Height    int    // resize
	FocusGained      bool   // focus_change
}

type InputKind uint8

const (
	InputPointerDown InputKind = iota
	InputPointerUp
	InputPointerMove
	InputPointerWheel
	InputKeyDown
	InputKeyUp
	InputResize
	InputFocusChange
)

// Renderer is the contract every backend implements. The core owns the
// element tree and the command buffer; backends only consume commands and
// produce input events. Backends must not re-enter the core concurrently.
type Renderer interface {
	Init(config WindowConfig) error
	// Execute paints one frame. Ownership of the command slice moves to the
	// backend for the duration of the call.
	Execute(commands []Command) error
	// Poll drains backend input into neutral events.
	Poll() []InputEvent
	ShouldClose() bool
	Cleanup()
}
