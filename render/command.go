// render/command.go
//
// The closed render-command set. Commands are immutable values; the
// translator produces a flat sequence per frame and hands it to the backend
// by move. Coordinates are device pixels, origin top-left.

package render

import "github.com/kryonlabs/kryon-renderer/krb"

type Rect struct {
	X, Y, W, H float32
}

// Command is the sealed command union. Backends switch on the concrete type.
type Command interface {
	isCommand()
}

type PushTransform struct {
	Matrix [6]float32
}

type PopTransform struct{}

type PushClip struct {
	Rect Rect
}

type PopClip struct{}

type SetGlobalAlpha struct {
	Alpha float32
}

type DrawRect struct {
	Rect        Rect
	Fill        krb.Color
	Stroke      krb.Color
	StrokeWidth float32
	Radius      float32
}

type DrawText struct {
	Rect     Rect
	Text     string
	FontSize float32
	Font     string
	Color    krb.Color
	Align    uint16
}

type DrawImage struct {
	Rect     Rect
	Resource uint16
	Tint     krb.Color
}

// TextInputState carries the widget state a backend needs to paint an input.
type TextInputState struct {
	Text        string
	Placeholder string
	Focused     bool
	Disabled    bool
}

type DrawTextInput struct {
	Rect     Rect
	State    TextInputState
	FontSize float32
	Color    krb.Color
	Fill     krb.Color
	Stroke   krb.Color
}

type CheckboxState struct {
	Checked  bool
	Focused  bool
	Disabled bool
}

type DrawCheckbox struct {
	Rect   Rect
	State  CheckboxState
	Color  krb.Color
	Stroke krb.Color
}

type SliderState struct {
	Value, Min, Max float32
	Focused         bool
	Disabled        bool
}

type DrawSlider struct {
	Rect   Rect
	State  SliderState
	Color  krb.Color
	Track  krb.Color
}

func (PushTransform) isCommand()  {}
func (PopTransform) isCommand()   {}
func (PushClip) isCommand()       {}
func (PopClip) isCommand()        {}
func (SetGlobalAlpha) isCommand() {}
func (DrawRect) isCommand()       {}
func (DrawText) isCommand()       {}
func (DrawImage) isCommand()      {}
func (DrawTextInput) isCommand()  {}
func (DrawCheckbox) isCommand()   {}
func (DrawSlider) isCommand()     {}

// Balanced verifies that every Push* has a matching Pop* with no stack
// underflow. Imbalance is an internal invariant violation; the translator
// logs it as an error and keeps the frame. No build asserts on it.
func Balanced(cmds []Command) bool {
	clip, transform := 0, 0
	for _, c := range cmds {
		switch c.(type) {
		case PushClip:
			clip++
		case PopClip:
			clip--
		case PushTransform:
			transform++
		case PopTransform:
			transform--
		}
		if clip < 0 || transform < 0 {
			return false
		}
	}
	return clip == 0 && transform == 0
}
