// render/raylib/raylib_renderer.go
//
// Raylib backend: executes the backend-neutral command stream with raylib
// draw calls and converts raylib input into neutral events.

package raylib

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/kryonlabs/kryon-renderer/krb"
	"github.com/kryonlabs/kryon-renderer/render"
)

type RaylibRenderer struct {
	config render.WindowConfig

	// Resource cache: resource table index -> loaded texture.
	textures    map[uint16]rl.Texture2D
	resources   []krb.Resource
	resourceDir string
	strings     []string

	alpha     float32
	clipDepth int

	lastWidth, lastHeight int
}

func NewRaylibRenderer() *RaylibRenderer {
	return &RaylibRenderer{
		textures: make(map[uint16]rl.Texture2D),
		alpha:    1.0,
	}
}

// SetResources wires the document's resource table so DrawImage commands can
// materialize textures lazily.
func (r *RaylibRenderer) SetResources(doc *krb.Document, baseDir string) {
	r.resources = doc.Resources
	r.strings = doc.Strings
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		log.Printf("WARN raylib: cannot resolve resource dir %q: %v", baseDir, err)
		abs = baseDir
	}
	r.resourceDir = abs
}

func (r *RaylibRenderer) Init(config render.WindowConfig) error {
	r.config = config
	if config.Resizable {
		rl.SetConfigFlags(rl.FlagWindowResizable)
	}
	rl.InitWindow(int32(config.Width), int32(config.Height), config.Title)
	if !rl.IsWindowReady() {
		return fmt.Errorf("raylib: window initialization failed")
	}
	rl.SetTargetFPS(60)
	r.lastWidth, r.lastHeight = config.Width, config.Height
	return nil
}

func (r *RaylibRenderer) Execute(commands []render.Command) error {
	rl.BeginDrawing()
	rl.ClearBackground(toRl(r.config.DefaultBg, 1))

	r.alpha = 1.0
	r.clipDepth = 0
	for _, cmd := range commands {
		r.execute(cmd)
	}
	for r.clipDepth > 0 {
		// Unbalanced streams are caught by the translator; this is the
		// backend's last-resort cleanup so scissor state cannot leak.
		rl.EndScissorMode()
		r.clipDepth--
	}

	rl.EndDrawing()
	return nil
}

func (r *RaylibRenderer) execute(cmd render.Command) {
	switch c := cmd.(type) {
	case render.SetGlobalAlpha:
		r.alpha = c.Alpha
	case render.PushClip:
		rl.BeginScissorMode(int32(c.Rect.X), int32(c.Rect.Y), int32(c.Rect.W), int32(c.Rect.H))
		r.clipDepth++
	case render.PopClip:
		if r.clipDepth > 0 {
			rl.EndScissorMode()
			r.clipDepth--
		}
	case render.PushTransform:
		rl.PushMatrix()
		// Affine 2x3: a b c d e f with e,f translation.
		rl.Translatef(c.Matrix[4], c.Matrix[5], 0)
	case render.PopTransform:
		rl.PopMatrix()
	case render.DrawRect:
		r.drawRect(c)
	case render.DrawText:
		r.drawText(c)
	case render.DrawImage:
		r.drawImage(c)
	case render.DrawTextInput:
		r.drawTextInput(c)
	case render.DrawCheckbox:
		r.drawCheckbox(c)
	case render.DrawSlider:
		r.drawSlider(c)
	}
}

func (r *RaylibRenderer) drawRect(c render.DrawRect) {
	rect := rl.NewRectangle(c.Rect.X, c.Rect.Y, c.Rect.W, c.Rect.H)
	if c.Fill.A > 0 {
		if c.Radius > 0 {
			roundness := c.Radius / maxF(1, minF(c.Rect.W, c.Rect.H)/2)
			rl.DrawRectangleRounded(rect, minF(1, roundness), 8, toRl(c.Fill, r.alpha))
		} else {
			rl.DrawRectangleRec(rect, toRl(c.Fill, r.alpha))
		}
	}
	if c.Stroke.A > 0 && c.StrokeWidth > 0 {
		rl.DrawRectangleLinesEx(rect, c.StrokeWidth, toRl(c.Stroke, r.alpha))
	}
}

func (r *RaylibRenderer) drawText(c render.DrawText) {
	size := int32(c.FontSize)
	if size <= 0 {
		size = 16
	}
	textW := rl.MeasureText(c.Text, size)
	x := int32(c.Rect.X)
	switch c.Align {
	case krb.EnumTextAlignCenter:
		x = int32(c.Rect.X + (c.Rect.W-float32(textW))/2)
	case krb.EnumTextAlignEnd:
		x = int32(c.Rect.X + c.Rect.W - float32(textW))
	}
	y := int32(c.Rect.Y + (c.Rect.H-float32(size))/2)
	rl.DrawText(c.Text, x, y, size, toRl(c.Color, r.alpha))
}

func (r *RaylibRenderer) drawImage(c render.DrawImage) {
	tex, ok := r.texture(c.Resource)
	if !ok {
		// Missing or unloadable resource paints the placeholder box.
		rl.DrawRectangleRec(rl.NewRectangle(c.Rect.X, c.Rect.Y, c.Rect.W, c.Rect.H),
			toRl(krb.Color{R: 128, A: 255}, r.alpha))
		return
	}
	src := rl.NewRectangle(0, 0, float32(tex.Width), float32(tex.Height))
	dst := rl.NewRectangle(c.Rect.X, c.Rect.Y, c.Rect.W, c.Rect.H)
	rl.DrawTexturePro(tex, src, dst, rl.NewVector2(0, 0), 0, toRl(c.Tint, r.alpha))
}

func (r *RaylibRenderer) drawTextInput(c render.DrawTextInput) {
	rect := rl.NewRectangle(c.Rect.X, c.Rect.Y, c.Rect.W, c.Rect.H)
	fill := c.Fill
	if fill.A == 0 {
		fill = krb.Color{R: 250, G: 250, B: 250, A: 255}
	}
	rl.DrawRectangleRec(rect, toRl(fill, r.alpha))
	stroke := c.Stroke
	if c.State.Focused {
		stroke = krb.Color{R: 80, G: 140, B: 255, A: 255}
	}
	if stroke.A > 0 {
		rl.DrawRectangleLinesEx(rect, 1, toRl(stroke, r.alpha))
	}
	text := c.State.Text
	color := c.Color
	if text == "" {
		text = c.State.Placeholder
		color = krb.Color{R: 128, G: 128, B: 128, A: 255}
	}
	size := int32(c.FontSize)
	if size <= 0 {
		size = 16
	}
	rl.DrawText(text, int32(c.Rect.X)+4, int32(c.Rect.Y+(c.Rect.H-float32(size))/2), size, toRl(color, r.alpha))
}

func (r *RaylibRenderer) drawCheckbox(c render.DrawCheckbox) {
	rect := rl.NewRectangle(c.Rect.X, c.Rect.Y, c.Rect.W, c.Rect.H)
	stroke := c.Stroke
	if stroke.A == 0 {
		stroke = krb.Color{R: 200, G: 200, B: 200, A: 255}
	}
	rl.DrawRectangleLinesEx(rect, 1, toRl(stroke, r.alpha))
	if c.State.Checked {
		inner := rl.NewRectangle(c.Rect.X+3, c.Rect.Y+3, c.Rect.W-6, c.Rect.H-6)
		rl.DrawRectangleRec(inner, toRl(c.Color, r.alpha))
	}
}

func (r *RaylibRenderer) drawSlider(c render.DrawSlider) {
	track := c.Track
	if track.A == 0 {
		track = krb.Color{R: 90, G: 90, B: 90, A: 255}
	}
	trackY := c.Rect.Y + c.Rect.H/2 - 2
	rl.DrawRectangleRec(rl.NewRectangle(c.Rect.X, trackY, c.Rect.W, 4), toRl(track, r.alpha))

	span := c.State.Max - c.State.Min
	ratio := float32(0)
	if span > 0 {
		ratio = (c.State.Value - c.State.Min) / span
	}
	knobX := c.Rect.X + ratio*c.Rect.W
	rl.DrawCircle(int32(knobX), int32(c.Rect.Y+c.Rect.H/2), 6, toRl(c.Color, r.alpha))
}

// texture materializes a resource lazily on first use; handles stay stable.
func (r *RaylibRenderer) texture(idx uint16) (rl.Texture2D, bool) {
	if tex, ok := r.textures[idx]; ok {
		return tex, tex.ID > 0
	}
	if int(idx) >= len(r.resources) {
		return rl.Texture2D{}, false
	}
	res := r.resources[idx]
	var tex rl.Texture2D
	switch res.Format {
	case krb.ResFormatInline:
		img := rl.LoadImageFromMemory(".png", res.InlineData, int32(len(res.InlineData)))
		tex = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
	case krb.ResFormatExternal:
		name := ""
		if int(res.DataIndex) < len(r.strings) {
			name = r.strings[res.DataIndex]
		}
		path := filepath.Join(r.resourceDir, name)
		if _, err := os.Stat(path); err != nil {
			log.Printf("WARN raylib: resource %d file %q missing: %v", idx, path, err)
			r.textures[idx] = rl.Texture2D{}
			return rl.Texture2D{}, false
		}
		tex = rl.LoadTexture(path)
	}
	if tex.ID == 0 {
		log.Printf("WARN raylib: failed to load resource %d", idx)
	}
	r.textures[idx] = tex
	return tex, tex.ID > 0
}

func (r *RaylibRenderer) Poll() []render.InputEvent {
	var events []render.InputEvent

	pos := rl.GetMousePosition()
	events = append(events, render.InputEvent{Kind: render.InputPointerMove, X: pos.X, Y: pos.Y})
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		events = append(events, render.InputEvent{Kind: render.InputPointerDown, X: pos.X, Y: pos.Y})
	}
	if rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		events = append(events, render.InputEvent{Kind: render.InputPointerUp, X: pos.X, Y: pos.Y})
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		events = append(events, render.InputEvent{Kind: render.InputPointerWheel, X: pos.X, Y: pos.Y, WheelDY: wheel})
	}

	for key := rl.GetKeyPressed(); key > 0; key = rl.GetKeyPressed() {
		name := keyName(key)
		if name == "" {
			continue
		}
		if name == "Tab" && (rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift)) {
			name = "Shift+Tab"
		}
		events = append(events, render.InputEvent{Kind: render.InputKeyDown, Key: name})
	}

	if rl.IsWindowResized() {
		w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
		if w != r.lastWidth || h != r.lastHeight {
			r.lastWidth, r.lastHeight = w, h
			events = append(events, render.InputEvent{Kind: render.InputResize, Width: w, Height: h})
		}
	}
	return events
}

func (r *RaylibRenderer) ShouldClose() bool {
	return rl.WindowShouldClose()
}

func (r *RaylibRenderer) Cleanup() {
	for _, tex := range r.textures {
		if tex.ID > 0 {
			rl.UnloadTexture(tex)
		}
	}
	r.textures = make(map[uint16]rl.Texture2D)
	if rl.IsWindowReady() {
		rl.CloseWindow()
	}
}

func keyName(key int32) string {
	switch key {
	case rl.KeyTab:
		return "Tab"
	case rl.KeyEnter:
		return "Enter"
	case rl.KeyEscape:
		return "Escape"
	case rl.KeySpace:
		return "Space"
	case rl.KeyBackspace:
		return "Backspace"
	case rl.KeyLeft:
		return "ArrowLeft"
	case rl.KeyRight:
		return "ArrowRight"
	case rl.KeyUp:
		return "ArrowUp"
	case rl.KeyDown:
		return "ArrowDown"
	}
	if key >= 32 && key < 127 {
		return string(rune(key))
	}
	return ""
}

func toRl(c krb.Color, alpha float32) rl.Color {
	a := float32(c.A) * alpha
	if a < 0 {
		a = 0
	}
	if a > 255 {
		a = 255
	}
	return rl.NewColor(c.R, c.G, c.B, uint8(a))
}

func minF(a, b float32) float32 {
	if a < b {
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
