// render/remote/remote.go
//
// Remote backend: serves one websocket client and streams each frame's
// command list as JSON. Input events travel the other way, letting a browser
// (or test harness) drive the engine without a local window. Useful for
// headless debugging and for thin display clients.

package remote

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/kryonlabs/kryon-renderer/render"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 65536,
	// The remote client is trusted tooling, not a public origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// frame is the wire envelope for one rendered frame.
type frame struct {
	Seq      uint64        `json:"seq"`
	Commands []wireCommand `json:"commands"`
}

type wireCommand struct {
	Op   string         `json:"op"`
	Args map[string]any `json:"args,omitempty"`
}

// wireInput mirrors render.InputEvent for the inbound direction.
type wireInput struct {
	Kind    string  `json:"kind"`
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	WheelDX float32 `json:"wheel_dx"`
	WheelDY float32 `json:"wheel_dy"`
	Key     string  `json:"key"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Gained  bool    `json:"gained"`
}

type RemoteRenderer struct {
	addr   string
	server *http.Server

	mu     sync.Mutex
	conn   *websocket.Conn
	seq    uint64
	closed bool

	input chan render.InputEvent
}

// NewRemoteRenderer serves the frame stream on addr (e.g. ":8190").
func NewRemoteRenderer(addr string) *RemoteRenderer {
	return &RemoteRenderer{
		addr:  addr,
		input: make(chan render.InputEvent, 256),
	}
}

func (r *RemoteRenderer) Init(config render.WindowConfig) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/frames", r.handleClient)
	r.server = &http.Server{Addr: r.addr, Handler: mux}

	go func() {
		if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("ERROR remote: websocket server: %v", err)
		}
	}()
	log.Printf("remote: serving frame stream on ws://%s/frames", r.addr)
	return nil
}

func (r *RemoteRenderer) handleClient(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("WARN remote: upgrade failed: %v", err)
		return
	}
	r.mu.Lock()
	if r.conn != nil {
		r.conn.Close()
	}
	r.conn = conn
	r.mu.Unlock()

	// Reader loop: inbound input events until the client goes away.
	go func() {
		for {
			var in wireInput
			if err := conn.ReadJSON(&in); err != nil {
				return
			}
			ev, ok := decodeInput(in)
			if !ok {
				continue
			}
			select {
			case r.input <- ev:
			default:
				// Drop input rather than block the frame loop.
			}
		}
	}()
}

func (r *RemoteRenderer) Execute(commands []render.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil // no client yet; frames are simply not observed
	}
	r.seq++
	f := frame{Seq: r.seq, Commands: encodeCommands(commands)}
	if err := r.conn.WriteJSON(f); err != nil {
		log.Printf("WARN remote: client write failed, dropping connection: %v", err)
		r.conn.Close()
		r.conn = nil
	}
	return nil
}

func (r *RemoteRenderer) Poll() []render.InputEvent {
	var events []render.InputEvent
	for {
		select {
		case ev := <-r.input:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func (r *RemoteRenderer) ShouldClose() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *RemoteRenderer) Cleanup() {
	r.mu.Lock()
	r.closed = true
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
	srv := r.server
	r.mu.Unlock()
	if srv != nil {
		srv.Close()
	}
}

func decodeInput(in wireInput) (render.InputEvent, bool) {
	ev := render.InputEvent{
		X: in.X, Y: in.Y,
		WheelDX: in.WheelDX, WheelDY: in.WheelDY,
		Key: in.Key, Width: in.Width, Height: in.Height,
		FocusGained: in.Gained,
	}
	switch in.Kind {
	case "pointer_down":
		ev.Kind = render.InputPointerDown
	case "pointer_up":
		ev.Kind = render.InputPointerUp
	case "pointer_move":
		ev.Kind = render.InputPointerMove
	case "pointer_wheel":
		ev.Kind = render.InputPointerWheel
	case "key_down":
		ev.Kind = render.InputKeyDown
	case "key_up":
		ev.Kind = render.InputKeyUp
	case "resize":
		ev.Kind = render.InputResize
	case "focus_change":
		ev.Kind = render.InputFocusChange
	default:
		return render.InputEvent{}, false
	}
	return ev, true
}

func encodeCommands(commands []render.Command) []wireCommand {
	out := make([]wireCommand, 0, len(commands))
	for _, cmd := range commands {
		out = append(out, encodeCommand(cmd))
	}
	return out
}

func encodeCommand(cmd render.Command) wireCommand {
	rect := func(r render.Rect) map[string]any {
		return map[string]any{"x": r.X, "y": r.Y, "w": r.W, "h": r.H}
	}
	switch c := cmd.(type) {
	case render.PushTransform:
		return wireCommand{Op: "push_transform", Args: map[string]any{"matrix": c.Matrix}}
	case render.PopTransform:
		return wireCommand{Op: "pop_transform"}
	case render.PushClip:
		return wireCommand{Op: "push_clip", Args: map[string]any{"rect": rect(c.Rect)}}
	case render.PopClip:
		return wireCommand{Op: "pop_clip"}
	case render.SetGlobalAlpha:
		return wireCommand{Op: "set_global_alpha", Args: map[string]any{"alpha": c.Alpha}}
	case render.DrawRect:
		return wireCommand{Op: "draw_rect", Args: map[string]any{
			"rect": rect(c.Rect), "fill": colorHex(c), "stroke_width": c.StrokeWidth, "radius": c.Radius,
		}}
	case render.DrawText:
		return wireCommand{Op: "draw_text", Args: map[string]any{
			"rect": rect(c.Rect), "text": c.Text, "font_size": c.FontSize, "align": c.Align,
		}}
	case render.DrawImage:
		return wireCommand{Op: "draw_image", Args: map[string]any{
			"rect": rect(c.Rect), "resource": c.Resource,
		}}
	case render.DrawTextInput:
		return wireCommand{Op: "draw_text_input", Args: map[string]any{
			"rect": rect(c.Rect), "text": c.State.Text, "focused": c.State.Focused,
		}}
	case render.DrawCheckbox:
		return wireCommand{Op: "draw_checkbox", Args: map[string]any{
			"rect": rect(c.Rect), "checked": c.State.Checked,
		}}
	case render.DrawSlider:
		return wireCommand{Op: "draw_slider", Args: map[string]any{
			"rect": rect(c.Rect), "value": c.State.Value, "min": c.State.Min, "max": c.State.Max,
		}}
	}
	return wireCommand{Op: "unknown"}
}

func colorHex(c render.DrawRect) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.Fill.R, c.Fill.G, c.Fill.B, c.Fill.A)
}
