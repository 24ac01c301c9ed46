// Package server streams solver frames to websocket clients and turns their
// messages into control commands.
package server

import (
	"encoding/json"
	"image/color"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/stablefluid/colormap"
	"github.com/pthm-cable/stablefluid/control"
	"github.com/pthm-cable/stablefluid/field"
	"github.com/pthm-cable/stablefluid/fluid"
)

const writeTimeout = 2 * time.Second

// FrameMessage is the server to client payload. Density holds W*H RGBA
// pixels, row-major, base64 encoded by encoding/json.
type FrameMessage struct {
	Type    string `json:"type"`
	Tick    int32  `json:"tick"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Density []byte `json:"density"`
}

// ClientMessage is any client to server payload; Type selects which fields apply.
type ClientMessage struct {
	Type   string          `json:"type"`
	X      float32         `json:"x"`
	Y      float32         `json:"y"`
	VX     float32         `json:"vx"`
	VY     float32         `json:"vy"`
	Active bool            `json:"active"`
	Preset string          `json:"preset"`
	Solver json.RawMessage `json:"solver"`
}

// Options configures a Server.
type Options struct {
	Queue         *control.Queue
	Palette       *colormap.Palette
	FrameInterval time.Duration
	MaxClients    int                    // 0 means unlimited
	ConfigYAML    func() ([]byte, error) // Serves GET /config; nil disables the endpoint
}

// Server is a fluid.Sink that broadcasts throttled frames and feeds client
// commands into a queue drained by the driver.
type Server struct {
	opts     Options
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	lastFrame time.Time
	px        []color.RGBA
	buf       []byte
}

// New creates a server. Queue and Palette are required.
func New(opts Options) *Server {
	return &Server{
		opts: opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Handler returns the HTTP routes: /ws and /config.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	if s.opts.ConfigYAML != nil {
		mux.HandleFunc("/config", s.handleConfig)
	}
	return mux
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	data, err := s.opts.ConfigYAML()
	if err != nil {
		slog.Error("failed to marshal config", "error", err)
		http.Error(w, "config unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(data)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.opts.MaxClients > 0 && s.ClientCount() >= s.opts.MaxClients {
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// The check above is advisory; concurrent upgrades are settled here.
	if !s.register(conn) {
		slog.Warn("rejecting client over limit", "remote", r.RemoteAddr)
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many clients")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
		return
	}
	defer s.unregister(conn)
	slog.Info("client connected", "remote", r.RemoteAddr)

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read failed", "remote", r.RemoteAddr, "error", err)
			}
			break
		}
		cmd, ok := msg.Command()
		if !ok {
			slog.Warn("ignoring client message", "remote", r.RemoteAddr, "type", msg.Type)
			continue
		}
		s.opts.Queue.Push(cmd)
	}
	slog.Info("client disconnected", "remote", r.RemoteAddr)
}

// register adds conn unless the client limit is already reached.
func (s *Server) register(conn *websocket.Conn) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if s.opts.MaxClients > 0 && len(s.clients) >= s.opts.MaxClients {
		return false
	}
	s.clients[conn] = &sync.Mutex{}
	return true
}

func (s *Server) unregister(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
}

// Command translates the message into a control command.
func (m ClientMessage) Command() (control.Command, bool) {
	switch m.Type {
	case "force":
		return control.ForceCommand{Event: fluid.ForceEvent{
			Position: field.Vec2{X: m.X, Y: m.Y},
			Velocity: field.Vec2{X: m.VX, Y: m.VY},
			Active:   m.Active,
		}}, true
	case "reset":
		return control.ResetCommand{Preset: m.Preset}, true
	case "configure":
		if len(m.Solver) == 0 {
			return nil, false
		}
		return control.PatchSolverCommand{Data: []byte(m.Solver)}, true
	case "pause":
		return control.PauseCommand{}, true
	case "play":
		return control.PlayCommand{}, true
	}
	return nil, false
}

// Present encodes the density field and broadcasts it, at most once per
// frame interval and only while clients are connected.
func (s *Server) Present(f fluid.Frame) {
	if s.ClientCount() == 0 {
		return
	}
	now := time.Now()
	if !s.lastFrame.IsZero() && now.Sub(s.lastFrame) < s.opts.FrameInterval {
		return
	}
	s.lastFrame = now
	s.broadcast(s.encode(f))
}

func (s *Server) encode(f fluid.Frame) FrameMessage {
	d := f.Density
	if len(s.px) != d.Len() {
		s.px = make([]color.RGBA, d.Len())
	}
	s.opts.Palette.FillDensity(s.px, d)
	s.buf = colormap.Pack(s.buf, s.px)
	return FrameMessage{
		Type:    "frame",
		Tick:    f.Tick,
		Width:   d.W,
		Height:  d.H,
		Density: s.buf,
	}
}

func (s *Server) broadcast(msg FrameMessage) {
	// Marshal once; every client gets the same bytes.
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to encode frame", "error", err)
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for conn, mu := range s.clients {
		mu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := conn.WriteMessage(websocket.TextMessage, data)
		mu.Unlock()
		if err != nil {
			slog.Warn("websocket write failed", "remote", conn.RemoteAddr().String(), "error", err)
			// The reader goroutine sees the closed socket and unregisters it.
			conn.Close()
		}
	}
}

// Close disconnects every client.
func (s *Server) Close() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for conn, mu := range s.clients {
		mu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeTimeout))
		mu.Unlock()
		conn.Close()
	}
}
