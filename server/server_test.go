package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/stablefluid/colormap"
	"github.com/pthm-cable/stablefluid/control"
	"github.com/pthm-cable/stablefluid/field"
	"github.com/pthm-cable/stablefluid/fluid"
)

func newTestServer(t *testing.T, maxClients int) (*Server, *control.Queue, *httptest.Server) {
	t.Helper()
	pal, err := colormap.NewPalette("greys", 1)
	if err != nil {
		t.Fatal(err)
	}
	q := &control.Queue{}
	s := New(Options{
		Queue:      q,
		Palette:    pal,
		MaxClients: maxClients,
		ConfigYAML: func() ([]byte, error) { return []byte("solver:\n  grid_width: 4\n"), nil },
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, q, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClientMessagesBecomeCommands(t *testing.T) {
	s, q, ts := newTestServer(t, 0)
	conn := dial(t, ts)
	waitFor(t, "client registration", func() bool { return s.ClientCount() == 1 })

	msgs := []map[string]any{
		{"type": "force", "x": 2, "y": 3, "vx": 10, "vy": -5, "active": true},
		{"type": "bogus"},
		{"type": "reset", "preset": "vortex"},
		{"type": "configure", "solver": map[string]any{"vorticity": 0.5}},
		{"type": "pause"},
		{"type": "play"},
	}
	for _, m := range msgs {
		if err := conn.WriteJSON(m); err != nil {
			t.Fatal(err)
		}
	}

	var got []control.Command
	waitFor(t, "commands", func() bool {
		got = append(got, q.Drain()...)
		return len(got) >= 5
	})

	force, ok := got[0].(control.ForceCommand)
	if !ok {
		t.Fatalf("got[0] = %T, want ForceCommand", got[0])
	}
	want := fluid.ForceEvent{Position: field.Vec2{X: 2, Y: 3}, Velocity: field.Vec2{X: 10, Y: -5}, Active: true}
	if force.Event != want {
		t.Errorf("force event = %+v, want %+v", force.Event, want)
	}
	if r, ok := got[1].(control.ResetCommand); !ok || r.Preset != "vortex" {
		t.Errorf("got[1] = %#v, want reset vortex", got[1])
	}
	patch, ok := got[2].(control.PatchSolverCommand)
	if !ok || !strings.Contains(string(patch.Data), "vorticity") {
		t.Errorf("got[2] = %#v, want solver patch", got[2])
	}
	if _, ok := got[3].(control.PauseCommand); !ok {
		t.Errorf("got[3] = %T, want PauseCommand", got[3])
	}
	if _, ok := got[4].(control.PlayCommand); !ok {
		t.Errorf("got[4] = %T, want PlayCommand", got[4])
	}
}

func TestPresentBroadcastsFrame(t *testing.T) {
	s, _, ts := newTestServer(t, 0)
	conn := dial(t, ts)
	waitFor(t, "client registration", func() bool { return s.ClientCount() == 1 })

	d := field.NewScalar(4, 3)
	d.Fill(1)
	s.Present(fluid.Frame{Tick: 7, Density: d})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg FrameMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "frame" || msg.Tick != 7 || msg.Width != 4 || msg.Height != 3 {
		t.Fatalf("header = %+v", msg)
	}
	if len(msg.Density) != 4*3*4 {
		t.Fatalf("density bytes = %d, want %d", len(msg.Density), 4*3*4)
	}
	want := s.opts.Palette.Density(1)
	for i := 0; i < len(msg.Density); i += 4 {
		px := msg.Density[i : i+4]
		if px[0] != want.R || px[1] != want.G || px[2] != want.B || px[3] != 255 {
			t.Fatalf("pixel %d = %v, want %v", i/4, px, want)
		}
	}
}

func TestPresentThrottles(t *testing.T) {
	s, _, ts := newTestServer(t, 0)
	s.opts.FrameInterval = time.Hour
	conn := dial(t, ts)
	waitFor(t, "client registration", func() bool { return s.ClientCount() == 1 })

	d := field.NewScalar(3, 3)
	s.Present(fluid.Frame{Tick: 1, Density: d})
	s.Present(fluid.Frame{Tick: 2, Density: d})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg FrameMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Tick != 1 {
		t.Fatalf("first frame tick = %d, want 1", msg.Tick)
	}
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("second frame tick %d was not throttled", msg.Tick)
	}
}

func TestMaxClients(t *testing.T) {
	s, _, ts := newTestServer(t, 1)
	dial(t, ts)
	waitFor(t, "client registration", func() bool { return s.ClientCount() == 1 })

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("second client connected past the limit")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("response = %v, want 503", resp)
	}
}

func TestRegisterHonoursLimitConcurrently(t *testing.T) {
	const limit = 3
	s, _, _ := newTestServer(t, limit)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.register(&websocket.Conn{}) {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := accepted.Load(); got != limit {
		t.Errorf("accepted %d registrations, want %d", got, limit)
	}
	if got := s.ClientCount(); got != limit {
		t.Errorf("ClientCount = %d, want %d", got, limit)
	}
}

func TestConfigEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t, 0)
	resp, err := http.Get(ts.URL + "/config")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "grid_width: 4") {
		t.Fatalf("GET /config = %d %q", resp.StatusCode, body)
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	s, _, ts := newTestServer(t, 0)
	conn := dial(t, ts)
	waitFor(t, "client registration", func() bool { return s.ClientCount() == 1 })
	conn.Close()
	waitFor(t, "client removal", func() bool { return s.ClientCount() == 0 })
}
