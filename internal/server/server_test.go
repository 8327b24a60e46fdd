package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/pong-arena/internal/auth"
	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/multiplayer"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

type testServer struct {
	*httptest.Server
	stop func()
}

func startServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	mcfg := multiplayer.DefaultConfig()
	mcfg.Seed = 1
	mcfg.Settings.PowerUpsEnabled = false
	logger := log.New(io.Discard)
	coord := multiplayer.NewCoordinator(mcfg, nil, logger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		coord.Run(ctx)
		close(done)
	}()

	ts := httptest.NewServer(New(cfg, coord, auth.DevAuthenticator{}, logger).Handler())
	var stopped bool
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		<-done
	}
	t.Cleanup(func() {
		stop()
		ts.Close()
	})
	return &testServer{Server: ts, stop: stop}
}

func dial(t *testing.T, ts *testServer, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) failed: %v", path, err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sendMsg(t *testing.T, ws *websocket.Conn, msg protocol.Message) {
	t.Helper()
	data, err := protocol.Encode(msg)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("WriteMessage() failed: %v", err)
	}
}

// readUntil skips messages until one of type T arrives.
func readUntil[T protocol.ServerMessage](t *testing.T, ws *websocket.Conn) T {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			var zero T
			t.Fatalf("waiting for %s: %v", zero.MessageType(), err)
		}
		msg, err := protocol.DecodeServer(data)
		if err != nil {
			t.Fatalf("DecodeServer(%s) failed: %v", data, err)
		}
		if m, ok := msg.(T); ok {
			return m
		}
	}
}

// expectClose reads until the server closes the socket with code.
func expectClose(t *testing.T, ws *websocket.Conn, code int) {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, _, err := ws.ReadMessage()
		if err == nil {
			continue
		}
		if !websocket.IsCloseError(err, code) {
			t.Fatalf("expected close %d, got %v", code, err)
		}
		return
	}
}

func TestUnauthenticatedUpgradeIsRejected(t *testing.T) {
	ts := startServer(t, Config{})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/game/g1"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Dial() without identity should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %+v", resp)
	}
}

func TestGameConnectionGetsPlayerNumber(t *testing.T) {
	ts := startServer(t, Config{})

	alice := dial(t, ts, "/ws/game/g1?player=alice")
	if pn := readUntil[protocol.PlayerNumberMsg](t, alice); pn.PlayerNumber != game.Player1 || pn.GameID != "g1" {
		t.Errorf("alice got %+v", pn)
	}
	bob := dial(t, ts, "/ws/game/g1?player=bob")
	if pn := readUntil[protocol.PlayerNumberMsg](t, bob); pn.PlayerNumber != game.Player2 {
		t.Errorf("bob got %+v", pn)
	}
}

func TestMalformedFrameIsReported(t *testing.T) {
	ts := startServer(t, Config{})
	ws := dial(t, ts, "/ws/game/g1?player=alice")
	readUntil[protocol.PlayerNumberMsg](t, ws)

	if err := ws.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage() failed: %v", err)
	}
	if e := readUntil[protocol.Error](t, ws); e.Message == "" {
		t.Error("Expected an error message")
	}

	// The connection stays usable.
	sendMsg(t, ws, protocol.Ping{Timestamp: 42})
	if p := readUntil[protocol.Pong](t, ws); p.Timestamp != 42 {
		t.Errorf("Pong timestamp = %d, want 42", p.Timestamp)
	}
}

func TestFullMatchClosesWithPolicyViolation(t *testing.T) {
	ts := startServer(t, Config{})
	readUntil[protocol.PlayerNumberMsg](t, dial(t, ts, "/ws/game/g1?player=alice"))
	readUntil[protocol.PlayerNumberMsg](t, dial(t, ts, "/ws/game/g1?player=bob"))

	carol := dial(t, ts, "/ws/game/g1?player=carol")
	if e := readUntil[protocol.Error](t, carol); e.Message != multiplayer.ErrMatchFull.Error() {
		t.Errorf("Error = %q, want %q", e.Message, multiplayer.ErrMatchFull)
	}
	expectClose(t, carol, websocket.ClosePolicyViolation)
}

func TestSilentClientTimesOut(t *testing.T) {
	ts := startServer(t, Config{PingInterval: 20 * time.Millisecond, PongTimeout: 100 * time.Millisecond})
	ws := dial(t, ts, "/ws/game/g1?player=alice")

	// The client never answers pings, so the server gives up on it.
	expectClose(t, ws, websocket.CloseNormalClosure)
}

func TestAnsweringPingsKeepsConnectionAlive(t *testing.T) {
	ts := startServer(t, Config{PingInterval: 20 * time.Millisecond, PongTimeout: 150 * time.Millisecond})
	ws := dial(t, ts, "/ws/game/g1?player=alice")

	deadline := time.Now().Add(400 * time.Millisecond)
	for time.Now().Before(deadline) {
		p := readUntil[protocol.Ping](t, ws)
		sendMsg(t, ws, protocol.Pong{Timestamp: p.Timestamp})
	}
}

func TestShutdownClosesWithGoingAway(t *testing.T) {
	ts := startServer(t, Config{})
	ws := dial(t, ts, "/ws/game/g1?player=alice")
	readUntil[protocol.PlayerNumberMsg](t, ws)

	ts.stop()
	expectClose(t, ws, websocket.CloseGoingAway)
}

func TestHealthzReportsStats(t *testing.T) {
	ts := startServer(t, Config{})
	ws := dial(t, ts, "/ws/tournament?player=alice")
	if q := readUntil[protocol.TournamentQueue](t, ws); q.Needed != 4 {
		t.Errorf("Needed = %d, want 4", q.Needed)
	}

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var stats multiplayer.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Connections != 1 {
		t.Errorf("Connections = %d, want 1", stats.Connections)
	}
}
