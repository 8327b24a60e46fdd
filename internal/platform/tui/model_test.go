package tui

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pong-arena/internal/auth"
	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/multiplayer"
	"github.com/vovakirdan/pong-arena/internal/netsync"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/server"
)

type fakeConn struct {
	mu     sync.Mutex
	sent   []protocol.ClientMessage
	closed bool
}

func (c *fakeConn) Send(msg protocol.ClientMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Receive() tea.Cmd {
	return func() tea.Msg { return nil }
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) last() protocol.ClientMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return nil
	}
	return c.sent[len(c.sent)-1]
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// exec runs a command that is expected to send at most one message.
func exec(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		if f, ok := msg.(sendFailedMsg); ok {
			t.Fatalf("send failed: %v", f.err)
		}
	}
}

func seatedModel(t *testing.T, p game.PlayerNumber) (Model, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	m := NewModel(conn, Options{Route: RouteGame, FrameRate: 60}, 82, 40)
	exec(t, m.handleServer(protocol.PlayerNumberMsg{PlayerNumber: p, GameID: "g1"}, time.Now()))
	if m.client == nil || m.player != p {
		t.Fatalf("PlayerNumberMsg did not seat the model")
	}
	return m, conn
}

func TestModelMovesPaddleWhileKeyHeld(t *testing.T) {
	m, conn := seatedModel(t, game.Player1)
	now := time.Now()

	next, _ := m.handleKey(runes("s"), now)
	m = next.(Model)
	exec(t, m.handleFrame(now.Add(10*time.Millisecond)))

	mv, ok := conn.last().(protocol.MovePaddle)
	if !ok {
		t.Fatalf("expected MovePaddle, got %#v", conn.last())
	}
	start := game.NewState(game.DefaultSettings()).Paddle1
	want := start.Y + start.Speed/60
	if mv.PlayerNumber != game.Player1 || mv.InputSequence != 1 || mv.PaddlePosition != want {
		t.Errorf("MovePaddle = %+v, want position %v", mv, want)
	}

	// Once the hold window passes the paddle stops.
	before := len(conn.sent)
	exec(t, m.handleFrame(now.Add(holdWindow+time.Millisecond)))
	if len(conn.sent) != before {
		t.Error("released key should not move the paddle")
	}
}

func TestModelSendsMatchCommands(t *testing.T) {
	m, conn := seatedModel(t, game.Player2)

	tests := []struct {
		key  string
		want protocol.ClientMessage
	}{
		{"r", protocol.PlayerReady{PlayerNumber: game.Player2}},
		{" ", protocol.StartGame{GameID: "g1"}},
		{"m", protocol.RematchRequest{}},
	}
	for _, tt := range tests {
		_, cmd := m.handleKey(runes(tt.key), time.Now())
		exec(t, cmd)
		if got := conn.last(); got != tt.want {
			t.Errorf("key %q sent %#v, want %#v", tt.key, got, tt.want)
		}
	}
}

func TestModelAnswersPing(t *testing.T) {
	m, conn := seatedModel(t, game.Player1)
	exec(t, m.handleServer(protocol.Ping{Timestamp: 7}, time.Now()))
	if got := conn.last(); got != (protocol.Pong{Timestamp: 7}) {
		t.Errorf("sent %#v, want pong 7", got)
	}
}

func TestModelJoinsTournamentOnInit(t *testing.T) {
	conn := &fakeConn{}
	m := NewModel(conn, Options{Route: RouteTournament, TournamentName: "ann"}, 80, 24)

	batch, ok := m.Init()().(tea.BatchMsg)
	if !ok {
		t.Fatal("Init() should batch its commands")
	}
	for _, cmd := range batch {
		if cmd != nil {
			cmd()
		}
	}
	if got := conn.last(); got != (protocol.JoinTournament{Name: "ann"}) {
		t.Errorf("sent %#v, want joinTournament", got)
	}
}

func TestModelShowsGameOver(t *testing.T) {
	m, _ := seatedModel(t, game.Player1)
	exec(t, m.handleServer(protocol.GameOver{Reason: protocol.ReasonForfeit, Winner: game.Player1}, time.Now()))

	if !strings.Contains(m.View(), "YOU WIN (opponent left)") {
		t.Error("View() should announce the forfeit win")
	}
	if !strings.Contains(m.View(), "rematch") {
		t.Error("View() should offer a rematch outside tournaments")
	}
}

func TestModelQuitClosesConnection(t *testing.T) {
	m, conn := seatedModel(t, game.Player1)
	next, cmd := m.handleKey(runes("q"), time.Now())
	if cmd == nil || !next.(Model).quitting {
		t.Error("q should quit")
	}
	if !conn.closed {
		t.Error("q should close the connection")
	}
}

func TestOverText(t *testing.T) {
	tests := []struct {
		g    protocol.GameOver
		me   game.PlayerNumber
		want string
	}{
		{protocol.GameOver{Reason: protocol.ReasonScoreLimit, Winner: game.Player1}, game.Player1, "YOU WIN"},
		{protocol.GameOver{Reason: protocol.ReasonScoreLimit, Winner: game.Player1}, game.Player2, "YOU LOSE"},
		{protocol.GameOver{Reason: protocol.ReasonTournamentEnded}, game.Player2, "the tournament was cancelled"},
	}
	for _, tt := range tests {
		if got := overText(tt.g, tt.me); got != tt.want {
			t.Errorf("overText(%+v, %d) = %q, want %q", tt.g, tt.me, got, tt.want)
		}
	}
}

func TestViewportMapsTableToCells(t *testing.T) {
	table := game.DefaultTable()
	vp := newViewport(82, 62, table) // 80x60 cells inside the border

	tests := []struct {
		x, y   float64
		cx, cy int
	}{
		{0, 0, 1, 1},
		{table.Width / 2, table.Height / 2, 41, 31},
		{table.Width, table.Height, 80, 60},
		{-50, 900, 1, 60},
	}
	for _, tt := range tests {
		cx, cy := vp.cell(tt.x, tt.y)
		if cx != tt.cx || cy != tt.cy {
			t.Errorf("cell(%v, %v) = (%d, %d), want (%d, %d)", tt.x, tt.y, cx, cy, tt.cx, tt.cy)
		}
	}
	if rows := vp.rows(table.Height / 6); rows != 10 {
		t.Errorf("rows() = %d, want 10", rows)
	}
	if rows := vp.rows(0.1); rows != 1 {
		t.Errorf("rows() = %d, want at least 1", rows)
	}
}

func TestDrawFieldColorsPaddles(t *testing.T) {
	c, err := netsync.NewClient(game.Player1, game.DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	s := core.NewScreen(82, 32)
	table := game.DefaultTable()
	drawField(s, c.View(time.Now()), table)

	vp := newViewport(s.Width(), s.Height(), table)
	v := c.View(time.Now())
	ox, oy := vp.cell(v.Own.X, v.Own.Y)
	if cell := s.GetCell(ox, oy); cell.Rune != '█' || cell.Color != core.ColorBrightCyan {
		t.Errorf("own paddle cell = %+v", cell)
	}
	px, py := vp.cell(v.Opponent.X, v.Opponent.Y)
	if cell := s.GetCell(px, py); cell.Color != core.ColorBrightMagenta {
		t.Errorf("opponent paddle cell = %+v", cell)
	}
	bx, by := vp.cell(v.Ball.X, v.Ball.Y)
	if cell := s.GetCell(bx, by); cell.Rune != '●' || cell.Color != core.ColorBrightYellow {
		t.Errorf("ball cell = %+v", cell)
	}
	if cell := s.GetCell(0, 0); cell.Rune != '┌' || cell.Color != core.ColorGray {
		t.Errorf("field corner = %+v, want gray box", cell)
	}
}

func TestEveryPaletteColourHasStyle(t *testing.T) {
	for c := core.ColorDefault; c <= core.ColorBrightRed; c++ {
		if _, ok := colorStyles[c]; !ok {
			t.Errorf("colour %d has no style", c)
		}
	}
	if len(colorStyles) != int(core.ColorBrightRed)+1 {
		t.Errorf("colorStyles has %d entries, palette has %d", len(colorStyles), core.ColorBrightRed+1)
	}
}

func TestRenderScreenKeepsText(t *testing.T) {
	s := core.NewScreen(6, 2)
	s.DrawTextColored(0, 0, "ab", core.ColorRed)
	s.DrawText(2, 0, "cd")
	out := RenderScreen(s)
	if !strings.Contains(out, "ab") || !strings.Contains(out, "cd") {
		t.Errorf("RenderScreen() lost text: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("RenderScreen() should emit one line per row: %q", out)
	}
}

func TestTargetURL(t *testing.T) {
	tests := []struct {
		name    string
		target  Target
		want    string
		wantErr bool
	}{
		{"game", Target{Server: "ws://localhost:8080", Route: RouteGame, ID: "g1", Player: "ann"},
			"ws://localhost:8080/ws/game/g1?player=ann", false},
		{"http upgrades to ws", Target{Server: "http://host", Route: RouteTournament},
			"ws://host/ws/tournament", false},
		{"https upgrades to wss", Target{Server: "https://host/", Route: RouteLobby, ID: "l 1"},
			"wss://host/ws/lobby/l%201", false},
		{"missing id", Target{Server: "ws://host", Route: RouteGame}, "", true},
		{"bad scheme", Target{Server: "ftp://host", Route: RouteGame, ID: "x"}, "", true},
		{"bad route", Target{Server: "ws://host", Route: "arena"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.target.URL()
			if (err != nil) != tt.wantErr {
				t.Fatalf("URL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLinkTalksToServer(t *testing.T) {
	logger := log.New(io.Discard)
	cfg := multiplayer.DefaultConfig()
	cfg.Seed = 1
	coord := multiplayer.NewCoordinator(cfg, nil, logger, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		coord.Run(ctx)
		close(done)
	}()
	ts := httptest.NewServer(server.New(server.Config{}, coord, auth.DevAuthenticator{}, logger).Handler())
	defer func() {
		cancel()
		<-done
		ts.Close()
	}()

	link, err := Dial(context.Background(), Target{Server: ts.URL, Route: RouteGame, ID: "g1", Player: "ann"})
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer link.Close()

	receive := func() protocol.ServerMessage {
		t.Helper()
		got := make(chan tea.Msg, 1)
		go func() { got <- link.Receive()() }()
		select {
		case msg := <-got:
			sm, ok := msg.(ServerMsg)
			if !ok {
				t.Fatalf("Receive() = %#v", msg)
			}
			return sm.Msg
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for the server")
			return nil
		}
	}

	if pn, ok := receive().(protocol.PlayerNumberMsg); !ok || pn.PlayerNumber != game.Player1 {
		t.Fatalf("expected playerNumber 1, got %#v", pn)
	}
	if err := link.Send(protocol.Ping{Timestamp: 3}); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	for {
		if p, ok := receive().(protocol.Pong); ok {
			if p.Timestamp != 3 {
				t.Errorf("Pong timestamp = %d, want 3", p.Timestamp)
			}
			break
		}
	}
}
