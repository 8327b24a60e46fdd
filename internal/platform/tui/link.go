package tui

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/pong-arena/internal/protocol"
)

const writeWait = 5 * time.Second

// Conn is the model's view of the server connection.
type Conn interface {
	Send(msg protocol.ClientMessage) error
	Receive() tea.Cmd
	Close() error
}

// ServerMsg wraps one message received from the server.
type ServerMsg struct {
	Msg protocol.ServerMessage
}

// DisconnectedMsg reports that the connection is gone.
type DisconnectedMsg struct {
	Err error
}

// Routes a client can open.
const (
	RouteGame       = "game"
	RouteLobby      = "lobby"
	RouteTournament = "tournament"
)

// Target says where to connect and as whom.
type Target struct {
	Server string // base URL, e.g. ws://localhost:8080
	Route  string
	ID     string // game or lobby id

	Token string // sent as a bearer token when set
	// Player and Name identify the player to a server in dev auth mode.
	Player string
	Name   string
}

// URL builds the WebSocket URL for the target.
func (t Target) URL() (string, error) {
	base, err := url.Parse(t.Server)
	if err != nil {
		return "", fmt.Errorf("tui: server url: %w", err)
	}
	switch base.Scheme {
	case "ws", "wss":
	case "http":
		base.Scheme = "ws"
	case "https":
		base.Scheme = "wss"
	default:
		return "", fmt.Errorf("tui: server url %q: want ws:// or wss://", t.Server)
	}

	switch t.Route {
	case RouteGame, RouteLobby:
		if t.ID == "" {
			return "", fmt.Errorf("tui: %s route needs an id", t.Route)
		}
		base.Path = strings.TrimSuffix(base.Path, "/") + "/ws/" + t.Route + "/" + url.PathEscape(t.ID)
	case RouteTournament:
		base.Path = strings.TrimSuffix(base.Path, "/") + "/ws/tournament"
	default:
		return "", fmt.Errorf("tui: unknown route %q", t.Route)
	}

	q := base.Query()
	if t.Player != "" {
		q.Set("player", t.Player)
	}
	if t.Name != "" {
		q.Set("name", t.Name)
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// Link is a WebSocket connection to the arena server.
type Link struct {
	ws *websocket.Conn
	in chan protocol.ServerMessage

	err     error // set before in is closed
	writeMu sync.Mutex
}

// Dial connects to the target.
func Dial(ctx context.Context, t Target) (*Link, error) {
	u, err := t.URL()
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if t.Token != "" {
		header.Set("Authorization", "Bearer "+t.Token)
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("tui: dial %s: %s", u, resp.Status)
		}
		return nil, fmt.Errorf("tui: dial %s: %w", u, err)
	}

	l := &Link{ws: ws, in: make(chan protocol.ServerMessage, 64)}
	go l.readLoop()
	return l, nil
}

func (l *Link) readLoop() {
	defer close(l.in)
	for {
		_, data, err := l.ws.ReadMessage()
		if err != nil {
			l.err = err
			return
		}
		msg, err := protocol.DecodeServer(data)
		if err != nil {
			continue
		}
		l.in <- msg
	}
}

// Receive returns a command that waits for the next server message.
func (l *Link) Receive() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-l.in
		if !ok {
			return DisconnectedMsg{Err: l.err}
		}
		return ServerMsg{Msg: msg}
	}
}

// Send writes one message.
func (l *Link) Send(msg protocol.ClientMessage) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if err := l.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return l.ws.WriteMessage(websocket.TextMessage, data)
}

// Close sends a normal close frame and closes the socket.
func (l *Link) Close() error {
	l.writeMu.Lock()
	frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = l.ws.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait))
	l.writeMu.Unlock()
	return l.ws.Close()
}
