package multiplayer

import (
	"sync"

	"github.com/vovakirdan/pong-arena/internal/auth"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/tournament"
)

// SessionHandle is the transport-neutral interface for talking to one
// connection. It lets the coordinator send messages without depending on
// the WebSocket layer.
type SessionHandle interface {
	// ID returns the unique session identifier.
	ID() SessionID

	// Identity returns the authenticated player behind the session.
	Identity() auth.Identity

	// Send queues a message for the session.
	// Must be non-blocking; implementations should use buffered channels.
	Send(msg protocol.ServerMessage)

	// Close ends the session with a WebSocket close code. Safe to call
	// multiple times.
	Close(code int, reason string)

	// Done returns a channel that closes when the session ends.
	Done() <-chan struct{}
}

// ChannelSession is a SessionHandle backed by a buffered channel. The
// WebSocket write pump drains it; tests read from it directly.
type ChannelSession struct {
	id       SessionID
	identity auth.Identity
	messages chan protocol.ServerMessage
	done     chan struct{}
	doneOnce sync.Once

	mu          sync.Mutex
	closeCode   int
	closeReason string
}

// NewChannelSession creates a new channel-based session handle.
// bufferSize controls how many messages can be queued before dropping.
func NewChannelSession(id SessionID, identity auth.Identity, bufferSize int) *ChannelSession {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &ChannelSession{
		id:       id,
		identity: identity,
		messages: make(chan protocol.ServerMessage, bufferSize),
		done:     make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *ChannelSession) ID() SessionID {
	return s.id
}

// Identity returns the authenticated player.
func (s *ChannelSession) Identity() auth.Identity {
	return s.identity
}

// Send queues a message. If the buffer is full the oldest message is
// dropped so a slow reader never stalls the simulation.
func (s *ChannelSession) Send(msg protocol.ServerMessage) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.messages <- msg:
	default:
		select {
		case <-s.messages:
		default:
		}
		select {
		case s.messages <- msg:
		default:
		}
	}
}

// Messages returns the outbound queue.
func (s *ChannelSession) Messages() <-chan protocol.ServerMessage {
	return s.messages
}

// Done returns the done channel.
func (s *ChannelSession) Done() <-chan struct{} {
	return s.done
}

// Close marks the session as done and records why.
// Safe to call multiple times; the first reason wins.
func (s *ChannelSession) Close(code int, reason string) {
	s.doneOnce.Do(func() {
		s.mu.Lock()
		s.closeCode, s.closeReason = code, reason
		s.mu.Unlock()
		close(s.done)
	})
}

// CloseStatus returns the code and reason passed to the first Close.
func (s *ChannelSession) CloseStatus() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCode, s.closeReason
}

// conn is the coordinator's view of one connection.
type conn struct {
	session      SessionHandle
	route        Route
	phase        ConnectionPhase
	lobbyID      string
	matchID      string
	tournamentID string
	name         string // display name used in the tournament queue
}

// Registry holds everything the coordinator owns. It is created at process
// start, injected into the coordinator and drained on shutdown. Only the
// coordinator goroutine touches it.
type Registry struct {
	conns       map[SessionID]*conn
	matches     map[string]*Match
	lobbies     map[string]*Lobby
	tournaments map[string]*Tournament
	queue       tournament.Queue
	names       map[string]string // display name -> tournament id, for running tournaments
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:       make(map[SessionID]*conn),
		matches:     make(map[string]*Match),
		lobbies:     make(map[string]*Lobby),
		tournaments: make(map[string]*Tournament),
		names:       make(map[string]string),
	}
}

// Stats is a point-in-time count of registry entries.
type Stats struct {
	Connections int `json:"connections"`
	Matches     int `json:"matches"`
	Lobbies     int `json:"lobbies"`
	Tournaments int `json:"tournaments"`
	Queued      int `json:"queued"`
}

func (r *Registry) stats() Stats {
	return Stats{
		Connections: len(r.conns),
		Matches:     len(r.matches),
		Lobbies:     len(r.lobbies),
		Tournaments: len(r.tournaments),
		Queued:      r.queue.Len(),
	}
}

func (r *Registry) session(id SessionID) (SessionHandle, bool) {
	c, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return c.session, true
}

// detach returns a connection to PhaseIdle.
func (r *Registry) detach(id SessionID) {
	if c, ok := r.conns[id]; ok {
		c.phase = PhaseIdle
		c.lobbyID, c.matchID, c.tournamentID = "", "", ""
	}
}
