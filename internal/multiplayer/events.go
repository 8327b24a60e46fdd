package multiplayer

import (
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// CoordinatorMessage represents a message into the coordinator loop.
type CoordinatorMessage interface {
	coordinatorMessage()
}

// ConnectMsg attaches a new connection to a game, lobby or the tournament
// endpoint.
type ConnectMsg struct {
	Session SessionHandle
	Route   Route
	ID      string // game or lobby id; empty for RouteTournament
}

func (ConnectMsg) coordinatorMessage() {}

// ClientMsg carries one decoded client message.
type ClientMsg struct {
	SessionID SessionID
	Msg       protocol.ClientMessage
}

func (ClientMsg) coordinatorMessage() {}

// DisconnectMsg is sent once when a connection closes or misses its
// liveness deadline.
type DisconnectMsg struct {
	SessionID SessionID
}

func (DisconnectMsg) coordinatorMessage() {}

// cleanupMatchMsg is posted by a match's deferred cleanup timer.
type cleanupMatchMsg struct {
	match *Match
}

func (cleanupMatchMsg) coordinatorMessage() {}

// statsMsg asks the loop for a registry snapshot.
type statsMsg struct {
	reply chan Stats
}

func (statsMsg) coordinatorMessage() {}
