// Package multiplayer runs matches, lobbies and tournaments for connected
// players.
//
// A single Coordinator goroutine owns every match, lobby and tournament. It
// receives connection events and decoded client messages over a channel,
// advances all matches on a shared ticker and writes to sessions through the
// non-blocking SessionHandle interface. Nothing in this package is touched by
// more than one goroutine, so none of it is locked.
package multiplayer

import (
	"errors"
	"time"

	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/powerup"
)

// SessionID uniquely identifies one connection.
type SessionID string

// Route is the endpoint a connection was opened on.
type Route int

const (
	RouteGame Route = iota
	RouteLobby
	RouteTournament
)

// String returns a human-readable name for the route.
func (r Route) String() string {
	switch r {
	case RouteGame:
		return "game"
	case RouteLobby:
		return "lobby"
	case RouteTournament:
		return "tournament"
	default:
		return "unknown"
	}
}

// ConnectionPhase is what a connection is currently attached to. Client
// messages are dispatched on it in one place.
type ConnectionPhase int

const (
	PhaseIdle              ConnectionPhase = iota // connected, not attached
	PhaseLobby                                    // seated in a lobby
	PhaseMatch                                    // seated in a free match
	PhaseTournamentQueue                          // waiting for a tournament to form
	PhaseTournamentWaiting                        // in a tournament, between matches
	PhaseTournamentMatch                          // seated in a bracket match
)

// String returns a human-readable name for the phase.
func (p ConnectionPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLobby:
		return "lobby"
	case PhaseMatch:
		return "match"
	case PhaseTournamentQueue:
		return "tournament-queue"
	case PhaseTournamentWaiting:
		return "tournament-waiting"
	case PhaseTournamentMatch:
		return "tournament-match"
	default:
		return "unknown"
	}
}

// WebSocket close codes used when the coordinator drops a connection.
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	ClosePolicyViolation = 1008
)

// Protocol violations reported back to the sender as error messages.
var (
	ErrMatchFull        = errors.New("match is full")
	ErrWrongPlayer      = errors.New("player number does not match the sender")
	ErrNotPlayerOne     = errors.New("only player 1 may do this")
	ErrNotServing       = errors.New("only the serving player may start the rally")
	ErrWrongPhase       = errors.New("not allowed at this stage of the game")
	ErrNotReady         = errors.New("both players must be ready")
	ErrNotAttached      = errors.New("not in a game")
	ErrUnsupported      = errors.New("message not supported here")
	ErrRematchDisabled  = errors.New("rematch is not available in tournament matches")
	ErrTournamentLocked = errors.New("already taking part in a tournament")
	ErrIDInUse          = errors.New("id belongs to another game or lobby")
	ErrTournamentMatch  = errors.New("tournament matches cannot be joined directly")
)

// Config tunes the coordinator.
type Config struct {
	TickRate      int           // simulation ticks per second
	BroadcastRate int           // gameState broadcasts per second per match
	CleanupGrace  time.Duration // delay before a forfeited match is destroyed
	LobbyTimeout  time.Duration // a lobby nobody joined expires after this; 0 disables
	Settings      game.Settings // settings of newly created matches and lobbies
	PowerUps      powerup.Config
	Seed          int64 // 0 seeds from the clock
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickRate:      60,
		BroadcastRate: 30,
		CleanupGrace:  10 * time.Second,
		LobbyTimeout:  5 * time.Minute,
		Settings:      game.DefaultSettings(),
		PowerUps:      powerup.DefaultConfig(),
	}
}

// broadcastEvery returns how many ticks separate two gameState broadcasts.
func (c Config) broadcastEvery() uint64 {
	if c.BroadcastRate <= 0 || c.BroadcastRate >= c.TickRate {
		return 1
	}
	return uint64(c.TickRate / c.BroadcastRate) //nolint:gosec // both rates are positive here
}

// tickDuration is the wall-clock length of one simulation tick.
func (c Config) tickDuration() time.Duration {
	return time.Second / time.Duration(max(1, c.TickRate))
}
