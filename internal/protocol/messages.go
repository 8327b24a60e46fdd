// Package protocol defines the JSON messages exchanged between players and
// the server. Every message is an object carrying a "type" field; the rest
// of the object is the payload.
package protocol

import (
	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/powerup"
	"github.com/vovakirdan/pong-arena/internal/tournament"
)

// Message type tags.
const (
	TypePlayerReady      = "playerReady"
	TypeStartGameRequest = "startGameRequest"
	TypeStartGame        = "startGame"
	TypeMovePaddle       = "movePaddle"
	TypeUpdateSettings   = "updateSettings"
	TypeRematchRequest   = "rematchRequest"
	TypeJoinTournament   = "joinTournament"
	TypeLeaveTournament  = "leaveTournament"
	TypePing             = "ping"
	TypePong             = "pong"

	TypePlayerNumber        = "playerNumber"
	TypeGameState           = "gameState"
	TypeSync                = "sync"
	TypeWallBounce          = "wallBounce"
	TypePaddleHit           = "paddleHit"
	TypePowerUpSpawn        = "powerupSpawn"
	TypePowerUpCollected    = "powerupCollected"
	TypePowerUpDeactivated  = "powerupDeactivated"
	TypeLobbyState          = "lobbyState"
	TypeGameStarting        = "gameStarting"
	TypeGameOver            = "gameOver"
	TypeTournamentQueue     = "tournamentQueue"
	TypeTournamentGameStart = "TournamentGameStart"
	TypeTournamentResults   = "tournamentResults"
	TypeError               = "error"
)

// Message is anything that travels on the wire.
type Message interface {
	MessageType() string
}

// ClientMessage is a message sent by a player.
type ClientMessage interface {
	Message
	clientMessage()
}

// ServerMessage is a message sent by the server.
type ServerMessage interface {
	Message
	serverMessage()
}

// PlayerReady marks the sender ready in a lobby, ready check or before a
// rematch.
type PlayerReady struct {
	PlayerNumber game.PlayerNumber `json:"playerNumber"`
}

// StartGameRequest asks to leave the lobby or ready check and start play.
type StartGameRequest struct {
	GameID string `json:"gameId,omitempty"`
}

// StartGame serves the ball.
type StartGame struct {
	GameID string `json:"gameId,omitempty"`
}

// MovePaddle is one predicted paddle input.
type MovePaddle struct {
	PlayerNumber   game.PlayerNumber `json:"playerNumber"`
	PaddlePosition float64           `json:"paddlePosition"`
	InputSequence  uint64            `json:"inputSequence"`
}

// UpdateSettings replaces the match settings. Player 1 only.
type UpdateSettings struct {
	Settings game.Settings `json:"settings"`
}

// RematchRequest opts into a rematch after a game is over.
type RematchRequest struct{}

// JoinTournament enters the tournament queue. Name overrides the display
// name supplied at connect time.
type JoinTournament struct {
	Name string `json:"name,omitempty"`
}

// LeaveTournament leaves the tournament queue.
type LeaveTournament struct{}

// Ping is a liveness check. It travels both ways.
type Ping struct {
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Pong answers a Ping. It travels both ways.
type Pong struct {
	Timestamp int64 `json:"timestamp,omitempty"`
}

func (PlayerReady) MessageType() string      { return TypePlayerReady }
func (StartGameRequest) MessageType() string { return TypeStartGameRequest }
func (StartGame) MessageType() string        { return TypeStartGame }
func (MovePaddle) MessageType() string       { return TypeMovePaddle }
func (UpdateSettings) MessageType() string   { return TypeUpdateSettings }
func (RematchRequest) MessageType() string   { return TypeRematchRequest }
func (JoinTournament) MessageType() string   { return TypeJoinTournament }
func (LeaveTournament) MessageType() string  { return TypeLeaveTournament }

func (PlayerReady) clientMessage()      {}
func (StartGameRequest) clientMessage() {}
func (StartGame) clientMessage()        {}
func (MovePaddle) clientMessage()       {}
func (UpdateSettings) clientMessage()   {}
func (RematchRequest) clientMessage()   {}
func (JoinTournament) clientMessage()   {}
func (LeaveTournament) clientMessage()  {}
func (Ping) clientMessage()             {}
func (Pong) clientMessage()             {}

// PlayerNumberMsg tells a player which side they play.
type PlayerNumberMsg struct {
	PlayerNumber game.PlayerNumber `json:"playerNumber"`
	GameID       string            `json:"gameId,omitempty"`
}

// GameState is the authoritative snapshot broadcast at BroadcastRate.
type GameState struct {
	game.State
	Tick      uint64            `json:"tick"`
	Timestamp int64             `json:"timestamp"` // server time, unix milliseconds
	PowerUps  []powerup.PowerUp `json:"powerups,omitempty"`
}

// Sync corrects a player's paddle after a rejected or clamped move.
type Sync struct {
	PlayerNumber       game.PlayerNumber `json:"playerNumber"`
	PaddlePosition     float64           `json:"paddlePosition"`
	LastProcessedInput uint64            `json:"lastProcessedInput"`
}

// WallBounce reports a bounce off the top or bottom wall.
type WallBounce struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PaddleHit reports a paddle return.
type PaddleHit struct {
	PlayerNumber game.PlayerNumber `json:"playerNumber"`
	X            float64           `json:"x"`
	Y            float64           `json:"y"`
}

// PowerUpSpawn announces a new pickup on the field.
type PowerUpSpawn struct {
	PowerUp powerup.PowerUp `json:"powerup"`
}

// PowerUpCollected announces a pickup collected by a player.
type PowerUpCollected struct {
	PowerUp      powerup.PowerUp   `json:"powerup"`
	PlayerNumber game.PlayerNumber `json:"playerNumber"`
}

// PowerUpDeactivated announces an expired or cleared power-up.
type PowerUpDeactivated struct {
	ID   uint64       `json:"id"`
	Kind powerup.Type `json:"powerupType"`
}

// LobbyPlayer is one seat in a lobby.
type LobbyPlayer struct {
	PlayerNumber game.PlayerNumber `json:"playerNumber"`
	Name         string            `json:"name"`
	Ready        bool              `json:"ready"`
}

// LobbyState is broadcast whenever a lobby changes.
type LobbyState struct {
	LobbyID  string        `json:"lobbyId"`
	Settings game.Settings `json:"settings"`
	Players  []LobbyPlayer `json:"players"`
}

// GameStarting is sent when a lobby hands its players over to a match.
type GameStarting struct {
	GameID   string        `json:"gameId"`
	Settings game.Settings `json:"settings"`
}

// Reasons a game ends.
const (
	ReasonScoreLimit      = "scoreLimit"
	ReasonForfeit         = "forfeit"
	ReasonTournamentEnded = "tournamentEnded"
)

// GameOver ends a match.
type GameOver struct {
	Reason     string            `json:"reason"`
	Winner     game.PlayerNumber `json:"winner"`
	WinnerName string            `json:"winnerName,omitempty"`
	FinalScore game.Score        `json:"finalScore"`
}

// TournamentQueue reports the tournament queue to waiting players.
type TournamentQueue struct {
	Players []string `json:"players"`
	Needed  int      `json:"needed"`
}

// TournamentGameStart seats a player in a bracket match.
type TournamentGameStart struct {
	TournamentID string            `json:"tournamentId"`
	MatchID      string            `json:"matchId"`
	Round        tournament.Round  `json:"round"`
	PlayerNumber game.PlayerNumber `json:"playerNumber"`
	Opponent     string            `json:"opponent"`
}

// TournamentResults carries the final standings.
type TournamentResults struct {
	TournamentID string                  `json:"tournamentId"`
	Placements   []tournament.Placement  `json:"placements"`
	Bracket      []tournament.Descriptor `json:"bracket"`
}

// Error reports a rejected request. The connection stays open.
type Error struct {
	Message string `json:"message"`
}

func (Ping) MessageType() string                { return TypePing }
func (Pong) MessageType() string                { return TypePong }
func (PlayerNumberMsg) MessageType() string     { return TypePlayerNumber }
func (GameState) MessageType() string           { return TypeGameState }
func (Sync) MessageType() string                { return TypeSync }
func (WallBounce) MessageType() string          { return TypeWallBounce }
func (PaddleHit) MessageType() string           { return TypePaddleHit }
func (PowerUpSpawn) MessageType() string        { return TypePowerUpSpawn }
func (PowerUpCollected) MessageType() string    { return TypePowerUpCollected }
func (PowerUpDeactivated) MessageType() string  { return TypePowerUpDeactivated }
func (LobbyState) MessageType() string          { return TypeLobbyState }
func (GameStarting) MessageType() string        { return TypeGameStarting }
func (GameOver) MessageType() string            { return TypeGameOver }
func (TournamentQueue) MessageType() string     { return TypeTournamentQueue }
func (TournamentGameStart) MessageType() string { return TypeTournamentGameStart }
func (TournamentResults) MessageType() string   { return TypeTournamentResults }
func (Error) MessageType() string               { return TypeError }

func (Ping) serverMessage()                {}
func (Pong) serverMessage()                {}
func (PlayerNumberMsg) serverMessage()     {}
func (GameState) serverMessage()           {}
func (Sync) serverMessage()                {}
func (WallBounce) serverMessage()          {}
func (PaddleHit) serverMessage()           {}
func (PowerUpSpawn) serverMessage()        {}
func (PowerUpCollected) serverMessage()    {}
func (PowerUpDeactivated) serverMessage()  {}
func (LobbyState) serverMessage()          {}
func (GameStarting) serverMessage()        {}
func (GameOver) serverMessage()            {}
func (TournamentQueue) serverMessage()     {}
func (TournamentGameStart) serverMessage() {}
func (TournamentResults) serverMessage()   {}
func (Error) serverMessage()               {}
