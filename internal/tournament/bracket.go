// Package tournament implements the four-player single-elimination bracket:
// two semifinals, then a final between the winners and a third-place match
// between the losers.
//
// The package is pure bookkeeping. Running the matches and talking to the
// players is the caller's job.
package tournament

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/vovakirdan/pong-arena/internal/game"
)

// Size is the number of players in a tournament.
const Size = 4

// Errors returned by the bracket.
var (
	ErrPlayerCount    = errors.New("tournament: exactly 4 players required")
	ErrDuplicateName  = errors.New("tournament: display names must be unique")
	ErrUnknownMatch   = errors.New("tournament: unknown match")
	ErrNotParticipant = errors.New("tournament: winner did not play in this match")
	ErrConflict       = errors.New("tournament: match already has a different winner")
)

// Round names a bracket stage. The values are part of the wire protocol.
type Round string

const (
	Semifinal Round = "semifinal"
	Final     Round = "final"
	Third     Round = "third"
)

// Player is a tournament participant.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Descriptor describes one bracket match. Players[0] plays as player 1.
type Descriptor struct {
	MatchID string    `json:"matchId"`
	Round   Round     `json:"round"`
	Players [2]Player `json:"players"`
	Winner  string    `json:"winner,omitempty"`
	Loser   string    `json:"loser,omitempty"`
}

// Decided reports whether the match has a winner.
func (d Descriptor) Decided() bool {
	return d.Winner != ""
}

// PlayerNumber returns the seat of the given player in this match.
func (d Descriptor) PlayerNumber(id string) game.PlayerNumber {
	switch id {
	case d.Players[0].ID:
		return game.Player1
	case d.Players[1].ID:
		return game.Player2
	default:
		return game.NoPlayer
	}
}

// Seat returns the player sitting at seat p.
func (d Descriptor) Seat(p game.PlayerNumber) Player {
	if p == game.Player2 {
		return d.Players[1]
	}
	return d.Players[0]
}

// Placement is a final standing.
type Placement struct {
	Place  int    `json:"place"`
	Player Player `json:"player"`
}

// Bracket is the append-only match list of one tournament.
type Bracket struct {
	ID      string
	Players []Player
	matches []Descriptor
}

// NewBracket shuffles the players into two semifinals.
func NewBracket(id string, players []Player, rng *rand.Rand) (*Bracket, error) {
	if len(players) != Size {
		return nil, fmt.Errorf("%w: got %d", ErrPlayerCount, len(players))
	}
	seen := make(map[string]bool, Size)
	for _, p := range players {
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, p.Name)
		}
		seen[p.Name] = true
	}

	seeded := append([]Player(nil), players...)
	rng.Shuffle(len(seeded), func(i, j int) {
		seeded[i], seeded[j] = seeded[j], seeded[i]
	})

	return &Bracket{
		ID:      id,
		Players: seeded,
		matches: []Descriptor{
			{MatchID: id + "-semi1", Round: Semifinal, Players: [2]Player{seeded[0], seeded[1]}},
			{MatchID: id + "-semi2", Round: Semifinal, Players: [2]Player{seeded[2], seeded[3]}},
		},
	}, nil
}

// Matches returns a copy of every descriptor in creation order.
func (b *Bracket) Matches() []Descriptor {
	return append([]Descriptor(nil), b.matches...)
}

// Match returns the descriptor with the given id.
func (b *Bracket) Match(matchID string) (Descriptor, bool) {
	if i := b.index(matchID); i >= 0 {
		return b.matches[i], true
	}
	return Descriptor{}, false
}

// MatchOf returns the undecided match the player is seated in.
func (b *Bracket) MatchOf(playerID string) (Descriptor, bool) {
	for _, d := range b.matches {
		if !d.Decided() && d.PlayerNumber(playerID) != game.NoPlayer {
			return d, true
		}
	}
	return Descriptor{}, false
}

func (b *Bracket) index(matchID string) int {
	for i := range b.matches {
		if b.matches[i].MatchID == matchID {
			return i
		}
	}
	return -1
}

// Record stores the winner of a match. Recording the same winner twice is a
// no-op. When the second semifinal is decided the final and third-place
// descriptors are appended and returned; this happens exactly once.
func (b *Bracket) Record(matchID, winnerID string) ([]Descriptor, error) {
	i := b.index(matchID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMatch, matchID)
	}
	d := &b.matches[i]
	seat := d.PlayerNumber(winnerID)
	if seat == game.NoPlayer {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotParticipant, winnerID, matchID)
	}
	if d.Decided() {
		if d.Winner != winnerID {
			return nil, fmt.Errorf("%w: %s", ErrConflict, matchID)
		}
		return nil, nil
	}

	d.Winner = winnerID
	d.Loser = d.Seat(seat.Opponent()).ID

	if d.Round != Semifinal || len(b.matches) > 2 {
		return nil, nil
	}
	s1, s2 := b.matches[0], b.matches[1]
	if !s1.Decided() || !s2.Decided() {
		return nil, nil
	}

	created := []Descriptor{
		{
			MatchID: b.ID + "-final",
			Round:   Final,
			Players: [2]Player{b.player(s1.Winner), b.player(s2.Winner)},
		},
		{
			MatchID: b.ID + "-third",
			Round:   Third,
			Players: [2]Player{b.player(s1.Loser), b.player(s2.Loser)},
		},
	}
	b.matches = append(b.matches, created...)
	return append([]Descriptor(nil), created...), nil
}

func (b *Bracket) player(id string) Player {
	for _, p := range b.Players {
		if p.ID == id {
			return p
		}
	}
	return Player{ID: id}
}

// Complete reports whether both the final and the third-place match have
// winners.
func (b *Bracket) Complete() bool {
	if len(b.matches) < 4 {
		return false
	}
	for _, d := range b.matches {
		if !d.Decided() {
			return false
		}
	}
	return true
}

// Placements returns the final standings, first to fourth. It reports false
// until the bracket is complete.
func (b *Bracket) Placements() ([]Placement, bool) {
	if !b.Complete() {
		return nil, false
	}
	final, third := b.matches[2], b.matches[3]
	return []Placement{
		{Place: 1, Player: b.player(final.Winner)},
		{Place: 2, Player: b.player(final.Loser)},
		{Place: 3, Player: b.player(third.Winner)},
		{Place: 4, Player: b.player(third.Loser)},
	}, true
}
