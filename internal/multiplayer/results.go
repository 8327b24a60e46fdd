package multiplayer

import (
	"context"
	"time"

	"github.com/vovakirdan/pong-arena/internal/game"
)

// ResultSaver persists finished matches. The coordinator calls it from a
// separate goroutine so a slow store never delays a tick.
type ResultSaver interface {
	SaveMatchResult(ctx context.Context, rec MatchRecord) error
}

// MatchRecord is the persisted outcome of one match.
type MatchRecord struct {
	MatchID      string
	TournamentID string
	Player1ID    string
	Player2ID    string
	Player1Name  string
	Player2Name  string
	ScorePlayer1 int
	ScorePlayer2 int
	WinnerID     string
	LoserID      string
	Reason       string
	StartedAt    time.Time
	EndedAt      time.Time
}

// Outcome is how a match ended.
type Outcome struct {
	Winner game.PlayerNumber
	Reason string
	Score  game.Score
}

// forfeitWinner picks the winner when leaver drops out: the remaining
// player, unless both had already reached the win threshold, in which case
// the higher score wins.
func forfeitWinner(score game.Score, maxScore int, leaver game.PlayerNumber) game.PlayerNumber {
	remaining := leaver.Opponent()
	if score.Player1 >= maxScore && score.Player2 >= maxScore {
		if leader := score.Leader(); leader != game.NoPlayer {
			return leader
		}
	}
	return remaining
}
