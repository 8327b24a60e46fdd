package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/pong-arena/internal/storage"
)

type fakeBoard struct {
	stats   []storage.PlayerStats
	matches []storage.MatchResult
	err     error
}

func (f fakeBoard) Leaderboard(context.Context, int) ([]storage.PlayerStats, error) {
	return f.stats, f.err
}

func (f fakeBoard) RecentMatches(context.Context, int) ([]storage.MatchResult, error) {
	return f.matches, f.err
}

func TestLeaderboardRows(t *testing.T) {
	rows := LeaderboardRows([]storage.PlayerStats{
		{PlayerID: "a", Name: "Ann", Wins: 3, Losses: 1},
		{PlayerID: "b", Wins: 0, Losses: 0},
	})
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if got := strings.Join(rows[0], "|"); got != "#1|Ann|3|1|75%" {
		t.Errorf("row 0 = %q", got)
	}
	if rows[1][1] != "b" || rows[1][4] != "0%" {
		t.Errorf("row 1 should fall back to the id and 0%%: %v", rows[1])
	}
}

func TestMatchRows(t *testing.T) {
	ended := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)
	rows := MatchRows([]storage.MatchResult{
		{Player1ID: "a", Player1Name: "Ann", Player2ID: "b", ScorePlayer1: 5, ScorePlayer2: 2,
			WinnerID: "a", Reason: "scoreLimit", EndedAt: ended},
		{Player1ID: "a", Player2ID: "b", Reason: "forfeit", EndedAt: ended},
		{Player1ID: "a", Player2ID: "b", WinnerID: "b", TournamentID: "t1", EndedAt: ended},
	})
	if got := strings.Join(rows[0], "|"); got != "Mar 01 10:00|Ann|5-2|b|scoreLimit" {
		t.Errorf("row 0 = %q", got)
	}
	if rows[1][4] != "no result" {
		t.Errorf("row 1 result = %q", rows[1][4])
	}
	if rows[2][4] != "tournament" {
		t.Errorf("row 2 result = %q", rows[2][4])
	}
}

func TestScoreboardSwitchesBoards(t *testing.T) {
	src := fakeBoard{
		stats:   []storage.PlayerStats{{PlayerID: "a", Name: "Ann", Wins: 1}},
		matches: []storage.MatchResult{{Player1ID: "a", Player2ID: "b"}, {Player1ID: "c", Player2ID: "d"}},
	}
	m := NewScoreboardModel(src, 100, 30)
	if m.board != BoardLeaderboard || len(m.rows) != 1 {
		t.Fatalf("Expected the leaderboard first, got board %v with %d rows", m.board, len(m.rows))
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(ScoreboardModel)
	if m.board != BoardRecent || len(m.rows) != 2 {
		t.Errorf("tab should show recent matches, got board %v with %d rows", m.board, len(m.rows))
	}
	if !strings.Contains(m.View(), "RECENT MATCHES") {
		t.Error("View() should title the current board")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if next.(ScoreboardModel).board != BoardLeaderboard {
		t.Error("shift+tab should go back to the leaderboard")
	}
}

func TestScoreboardShowsLoadError(t *testing.T) {
	m := NewScoreboardModel(fakeBoard{err: errors.New("disk on fire")}, 100, 30)
	if !strings.Contains(m.View(), "disk on fire") {
		t.Error("View() should show the load error")
	}
}

func TestScoreboardQuit(t *testing.T) {
	m := NewScoreboardModel(fakeBoard{}, 100, 30)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || next.View() != "" {
		t.Error("q should quit and clear the view")
	}
}
