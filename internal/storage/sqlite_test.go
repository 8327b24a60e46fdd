package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/pong-arena/internal/multiplayer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func record(id, p1, p2 string, s1, s2 int, reason string, ended time.Time) multiplayer.MatchRecord {
	rec := multiplayer.MatchRecord{
		MatchID:      id,
		Player1ID:    p1,
		Player2ID:    p2,
		Player1Name:  p1 + "-name",
		Player2Name:  p2 + "-name",
		ScorePlayer1: s1,
		ScorePlayer2: s2,
		Reason:       reason,
		StartedAt:    ended.Add(-2 * time.Minute),
		EndedAt:      ended,
	}
	if s1 > s2 {
		rec.WinnerID, rec.LoserID = p1, p2
	} else {
		rec.WinnerID, rec.LoserID = p2, p1
	}
	return rec
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreSaveAndRetrieve(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveMatchResult(ctx, record("m1", "alice", "bob", 5, 3, "scoreLimit", base)); err != nil {
		t.Fatalf("SaveMatchResult() failed: %v", err)
	}
	if err := store.SaveMatchResult(ctx, record("m2", "bob", "carol", 1, 2, "forfeit", base.Add(time.Hour))); err != nil {
		t.Fatalf("SaveMatchResult() failed: %v", err)
	}

	matches, err := store.RecentMatches(ctx, 10)
	if err != nil {
		t.Fatalf("RecentMatches() failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}
	if matches[0].MatchID != "m2" {
		t.Errorf("Expected newest match first, got %s", matches[0].MatchID)
	}
	m := matches[1]
	if m.WinnerID != "alice" || m.LoserID != "bob" || m.ScorePlayer1 != 5 || m.ScorePlayer2 != 3 {
		t.Errorf("Unexpected match row: %+v", m)
	}
	if !m.EndedAt.Equal(base) {
		t.Errorf("EndedAt = %v, want %v", m.EndedAt, base)
	}
	if m.Duration() != 2*time.Minute {
		t.Errorf("Duration() = %v, want 2m", m.Duration())
	}
}

func TestStoreRecentMatchesLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := record("m", "alice", "bob", 3, i%3, "scoreLimit", base.Add(time.Duration(i)*time.Minute))
		if err := store.SaveMatchResult(ctx, rec); err != nil {
			t.Fatalf("SaveMatchResult() failed: %v", err)
		}
	}

	matches, err := store.RecentMatches(ctx, 3)
	if err != nil {
		t.Fatalf("RecentMatches() failed: %v", err)
	}
	if len(matches) != 3 {
		t.Errorf("Expected 3 matches with limit, got %d", len(matches))
	}
}

func TestStorePlayerHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.SaveMatchResult(ctx, record("m1", "alice", "bob", 5, 3, "scoreLimit", base))
	store.SaveMatchResult(ctx, record("m2", "bob", "carol", 5, 0, "scoreLimit", base.Add(time.Minute)))
	store.SaveMatchResult(ctx, record("m3", "carol", "alice", 2, 5, "scoreLimit", base.Add(2*time.Minute)))

	history, err := store.PlayerHistory(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("PlayerHistory() failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 matches for alice, got %d", len(history))
	}
	if history[0].MatchID != "m3" || history[1].MatchID != "m1" {
		t.Errorf("Unexpected order: %s, %s", history[0].MatchID, history[1].MatchID)
	}
}

func TestStoreLeaderboard(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.SaveMatchResult(ctx, record("m1", "alice", "bob", 5, 3, "scoreLimit", base))
	store.SaveMatchResult(ctx, record("m2", "alice", "carol", 5, 0, "scoreLimit", base.Add(time.Minute)))
	store.SaveMatchResult(ctx, record("m3", "carol", "bob", 5, 4, "scoreLimit", base.Add(2*time.Minute)))

	board, err := store.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboard() failed: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("Expected 3 players, got %d", len(board))
	}
	want := []struct {
		id           string
		wins, losses int
	}{
		{"alice", 2, 0},
		{"carol", 1, 1},
		{"bob", 0, 2},
	}
	for i, w := range want {
		if board[i].PlayerID != w.id || board[i].Wins != w.wins || board[i].Losses != w.losses {
			t.Errorf("board[%d] = %+v, want %+v", i, board[i], w)
		}
	}
	if board[0].Name != "alice-name" {
		t.Errorf("Expected name to be stored, got %q", board[0].Name)
	}
}

func TestStoreStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	st, err := store.Stats(ctx, "nobody")
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if st != nil {
		t.Errorf("Expected nil stats for unknown player, got %+v", st)
	}

	store.SaveMatchResult(ctx, record("m1", "alice", "bob", 5, 3, "scoreLimit", base))
	st, err = store.Stats(ctx, "bob")
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if st == nil || st.Losses != 1 || st.Played() != 1 {
		t.Errorf("Unexpected stats: %+v", st)
	}
}

func TestStoreNoWinnerLeavesStatsAlone(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := record("m1", "alice", "bob", 0, 0, "forfeit", base)
	rec.WinnerID, rec.LoserID = "", ""
	if err := store.SaveMatchResult(ctx, rec); err != nil {
		t.Fatalf("SaveMatchResult() failed: %v", err)
	}
	board, _ := store.Leaderboard(ctx, 10)
	if len(board) != 0 {
		t.Errorf("Expected empty leaderboard, got %d rows", len(board))
	}
}

func TestStoreRejectsIncompleteRecord(t *testing.T) {
	store := openTestStore(t)
	rec := record("m1", "alice", "", 5, 0, "scoreLimit", base)
	if err := store.SaveMatchResult(context.Background(), rec); err == nil {
		t.Error("Expected error for record without player 2")
	}
}

func TestStoreTournamentMatches(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"t1-semi1", "t1-semi2", "t1-final"} {
		rec := record(id, "a", "b", 3, 1, "scoreLimit", base.Add(time.Duration(i)*time.Minute))
		rec.TournamentID = "t1"
		store.SaveMatchResult(ctx, rec)
	}
	store.SaveMatchResult(ctx, record("free", "a", "b", 3, 1, "scoreLimit", base))

	matches, err := store.TournamentMatches(ctx, "t1")
	if err != nil {
		t.Fatalf("TournamentMatches() failed: %v", err)
	}
	if len(matches) != 3 || matches[2].MatchID != "t1-final" {
		t.Errorf("Unexpected tournament matches: %+v", matches)
	}
}
