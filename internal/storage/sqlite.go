// Package storage provides SQLite-based persistence for match results and
// per-player win/loss counters.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/pong-arena/internal/multiplayer"
)

// timeLayout is how timestamps are stored. Lexical order matches time order.
const timeLayout = "2006-01-02 15:04:05.000"

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// MatchResult is one persisted match.
type MatchResult struct {
	ID           int64
	MatchID      string
	TournamentID string
	Player1ID    string
	Player2ID    string
	Player1Name  string
	Player2Name  string
	ScorePlayer1 int
	ScorePlayer2 int
	WinnerID     string // empty when nobody won
	LoserID      string
	Reason       string
	StartedAt    time.Time
	EndedAt      time.Time
}

// Duration returns how long the match lasted.
func (r MatchResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// PlayerStats are the aggregated results of one player.
type PlayerStats struct {
	PlayerID  string
	Name      string
	Wins      int
	Losses    int
	UpdatedAt time.Time
}

// Played returns the number of decided matches.
func (p PlayerStats) Played() int {
	return p.Wins + p.Losses
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// Saves arrive from several goroutines; a single connection serialises
	// them instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL,
			tournament_id TEXT NOT NULL DEFAULT '',
			player1_id TEXT NOT NULL,
			player2_id TEXT NOT NULL,
			player1_name TEXT NOT NULL DEFAULT '',
			player2_name TEXT NOT NULL DEFAULT '',
			score_player1 INTEGER NOT NULL DEFAULT 0,
			score_player2 INTEGER NOT NULL DEFAULT 0,
			winner_id TEXT,
			loser_id TEXT,
			reason TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_matches_ended ON matches(ended_at DESC);
		CREATE INDEX IF NOT EXISTS idx_matches_player1 ON matches(player1_id);
		CREATE INDEX IF NOT EXISTS idx_matches_player2 ON matches(player2_id);
		CREATE INDEX IF NOT EXISTS idx_matches_tournament ON matches(tournament_id);

		CREATE TABLE IF NOT EXISTS player_stats (
			player_id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_player_stats_wins ON player_stats(wins DESC, losses ASC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveMatchResult records a finished match and updates both players'
// counters in one transaction.
func (s *Store) SaveMatchResult(ctx context.Context, rec multiplayer.MatchRecord) error {
	if rec.Player1ID == "" || rec.Player2ID == "" {
		return fmt.Errorf("storage: match %s: both player ids are required", rec.MatchID)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO matches
		 (match_id, tournament_id, player1_id, player2_id, player1_name, player2_name,
		  score_player1, score_player2, winner_id, loser_id, reason, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.MatchID,
		rec.TournamentID,
		rec.Player1ID,
		rec.Player2ID,
		rec.Player1Name,
		rec.Player2Name,
		rec.ScorePlayer1,
		rec.ScorePlayer2,
		nullString(rec.WinnerID),
		nullString(rec.LoserID),
		rec.Reason,
		formatTime(rec.StartedAt),
		formatTime(rec.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save match: %w", err)
	}

	if rec.WinnerID != "" && rec.LoserID != "" {
		names := map[string]string{rec.Player1ID: rec.Player1Name, rec.Player2ID: rec.Player2Name}
		if err := bumpStats(ctx, tx, rec.WinnerID, names[rec.WinnerID], 1, 0, rec.EndedAt); err != nil {
			return err
		}
		if err := bumpStats(ctx, tx, rec.LoserID, names[rec.LoserID], 0, 1, rec.EndedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit match: %w", err)
	}
	return nil
}

// Ensure Store implements ResultSaver
var _ multiplayer.ResultSaver = (*Store)(nil)

func bumpStats(ctx context.Context, tx *sql.Tx, playerID, name string, wins, losses int, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO player_stats (player_id, name, wins, losses, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET
		   name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE player_stats.name END,
		   wins = player_stats.wins + excluded.wins,
		   losses = player_stats.losses + excluded.losses,
		   updated_at = excluded.updated_at`,
		playerID, name, wins, losses, formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot update stats for %s: %w", playerID, err)
	}
	return nil
}

const matchColumns = `id, match_id, tournament_id, player1_id, player2_id, player1_name, player2_name,
	score_player1, score_player2, winner_id, loser_id, reason, started_at, ended_at`

// RecentMatches retrieves the most recent matches.
func (s *Store) RecentMatches(ctx context.Context, limit int) ([]MatchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 ORDER BY ended_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	return scanMatches(rows)
}

// PlayerHistory retrieves the matches a player took part in, newest first.
func (s *Store) PlayerHistory(ctx context.Context, playerID string, limit int) ([]MatchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE player1_id = ? OR player2_id = ?
		 ORDER BY ended_at DESC, id DESC
		 LIMIT ?`,
		playerID, playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query player matches: %w", err)
	}
	return scanMatches(rows)
}

// TournamentMatches retrieves every match of a tournament in play order.
func (s *Store) TournamentMatches(ctx context.Context, tournamentID string) ([]MatchResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE tournament_id = ?
		 ORDER BY ended_at ASC, id ASC`,
		tournamentID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query tournament matches: %w", err)
	}
	return scanMatches(rows)
}

func scanMatches(rows *sql.Rows) ([]MatchResult, error) {
	defer rows.Close()

	var results []MatchResult
	for rows.Next() {
		var r MatchResult
		var winner, loser sql.NullString
		var startedAt, endedAt string
		if err := rows.Scan(
			&r.ID,
			&r.MatchID,
			&r.TournamentID,
			&r.Player1ID,
			&r.Player2ID,
			&r.Player1Name,
			&r.Player2Name,
			&r.ScorePlayer1,
			&r.ScorePlayer2,
			&winner,
			&loser,
			&r.Reason,
			&startedAt,
			&endedAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.WinnerID = winner.String
		r.LoserID = loser.String
		r.StartedAt = parseTime(startedAt)
		r.EndedAt = parseTime(endedAt)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return results, nil
}

// Leaderboard returns players ordered by wins, then fewest losses.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]PlayerStats, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, name, wins, losses, updated_at
		 FROM player_stats
		 ORDER BY wins DESC, losses ASC, player_id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	var stats []PlayerStats
	for rows.Next() {
		var p PlayerStats
		var updatedAt string
		if err := rows.Scan(&p.PlayerID, &p.Name, &p.Wins, &p.Losses, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		p.UpdatedAt = parseTime(updatedAt)
		stats = append(stats, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

// Stats returns one player's counters. It returns nil when the player has
// no decided match yet.
func (s *Store) Stats(ctx context.Context, playerID string) (*PlayerStats, error) {
	var p PlayerStats
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT player_id, name, wins, losses, updated_at
		 FROM player_stats
		 WHERE player_id = ?`,
		playerID,
	).Scan(&p.PlayerID, &p.Name, &p.Wins, &p.Losses, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query player stats: %w", err)
	}
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	if t, err := time.Parse(timeLayout, v); err == nil {
		return t
	}
	// Rows written by hand with CURRENT_TIMESTAMP.
	if t, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
		return t
	}
	return time.Time{}
}
