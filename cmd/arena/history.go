package main

import (
	"context"
	"fmt"
	"time"

	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/pong-arena/internal/platform/tui"
	"github.com/vovakirdan/pong-arena/internal/storage"
)

const queryTimeout = 5 * time.Second

var (
	flagHistoryLimit int
	flagTournament   string
)

var historyCmd = &cobra.Command{
	Use:   "history [player]",
	Short: "Show recent match results",
	Long: `Display finished matches, newest first.

With a player id, only that player's matches are shown together with
their win/loss record. With --tournament, every match of that tournament
is shown in play order.

Examples:
  arena history
  arena history ann --limit 5
  arena history --tournament 3f1c...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Maximum number of matches")
	historyCmd.Flags().StringVar(&flagTournament, "tournament", "", "Show the matches of one tournament")
}

func runHistory(_ *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var (
		matches []storage.MatchResult
		title   = "Recent matches"
	)
	switch {
	case flagTournament != "":
		title = "Tournament " + flagTournament
		matches, err = store.TournamentMatches(ctx, flagTournament)
	case len(args) == 1:
		title = "Matches of " + args[0]
		matches, err = store.PlayerHistory(ctx, args[0], flagHistoryLimit)
	default:
		matches, err = store.RecentMatches(ctx, flagHistoryLimit)
	}
	if err != nil {
		return fmt.Errorf("read matches: %w", err)
	}

	fmt.Println(headingStyle.Render(title))
	fmt.Println()

	if len(args) == 1 && flagTournament == "" {
		stats, err := store.Stats(ctx, args[0])
		if err != nil {
			return fmt.Errorf("read stats: %w", err)
		}
		if stats != nil {
			fmt.Printf("Record: %d wins, %d losses\n\n", stats.Wins, stats.Losses)
		}
	}

	if len(matches) == 0 {
		fmt.Println("No matches recorded yet.")
		return nil
	}
	fmt.Println(renderTable([]string{"When", "Player 1", "Score", "Player 2", "Result"}, tui.MatchRows(matches)))
	return nil
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// renderTable prints rows as a bordered table for non-interactive output.
func renderTable(headers []string, rows []btable.Row) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range rows {
		t.Row(r...)
	}
	return t.String()
}

// openStore opens the results database named by the config or --db.
func openStore() (*storage.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}
	return store, nil
}
