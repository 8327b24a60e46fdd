package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/pong-arena/internal/platform/tui"
)

var (
	flagBoardLimit int
	flagBrowse     bool
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the win/loss leaderboard",
	Long: `Display players ordered by wins, then by fewest losses.

With --browse, opens an interactive screen that switches between the
leaderboard and recent matches.

Examples:
  arena leaderboard
  arena leaderboard --limit 50
  arena leaderboard --browse`,
	RunE: runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().IntVar(&flagBoardLimit, "limit", 10, "Maximum number of players")
	leaderboardCmd.Flags().BoolVarP(&flagBrowse, "browse", "i", false, "Browse results interactively")
}

func runLeaderboard(_ *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if flagBrowse {
		width, height, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || width <= 0 || height <= 0 {
			width, height = 80, 24
		}
		return tui.RunScoreboard(store, width, height)
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	stats, err := store.Leaderboard(ctx, flagBoardLimit)
	if err != nil {
		return fmt.Errorf("read leaderboard: %w", err)
	}

	fmt.Println(headingStyle.Render("Leaderboard"))
	fmt.Println()
	if len(stats) == 0 {
		fmt.Println("No matches recorded yet.")
		fmt.Println()
		fmt.Println("Run 'arena play game <id>' to get on the board!")
		return nil
	}
	fmt.Println(renderTable([]string{"Rank", "Player", "Wins", "Losses", "Win %"}, tui.LeaderboardRows(stats)))
	return nil
}
