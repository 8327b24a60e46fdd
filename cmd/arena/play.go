package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pong-arena/internal/platform/tui"
)

const dialTimeout = 10 * time.Second

var (
	flagServer    string
	flagToken     string
	flagPlayer    string
	flagName      string
	flagFrameRate int
)

var playCmd = &cobra.Command{
	Use:   "play <game|lobby|tournament> [id]",
	Short: "Play in the terminal",
	Long: `Connect to an arena server and play.

Routes:
  game <id>     - join a free match; the first two players play
  lobby <id>    - join a lobby, ready up, player 1 starts the game
  tournament    - queue for a 4-player tournament

Controls:
  Up/W/K, Down/S/J  - Move paddle
  R                 - Ready
  Enter             - Start the game (lobby host)
  Space             - Serve
  M                 - Rematch (after game over)
  ?                 - Toggle help
  Q/Ctrl+C          - Quit

Authentication:
  Servers in jwt mode need --token (see 'arena token').
  Servers in dev mode identify you by --player and --name.

Examples:
  arena play game g1 --player ann
  arena play lobby friday --player bob --name Bob
  arena play tournament --player cy --name Cy
  arena play game g1 --server https://arena.example.com --token $TOKEN`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagServer, "server", "http://localhost:8080", "Arena server URL")
	playCmd.Flags().StringVar(&flagToken, "token", "", "Bearer token for jwt servers")
	playCmd.Flags().StringVar(&flagPlayer, "player", "", "Player id for dev servers")
	playCmd.Flags().StringVar(&flagName, "name", "", "Display name")
	playCmd.Flags().IntVar(&flagFrameRate, "fps", 60, "Client frame rate")
}

func runPlay(_ *cobra.Command, args []string) error {
	target := tui.Target{
		Server: flagServer,
		Route:  args[0],
		Token:  flagToken,
		Player: flagPlayer,
		Name:   flagName,
	}
	switch target.Route {
	case tui.RouteGame, tui.RouteLobby:
		if len(args) != 2 {
			return fmt.Errorf("play %s needs an id", target.Route)
		}
		target.ID = args[1]
	case tui.RouteTournament:
		if len(args) != 1 {
			return fmt.Errorf("play tournament takes no id")
		}
	default:
		return fmt.Errorf("unknown route %q (want game, lobby or tournament)", target.Route)
	}
	if target.Token == "" && target.Player == "" {
		return fmt.Errorf("either --token or --player is required")
	}

	// Local config only seeds the settings shown before the first state
	// broadcast arrives.
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	link, err := tui.Dial(ctx, target)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", flagServer, err)
	}
	defer link.Close()

	name := flagName
	if name == "" {
		name = flagPlayer
	}
	return tui.Run(link, tui.Options{
		Route:          target.Route,
		TournamentName: name,
		FrameRate:      flagFrameRate,
		Settings:       cfg.Game,
	})
}
