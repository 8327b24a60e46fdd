// arena is a real-time multiplayer pong server and its terminal client.
//
// Usage:
//
//	arena serve                     - Start the WebSocket game server
//	arena play game <id>            - Join a free match in the terminal
//	arena play lobby <id>           - Join a lobby
//	arena play tournament           - Queue for a 4-player tournament
//	arena history [player]          - Show recent match results
//	arena leaderboard               - Show wins and losses per player
//	arena token <player>            - Mint a test token for jwt auth mode
//
// Global flags:
//
//	--config <path>     - Server config YAML (default search path otherwise)
//	--db <path>         - Results database (overrides server.db_path)
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/pong-arena/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Pong Arena - real-time multiplayer pong",
	Long: `Pong Arena runs server-authoritative pong matches, lobbies and
4-player tournaments over WebSocket, and ships a terminal client.

Available commands:
  serve        - Start the game server
  play         - Play in the terminal
  history      - Show recent match results
  leaderboard  - Show the win/loss leaderboard
  token        - Mint a test token

Examples:
  arena serve --addr :9000
  arena play game g1 --player ann
  arena play tournament --player ann --name Ann
  arena leaderboard --browse`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to server config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to results database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(tokenCmd)
}

// loadConfig loads the server config and applies the global flag overrides.
func loadConfig() (config.ServerConfig, error) {
	cfg, err := config.LoadServer(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDBPath != "" {
		cfg.Server.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Server.LogLevel = flagLogLevel
	}
	return cfg, nil
}

// newLogger creates the process logger at the given level.
func newLogger(level string) (*log.Logger, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "arena",
	})
	if level == "" {
		return logger, nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}
