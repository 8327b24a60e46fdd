package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pong-arena/internal/auth"
	"github.com/vovakirdan/pong-arena/internal/config"
)

var (
	flagTokenName string
	flagTokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <player>",
	Short: "Mint a test token for jwt auth mode",
	Long: `Sign an HS256 token for a player with the configured auth secret
(auth.secret or ` + config.SecretEnv + `). Intended for local testing;
production tokens come from the account service.

Examples:
  arena token ann
  arena token ann --name Ann --ttl 1h
  arena play game g1 --token $(arena token ann)`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&flagTokenName, "name", "", "Display name (defaults to the player id)")
	tokenCmd.Flags().DurationVar(&flagTokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}

func runToken(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.Secret == "" {
		return fmt.Errorf("no auth secret: set auth.secret or %s", config.SecretEnv)
	}
	if flagTokenTTL <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}

	name := flagTokenName
	if name == "" {
		name = args[0]
	}
	token, err := auth.IssueToken([]byte(cfg.Auth.Secret), auth.Identity{ID: args[0], Name: name}, flagTokenTTL, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
