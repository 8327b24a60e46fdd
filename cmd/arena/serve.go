package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pong-arena/internal/auth"
	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/multiplayer"
	"github.com/vovakirdan/pong-arena/internal/server"
	"github.com/vovakirdan/pong-arena/internal/storage"
)

var (
	flagAddr       string
	flagAuthMode   string
	flagDifficulty string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the arena WebSocket server",
	Long: `Start the game server.

Routes:
  /ws/game/{id}     - free match, first two connections play
  /ws/lobby/{id}    - lobby with ready check and host start
  /ws/tournament    - 4-player single-elimination queue
  /healthz          - live match, lobby and session counts

Finished matches are written to the results database.

Authentication:
  - jwt: HS256 bearer token (header or ?token=), secret from auth.secret
         or ARENA_AUTH_SECRET
  - dev: trusts ?player=<id>&name=<name>

Examples:
  arena serve                          # Listen with the default config
  arena serve --addr :9000             # Listen on port 9000
  arena serve --auth-mode jwt          # Require tokens
  arena serve --difficulty hard        # Faster ball and paddles by default
  arena serve --config ./server.yaml   # Use a specific config file`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides server.address)")
	serveCmd.Flags().StringVar(&flagAuthMode, "auth-mode", "", "Authentication mode: jwt or dev (overrides auth.mode)")
	serveCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Default difficulty preset: easy, normal or hard")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Server.Address = flagAddr
	}
	if flagAuthMode != "" {
		cfg.Auth.Mode = flagAuthMode
	}
	if flagDifficulty != "" {
		preset, err := config.ParseDifficulty(flagDifficulty)
		if err != nil {
			return err
		}
		cfg.Game = config.ApplyDifficulty(cfg.Game, preset)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		return err
	}

	var authn auth.Authenticator
	switch cfg.Auth.Mode {
	case config.AuthJWT:
		authn = auth.NewJWTAuthenticator([]byte(cfg.Auth.Secret))
	default:
		logger.Warn("dev auth mode: identities are taken from query parameters")
		authn = auth.DevAuthenticator{}
	}

	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("open results database: %w", err)
	}
	defer store.Close()

	coord := multiplayer.NewCoordinator(cfg.Coordinator(), multiplayer.NewRegistry(), logger, store)
	srv := server.New(server.Config{
		Address:         cfg.Server.Address,
		MaxMessageBytes: cfg.Server.MaxMessageBytes,
		PingInterval:    cfg.Timing.PingInterval,
		PongTimeout:     cfg.Timing.PongTimeout,
	}, coord, authn, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting arena", "addr", cfg.Server.Address, "auth", cfg.Auth.Mode, "db", cfg.Server.DBPath)

	var wg sync.WaitGroup
	var srvErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		srvErr = srv.Run(ctx)
		stop()
	}()

	coordErr := coord.Run(ctx)
	wg.Wait()

	if srvErr != nil {
		return srvErr
	}
	if coordErr != nil && !errors.Is(coordErr, context.Canceled) {
		return coordErr
	}
	logger.Info("arena stopped")
	return nil
}
