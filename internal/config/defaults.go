package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/powerup"
)

//go:embed defaults/server.yaml
var defaultServerYAML []byte

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Server: ServerSection{
			Address:         ":8080",
			LogLevel:        "info",
			DBPath:          "~/.arena/arena.db",
			MaxMessageBytes: 4096,
		},
		Auth: AuthSection{
			Mode: AuthDev,
		},
		Timing: TimingSection{
			TickRate:      60,
			BroadcastRate: 30,
			PingInterval:  5 * time.Second,
			PongTimeout:   15 * time.Second,
			CleanupGrace:  10 * time.Second,
			LobbyTimeout:  5 * time.Minute,
		},
		Game:     game.DefaultSettings(),
		PowerUps: powerup.DefaultConfig(),
	}
}
