// Package config provides YAML-based server configuration loading and the
// settings presets offered to players.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/multiplayer"
	"github.com/vovakirdan/pong-arena/internal/powerup"
)

// Authentication modes.
const (
	AuthJWT = "jwt"
	AuthDev = "dev"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// ServerConfig contains all configuration for the arena server.
type ServerConfig struct {
	Server   ServerSection  `yaml:"server"`
	Auth     AuthSection    `yaml:"auth"`
	Timing   TimingSection  `yaml:"timing"`
	Game     game.Settings  `yaml:"game"`
	PowerUps powerup.Config `yaml:"powerups"`
}

// ServerSection defines the listener and storage.
type ServerSection struct {
	Address         string `yaml:"address"`
	LogLevel        string `yaml:"log_level"`
	DBPath          string `yaml:"db_path"`
	MaxMessageBytes int64  `yaml:"max_message_bytes"`
}

// AuthSection defines how connections are authenticated.
type AuthSection struct {
	Mode   string `yaml:"mode"`
	Secret string `yaml:"secret"`
}

// TimingSection defines simulation and liveness timing.
type TimingSection struct {
	TickRate      int           `yaml:"tick_rate"`
	BroadcastRate int           `yaml:"broadcast_rate"`
	PingInterval  time.Duration `yaml:"ping_interval"`
	PongTimeout   time.Duration `yaml:"pong_timeout"`
	CleanupGrace  time.Duration `yaml:"cleanup_grace"`
	LobbyTimeout  time.Duration `yaml:"lobby_timeout"`
}

// Validate checks the values the server cannot run without.
func (c ServerConfig) Validate() error {
	switch {
	case c.Server.Address == "":
		return fmt.Errorf("%w: server.address is empty", ErrInvalid)
	case c.Server.MaxMessageBytes <= 0:
		return fmt.Errorf("%w: server.max_message_bytes must be positive", ErrInvalid)
	case c.Auth.Mode != AuthJWT && c.Auth.Mode != AuthDev:
		return fmt.Errorf("%w: auth.mode %q (want %q or %q)", ErrInvalid, c.Auth.Mode, AuthJWT, AuthDev)
	case c.Auth.Mode == AuthJWT && c.Auth.Secret == "":
		return fmt.Errorf("%w: auth.secret is required in jwt mode", ErrInvalid)
	case c.Timing.TickRate <= 0:
		return fmt.Errorf("%w: timing.tick_rate must be positive", ErrInvalid)
	case c.Timing.BroadcastRate <= 0 || c.Timing.BroadcastRate > c.Timing.TickRate:
		return fmt.Errorf("%w: timing.broadcast_rate must be in [1, tick_rate]", ErrInvalid)
	case c.Timing.PingInterval <= 0 || c.Timing.PongTimeout <= c.Timing.PingInterval:
		return fmt.Errorf("%w: timing.pong_timeout must exceed a positive ping_interval", ErrInvalid)
	}
	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("config: game: %w", err)
	}
	return nil
}

// Coordinator returns the coordinator configuration.
func (c ServerConfig) Coordinator() multiplayer.Config {
	return multiplayer.Config{
		TickRate:      c.Timing.TickRate,
		BroadcastRate: c.Timing.BroadcastRate,
		CleanupGrace:  c.Timing.CleanupGrace,
		LobbyTimeout:  c.Timing.LobbyTimeout,
		Settings:      c.Game,
		PowerUps:      c.PowerUps,
	}
}
