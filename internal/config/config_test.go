package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/pong-arena/internal/game"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	cfg, err := parseServer(defaultServerYAML)
	if err != nil {
		t.Fatalf("parseServer(embedded) failed: %v", err)
	}
	want := DefaultServerConfig()
	if cfg.Server != want.Server || cfg.Auth != want.Auth || cfg.Timing != want.Timing {
		t.Errorf("embedded defaults differ:\n got %+v\nwant %+v", cfg, want)
	}
	if cfg.Game != want.Game || cfg.PowerUps != want.PowerUps {
		t.Errorf("embedded game defaults differ:\n got %+v %+v\nwant %+v %+v", cfg.Game, cfg.PowerUps, want.Game, want.PowerUps)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadServerCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	data := []byte(`
server:
  address: "127.0.0.1:9000"
timing:
  tick_rate: 30
  broadcast_rate: 15
  cleanup_grace: 2s
game:
  max_score: 11
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadServer(path)
	if err != nil {
		t.Fatalf("LoadServer() failed: %v", err)
	}
	if cfg.Server.Address != "127.0.0.1:9000" || cfg.Timing.TickRate != 30 || cfg.Game.MaxScore != 11 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Timing.CleanupGrace != 2*time.Second {
		t.Errorf("CleanupGrace = %v, want 2s", cfg.Timing.CleanupGrace)
	}
	// Keys missing from the file keep their defaults.
	if cfg.Timing.PingInterval != 5*time.Second || cfg.Game.BallSpeed != 360 {
		t.Errorf("defaults lost: ping %v ball %v", cfg.Timing.PingInterval, cfg.Game.BallSpeed)
	}

	mc := cfg.Coordinator()
	if mc.TickRate != 30 || mc.BroadcastRate != 15 || mc.Settings.MaxScore != 11 {
		t.Errorf("Coordinator() = %+v", mc)
	}
}

func TestLoadServerMissingCustomPath(t *testing.T) {
	if _, err := LoadServer(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadServer() should fail for a missing custom path")
	}
}

func TestLoadServerSecretFromEnv(t *testing.T) {
	t.Setenv(SecretEnv, "s3cret")
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  mode: jwt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadServer(path)
	if err != nil {
		t.Fatalf("LoadServer() failed: %v", err)
	}
	if cfg.Auth.Secret != "s3cret" {
		t.Errorf("Secret = %q, want env value", cfg.Auth.Secret)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"jwt without secret", func(c *ServerConfig) { c.Auth.Mode = AuthJWT }},
		{"unknown auth mode", func(c *ServerConfig) { c.Auth.Mode = "none" }},
		{"zero tick rate", func(c *ServerConfig) { c.Timing.TickRate = 0 }},
		{"broadcast above tick", func(c *ServerConfig) { c.Timing.BroadcastRate = 120 }},
		{"pong timeout below ping", func(c *ServerConfig) { c.Timing.PongTimeout = time.Second }},
		{"empty address", func(c *ServerConfig) { c.Server.Address = "" }},
		{"bad game settings", func(c *ServerConfig) { c.Game.MaxScore = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestDifficultyPresets(t *testing.T) {
	if _, err := ParseDifficulty("Insane"); !errors.Is(err, ErrInvalid) {
		t.Errorf("ParseDifficulty(Insane) = %v, want ErrInvalid", err)
	}
	for _, p := range Presets {
		got, err := ParseDifficulty(string(p))
		if err != nil || got != p {
			t.Errorf("ParseDifficulty(%s) = %v, %v", p, got, err)
		}
		s := game.DefaultSettings()
		s.MapType = game.MapPillars
		s = ApplyDifficulty(s, p)
		if err := s.Validate(); err != nil {
			t.Errorf("%s settings invalid: %v", p, err)
		}
		if s.MapType != game.MapPillars {
			t.Errorf("%s changed the map", p)
		}
	}
	if hard := ApplyDifficulty(game.DefaultSettings(), DifficultyHard); hard.BallSpeed <= game.DefaultSettings().BallSpeed {
		t.Error("hard should be faster than the default")
	}
}
