package config

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/pong-arena/internal/game"
)

// DifficultyPreset is a named bundle of match settings a lobby host can
// pick instead of tuning each value.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// Presets lists the presets in menu order.
var Presets = []DifficultyPreset{DifficultyEasy, DifficultyNormal, DifficultyHard}

// ParseDifficulty parses a preset name, case-insensitively.
func ParseDifficulty(s string) (DifficultyPreset, error) {
	p := DifficultyPreset(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Presets {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalid, s)
}

// ApplyDifficulty adjusts ball and paddle tuning for a preset. Map,
// power-ups and score limit are left as they are.
func ApplyDifficulty(s game.Settings, preset DifficultyPreset) game.Settings {
	switch preset {
	case DifficultyEasy:
		s.BallSpeed = 260
		s.PaddleSpeed = 540
		s.PaddleLength = 140
	case DifficultyHard:
		s.BallSpeed = 520
		s.PaddleSpeed = 440
		s.PaddleLength = 70
	default:
		d := game.DefaultSettings()
		s.BallSpeed = d.BallSpeed
		s.PaddleSpeed = d.PaddleSpeed
		s.PaddleLength = d.PaddleLength
	}
	return s
}
