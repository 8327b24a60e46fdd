package game

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/pong-arena/internal/core"
)

// ErrInvalidSettings is returned when a settings change is out of range.
var ErrInvalidSettings = errors.New("invalid settings")

// MapType selects the obstacle layout of the table.
type MapType string

const (
	MapClassic MapType = "classic" // empty table
	MapCenter  MapType = "center"  // one block in the middle of each half
	MapPillars MapType = "pillars" // two pillars near the net
)

// Valid reports whether m is a known layout.
func (m MapType) Valid() bool {
	switch m {
	case MapClassic, MapCenter, MapPillars:
		return true
	}
	return false
}

// Settings are the per-match tunables negotiated in the lobby.
// Speeds are in table units per second.
type Settings struct {
	BallSpeed       float64 `json:"ballSpeed" yaml:"ball_speed"`
	PaddleSpeed     float64 `json:"paddleSpeed" yaml:"paddle_speed"`
	PaddleLength    float64 `json:"paddleLength" yaml:"paddle_length"`
	MapType         MapType `json:"mapType" yaml:"map_type"`
	PowerUpsEnabled bool    `json:"powerUpsEnabled" yaml:"powerups_enabled"`
	MaxScore        int     `json:"maxScore" yaml:"max_score"`
}

// Accepted settings ranges.
const (
	MinBallSpeedSetting    = 120.0
	MaxBallSpeedSetting    = 900.0
	MinPaddleSpeedSetting  = 120.0
	MaxPaddleSpeedSetting  = 1200.0
	MinPaddleLengthSetting = 40.0
	MaxPaddleLengthSetting = 300.0
	MaxScoreLimit          = 21
)

// DefaultSettings returns the settings used when a lobby does not change
// anything.
func DefaultSettings() Settings {
	return Settings{
		BallSpeed:       360,
		PaddleSpeed:     480,
		PaddleLength:    100,
		MapType:         MapClassic,
		PowerUpsEnabled: true,
		MaxScore:        5,
	}
}

// Validate checks every field against the accepted ranges.
func (s Settings) Validate() error {
	switch {
	case s.BallSpeed < MinBallSpeedSetting || s.BallSpeed > MaxBallSpeedSetting:
		return fmt.Errorf("%w: ballSpeed %.0f outside [%.0f, %.0f]", ErrInvalidSettings, s.BallSpeed, MinBallSpeedSetting, MaxBallSpeedSetting)
	case s.PaddleSpeed < MinPaddleSpeedSetting || s.PaddleSpeed > MaxPaddleSpeedSetting:
		return fmt.Errorf("%w: paddleSpeed %.0f outside [%.0f, %.0f]", ErrInvalidSettings, s.PaddleSpeed, MinPaddleSpeedSetting, MaxPaddleSpeedSetting)
	case s.PaddleLength < MinPaddleLengthSetting || s.PaddleLength > MaxPaddleLengthSetting:
		return fmt.Errorf("%w: paddleLength %.0f outside [%.0f, %.0f]", ErrInvalidSettings, s.PaddleLength, MinPaddleLengthSetting, MaxPaddleLengthSetting)
	case !s.MapType.Valid():
		return fmt.Errorf("%w: unknown mapType %q", ErrInvalidSettings, s.MapType)
	case s.MaxScore < 1 || s.MaxScore > MaxScoreLimit:
		return fmt.Errorf("%w: maxScore %d outside [1, %d]", ErrInvalidSettings, s.MaxScore, MaxScoreLimit)
	}
	return nil
}

// Obstacles returns the static blocks for a map layout.
func Obstacles(m MapType, t Table) []core.Rect {
	cx, cy := t.Width/2, t.Height/2
	switch m {
	case MapCenter:
		return []core.Rect{
			core.RectAround(t.Width*0.3, cy, 20, 100),
			core.RectAround(t.Width*0.7, cy, 20, 100),
		}
	case MapPillars:
		return []core.Rect{
			core.RectAround(cx, t.Height*0.25, 30, 80),
			core.RectAround(cx, t.Height*0.75, 30, 80),
		}
	default:
		return nil
	}
}
