// Package powerup spawns, tracks and applies the timed modifiers that appear
// on the table during a rally.
package powerup

import (
	"time"

	"github.com/vovakirdan/pong-arena/internal/game"
)

// Type is the kind of a power-up. The string values are part of the wire
// protocol.
type Type string

const (
	PaddleGrow   Type = "paddle_grow"   // enlarge the collector's paddle
	PaddleShrink Type = "paddle_shrink" // shrink the opponent's paddle
	BallGrow     Type = "ball_grow"     // enlarge the ball
	BallShrink   Type = "ball_shrink"   // shrink the ball
	PaddleSlow   Type = "paddle_slow"   // halve the opponent's paddle speed
)

// Types lists every power-up type in spawn order.
var Types = []Type{PaddleGrow, PaddleShrink, BallGrow, BallShrink, PaddleSlow}

// Glyph returns the display character for a power-up type.
func (t Type) Glyph() rune {
	switch t {
	case PaddleGrow:
		return '+'
	case PaddleShrink:
		return '-'
	case BallGrow:
		return 'O'
	case BallShrink:
		return 'o'
	case PaddleSlow:
		return 'S'
	default:
		return '?'
	}
}

// Target returns which object a collected power-up of this type affects,
// relative to the collecting player.
func (t Type) Target(collector game.PlayerNumber) (player game.PlayerNumber, ball bool) {
	switch t {
	case PaddleGrow:
		return collector, false
	case PaddleShrink, PaddleSlow:
		return collector.Opponent(), false
	default:
		return game.NoPlayer, true
	}
}

// PowerUp is one instance on the field or in effect.
type PowerUp struct {
	ID          uint64            `json:"id"`
	Type        Type              `json:"type"`
	X           float64           `json:"x"`
	Y           float64           `json:"y"`
	Active      bool              `json:"active"`
	ActivatedBy game.PlayerNumber `json:"activatedBy,omitempty"`

	ActivatedAt time.Time     `json:"-"`
	Duration    time.Duration `json:"-"`
}

// Expired reports whether an active power-up has run its course at now.
func (p PowerUp) Expired(now time.Time) bool {
	return p.Active && now.Sub(p.ActivatedAt) >= p.Duration
}

// EventKind classifies engine events.
type EventKind int

const (
	EventSpawn       EventKind = iota // a new instance appeared on the field
	EventCollected                    // the ball picked an instance up
	EventDeactivated                  // an effect expired or was cleared
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventSpawn:
		return "spawn"
	case EventCollected:
		return "collected"
	case EventDeactivated:
		return "deactivated"
	default:
		return "unknown"
	}
}

// Event is emitted by the engine for broadcast to the players.
type Event struct {
	Kind    EventKind
	PowerUp PowerUp
}

// Config tunes spawning and effects.
type Config struct {
	SpawnChance     float64       `yaml:"spawn_chance"` // expected spawns per second while playing
	MaxField        int           `yaml:"max_field"`    // maximum idle instances on the table
	Size            float64       `yaml:"size"`         // pickup radius and minimum spacing
	Duration        time.Duration `yaml:"duration"`
	GrowFactor      float64       `yaml:"grow_factor"`
	ShrinkFactor    float64       `yaml:"shrink_factor"`
	MinPaddleLength float64       `yaml:"min_paddle_length"`
	MinBallSize     float64       `yaml:"min_ball_size"`
	MaxBallSize     float64       `yaml:"max_ball_size"`
	SpawnMarginX    float64       `yaml:"spawn_margin_x"` // keep pickups away from the paddles
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		SpawnChance:     0.15,
		MaxField:        3,
		Size:            15,
		Duration:        10 * time.Second,
		GrowFactor:      1.5,
		ShrinkFactor:    0.6,
		MinPaddleLength: 30,
		MinBallSize:     5,
		MaxBallSize:     25,
		SpawnMarginX:    120,
	}
}
