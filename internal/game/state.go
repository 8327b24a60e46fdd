// Package game holds the authoritative data model of a single match:
// the ball, both paddles, the score and the serve flags.
//
// State is plain data. It is mutated only by the match controller and by
// the physics and power-up engines acting on its behalf.
package game

import (
	"math"

	"github.com/vovakirdan/pong-arena/internal/core"
)

// PlayerNumber identifies a side of the table. Player1 owns the left paddle.
type PlayerNumber int

const (
	NoPlayer PlayerNumber = 0
	Player1  PlayerNumber = 1
	Player2  PlayerNumber = 2
)

// Valid reports whether p is Player1 or Player2.
func (p PlayerNumber) Valid() bool {
	return p == Player1 || p == Player2
}

// Opponent returns the other side. NoPlayer maps to NoPlayer.
func (p PlayerNumber) Opponent() PlayerNumber {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return NoPlayer
	}
}

// Table geometry in table units.
const (
	TableWidth        = 800.0
	TableHeight       = 600.0
	PaddleWidth       = 12.0
	PaddleInset       = 30.0 // distance from table edge to paddle centre
	DefaultBallRadius = 10.0
)

// Table describes the playing field bounds.
type Table struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultTable returns the standard 800x600 table.
func DefaultTable() Table {
	return Table{Width: TableWidth, Height: TableHeight}
}

// Ball is the single ball in play. X/Y is the centre.
type Ball struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	SpeedX float64 `json:"speedX"`
	SpeedY float64 `json:"speedY"`

	RadiusMod Modifier `json:"-"`
}

// Speed returns the magnitude of the ball velocity.
func (b Ball) Speed() float64 {
	return math.Hypot(b.SpeedX, b.SpeedY)
}

// ClampY keeps the ball fully inside the table vertically.
func (b *Ball) ClampY(t Table) {
	b.Y = core.ClampF(b.Y, b.Radius, t.Height-b.Radius)
}

// Paddle is one player's paddle. X/Y is the centre.
type Paddle struct {
	X                  float64 `json:"x"`
	Y                  float64 `json:"y"`
	Width              float64 `json:"width"`
	Height             float64 `json:"height"`
	Speed              float64 `json:"speed"`
	LastProcessedInput uint64  `json:"lastProcessedInput"`

	HeightMod Modifier `json:"-"`
	SpeedMod  Modifier `json:"-"`
}

// Bounds returns the paddle's bounding box.
func (p Paddle) Bounds() core.Rect {
	return core.RectAround(p.X, p.Y, p.Width, p.Height)
}

// ClampY keeps the paddle within [height/2, H-height/2].
func (p *Paddle) ClampY(t Table) {
	p.Y = ClampPaddleY(p.Y, p.Height, t)
}

// ClampPaddleY clamps a paddle centre for the given paddle height.
func ClampPaddleY(y, height float64, t Table) float64 {
	half := height / 2
	if half > t.Height/2 {
		half = t.Height / 2
	}
	return core.ClampF(y, half, t.Height-half)
}

// Score tracks points and display names.
type Score struct {
	Player1     int    `json:"player1"`
	Player2     int    `json:"player2"`
	Player1Name string `json:"player1Name"`
	Player2Name string `json:"player2Name"`
}

// Of returns the points of the given player.
func (s Score) Of(p PlayerNumber) int {
	if p == Player2 {
		return s.Player2
	}
	return s.Player1
}

// Add awards one point to the given player.
func (s *Score) Add(p PlayerNumber) {
	switch p {
	case Player1:
		s.Player1++
	case Player2:
		s.Player2++
	}
}

// Leader returns the strictly leading player, or NoPlayer on a tie.
func (s Score) Leader() PlayerNumber {
	switch {
	case s.Player1 > s.Player2:
		return Player1
	case s.Player2 > s.Player1:
		return Player2
	default:
		return NoPlayer
	}
}

// Winner returns the player that has reached maxScore while strictly
// leading, or NoPlayer.
func (s Score) Winner(maxScore int) PlayerNumber {
	leader := s.Leader()
	if leader == NoPlayer {
		return NoPlayer
	}
	if s.Of(leader) >= maxScore {
		return leader
	}
	return NoPlayer
}

// SetName records the display name of a player.
func (s *Score) SetName(p PlayerNumber, name string) {
	switch p {
	case Player1:
		s.Player1Name = name
	case Player2:
		s.Player2Name = name
	}
}

// Name returns the display name of a player.
func (s Score) Name(p PlayerNumber) string {
	if p == Player2 {
		return s.Player2Name
	}
	return s.Player1Name
}

// State is the complete snapshot of one match.
type State struct {
	Ball          Ball         `json:"ball"`
	Paddle1       Paddle       `json:"paddle1"`
	Paddle2       Paddle       `json:"paddle2"`
	Score         Score        `json:"score"`
	ServingPlayer PlayerNumber `json:"servingPlayer"`
	GameStarted   bool         `json:"gameStarted"`
	MapType       MapType      `json:"mapType"`
	Obstacles     []core.Rect  `json:"obstacles,omitempty"`

	Table Table `json:"-"`
}

// NewState builds the initial state for the given settings. The ball rests
// at the centre and player 1 serves until the controller decides otherwise.
func NewState(s Settings) State {
	t := DefaultTable()
	st := State{
		Table:         t,
		ServingPlayer: Player1,
		MapType:       s.MapType,
		Obstacles:     Obstacles(s.MapType, t),
	}
	st.Paddle1 = newPaddle(PaddleInset, t, s)
	st.Paddle2 = newPaddle(t.Width-PaddleInset, t, s)
	st.Ball = Ball{X: t.Width / 2, Y: t.Height / 2, Radius: DefaultBallRadius}
	return st
}

func newPaddle(x float64, t Table, s Settings) Paddle {
	return Paddle{
		X:      x,
		Y:      t.Height / 2,
		Width:  PaddleWidth,
		Height: s.PaddleLength,
		Speed:  s.PaddleSpeed,
	}
}

// Paddle returns the paddle owned by p. It panics on an invalid player
// number because callers validate player numbers at the protocol boundary.
func (s *State) Paddle(p PlayerNumber) *Paddle {
	switch p {
	case Player1:
		return &s.Paddle1
	case Player2:
		return &s.Paddle2
	default:
		panic("game: invalid player number")
	}
}

// CenterBall places the ball at the centre of the table at rest.
func (s *State) CenterBall() {
	s.Ball.X = s.Table.Width / 2
	s.Ball.Y = s.Table.Height / 2
	s.Ball.SpeedX = 0
	s.Ball.SpeedY = 0
}

// ResetScore zeroes both scores, keeping names.
func (s *State) ResetScore() {
	s.Score.Player1 = 0
	s.Score.Player2 = 0
}
