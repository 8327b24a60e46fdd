package netsync

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/powerup"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// ErrForeignPlayer is returned for messages addressed to the other player.
var ErrForeignPlayer = errors.New("netsync: message for another player")

// View is what the client draws for one frame.
type View struct {
	Own      game.Paddle // predicted
	Opponent game.Paddle // interpolated
	Ball     game.Ball   // interpolated
	Score    game.Score
	Serving  game.PlayerNumber
	Started  bool
	PowerUps []powerup.PowerUp
	Walls    []core.Rect
	Tick     uint64
}

// Client keeps one player's local picture of a match.
type Client struct {
	player    game.PlayerNumber
	predictor *Predictor
	remote    *Interpolator
	ball      *Interpolator
	state     game.State
	powerups  []powerup.PowerUp
	tick      uint64
	synced    bool
}

// NewClient creates the view for player, starting from the initial state
// a new match has before the first broadcast.
func NewClient(player game.PlayerNumber, settings game.Settings) (*Client, error) {
	if !player.Valid() {
		return nil, fmt.Errorf("netsync: invalid player number %d", player)
	}
	st := game.NewState(settings)
	own := st.Paddle(player)
	return &Client{
		player:    player,
		predictor: NewPredictor(own.Y, own.Height, st.Table),
		remote:    NewPaddleInterpolator(st.Table),
		ball:      NewBallInterpolator(st.Table),
		state:     st,
	}, nil
}

// Player returns the side this client plays.
func (c *Client) Player() game.PlayerNumber {
	return c.player
}

// Predictor exposes the local paddle predictor.
func (c *Client) Predictor() *Predictor {
	return c.predictor
}

// Move predicts a paddle displacement and returns the message to send.
func (c *Client) Move(delta float64) protocol.MovePaddle {
	in := c.predictor.Move(delta)
	return protocol.MovePaddle{
		PlayerNumber:   c.player,
		PaddlePosition: in.Position,
		InputSequence:  in.Sequence,
	}
}

// ApplyState takes in an authoritative broadcast received at the given
// local time. Broadcasts older than the newest one seen are ignored.
func (c *Client) ApplyState(gs protocol.GameState, received time.Time) {
	if c.synced && gs.Tick < c.tick {
		return
	}
	c.synced = true
	c.tick = gs.Tick

	table := c.state.Table
	prevServing, prevStarted := c.state.ServingPlayer, c.state.GameStarted
	c.state = gs.State
	c.state.Table = table
	c.powerups = gs.PowerUps

	own := c.state.Paddle(c.player)
	c.predictor.SetHeight(own.Height)
	c.predictor.Reconcile(own.Y, own.LastProcessedInput)

	opp := c.state.Paddle(c.player.Opponent())
	c.remote.Push(Sample{At: received, X: opp.X, Y: opp.Y, Extent: opp.Height / 2})

	// A new serve teleports the ball; blending across it would draw a
	// streak through the table.
	if c.state.GameStarted != prevStarted || c.state.ServingPlayer != prevServing {
		c.ball.Reset()
	}
	b := c.state.Ball
	c.ball.Push(Sample{At: received, X: b.X, Y: b.Y, Extent: b.Radius})
}

// ApplySync takes in a correction for the local paddle.
func (c *Client) ApplySync(s protocol.Sync) error {
	if s.PlayerNumber != c.player {
		return ErrForeignPlayer
	}
	c.predictor.Reconcile(s.PaddlePosition, s.LastProcessedInput)
	return nil
}

// View returns the picture to draw at now.
func (c *Client) View(now time.Time) View {
	v := View{
		Own:      *c.state.Paddle(c.player),
		Opponent: *c.state.Paddle(c.player.Opponent()),
		Ball:     c.state.Ball,
		Score:    c.state.Score,
		Serving:  c.state.ServingPlayer,
		Started:  c.state.GameStarted,
		PowerUps: c.powerups,
		Walls:    c.state.Obstacles,
		Tick:     c.tick,
	}
	v.Own.Y = c.predictor.Position()
	if _, y, ok := c.remote.At(now); ok {
		v.Opponent.Y = y
	}
	if x, y, ok := c.ball.At(now); ok {
		v.Ball.X, v.Ball.Y = x, y
	}
	return v
}
