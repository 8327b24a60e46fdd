package powerup

import (
	"math"
	"math/rand"
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/game"
)

// spawnAttempts bounds rejection sampling of a free spot.
const spawnAttempts = 12

// Engine owns the power-ups of one match. It is not safe for concurrent
// use; the match controller drives it from its own goroutine.
type Engine struct {
	cfg    Config
	rng    *rand.Rand
	nextID uint64
	field  []PowerUp // idle instances waiting to be collected
	active []PowerUp // effects in force, in activation order
}

// New creates an engine. rng must not be shared with another goroutine.
func New(cfg Config, rng *rand.Rand) *Engine {
	return &Engine{cfg: cfg, rng: rng}
}

// Config returns the engine tuning.
func (e *Engine) Config() Config {
	return e.cfg
}

// Field returns a copy of the idle instances.
func (e *Engine) Field() []PowerUp {
	return append([]PowerUp(nil), e.field...)
}

// Active returns a copy of the effects in force.
func (e *Engine) Active() []PowerUp {
	return append([]PowerUp(nil), e.active...)
}

// Snapshot returns every instance known to the engine, field first.
func (e *Engine) Snapshot() []PowerUp {
	out := make([]PowerUp, 0, len(e.field)+len(e.active))
	out = append(out, e.field...)
	return append(out, e.active...)
}

// Tick expires finished effects, then possibly spawns a new instance. dt is
// the simulated time step in seconds.
func (e *Engine) Tick(now time.Time, dt float64, st *game.State) []Event {
	events := e.Expire(now, st)

	if !st.GameStarted || len(e.field) >= e.cfg.MaxField {
		return events
	}
	if e.rng.Float64() >= e.cfg.SpawnChance*dt {
		return events
	}
	if p, ok := e.spawn(st); ok {
		events = append(events, Event{Kind: EventSpawn, PowerUp: p})
	}
	return events
}

// Expire reverts every effect whose duration has elapsed at now.
func (e *Engine) Expire(now time.Time, st *game.State) []Event {
	var events []Event
	kept := e.active[:0]
	for _, p := range e.active {
		if p.Expired(now) {
			e.revert(p, st)
			p.Active = false
			events = append(events, Event{Kind: EventDeactivated, PowerUp: p})
			continue
		}
		kept = append(kept, p)
	}
	e.active = kept
	return events
}

func (e *Engine) spawn(st *game.State) (PowerUp, bool) {
	t := st.Table
	minX, maxX := e.cfg.SpawnMarginX, t.Width-e.cfg.SpawnMarginX
	minY, maxY := e.cfg.Size, t.Height-e.cfg.Size
	if maxX <= minX || maxY <= minY {
		return PowerUp{}, false
	}

	for range spawnAttempts {
		x := minX + e.rng.Float64()*(maxX-minX)
		y := minY + e.rng.Float64()*(maxY-minY)
		if !e.freeSpot(x, y, st) {
			continue
		}
		e.nextID++
		p := PowerUp{
			ID:       e.nextID,
			Type:     Types[e.rng.Intn(len(Types))],
			X:        x,
			Y:        y,
			Duration: e.cfg.Duration,
		}
		e.field = append(e.field, p)
		return p, true
	}
	return PowerUp{}, false
}

func (e *Engine) freeSpot(x, y float64, st *game.State) bool {
	for _, p := range e.field {
		if core.Distance(x, y, p.X, p.Y) < e.cfg.Size {
			return false
		}
	}
	for _, o := range st.Obstacles {
		if hit, _, _ := o.CircleIntersects(x, y, e.cfg.Size); hit {
			return false
		}
	}
	return true
}

// CheckCollection collects every field instance the ball touches. The
// collector is the player the ball is travelling away from.
func (e *Engine) CheckCollection(now time.Time, st *game.State) []Event {
	var events []Event
	b := st.Ball
	collector := game.Player2
	if b.SpeedX > 0 {
		collector = game.Player1
	}

	kept := e.field[:0]
	var collected []PowerUp
	for _, p := range e.field {
		if core.CirclesOverlap(b.X, b.Y, b.Radius, p.X, p.Y, e.cfg.Size) {
			collected = append(collected, p)
			continue
		}
		kept = append(kept, p)
	}
	e.field = kept

	for _, p := range collected {
		events = append(events, Event{Kind: EventCollected, PowerUp: e.activate(now, p, collector, st)})
	}
	return events
}

// activate applies p for player. A repeat of an effect already in force for
// the same player only refreshes its start time.
func (e *Engine) activate(now time.Time, p PowerUp, player game.PlayerNumber, st *game.State) PowerUp {
	for i := range e.active {
		a := &e.active[i]
		if a.Type == p.Type && a.ActivatedBy == player {
			a.ActivatedAt = now
			return *a
		}
	}

	p.Active = true
	p.ActivatedBy = player
	p.ActivatedAt = now
	e.apply(p, st)
	e.active = append(e.active, p)
	return p
}

// ClearAll reverts every effect and removes every field instance. It is
// called on each ball reset so no modifier survives a serve. Only effects
// that were in force produce an event; uncollected pickups disappear with
// the next state broadcast.
func (e *Engine) ClearAll(st *game.State) []Event {
	events := make([]Event, 0, len(e.active))
	for i := len(e.active) - 1; i >= 0; i-- {
		p := e.active[i]
		e.revert(p, st)
		p.Active = false
		events = append(events, Event{Kind: EventDeactivated, PowerUp: p})
	}
	e.active = nil
	e.field = nil
	return events
}

func (e *Engine) factor(t Type) float64 {
	if t == PaddleGrow || t == BallGrow {
		return e.cfg.GrowFactor
	}
	return e.cfg.ShrinkFactor
}

func (e *Engine) apply(p PowerUp, st *game.State) {
	player, _ := p.Type.Target(p.ActivatedBy)
	t := st.Table

	switch p.Type {
	case PaddleGrow, PaddleShrink:
		pd := st.Paddle(player)
		pd.HeightMod.Save(pd.Height)
		pd.Height = core.ClampF(pd.Height*e.factor(p.Type), e.cfg.MinPaddleLength, t.Height)
		pd.ClampY(t)
	case BallGrow, BallShrink:
		b := &st.Ball
		b.RadiusMod.Save(b.Radius)
		b.Radius = core.ClampF(b.Radius*e.factor(p.Type), e.cfg.MinBallSize, e.cfg.MaxBallSize)
		b.ClampY(t)
	case PaddleSlow:
		pd := st.Paddle(player)
		pd.SpeedMod.Save(pd.Speed)
		pd.Speed = math.Max(pd.Speed/2, 1)
	}
}

func (e *Engine) revert(p PowerUp, st *game.State) {
	player, _ := p.Type.Target(p.ActivatedBy)
	t := st.Table

	switch p.Type {
	case PaddleGrow, PaddleShrink:
		pd := st.Paddle(player)
		if orig, ok := pd.HeightMod.Release(); ok {
			pd.Height = orig
			pd.ClampY(t)
		}
	case BallGrow, BallShrink:
		b := &st.Ball
		if orig, ok := b.RadiusMod.Release(); ok {
			b.Radius = orig
			b.ClampY(t)
		}
	case PaddleSlow:
		pd := st.Paddle(player)
		if orig, ok := pd.SpeedMod.Release(); ok {
			pd.Speed = orig
		}
	}
}
