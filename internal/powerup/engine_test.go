package powerup

import (
	"math/rand"
	"testing"
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/game"
)

func newTestEngine(seed int64) (*Engine, *game.State) {
	st := game.NewState(game.DefaultSettings())
	return New(DefaultConfig(), rand.New(rand.NewSource(seed))), &st
}

// place puts an idle instance of type t directly under the ball.
func place(e *Engine, st *game.State, t Type) {
	e.nextID++
	e.field = append(e.field, PowerUp{
		ID:       e.nextID,
		Type:     t,
		X:        st.Ball.X,
		Y:        st.Ball.Y,
		Duration: e.cfg.Duration,
	})
}

func TestNoSpawnBeforeGameStarted(t *testing.T) {
	e, st := newTestEngine(1)
	e.cfg.SpawnChance = 1000
	now := time.Now()
	for i := 0; i < 100; i++ {
		if evs := e.Tick(now, 1.0/60, st); len(evs) != 0 {
			t.Fatalf("unexpected events before start: %v", evs)
		}
	}
	if len(e.Field()) != 0 {
		t.Error("nothing should spawn while the game is not started")
	}
}

func TestSpawnRespectsLimitAndSpacing(t *testing.T) {
	e, st := newTestEngine(2)
	e.cfg.SpawnChance = 1000
	st.GameStarted = true
	now := time.Now()

	spawned := 0
	for i := 0; i < 200; i++ {
		for _, ev := range e.Tick(now, 1.0/60, st) {
			if ev.Kind == EventSpawn {
				spawned++
			}
		}
		if len(e.field) > e.cfg.MaxField {
			t.Fatalf("field holds %d instances, limit is %d", len(e.field), e.cfg.MaxField)
		}
	}
	if spawned != e.cfg.MaxField {
		t.Errorf("spawned %d, expected %d", spawned, e.cfg.MaxField)
	}

	f := e.Field()
	for i := range f {
		if f[i].X < e.cfg.SpawnMarginX || f[i].X > st.Table.Width-e.cfg.SpawnMarginX {
			t.Errorf("instance %d spawned inside the paddle margin at x=%v", f[i].ID, f[i].X)
		}
		for j := i + 1; j < len(f); j++ {
			if d := core.Distance(f[i].X, f[i].Y, f[j].X, f[j].Y); d < e.cfg.Size {
				t.Errorf("instances %d and %d only %v apart", f[i].ID, f[j].ID, d)
			}
		}
	}
}

func TestSpawnIDsAreMonotonic(t *testing.T) {
	e, st := newTestEngine(3)
	e.cfg.SpawnChance = 1000
	st.GameStarted = true

	var last uint64
	for round := 0; round < 5; round++ {
		for i := 0; i < 20; i++ {
			for _, ev := range e.Tick(time.Now(), 1.0/60, st) {
				if ev.PowerUp.ID <= last {
					t.Fatalf("id %d not greater than %d", ev.PowerUp.ID, last)
				}
				last = ev.PowerUp.ID
			}
		}
		e.ClearAll(st)
	}
}

func TestPaddleGrowTargetsCollector(t *testing.T) {
	e, st := newTestEngine(4)
	st.Ball.SpeedX = 300 // travelling right: player 1 hit it last
	place(e, st, PaddleGrow)

	now := time.Now()
	evs := e.CheckCollection(now, st)
	if len(evs) != 1 || evs[0].Kind != EventCollected {
		t.Fatalf("expected one collected event, got %v", evs)
	}
	if evs[0].PowerUp.ActivatedBy != game.Player1 {
		t.Errorf("ActivatedBy = %v, expected Player1", evs[0].PowerUp.ActivatedBy)
	}
	if st.Paddle1.Height != 150 {
		t.Errorf("Paddle1.Height = %v, expected 150", st.Paddle1.Height)
	}
	if st.Paddle2.Height != 100 {
		t.Error("opponent paddle must not change")
	}
	if len(e.Field()) != 0 {
		t.Error("collected instance must leave the field")
	}
}

func TestShrinkAndSlowTargetOpponent(t *testing.T) {
	e, st := newTestEngine(5)
	st.Ball.SpeedX = -300 // travelling left: player 2 collects
	place(e, st, PaddleShrink)
	place(e, st, PaddleSlow)
	// Second instance overlaps the first; spread them so both are touched.
	e.field[1].X += 1

	e.CheckCollection(time.Now(), st)
	if st.Paddle1.Height != 60 {
		t.Errorf("Paddle1.Height = %v, expected 60", st.Paddle1.Height)
	}
	if st.Paddle1.Speed != 240 {
		t.Errorf("Paddle1.Speed = %v, expected 240", st.Paddle1.Speed)
	}
	if st.Paddle2.Height != 100 || st.Paddle2.Speed != 480 {
		t.Error("collector paddle must not change")
	}
}

func TestSlowFloor(t *testing.T) {
	e, st := newTestEngine(6)
	st.Paddle1.Speed = 1.5
	e.apply(PowerUp{Type: PaddleSlow, ActivatedBy: game.Player2}, st)
	if st.Paddle1.Speed != 1 {
		t.Errorf("Speed = %v, expected floor of 1", st.Paddle1.Speed)
	}
}

func TestPaddleGrowClampsToTable(t *testing.T) {
	e, st := newTestEngine(7)
	st.Paddle1.Height = 500
	st.Paddle1.Y = 40
	e.apply(PowerUp{Type: PaddleGrow, ActivatedBy: game.Player1}, st)
	if st.Paddle1.Height != st.Table.Height {
		t.Errorf("Height = %v, expected %v", st.Paddle1.Height, st.Table.Height)
	}
	if st.Paddle1.Y != st.Table.Height/2 {
		t.Errorf("Y = %v, expected paddle re-clamped to %v", st.Paddle1.Y, st.Table.Height/2)
	}
}

func TestBallGrowClampsAndKeepsBallInside(t *testing.T) {
	e, st := newTestEngine(8)
	st.Ball.Radius = 20
	st.Ball.Y = 21
	e.apply(PowerUp{Type: BallGrow, ActivatedBy: game.Player1}, st)
	if st.Ball.Radius != e.cfg.MaxBallSize {
		t.Errorf("Radius = %v, expected %v", st.Ball.Radius, e.cfg.MaxBallSize)
	}
	if st.Ball.Y < st.Ball.Radius {
		t.Errorf("ball pushed out of the table: y=%v r=%v", st.Ball.Y, st.Ball.Radius)
	}
}

func TestExpiryRestoresExactly(t *testing.T) {
	e, st := newTestEngine(9)
	st.Ball.SpeedX = 300
	place(e, st, BallShrink)

	start := time.Now()
	e.CheckCollection(start, st)
	if st.Ball.Radius != 6 {
		t.Fatalf("Radius = %v, expected 6", st.Ball.Radius)
	}
	if !st.Ball.RadiusMod.Active() {
		t.Fatal("modifier should be active while the effect is in force")
	}

	if evs := e.Expire(start.Add(e.cfg.Duration-time.Millisecond), st); len(evs) != 0 {
		t.Fatal("effect expired early")
	}
	evs := e.Expire(start.Add(e.cfg.Duration), st)
	if len(evs) != 1 || evs[0].Kind != EventDeactivated {
		t.Fatalf("expected one deactivated event, got %v", evs)
	}
	if st.Ball.Radius != game.DefaultBallRadius {
		t.Errorf("Radius = %v, expected %v", st.Ball.Radius, game.DefaultBallRadius)
	}
	if st.Ball.RadiusMod.Active() {
		t.Error("modifier should be inactive after expiry")
	}
}

func TestRepeatCollectionRefreshes(t *testing.T) {
	e, st := newTestEngine(10)
	st.Ball.SpeedX = 300

	t0 := time.Now()
	place(e, st, PaddleGrow)
	e.CheckCollection(t0, st)

	t1 := t0.Add(5 * time.Second)
	place(e, st, PaddleGrow)
	e.CheckCollection(t1, st)

	if len(e.Active()) != 1 {
		t.Fatalf("expected one active effect, got %d", len(e.Active()))
	}
	if st.Paddle1.Height != 150 {
		t.Errorf("Height = %v, repeat collection must not stack", st.Paddle1.Height)
	}

	// Past the first expiry but before the refreshed one.
	e.Expire(t0.Add(e.cfg.Duration+time.Second), st)
	if st.Paddle1.Height != 150 {
		t.Error("refreshed effect expired at the original deadline")
	}
	e.Expire(t1.Add(e.cfg.Duration), st)
	if st.Paddle1.Height != 100 {
		t.Errorf("Height = %v, expected 100 after refreshed expiry", st.Paddle1.Height)
	}
}

func TestSameTypeDifferentPlayersStack(t *testing.T) {
	e, st := newTestEngine(11)
	now := time.Now()

	st.Ball.SpeedX = 300
	place(e, st, BallGrow)
	e.CheckCollection(now, st)
	st.Ball.SpeedX = -300
	place(e, st, BallGrow)
	e.CheckCollection(now, st)

	if len(e.Active()) != 2 {
		t.Fatalf("expected two active effects, got %d", len(e.Active()))
	}
	e.ClearAll(st)
	if st.Ball.Radius != game.DefaultBallRadius {
		t.Errorf("Radius = %v, expected original after ClearAll", st.Ball.Radius)
	}
}

func TestClearAllRevertsEverything(t *testing.T) {
	e, st := newTestEngine(12)
	st.GameStarted = true
	st.Ball.SpeedX = -300
	place(e, st, PaddleShrink)
	e.CheckCollection(time.Now(), st)
	place(e, st, PaddleSlow)
	e.field[0].X = 200 // leave it idle on the field

	evs := e.ClearAll(st)
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d: %v", len(evs), evs)
	}
	if evs[0].Kind != EventDeactivated || evs[0].PowerUp.Type != PaddleShrink {
		t.Errorf("only the collected effect should be deactivated, got %+v", evs[0])
	}
	if st.Paddle1.Height != 100 || st.Paddle1.HeightMod.Active() {
		t.Error("paddle height not restored")
	}
	if len(e.Snapshot()) != 0 {
		t.Error("engine should be empty after ClearAll")
	}
}
