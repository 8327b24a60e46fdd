// Package physics advances the ball and resolves its collisions against the
// table walls, both paddles and map obstacles.
//
// Every function is pure with respect to the state it is handed: no clocks,
// no I/O. Randomness is drawn from the supplied Rand so runs are
// reproducible under a fixed seed. The constants are exported so client-side
// prediction uses the same values as the server.
package physics

import (
	"math"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/game"
)

// Shared tuning. Speeds are in table units per second.
const (
	MaxAngle     = math.Pi / 4 // steepest paddle return
	ServeAngle   = math.Pi / 6 // steepest serve
	MinBallSpeed = 200.0       // floor on |speedX| after a paddle return
	MaxBallSpeed = 1200.0      // cap on speed magnitude
	SpeedUp      = 1.05        // multiplier applied on every paddle return
	WallJitter   = 15.0        // bound on the random vertical perturbation
	ScoreMargin  = 20.0        // distance beyond the table edge that counts as a goal
	MinVertical  = 10.0        // floor on |speedY| after a perturbed bounce
)

// Rand is the subset of *rand.Rand the physics needs.
type Rand interface {
	Float64() float64
}

// Contact classifies how the ball met a paddle.
type Contact int

const (
	ContactFace Contact = iota // front face, angle-mapped return
	ContactEdge                // top or bottom of the paddle
)

// Hit describes a paddle collision.
type Hit struct {
	Player  game.PlayerNumber
	Contact Contact
	X, Y    float64
}

// Scoring is the outcome of ResolveScoring.
type Scoring struct {
	Scored bool
	Scorer game.PlayerNumber
}

// AdvanceBall moves the ball by its velocity for dt seconds.
func AdvanceBall(b *game.Ball, dt float64) {
	b.X += b.SpeedX * dt
	b.Y += b.SpeedY * dt
}

// ResolveWallCollision reflects the ball off the top and bottom walls.
// It reports whether a bounce occurred.
func ResolveWallCollision(b *game.Ball, t game.Table, rng Rand) bool {
	switch {
	case b.Y-b.Radius <= 0:
		b.Y = b.Radius
		reflectVertical(b, 1, rng)
		return true
	case b.Y+b.Radius >= t.Height:
		b.Y = t.Height - b.Radius
		reflectVertical(b, -1, rng)
		return true
	}
	return false
}

// reflectVertical points speedY in direction dir (+1 down, -1 up), perturbs
// it by at most WallJitter, then rescales so the overall speed magnitude is
// unchanged.
func reflectVertical(b *game.Ball, dir float64, rng Rand) {
	speed := b.Speed()
	vy := math.Abs(b.SpeedY) + jitter(rng)
	if vy < MinVertical {
		vy = MinVertical
	}
	b.SpeedY = dir * vy
	rescale(b, speed)
}

// jitter returns a value in [-WallJitter, WallJitter).
func jitter(rng Rand) float64 {
	return (rng.Float64()*2 - 1) * WallJitter
}

// rescale scales the velocity to the given magnitude. A resting ball stays
// at rest.
func rescale(b *game.Ball, speed float64) {
	cur := b.Speed()
	if cur == 0 || speed == 0 {
		return
	}
	k := speed / cur
	b.SpeedX *= k
	b.SpeedY *= k
}

// ResolvePaddleCollision tests the ball against both paddles and resolves at
// most one hit. The ball ends inside the table.
func ResolvePaddleCollision(b *game.Ball, p1, p2 *game.Paddle, t game.Table, rng Rand) (Hit, bool) {
	hit, ok := collidePaddle(b, p1, game.Player1, 1, rng)
	if !ok {
		hit, ok = collidePaddle(b, p2, game.Player2, -1, rng)
	}
	if ok {
		contain(b, t)
		hit.Y = b.Y
	}
	return hit, ok
}

// contain pulls a ball that was pushed past the top or bottom wall back
// inside and points it away from that wall.
func contain(b *game.Ball, t game.Table) {
	switch {
	case b.Y-b.Radius < 0:
		b.Y = b.Radius
		b.SpeedY = math.Abs(b.SpeedY)
	case b.Y+b.Radius > t.Height:
		b.Y = t.Height - b.Radius
		b.SpeedY = -math.Abs(b.SpeedY)
	}
}

// collidePaddle resolves a collision with one paddle. dir is the horizontal
// direction the ball must travel after a face hit: +1 away from the left
// paddle, -1 away from the right one.
func collidePaddle(b *game.Ball, p *game.Paddle, player game.PlayerNumber, dir float64, rng Rand) (Hit, bool) {
	box := p.Bounds()
	touching, dx, dy := box.CircleIntersects(b.X, b.Y, b.Radius)
	if !touching {
		return Hit{}, false
	}

	// Ball centre inside the box: treat as a face hit so it is expelled
	// towards the opponent.
	if dx == 0 && dy == 0 {
		dx = dir
	}

	if math.Abs(dx) >= math.Abs(dy) {
		// Already leaving this paddle; a second hit would trap it.
		if b.SpeedX*dir > 0 {
			return Hit{}, false
		}
		faceReturn(b, p, dir)
		if dir > 0 {
			b.X = box.MaxX + b.Radius
		} else {
			b.X = box.MinX - b.Radius
		}
		return Hit{Player: player, Contact: ContactFace, X: b.X, Y: b.Y}, true
	}

	// Top or bottom of the paddle. speedX is left untouched unless the
	// speed cap forces a rescale.
	vy := math.Max(math.Abs(b.SpeedY)+math.Abs(jitter(rng)), MinVertical)
	if dy < 0 {
		b.Y = box.MinY - b.Radius
		b.SpeedY = -vy
	} else {
		b.Y = box.MaxY + b.Radius
		b.SpeedY = vy
	}
	if b.Speed() > MaxBallSpeed {
		rescale(b, MaxBallSpeed)
	}
	return Hit{Player: player, Contact: ContactEdge, X: b.X, Y: b.Y}, true
}

// faceReturn maps the vertical offset of the ball on the paddle to a return
// angle, preserving the pre-hit speed magnitude before the speed-up.
func faceReturn(b *game.Ball, p *game.Paddle, dir float64) {
	speed := b.Speed()
	rel := 0.0
	if p.Height > 0 {
		rel = core.ClampF((b.Y-p.Y)/(p.Height/2), -1, 1)
	}
	angle := rel * MaxAngle

	b.SpeedX = dir * math.Cos(angle) * speed
	b.SpeedY = math.Sin(angle) * speed

	if math.Abs(b.SpeedX) < MinBallSpeed {
		b.SpeedX = dir * MinBallSpeed
	}

	b.SpeedX *= SpeedUp
	b.SpeedY *= SpeedUp
	if b.Speed() > MaxBallSpeed {
		rescale(b, MaxBallSpeed)
	}
}

// ResolveObstacleCollision reflects the ball off the first obstacle it
// touches and pushes it outside along the collision axis, staying inside
// the table.
func ResolveObstacleCollision(b *game.Ball, obstacles []core.Rect, t game.Table) bool {
	for _, o := range obstacles {
		touching, dx, dy := o.CircleIntersects(b.X, b.Y, b.Radius)
		if !touching {
			continue
		}
		if dx == 0 && dy == 0 {
			// Centre inside: leave along the axis of least penetration.
			left, right := b.X-o.MinX, o.MaxX-b.X
			top, bottom := b.Y-o.MinY, o.MaxY-b.Y
			switch math.Min(math.Min(left, right), math.Min(top, bottom)) {
			case left:
				dx = -1
			case right:
				dx = 1
			case top:
				dy = -1
			default:
				dy = 1
			}
		}
		if math.Abs(dx) >= math.Abs(dy) {
			if dx < 0 {
				b.X = o.MinX - b.Radius
				b.SpeedX = -math.Abs(b.SpeedX)
			} else {
				b.X = o.MaxX + b.Radius
				b.SpeedX = math.Abs(b.SpeedX)
			}
		} else {
			if dy < 0 {
				b.Y = o.MinY - b.Radius
				b.SpeedY = -math.Abs(b.SpeedY)
			} else {
				b.Y = o.MaxY + b.Radius
				b.SpeedY = math.Abs(b.SpeedY)
			}
		}
		contain(b, t)
		return true
	}
	return false
}

// ResolveScoring reports a goal once the ball's leading edge has passed
// ScoreMargin beyond either end of the table.
func ResolveScoring(b *game.Ball, t game.Table) Scoring {
	switch {
	case b.X-b.Radius < -ScoreMargin:
		return Scoring{Scored: true, Scorer: game.Player2}
	case b.X+b.Radius > t.Width+ScoreMargin:
		return Scoring{Scored: true, Scorer: game.Player1}
	}
	return Scoring{}
}

// ResetBall centres the ball and serves it at speed towards the given
// player, at a random angle within ServeAngle.
func ResetBall(b *game.Ball, t game.Table, speed float64, towards game.PlayerNumber, rng Rand) {
	b.X = t.Width / 2
	b.Y = t.Height / 2

	dir := 1.0
	if towards == game.Player1 {
		dir = -1
	}
	angle := (rng.Float64()*2 - 1) * ServeAngle
	b.SpeedX = dir * math.Cos(angle) * speed
	b.SpeedY = math.Sin(angle) * speed
}
