package netsync

import (
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/game"
)

// Sample is one timestamped position received from the server. Extent is
// the half-size of the object along its movement axis: the radius of the
// ball or half the height of a paddle.
type Sample struct {
	At     time.Time
	X, Y   float64
	Extent float64
}

// InterpolatorConfig tunes one Interpolator.
type InterpolatorConfig struct {
	Delay            time.Duration // render this far behind the newest sample
	MaxSamples       int
	MaxExtrapolation time.Duration
	BoundaryMargin   float64 // hold instead of extrapolating this close to a boundary
}

// PaddleConfig is used for the opponent's paddle.
func PaddleConfig() InterpolatorConfig {
	return InterpolatorConfig{
		Delay:            100 * time.Millisecond,
		MaxSamples:       32,
		MaxExtrapolation: 100 * time.Millisecond,
		BoundaryMargin:   4,
	}
}

// BallConfig is used for the ball. The ball changes direction abruptly,
// so it renders further behind.
func BallConfig() InterpolatorConfig {
	return InterpolatorConfig{
		Delay:            150 * time.Millisecond,
		MaxSamples:       32,
		MaxExtrapolation: 80 * time.Millisecond,
		BoundaryMargin:   12,
	}
}

// Interpolator renders a remote object slightly in the past by blending
// the two samples around the render time.
type Interpolator struct {
	cfg     InterpolatorConfig
	table   game.Table
	hold    func(s Sample) bool
	samples []Sample
}

// NewPaddleInterpolator creates an interpolator for a remote paddle.
func NewPaddleInterpolator(t game.Table) *Interpolator {
	ip := &Interpolator{cfg: PaddleConfig(), table: t}
	ip.hold = func(s Sample) bool {
		return s.Y-s.Extent <= ip.cfg.BoundaryMargin || s.Y+s.Extent >= t.Height-ip.cfg.BoundaryMargin
	}
	return ip
}

// NewBallInterpolator creates an interpolator for the ball. It holds
// position near the walls and near either paddle line.
func NewBallInterpolator(t game.Table) *Interpolator {
	ip := &Interpolator{cfg: BallConfig(), table: t}
	ip.hold = func(s Sample) bool {
		m := ip.cfg.BoundaryMargin
		nearWall := s.Y-s.Extent <= m || s.Y+s.Extent >= t.Height-m
		paddleLine := game.PaddleInset + game.PaddleWidth/2
		nearPaddle := s.X-s.Extent <= paddleLine+m || s.X+s.Extent >= t.Width-paddleLine-m
		return nearWall || nearPaddle
	}
	return ip
}

// Len returns the number of buffered samples.
func (ip *Interpolator) Len() int {
	return len(ip.samples)
}

// Reset drops every sample, for example after a serve teleports the ball.
func (ip *Interpolator) Reset() {
	ip.samples = ip.samples[:0]
}

// Push buffers a sample. Samples not newer than the last one are dropped.
func (ip *Interpolator) Push(s Sample) {
	if n := len(ip.samples); n > 0 && !s.At.After(ip.samples[n-1].At) {
		return
	}
	ip.samples = append(ip.samples, s)
	if limit := ip.cfg.MaxSamples; limit > 0 && len(ip.samples) > limit {
		ip.samples = ip.samples[len(ip.samples)-limit:]
	}
}

// At returns the position to draw at now. It reports false when nothing
// has been received yet.
func (ip *Interpolator) At(now time.Time) (x, y float64, ok bool) {
	n := len(ip.samples)
	if n == 0 {
		return 0, 0, false
	}
	rt := now.Add(-ip.cfg.Delay)

	first, newest := ip.samples[0], ip.samples[n-1]
	if !rt.After(first.At) {
		return first.X, first.Y, true
	}
	if rt.After(newest.At) {
		x, y = ip.extrapolate(rt)
		return x, y, true
	}

	for i := 1; i < n; i++ {
		a, b := ip.samples[i-1], ip.samples[i]
		if rt.After(b.At) {
			continue
		}
		span := b.At.Sub(a.At).Seconds()
		t := rt.Sub(a.At).Seconds() / span
		e := easeInOut(t)
		return a.X + (b.X-a.X)*e, a.Y + (b.Y-a.Y)*e, true
	}
	return newest.X, newest.Y, true
}

// extrapolate projects the newest sample forward with the velocity of the
// last two samples. Near a boundary it holds position because the server
// may already have bounced the object.
func (ip *Interpolator) extrapolate(rt time.Time) (x, y float64) {
	n := len(ip.samples)
	newest := ip.samples[n-1]
	if n < 2 || ip.hold(newest) {
		return newest.X, newest.Y
	}
	prev := ip.samples[n-2]
	span := newest.At.Sub(prev.At).Seconds()
	ahead := min(rt.Sub(newest.At), ip.cfg.MaxExtrapolation).Seconds()

	vx := (newest.X - prev.X) / span
	vy := (newest.Y - prev.Y) / span
	x = newest.X + vx*ahead
	y = core.ClampF(newest.Y+vy*ahead, newest.Extent, ip.table.Height-newest.Extent)
	return x, y
}

// easeInOut is a quadratic ease-in-out curve over [0, 1].
func easeInOut(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < 0.5:
		return 2 * t * t
	default:
		u := -2*t + 2
		return 1 - u*u/2
	}
}
