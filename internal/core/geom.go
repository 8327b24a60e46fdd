// Package core provides fundamental geometry helpers shared by the simulation
// and the terminal client. It has no external dependencies so game logic
// stays pure and testable.
package core

import "math"

// Rect represents an axis-aligned bounding box used for collision detection.
// Coordinates are in table units; MinX/MinY is the top-left corner.
type Rect struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// NewRect creates a rectangle from its top-left corner and dimensions.
func NewRect(x, y, w, h float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// RectAround creates a rectangle centred on (cx, cy).
func RectAround(cx, cy, w, h float64) Rect {
	return Rect{MinX: cx - w/2, MinY: cy - h/2, MaxX: cx + w/2, MaxY: cy + h/2}
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 {
	return r.MaxX - r.MinX
}

// Height returns the vertical extent.
func (r Rect) Height() float64 {
	return r.MaxY - r.MinY
}

// Center returns the centre point of the rectangle.
func (r Rect) Center() (float64, float64) {
	return (r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2
}

// Intersects returns true if this rectangle overlaps with another.
// Touching edges do not count as overlap.
func (r Rect) Intersects(other Rect) bool {
	if r.MinX >= other.MaxX || other.MinX >= r.MaxX {
		return false
	}
	if r.MinY >= other.MaxY || other.MinY >= r.MaxY {
		return false
	}
	return true
}

// Contains returns true if the point (x, y) is inside this rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// ClosestPoint returns the point of the rectangle closest to (x, y).
// Points inside the rectangle map to themselves.
func (r Rect) ClosestPoint(x, y float64) (float64, float64) {
	return ClampF(x, r.MinX, r.MaxX), ClampF(y, r.MinY, r.MaxY)
}

// CircleIntersects reports whether a circle of radius rad centred on (x, y)
// touches the rectangle. It also returns the offset from the closest point
// on the rectangle to the circle centre.
func (r Rect) CircleIntersects(x, y, rad float64) (hit bool, dx, dy float64) {
	cx, cy := r.ClosestPoint(x, y)
	dx = x - cx
	dy = y - cy
	return dx*dx+dy*dy <= rad*rad, dx, dy
}

// CirclesOverlap reports whether two circles touch.
func CirclesOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x1 - x2
	dy := y1 - y2
	rr := r1 + r2
	return dx*dx+dy*dy <= rr*rr
}

// Distance returns the euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x1-x2, y1-y2)
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Sign returns -1 for negative values and 1 otherwise.
func Sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
