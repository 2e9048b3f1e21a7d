// Package systems provides the spatial index and per-tick point motion.
package systems

import "math"

// Rect is an axis-aligned rectangle. Y grows downward, matching screen
// coordinates, so "north" children of a quadtree node sit at smaller Y.
type Rect struct {
	X, Y, W, H float32
}

// Contains reports whether the point lies inside the rectangle.
// Containment is half-open: the left and top edges belong to the
// rectangle, the right and bottom edges do not. A point exactly on a
// quadtree dividing line therefore belongs to the east or south child.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Circle is a circular query range.
type Circle struct {
	X, Y float32
	R    float32
}

// Contains reports whether the point lies strictly inside the circle.
// Strictness matches CirclesOverlap so both overlap tests agree on the
// boundary case.
func (c Circle) Contains(x, y float32) bool {
	return distanceSq(c.X, c.Y, x, y) < c.R*c.R
}

// OverlapsRect reports whether the circle and rectangle share any area.
// Uses the closest point on the rectangle to the circle center.
func (c Circle) OverlapsRect(r Rect) bool {
	nx := clampFloat(c.X, r.X, r.X+r.W)
	ny := clampFloat(c.Y, r.Y, r.Y+r.H)
	return distanceSq(c.X, c.Y, nx, ny) <= c.R*c.R
}

// CirclesOverlap reports whether two circles intersect: squared center
// distance strictly below the squared radius sum. This is the exact
// pairwise test; the per-tick classification uses a fixed-radius query
// neighborhood instead, and tests compare the two.
func CirclesOverlap(x1, y1, r1, x2, y2, r2 float32) bool {
	rr := r1 + r2
	return distanceSq(x1, y1, x2, y2) < rr*rr
}

// clampFloat clamps a float32 value between min and max.
func clampFloat(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// distanceSq returns the squared distance between two points.
func distanceSq(x1, y1, x2, y2 float32) float32 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}

// mod returns positive modulo (Go's % can return negative).
func mod(a, b float32) float32 {
	return float32(math.Mod(float64(a)+float64(b), float64(b)))
}

// ToroidalDelta returns the shortest path delta from (x1,y1) to (x2,y2)
// on a wrapped world of the given size.
func ToroidalDelta(x1, y1, x2, y2, w, h float32) (dx, dy float32) {
	dx = x2 - x1
	dy = y2 - y1

	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	if dy > h/2 {
		dy -= h
	} else if dy < -h/2 {
		dy += h
	}

	return dx, dy
}
