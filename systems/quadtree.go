package systems

import (
	"errors"

	"github.com/mlange-42/ark/ecs"
)

// ErrInvalidCapacity is returned when a quadtree is constructed with a
// node capacity below 1. Such a tree would subdivide forever on the
// first insertion.
var ErrInvalidCapacity = errors.New("quadtree: node capacity must be at least 1")

// Item is one stored point: the entity handle plus the position captured
// at insertion time. Positions are not re-validated after a point moves;
// the tree is rebuilt from scratch every tick instead.
type Item struct {
	E    ecs.Entity
	X, Y float32
}

// Child quadrant indices. Queries and walks recurse in NW, NE, SW, SE
// order; callers must not depend on result order for correctness, only
// deterministic test output does.
const (
	childNE = iota
	childNW
	childSE
	childSW
)

// Quadtree is a region-partitioning index over 2D points. A node holds
// items directly until it reaches capacity, then splits into four
// quadrant children. The whole tree is rebuilt every tick, so there is
// no removal or rebalancing.
type Quadtree struct {
	boundary    Rect
	capacity    int
	legacySplit bool

	items    []Item
	divided  bool
	children [4]*Quadtree
}

// NewQuadtree creates an empty leaf covering boundary. With legacySplit
// set, subdivision keeps the held items on the now-internal node (still
// query-visible) and discards the insertion that triggered the split.
// Otherwise held items are redistributed into the children and nothing
// is lost.
func NewQuadtree(boundary Rect, capacity int, legacySplit bool) (*Quadtree, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return newNode(boundary, capacity, legacySplit), nil
}

// newNode skips validation; child nodes inherit a checked capacity.
func newNode(boundary Rect, capacity int, legacySplit bool) *Quadtree {
	return &Quadtree{
		boundary:    boundary,
		capacity:    capacity,
		legacySplit: legacySplit,
		items:       make([]Item, 0, capacity),
	}
}

// Insert stores a point and reports whether it was kept. A point outside
// the node's boundary matches no child during descent and is silently
// dropped (returns false); the caller counts drops for telemetry. No
// bounds check runs at the root itself, so a leaf root accepts
// out-of-bounds points until its first subdivision.
func (q *Quadtree) Insert(e ecs.Entity, x, y float32) bool {
	if q.divided {
		return q.insertChild(e, x, y)
	}

	if len(q.items) < q.capacity {
		q.items = append(q.items, Item{E: e, X: x, Y: y})
		return true
	}

	q.subdivide()
	if q.legacySplit {
		// Legacy policy: the triggering point goes nowhere.
		return false
	}
	return q.insertChild(e, x, y)
}

// insertChild descends into the unique child whose boundary contains the
// position. Half-open containment means at most one child can claim it.
func (q *Quadtree) insertChild(e ecs.Entity, x, y float32) bool {
	for _, c := range q.children {
		if c.boundary.Contains(x, y) {
			return c.Insert(e, x, y)
		}
	}
	return false
}

// subdivide quarters the boundary into NE, NW, SE, SW children. The
// split is irreversible for the node's lifetime.
func (q *Quadtree) subdivide() {
	x, y := q.boundary.X, q.boundary.Y
	hw := q.boundary.W / 2
	hh := q.boundary.H / 2

	q.children[childNE] = newNode(Rect{X: x + hw, Y: y, W: hw, H: hh}, q.capacity, q.legacySplit)
	q.children[childNW] = newNode(Rect{X: x, Y: y, W: hw, H: hh}, q.capacity, q.legacySplit)
	q.children[childSE] = newNode(Rect{X: x + hw, Y: y + hh, W: hw, H: hh}, q.capacity, q.legacySplit)
	q.children[childSW] = newNode(Rect{X: x, Y: y + hh, W: hw, H: hh}, q.capacity, q.legacySplit)
	q.divided = true

	if q.legacySplit {
		return
	}

	// Move held items down into the children. Items that escape every
	// child were out of bounds to begin with and stay lost.
	for _, it := range q.items {
		q.insertChild(it.E, it.X, it.Y)
	}
	q.items = nil
}

// QueryCircle returns all stored points inside the range as a fresh slice.
func (q *Quadtree) QueryCircle(c Circle) []Item {
	return q.QueryCircleInto(nil, c)
}

// QueryCircleInto finds stored points inside the range and appends them
// to dst, returning the updated slice. Reuse dst across calls to avoid
// allocations. Subtrees whose boundary misses the circle are pruned.
func (q *Quadtree) QueryCircleInto(dst []Item, c Circle) []Item {
	if !c.OverlapsRect(q.boundary) {
		return dst
	}

	// Internal nodes hold items only under the legacy split policy.
	for _, it := range q.items {
		if c.Contains(it.X, it.Y) {
			dst = append(dst, it)
		}
	}

	if q.divided {
		dst = q.children[childNW].QueryCircleInto(dst, c)
		dst = q.children[childNE].QueryCircleInto(dst, c)
		dst = q.children[childSW].QueryCircleInto(dst, c)
		dst = q.children[childSE].QueryCircleInto(dst, c)
	}

	return dst
}

// Walk visits every node top-down, NW, NE, SW, SE among siblings. Used
// for the debug overlay and structural assertions.
func (q *Quadtree) Walk(fn func(boundary Rect, divided bool)) {
	fn(q.boundary, q.divided)
	if q.divided {
		q.children[childNW].Walk(fn)
		q.children[childNE].Walk(fn)
		q.children[childSW].Walk(fn)
		q.children[childSE].Walk(fn)
	}
}

// Boundary returns the node's covering rectangle.
func (q *Quadtree) Boundary() Rect {
	return q.boundary
}

// Divided reports whether the node has split into four children.
func (q *Quadtree) Divided() bool {
	return q.divided
}

// Len returns the number of items held across the whole subtree.
func (q *Quadtree) Len() int {
	n := len(q.items)
	if q.divided {
		for _, c := range q.children {
			n += c.Len()
		}
	}
	return n
}

// Nodes returns the number of nodes in the subtree, this one included.
func (q *Quadtree) Nodes() int {
	n := 1
	if q.divided {
		for _, c := range q.children {
			n += c.Nodes()
		}
	}
	return n
}

// Depth returns the height of the subtree; a lone leaf has depth 1.
func (q *Quadtree) Depth() int {
	if !q.divided {
		return 1
	}
	max := 0
	for _, c := range q.children {
		if d := c.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}
