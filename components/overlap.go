// Package components defines the ECS components carried by every point.
package components

// OverlapState classifies a point by its neighborhood query result.
type OverlapState uint8

const (
	// StateNormal marks a point with no neighbor inside its query circle.
	StateNormal OverlapState = iota
	// StateOverlapping marks a point whose query circle returned more
	// than the point itself.
	StateOverlapping
)

// Overlap holds the classification derived each tick. It is not carried
// across ticks beyond serving as the previous frame's visual state.
type Overlap struct {
	State OverlapState
}
