package components

// Position represents a point's world position.
type Position struct {
	X, Y float32
}
