package systems

import (
	"math"
	"math/rand"

	"github.com/ItBeCharlie/quadtree-vis/components"
)

// RandomWalk moves the point a fixed step in a uniformly random
// direction and wraps the result onto the toroidal world. The rng is
// injected so tests can use a deterministic source.
func RandomWalk(rng *rand.Rand, pos *components.Position, step, worldW, worldH float32) {
	angle := rng.Float64() * 2 * math.Pi
	dx := step * float32(math.Cos(angle))
	dy := step * float32(math.Sin(angle))

	pos.X = Wrap(pos.X+dx, worldW)
	pos.Y = Wrap(pos.Y+dy, worldH)
}

// Wrap maps v onto [0, max). The intermediate v+max keeps the modulo
// argument positive for any v one world-width below zero, which covers
// every bounded walk step.
func Wrap(v, max float32) float32 {
	return mod(v, max)
}
