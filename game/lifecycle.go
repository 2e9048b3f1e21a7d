package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/ItBeCharlie/quadtree-vis/components"
	"github.com/ItBeCharlie/quadtree-vis/config"
	"github.com/ItBeCharlie/quadtree-vis/systems"
)

// spawnPoints populates the world with the configured point count. Points
// are scattered by a random walk starting at the world center, so the
// initial cloud is clustered rather than uniform and the first few ticks
// show the quadtree subdividing around it.
func (g *Game) spawnPoints() {
	cfg := config.Cfg()

	x := g.worldWidth / 2
	y := g.worldHeight / 2
	radius := cfg.Derived.Radius32

	for i := 0; i < cfg.Points.Count; i++ {
		x = systems.Wrap(x+g.jitter(), g.worldWidth)
		y = systems.Wrap(y+g.jitter(), g.worldHeight)

		pos := components.Position{X: x, Y: y}
		body := components.Body{Radius: radius}
		overlap := components.Overlap{State: components.StateNormal}
		g.pointMapper.NewEntity(&pos, &body, &overlap)
	}

	g.pointCount = cfg.Points.Count
	g.overlapCount = 0
	g.droppedCount = 0
}

// jitter returns a uniform offset in [-step, step).
func (g *Game) jitter() float32 {
	return (g.rng.Float32()*2 - 1) * g.stepSize
}

// Reset removes every point and respawns a fresh cloud. The index is
// rebuilt on the next step.
func (g *Game) Reset() {
	var toRemove []ecs.Entity
	query := g.pointFilter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	for _, e := range toRemove {
		g.world.RemoveEntity(e)
	}

	g.spawnPoints()
	slog.Info("points reset", "count", g.pointCount, "tick", g.tick)
}
