package game

import (
	"log/slog"

	"github.com/ItBeCharlie/quadtree-vis/components"
	"github.com/ItBeCharlie/quadtree-vis/systems"
	"github.com/ItBeCharlie/quadtree-vis/telemetry"
)

// step runs one full pipeline pass: walk, rebuild, classify. The rebuild
// only starts once every point has moved, and classification only starts
// once the rebuild is complete, so each phase sees a consistent snapshot.
func (g *Game) step() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseWalk)
	g.movePoints()

	g.perfCollector.StartPhase(telemetry.PhaseRebuild)
	g.rebuildQuadtree()

	g.perfCollector.StartPhase(telemetry.PhaseClassify)
	g.classifyOverlaps()

	g.perfCollector.EndTick()

	g.tick++
	g.recordTickStats()
}

// movePoints perturbs every point by one random-walk step with toroidal
// wraparound.
func (g *Game) movePoints() {
	query := g.pointFilter.Query()
	for query.Next() {
		pos, _, _ := query.Get()
		systems.RandomWalk(g.rng, pos, g.stepSize, g.worldWidth, g.worldHeight)
	}
}

// rebuildQuadtree builds a fresh index over the world bounds and inserts
// every point in iteration order. Insertion order decides which points
// are lost at a subdivision under the legacy policy, so the order is part
// of the observable behavior.
func (g *Game) rebuildQuadtree() {
	qt, err := systems.NewQuadtree(g.worldBounds(), g.capacity, g.legacySplit)
	if err != nil {
		// Capacity is validated at load and clamped by the panel.
		slog.Error("quadtree rebuild failed", "error", err)
		return
	}

	count := 0
	dropped := 0
	query := g.pointFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _ := query.Get()
		count++
		if !qt.Insert(entity, pos.X, pos.Y) {
			dropped++
		}
	}

	g.qt = qt
	g.pointCount = count
	g.droppedCount = dropped
}

// classifyOverlaps queries the index once per point with a circle of
// twice the point radius (configurable multiplier) and tags the point as
// overlapping when anything beyond the point itself is found. This is a
// fixed-window approximation of the exact pairwise circle test, kept
// deliberately: the query radius does not depend on the neighbor's
// radius.
func (g *Game) classifyOverlaps() {
	if g.pointCount >= parallelThreshold {
		g.classifyOverlapsParallel()
		return
	}

	overlapping := 0
	query := g.pointFilter.Query()
	for query.Next() {
		pos, body, overlap := query.Get()

		g.queryBuf = g.qt.QueryCircleInto(g.queryBuf[:0], systems.Circle{
			X: pos.X,
			Y: pos.Y,
			R: g.queryMul * body.Radius,
		})

		// The query finds the point itself, so "more than one" means at
		// least one neighbor.
		if len(g.queryBuf) > 1 {
			overlap.State = components.StateOverlapping
			overlapping++
		} else {
			overlap.State = components.StateNormal
		}
	}

	g.overlapCount = overlapping
}

// recordTickStats feeds the telemetry collector and flushes a window when
// due.
func (g *Game) recordTickStats() {
	g.collector.Record(telemetry.TickStats{
		Points:      g.pointCount,
		Overlapping: g.overlapCount,
		Dropped:     g.droppedCount,
		TreeNodes:   g.qt.Nodes(),
		TreeDepth:   g.qt.Depth(),
		TreeHeld:    g.qt.Len(),
	})

	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	w := g.collector.Flush(g.tick)
	perf := g.perfCollector.Stats()

	if g.opts.LogStats {
		w.Log()
		perf.LogStats()
	}
	if err := g.output.WriteTelemetry(w); err != nil {
		slog.Error("writing telemetry", "error", err)
	}
	if err := g.output.WritePerf(perf, g.tick); err != nil {
		slog.Error("writing perf", "error", err)
	}
}
