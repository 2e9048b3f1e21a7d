package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/ItBeCharlie/quadtree-vis/components"
	"github.com/ItBeCharlie/quadtree-vis/config"
	"github.com/ItBeCharlie/quadtree-vis/systems"
)

// newHeadlessGame builds a game from the default config with a fixed seed.
func newHeadlessGame(t *testing.T) *Game {
	t.Helper()
	config.MustInit("")

	g, err := NewGameWithOptions(Options{Seed: 42, Headless: true, StepsPerUpdate: 1})
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

// newHeadlessGameWithConfig writes the given YAML overlay to a temp file,
// loads it on top of the defaults, and builds a headless game from it.
func newHeadlessGameWithConfig(t *testing.T, overlay string) *Game {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("writing config overlay: %v", err)
	}
	config.MustInit(path)

	g, err := NewGameWithOptions(Options{Seed: 42, Headless: true, StepsPerUpdate: 1})
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

func TestGame_SpawnMatchesConfiguredCount(t *testing.T) {
	g := newHeadlessGame(t)

	cfg := config.Cfg()
	count := 0
	query := g.pointFilter.Query()
	for query.Next() {
		pos, body, _ := query.Get()
		if pos.X < 0 || pos.X >= g.worldWidth || pos.Y < 0 || pos.Y >= g.worldHeight {
			t.Fatalf("spawned point out of bounds: (%v, %v)", pos.X, pos.Y)
		}
		if body.Radius != cfg.Derived.Radius32 {
			t.Fatalf("expected radius %v, got %v", cfg.Derived.Radius32, body.Radius)
		}
		count++
	}

	if count != cfg.Points.Count {
		t.Errorf("expected %d points, got %d", cfg.Points.Count, count)
	}
}

func TestGame_StepKeepsPointsWithinBounds(t *testing.T) {
	g := newHeadlessGame(t)

	for i := 0; i < 50; i++ {
		g.UpdateHeadless()
	}

	query := g.pointFilter.Query()
	for query.Next() {
		pos, _, _ := query.Get()
		if pos.X < 0 || pos.X >= g.worldWidth || pos.Y < 0 || pos.Y >= g.worldHeight {
			t.Fatalf("point escaped world after walk: (%v, %v)", pos.X, pos.Y)
		}
	}
}

func TestGame_StepDisplacementEqualsStep(t *testing.T) {
	g := newHeadlessGame(t)

	before := make(map[ecs.Entity]components.Position)
	query := g.pointFilter.Query()
	for query.Next() {
		pos, _, _ := query.Get()
		before[query.Entity()] = *pos
	}

	g.UpdateHeadless()

	const tolerance = 0.01
	for entity, old := range before {
		pos := g.posMap.Get(entity)
		if pos == nil {
			t.Fatal("point vanished during step")
		}
		dx, dy := systems.ToroidalDelta(old.X, old.Y, pos.X, pos.Y, g.worldWidth, g.worldHeight)
		dist := float64(dx*dx + dy*dy)
		want := float64(g.stepSize * g.stepSize)
		if dist < want-tolerance*want || dist > want+tolerance*want {
			t.Fatalf("displacement² %v, want %v", dist, want)
		}
	}
}

func TestGame_RebuildAccountsForEveryPoint(t *testing.T) {
	g := newHeadlessGame(t)

	g.UpdateHeadless()

	qt := g.Quadtree()
	if qt == nil {
		t.Fatal("expected index after first step")
	}

	if qt.Len()+g.droppedCount != g.pointCount {
		t.Errorf("held %d + dropped %d != points %d", qt.Len(), g.droppedCount, g.pointCount)
	}

	// The default split policy redistributes, so nothing is lost.
	if g.droppedCount != 0 {
		t.Errorf("expected no drops with redistributing split, got %d", g.droppedCount)
	}
	if qt.Len() != g.pointCount {
		t.Errorf("index holds %d of %d points", qt.Len(), g.pointCount)
	}
}

func TestGame_LegacySplitMayDropPoints(t *testing.T) {
	g := newHeadlessGameWithConfig(t, "quadtree:\n  legacy_split: true\n  capacity: 2\n")

	g.UpdateHeadless()

	qt := g.Quadtree()
	if qt.Len()+g.droppedCount != g.pointCount {
		t.Errorf("held %d + dropped %d != points %d", qt.Len(), g.droppedCount, g.pointCount)
	}

	// 2000 clustered points against capacity 2 forces subdivisions, and
	// the legacy policy discards the point that triggers each one.
	if g.droppedCount == 0 {
		t.Error("expected drops under legacy split with tiny capacity")
	}
}

func TestGame_OverlapClassification(t *testing.T) {
	g := newHeadlessGameWithConfig(t, "points:\n  count: 0\nwalk:\n  step: 0\n")

	spawn := func(x, y float32) ecs.Entity {
		pos := components.Position{X: x, Y: y}
		body := components.Body{Radius: 5}
		overlap := components.Overlap{}
		return g.pointMapper.NewEntity(&pos, &body, &overlap)
	}

	// Centers 2 apart, query radius 10: overlapping both ways.
	a := spawn(10, 10)
	b := spawn(12, 10)
	// Far from everything.
	c := spawn(500, 500)

	g.UpdateHeadless()

	if g.overlapMap.Get(a).State != components.StateOverlapping {
		t.Error("expected first point of close pair to be overlapping")
	}
	if g.overlapMap.Get(b).State != components.StateOverlapping {
		t.Error("expected second point of close pair to be overlapping")
	}
	if g.overlapMap.Get(c).State != components.StateNormal {
		t.Error("expected isolated point to stay normal")
	}
	if g.overlapCount != 2 {
		t.Errorf("expected overlap count 2, got %d", g.overlapCount)
	}
}

func TestGame_ClassificationMatchesBruteForce(t *testing.T) {
	g := newHeadlessGame(t)

	// Default count is well above the parallel threshold, so this
	// exercises the worker-pool path against a serial reference.
	g.UpdateHeadless()

	type snap struct {
		entity ecs.Entity
		x, y   float32
		r      float32
		state  components.OverlapState
	}
	var points []snap
	query := g.pointFilter.Query()
	for query.Next() {
		pos, body, overlap := query.Get()
		points = append(points, snap{
			entity: query.Entity(),
			x:      pos.X,
			y:      pos.Y,
			r:      g.queryMul * body.Radius,
			state:  overlap.State,
		})
	}

	for i := range points {
		p := &points[i]
		want := components.StateNormal
		for j := range points {
			if i == j {
				continue
			}
			dx := points[j].x - p.x
			dy := points[j].y - p.y
			if dx*dx+dy*dy < p.r*p.r {
				want = components.StateOverlapping
				break
			}
		}
		if p.state != want {
			t.Fatalf("point %d at (%v, %v): state %v, brute force says %v",
				i, p.x, p.y, p.state, want)
		}
	}
}

func TestGame_EmptyWorldSteps(t *testing.T) {
	g := newHeadlessGameWithConfig(t, "points:\n  count: 0\n")

	for i := 0; i < 10; i++ {
		g.UpdateHeadless()
	}

	if g.pointCount != 0 || g.overlapCount != 0 || g.droppedCount != 0 {
		t.Errorf("expected empty counts, got points=%d overlapping=%d dropped=%d",
			g.pointCount, g.overlapCount, g.droppedCount)
	}
	if g.Quadtree().Len() != 0 {
		t.Error("expected empty index")
	}
}

func TestGame_ResetRegeneratesPoints(t *testing.T) {
	g := newHeadlessGame(t)

	for i := 0; i < 5; i++ {
		g.UpdateHeadless()
	}
	tickBefore := g.Tick()

	g.Reset()

	count := 0
	query := g.pointFilter.Query()
	for query.Next() {
		count++
	}
	if count != config.Cfg().Points.Count {
		t.Errorf("expected %d points after reset, got %d", config.Cfg().Points.Count, count)
	}
	if g.Tick() != tickBefore {
		t.Errorf("reset should not rewind the tick counter: %d != %d", g.Tick(), tickBefore)
	}

	// Simulation continues normally after a reset.
	g.UpdateHeadless()
	if g.Quadtree().Len()+g.droppedCount != g.pointCount {
		t.Error("rebuild accounting broken after reset")
	}
}

func TestGame_InvalidCapacityRejected(t *testing.T) {
	config.MustInit("")
	cfg := config.Cfg()
	cfg.Quadtree.Capacity = 0

	_, err := NewGameWithOptions(Options{Seed: 1, Headless: true})
	if err == nil {
		t.Fatal("expected error for zero capacity")
	}

	// Restore defaults for subsequent tests.
	config.MustInit("")
}

func TestGame_StepSizeTunableFreezesWalk(t *testing.T) {
	g := newHeadlessGame(t)

	// The panel can drive the walk distance to zero between frames; the
	// pipeline must keep ticking with stationary points.
	g.stepSize = 0

	before := make(map[ecs.Entity]components.Position)
	query := g.pointFilter.Query()
	for query.Next() {
		pos, _, _ := query.Get()
		before[query.Entity()] = *pos
	}

	g.UpdateHeadless()

	if g.Tick() != 1 {
		t.Fatalf("expected tick 1, got %d", g.Tick())
	}
	for entity, old := range before {
		pos := g.posMap.Get(entity)
		if pos.X != old.X || pos.Y != old.Y {
			t.Fatalf("point moved with zero step: (%v, %v) -> (%v, %v)",
				old.X, old.Y, pos.X, pos.Y)
		}
	}
}

func TestGame_StepsPerUpdateMultiplier(t *testing.T) {
	g := newHeadlessGame(t)
	g.stepsPerUpdate = 4

	g.UpdateHeadless()

	if g.Tick() != 4 {
		t.Errorf("expected tick 4 after one update at 4x, got %d", g.Tick())
	}
}
