// Package game orchestrates the per-tick pipeline: random walk, quadtree
// rebuild, overlap classification, and rendering.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/ItBeCharlie/quadtree-vis/camera"
	"github.com/ItBeCharlie/quadtree-vis/components"
	"github.com/ItBeCharlie/quadtree-vis/config"
	"github.com/ItBeCharlie/quadtree-vis/systems"
	"github.com/ItBeCharlie/quadtree-vis/telemetry"
	"github.com/ItBeCharlie/quadtree-vis/ui"
)

// Options configures game construction.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
	Headless       bool
	StepsPerUpdate int
}

// Game holds the complete simulation state.
type Game struct {
	world *ecs.World
	rng   *rand.Rand

	pointMapper *ecs.Map3[
		components.Position,
		components.Body,
		components.Overlap,
	]
	pointFilter *ecs.Filter3[
		components.Position,
		components.Body,
		components.Overlap,
	]

	// Individual component mappers for lookups
	posMap     *ecs.Map1[components.Position]
	bodyMap    *ecs.Map1[components.Body]
	overlapMap *ecs.Map1[components.Overlap]

	// Spatial index, rebuilt from scratch every tick
	qt *systems.Quadtree

	// Rendering collaborators (nil in headless mode usage paths)
	camera *camera.Camera
	panel  *ui.Panel

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	output        *telemetry.OutputManager

	opts Options

	// Tunables the panel can adjust between frames
	capacity    int
	stepSize    float32
	queryMul    float32
	legacySplit bool

	worldWidth, worldHeight   float32
	screenWidth, screenHeight float32

	// State
	tick           int32
	paused         bool
	showTree       bool
	stepsPerUpdate int
	pendingReset   bool

	pointCount   int
	overlapCount int
	droppedCount int

	// Scratch buffers
	queryBuf []systems.Item
	par      *parallelState
}

// NewGame creates a game with default options and a fixed seed.
func NewGame() (*Game, error) {
	return NewGameWithOptions(Options{Seed: 42, StepsPerUpdate: 1})
}

// NewGameWithOptions creates a game instance. config.Init must have been
// called first.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()
	world := ecs.NewWorld()

	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	targetFPS := cfg.Screen.TargetFPS
	if targetFPS <= 0 {
		targetFPS = 60
	}

	g := &Game{
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		opts:  opts,
		pointMapper: ecs.NewMap3[
			components.Position,
			components.Body,
			components.Overlap,
		](world),
		pointFilter: ecs.NewFilter3[
			components.Position,
			components.Body,
			components.Overlap,
		](world),
		posMap:     ecs.NewMap1[components.Position](world),
		bodyMap:    ecs.NewMap1[components.Body](world),
		overlapMap: ecs.NewMap1[components.Overlap](world),

		capacity:    cfg.Quadtree.Capacity,
		stepSize:    cfg.Derived.Step32,
		queryMul:    cfg.Derived.QueryMul,
		legacySplit: cfg.Quadtree.LegacySplit,

		worldWidth:   cfg.Derived.WorldW32,
		worldHeight:  cfg.Derived.WorldH32,
		screenWidth:  cfg.Derived.ScreenW32,
		screenHeight: cfg.Derived.ScreenH32,

		stepsPerUpdate: opts.StepsPerUpdate,

		collector:     telemetry.NewCollector(statsWindow, 1.0/float64(targetFPS)),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),

		par: newParallelState(),
	}

	// Fail early on a capacity the index itself would reject.
	if _, err := systems.NewQuadtree(g.worldBounds(), g.capacity, g.legacySplit); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}

	if !opts.Headless {
		g.camera = camera.New(g.screenWidth, g.screenHeight, g.worldWidth, g.worldHeight)
		g.panel = ui.NewPanel(10, 140, 230)
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	g.output = om
	if err := g.output.WriteConfig(cfg); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}

	g.spawnPoints()

	return g, nil
}

// worldBounds returns the root boundary for the spatial index.
func (g *Game) worldBounds() systems.Rect {
	return systems.Rect{W: g.worldWidth, H: g.worldHeight}
}

// Update runs input handling and one or more simulation steps.
func (g *Game) Update() {
	g.handleInput()

	if g.pendingReset {
		g.Reset()
		g.pendingReset = false
	}

	if g.paused {
		return
	}

	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// UpdateHeadless runs simulation steps without touching the input layer.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// Quadtree returns the most recently rebuilt index, nil before the first
// step. Read-only access for overlays and tests.
func (g *Game) Quadtree() *systems.Quadtree {
	return g.qt
}

// Unload stops workers and releases output files.
func (g *Game) Unload() {
	g.stopParallelWorkers()
	if err := g.output.Close(); err != nil {
		slog.Error("closing output", "error", err)
	}
}
