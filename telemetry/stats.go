// Package telemetry collects per-tick simulation statistics and timing.
package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// TickStats is the sample the game records once per simulation tick.
type TickStats struct {
	Points      int // points in the set
	Overlapping int // points classified as overlapping
	Dropped     int // insertions lost during this tick's rebuild
	TreeNodes   int // nodes in the rebuilt tree
	TreeDepth   int // height of the rebuilt tree
	TreeHeld    int // points actually stored in the tree
}

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Point set at window end
	Points      int `csv:"points"`
	Overlapping int `csv:"overlapping"`

	// Overlap fraction across the window's ticks
	OverlapFracMean float64 `csv:"overlap_frac_mean"`
	OverlapFracStd  float64 `csv:"overlap_frac_std"`

	// Tree shape at window end
	TreeNodes int `csv:"tree_nodes"`
	TreeDepth int `csv:"tree_depth"`
	TreeHeld  int `csv:"tree_held"`

	// Mean node count across the window's ticks
	TreeNodesMean float64 `csv:"tree_nodes_mean"`

	// Insertions dropped during the window (out-of-bounds points, plus
	// subdivision losses under the legacy split policy)
	Dropped int `csv:"dropped"`
}

// Log emits the window stats via slog.
func (w WindowStats) Log() {
	slog.Info("window stats",
		"window_end", w.WindowEndTick,
		"sim_time", w.SimTimeSec,
		"points", w.Points,
		"overlapping", w.Overlapping,
		"overlap_frac_mean", w.OverlapFracMean,
		"overlap_frac_std", w.OverlapFracStd,
		"tree_nodes", w.TreeNodes,
		"tree_depth", w.TreeDepth,
		"tree_held", w.TreeHeld,
		"dropped", w.Dropped,
	)
}

// Collector accumulates tick samples within time windows and produces
// WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	windowStartTick int32

	// Per-tick series for the current window
	overlapFrac []float64
	treeNodes   []float64

	// Running totals for the current window
	dropped int

	// Last sample, reported as window-end state
	last TickStats
}

// NewCollector creates a stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds.
// dt: seconds per tick (used for tick-to-time conversion).
func NewCollector(windowDurationSec float64, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record adds one tick's sample to the current window.
func (c *Collector) Record(s TickStats) {
	frac := 0.0
	if s.Points > 0 {
		frac = float64(s.Overlapping) / float64(s.Points)
	}
	c.overlapFrac = append(c.overlapFrac, frac)
	c.treeNodes = append(c.treeNodes, float64(s.TreeNodes))
	c.dropped += s.Dropped
	c.last = s
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets the window.
func (c *Collector) Flush(currentTick int32) WindowStats {
	fracMean, fracStd := meanStd(c.overlapFrac)
	nodesMean, _ := meanStd(c.treeNodes)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Points:      c.last.Points,
		Overlapping: c.last.Overlapping,

		OverlapFracMean: fracMean,
		OverlapFracStd:  fracStd,

		TreeNodes: c.last.TreeNodes,
		TreeDepth: c.last.TreeDepth,
		TreeHeld:  c.last.TreeHeld,

		TreeNodesMean: nodesMean,

		Dropped: c.dropped,
	}

	c.windowStartTick = currentTick
	c.overlapFrac = c.overlapFrac[:0]
	c.treeNodes = c.treeNodes[:0]
	c.dropped = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}

// meanStd returns mean and standard deviation of the samples. A series
// shorter than two samples has no spread to estimate, so std is 0.
func meanStd(samples []float64) (mean, std float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	if len(samples) < 2 {
		return samples[0], 0
	}
	return stat.MeanStdDev(samples, nil)
}
