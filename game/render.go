package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/ItBeCharlie/quadtree-vis/components"
	"github.com/ItBeCharlie/quadtree-vis/systems"
	"github.com/ItBeCharlie/quadtree-vis/ui"
)

var (
	backgroundColor = rl.Color{R: 60, G: 60, B: 60, A: 255}
	normalColor     = rl.Color{R: 230, G: 41, B: 55, A: 255}
	overlapColor    = rl.Color{R: 0, G: 121, B: 241, A: 255}
	treeLineColor   = rl.Color{R: 0, G: 228, B: 48, A: 180}
)

// Draw renders the game state.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)

	if g.showTree {
		g.drawTree()
	}
	g.drawPoints()
	g.drawHUD()
	g.drawPanel()

	rl.EndDrawing()
}

// drawTree outlines every node boundary of the current index.
func (g *Game) drawTree() {
	if g.qt == nil {
		return
	}

	zoom := g.camera.Zoom
	g.qt.Walk(func(boundary systems.Rect, divided bool) {
		// Transform the center so the seam-crossing shortest path picks a
		// consistent side for the whole rect.
		cx, cy := g.camera.WorldToScreen(boundary.X+boundary.W/2, boundary.Y+boundary.H/2)
		w := boundary.W * zoom
		h := boundary.H * zoom

		if cx+w/2 < 0 || cx-w/2 > g.screenWidth || cy+h/2 < 0 || cy-h/2 > g.screenHeight {
			return
		}

		rl.DrawRectangleLinesEx(rl.Rectangle{
			X:      cx - w/2,
			Y:      cy - h/2,
			Width:  w,
			Height: h,
		}, 1, treeLineColor)
	})
}

// drawPoints renders all points, colored by overlap state.
func (g *Game) drawPoints() {
	zoom := g.camera.Zoom

	query := g.pointFilter.Query()
	for query.Next() {
		pos, body, overlap := query.Get()

		if !g.camera.IsVisible(pos.X, pos.Y, body.Radius) {
			continue
		}

		sx, sy := g.camera.WorldToScreen(pos.X, pos.Y)
		color := normalColor
		if overlap.State == components.StateOverlapping {
			color = overlapColor
		}
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, body.Radius*zoom, color)
	}
}

// drawHUD renders the stats readout and control hints.
func (g *Game) drawHUD() {
	lines := []string{
		fmt.Sprintf("Tick: %d", g.tick),
		fmt.Sprintf("Points: %d", g.pointCount),
		fmt.Sprintf("Overlapping: %d", g.overlapCount),
		fmt.Sprintf("Speed: %dx", g.stepsPerUpdate),
	}
	if g.droppedCount > 0 {
		lines = append(lines, fmt.Sprintf("Dropped: %d", g.droppedCount))
	}
	if g.paused {
		lines = append(lines, "PAUSED")
	}

	y := int32(10)
	for _, line := range lines {
		rl.DrawText(line, 10, y, 18, rl.White)
		y += 22
	}

	hint := "SPACE: Pause | R: Reset | T: Tree | C: Panel | < >: Speed | Arrows: Pan | Wheel: Zoom"
	rl.DrawText(hint, 10, int32(g.screenHeight)-24, 14, rl.LightGray)

	rl.DrawText(fmt.Sprintf("%d FPS", rl.GetFPS()), int32(g.screenWidth)-70, 10, 18, rl.LightGray)
}

// drawPanel renders the tuning panel and applies any adjustments.
func (g *Game) drawPanel() {
	if g.panel == nil {
		return
	}

	s := g.panel.Draw(ui.Settings{
		Capacity: g.capacity,
		Step:     g.stepSize,
		ShowTree: g.showTree,
	})

	if s.Capacity >= 1 {
		g.capacity = s.Capacity
	}
	if s.Step >= 0 {
		g.stepSize = s.Step
	}
	g.showTree = s.ShowTree
	if s.Reset {
		g.pendingReset = true
	}
}
