// Package ui renders the tuning panel for live parameter adjustment.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Settings carries the tunable values in and out of the panel each frame.
type Settings struct {
	Capacity int
	Step     float32
	ShowTree bool
	Reset    bool
}

// Panel is the left-side tuning panel. Hidden by default, toggled with C.
type Panel struct {
	x, y    float32
	width   float32
	visible bool
}

// NewPanel creates a tuning panel anchored at the given position.
func NewPanel(x, y, width float32) *Panel {
	return &Panel{x: x, y: y, width: width}
}

// Toggle switches panel visibility.
func (p *Panel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// IsVisible returns whether the panel is shown.
func (p *Panel) IsVisible() bool {
	return p.visible
}

// Draw renders the panel and returns the (possibly adjusted) settings.
// Capacity changes take effect at the next rebuild.
func (p *Panel) Draw(s Settings) Settings {
	if !p.visible {
		return s
	}

	sliderW := p.width - 50
	y := p.y

	rl.DrawRectangle(int32(p.x)-5, int32(p.y)-5, int32(p.width)+10, 190, rl.Color{R: 20, G: 25, B: 30, A: 200})

	rl.DrawText("Tuning", int32(p.x), int32(y), 16, rl.White)
	y += 26

	rl.DrawText("Capacity (points per node)", int32(p.x), int32(y), 14, rl.Gray)
	y += 18
	newCapacity := gui.SliderBar(
		rl.Rectangle{X: p.x, Y: y, Width: sliderW, Height: 20},
		"1", "100",
		float32(s.Capacity), 1, 100,
	)
	rl.DrawText(fmt.Sprintf("%d", s.Capacity), int32(p.x+sliderW+8), int32(y+2), 16, rl.LightGray)
	s.Capacity = int(newCapacity)
	y += 35

	rl.DrawText("Step (walk distance per tick)", int32(p.x), int32(y), 14, rl.Gray)
	y += 18
	s.Step = gui.SliderBar(
		rl.Rectangle{X: p.x, Y: y, Width: sliderW, Height: 20},
		"0", "50",
		s.Step, 0, 50,
	)
	rl.DrawText(fmt.Sprintf("%.1f", s.Step), int32(p.x+sliderW+8), int32(y+2), 16, rl.LightGray)
	y += 35

	if gui.Button(rl.Rectangle{X: p.x, Y: y, Width: 105, Height: 26}, "Reset Points") {
		s.Reset = true
	}
	label := "Show Tree"
	if s.ShowTree {
		label = "Hide Tree"
	}
	if gui.Button(rl.Rectangle{X: p.x + 115, Y: y, Width: 105, Height: 26}, label) {
		s.ShowTree = !s.ShowTree
	}

	return s
}
