// Package camera provides a 2D pan/zoom viewport over the toroidal world.
package camera

import "math"

// Camera maps world coordinates onto the screen. The world wraps, so all
// deltas are measured along the shortest toroidal path.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level (1.0 = 1:1, 2.0 = 2x magnification)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World dimensions (for toroidal wrapping)
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the world with 1:1 zoom. The minimum
// zoom keeps the visible area no larger than the world.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	c := &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MaxZoom:   8.0,
	}
	c.MinZoom = minZoomFor(viewportW, viewportH, worldW, worldH)
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	return c
}

func minZoomFor(viewportW, viewportH, worldW, worldH float32) float32 {
	mz := viewportW / worldW
	if z := viewportH / worldH; z > mz {
		mz = z
	}
	return mz
}

// WorldToScreen converts world coordinates to screen coordinates along
// the shortest toroidal path to the camera center.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	dx := toroidalDelta(wx, c.X, c.WorldW)
	dy := toroidalDelta(wy, c.Y, c.WorldH)
	return c.ViewportW/2 + dx*c.Zoom, c.ViewportH/2 + dy*c.Zoom
}

// ScreenToWorld converts screen coordinates to wrapped world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	dx := (sx - c.ViewportW/2) / c.Zoom
	dy := (sy - c.ViewportH/2) / c.Zoom
	return wrap(c.X+dx, c.WorldW), wrap(c.Y+dy, c.WorldH)
}

// IsVisible reports whether a circle at (wx, wy) could appear on screen.
// Conservative, used for draw culling.
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	dx := toroidalDelta(wx, c.X, c.WorldW)
	dy := toroidalDelta(wy, c.Y, c.WorldH)
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(dx) <= halfW && absf(dy) <= halfH
}

// Pan moves the camera by the given delta in screen pixels, wrapping
// around the world edges.
func (c *Camera) Pan(dx, dy float32) {
	c.X = wrap(c.X+dx/c.Zoom, c.WorldW)
	c.Y = wrap(c.Y+dy/c.Zoom, c.WorldH)
}

// SetZoom sets the zoom level, clamped to the allowed range.
func (c *Camera) SetZoom(zoom float32) {
	if zoom < c.MinZoom {
		zoom = c.MinZoom
	}
	if zoom > c.MaxZoom {
		zoom = c.MaxZoom
	}
	c.Zoom = zoom
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset recenters the camera at 1:1 zoom.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.SetZoom(1.0)
}

// Resize updates the viewport dimensions and zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = minZoomFor(viewportW, viewportH, c.WorldW, c.WorldH)
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
}

// toroidalDelta computes the shortest signed distance from 'from' to
// 'to' in a wrapped space of the given size.
func toroidalDelta(to, from, size float32) float32 {
	d := to - from
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// wrap maps x onto [0, m).
func wrap(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
