// Package view implements the pannable, zoomable window over the frame
// history and the selection marker.
package view

import "math"

const (
	// MinWidth is the narrowest zoom, in frames.
	MinWidth = 10

	ZoomInFactor  = 0.9
	ZoomOutFactor = 1.1
)

// Direction is a zoom direction.
type Direction int

const (
	ZoomIn Direction = iota
	ZoomOut
)

// WheelDirection maps a wheel delta to a zoom direction. Scrolling up zooms in.
func WheelDirection(deltaY float64) Direction {
	if deltaY < 0 {
		return ZoomIn
	}
	return ZoomOut
}

// Viewport is a window over the history in frame units.
type Viewport struct {
	Offset float64 `json:"offset"`
	Width  float64 `json:"width"`
}

// Clamp keeps Offset within [0, max(0, n-Width)] for a history of n frames.
func (v Viewport) Clamp(n int) Viewport {
	hi := math.Max(0, float64(n)-v.Width)
	v.Offset = math.Max(0, math.Min(hi, v.Offset))
	return v
}

// Pan shifts the window by a pixel delta on a canvas canvasWidth pixels wide.
// Dragging right moves toward older frames.
func (v Viewport) Pan(dx float64, canvasWidth, n int) Viewport {
	if canvasWidth <= 0 {
		return v
	}
	v.Offset -= dx / float64(canvasWidth) * v.Width
	return v.Clamp(n)
}

// Zoom scales the width. A width outside [MinWidth, n] is rejected and the
// viewport is returned unchanged with ok false.
func (v Viewport) Zoom(dir Direction, n int) (out Viewport, ok bool) {
	factor := ZoomOutFactor
	if dir == ZoomIn {
		factor = ZoomInFactor
	}
	w := v.Width * factor
	if w < MinWidth || w > float64(n) {
		return v, false
	}
	v.Width = w
	return v.Clamp(n), true
}

// Fit sets the width to min(preferred, n) and re-clamps the offset.
func (v Viewport) Fit(preferred float64, n int) Viewport {
	v.Width = math.Min(preferred, float64(n))
	return v.Clamp(n)
}

// FrameAt returns the frame index under pixel column x.
func (v Viewport) FrameAt(x float64, canvasWidth int) int {
	if canvasWidth <= 0 {
		return int(math.Floor(v.Offset))
	}
	return int(math.Floor(v.Offset + x/float64(canvasWidth)*v.Width))
}

// Step is the number of frames covered by one pixel column.
func (v Viewport) Step(canvasWidth int) float64 {
	if canvasWidth <= 0 {
		return 0
	}
	return v.Width / float64(canvasWidth)
}

// Contains reports whether frame idx lies within [Offset, Offset+Width].
// Both edges are inclusive.
func (v Viewport) Contains(idx int) bool {
	f := float64(idx)
	return f >= v.Offset && f <= v.Offset+v.Width
}

// Column maps a frame index to a pixel column. The inclusive right edge
// lands on the last column.
func (v Viewport) Column(idx, canvasWidth int) int {
	if v.Width <= 0 || canvasWidth <= 0 {
		return 0
	}
	x := int(math.Floor((float64(idx) - v.Offset) / v.Width * float64(canvasWidth)))
	if x >= canvasWidth {
		x = canvasWidth - 1
	}
	if x < 0 {
		x = 0
	}
	return x
}
