// Package render paints frame history onto an RGBA raster.
package render

import (
	"fmt"
	"image"

	"github.com/tasmanvs/MusicMaker/frames"
	"github.com/tasmanvs/MusicMaker/view"
)

// Kind names a rendering strategy.
type Kind string

const (
	KindWindowed  Kind = "windowed"
	KindScrolling Kind = "scrolling"
)

// IsValid reports whether k is a known strategy.
func (k Kind) IsValid() bool {
	return k == KindWindowed || k == KindScrolling
}

// Scene is everything a strategy may read for one paint.
type Scene struct {
	History  *frames.History
	View     view.Viewport
	Selected int
	// Latest is the analyzer snapshot of the current tick, retained or not.
	Latest frames.Frame
}

// Strategy paints a scene into dst.
type Strategy interface {
	Kind() Kind
	Draw(dst *image.RGBA, sc Scene)
}

// New returns the strategy for kind.
func New(kind Kind) (Strategy, error) {
	switch kind {
	case KindWindowed, "":
		return Windowed{}, nil
	case KindScrolling:
		return ScrollingStrip{}, nil
	}
	return nil, fmt.Errorf("render: unknown strategy %q", kind)
}

// paintColumn draws bin i of f at row height-i of column x. Rows outside the
// raster are clipped.
func paintColumn(dst *image.RGBA, x int, f frames.Frame) {
	b := dst.Bounds()
	h := b.Dy()
	for i, v := range f {
		y := h - i
		if y < 0 || y >= h {
			continue
		}
		dst.SetRGBA(b.Min.X+x, b.Min.Y+y, Color(v))
	}
}
