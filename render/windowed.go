package render

import (
	"image"

	"github.com/tasmanvs/MusicMaker/view"
)

// Windowed repaints the whole viewport from history on every draw and
// overlays the selection marker.
type Windowed struct{}

func (Windowed) Kind() Kind { return KindWindowed }

// Plan returns the frame index sampled by each pixel column.
func (Windowed) Plan(v view.Viewport, canvasWidth int) []int {
	if canvasWidth <= 0 {
		return nil
	}
	idx := make([]int, canvasWidth)
	for x := range idx {
		idx[x] = v.FrameAt(float64(x), canvasWidth)
	}
	return idx
}

func (w Windowed) Draw(dst *image.RGBA, sc Scene) {
	clear(dst.Pix)
	b := dst.Bounds()
	if sc.History == nil {
		return
	}
	for x, i := range w.Plan(sc.View, b.Dx()) {
		f, ok := sc.History.Get(i)
		if !ok {
			continue
		}
		paintColumn(dst, x, f)
	}
	if sc.View.Contains(sc.Selected) && b.Dx() > 0 {
		x := b.Min.X + sc.View.Column(sc.Selected, b.Dx())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			dst.SetRGBA(x, y, Marker)
		}
	}
}
