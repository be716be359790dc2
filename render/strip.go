package render

import "image"

// ScrollingStrip shifts the raster one column left per draw and paints the
// latest snapshot into the rightmost column. Shifted-out pixels are gone.
type ScrollingStrip struct{}

func (ScrollingStrip) Kind() Kind { return KindScrolling }

func (ScrollingStrip) Draw(dst *image.RGBA, sc Scene) {
	b := dst.Bounds()
	w := b.Dx()
	if w <= 0 {
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := dst.PixOffset(b.Min.X, y)
		row := dst.Pix[off : off+w*4]
		copy(row, row[4:])
		clear(row[(w-1)*4:])
	}
	if sc.Latest != nil {
		paintColumn(dst, w-1, sc.Latest)
	}
}
