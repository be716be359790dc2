package render

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Marker is the colour of the selection line.
var Marker = color.RGBA{R: 255, A: 255}

var palette = buildPalette()

func buildPalette() [256]color.RGBA {
	var p [256]color.RGBA
	for v := range p {
		r, g, b := colorful.Hsl(Hue(uint8(v)), 1, 0.5).RGB255()
		p[v] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return p
}

// Hue maps a magnitude to an HSL hue in degrees: 0 is blue (240), 255 is
// red (0).
func Hue(v uint8) float64 {
	return 240 * (1 - float64(v)/255)
}

// Color returns the fully saturated, half-lightness colour for a magnitude.
func Color(v uint8) color.RGBA {
	return palette[v]
}
