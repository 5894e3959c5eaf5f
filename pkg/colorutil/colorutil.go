// Package colorutil provides shared colors for plate map rendering.
package colorutil

import (
	"image/color"
)

// Common overlay colors.
var (
	Black     = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	LightGray = color.RGBA{R: 210, G: 210, B: 210, A: 255}
	Gray      = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	Cyan      = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta   = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Teal      = color.RGBA{R: 0, G: 150, B: 136, A: 255}
)

// Darken reduces the brightness of a color by factor (0..1).
func Darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * (1 - factor)),
		G: uint8(float64(c.G) * (1 - factor)),
		B: uint8(float64(c.B) * (1 - factor)),
		A: c.A,
	}
}

// Blend mixes a toward b; t=0 is a, t=1 is b.
func Blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
