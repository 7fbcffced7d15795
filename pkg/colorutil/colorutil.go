// Package colorutil provides the shared canvas palette and small color
// helpers for the light table application.
package colorutil

import "image/color"

// Canvas palette. The workspace draws on its own dark surface independent
// of the widget theme; the grid and overlay colors are tuned against it.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}

	CanvasBackground = color.RGBA{R: 24, G: 24, B: 27, A: 255}
	GridDot          = color.RGBA{R: 58, G: 58, B: 64, A: 255}
	SelectionStroke  = color.RGBA{R: 255, G: 196, B: 0, A: 255}
	GroupStroke      = color.RGBA{R: 255, G: 214, B: 79, A: 255}
	MarqueeStroke    = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	PlaceholderLine  = color.RGBA{R: 110, G: 110, B: 118, A: 255}
	AnnotationFill   = color.RGBA{R: 255, G: 82, B: 82, A: 255}
)

// WithAlpha returns the color with its alpha channel replaced.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

// Dim scales the color channels toward black. A factor of 1 keeps the
// color, 0 yields black.
func Dim(c color.RGBA, factor float64) color.RGBA {
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// Blend linearly mixes two colors; t of 0 gives a, 1 gives b.
func Blend(a, b color.RGBA, t float64) color.RGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
