// Package render draws forecast frames on a small pixel display.
//
// Drawing goes through Surface, a handful of primitives modelled on simple
// LCD drivers. Text rendering reports missing glyphs instead of drawing
// tofu, so callers can fall back to a romanized label.
package render

import (
	"errors"
	"image"
	"image/color"
)

// ErrMissingGlyph is returned by Surface.Text when the current face cannot
// render one of the runes. Nothing is drawn in that case.
var ErrMissingGlyph = errors.New("missing glyph")

// Surface is the set of primitives the layouts draw with.
type Surface interface {
	// Bounds is the drawable area, Min is always {0, 0}.
	Bounds() image.Rectangle
	Clear(c color.Color)
	FillCircle(center image.Point, radius int, c color.Color)
	Line(p1, p2 image.Point, c color.Color)
	// Text draws s with its top-left corner at the given point, each font
	// pixel enlarged scale times.
	Text(at image.Point, s string, c color.Color, scale int) error
	// Flush pushes the drawn image to the output device.
	Flush() error
}

// Palette shared by the layouts.
var (
	Black = color.RGBA{0, 0, 0, 255}
	White = color.RGBA{255, 255, 255, 255}
	Cyan  = color.RGBA{0, 255, 255, 255}
)
