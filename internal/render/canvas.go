package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/display"
)

// Canvas is a Surface backed by an in-memory RGBA image that is pushed to a
// display.Drawer on Flush.
//
// Drawing is single-threaded. EncodePNG may be called concurrently and only
// ever sees the last flushed frame.
type Canvas struct {
	out  display.Drawer
	face Face

	img *image.RGBA
	dc  *gg.Context

	// mu guards shown, the copy of img taken at the last Flush.
	mu      sync.RWMutex
	shown   *image.RGBA
	shownDC *gg.Context
}

// NewCanvas returns a Canvas sized to out.
func NewCanvas(out display.Drawer, face Face) *Canvas {
	img := image.NewRGBA(image.Rectangle{Max: out.Bounds().Size()})
	shown := image.NewRGBA(img.Rect)
	return &Canvas{
		out:     out,
		face:    face,
		img:     img,
		dc:      gg.NewContextForRGBA(img),
		shown:   shown,
		shownDC: gg.NewContextForRGBA(shown),
	}
}

func (c *Canvas) String() string {
	return fmt.Sprintf("render.Canvas{%s, %s}", c.out, c.img.Rect.Max)
}

// Bounds implements Surface.
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Rect
}

// Clear implements Surface.
func (c *Canvas) Clear(col color.Color) {
	c.dc.SetColor(col)
	c.dc.Clear()
}

// FillCircle implements Surface.
func (c *Canvas) FillCircle(center image.Point, radius int, col color.Color) {
	c.dc.DrawCircle(float64(center.X), float64(center.Y), float64(radius))
	c.dc.SetColor(col)
	c.dc.Fill()
}

// Line implements Surface.
func (c *Canvas) Line(p1, p2 image.Point, col color.Color) {
	c.dc.SetLineWidth(1)
	// Pixel centers, so horizontal lines cover exactly one row.
	c.dc.DrawLine(float64(p1.X)+0.5, float64(p1.Y)+0.5, float64(p2.X)+0.5, float64(p2.Y)+0.5)
	c.dc.SetColor(col)
	c.dc.Stroke()
}

// Text implements Surface.
//
// The string is rasterized at the face's native size and then enlarged with
// nearest-neighbour scaling, which keeps bitmap fonts crisp.
func (c *Canvas) Text(at image.Point, s string, col color.Color, scale int) error {
	for _, r := range s {
		if !c.face.Has(r) {
			return fmt.Errorf("%w: %q", ErrMissingGlyph, r)
		}
	}
	if s == "" {
		return nil
	}
	if scale < 1 {
		scale = 1
	}

	metrics := c.face.Metrics()
	w := font.MeasureString(c.face, s).Ceil()
	h := (metrics.Ascent + metrics.Descent).Ceil()
	if w <= 0 || h <= 0 {
		return nil
	}

	glyphs := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	d.DrawString(s)

	dst := image.Rect(at.X, at.Y, at.X+w*scale, at.Y+h*scale)
	if scale == 1 {
		draw.Draw(c.img, dst, glyphs, image.Point{}, draw.Over)
		return nil
	}
	xdraw.NearestNeighbor.Scale(c.img, dst, glyphs, glyphs.Bounds(), xdraw.Over, nil)
	return nil
}

// Flush implements Surface. The frame is published to EncodePNG even when
// the device write fails, since it is what the canvas last completed.
func (c *Canvas) Flush() error {
	c.mu.Lock()
	copy(c.shown.Pix, c.img.Pix)
	c.mu.Unlock()
	return c.out.Draw(c.out.Bounds(), c.img, image.Point{})
}

// EncodePNG writes the last flushed frame as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shownDC.EncodePNG(w)
}

var _ Surface = (*Canvas)(nil)
