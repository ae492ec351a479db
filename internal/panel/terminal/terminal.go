// Package terminal implements a 2D display.Drawer that previews the panel in
// a terminal using ANSI 256 colour blocks.
//
// Useful on a workstation without the SPI panel attached.
package terminal

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	W, H int
	// Scale is the number of panel pixels per character cell on each axis.
	Scale   int
	Palette *ansi256.Palette
	// Out defaults to a colour capable stdout.
	Out io.Writer
}

// Dev emulates the panel on the console.
type Dev struct {
	w       io.Writer
	scale   int
	palette ansi256.Palette

	frame *image.RGBA
	buf   bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Out
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	return &Dev{
		w:       w,
		scale:   scale,
		palette: *p,
		frame:   image.NewRGBA(image.Rect(0, 0, opts.W, opts.H)),
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("Terminal{%s}", d.frame.Rect.Max)
}

// Halt implements conn.Resource. It resets the terminal colours.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.frame.Rect
}

// Draw implements display.Drawer. The whole frame is reprinted from the top
// left corner of the terminal.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(d.frame, r.Intersect(d.frame.Rect), src, sp, draw.Src)
	return d.refresh()
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	_, _ = d.buf.WriteString("\033[H\033[0m")
	b := d.frame.Rect
	for y := b.Min.Y; y < b.Max.Y; y += d.scale {
		for x := b.Min.X; x < b.Max.X; x += d.scale {
			c := d.frame.RGBAAt(x, y)
			_, _ = io.WriteString(&d.buf, d.palette.Block(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
