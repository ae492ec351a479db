package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"strings"

	"golang.org/x/text/width"

	"github.com/i474232898/forecast-display/internal/common"
	"github.com/i474232898/forecast-display/internal/weather"
)

// Layout names a screen arrangement.
type Layout string

const (
	// LayoutTransition shows previous and current conditions as two coloured
	// circles joined by an arrow.
	LayoutTransition Layout = "transition"
	// LayoutText shows the location, update time, condition with an icon and
	// the chance of rain as lines of text.
	LayoutText Layout = "text"
)

// Frame is the set of values shown on screen. Equal frames render
// identically.
type Frame struct {
	Previous      string `json:"previous"`
	Current       string `json:"current"`
	Precipitation string `json:"precipitation"`
	Timestamp     string `json:"timestamp"`
}

// Options configures a Renderer.
type Options struct {
	Layout Layout
	// Label is the location name as printed on the console and, glyphs
	// permitting, on screen. LabelLatin is drawn when they are not.
	Label      string
	LabelLatin string
}

// Renderer draws frames on a Surface and echoes them to a console.
type Renderer struct {
	surface Surface
	console io.Writer
	opts    Options
}

// NewRenderer returns a Renderer. A nil console discards console output.
func NewRenderer(surface Surface, console io.Writer, opts Options) *Renderer {
	if console == nil {
		console = io.Discard
	}
	if opts.Layout == "" {
		opts.Layout = LayoutTransition
	}
	if opts.LabelLatin == "" {
		opts.LabelLatin = weather.Romanize(opts.Label)
	}
	return &Renderer{surface: surface, console: console, opts: opts}
}

// Render draws f and flushes it to the output device.
func (r *Renderer) Render(f Frame) error {
	fmt.Fprintf(r.console, "%s %s %s %s%%\n", r.opts.Label, f.Timestamp, f.Current, f.Precipitation)

	switch r.opts.Layout {
	case LayoutText:
		r.drawText(f)
	default:
		r.drawTransition(f)
	}
	if err := r.surface.Flush(); err != nil {
		return fmt.Errorf("render: flush: %w", err)
	}
	return nil
}

func (r *Renderer) drawTransition(f Frame) {
	const (
		y      = 80
		radius = 32
		leftX  = 32
		rightX = 128
	)
	s := r.surface
	s.Clear(Black)

	header := fmt.Sprintf("Update: %s  POP: %s%%", f.Timestamp, f.Precipitation)
	r.text(image.Pt(4, 8), header, header, Cyan, 1)

	s.FillCircle(image.Pt(leftX, y), radius, weather.Classify(f.Previous).Color())
	s.FillCircle(image.Pt(rightX, y), radius, weather.Classify(f.Current).Color())

	prev := common.TruncateRunes(weather.Romanize(f.Previous), 4)
	curr := common.TruncateRunes(weather.Romanize(f.Current), 4)
	r.text(image.Pt(leftX-12, y-8), prev, prev, Black, 2)
	r.text(image.Pt(rightX-12, y-8), curr, curr, Black, 2)

	start := leftX + radius + 2
	end := rightX - radius - 2
	for i := -1; i <= 1; i++ {
		s.Line(image.Pt(start, y+i), image.Pt(end, y+i), White)
	}
	s.Line(image.Pt(end, y), image.Pt(end-10, y-7), White)
	s.Line(image.Pt(end, y), image.Pt(end-10, y+7), White)
}

func (r *Renderer) drawText(f Frame) {
	s := r.surface
	s.Clear(Black)

	r.text(image.Pt(2, 2), r.opts.Label, r.opts.LabelLatin, Cyan, 1)
	r.text(image.Pt(2, 18), "更新: "+f.Timestamp, "Update: "+f.Timestamp, Cyan, 1)
	r.text(image.Pt(2, 38), f.Current, weather.Romanize(f.Current), White, 1)
	r.text(image.Pt(2, 58), "降水確率: "+f.Precipitation+"%", "POP: "+f.Precipitation+"%", White, 1)

	bounds := s.Bounds()
	DrawIcon(s, weather.Classify(f.Current), image.Pt(bounds.Max.X-28, bounds.Max.Y-30), 16)
}

// text draws s, falling back to alt and finally to an ASCII-only rendering
// of alt when the face lacks glyphs.
func (r *Renderer) text(at image.Point, s, alt string, c color.Color, scale int) {
	err := r.surface.Text(at, s, c, scale)
	if err == nil {
		return
	}
	if !errors.Is(err, ErrMissingGlyph) {
		log.Printf("ERROR: render: text %q: %v", s, err)
		return
	}
	if alt != s {
		if err = r.surface.Text(at, alt, c, scale); err == nil {
			return
		}
	}
	if err = r.surface.Text(at, asciiOnly(alt), c, scale); err != nil {
		log.Printf("ERROR: render: text %q: %v", alt, err)
	}
}

// asciiOnly folds full-width forms to ASCII and replaces anything else
// outside printable ASCII with '?'.
func asciiOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x20 && r < 0x7f {
			return r
		}
		return '?'
	}, width.Fold.String(s))
}
