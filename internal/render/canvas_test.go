package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDrawer struct {
	rect  image.Rectangle
	last  *image.RGBA
	draws int
}

func (d *memDrawer) String() string          { return "memDrawer" }
func (d *memDrawer) Halt() error             { return nil }
func (d *memDrawer) ColorModel() color.Model { return color.RGBAModel }
func (d *memDrawer) Bounds() image.Rectangle { return d.rect }

func (d *memDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.draws++
	d.last = image.NewRGBA(d.rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			d.last.Set(x, y, src.At(x+sp.X, y+sp.Y))
		}
	}
	return nil
}

func sameRGB(t *testing.T, want, got color.Color) {
	t.Helper()
	wr, wg, wb, _ := want.RGBA()
	gr, gg, gb, _ := got.RGBA()
	assert.Equal(t, [3]uint32{wr >> 8, wg >> 8, wb >> 8}, [3]uint32{gr >> 8, gg >> 8, gb >> 8})
}

func TestCanvasPrimitives(t *testing.T) {
	out := &memDrawer{rect: image.Rect(0, 0, 160, 128)}
	c := NewCanvas(out, BasicFace())
	assert.Equal(t, image.Rect(0, 0, 160, 128), c.Bounds())

	c.Clear(Black)
	c.FillCircle(image.Pt(32, 80), 10, Cyan)
	c.Line(image.Pt(60, 20), image.Pt(100, 20), White)

	require.NoError(t, c.Flush())
	require.Equal(t, 1, out.draws)
	sameRGB(t, Cyan, out.last.At(32, 80))
	lr, _, _, _ := out.last.At(80, 20).RGBA()
	assert.Greater(t, lr>>8, uint32(200))
	sameRGB(t, Black, out.last.At(150, 120))
}

func TestCanvasTextMissingGlyph(t *testing.T) {
	out := &memDrawer{rect: image.Rect(0, 0, 64, 32)}
	c := NewCanvas(out, BasicFace())
	c.Clear(Black)

	err := c.Text(image.Pt(0, 0), "晴れ", White, 1)
	require.ErrorIs(t, err, ErrMissingGlyph)

	require.NoError(t, c.Flush())
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			sameRGB(t, Black, out.last.At(x, y))
		}
	}
}

func TestCanvasTextDraws(t *testing.T) {
	out := &memDrawer{rect: image.Rect(0, 0, 64, 32)}
	c := NewCanvas(out, BasicFace())
	c.Clear(Black)

	require.NoError(t, c.Text(image.Pt(2, 2), "HH", White, 2))
	require.NoError(t, c.Flush())

	lit := 0
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			if r, _, _, _ := out.last.At(x, y).RGBA(); r > 0 {
				lit++
			}
		}
	}
	assert.Positive(t, lit)
}

func TestCanvasEncodePNG(t *testing.T) {
	c := NewCanvas(&memDrawer{rect: image.Rect(0, 0, 8, 8)}, BasicFace())
	var buf bytes.Buffer
	require.NoError(t, c.EncodePNG(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestCanvasEncodePNGShowsLastFlushedFrame(t *testing.T) {
	c := NewCanvas(&memDrawer{rect: image.Rect(0, 0, 16, 16)}, BasicFace())

	decode := func() image.Image {
		var buf bytes.Buffer
		require.NoError(t, c.EncodePNG(&buf))
		img, err := png.Decode(&buf)
		require.NoError(t, err)
		return img
	}

	c.Clear(Black)
	require.NoError(t, c.Flush())

	// Half-drawn: not visible until the next Flush.
	c.Clear(Cyan)
	sameRGB(t, Black, decode().At(8, 8))

	require.NoError(t, c.Flush())
	sameRGB(t, Cyan, decode().At(8, 8))
}

func TestBasicFaceCoverage(t *testing.T) {
	f := BasicFace()
	assert.True(t, f.Has('A'))
	assert.True(t, f.Has(' '))
	assert.False(t, f.Has('晴'))
}
