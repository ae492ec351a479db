package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/forecast-display/internal/weather"
)

// recordingSurface accepts only ASCII text, like the built-in bitmap face.
type recordingSurface struct {
	texts    []string
	circles  []color.Color
	lines    int
	clears   int
	flushes  int
	flushErr error
}

func (s *recordingSurface) Bounds() image.Rectangle { return image.Rect(0, 0, 160, 128) }
func (s *recordingSurface) Clear(color.Color)       { s.clears++ }
func (s *recordingSurface) Line(_, _ image.Point, _ color.Color) {
	s.lines++
}

func (s *recordingSurface) FillCircle(_ image.Point, _ int, c color.Color) {
	s.circles = append(s.circles, c)
}

func (s *recordingSurface) Text(_ image.Point, str string, _ color.Color, _ int) error {
	for _, r := range str {
		if r > 0x7e {
			return fmt.Errorf("%w: %q", ErrMissingGlyph, r)
		}
	}
	s.texts = append(s.texts, str)
	return nil
}

func (s *recordingSurface) Flush() error {
	s.flushes++
	return s.flushErr
}

func TestRendererTransitionLayout(t *testing.T) {
	surface := &recordingSurface{}
	var console bytes.Buffer
	r := NewRenderer(surface, &console, Options{Label: "町田市"})

	err := r.Render(Frame{Previous: "くもり", Current: "晴れ", Precipitation: "20", Timestamp: "09:15"})
	require.NoError(t, err)

	assert.Equal(t, "町田市 09:15 晴れ 20%\n", console.String())
	assert.Equal(t, 1, surface.clears)
	assert.Equal(t, 1, surface.flushes)
	assert.Equal(t, []color.Color{weather.CategoryCloudy.Color(), weather.CategoryClear.Color()}, surface.circles)
	assert.Equal(t, []string{"Update: 09:15  POP: 20%", "Kumo", "Hare"}, surface.texts)
	assert.Equal(t, 5, surface.lines)
}

func TestRendererTextLayoutFallsBackToRomaji(t *testing.T) {
	surface := &recordingSurface{}
	r := NewRenderer(surface, nil, Options{Layout: LayoutText, Label: "町田市", LabelLatin: "Machida"})

	require.NoError(t, r.Render(Frame{Previous: "--", Current: "雨のち晴", Precipitation: "80", Timestamp: "14:03"}))

	assert.Equal(t, []string{"Machida", "Update: 14:03", "AmenochiHare", "POP: 80%"}, surface.texts)
	// Clear icon: one sun disc.
	assert.Equal(t, []color.Color{weather.CategoryClear.Color()}, surface.circles)
}

func TestRendererLastResortIsASCII(t *testing.T) {
	surface := &recordingSurface{}
	r := NewRenderer(surface, nil, Options{Layout: LayoutText, Label: "Machida"})

	require.NoError(t, r.Render(Frame{Current: "霧", Precipitation: "?", Timestamp: "--:--"}))
	assert.Contains(t, surface.texts, "?")
}

func TestRendererFlushError(t *testing.T) {
	surface := &recordingSurface{flushErr: errors.New("spi: boom")}
	r := NewRenderer(surface, nil, Options{})
	err := r.Render(Frame{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spi: boom")
}

func TestASCIIOnly(t *testing.T) {
	assert.Equal(t, "30%", asciiOnly("３０％"))
	assert.Equal(t, "?? 5", asciiOnly("晴れ 5"))
}

func TestDrawIconOther(t *testing.T) {
	surface := &recordingSurface{}
	DrawIcon(surface, weather.CategoryOther, image.Pt(10, 10), 8)
	assert.Empty(t, surface.circles)
	assert.Zero(t, surface.lines)

	DrawIcon(surface, weather.CategoryRainy, image.Pt(10, 10), 8)
	assert.Len(t, surface.circles, 3)
	assert.Equal(t, 3, surface.lines)
}
