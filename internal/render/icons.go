package render

import (
	"image"
	"math"

	"github.com/i474232898/forecast-display/internal/weather"
)

// DrawIcon draws a small pictogram for the category centred on c. size is
// the approximate radius in pixels. CategoryOther draws nothing.
func DrawIcon(s Surface, cat weather.Category, c image.Point, size int) {
	switch cat {
	case weather.CategoryClear:
		drawSun(s, c, size)
	case weather.CategoryCloudy:
		drawCloud(s, c, size)
	case weather.CategoryRainy:
		drawCloud(s, c.Sub(image.Pt(0, size/3)), size)
		drawRain(s, c, size)
	}
}

func drawSun(s Surface, c image.Point, size int) {
	col := weather.CategoryClear.Color()
	core := size / 2
	s.FillCircle(c, core, col)
	for i := 0; i < 8; i++ {
		a := float64(i) * math.Pi / 4
		from := image.Pt(c.X+int(math.Round(float64(core+2)*math.Cos(a))), c.Y+int(math.Round(float64(core+2)*math.Sin(a))))
		to := image.Pt(c.X+int(math.Round(float64(size)*math.Cos(a))), c.Y+int(math.Round(float64(size)*math.Sin(a))))
		s.Line(from, to, col)
	}
}

func drawCloud(s Surface, c image.Point, size int) {
	col := weather.CategoryCloudy.Color()
	r := size / 2
	s.FillCircle(image.Pt(c.X-r, c.Y), r, col)
	s.FillCircle(image.Pt(c.X+r, c.Y), r, col)
	s.FillCircle(image.Pt(c.X, c.Y-r/2), r+r/3, col)
}

func drawRain(s Surface, c image.Point, size int) {
	col := weather.CategoryRainy.Color()
	top := c.Y + size/3
	for _, dx := range []int{-size / 2, 0, size / 2} {
		s.Line(image.Pt(c.X+dx, top), image.Pt(c.X+dx-3, top+size/2), col)
	}
}
