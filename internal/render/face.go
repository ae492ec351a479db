package render

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Face is a font face plus a coverage check for its runes.
type Face struct {
	font.Face
	has func(r rune) bool
}

// Has reports whether the face carries a glyph for r.
func (f Face) Has(r rune) bool {
	if f.has == nil {
		return true
	}
	return f.has(r)
}

// BasicFace returns the built-in 7x13 bitmap face. It covers ASCII and
// Latin-1 only, so Japanese text always falls back to romaji.
func BasicFace() Face {
	face := basicfont.Face7x13
	return Face{
		Face: face,
		has: func(r rune) bool {
			for _, rng := range face.Ranges {
				if r >= rng.Low && r < rng.High {
					return true
				}
			}
			return false
		},
	}
}

// LoadTrueType loads a TrueType font (for example Noto Sans CJK exported as
// .ttf) at the given point size.
func LoadTrueType(path string, size float64) (Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Face{}, fmt.Errorf("render: read font: %w", err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return Face{}, fmt.Errorf("render: parse font %s: %w", path, err)
	}
	return Face{
		Face: truetype.NewFace(f, &truetype.Options{
			Size:    size,
			Hinting: font.HintingFull,
		}),
		has: func(r rune) bool {
			return f.Index(r) != 0
		},
	}, nil
}
