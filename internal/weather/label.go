package weather

import (
	"strings"

	"golang.org/x/text/width"

	"github.com/i474232898/forecast-display/internal/common"
)

// classification rules are checked in order; the first match wins.
var classification = []struct {
	category Category
	tokens   []string
}{
	{CategoryClear, []string{"晴", "sunny", "clear"}},
	{CategoryCloudy, []string{"曇", "くもり", "cloud", "overcast"}},
	{CategoryRainy, []string{"雨", "rain", "shower", "drizzle"}},
}

// Classify maps raw condition text to a display category.
func Classify(text string) Category {
	if text == "" {
		return CategoryOther
	}
	for _, rule := range classification {
		if common.HasAnyFold(text, rule.tokens...) {
			return rule.category
		}
	}
	return CategoryOther
}

// romajiTable lists substitutions in application order. Multi-character
// tokens come first so they win over the single characters they contain.
var romajiTable = [][2]string{
	{"のち", "nochi"},
	{"一時", "ichiji"},
	{"時々", "tokidoki"},
	{"くもり", "Kumori"},
	{"晴れ", "Hare"},
	{"曇", "Kumori"},
	{"雨", "Ame"},
	{"晴", "Hare"},
	{"雪", "Yuki"},
}

var romajiReplacer = newRomajiReplacer()

func newRomajiReplacer() *strings.Replacer {
	oldnew := make([]string, 0, 2*len(romajiTable))
	for _, pair := range romajiTable {
		oldnew = append(oldnew, pair[0], pair[1])
	}
	return strings.NewReplacer(oldnew...)
}

// Romanize folds full-width forms (digits, percent sign, ideographic space)
// to ASCII, then replaces the known Japanese weather words with their romaji
// spelling.
func Romanize(text string) string {
	return romajiReplacer.Replace(width.Fold.String(text))
}
