package refresh

import (
	"time"

	"github.com/i474232898/forecast-display/internal/common"
	"github.com/i474232898/forecast-display/internal/render"
	"github.com/i474232898/forecast-display/internal/weather"
)

// State is everything the loop carries from one tick to the next. It is a
// plain value: Tick takes one and returns the next.
type State struct {
	Previous weather.Sample
	Current  weather.Sample
	// Timestamp is the normalized "HH:MM" shown on screen.
	Timestamp string
	LastFetch time.Time

	LastRendered render.Frame
	Rendered     bool
}

// NewState returns the start-up state: placeholders everywhere, nothing
// fetched or drawn yet.
func NewState() State {
	return State{
		Previous:  weather.Sentinel(),
		Current:   weather.Sentinel(),
		Timestamp: weather.PlaceholderTimestamp,
	}
}

// Frame returns the values to display for s.
func (s State) Frame() render.Frame {
	return render.Frame{
		Previous:      common.FirstNonEmpty(s.Previous.Condition, weather.PlaceholderText),
		Current:       common.FirstNonEmpty(s.Current.Condition, weather.PlaceholderText),
		Precipitation: common.FirstNonEmpty(s.Current.Precipitation, weather.UnknownPrecipitation),
		Timestamp:     common.FirstNonEmpty(s.Timestamp, weather.PlaceholderTimestamp),
	}
}

// NeedsFetch reports whether a tick at now should query the provider.
func NeedsFetch(s State, now time.Time, interval time.Duration) bool {
	if s.LastFetch.IsZero() || s.Current.IsPlaceholder() {
		return true
	}
	return now.Sub(s.LastFetch) > interval
}

// DisplayTimestamp returns "HH:MM" for the screen. A provider timestamp in
// ISO-like form ("2006-01-02 15:04" or RFC 3339) is used as is; otherwise the
// time is derived from now shifted by offset.
func DisplayTimestamp(provided string, now time.Time, offset time.Duration) string {
	if len(provided) >= 16 && isClock(provided[11:16]) {
		return provided[11:16]
	}
	return now.UTC().Add(offset).Format("15:04")
}

// isClock reports whether s is "DD:DD" in ASCII digits.
func isClock(s string) bool {
	for i := 0; i < len(s); i++ {
		if i == 2 {
			if s[i] != ':' {
				return false
			}
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
