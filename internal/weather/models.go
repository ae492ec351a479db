package weather

import (
	"errors"
	"image/color"
)

// Placeholder values shown before the first successful fetch.
const (
	PlaceholderText      = "--"
	PlaceholderTimestamp = "--:--"
	UnknownPrecipitation = "?"

	httpErrorText  = "HTTP error"
	fetchErrorText = "Fetch error"
)

var (
	// ErrHTTPStatus is returned by providers when the upstream answers with a
	// status other than 200.
	ErrHTTPStatus = errors.New("unexpected http status")
	// ErrFetch covers transport, decoding and payload shape failures.
	ErrFetch = errors.New("fetch failed")
	// ErrThrottled means the provider declined to send a request at all,
	// because of request pacing or an open circuit. Nothing was fetched.
	ErrThrottled = errors.New("request throttled")
)

// Sample is a single normalized forecast reading as shown on the display.
// Values are kept as provider text; nothing here is parsed further.
type Sample struct {
	Condition     string `json:"condition"`
	Precipitation string `json:"precipitation"`
	Timestamp     string `json:"timestamp"`
}

// Sentinel returns the placeholder sample used before any fetch succeeded.
func Sentinel() Sample {
	return Sample{Condition: PlaceholderText, Precipitation: PlaceholderText}
}

// FailureSample maps a provider error to the sample shown in its place.
func FailureSample(err error) Sample {
	if errors.Is(err, ErrHTTPStatus) {
		return Sample{Condition: httpErrorText, Precipitation: UnknownPrecipitation}
	}
	return Sample{Condition: fetchErrorText, Precipitation: UnknownPrecipitation}
}

// IsSentinel reports whether s still carries the start-up placeholder.
func (s Sample) IsSentinel() bool {
	return s.Condition == PlaceholderText
}

// IsFailure reports whether s stands in for a failed fetch.
func (s Sample) IsFailure() bool {
	return s.Condition == httpErrorText || s.Condition == fetchErrorText
}

// IsPlaceholder reports whether s holds no real forecast and should be
// re-fetched on the next tick.
func (s Sample) IsPlaceholder() bool {
	return s.IsSentinel() || s.IsFailure()
}

// Category represents a normalized high-level weather condition.
type Category string

const (
	CategoryClear  Category = "clear"
	CategoryCloudy Category = "cloudy"
	CategoryRainy  Category = "rainy"
	CategoryOther  Category = "other"
)

var categoryColors = map[Category]color.RGBA{
	CategoryClear:  {R: 255, G: 180, B: 0, A: 255},
	CategoryCloudy: {R: 120, G: 120, B: 120, A: 255},
	CategoryRainy:  {R: 70, G: 180, B: 255, A: 255},
	CategoryOther:  {R: 255, G: 255, B: 255, A: 255},
}

// Color returns the display color associated with the category.
func (c Category) Color() color.RGBA {
	if rgba, ok := categoryColors[c]; ok {
		return rgba
	}
	return categoryColors[CategoryOther]
}
