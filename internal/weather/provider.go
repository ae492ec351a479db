package weather

import (
	"context"
)

// Provider abstracts a forecast source (WeatherAPI.com or the JMA feed).
//
// FetchForecast performs one request and returns the normalized sample.
// Errors wrap ErrHTTPStatus or ErrFetch so callers can map them with
// FailureSample. ErrThrottled means no request was made.
type Provider interface {
	Name() string
	FetchForecast(ctx context.Context) (Sample, error)
}
