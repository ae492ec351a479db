package providers

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/i474232898/forecast-display/internal/weather"
)

// Provider kinds accepted by New.
const (
	KindWeatherAPI = "weatherapi"
	KindJMA        = "jma"
)

// Options selects and configures one forecast provider.
type Options struct {
	Kind string

	// WeatherAPI.com.
	APIKey   string
	Location string

	// JMA.
	RegionCode string

	// MinSpacing is the minimum time between two requests; zero disables pacing.
	MinSpacing time.Duration
}

// New builds the provider named by opts.Kind on top of client.
func New(client *http.Client, opts Options) (weather.Provider, error) {
	cfg := HTTPClientConfig{Client: client}
	if opts.MinSpacing > 0 {
		cfg.Limiter = rate.NewLimiter(rate.Every(opts.MinSpacing), 1)
	}

	switch opts.Kind {
	case KindWeatherAPI:
		return NewWeatherAPIProvider(cfg, opts.APIKey, opts.Location), nil
	case KindJMA:
		return NewJMAProvider(cfg, opts.RegionCode), nil
	default:
		return nil, fmt.Errorf("unknown forecast provider %q", opts.Kind)
	}
}

// Endpoint returns the host:port a provider kind talks to, for reachability
// checks before the first fetch.
func Endpoint(kind string) (string, error) {
	switch kind {
	case KindWeatherAPI:
		return "api.weatherapi.com:443", nil
	case KindJMA:
		return "www.jma.go.jp:443", nil
	default:
		return "", fmt.Errorf("unknown forecast provider %q", kind)
	}
}
