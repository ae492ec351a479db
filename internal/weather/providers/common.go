package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/forecast-display/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and request pacing settings.
type HTTPClientConfig struct {
	Client *http.Client
	// Limiter spaces out consecutive requests; nil disables pacing.
	Limiter *rate.Limiter
}

var (
	// ErrCircuitOpen is returned while the breaker rejects requests.
	ErrCircuitOpen = errors.New("circuit breaker open")

	errNoHTTPClient = errors.New("http client not configured")
)

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("INFO: provider %s: circuit %s -> %s", name, from, to)
		},
	})
}

// fetchJSON performs a single GET guarded by the limiter and circuit breaker
// and decodes a 200 response body into out. Failures wrap
// weather.ErrHTTPStatus or weather.ErrFetch; requests that are never sent
// return weather.ErrThrottled.
func fetchJSON(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	rawURL string,
	out any,
) error {
	if cfg.Client == nil {
		return fmt.Errorf("%w: %v", weather.ErrFetch, errNoHTTPClient)
	}
	if cfg.Limiter != nil && !cfg.Limiter.Allow() {
		return weather.ErrThrottled
	}

	result, err := cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", weather.ErrFetch, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := cfg.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", weather.ErrFetch, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("%w: %d", weather.ErrHTTPStatus, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", weather.ErrFetch, err)
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %w: %v", weather.ErrThrottled, ErrCircuitOpen, err)
		}
		return err
	}

	body, ok := result.([]byte)
	if !ok {
		return fmt.Errorf("%w: unexpected result type from circuit breaker", weather.ErrFetch)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode: %v", weather.ErrFetch, err)
	}
	return nil
}

// scalarText renders a JSON scalar (string, number or null) as plain text.
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	return string(raw)
}
