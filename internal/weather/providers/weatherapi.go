package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/forecast-display/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name     string
	apiKey   string
	location string
	baseURL  string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(cfg HTTPClientConfig, apiKey, location string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:     "weatherapi",
		apiKey:   apiKey,
		location: location,
		baseURL:  "https://api.weatherapi.com/v1/forecast.json",
		httpCfg:  cfg,
		circuit:  newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) FetchForecast(ctx context.Context) (weather.Sample, error) {
	if p.apiKey == "" {
		return weather.Sample{}, fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrFetch)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", p.location)
	values.Set("days", "1")
	values.Set("lang", "ja")
	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())

	var payload struct {
		Current struct {
			LastUpdated string `json:"last_updated"`
		} `json:"current"`
		Forecast struct {
			Forecastday []struct {
				Day struct {
					Condition struct {
						Text string `json:"text"`
					} `json:"condition"`
					DailyChanceOfRain json.RawMessage `json:"daily_chance_of_rain"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if err := fetchJSON(ctx, p.httpCfg, p.circuit, u, &payload); err != nil {
		return weather.Sample{}, err
	}
	if len(payload.Forecast.Forecastday) == 0 {
		return weather.Sample{}, fmt.Errorf("%w: weatherapi: empty forecastday", weather.ErrFetch)
	}

	day := payload.Forecast.Forecastday[0].Day
	return weather.Sample{
		Condition:     day.Condition.Text,
		Precipitation: scalarText(day.DailyChanceOfRain),
		Timestamp:     payload.Current.LastUpdated,
	}, nil
}

var _ weather.Provider = (*WeatherAPIProvider)(nil)

