package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/forecast-display/internal/weather"
)

// JMAProvider implements the weather.Provider interface for the Japan
// Meteorological Agency forecast feed. No API key is required; the feed is
// addressed by an office region code such as "130000" (Tokyo).
type JMAProvider struct {
	name    string
	region  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewJMAProvider(cfg HTTPClientConfig, region string) *JMAProvider {
	return &JMAProvider{
		name:    "jma",
		region:  region,
		baseURL: "https://www.jma.go.jp/bosai/forecast/data/forecast",
		httpCfg: cfg,
		circuit: newCircuitBreaker("jma"),
	}
}

func (p *JMAProvider) Name() string {
	return p.name
}

func (p *JMAProvider) FetchForecast(ctx context.Context) (weather.Sample, error) {
	if p.region == "" {
		return weather.Sample{}, fmt.Errorf("%w: jma region code is not configured", weather.ErrFetch)
	}

	u := fmt.Sprintf("%s/%s.json", p.baseURL, url.PathEscape(p.region))

	var payload []struct {
		ReportDatetime string `json:"reportDatetime"`
		TimeSeries     []struct {
			Areas []struct {
				Weathers []string `json:"weathers"`
				Pops     []string `json:"pops"`
			} `json:"areas"`
		} `json:"timeSeries"`
	}

	if err := fetchJSON(ctx, p.httpCfg, p.circuit, u, &payload); err != nil {
		return weather.Sample{}, err
	}

	if len(payload) == 0 || len(payload[0].TimeSeries) == 0 ||
		len(payload[0].TimeSeries[0].Areas) == 0 ||
		len(payload[0].TimeSeries[0].Areas[0].Weathers) == 0 {
		return weather.Sample{}, fmt.Errorf("%w: jma: missing weathers for region %s", weather.ErrFetch, p.region)
	}
	report := payload[0]

	// Chance of rain lives in the second time series; older feeds omit it.
	var pop string
	if len(report.TimeSeries) > 1 && len(report.TimeSeries[1].Areas) > 0 &&
		len(report.TimeSeries[1].Areas[0].Pops) > 0 {
		pop = report.TimeSeries[1].Areas[0].Pops[0]
	}

	return weather.Sample{
		Condition:     report.TimeSeries[0].Areas[0].Weathers[0],
		Precipitation: pop,
		Timestamp:     report.ReportDatetime,
	}, nil
}

var _ weather.Provider = (*JMAProvider)(nil)
