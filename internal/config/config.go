// Package config loads the display's settings from the environment, with an
// optional .env file underneath. Values are read once at start-up.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	// Forecast source.
	Provider      string        `envconfig:"FORECAST_PROVIDER" default:"weatherapi" validate:"oneof=weatherapi jma"`
	WeatherAPIKey string        `envconfig:"WEATHERAPI_API_KEY" validate:"required_if=Provider weatherapi"`
	Location      string        `envconfig:"WEATHER_LOCATION" default:"Machida" validate:"required_if=Provider weatherapi"`
	JMARegionCode string        `envconfig:"JMA_REGION_CODE" default:"130000" validate:"required_if=Provider jma"`
	HTTPTimeout   time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`

	// Loop timing.
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"15m" validate:"gte=1m"`
	TickInterval    time.Duration `envconfig:"TICK_INTERVAL" default:"1s" validate:"gte=1s"`
	UTCOffset       time.Duration `envconfig:"UTC_OFFSET" default:"9h" validate:"gte=-12h,lte=14h"`

	// Rendering.
	LocationLabel string  `envconfig:"LOCATION_LABEL" default:"町田市"`
	Layout        string  `envconfig:"LAYOUT" default:"transition" validate:"oneof=transition text"`
	FontPath      string  `envconfig:"FONT_PATH"`
	FontSize      float64 `envconfig:"FONT_SIZE" default:"12" validate:"gt=0"`

	// Panel.
	Panel         string `envconfig:"PANEL" default:"st7735" validate:"oneof=st7735 terminal"`
	SPIPort       string `envconfig:"SPI_PORT"`
	DCPin         string `envconfig:"DC_PIN" default:"GPIO24" validate:"required_if=Panel st7735"`
	ResetPin      string `envconfig:"RESET_PIN" default:"GPIO25"`
	PanelRotation int    `envconfig:"PANEL_ROTATION" default:"1" validate:"gte=0,lte=3"`

	// Start-up and status.
	NTPServer   string `envconfig:"NTP_SERVER" default:"pool.ntp.org"`
	StatusAddr  string `envconfig:"STATUS_ADDR" default:":8080"`
	HistorySize int    `envconfig:"HISTORY_SIZE" default:"96" validate:"gte=0"` // roughly 24h at 15-minute intervals
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
// Variables already set in the environment win over the .env file.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}
