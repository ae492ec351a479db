package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	httpapi "github.com/i474232898/forecast-display/internal/api/http"
	"github.com/i474232898/forecast-display/internal/config"
	"github.com/i474232898/forecast-display/internal/netup"
	"github.com/i474232898/forecast-display/internal/panel/st7735"
	"github.com/i474232898/forecast-display/internal/panel/terminal"
	"github.com/i474232898/forecast-display/internal/refresh"
	"github.com/i474232898/forecast-display/internal/render"
	"github.com/i474232898/forecast-display/internal/scheduler"
	"github.com/i474232898/forecast-display/internal/store"
	"github.com/i474232898/forecast-display/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

// openPanel is replaced in tests.
var openPanel = openHardwarePanel

// run wires the display and serves until ctx is done. The panel is released
// on every return path, including start-up failures.
func run(ctx context.Context, cfg *config.AppConfig) error {
	// Panel and drawing surface.
	panel, closePanel, err := openPanel(cfg)
	if err != nil {
		return fmt.Errorf("failed to open panel: %w", err)
	}
	defer closePanel()

	face := render.BasicFace()
	if cfg.FontPath != "" {
		face, err = render.LoadTrueType(cfg.FontPath, cfg.FontSize)
		if err != nil {
			return fmt.Errorf("failed to load font: %w", err)
		}
	}
	canvas := render.NewCanvas(panel, face)
	log.Printf("INFO: drawing on %s", canvas)

	var console io.Writer = colorable.NewColorableStdout()
	if cfg.Panel == "terminal" {
		// The preview owns stdout; keep the console line on stderr.
		console = colorable.NewColorableStderr()
	}
	renderer := render.NewRenderer(canvas, console, render.Options{
		Layout:     render.Layout(cfg.Layout),
		Label:      cfg.LocationLabel,
		LabelLatin: cfg.Location,
	})

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	provider, err := providers.New(httpClient, providers.Options{
		Kind:       cfg.Provider,
		APIKey:     cfg.WeatherAPIKey,
		Location:   cfg.Location,
		RegionCode: cfg.JMARegionCode,
		MinSpacing: 30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	// Block until the provider is reachable, then correct the clock once.
	endpoint, err := providers.Endpoint(cfg.Provider)
	if err != nil {
		return fmt.Errorf("failed to resolve provider endpoint: %w", err)
	}
	if err := netup.WaitOnline(ctx, endpoint, time.Second); err != nil {
		log.Printf("INFO: shutting down before network came up: %v", err)
		return nil
	}
	clock, err := netup.SyncClock(cfg.NTPServer, 5*time.Second)
	if err != nil {
		log.Printf("ERROR: %v; using system clock", err)
	}

	// In-memory frame history for the status API.
	memStore := store.NewMemoryStore(cfg.HistorySize)

	loop := refresh.New(provider, renderer, memStore, refresh.Config{
		RefreshInterval: cfg.RefreshInterval,
		UTCOffset:       cfg.UTCOffset,
		FetchTimeout:    cfg.HTTPTimeout,
	})

	// Scheduler that ticks the refresh loop.
	sched := scheduler.New(loop, cfg.TickInterval, clock.Now)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "forecast-display",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New(logger.Config{Output: colorable.NewColorableStderr()}))
	app.Use(recover.New())

	// API routes.
	httpapi.RegisterRoutes(app, memStore, canvas)

	if cfg.StatusAddr != "" {
		go func() {
			if err := app.Listen(cfg.StatusAddr); err != nil {
				log.Printf("fiber server stopped: %v", err)
			}
		}()
	}

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	return nil
}

// openHardwarePanel returns the configured display and a func releasing it.
func openHardwarePanel(cfg *config.AppConfig) (display.Drawer, func(), error) {
	if cfg.Panel == "terminal" {
		dev := terminal.New(&terminal.Opts{W: 160, H: 128, Scale: 2})
		return dev, func() { _ = dev.Halt() }, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	// Use spireg SPI port registry; an empty name picks the first bus.
	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, nil, err
	}
	dc := gpioreg.ByName(cfg.DCPin)
	if dc == nil {
		port.Close()
		return nil, nil, fmt.Errorf("unknown dc pin %q", cfg.DCPin)
	}
	var rst gpio.PinOut
	if cfg.ResetPin != "" {
		p := gpioreg.ByName(cfg.ResetPin)
		if p == nil {
			port.Close()
			return nil, nil, fmt.Errorf("unknown reset pin %q", cfg.ResetPin)
		}
		rst = p
	}

	opts := st7735.DefaultOpts
	opts.Rotation = cfg.PanelRotation
	dev, err := st7735.NewSPI(port, dc, rst, &opts)
	if err != nil {
		port.Close()
		return nil, nil, err
	}
	log.Printf("INFO: panel %s ready", dev)
	return dev, func() {
		if err := dev.Halt(); err != nil {
			log.Printf("ERROR: panel halt: %v", err)
		}
		port.Close()
	}, nil
}
