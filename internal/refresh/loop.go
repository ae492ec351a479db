// Package refresh implements the periodic fetch-and-redraw cycle.
//
// Each tick decides whether the forecast is due, updates the two-sample
// buffer, normalizes the display timestamp and redraws only when what is
// on screen would change.
package refresh

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/i474232898/forecast-display/internal/render"
	"github.com/i474232898/forecast-display/internal/weather"
)

// Default timings.
const (
	DefaultRefreshInterval = 15 * time.Minute
	DefaultUTCOffset       = 9 * time.Hour
)

// Renderer draws a frame. A returned error leaves the frame unrendered so
// the next tick tries again.
type Renderer interface {
	Render(f render.Frame) error
}

// Recorder receives every frame that was drawn successfully.
type Recorder interface {
	Record(f render.Frame, at time.Time)
}

// Config holds the loop timings.
type Config struct {
	RefreshInterval time.Duration
	// UTCOffset is added to the clock when the provider gives no timestamp.
	UTCOffset time.Duration
	// FetchTimeout bounds a single provider call; zero means no extra bound.
	FetchTimeout time.Duration
}

// Loop ties a forecast provider to a renderer.
type Loop struct {
	provider weather.Provider
	renderer Renderer
	recorder Recorder
	cfg      Config
}

// New returns a Loop. recorder may be nil.
func New(provider weather.Provider, renderer Renderer, recorder Recorder, cfg Config) *Loop {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	return &Loop{
		provider: provider,
		renderer: renderer,
		recorder: recorder,
		cfg:      cfg,
	}
}

// Tick runs one iteration at time now and returns the updated state.
func (l *Loop) Tick(ctx context.Context, st State, now time.Time) State {
	if NeedsFetch(st, now, l.cfg.RefreshInterval) {
		st = l.fetch(ctx, st, now)
	}

	frame := st.Frame()
	if st.Rendered && frame == st.LastRendered {
		return st
	}
	if err := l.renderer.Render(frame); err != nil {
		log.Printf("ERROR: refresh: render failed: %v", err)
		return st
	}
	st.LastRendered = frame
	st.Rendered = true
	if l.recorder != nil {
		l.recorder.Record(frame, now)
	}
	return st
}

func (l *Loop) fetch(ctx context.Context, st State, now time.Time) State {
	if l.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.FetchTimeout)
		defer cancel()
	}

	next, err := l.provider.FetchForecast(ctx)
	if errors.Is(err, weather.ErrThrottled) {
		// Nothing was sent; try again on a later tick.
		return st
	}
	st.LastFetch = now
	if err != nil {
		log.Printf("ERROR: refresh: %s fetch failed: %v", l.provider.Name(), err)
		next = weather.FailureSample(err)
	}
	// Re-fetching the same report changes nothing on screen. A failure
	// sample never becomes the "before" side of a transition.
	if next != st.Current {
		if !st.Current.IsFailure() {
			st.Previous = st.Current
		}
		st.Current = next
	}
	st.Timestamp = DisplayTimestamp(st.Current.Timestamp, now, l.cfg.UTCOffset)
	return st
}
