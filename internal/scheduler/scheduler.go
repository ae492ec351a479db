package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/forecast-display/internal/refresh"
)

// Scheduler drives the refresh loop at a fixed tick and owns its state.
type Scheduler struct {
	scheduler *gocron.Scheduler
	loop      *refresh.Loop
	interval  time.Duration
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	// state is only touched by the job; singleton mode keeps ticks sequential.
	state refresh.State
}

// New creates a new Scheduler. now supplies the tick time, typically a
// clock corrected by the startup time sync.
func New(loop *refresh.Loop, interval time.Duration, now func() time.Time) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	if now == nil {
		now = time.Now
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		loop:      loop,
		interval:  interval,
		now:       now,
		ctx:       ctx,
		cancel:    cancel,
		state:     refresh.NewState(),
	}
}

// Start schedules the tick job and starts the underlying scheduler. The first
// tick runs immediately.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(s.tick)
	if err != nil {
		return err
	}

	log.Printf("INFO: scheduler: ticking every %s", s.interval)
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) tick() {
	s.state = s.loop.Tick(s.ctx, s.state, s.now())
}

// Stop cancels any in-flight fetch and stops future ticks.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
