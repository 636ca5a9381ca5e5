package weather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RunFunc is the workflow invocation the scheduler fires.
type RunFunc func(ctx context.Context) error

// SchedulerConfig holds the daily notification window. Hours are local
// to Location; the window is inclusive-start, exclusive-end.
type SchedulerConfig struct {
	WindowStartHour int
	WindowEndHour   int
	Location        *time.Location
}

// Status is a point-in-time snapshot of the scheduler state.
type Status struct {
	Running          bool       `json:"running"`
	Active           bool       `json:"active"`
	CurrentHour      int        `json:"currentHour"`
	WindowStartHour  int        `json:"windowStartHour"`
	WindowEndHour    int        `json:"windowEndHour"`
	Count            int        `json:"count"`
	LastFireTime     *time.Time `json:"lastFireTime,omitempty"`
	NextFireEstimate string     `json:"nextFireEstimate"`
}

// Scheduler fires the weather workflow once per hour inside the daily
// window. It is a two-state machine (Stopped, Running); workflow
// failures are logged and never change scheduler state.
type Scheduler struct {
	run         RunFunc
	windowStart int
	windowEnd   int
	loc         *time.Location

	mu       sync.Mutex
	running  bool
	count    int
	lastFire time.Time
	cancel   context.CancelFunc

	// Injected for tests.
	now  func() time.Time
	tick time.Duration
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(run RunFunc, cfg SchedulerConfig) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.WindowEndHour <= cfg.WindowStartHour {
		cfg.WindowStartHour, cfg.WindowEndHour = 9, 21
	}
	return &Scheduler{
		run:         run,
		windowStart: cfg.WindowStartHour,
		windowEnd:   cfg.WindowEndHour,
		loc:         cfg.Location,
		now:         time.Now,
		tick:        time.Minute,
	}
}

// Start transitions Stopped→Running. A no-op while already Running.
// When the current local hour is inside the window the workflow fires
// immediately; either way a fixed 60s check begins, firing once at the
// top of each in-window hour.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		slog.Warn("weather scheduler already running")
		return
	}
	s.running = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	slog.Info("weather scheduler started",
		"window_start", s.windowStart,
		"window_end", s.windowEnd,
	)

	// Fires run on a context detached from the loop's cancellation:
	// Stop ends the periodic check but an in-flight workflow invocation,
	// including its dispatched sends, runs to completion.
	if s.inWindow(s.now()) {
		go s.fire(context.WithoutCancel(ctx))
	}

	go s.loop(ctx)
}

// Stop transitions Running→Stopped. A no-op while already Stopped.
// An in-flight workflow invocation is not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		slog.Warn("weather scheduler not running")
		return
	}
	s.running = false
	s.cancel()
	slog.Info("weather scheduler stopped")
}

// Trigger fires the workflow once, regardless of state or window,
// without altering Running/Stopped.
func (s *Scheduler) Trigger(ctx context.Context) error {
	slog.Info("weather scheduler manual trigger")
	return s.fire(ctx)
}

// ResetCount zeroes the fire counter without affecting state.
func (s *Scheduler) ResetCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = 0
}

// GetStatus returns the current scheduler snapshot.
func (s *Scheduler) GetStatus() Status {
	now := s.now().In(s.loc)

	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:         s.running,
		Active:          s.running && s.hourInWindow(now.Hour()),
		CurrentHour:     now.Hour(),
		WindowStartHour: s.windowStart,
		WindowEndHour:   s.windowEnd,
		Count:           s.count,
	}
	if !s.lastFire.IsZero() {
		t := s.lastFire
		st.LastFireTime = &t
	}

	switch {
	case s.hourInWindow(now.Hour()) && s.hourInWindow(now.Hour()+1):
		st.NextFireEstimate = fmt.Sprintf("%02d:00", now.Hour()+1)
	default:
		st.NextFireEstimate = fmt.Sprintf("%02d:00", s.windowStart)
	}

	return st
}

// loop runs the fixed-cadence check. The minute==0 guard ensures one
// fire per in-window hour even though the check runs every minute.
func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.now().In(s.loc)
			if now.Minute() == 0 && s.hourInWindow(now.Hour()) {
				slog.Info("weather scheduler hourly trigger", "hour", now.Hour())
				go s.fire(context.WithoutCancel(ctx))
			}
		}
	}
}

// fire runs the workflow once and records a successful run.
func (s *Scheduler) fire(ctx context.Context) error {
	if err := s.run(ctx); err != nil {
		slog.Error("weather workflow failed", "error", err)
		return err
	}

	s.mu.Lock()
	s.count++
	s.lastFire = s.now()
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) inWindow(t time.Time) bool {
	return s.hourInWindow(t.In(s.loc).Hour())
}

func (s *Scheduler) hourInWindow(hour int) bool {
	return hour >= s.windowStart && hour < s.windowEnd
}
