package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultErrorBackoff is the delay before retrying a failed cycle.
const DefaultErrorBackoff = 5 * time.Second

// Loop is one periodic task driven by the Scheduler.
type Loop struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// LoopStatus reports how a loop has been doing.
type LoopStatus struct {
	Name      string    `json:"name"`
	Runs      int       `json:"runs"`
	Failures  int       `json:"failures"`
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
}

// SchedulerOptions tunes loop behaviour.
type SchedulerOptions struct {
	ErrorBackoff time.Duration
	RunOnStart   bool // run each cycle immediately instead of after the first interval
}

// Scheduler runs its loops as supervised goroutines. Each loop sleeps for
// its interval, runs one cycle, and on failure logs and retries after the
// error backoff. Start is idempotent. Stop cancels pending sleeps and waits
// for in-flight cycles to finish.
type Scheduler struct {
	loops      []Loop
	backoff    time.Duration
	runOnStart bool
	logger     zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	statsMu sync.Mutex
	stats   map[string]*LoopStatus
}

// NewScheduler creates a stopped scheduler for the given loops.
func NewScheduler(opts SchedulerOptions, logger zerolog.Logger, loops ...Loop) *Scheduler {
	backoff := opts.ErrorBackoff
	if backoff <= 0 {
		backoff = DefaultErrorBackoff
	}

	stats := make(map[string]*LoopStatus, len(loops))
	for _, l := range loops {
		stats[l.Name] = &LoopStatus{Name: l.Name}
	}

	return &Scheduler{
		loops:      loops,
		backoff:    backoff,
		runOnStart: opts.RunOnStart,
		logger:     logger.With().Str("component", "scheduler").Logger(),
		stats:      stats,
	}
}

// Start launches every loop. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Debug().Msg("scheduler already running")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	for _, l := range s.loops {
		s.wg.Add(1)
		go s.runLoop(loopCtx, l)
	}

	s.logger.Info().Int("loops", len(s.loops)).Msg("scheduler started")
}

// Stop cancels all loops and blocks until they have exited.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

// Running reports whether the loops are active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns a snapshot of each loop's counters, in loop order.
func (s *Scheduler) Status() []LoopStatus {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	out := make([]LoopStatus, 0, len(s.loops))
	for _, l := range s.loops {
		out = append(out, *s.stats[l.Name])
	}
	return out
}

func (s *Scheduler) runLoop(ctx context.Context, l Loop) {
	defer s.wg.Done()

	logger := s.logger.With().Str("loop", l.Name).Logger()
	wait := l.Interval
	if s.runOnStart {
		wait = 0
	}

	for {
		if !sleepContext(ctx, wait) {
			logger.Debug().Msg("loop cancelled")
			return
		}

		// an in-flight cycle is allowed to complete after Stop
		err := s.runCycle(context.WithoutCancel(ctx), l)
		s.recordRun(l.Name, err)
		if err != nil {
			logger.Error().Err(err).Dur("backoff", s.backoff).Msg("cycle failed")
			wait = s.backoff
			continue
		}
		wait = l.Interval
	}
}

// runCycle runs one cycle, converting a panic into an error.
func (s *Scheduler) runCycle(ctx context.Context, l Loop) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s cycle: %v", l.Name, r)
		}
	}()
	return l.Run(ctx)
}

func (s *Scheduler) recordRun(name string, err error) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	st := s.stats[name]
	st.Runs++
	st.LastRun = time.Now()
	st.LastError = ""
	if err != nil {
		st.Failures++
		st.LastError = err.Error()
	}
}

// sleepContext waits for d or until ctx is done. It reports whether the
// full duration elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
