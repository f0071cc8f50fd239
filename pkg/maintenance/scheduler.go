package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Window is a recurring maintenance window: at every cron firing the
// scheduler enables maintenance with the given details and disables it
// again once the duration elapses.
type Window struct {
	Cron     string
	Duration time.Duration
	State    State
}

// Scheduler drives recurring maintenance windows.
type Scheduler struct {
	manager *Manager
	logger  *slog.Logger
	cron    *cron.Cron
}

// NewScheduler registers the windows and returns an unstarted scheduler.
// Returns an error if a cron expression does not parse or a window has a
// non-positive duration.
func NewScheduler(manager *Manager, logger *slog.Logger, windows ...Window) (*Scheduler, error) {
	s := &Scheduler{
		manager: manager,
		logger:  logger,
		cron:    cron.New(),
	}

	for i, w := range windows {
		if w.Duration <= 0 {
			return nil, fmt.Errorf("maintenance window %d: duration must be positive", i)
		}
		if _, err := s.cron.AddFunc(w.Cron, s.runWindow(w)); err != nil {
			return nil, fmt.Errorf("maintenance window %d: %w", i, err)
		}
	}

	return s, nil
}

// Start begins firing windows. Safe to call on a scheduler with no windows.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron loop and waits for any running window callback.
// A window already enabled stays enabled until its disable timer fires or
// an operator disables it manually.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runWindow(w Window) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		now := time.Now().UTC()
		state := w.State
		state.StartTime = now
		state.EndTime = now.Add(w.Duration)
		if state.RetryAfter == 0 {
			state.RetryAfter = int(w.Duration.Seconds())
		}

		if err := s.manager.Enable(ctx, state); err != nil {
			s.logger.ErrorContext(ctx, "failed to enable scheduled maintenance", "error", err)
			return
		}
		s.logger.InfoContext(ctx, "scheduled maintenance window started",
			slog.Time("ends_at", state.EndTime))

		time.AfterFunc(w.Duration, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := s.manager.Disable(ctx); err != nil {
				s.logger.ErrorContext(ctx, "failed to disable scheduled maintenance", "error", err)
				return
			}
			s.logger.InfoContext(ctx, "scheduled maintenance window ended")
		})
	}
}
