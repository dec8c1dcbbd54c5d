package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/drill/internal/practice"
)

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    WeakItemSource
	notifier  Notifier
	threshold float64
	logger    *slog.Logger
}

// Notifier interface for sending notifications
type Notifier interface {
	NotifyWeakItems(ctx context.Context, weak []practice.ItemSummary) error
}

// WeakItemSource lists practiced items below a mastery threshold. *practice.Service implements it.
type WeakItemSource interface {
	Weak(threshold float64) ([]practice.ItemSummary, error)
}

// New creates a new scheduler instance
func New(source WeakItemSource, notifier Notifier, threshold float64, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		notifier:  notifier,
		threshold: threshold,
		logger:    logger,
	}
}

// Start schedules the daily reminder at "HH:MM" UTC and runs the scheduler in the background
func (s *Scheduler) Start(ctx context.Context, at string) error {
	_, err := s.scheduler.Every(1).Day().At(at).Do(func() {
		if err := s.RunNow(ctx); err != nil {
			s.logger.Error("reminder failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder at %q: %w", at, err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("reminder scheduled", "at", at, "threshold", s.threshold)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunNow checks for weak items and sends a reminder if there are any
func (s *Scheduler) RunNow(ctx context.Context) error {
	weak, err := s.source.Weak(s.threshold)
	if err != nil {
		return fmt.Errorf("failed to list weak items: %w", err)
	}
	if len(weak) == 0 {
		s.logger.Debug("no weak items, skipping reminder")
		return nil
	}
	return s.notifier.NotifyWeakItems(ctx, weak)
}
