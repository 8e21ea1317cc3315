package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
)

// ImageScrubber clears placeholder image URLs from booking snapshots.
// booking.Service implements it.
type ImageScrubber interface {
	ScrubPlaceholderImages(ctx context.Context) (int, error)
}

// jobTimeout bounds a single cleanup run.
const jobTimeout = time.Minute

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
}

// NewScheduler returns a Scheduler whose jobs never overlap with a still
// running previous invocation.
func NewScheduler(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log,
	}
}

// AddImageCleanup schedules scrubber on spec (standard five field cron
// syntax or descriptors such as "@hourly").  An empty spec schedules
// nothing.
func (s *Scheduler) AddImageCleanup(spec string, scrubber ImageScrubber) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() { RunImageCleanup(context.Background(), scrubber, s.log) })
	return err
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

// RunImageCleanup performs one scrub and logs the outcome.
func RunImageCleanup(ctx context.Context, scrubber ImageScrubber, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	n, err := scrubber.ScrubPlaceholderImages(ctx)
	if err != nil {
		log.ErrorContext(ctx, "image cleanup failed", "error", err)
		return
	}
	if n > 0 {
		log.InfoContext(ctx, "image cleanup", "bookings", n)
	}
}
