// Package scheduler runs the periodic price refresh: on every tick it
// reloads the watchlist, fetches one quote batch and recomputes each
// stock's support distances. Cycle failures are logged and absorbed;
// the timer keeps ticking.
package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"stock-support-tracker/metrics"
	"stock-support-tracker/services/quote"
	"stock-support-tracker/services/watchlist"
	"stock-support-tracker/store"
)

const (
	DefaultInterval     = 10 * time.Second
	DefaultInitialDelay = 5 * time.Second
)

// Scheduler manages the refresh job.
type Scheduler struct {
	cron         *gocron.Scheduler
	store        store.WatchlistStore
	quotes       quote.Source
	locks        *watchlist.SymbolLocks
	metrics      *metrics.Metrics
	interval     time.Duration
	initialDelay time.Duration
}

// NewScheduler creates a scheduler refreshing every interval, with the
// first cycle delayed by initialDelay after Start. Non-positive
// durations fall back to the defaults.
func NewScheduler(st store.WatchlistStore, quotes quote.Source, locks *watchlist.SymbolLocks,
	m *metrics.Metrics, interval, initialDelay time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if initialDelay <= 0 {
		initialDelay = DefaultInitialDelay
	}
	if locks == nil {
		locks = watchlist.NewSymbolLocks()
	}
	return &Scheduler{
		cron:         gocron.NewScheduler(time.UTC),
		store:        st,
		quotes:       quotes,
		locks:        locks,
		metrics:      m,
		interval:     interval,
		initialDelay: initialDelay,
	}
}

// Start schedules the refresh job and returns immediately. SingletonMode
// keeps cycles from overlapping: a cycle that outruns the interval
// simply delays the next one instead of stacking up.
func (s *Scheduler) Start() {
	log.Printf("Starting refresh scheduler (every %v, first run in %v)", s.interval, s.initialDelay)

	s.cron.Every(s.interval).
		StartAt(time.Now().Add(s.initialDelay)).
		SingletonMode().
		Do(s.runRefreshJob)

	s.cron.StartAsync()
}

// Stop stops the scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Refresh scheduler stopped")
}
