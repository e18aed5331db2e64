package workers

import (
	"context"
	"time"

	"github.com/partyline/whispered/pkg/game"
	"github.com/partyline/whispered/pkg/log"
	"github.com/partyline/whispered/pkg/metrics"
	"github.com/partyline/whispered/pkg/store"
)

// DefaultRetention is how long an idle game survives before the sweep
// deletes it.
const DefaultRetention = 6 * time.Hour

// SweepWorker periodically deletes games whose lastUpdated is older than
// the retention window, using the same purge sequence as an explicit
// session end so no orphaned documents are left behind.
type SweepWorker struct {
	store     store.Store
	retention time.Duration
	interval  time.Duration
	metrics   *metrics.Metrics
}

// NewSweepWorkerOptions contains options for creating a new SweepWorker.
type NewSweepWorkerOptions struct {
	Store     store.Store
	Retention time.Duration
	Interval  time.Duration
	Metrics   *metrics.Metrics
}

func NewSweepWorker(opts NewSweepWorkerOptions) *SweepWorker {
	retention := opts.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = retention
	}
	return &SweepWorker{
		store:     opts.Store,
		retention: retention,
		interval:  interval,
		metrics:   opts.Metrics,
	}
}

func (w *SweepWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				log.Error("Failed to run cleanup sweep: %v", err)
			}
		}
	}
}

// Sweep runs one cleanup pass.
func (w *SweepWorker) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-w.retention)
	codes, err := w.store.StaleGames(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		log.Debug("No stale games to delete")
		return nil
	}

	for _, code := range codes {
		log.Info("Deleting stale game %s", code)
		if err := game.PurgeGame(ctx, w.store, code); err != nil {
			log.Error("Failed to purge stale game %s: %v", code, err)
			continue
		}
		w.metrics.IncGamesSwept()
	}
	return nil
}
