package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/nusantara-energy/portfolio-engine/internal/filter"
	"github.com/nusantara-energy/portfolio-engine/internal/portfolio"
)

// Refresher periodically recomputes the unfiltered dashboard summary so the
// first request after a cache expiry doesn't pay the aggregation cost
type Refresher struct {
	manager  *portfolio.Manager
	interval time.Duration
}

// NewRefresher creates a new refresh worker
func NewRefresher(manager *portfolio.Manager, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Refresher{
		manager:  manager,
		interval: interval,
	}
}

// Start begins the refresh worker in a goroutine
func (r *Refresher) Start(ctx context.Context) {
	go r.run(ctx)
}

func (r *Refresher) run(ctx context.Context) {
	slog.Info("summary refresh worker started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Warm the cache immediately on start
	r.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("summary refresh worker stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	slog.Debug("running summary refresh cycle")

	start := time.Now()
	summary, err := r.manager.Summary(ctx, filter.Spec{})
	if err != nil {
		slog.Error("failed to refresh dashboard summary", "error", err)
		return
	}

	slog.Debug("dashboard summary refreshed",
		"projects", summary.TotalProjects,
		"elapsed", time.Since(start),
	)
}
