package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"theatre/internal/consumers"
)

const DefaultReconcileInterval = 5 * time.Minute

// StatsReconcileJob periodically rewrites every session's stats from
// Postgres, repairing counters for events that were lost.
type StatsReconcileJob struct {
	sales    consumers.SalesSource
	sink     consumers.StatsSink
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

func NewStatsReconcileJob(sales consumers.SalesSource, sink consumers.StatsSink, interval time.Duration) *StatsReconcileJob {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &StatsReconcileJob{
		sales:    sales,
		sink:     sink,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval until Stop.
func (j *StatsReconcileJob) Start(ctx context.Context) {
	slog.Info("Starting stats reconcile job", "interval", j.interval)

	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.runLogged(ctx)
		for {
			select {
			case <-ticker.C:
				j.runLogged(ctx)
			case <-ctx.Done():
				return
			case <-j.done:
				slog.Info("Stats reconcile job stopped")
				return
			}
		}
	}()
}

func (j *StatsReconcileJob) Stop() {
	j.stopOnce.Do(func() { close(j.done) })
}

// RunOnce recomputes and stores stats for all sessions with sales.
func (j *StatsReconcileJob) RunOnce(ctx context.Context) (int, error) {
	stats, err := j.sales.SalesBySession(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	if err := j.sink.PutSessionStats(ctx, stats); err != nil {
		return 0, fmt.Errorf("failed to store stats: %w", err)
	}
	return len(stats), nil
}

func (j *StatsReconcileJob) runLogged(ctx context.Context) {
	n, err := j.RunOnce(ctx)
	if err != nil {
		slog.Error("Stats reconcile failed", "error", err)
		return
	}
	slog.Debug("Stats reconciled", "sessions", n)
}
