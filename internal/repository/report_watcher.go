package repository

import (
	"context"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/saferoute/admin-api/internal/models"
)

// snapshotLister is the slice of ReportRepository the watcher needs.
type snapshotLister interface {
	List(ctx context.Context) ([]models.Report, error)
}

// ReportWatcher re-delivers the entire current report collection whenever it
// changes, the live-query contract the enrichment pipeline consumes. Change
// signals arrive over the reports_changed Postgres channel; a polling tick
// covers writers that bypass pg_notify. Snapshot errors are logged and the
// previous snapshot stands, so the feed never dies on a transient failure.
type ReportWatcher struct {
	repo     snapshotLister
	listener *pq.Listener
	interval time.Duration
	logger   *zap.Logger
}

// NewReportWatcher constructs the watcher. dsn must match the connection the
// repository uses.
func NewReportWatcher(dsn string, repo snapshotLister, pollInterval time.Duration, logger *zap.Logger) *ReportWatcher {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	listener := pq.NewListener(dsn, 5*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("report listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	return &ReportWatcher{repo: repo, listener: listener, interval: pollInterval, logger: logger}
}

// Watch subscribes to the change channel and returns a feed of full
// snapshots, starting with the current collection. The channel is closed
// when ctx is cancelled. The feed holds at most the latest snapshot: a
// pending one is replaced, never queued behind.
func (w *ReportWatcher) Watch(ctx context.Context) (<-chan []models.Report, error) {
	if err := w.listener.Listen(reportsChannel); err != nil {
		return nil, err
	}
	out := make(chan []models.Report, 1)
	go w.run(ctx, out)
	return out, nil
}

func (w *ReportWatcher) run(ctx context.Context, out chan []models.Report) {
	defer close(out)
	defer w.listener.Close() //nolint:errcheck

	w.deliver(ctx, out)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.listener.Notify:
			w.deliver(ctx, out)
		case <-ticker.C:
			w.deliver(ctx, out)
		}
	}
}

func (w *ReportWatcher) deliver(ctx context.Context, out chan []models.Report) {
	snapshot, err := w.repo.List(ctx)
	if err != nil {
		w.logger.Warn("report snapshot failed", zap.Error(err))
		return
	}
	// Replace a pending snapshot rather than queueing behind it.
	select {
	case out <- snapshot:
	default:
		select {
		case <-out:
		default:
		}
		select {
		case out <- snapshot:
		default:
		}
	}
}
