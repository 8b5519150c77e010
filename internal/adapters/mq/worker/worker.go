// Package worker runs the background refresher that reloads prediction
// artifacts and publishes them as snapshots.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/pitwall/internal/adapters/artifact"
	"github.com/okian/pitwall/internal/adapters/mq/queue"
	"github.com/okian/pitwall/internal/adapters/repository"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/pkg/logger"
	"github.com/okian/pitwall/pkg/metrics"
)

const (
	artifactPredictions = "predictions"
	artifactErrorSeries = "error_series"
)

// Loader yields raw artifact bytes.
type Loader interface {
	Load(ctx context.Context) ([]byte, error)
	String() string
}

// Publisher stores a freshly built snapshot.
type Publisher interface {
	Publish(ctx context.Context, s *repository.Snapshot) error
}

// Queue defines how the refresher receives on-demand requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.RefreshRequest
}

// Refresher reloads artifacts on a ticker and on queued requests. A failed
// refresh leaves the previously published snapshot in place.
type Refresher struct {
	predictions Loader
	errorSeries Loader
	store       Publisher
	queue       Queue
	interval    time.Duration
	logger      logger.Logger

	mu sync.Mutex // serializes Refresh

	statsMu     sync.RWMutex
	refreshes   int64
	failures    int64
	lastRefresh time.Time
	lastErr     error

	shutdown chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewRefresher builds a refresher. errorSeries may be nil.
func NewRefresher(predictions, errorSeries Loader, store Publisher, q Queue, opts ...Option) *Refresher {
	r := &Refresher{
		predictions: predictions,
		errorSeries: errorSeries,
		store:       store,
		queue:       q,
		logger:      logger.Nop(),
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run consumes queued requests and ticks until ctx is cancelled, Shutdown is
// called or the queue closes.
func (r *Refresher) Run(ctx context.Context) {
	defer close(r.done)

	var tick <-chan time.Time
	if r.interval > 0 {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		tick = t.C
	}

	var requests <-chan queue.RefreshRequest
	if r.queue != nil {
		requests = r.queue.Dequeue(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case <-tick:
			_ = r.refresh(ctx, uuid.NewString(), "interval")
		case req, ok := <-requests:
			if !ok {
				return
			}
			_ = r.refresh(ctx, req.ID, req.Reason)
		}
	}
}

// Refresh loads both artifacts now and publishes the result.
func (r *Refresher) Refresh(ctx context.Context, reason string) error {
	return r.refresh(ctx, uuid.NewString(), reason)
}

func (r *Refresher) refresh(ctx context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	snap, err := r.load(ctx)
	if err == nil {
		snap.ID = id
		err = r.store.Publish(ctx, snap)
	}
	took := time.Since(start)
	metrics.RecordRefreshDuration(float64(took.Milliseconds()))

	r.statsMu.Lock()
	r.refreshes++
	r.lastErr = err
	if err != nil {
		r.failures++
	} else {
		r.lastRefresh = time.Now()
	}
	r.statsMu.Unlock()

	if err != nil {
		metrics.RecordRefreshRequest("failed")
		metrics.RecordErrorByType("refresh_failed", "error")
		r.logger.Error(ctx, "refresh failed, keeping previous snapshot",
			logger.String("id", id),
			logger.String("reason", reason),
			logger.Error(err))
		return err
	}

	metrics.RecordRefreshRequest("succeeded")
	r.logger.Info(ctx, "snapshot published",
		logger.String("id", id),
		logger.String("reason", reason),
		logger.Int("races", len(snap.Season.Races)),
		logger.Int("errorRows", len(snap.ErrorRows)),
		logger.Duration("took", took))
	for why, n := range snap.Dropped {
		r.logger.Warn(ctx, "dropped malformed records",
			logger.String("reason", why),
			logger.Int("count", n))
	}
	return nil
}

func (r *Refresher) load(ctx context.Context) (*repository.Snapshot, error) {
	var (
		season     model.Season
		seasonRep  artifact.Report
		rows       []model.ErrorRow
		rowsReport artifact.Report
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := r.loadArtifact(gctx, artifactPredictions, r.predictions)
		if err != nil {
			return err
		}
		season, seasonRep, err = artifact.ParseSeason(b)
		if err != nil {
			return fmt.Errorf("parse %s: %w", r.predictions, err)
		}
		recordDropped(artifactPredictions, seasonRep)
		return nil
	})
	if r.errorSeries != nil {
		g.Go(func() error {
			b, err := r.loadArtifact(gctx, artifactErrorSeries, r.errorSeries)
			if err != nil {
				return err
			}
			rows, rowsReport, err = artifact.ParseErrorSeries(bytes.NewReader(b))
			if err != nil {
				return fmt.Errorf("parse %s: %w", r.errorSeries, err)
			}
			recordDropped(artifactErrorSeries, rowsReport)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var report artifact.Report
	report.Merge(seasonRep)
	report.Merge(rowsReport)
	return &repository.Snapshot{
		Season:    season,
		ErrorRows: rows,
		Dropped:   report.Dropped,
		LoadedAt:  time.Now(),
	}, nil
}

func (r *Refresher) loadArtifact(ctx context.Context, name string, l Loader) ([]byte, error) {
	start := time.Now()
	b, err := l.Load(ctx)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordArtifactLoad(name, outcome, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l, err)
	}
	return b, nil
}

func recordDropped(name string, rep artifact.Report) {
	for reason, n := range rep.Dropped {
		metrics.RecordRecordsDropped(name, reason, n)
	}
}

// Shutdown stops Run and waits for it to return.
func (r *Refresher) Shutdown(ctx context.Context) error {
	r.once.Do(func() { close(r.shutdown) })
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Stats reports refresh counters.
func (r *Refresher) Stats() map[string]interface{} {
	r.statsMu.RLock()
	defer r.statsMu.RUnlock()
	stats := map[string]interface{}{
		"refreshes":        r.refreshes,
		"refresh_failures": r.failures,
		"refresh_interval": r.interval.String(),
	}
	if !r.lastRefresh.IsZero() {
		stats["last_refresh"] = r.lastRefresh.UTC().Format(time.RFC3339)
	}
	if r.lastErr != nil {
		stats["last_error"] = r.lastErr.Error()
	}
	return stats
}
