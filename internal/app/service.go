// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/okian/pitwall/internal/adapters/ergast"
	refreshqueue "github.com/okian/pitwall/internal/adapters/mq/queue"
	"github.com/okian/pitwall/internal/adapters/mq/worker"
	"github.com/okian/pitwall/internal/adapters/repository"
	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/projection"
	"github.com/okian/pitwall/internal/domain/simulate"
	"github.com/okian/pitwall/pkg/logger"
	"github.com/okian/pitwall/pkg/metrics"
)

// ActualResults selects where the points of an already-run race come from.
type ActualResults string

const (
	// ActualLive uses the last race reported by the results API, when it is the requested race.
	ActualLive ActualResults = "live"
	// ActualSimulated fabricates a deterministic result for the requested race.
	ActualSimulated ActualResults = "simulated"
	// ActualNone projects on top of the standings as they are.
	ActualNone ActualResults = "none"
)

// ParseActualResults maps a config string to a mode. Empty means live.
func ParseActualResults(s string) (ActualResults, error) {
	switch m := ActualResults(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ActualLive, nil
	case ActualLive, ActualSimulated, ActualNone:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownActualMode, s)
	}
}

// StandingsSource provides live championship data.
type StandingsSource interface {
	DriverStandings(ctx context.Context) ([]model.StandingEntry, error)
	LastRaceResult(ctx context.Context) (ergast.RaceResult, error)
}

// Service implements the API dependencies for the prediction dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	queue     *refreshqueue.InMemoryQueue
	refresher *worker.Refresher
	standings StandingsSource
	simulator *simulate.Simulator
	projector *projection.Projector

	// Sources
	predictions worker.Loader
	errorSeries worker.Loader

	// Configuration
	refreshInterval time.Duration
	queueSize       int
	pointsTable     projection.PointsTable
	averaging       aggregate.Averaging
	defaultModel    model.ModelKind
	actual          ActualResults
	seed            int64
	aliases         map[model.DriverID]model.DriverID

	// State
	started bool
	cancel  context.CancelFunc
	runDone chan struct{}

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		refreshInterval: 5 * time.Minute,
		queueSize:       8,
		pointsTable:     projection.DefaultPointsTable(),
		averaging:       aggregate.AverageOverRaces,
		defaultModel:    model.ModelAdvanced,
		actual:          ActualLive,
		seed:            simulate.DefaultSeed,
		aliases:         map[model.DriverID]model.DriverID{},
		logger:          nil, // replaced when the service starts
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components, performs the first load and starts the
// background refresher. A failed first load is logged and the service starts
// anyway; reads return model.ErrNotReady until a refresh succeeds.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.predictions == nil {
		return ErrNoPredictionsSource
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	projector, err := projection.New(s.pointsTable)
	if err != nil {
		return fmt.Errorf("projector: %w", err)
	}
	s.projector = projector
	s.simulator = simulate.New(simulate.WithSeed(s.seed), simulate.WithPointsTable(s.pointsTable))
	if s.standings == nil {
		s.standings = ergast.New(ergast.WithLogger(s.logger.Named("ergast")))
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.queue = refreshqueue.NewInMemoryQueue(refreshqueue.WithCapacity(s.queueSize))
	s.refresher = worker.NewRefresher(s.predictions, s.errorSeries, s.store, s.queue,
		worker.WithInterval(s.refreshInterval),
		worker.WithLogger(s.logger.Named("refresher")),
	)

	if err := s.refresher.Refresh(ctx, "startup"); err != nil {
		s.logger.Error(ctx, "initial load failed; serving without predictions until a refresh succeeds", logger.Error(err))
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.runDone = make(chan struct{})
	go func() {
		defer close(s.runDone)
		s.refresher.Run(runCtx)
	}()

	s.started = true
	s.logger.Info(ctx, "prediction service started",
		logger.String("predictions", s.predictions.String()),
		logger.String("actualResults", string(s.actual)),
		logger.String("averaging", string(s.averaging)),
		logger.Duration("refreshInterval", s.refreshInterval),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping prediction service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = s.refresher.Shutdown(shutdownCtx)
	s.cancel()
	<-s.runDone
	_ = s.queue.Close()

	s.started = false
	s.logger.Info(ctx, "prediction service stopped")
}

// DefaultModel is the model used when a request names none.
func (s *Service) DefaultModel() model.ModelKind {
	return s.defaultModel
}

// Ready reports whether a snapshot has been loaded.
func (s *Service) Ready(ctx context.Context) bool {
	_, err := s.snapshot(ctx)
	return err == nil
}

func (s *Service) snapshot(ctx context.Context) (*repository.Snapshot, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return nil, model.ErrNotReady
	}
	snap, err := store.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrNotReady, err)
	}
	return snap, nil
}

func (s *Service) summary(ctx context.Context) (aggregate.Summary, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return aggregate.Summary{}, err
	}
	metrics.RecordAggregation()
	return aggregate.Aggregate(snap.Season, aggregate.Options{Averaging: s.averaging}), nil
}

// Models returns per-model error metrics.
func (s *Service) Models(ctx context.Context) ([]model.ModelMetrics, error) {
	sum, err := s.summary(ctx)
	if err != nil {
		return nil, err
	}
	return sum.Models, nil
}

// Drivers returns driver stats ordered by average predicted position. A
// non-positive limit returns every driver.
func (s *Service) Drivers(ctx context.Context, limit int) ([]model.DriverStat, error) {
	sum, err := s.summary(ctx)
	if err != nil {
		return nil, err
	}
	drivers := slices.Clone(sum.Drivers)
	slices.SortStableFunc(drivers, func(a, b model.DriverStat) int {
		switch {
		case a.AveragePosition < b.AveragePosition:
			return -1
		case a.AveragePosition > b.AveragePosition:
			return 1
		}
		return 0
	})
	if limit > 0 && len(drivers) > limit {
		drivers = drivers[:limit]
	}
	return drivers, nil
}

// Races lists every race and each model's run status.
func (s *Service) Races(ctx context.Context) ([]aggregate.RaceSummary, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.RaceIndex(snap.Season), nil
}

// Race returns the analytics of one race.
func (s *Service) Race(ctx context.Context, race string) (aggregate.RaceAnalysis, error) {
	runs, err := s.findRace(ctx, race)
	if err != nil {
		return aggregate.RaceAnalysis{}, err
	}
	return aggregate.AnalyzeRace(runs), nil
}

// Predictions returns one model's predictions for a race sorted by time.
func (s *Service) Predictions(ctx context.Context, race string, kind model.ModelKind) ([]aggregate.PredictionRow, error) {
	runs, err := s.findRace(ctx, race)
	if err != nil {
		return nil, err
	}
	res, err := successfulRun(runs, kind)
	if err != nil {
		return nil, err
	}
	return aggregate.SortedPredictions(s.alias(res.Predictions), s.pointsTable), nil
}

// Projection applies one model's predictions for a race to the live standings.
// It returns model.ErrNotReady until the service has started.
func (s *Service) Projection(ctx context.Context, race string, kind model.ModelKind) (model.ChampionshipImpact, error) {
	s.mu.RLock()
	projector := s.projector
	s.mu.RUnlock()
	if projector == nil {
		return model.ChampionshipImpact{}, fmt.Errorf("%w: service not started", model.ErrNotReady)
	}

	runs, err := s.findRace(ctx, race)
	if err != nil {
		return model.ChampionshipImpact{}, err
	}
	res, err := successfulRun(runs, kind)
	if err != nil {
		return model.ChampionshipImpact{}, err
	}

	standings, err := s.standings.DriverStandings(ctx)
	if err != nil {
		s.logger.Warn(ctx, "standings unavailable", logger.String("race", string(runs.Race)), logger.Error(err))
		return model.ChampionshipImpact{}, fmt.Errorf("%w: %w", model.ErrDataUnavailable, err)
	}

	actual, source := s.actualResult(ctx, runs.Race)
	predictions := s.alias(res.Predictions)
	unmatched := projection.Unmatched(standings, predictions)
	if len(unmatched) > 0 {
		metrics.RecordUnmatchedDrivers(len(unmatched))
		s.logger.Debug(ctx, "predicted drivers missing from standings",
			logger.String("race", string(runs.Race)),
			logger.Any("drivers", unmatched))
	}
	metrics.RecordProjection(string(kind))

	return model.ChampionshipImpact{
		Race:         runs.Race,
		Model:        kind,
		Current:      standings,
		Projected:    projector.Project(standings, predictions, actual),
		Actual:       actual,
		ActualSource: source,
		Unmatched:    unmatched,
	}, nil
}

// actualResult picks the result whose points are backed out before
// projecting. A live result is only used when it is the requested race.
func (s *Service) actualResult(ctx context.Context, race model.RaceID) ([]model.RaceResultEntry, string) {
	switch s.actual {
	case ActualSimulated:
		return s.simulator.Result(race), model.ActualSourceSimulated
	case ActualLive:
		res, err := s.standings.LastRaceResult(ctx)
		if err != nil {
			s.logger.Warn(ctx, "last race result unavailable; projecting without it", logger.Error(err))
			return nil, model.ActualSourceNone
		}
		if !res.Matches(race) {
			return nil, model.ActualSourceNone
		}
		return res.Entries, model.ActualSourceLive
	default:
		return nil, model.ActualSourceNone
	}
}

// ErrorSeries returns the error-series rows, optionally for one race.
func (s *Service) ErrorSeries(ctx context.Context, race string) ([]model.ErrorRow, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	race = strings.ToLower(strings.TrimSpace(race))
	if race == "" {
		return snap.ErrorRows, nil
	}
	return lo.Filter(snap.ErrorRows, func(r model.ErrorRow, _ int) bool {
		return strings.ToLower(string(r.GrandPrix)) == race || r.GrandPrix.Slug() == race
	}), nil
}

// ErrorSummary returns per-model statistics of the error series.
func (s *Service) ErrorSummary(ctx context.Context) ([]aggregate.ModelErrorSummary, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.ErrorSummary(snap.ErrorRows), nil
}

// Trends returns per-race model comparisons.
func (s *Service) Trends(ctx context.Context) ([]aggregate.RaceTrend, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.RaceTrends(snap.Season), nil
}

// RequestRefresh queues an artifact reload. It returns false on backpressure
// or when the service is not running.
func (s *Service) RequestRefresh(ctx context.Context, reason string) (string, bool) {
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return "", false
	}
	req := refreshqueue.NewRefreshRequest(reason)
	if !q.Enqueue(ctx, req) {
		s.logger.Warn(ctx, "refresh request rejected", logger.String("reason", reason))
		return "", false
	}
	metrics.UpdateRefreshQueueSize(q.Len(ctx))
	return req.ID, true
}

func (s *Service) findRace(ctx context.Context, race string) (model.RaceRuns, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return model.RaceRuns{}, err
	}
	runs, ok := snap.Season.FindRace(race)
	if !ok {
		return model.RaceRuns{}, fmt.Errorf("%w: %q", model.ErrRaceNotFound, race)
	}
	return runs, nil
}

func successfulRun(runs model.RaceRuns, kind model.ModelKind) (model.RunSuccess, error) {
	run, ok := runs.Run(kind)
	if !ok {
		return model.RunSuccess{}, fmt.Errorf("%w: %s has no %s run", model.ErrModelUnavailable, runs.Race, kind)
	}
	res, ok := run.Success()
	if !ok {
		return model.RunSuccess{}, fmt.Errorf("%w: %s %s run failed", model.ErrModelUnavailable, runs.Race, kind)
	}
	return res, nil
}

// alias renames drivers per the configured aliases. The input is not modified.
func (s *Service) alias(preds []model.PredictionRecord) []model.PredictionRecord {
	if len(s.aliases) == 0 {
		return preds
	}
	return lo.Map(preds, func(p model.PredictionRecord, _ int) model.PredictionRecord {
		if to, ok := s.aliases[p.Driver]; ok {
			p.Driver = to
		}
		return p
	})
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"actualResults": string(s.actual),
		"averaging":     string(s.averaging),
		"defaultModel":  string(s.defaultModel),
		"queueSize":     s.queueSize,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(ctx)
	stats["queueLength"] = queueLen
	metrics.UpdateRefreshQueueSize(queueLen)
	for k, v := range s.refresher.Stats() {
		stats[k] = v
	}
	if snap, err := s.store.Current(ctx); err == nil {
		stats["snapshotId"] = snap.ID
		stats["snapshotVersion"] = snap.Version
		stats["races"] = len(snap.Season.Races)
		stats["errorRows"] = len(snap.ErrorRows)
		stats["loadedAt"] = snap.LoadedAt.UTC().Format(time.RFC3339)
		stats["dropped"] = snap.Dropped
	}
	return stats
}
