package service

import (
	"strings"
	"time"

	"github.com/okian/pitwall/internal/adapters/mq/worker"
	"github.com/okian/pitwall/internal/adapters/repository"
	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/projection"
	"github.com/okian/pitwall/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPredictionsLoader sets where all_predictions.json is read from.
func WithPredictionsLoader(l worker.Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.predictions = l
		}
	}
}

// WithErrorSeriesLoader sets where error_data.csv is read from.
func WithErrorSeriesLoader(l worker.Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.errorSeries = l
		}
	}
}

// WithStandingsSource sets the live standings feed.
func WithStandingsSource(src StandingsSource) Option {
	return func(s *Service) {
		if src != nil {
			s.standings = src
		}
	}
}

// WithStore replaces the in-memory snapshot store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithRefreshInterval sets the periodic reload interval. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithQueueSize bounds pending refresh requests.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithPointsTable sets the points awarded per predicted finishing rank.
// An invalid table is ignored.
func WithPointsTable(t []int) Option {
	return func(s *Service) {
		if projection.PointsTable(t).Validate() == nil {
			s.pointsTable = append(projection.PointsTable(nil), t...)
		}
	}
}

// WithAveraging selects how model errors are averaged.
func WithAveraging(a aggregate.Averaging) Option {
	return func(s *Service) {
		if a != "" {
			s.averaging = a
		}
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(k model.ModelKind) Option {
	return func(s *Service) {
		if k.Valid() {
			s.defaultModel = k
		}
	}
}

// WithActualResults selects how already-awarded race points are backed out.
func WithActualResults(mode ActualResults) Option {
	return func(s *Service) {
		if mode != "" {
			s.actual = mode
		}
	}
}

// WithSimulationSeed sets the base seed of simulated results.
func WithSimulationSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithDriverAliases renames prediction drivers to their standings names.
func WithDriverAliases(aliases map[string]string) Option {
	return func(s *Service) {
		for from, to := range aliases {
			from, to = strings.TrimSpace(from), strings.TrimSpace(to)
			if from != "" && to != "" {
				s.aliases[model.DriverID(from)] = model.DriverID(to)
			}
		}
	}
}
