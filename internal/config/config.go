// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// PredictionsSource is a path or http(s) URL of all_predictions.json.
	PredictionsSource string `koanf:"predictions_source" validate:"required"`

	// ErrorsSource is a path or http(s) URL of error_data.csv. Empty disables it.
	ErrorsSource string `koanf:"errors_source"`

	// RefreshIntervalS reloads artifacts periodically. Zero disables the ticker.
	RefreshIntervalS int `koanf:"refresh_interval_s" validate:"gte=0"`

	// RefreshQueueSize bounds pending POST /refresh requests.
	RefreshQueueSize int `koanf:"refresh_queue_size" validate:"gte=1"`

	// ErgastBaseURL is the results API root.
	ErgastBaseURL string `koanf:"ergast_base_url" validate:"required,url"`

	// ErgastTimeoutMS is the per-request timeout for the results API.
	ErgastTimeoutMS int `koanf:"ergast_timeout_ms" validate:"gt=0"`

	// ErgastRatePerS caps outbound requests per second.
	ErgastRatePerS float64 `koanf:"ergast_rate_per_s" validate:"gt=0"`

	// ErgastRetries is the number of attempts per results API call.
	ErgastRetries int `koanf:"ergast_retries" validate:"gte=1,lte=10"`

	// StandingsTTLS is how long live standings are reused.
	StandingsTTLS int `koanf:"standings_ttl_s" validate:"gt=0"`

	// PointsTable lists points per finishing rank, winner first.
	PointsTable []int `koanf:"points_table" validate:"min=1,max=10,dive,gte=0"`

	// ErrorAveraging divides model error by "races" (every race) or "runs" (successful runs).
	ErrorAveraging string `koanf:"error_averaging" validate:"oneof=races runs"`

	// DefaultModel is used when ?model= is omitted.
	DefaultModel string `koanf:"default_model" validate:"oneof=basic advanced nochange olddrivers"`

	// ActualResults selects how already-scored race points are backed out:
	// live (results API), simulated or none.
	ActualResults string `koanf:"actual_results" validate:"oneof=live simulated none"`

	// SimulationSeed seeds simulated race results.
	SimulationSeed int64 `koanf:"simulation_seed"`

	// DriverAliases renames prediction drivers to standings names.
	DriverAliases map[string]string `koanf:"driver_aliases"`

	// MaxDriversLimit caps GET /drivers?limit.
	MaxDriversLimit int `koanf:"max_drivers_limit" validate:"gte=1"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		PredictionsSource: "data/all_predictions.json",
		ErrorsSource:      "data/error_data.csv",
		RefreshIntervalS:  300,
		RefreshQueueSize:  8,
		ErgastBaseURL:     "https://api.jolpi.ca/ergast/f1",
		ErgastTimeoutMS:   5000,
		ErgastRatePerS:    4,
		ErgastRetries:     3,
		StandingsTTLS:     60,
		PointsTable:       []int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1},
		ErrorAveraging:    "races",
		DefaultModel:      "advanced",
		ActualResults:     "live",
		SimulationSeed:    42,
		DriverAliases:     map[string]string{},
		MaxDriversLimit:   100,
	}
}

// RefreshInterval returns RefreshIntervalS as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalS) * time.Second
}

// ErgastTimeout returns ErgastTimeoutMS as a duration.
func (c *Config) ErgastTimeout() time.Duration {
	return time.Duration(c.ErgastTimeoutMS) * time.Millisecond
}

// StandingsTTL returns StandingsTTLS as a duration.
func (c *Config) StandingsTTL() time.Duration {
	return time.Duration(c.StandingsTTLS) * time.Second
}
