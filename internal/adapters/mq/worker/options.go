package worker

import (
	"time"

	"github.com/okian/pitwall/pkg/logger"
)

// Option applies a configuration option to the Refresher.
type Option func(*Refresher)

// WithInterval sets the periodic refresh interval. Zero disables the ticker.
func WithInterval(d time.Duration) Option {
	return func(r *Refresher) {
		if d >= 0 {
			r.interval = d
		}
	}
}

// WithLogger sets a custom logger for the refresher.
func WithLogger(l logger.Logger) Option {
	return func(r *Refresher) {
		if l != nil {
			r.logger = l
		}
	}
}
