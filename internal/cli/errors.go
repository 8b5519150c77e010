package cli

import "errors"

// Sentinel kinds for command failures.
var (
	ErrRaceNotFound     = errors.New("race not found")
	ErrModelUnavailable = errors.New("model run unavailable")
	ErrCheckFailed      = errors.New("server check failed")
)
