package model

import "errors"

// Sentinel error kinds shared by the service and its adapters.
var (
	// ErrUnknownModelKind is returned when a string is not one of the enumerated model kinds.
	ErrUnknownModelKind = errors.New("unknown model kind")
	// ErrRaceNotFound is returned when no race matches a name or slug.
	ErrRaceNotFound = errors.New("race not found")
	// ErrModelUnavailable is returned when a race has no successful run for a model.
	ErrModelUnavailable = errors.New("model run unavailable")
	// ErrNotReady is returned before the first snapshot has been loaded.
	ErrNotReady = errors.New("predictions not loaded")
	// ErrDataUnavailable is returned when live standings cannot be fetched.
	ErrDataUnavailable = errors.New("data unavailable")
)
