package ergast

import "errors"

// Sentinel kinds for results API errors.
var (
	ErrUpstreamStatus = errors.New("results api returned unexpected status")
	ErrDecode         = errors.New("results api response could not be decoded")
	ErrNoRace         = errors.New("results api returned no race")
)
