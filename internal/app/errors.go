package service

import "errors"

// Sentinel kinds for service lifecycle errors.
var (
	ErrNoPredictionsSource = errors.New("no predictions source configured")
	ErrUnknownActualMode   = errors.New("unknown actual results mode")
)
