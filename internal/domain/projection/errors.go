package projection

import "errors"

// ErrInvalidPointsTable is returned when a points table breaks its ordering rules.
var ErrInvalidPointsTable = errors.New("invalid points table")
