package aggregate

import "errors"

// ErrUnknownAveraging is returned for an averaging mode other than races or runs.
var ErrUnknownAveraging = errors.New("unknown averaging mode")
