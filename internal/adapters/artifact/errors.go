package artifact

import "errors"

// Sentinel kinds for artifact loading errors.
var (
	ErrNotObject    = errors.New("prediction artifact is not a JSON object")
	ErrBadHeader    = errors.New("error series header is missing required columns")
	ErrUnavailable  = errors.New("artifact unavailable")
	ErrEmptyLocator = errors.New("artifact location is empty")
)
