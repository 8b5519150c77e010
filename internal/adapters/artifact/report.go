package artifact

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Reasons a record is dropped while parsing.
const (
	ReasonMalformedRace = "malformed_race"
	ReasonMalformedRun  = "malformed_run"
	ReasonUnknownModel  = "unknown_model"
	ReasonBadModelError = "bad_model_error"
	ReasonMissingDriver = "missing_driver"
	ReasonBadTime       = "bad_time"
	ReasonMalformedRow  = "malformed_row"
	ReasonBadErrorValue = "bad_error_value"
)

// Report counts records skipped while parsing, by reason.
type Report struct {
	Dropped map[string]int
}

func (r *Report) drop(reason string) {
	r.add(reason, 1)
}

func (r *Report) add(reason string, n int) {
	if r.Dropped == nil {
		r.Dropped = map[string]int{}
	}
	r.Dropped[reason] += n
}

// Total returns the number of dropped records.
func (r Report) Total() int {
	n := 0
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

// Merge adds other's counts into r.
func (r *Report) Merge(other Report) {
	for reason, c := range other.Dropped {
		r.add(reason, c)
	}
}

func (r Report) String() string {
	if r.Total() == 0 {
		return "no records dropped"
	}
	reasons := slices.Sorted(maps.Keys(r.Dropped))
	parts := make([]string, len(reasons))
	for i, reason := range reasons {
		parts[i] = fmt.Sprintf("%s=%d", reason, r.Dropped[reason])
	}
	return strings.Join(parts, " ")
}
