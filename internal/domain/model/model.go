// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// DriverID identifies a driver by display name, e.g. "Max Verstappen".
type DriverID string

// RaceID identifies a Grand Prix by name, e.g. "Monaco".
type RaceID string

// Slug returns the URL form of a race name ("Emilia Romagna" -> "emilia-romagna").
func (r RaceID) Slug() string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(r))), " ", "-")
}

// ModelKind is the closed set of prediction model variants.
type ModelKind string

const (
	ModelBasic      ModelKind = "basic"
	ModelAdvanced   ModelKind = "advanced"
	ModelNoChange   ModelKind = "nochange"
	ModelOldDrivers ModelKind = "olddrivers"
)

// ModelKinds lists every model kind in display order.
var ModelKinds = []ModelKind{ModelBasic, ModelAdvanced, ModelNoChange, ModelOldDrivers} //nolint:gochecknoglobals // fixed enumeration

// ParseModelKind maps a string to a ModelKind. Anything outside the enumeration is rejected.
func ParseModelKind(s string) (ModelKind, error) {
	k := ModelKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownModelKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of the enumerated kinds.
func (k ModelKind) Valid() bool {
	switch k {
	case ModelBasic, ModelAdvanced, ModelNoChange, ModelOldDrivers:
		return true
	}
	return false
}

func (k ModelKind) String() string { return string(k) }

// PredictionRecord is one driver's predicted race time for a (race, model) pair.
type PredictionRecord struct {
	Driver               DriverID `json:"driver"`
	PredictedTimeSeconds float64  `json:"predictedTimeSeconds"`
	// Rank is the 1-based index in the source array, dropped entries
	// included. Zero means the record's index in its slice.
	Rank int `json:"-"`
}

// RunOutcome is either RunSuccess or RunFailure.
type RunOutcome interface {
	isRunOutcome()
}

// RunSuccess is a completed model run.
type RunSuccess struct {
	Predictions []PredictionRecord
	ModelError  float64
	// Entries is the length of the source prediction array, dropped
	// entries included. Zero means len(Predictions).
	Entries int
}

// PredictionCount returns the source array length.
func (s RunSuccess) PredictionCount() int {
	return max(s.Entries, len(s.Predictions))
}

// RunFailure is a model run the pipeline reported as failed.
type RunFailure struct {
	Reason string
}

func (RunSuccess) isRunOutcome() {}
func (RunFailure) isRunOutcome() {}

// ModelRunResult is one model's output for one race.
type ModelRunResult struct {
	Race      RaceID
	Model     ModelKind
	Timestamp time.Time
	Outcome   RunOutcome
}

// Success returns the successful outcome, if any.
func (r ModelRunResult) Success() (RunSuccess, bool) {
	s, ok := r.Outcome.(RunSuccess)
	return s, ok
}

// Failed reports whether the run carries anything other than predictions.
func (r ModelRunResult) Failed() bool {
	_, ok := r.Outcome.(RunSuccess)
	return !ok
}

// RaceRuns holds every model run of one race in artifact order.
type RaceRuns struct {
	Race RaceID
	Runs []ModelRunResult
}

// Run returns the run for a model kind.
func (r RaceRuns) Run(kind ModelKind) (ModelRunResult, bool) {
	for _, run := range r.Runs {
		if run.Model == kind {
			return run, true
		}
	}
	return ModelRunResult{}, false
}

// Season is the full prediction artifact, races in artifact order.
type Season struct {
	Races []RaceRuns
	// Keys counts the artifact's top-level race keys, malformed ones
	// included. Zero means len(Races).
	Keys int
}

// RaceCount returns the number of race keys in the artifact.
func (s Season) RaceCount() int {
	return max(s.Keys, len(s.Races))
}

// FindRace looks a race up by name or slug, case-insensitively.
func (s Season) FindRace(nameOrSlug string) (RaceRuns, bool) {
	want := strings.ToLower(strings.TrimSpace(nameOrSlug))
	for _, r := range s.Races {
		if strings.ToLower(string(r.Race)) == want || r.Race.Slug() == want {
			return r, true
		}
	}
	return RaceRuns{}, false
}

// StandingEntry is one row of the current championship table.
type StandingEntry struct {
	Position int      `json:"position"`
	Driver   DriverID `json:"driver"`
	Team     string   `json:"team"`
	Points   int      `json:"points"`
}

// RaceResultEntry is one classified finisher of a race.
type RaceResultEntry struct {
	Position   int      `json:"position"`
	Driver     DriverID `json:"driver"`
	Team       string   `json:"team"`
	FinishTime string   `json:"time"`
	Points     int      `json:"points"`
}

// ProjectedStandingEntry is a standings row after applying a predicted race.
type ProjectedStandingEntry struct {
	Position        int      `json:"position"`
	Driver          DriverID `json:"driver"`
	Team            string   `json:"team"`
	Points          int      `json:"points"`
	PredictedPoints int      `json:"predictedPoints"`
	PositionChange  int      `json:"positionChange"`
}

// ModelMetrics summarises one model kind across the season.
type ModelMetrics struct {
	ModelType        ModelKind `json:"modelType"`
	AverageError     float64   `json:"averageError"`
	PredictionsCount int       `json:"predictionsCount"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

// DriverStat summarises a driver's predicted ranks across every run.
type DriverStat struct {
	Driver           DriverID `json:"driver"`
	Positions        []int    `json:"positions"`
	AveragePosition  float64  `json:"averagePosition"`
	ConsistencyScore float64  `json:"consistencyScore"`
}

// ErrorRow is one line of the error-series export.
type ErrorRow struct {
	GrandPrix    RaceID    `json:"grandPrix"`
	Model        ModelKind `json:"modelType"`
	ErrorSeconds float64   `json:"errorSeconds"`
}

// Sources of the actual result backed out of a projection.
const (
	ActualSourceLive      = "live"
	ActualSourceSimulated = "simulated"
	ActualSourceNone      = "none"
)

// ChampionshipImpact is the projected table for one race and one model run.
type ChampionshipImpact struct {
	Race         RaceID                   `json:"race"`
	Model        ModelKind                `json:"modelType"`
	Current      []StandingEntry          `json:"currentStandings"`
	Projected    []ProjectedStandingEntry `json:"projectedStandings"`
	Actual       []RaceResultEntry        `json:"actualResults,omitempty"`
	ActualSource string                   `json:"actualSource"`
	Unmatched    []DriverID               `json:"unmatchedDrivers,omitempty"`
}
