package ergast

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/okian/pitwall/internal/domain/model"
)

const unknownTeam = "N/A"

type driver struct {
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

func (d driver) name() model.DriverID {
	return model.DriverID(strings.TrimSpace(d.GivenName + " " + d.FamilyName))
}

type constructor struct {
	Name string `json:"name"`
}

type standingsResponse struct {
	MRData struct {
		StandingsTable struct {
			Season         string `json:"season"`
			Round          string `json:"round"`
			StandingsLists []struct {
				DriverStandings []struct {
					Position     string        `json:"position"`
					Points       string        `json:"points"`
					Driver       driver        `json:"Driver"`
					Constructors []constructor `json:"Constructors"`
				} `json:"DriverStandings"`
			} `json:"StandingsLists"`
		} `json:"StandingsTable"`
	} `json:"MRData"`
}

type resultsResponse struct {
	MRData struct {
		RaceTable struct {
			Races []struct {
				Season   string `json:"season"`
				Round    string `json:"round"`
				RaceName string `json:"raceName"`
				Circuit  struct {
					Location struct {
						Locality string `json:"locality"`
						Country  string `json:"country"`
					} `json:"Location"`
				} `json:"Circuit"`
				Results []struct {
					Position    string      `json:"position"`
					Points      string      `json:"points"`
					Driver      driver      `json:"Driver"`
					Constructor constructor `json:"Constructor"`
					Status      string      `json:"status"`
					Time        *struct {
						Time string `json:"time"`
					} `json:"Time"`
				} `json:"Results"`
			} `json:"Races"`
		} `json:"RaceTable"`
	} `json:"MRData"`
}

// RaceResult is a classified race as reported by the results API.
type RaceResult struct {
	Season   string                  `json:"season"`
	Round    string                  `json:"round"`
	RaceName string                  `json:"raceName"`
	Locality string                  `json:"locality"`
	Country  string                  `json:"country"`
	Entries  []model.RaceResultEntry `json:"entries"`
}

// Matches reports whether race names this result, comparing against the
// race name, circuit locality and country.
func (r RaceResult) Matches(race model.RaceID) bool {
	want := strings.ToLower(strings.TrimSpace(string(race)))
	if want == "" {
		return false
	}
	for _, s := range []string{r.RaceName, r.Locality, r.Country} {
		if s != "" && strings.Contains(strings.ToLower(s), want) {
			return true
		}
	}
	return false
}

// ParseStandings flattens a driverStandings response. An empty standings
// list yields no entries.
func ParseStandings(data []byte) ([]model.StandingEntry, error) {
	var resp standingsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	lists := resp.MRData.StandingsTable.StandingsLists
	if len(lists) == 0 {
		return []model.StandingEntry{}, nil
	}
	rows := lists[0].DriverStandings
	out := make([]model.StandingEntry, 0, len(rows))
	for i, row := range rows {
		team := unknownTeam
		if len(row.Constructors) > 0 && row.Constructors[0].Name != "" {
			team = row.Constructors[0].Name
		}
		out = append(out, model.StandingEntry{
			Position: atoiOr(row.Position, i+1),
			Driver:   row.Driver.name(),
			Team:     team,
			Points:   points(row.Points),
		})
	}
	return out, nil
}

// ParseResults flattens a results response for a single race.
func ParseResults(data []byte) (RaceResult, error) {
	var resp resultsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return RaceResult{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	races := resp.MRData.RaceTable.Races
	if len(races) == 0 {
		return RaceResult{}, ErrNoRace
	}
	race := races[0]
	out := RaceResult{
		Season:   race.Season,
		Round:    race.Round,
		RaceName: race.RaceName,
		Locality: race.Circuit.Location.Locality,
		Country:  race.Circuit.Location.Country,
		Entries:  make([]model.RaceResultEntry, 0, len(race.Results)),
	}
	for i, r := range race.Results {
		finish := r.Status
		if r.Time != nil && r.Time.Time != "" {
			finish = r.Time.Time
		}
		team := r.Constructor.Name
		if team == "" {
			team = unknownTeam
		}
		out.Entries = append(out.Entries, model.RaceResultEntry{
			Position:   atoiOr(r.Position, i+1),
			Driver:     r.Driver.name(),
			Team:       team,
			FinishTime: finish,
			Points:     points(r.Points),
		})
	}
	return out, nil
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// points parses a points string; half points round half away from zero.
func points(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}
