// Package simulate fabricates a plausible classified race result for races
// that have no live result yet.
package simulate

import (
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/projection"
	"github.com/okian/pitwall/internal/domain/timing"
)

// DefaultSeed is the base seed used when none is configured.
const DefaultSeed = 42

const baseRaceTime = 90 * time.Minute

// Driver is a grid entry.
type Driver struct {
	Name model.DriverID
	Team string
}

// DefaultGrid is the twenty-car grid used when none is configured.
func DefaultGrid() []Driver {
	return []Driver{
		{"Max Verstappen", "Red Bull Racing"},
		{"Sergio Perez", "Red Bull Racing"},
		{"Charles Leclerc", "Ferrari"},
		{"Carlos Sainz", "Ferrari"},
		{"Lewis Hamilton", "Mercedes"},
		{"George Russell", "Mercedes"},
		{"Lando Norris", "McLaren"},
		{"Oscar Piastri", "McLaren"},
		{"Fernando Alonso", "Aston Martin"},
		{"Lance Stroll", "Aston Martin"},
		{"Esteban Ocon", "Alpine"},
		{"Pierre Gasly", "Alpine"},
		{"Daniel Ricciardo", "RB F1 Team"},
		{"Yuki Tsunoda", "RB F1 Team"},
		{"Valtteri Bottas", "Kick Sauber"},
		{"Zhou Guanyu", "Kick Sauber"},
		{"Kevin Magnussen", "Haas F1 Team"},
		{"Nico Hulkenberg", "Haas F1 Team"},
		{"Alexander Albon", "Williams"},
		{"Logan Sargeant", "Williams"},
	}
}

// defaultTiers groups DefaultGrid indexes by expected pace, fastest first.
func defaultTiers() [][]int {
	return [][]int{
		{0, 4, 6},
		{1, 2, 3, 5, 7},
		{8, 9, 10, 11, 12, 13},
		{14, 15, 16, 17, 18, 19},
	}
}

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithSeed sets the base seed mixed into every race's generator.
func WithSeed(seed int64) Option {
	return func(s *Simulator) {
		s.seed = seed
	}
}

// WithPointsTable sets the table used to award points.
func WithPointsTable(t projection.PointsTable) Option {
	return func(s *Simulator) {
		if t.Validate() == nil {
			s.table = t
		}
	}
}

// WithGrid replaces the grid. tiers index into grid, fastest tier first; a
// nil tiers puts every driver in one tier.
func WithGrid(grid []Driver, tiers [][]int) Option {
	return func(s *Simulator) {
		if len(grid) == 0 {
			return
		}
		if tiers == nil {
			all := make([]int, len(grid))
			for i := range all {
				all[i] = i
			}
			tiers = [][]int{all}
		}
		s.grid, s.tiers = grid, tiers
	}
}

// Simulator produces deterministic fake results per race.
type Simulator struct {
	seed  int64
	table projection.PointsTable
	grid  []Driver
	tiers [][]int
}

// New returns a Simulator with the default grid and points table.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		seed:  DefaultSeed,
		table: projection.DefaultPointsTable(),
		grid:  DefaultGrid(),
		tiers: defaultTiers(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result returns the simulated classification for race. The same race and
// seed always produce the same result.
func (s *Simulator) Result(race model.RaceID) []model.RaceResultEntry {
	rng := rand.New(rand.NewSource(s.raceSeed(race))) //nolint:gosec // not security sensitive

	order := make([]int, 0, len(s.grid))
	for _, tier := range s.tiers {
		shuffled := append([]int(nil), tier...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		for _, idx := range shuffled {
			if idx >= 0 && idx < len(s.grid) {
				order = append(order, idx)
			}
		}
	}

	out := make([]model.RaceResultEntry, len(order))
	for pos, idx := range order {
		gap := gapFor(pos, rng)
		finish := timing.Gap(0, gap)
		if pos == 0 {
			ms := time.Duration(rng.Intn(999)) * time.Millisecond
			finish = timing.FormatClock(baseRaceTime + ms)
		}
		out[pos] = model.RaceResultEntry{
			Position:   pos + 1,
			Driver:     s.grid[idx].Name,
			Team:       s.grid[idx].Team,
			FinishTime: finish,
			Points:     s.table.Points(pos + 1),
		}
	}
	return out
}

// gapFor returns seconds behind the leader for a 0-based position.
func gapFor(pos int, rng *rand.Rand) float64 {
	p := float64(pos)
	switch {
	case pos == 0:
		return 0
	case pos < 3:
		return p*3 + rng.Float64()*5
	case pos < 10:
		return 15 + p*5 + rng.Float64()*8
	default:
		return 60 + p*8 + rng.Float64()*12
	}
}

func (s *Simulator) raceSeed(race model.RaceID) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(race))
	return int64(h.Sum64()) ^ s.seed //nolint:gosec // wraparound is fine for a seed
}
