// Package render formats domain values as terminal tables for the operator CLI.
package render

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/domain/model"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E10600"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numStyle     = cellStyle.Align(lipgloss.Right)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	upStyle      = numStyle.Foreground(lipgloss.Color("#3FB950"))
	downStyle    = numStyle.Foreground(lipgloss.Color("#F85149"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// caserWrapper lets a cases.Caser live in a sync.Pool.
type caserWrapper struct {
	caser cases.Caser
}

// cases.Caser is stateful, so each goroutine borrows its own.
var titleCaserPool = sync.Pool{
	New: func() interface{} {
		return &caserWrapper{caser: cases.Title(language.English)}
	},
}

// Title converts s to title case ("olddrivers" -> "Olddrivers").
func Title(s string) string {
	w, ok := titleCaserPool.Get().(*caserWrapper)
	if !ok || w == nil {
		return cases.Title(language.English).String(s)
	}
	defer titleCaserPool.Put(w)
	return w.caser.String(s)
}

// Heading renders a section title.
func Heading(s string) string {
	return headingStyle.Render(s)
}

// Muted renders secondary text.
func Muted(s string) string {
	return mutedStyle.Render(s)
}

// Table renders rows under headers. Columns listed in numeric are right aligned.
func Table(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	return newTable(headers, rows, func(_, col int) lipgloss.Style {
		if right[col] {
			return numStyle
		}
		return cellStyle
	}).String()
}

func newTable(headers []string, rows [][]string, style func(row, col int) lipgloss.Style) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return style(row, col)
		})
}

// ModelMetrics renders per-model error metrics.
func ModelMetrics(ms []model.ModelMetrics) string {
	rows := make([][]string, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, []string{
			Title(m.ModelType.String()),
			strconv.FormatFloat(m.AverageError, 'f', 3, 64),
			strconv.Itoa(m.PredictionsCount),
			m.LastUpdated.Format("2006-01-02 15:04"),
		})
	}
	return Table([]string{"Model", "Avg error (s)", "Predictions", "First run"}, rows, 1, 2)
}

// Drivers renders driver consistency statistics.
func Drivers(ds []model.DriverStat) string {
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, []string{
			string(d.Driver),
			strconv.FormatFloat(d.AveragePosition, 'f', 2, 64),
			strconv.FormatFloat(d.ConsistencyScore, 'f', 3, 64),
			strconv.Itoa(len(d.Positions)),
		})
	}
	return Table([]string{"Driver", "Avg pos", "Consistency", "Runs"}, rows, 1, 2, 3)
}

// Predictions renders a predicted finishing order.
func Predictions(ps []aggregate.PredictionRow) string {
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []string{strconv.Itoa(p.Rank), string(p.Driver), p.Time, p.Gap, strconv.Itoa(p.Points)})
	}
	return Table([]string{"#", "Driver", "Time", "Gap", "Pts"}, rows, 0, 2, 3, 4)
}

// Projection renders a projected championship table. Position changes are
// coloured by direction.
func Projection(entries []model.ProjectedStandingEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Position),
			string(e.Driver),
			e.Team,
			strconv.Itoa(e.Points),
			strconv.Itoa(e.PredictedPoints),
			Delta(e.PositionChange),
		})
	}
	const changeCol = 5
	return newTable([]string{"Pos", "Driver", "Team", "Points", "Projected", "Δ"}, rows, func(row, col int) lipgloss.Style {
		switch col {
		case 0, 3, 4:
			return numStyle
		case changeCol:
			if row < 0 || row >= len(entries) {
				return numStyle
			}
			switch c := entries[row].PositionChange; {
			case c > 0:
				return upStyle
			case c < 0:
				return downStyle
			}
			return numStyle
		}
		return cellStyle
	}).String()
}

// ErrorSummary renders per-model error statistics.
func ErrorSummary(ss []aggregate.ModelErrorSummary) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
	rows := make([][]string, 0, len(ss))
	for _, s := range ss {
		rows = append(rows, []string{
			Title(s.Model.String()), strconv.Itoa(s.Count), f(s.Mean), f(s.StdDev), f(s.Min), f(s.Max), f(s.Median),
		})
	}
	return Table([]string{"Model", "Races", "Mean", "Std dev", "Min", "Max", "Median"}, rows, 1, 2, 3, 4, 5, 6)
}

// Delta formats a position change with an explicit sign ("+2", "-1", "0").
func Delta(change int) string {
	if change > 0 {
		return fmt.Sprintf("+%d", change)
	}
	return strconv.Itoa(change)
}
