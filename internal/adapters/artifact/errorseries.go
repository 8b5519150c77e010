package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/pitwall/internal/domain/model"
)

// Column headers written by the error export.
const (
	colGrandPrix = "Grand Prix"
	colModelType = "Model Type"
	colError     = "Error (seconds)"
)

// ParseErrorSeries reads error_data.csv. The first row is the header;
// columns are found by name and fall back to positions 0..2. Rows with an
// unknown model or a non-numeric error are dropped and counted.
func ParseErrorSeries(r io.Reader) ([]model.ErrorRow, Report, error) {
	var report Report
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, report, nil
	}
	if err != nil {
		return nil, report, fmt.Errorf("read error series header: %w", err)
	}
	gp, mt, ev, err := columns(header)
	if err != nil {
		return nil, report, err
	}
	width := max(gp, mt, ev) + 1

	var rows []model.ErrorRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				report.drop(ReasonMalformedRow)
				continue
			}
			return nil, report, fmt.Errorf("read error series: %w", err)
		}
		if len(rec) < width || strings.TrimSpace(rec[gp]) == "" {
			report.drop(ReasonMalformedRow)
			continue
		}
		kind, err := model.ParseModelKind(rec[mt])
		if err != nil {
			report.drop(ReasonUnknownModel)
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[ev]), 64)
		if err != nil || !finite(v) {
			report.drop(ReasonBadErrorValue)
			continue
		}
		rows = append(rows, model.ErrorRow{
			GrandPrix:    model.RaceID(strings.TrimSpace(rec[gp])),
			Model:        kind,
			ErrorSeconds: v,
		})
	}
	return rows, report, nil
}

func columns(header []string) (gp, mt, ev int, err error) {
	gp, mt, ev = -1, -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case colGrandPrix:
			gp = i
		case colModelType:
			mt = i
		case colError:
			ev = i
		}
	}
	if gp >= 0 && mt >= 0 && ev >= 0 {
		return gp, mt, ev, nil
	}
	if len(header) >= 3 {
		return 0, 1, 2, nil
	}
	return 0, 0, 0, fmt.Errorf("%w: %v", ErrBadHeader, header)
}
