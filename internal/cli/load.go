package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/okian/pitwall/internal/adapters/artifact"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/pkg/logger"
)

// loadSeason reads and parses a prediction artifact from a path or URL.
func loadSeason(ctx context.Context, location string) (model.Season, artifact.Report, error) {
	src, err := artifact.NewSource(location)
	if err != nil {
		return model.Season{}, artifact.Report{}, err
	}
	b, err := src.Load(ctx)
	if err != nil {
		return model.Season{}, artifact.Report{}, err
	}
	season, rep, err := artifact.ParseSeason(b)
	if err != nil {
		return model.Season{}, rep, fmt.Errorf("parse %s: %w", src, err)
	}
	logDropped(ctx, src.String(), rep)
	return season, rep, nil
}

// loadErrorSeries reads and parses an error-series CSV from a path or URL.
func loadErrorSeries(ctx context.Context, location string) ([]model.ErrorRow, artifact.Report, error) {
	src, err := artifact.NewSource(location)
	if err != nil {
		return nil, artifact.Report{}, err
	}
	b, err := src.Load(ctx)
	if err != nil {
		return nil, artifact.Report{}, err
	}
	rows, rep, err := artifact.ParseErrorSeries(bytes.NewReader(b))
	if err != nil {
		return nil, rep, fmt.Errorf("parse %s: %w", src, err)
	}
	logDropped(ctx, src.String(), rep)
	return rows, rep, nil
}

func logDropped(ctx context.Context, source string, rep artifact.Report) {
	if rep.Total() == 0 {
		return
	}
	logger.Named("cli").Warn(ctx, "dropped malformed records",
		logger.String("source", source),
		logger.String("dropped", rep.String()))
}

func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
