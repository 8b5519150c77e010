package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/render"
	"github.com/okian/pitwall/pkg/logger"
)

const (
	defaultCheckTimeout = 30 * time.Second
	defaultCheckWorkers = 4
	maxResponseBytes    = 8 << 20
)

// errSkipped marks a projection the server could not produce for a
// legitimate reason (failed model run, upstream outage).
var errSkipped = errors.New("skipped")

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "verify a running server's aggregates and projections",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:9080", Usage: "base URL of the server"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "model to project (server default when empty)"},
			&cli.IntFlag{Name: "workers", Value: defaultCheckWorkers, Usage: "concurrent projection requests"},
			&cli.DurationFlag{Name: "timeout", Value: defaultCheckTimeout, Usage: "HTTP request timeout"},
		},
		Action: runCheck,
	}
}

// checkResult is the outcome for one race.
type checkResult struct {
	Race   model.RaceID
	Status string
	Detail string
}

type checker struct {
	client *http.Client
	base   string
}

func (ck *checker) get(ctx context.Context, path string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ck.base+path, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := ck.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

func runCheck(c *cli.Context) error {
	ctx := c.Context
	log := logger.Named("check")
	ck := &checker{
		client: &http.Client{Timeout: c.Duration("timeout")},
		base:   strings.TrimRight(c.String("url"), "/"),
	}

	var models []model.ModelMetrics
	if _, err := ck.get(ctx, "/models", &models); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	if err := verifyModels(models); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	var drivers []model.DriverStat
	if _, err := ck.get(ctx, "/drivers", &drivers); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	if err := verifyDrivers(drivers); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	var races []aggregate.RaceSummary
	if _, err := ck.get(ctx, "/races", &races); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	log.Info(ctx, "aggregates verified",
		logger.Int("models", len(models)),
		logger.Int("drivers", len(drivers)),
		logger.Int("races", len(races)))

	query := ""
	if m := c.String("model"); m != "" {
		query = "?model=" + url.QueryEscape(m)
	}

	results := make([]checkResult, len(races))
	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, c.Int("workers")))
	for i, race := range races {
		g.Go(func() error {
			res := checkResult{Race: race.Race, Status: "ok"}
			err := ck.checkProjection(gctx, race, query)
			switch {
			case errors.Is(err, errSkipped):
				res.Status, res.Detail = "skipped", err.Error()
			case err != nil:
				res.Status, res.Detail = "FAIL", err.Error()
				mu.Lock()
				failed++
				mu.Unlock()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{string(r.Race), r.Status, r.Detail}
	}
	w := c.App.Writer
	fmt.Fprintln(w, render.Heading(fmt.Sprintf("Projection check against %s", ck.base)))
	fmt.Fprintln(w, render.Table([]string{"Race", "Status", "Detail"}, rows))

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d projections invalid", ErrCheckFailed, failed, len(races))
	}
	return nil
}

func (ck *checker) checkProjection(ctx context.Context, race aggregate.RaceSummary, query string) error {
	var impact model.ChampionshipImpact
	status, err := ck.get(ctx, "/races/"+url.PathEscape(race.Slug)+"/projection"+query, &impact)
	switch {
	case status == http.StatusNotFound || status == http.StatusBadGateway:
		return fmt.Errorf("%w: status %d", errSkipped, status)
	case err != nil:
		return err
	}
	return verifyProjection(impact)
}

// verifyModels checks every model kind is known and its metrics are finite.
func verifyModels(models []model.ModelMetrics) error {
	for _, m := range models {
		if !m.ModelType.Valid() {
			return fmt.Errorf("unknown model kind %q", m.ModelType)
		}
		if m.AverageError < 0 || m.PredictionsCount < 0 {
			return fmt.Errorf("model %s has negative metrics", m.ModelType)
		}
	}
	return nil
}

// verifyDrivers checks positions are 1-based and the summary statistics are sane.
func verifyDrivers(drivers []model.DriverStat) error {
	for _, d := range drivers {
		if len(d.Positions) == 0 {
			return fmt.Errorf("driver %s has no positions", d.Driver)
		}
		for _, p := range d.Positions {
			if p < 1 {
				return fmt.Errorf("driver %s has position %d", d.Driver, p)
			}
		}
		if d.AveragePosition < 1 || d.ConsistencyScore <= 0 {
			return fmt.Errorf("driver %s has average %.3f consistency %.3f", d.Driver, d.AveragePosition, d.ConsistencyScore)
		}
	}
	return nil
}

// verifyProjection checks the projected table is a permutation of the current
// one: positions run 1..n, points never increase down the table, and the
// position changes sum to zero.
func verifyProjection(impact model.ChampionshipImpact) error {
	p := impact.Projected
	if len(p) != len(impact.Current) {
		return fmt.Errorf("projected %d rows, current %d", len(p), len(impact.Current))
	}
	sum := 0
	for i, e := range p {
		if e.Position != i+1 {
			return fmt.Errorf("row %d has position %d", i, e.Position)
		}
		if i > 0 && e.PredictedPoints > p[i-1].PredictedPoints {
			return fmt.Errorf("row %d out of order (%d > %d)", i, e.PredictedPoints, p[i-1].PredictedPoints)
		}
		sum += e.PositionChange
	}
	if sum != 0 {
		return fmt.Errorf("position changes sum to %d", sum)
	}
	return nil
}
