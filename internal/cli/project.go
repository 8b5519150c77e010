package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/okian/pitwall/internal/adapters/ergast"
	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/projection"
	"github.com/okian/pitwall/internal/domain/simulate"
	"github.com/okian/pitwall/internal/render"
	"github.com/okian/pitwall/pkg/logger"
)

func projectCommand() *cli.Command {
	return &cli.Command{
		Name:  "project",
		Usage: "project the championship table from one race's predictions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "predictions", Aliases: []string{"p"}, Required: true, Usage: "path or URL of all_predictions.json"},
			&cli.StringFlag{Name: "race", Aliases: []string{"r"}, Required: true, Usage: "race name or slug"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Value: string(model.ModelAdvanced), Usage: "basic, advanced, nochange or olddrivers"},
			&cli.StringFlag{Name: "standings", Usage: "driverStandings.json file; fetched live when omitted"},
			&cli.StringFlag{Name: "results", Usage: "last race results.json file; fetched live when omitted"},
			&cli.StringFlag{Name: "actual", Value: "live", Usage: "live, simulated or none"},
			&cli.Int64Flag{Name: "seed", Value: simulate.DefaultSeed, Usage: "base seed for simulated results"},
			&cli.IntSliceFlag{Name: "points", Usage: "points per finishing rank, winner first"},
			&cli.StringFlag{Name: "base-url", Value: ergast.DefaultBaseURL, Usage: "results API root"},
		},
		Action: runProject,
	}
}

func runProject(c *cli.Context) error {
	ctx := c.Context
	kind, err := model.ParseModelKind(c.String("model"))
	if err != nil {
		return err
	}
	table := projection.DefaultPointsTable()
	if pts := c.IntSlice("points"); len(pts) > 0 {
		table = projection.PointsTable(pts)
	}
	projector, err := projection.New(table)
	if err != nil {
		return err
	}

	season, _, err := loadSeason(ctx, c.String("predictions"))
	if err != nil {
		return err
	}
	race, ok := season.FindRace(c.String("race"))
	if !ok {
		return fmt.Errorf("%w: %q", ErrRaceNotFound, c.String("race"))
	}
	run, ok := race.Run(kind)
	if !ok || run.Failed() {
		return fmt.Errorf("%w: %s %s", ErrModelUnavailable, race.Race, kind)
	}
	res, _ := run.Success()

	client := ergast.New(ergast.WithBaseURL(c.String("base-url")), ergast.WithLogger(logger.Named("ergast")))
	standings, err := projectStandings(ctx, c.String("standings"), client)
	if err != nil {
		return err
	}
	actual, source, err := projectActual(ctx, c, race.Race, client, table)
	if err != nil {
		return err
	}

	projected := projector.Project(standings, res.Predictions, actual)
	unmatched := projection.Unmatched(standings, res.Predictions)

	w := c.App.Writer
	fmt.Fprintln(w, render.Heading(fmt.Sprintf("%s · %s model predictions", race.Race, render.Title(kind.String()))))
	fmt.Fprintln(w, render.Predictions(aggregate.SortedPredictions(res.Predictions, table)))
	fmt.Fprintln(w, render.Heading(fmt.Sprintf("Projected championship (actual result: %s)", source)))
	fmt.Fprintln(w, render.Projection(projected))
	if len(unmatched) > 0 {
		names := make([]string, len(unmatched))
		for i, d := range unmatched {
			names[i] = string(d)
		}
		fmt.Fprintln(w, render.Muted("not in standings: "+strings.Join(names, ", ")))
	}
	return nil
}

func projectStandings(ctx context.Context, file string, client *ergast.Client) ([]model.StandingEntry, error) {
	if file == "" {
		return client.DriverStandings(ctx)
	}
	b, err := readFile(file)
	if err != nil {
		return nil, err
	}
	return ergast.ParseStandings(b)
}

// projectActual picks the result backed out before projecting. A results
// file or live result only applies when it is the projected race.
func projectActual(
	ctx context.Context,
	c *cli.Context,
	race model.RaceID,
	client *ergast.Client,
	table projection.PointsTable,
) ([]model.RaceResultEntry, string, error) {
	if file := c.String("results"); file != "" {
		b, err := readFile(file)
		if err != nil {
			return nil, "", err
		}
		res, err := ergast.ParseResults(b)
		if err != nil {
			return nil, "", err
		}
		if !res.Matches(race) {
			return nil, model.ActualSourceNone, nil
		}
		return res.Entries, res.RaceName, nil
	}

	switch mode := strings.ToLower(c.String("actual")); mode {
	case model.ActualSourceNone:
		return nil, model.ActualSourceNone, nil
	case model.ActualSourceSimulated:
		sim := simulate.New(simulate.WithSeed(c.Int64("seed")), simulate.WithPointsTable(table))
		return sim.Result(race), model.ActualSourceSimulated, nil
	case model.ActualSourceLive:
		res, err := client.LastRaceResult(ctx)
		if err != nil {
			logger.Named("cli").Warn(ctx, "last race result unavailable; projecting without it", logger.Error(err))
			return nil, model.ActualSourceNone, nil
		}
		if !res.Matches(race) {
			return nil, model.ActualSourceNone, nil
		}
		return res.Entries, model.ActualSourceLive, nil
	default:
		return nil, "", fmt.Errorf("unknown actual results mode %q", mode)
	}
}
