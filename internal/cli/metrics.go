package cli

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/render"
)

func metricsCommand() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "summarise model error and driver consistency from a prediction artifact",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "predictions", Aliases: []string{"p"}, Required: true, Usage: "path or URL of all_predictions.json"},
			&cli.StringFlag{Name: "averaging", Value: string(aggregate.AverageOverRaces), Usage: "divide model error by races or runs"},
			&cli.IntFlag{Name: "top", Value: 20, Usage: "number of drivers to show"},
		},
		Action: runMetrics,
	}
}

func runMetrics(c *cli.Context) error {
	averaging, err := aggregate.ParseAveraging(c.String("averaging"))
	if err != nil {
		return err
	}
	season, rep, err := loadSeason(c.Context, c.String("predictions"))
	if err != nil {
		return err
	}

	sum := aggregate.Aggregate(season, aggregate.Options{Averaging: averaging})
	drivers := slices.Clone(sum.Drivers)
	slices.SortStableFunc(drivers, func(a, b model.DriverStat) int {
		return cmp.Compare(a.AveragePosition, b.AveragePosition)
	})
	if top := c.Int("top"); top > 0 && len(drivers) > top {
		drivers = drivers[:top]
	}

	w := c.App.Writer
	fmt.Fprintln(w, render.Heading(fmt.Sprintf("Model performance (%d races, averaged over %s)", len(season.Races), averaging)))
	fmt.Fprintln(w, render.ModelMetrics(sum.Models))
	fmt.Fprintln(w, render.Heading("Driver consistency"))
	fmt.Fprintln(w, render.Drivers(drivers))
	fmt.Fprintln(w, render.Muted(rep.String()))
	return nil
}
