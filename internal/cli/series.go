package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/render"
)

func errorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "errors",
		Usage: "summarise the per-race model error series",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "errors", Aliases: []string{"e"}, Required: true, Usage: "path or URL of error_data.csv"},
		},
		Action: func(c *cli.Context) error {
			rows, rep, err := loadErrorSeries(c.Context, c.String("errors"))
			if err != nil {
				return err
			}
			w := c.App.Writer
			fmt.Fprintln(w, render.Heading(fmt.Sprintf("Model error summary (%d rows)", len(rows))))
			fmt.Fprintln(w, render.ErrorSummary(aggregate.ErrorSummary(rows)))
			fmt.Fprintln(w, render.Muted(rep.String()))
			return nil
		},
	}
}
