package main

import (
	"encoding/json"
	"fmt"

	"github.com/rubiojr/gasmap/internal/messages"
	"github.com/urfave/cli/v2"
)

func popularCommand() *cli.Command {
	return &cli.Command{
		Name:  "popular",
		Usage: "Show the most searched areas",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of areas to show, 0 shows all",
				Value:   10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print JSON",
			},
		},
		Action: popularAction,
	}
}

func popularAction(c *cli.Context) error {
	history, err := openHistory(c)
	if err != nil {
		return err
	}
	defer history.Close()

	popular, err := history.PopularLocations(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(popular)
	}

	fmt.Fprintln(c.App.Writer, messages.Get(c.String("lang")).PopularAreas)
	for i, p := range popular {
		fmt.Fprintf(c.App.Writer, "%d. %.4f,%.4f  %d searches, up to %g km, last %s\n",
			i+1, p.Latitude, p.Longitude, p.SearchCount, p.RadiusKm, p.LastSearch.Local().Format("2006-01-02"))
	}
	return nil
}
