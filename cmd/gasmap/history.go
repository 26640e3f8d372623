package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rubiojr/gasmap/internal/messages"
	"github.com/urfave/cli/v2"
)

const defaultHistoryLimit = 20

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent searches",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of searches to show, 0 shows all",
				Value:   defaultHistoryLimit,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print JSON",
			},
			&cli.IntFlag{
				Name:  "prune-days",
				Usage: "Delete searches older than this many days instead of listing",
			},
		},
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
	history, err := openHistory(c)
	if err != nil {
		return err
	}
	defer history.Close()

	if days := c.Int("prune-days"); days > 0 {
		deleted, err := history.Prune(c.Context, time.Now().AddDate(0, 0, -days))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Deleted %d searches older than %d days\n", deleted, days)
		return nil
	}

	entries, err := history.RecentSearches(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	msg := messages.Get(c.String("lang"))
	fmt.Fprintln(c.App.Writer, msg.SearchHistory)
	for _, e := range entries {
		where := e.UnitID
		if e.Center != nil {
			where = e.Center.String()
		}
		outcome := e.State
		if e.ErrorKind != "" {
			outcome += " (" + e.ErrorKind + ")"
		}
		fmt.Fprintf(c.App.Writer, "%s  %-7s %-3s %d km  %-22s %3d  %s\n",
			e.At.Local().Format("2006-01-02 15:04"), e.Strategy, e.ProductID, e.RadiusKm, where, e.Markers, outcome)
	}
	return nil
}
