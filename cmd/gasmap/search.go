package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/gasmap/internal/locate"
	"github.com/rubiojr/gasmap/internal/position"
	"github.com/rubiojr/gasmap/internal/render"
	"github.com/urfave/cli/v2"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search stations around the current position, a pin or in a town",
		ArgsUsage: " ",
		Flags: append(deviceFlags(),
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Location strategy: current, pin or town",
			},
			&cli.StringFlag{
				Name:    "product",
				Aliases: []string{"p"},
				Usage:   "Product id or name, see the products command",
				Value:   locate.Products[0].ID,
			},
			&cli.IntFlag{
				Name:    "radius",
				Aliases: []string{"r"},
				Usage:   fmt.Sprintf("Search radius in kilometers (%d-%d)", locate.MinRadiusKm, locate.MaxRadiusKm),
				Value:   locate.MinRadiusKm,
			},
			&cli.StringFlag{
				Name:  "town",
				Usage: "Town name for the town strategy",
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "Address to drop the pin on for the pin strategy",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json or gpx",
				Value:   string(render.FormatText),
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the result to a file instead of stdout",
			},
		),
		Action: searchAction,
	}
}

// deviceFlags describe the device for the current position strategy.
func deviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "allow-location",
			Usage: "Grant access to the device position",
		},
		&cli.StringFlag{
			Name:    "gpx",
			Usage:   "GPX file with the device position, its latest point is used",
			EnvVars: []string{"GASMAP_GPX"},
		},
		&cli.Float64Flag{
			Name:  "lat",
			Usage: "Latitude of the device position or of the pin",
		},
		&cli.Float64Flag{
			Name:  "lon",
			Usage: "Longitude of the device position or of the pin",
		},
	}
}

func deviceFromFlags(c *cli.Context) (locate.PermissionGate, locate.PositionSource) {
	gate := locate.StaticGate(locate.Permission(c.Bool("allow-location")))
	switch {
	case c.String("gpx") != "":
		return gate, position.GPXFile{Path: c.String("gpx")}
	case c.IsSet("lat") || c.IsSet("lon"):
		return gate, position.Fixed{Latitude: c.Float64("lat"), Longitude: c.Float64("lon")}
	}
	return gate, nil
}

func searchAction(c *cli.Context) error {
	format, err := render.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()

	req, err := searchRequest(c)
	if err != nil {
		return errors.New(e.msg.Error(err))
	}

	coord := e.coordinator(deviceFromFlags(c))
	res, err := coord.Resolve(c.Context, req)
	if err != nil {
		e.log.Debug("Search failed", "error", err)
		return errors.New(e.msg.Error(err))
	}

	var w io.Writer = c.App.Writer
	if out := c.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("error creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return render.Write(w, format, res, e.msg)
}

func searchRequest(c *cli.Context) (locate.Request, error) {
	req := locate.Request{ProductID: c.String("product"), RadiusKm: c.Int("radius")}
	if c.String("strategy") == "" {
		return req, locate.ErrNoStrategy
	}

	kind, err := locate.ParseStrategyKind(c.String("strategy"))
	if err != nil {
		return req, err
	}

	switch kind {
	case locate.StrategyCurrent:
		req.Strategy = locate.CurrentPosition{}
	case locate.StrategyTown:
		req.Strategy = locate.TownName{Text: c.String("town")}
	case locate.StrategyPin:
		pin, err := pinFromFlags(c)
		if err != nil {
			return req, err
		}
		req.Strategy = locate.ManualPin{Pin: pin}
	}
	return req, nil
}

func pinFromFlags(c *cli.Context) (*locate.Coordinate, error) {
	if c.IsSet("lat") || c.IsSet("lon") {
		return &locate.Coordinate{Latitude: c.Float64("lat"), Longitude: c.Float64("lon")}, nil
	}
	if c.String("address") == "" {
		return nil, nil
	}

	pinner := position.NewNominatimPinner(c.String("nominatim"))
	coord, found, err := pinner.Pin(c.Context, c.String("address"))
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(c.App.ErrWriter, "Location found:", found.DisplayName)
	return &coord, nil
}
