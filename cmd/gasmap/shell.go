package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/muesli/gominatim"
	"github.com/rubiojr/gasmap/internal/locate"
	"github.com/rubiojr/gasmap/internal/messages"
	"github.com/rubiojr/gasmap/internal/position"
	"github.com/rubiojr/gasmap/internal/render"
	"github.com/urfave/cli/v2"
)

const shellHelp = `Commands:
  strategy current|pin|town   choose how to locate stations
  town <name>                 town to search in
  pin <lat> <lon>             drop the map pin
  address <text>              drop the map pin on an address
  radius <km>                 search radius
  product <id|name>           product to price
  search                      run the search, replacing the one in flight
  wait                        wait for the search in flight
  cancel                      abandon the search in flight
  reset                       clear the strategy, town and pin
  status                      show the form
  quit
`

type pinner interface {
	Pin(ctx context.Context, address string) (locate.Coordinate, *gominatim.SearchResult, error)
}

func shellCommand() *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Interactive search form",
		Flags:  deviceFlags(),
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()

	sh := newShell(e.coordinator(deviceFromFlags(c)), e.msg, c.App.Writer, e.log)
	sh.pinner = position.NewNominatimPinner(c.String("nominatim"))
	return sh.run(c.Context, c.App.Reader)
}

// shell drives a search form from text commands. Searches run in the
// background and print their result when they settle.
type shell struct {
	filter  *locate.Filter
	session *locate.Session
	pinner  pinner
	product locate.Product
	msg     messages.Messages

	outMu sync.Mutex
	out   io.Writer
}

func newShell(coord *locate.Coordinator, msg messages.Messages, out io.Writer, logger *slog.Logger) *shell {
	sh := &shell{
		filter:  locate.NewFilter(),
		product: locate.Products[0],
		msg:     msg,
		out:     out,
	}
	sh.session = locate.NewSession(coord, sh.show, logger)
	return sh
}

func (sh *shell) printf(format string, args ...any) {
	sh.outMu.Lock()
	defer sh.outMu.Unlock()
	fmt.Fprintf(sh.out, format, args...)
}

func (sh *shell) show(o locate.Outcome) {
	sh.outMu.Lock()
	defer sh.outMu.Unlock()
	if o.Err != nil {
		fmt.Fprintln(sh.out, sh.msg.Error(o.Err))
		return
	}
	render.Text(sh.out, o.Result, sh.msg)
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	defer func() {
		sh.session.Cancel()
		sh.session.Wait()
	}()

	sh.printf("%s\n", sh.msg.ChooseStrategy)
	scanner := bufio.NewScanner(in)
	for {
		sh.printf("> ")
		if !scanner.Scan() {
			break
		}
		if quit := sh.exec(ctx, scanner.Text()); quit {
			return nil
		}
	}
	return scanner.Err()
}

// exec runs one command line and reports whether the shell should exit.
func (sh *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.Join(args, " ")

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		sh.printf("%s", shellHelp)
	case "strategy", "s":
		kind, err := locate.ParseStrategyKind(rest)
		if err != nil {
			sh.printf("%s\n", sh.msg.Error(err))
			return false
		}
		sh.filter.Select(kind)
		switch kind {
		case locate.StrategyTown:
			sh.printf("%s\n", sh.msg.TownPlaceholder)
		case locate.StrategyPin:
			sh.printf("%s\n", sh.msg.PinPrompt)
		}
	case "town":
		sh.filter.Select(locate.StrategyTown)
		sh.filter.SetTown(rest)
	case "pin":
		if len(args) != 2 {
			sh.printf("usage: pin <lat> <lon>\n")
			return false
		}
		lat, errLat := strconv.ParseFloat(args[0], 64)
		lon, errLon := strconv.ParseFloat(args[1], 64)
		if errLat != nil || errLon != nil {
			sh.printf("%s: %s\n", sh.msg.InvalidInput, rest)
			return false
		}
		sh.filter.PlacePin(locate.Coordinate{Latitude: lat, Longitude: lon})
	case "address":
		if sh.pinner == nil {
			sh.printf("%s\n", sh.msg.NoPin)
			return false
		}
		c, found, err := sh.pinner.Pin(ctx, rest)
		if err != nil {
			sh.printf("%s\n", sh.msg.Error(err))
			return false
		}
		sh.filter.PlacePin(c)
		if found != nil {
			sh.printf("%s\n", found.DisplayName)
		}
	case "radius", "r":
		km, err := strconv.Atoi(rest)
		if err == nil {
			err = sh.filter.SetRadius(km)
		}
		if err != nil {
			sh.printf("%s: %s\n", sh.msg.InvalidInput, rest)
		}
	case "product", "p":
		p, err := locate.LookupProduct(rest)
		if err != nil {
			sh.printf("%s\n", sh.msg.Error(err))
			return false
		}
		sh.product = p
	case "search", "go":
		req, err := sh.filter.Request(sh.product.ID)
		if err != nil {
			sh.printf("%s\n", sh.msg.Error(err))
			return false
		}
		sh.session.Trigger(ctx, req)
		sh.printf("%s\n", sh.msg.Searching)
	case "wait":
		sh.session.Wait()
	case "cancel":
		sh.session.Cancel()
	case "reset":
		sh.session.Cancel()
		sh.filter.Reset()
	case "status":
		sh.status()
	default:
		sh.printf("unknown command %q, try help\n", cmd)
	}
	return false
}

func (sh *shell) status() {
	pin := "-"
	if p := sh.filter.Pin(); p != nil {
		pin = p.String()
	}
	kind := "-"
	if k := sh.filter.Kind(); k != "" {
		kind = sh.msg.Strategy(k)
	}
	sh.printf("%s\n  %s: %s\n  pin: %s\n  %s: %d\n  %s: %s\n  state: %s\n",
		kind,
		sh.msg.StrategyTown, sh.filter.Town(),
		pin,
		sh.msg.RadiusLabel, sh.filter.RadiusKm(),
		sh.msg.ProductLabel, sh.product.Name,
		sh.session.State())
}
