package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rubiojr/gasmap/internal/locate"
	"github.com/rubiojr/gasmap/internal/messages"
	"github.com/rubiojr/gasmap/internal/observability"
	"github.com/rubiojr/gasmap/internal/position"
	"github.com/rubiojr/gasmap/internal/storage"
	"github.com/rubiojr/gasmap/pkg/api"
	"github.com/urfave/cli/v2"
)

const defaultCacheTTL = 5 * time.Minute

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Price monitor service root",
			Value:   api.DefaultBaseURL,
			EnvVars: []string{"GASMAP_BASE_URL"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Timeout of every request to the price monitor service",
			Value:   api.DefaultTimeout,
			EnvVars: []string{"GASMAP_TIMEOUT"},
		},
		&cli.DurationFlag{
			Name:    "cache-ttl",
			Usage:   "How long station payloads are reused, 0 disables the cache",
			Value:   defaultCacheTTL,
			EnvVars: []string{"GASMAP_CACHE_TTL"},
		},
		&cli.StringFlag{
			Name:    "db",
			Usage:   "Search history database file, empty disables the history",
			Value:   "gasmap.db",
			EnvVars: []string{"GASMAP_DB"},
		},
		&cli.StringFlag{
			Name:    "lang",
			Usage:   "Message language (ro, en)",
			Value:   "ro",
			EnvVars: []string{"GASMAP_LANG"},
		},
		&cli.StringFlag{
			Name:    "nominatim",
			Usage:   "Nominatim server used to pin addresses",
			Value:   position.DefaultNominatimServer,
			EnvVars: []string{"GASMAP_NOMINATIM"},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log to stderr",
		},
	}
}

// env holds what every command needs to run searches.
type env struct {
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	client   *api.PriceMonitorAPI
	stations locate.StationQuerier
	history  *storage.Storage
	msg      messages.Messages
}

func newLogger(c *cli.Context) *slog.Logger {
	if c.Bool("verbose") {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.DiscardHandler)
}

func newEnv(c *cli.Context) (*env, error) {
	logger := newLogger(c)
	return newEnvWithLogger(c, logger)
}

func newEnvWithLogger(c *cli.Context, logger *slog.Logger) (*env, error) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	client := api.NewPriceMonitorAPI(
		api.WithBaseURL(c.String("base-url")),
		api.WithTimeout(c.Duration("timeout")),
		api.WithObserver(metrics.ObserveUpstream),
	)

	e := &env{
		log:      logger,
		registry: reg,
		metrics:  metrics,
		client:   client,
		stations: client,
		msg:      messages.Get(c.String("lang")),
	}
	if ttl := c.Duration("cache-ttl"); ttl > 0 {
		e.stations = locate.NewCachedStations(client, ttl, metrics, logger)
	}

	if db := c.String("db"); db != "" {
		history, err := storage.NewStorage(c.Context, db, logger)
		if err != nil {
			return nil, fmt.Errorf("error initializing storage: %w", err)
		}
		e.history = history
	}

	return e, nil
}

func (e *env) coordinator(gate locate.PermissionGate, source locate.PositionSource) *locate.Coordinator {
	deps := locate.Dependencies{
		Gate:     gate,
		Position: source,
		Units:    e.client,
		Stations: e.stations,
		Metrics:  e.metrics,
		Logger:   e.log,
	}
	if e.history != nil {
		deps.History = e.history
	}
	return locate.NewCoordinator(deps)
}

func (e *env) Close() error {
	if e.history == nil {
		return nil
	}
	return e.history.Close()
}

func openHistory(c *cli.Context) (*storage.Storage, error) {
	db := c.String("db")
	if db == "" {
		return nil, fmt.Errorf("the search history is disabled, set --db")
	}
	return storage.NewStorage(c.Context, db, newLogger(c))
}
