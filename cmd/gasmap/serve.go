package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/rubiojr/gasmap/internal/position"
	"github.com/rubiojr/gasmap/internal/server"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the search API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				Value:   "127.0.0.1",
				EnvVars: []string{"GASMAP_ADDR"},
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "HTTP server port",
				Value:   8080,
				EnvVars: []string{"GASMAP_PORT"},
			},
			&cli.IntFlag{
				Name:  "rate",
				Usage: "API requests per minute allowed per client IP",
				Value: server.DefaultRequestsPerMinute,
			},
			&cli.BoolFlag{
				Name:  "json-logs",
				Usage: "Log requests as JSON",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := httplog.NewLogger("gasmap", httplog.Options{
		JSON:            c.Bool("json-logs"),
		LogLevel:        level,
		Concise:         true,
		QuietDownPeriod: 10 * time.Second,
	})

	e, err := newEnvWithLogger(c, logger.Logger)
	if err != nil {
		return err
	}
	defer e.Close()

	cfg := server.Config{
		Coordinator:       e.coordinator(nil, nil),
		Pinner:            position.NewNominatimPinner(c.String("nominatim")),
		Gatherer:          e.registry,
		Logger:            logger,
		RequestsPerMinute: c.Int("rate"),
	}
	if e.history != nil {
		cfg.History = e.history
	}

	addr := fmt.Sprintf("%s:%d", c.String("addr"), c.Int("port"))
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
