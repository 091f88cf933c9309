package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/vlarkus/blitz/export"
	"github.com/vlarkus/blitz/internal/logging"
	"github.com/vlarkus/blitz/internal/observability"
	"github.com/vlarkus/blitz/model"
)

const (
	flagLogLevel   = "log-level"
	flagLogFormat  = "log-format"
	flagUnit       = "unit"
	flagFormat     = "format"
	flagTrajectory = "trajectory"
	flagOut        = "out"
	flagWidth      = "width"
	flagHeight     = "height"
	flagScale      = "scale"
	flagGRPCAddr   = "grpc-addr"
	flagMetrics    = "metrics-addr"

	envMetadataKey = "env"
)

// env is what every command needs, built once in the app's Before hook.
type env struct {
	log      logging.Logger
	cfg      model.Config
	registry *prometheus.Registry
	engine   *observability.EngineCollector
	exports  *export.Manager
	shutdown func(context.Context) error
}

func envFrom(c *cli.Context) (*env, error) {
	e, ok := c.App.Metadata[envMetadataKey].(*env)
	if !ok || e == nil {
		return nil, errors.New("blitz: command environment not initialised")
	}
	return e, nil
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "blitz",
		Usage:     "compute and export robot follow paths",
		Writer:    stdout,
		ErrWriter: stderr,
		Metadata:  map[string]interface{}{},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagLogLevel,
				Value:   "info",
				Usage:   "log level: debug, info, warn or error",
				EnvVars: []string{"BLITZ_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    flagLogFormat,
				Value:   "text",
				Usage:   "log format: text or json",
				EnvVars: []string{"BLITZ_LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    flagUnit,
				Value:   "m",
				Usage:   "length `UNIT` documents are drawn in: m, cm, mm, in or ft",
				EnvVars: []string{"BLITZ_UNIT"},
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			formatsCommand(),
			pointsCommand(),
			exportCommand(),
			previewCommand(),
			watchCommand(),
			serveCommand(),
		},
	}
}

func setup(c *cli.Context) error {
	log := logging.New(logging.Config{
		Level:  c.String(flagLogLevel),
		Format: c.String(flagLogFormat),
		Output: c.App.ErrWriter,
	})

	cfg, err := engineConfigFromEnv()
	if err != nil {
		return fmt.Errorf("engine config: %w", err)
	}
	unit, err := export.ParseUnit(c.String(flagUnit))
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	engine, err := observability.NewEngineCollector(registry)
	if err != nil {
		return fmt.Errorf("engine metrics: %w", err)
	}

	tracingCfg := observability.TracingConfigFromEnv()
	tracingCfg.Output = c.App.ErrWriter
	shutdown, err := observability.InitTracing(c.Context, tracingCfg, log)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	c.App.Metadata[envMetadataKey] = &env{
		log:      log,
		cfg:      cfg,
		registry: registry,
		engine:   engine,
		exports: export.NewManager(
			export.WithLogger(log),
			export.WithRecorder(engine),
			export.WithSourceUnit(unit),
		),
		shutdown: shutdown,
	}
	return nil
}

func teardown(c *cli.Context) error {
	e, err := envFrom(c)
	if err != nil {
		return nil
	}
	observability.ShutdownWithTimeout(context.Background(), e.shutdown, e.log)
	return nil
}
