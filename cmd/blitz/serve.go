package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/vlarkus/blitz/internal/logging"
	"github.com/vlarkus/blitz/internal/observability"
	"github.com/vlarkus/blitz/internal/pathsvc"
)

// serveConfig holds the serve command's listen addresses. An empty
// MetricsAddress disables the metrics endpoint.
type serveConfig struct {
	ListenAddress  string
	MetricsAddress string
}

func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve follow-point computation and export over gRPC",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagGRPCAddr,
				Value:   ":50051",
				Usage:   "TCP address the gRPC server listens on",
				EnvVars: []string{"BLITZ_GRPC_ADDR"},
			},
			&cli.StringFlag{
				Name:    flagMetrics,
				Value:   ":9090",
				Usage:   "HTTP address for Prometheus /metrics; empty disables it",
				EnvVars: []string{"BLITZ_METRICS_ADDR"},
			},
		},
		Action: func(c *cli.Context) error {
			e, err := envFrom(c)
			if err != nil {
				return err
			}
			cfg := serveConfig{ListenAddress: c.String(flagGRPCAddr), MetricsAddress: c.String(flagMetrics)}

			lis, err := net.Listen("tcp", cfg.ListenAddress)
			if err != nil {
				e.log.Error(c.Context, "failed to listen for gRPC", logging.String("addr", cfg.ListenAddress), logging.Err(err))
				return err
			}

			ctx, stop := notifyContext(c.Context)
			defer stop()
			return run(ctx, cfg, e, lis)
		},
	}
}

// run serves on lis until ctx is done, then stops gracefully.
func run(ctx context.Context, cfg serveConfig, e *env, lis net.Listener) error {
	log := e.log

	collector, err := observability.NewRPCCollector(e.registry)
	if err != nil {
		return err
	}
	metricsSrv := serveMetrics(cfg.MetricsAddress, collector, log)

	srv := pathsvc.NewServer(e.cfg, e.exports, collector, log)
	server := pathsvc.NewGRPCServer(srv)

	log.Info(ctx, "starting path gRPC server", logging.String("addr", lis.Addr().String()))
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(lis)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down path server")
		server.GracefulStop()
		<-errCh
	case serveErr = <-errCh:
		log.Error(context.Background(), "gRPC server exited", logging.Err(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return serveErr
}

func serveMetrics(addr string, collector *observability.RPCCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
