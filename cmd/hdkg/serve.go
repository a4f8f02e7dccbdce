package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/hdkg/internal/ingest"
	"github.com/hyperjump/hdkg/internal/metrics"
	"github.com/hyperjump/hdkg/internal/server"
	"github.com/hyperjump/hdkg/internal/watcher"
)

func newServeCmd(g *globals) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the directory watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()
			if host != "" {
				e.cfg.Server.Host = host
			}
			if port != 0 {
				e.cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, e)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}

// serve runs until ctx is cancelled, then shuts the server down and stops the
// watcher before the engine is closed.
func serve(ctx context.Context, e *env) error {
	logger := e.logger
	m := metrics.New()

	eng, err := e.openEngine(ctx, 0, m)
	if err != nil {
		return err
	}
	defer eng.Close()

	pre, reg, err := e.newPreprocessor(eng, m)
	if err != nil {
		return err
	}
	defer reg.Close()

	in := ingest.New(eng, ingest.WithExtractor(pre), ingest.WithLogger(logger))
	exts := e.cfg.Watch.Extensions

	var watch *watcher.Watcher
	if len(e.cfg.Watch.Directories) > 0 {
		watchOpts := []watcher.Option{watcher.WithDebounce(e.cfg.Watch.Debounce)}
		if e.debug {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watch = watcher.New(
			e.cfg.Watch.Directories,
			exts,
			e.cfg.Watch.RecursiveOrDefault(),
			func(ctx context.Context, path string) {
				st, err := in.IngestFile(ctx, path, exts)
				if err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
					return
				}
				logger.Info("ingested watched file",
					zap.String("path", path),
					zap.Int("added", st.Added),
					zap.Int("duplicate", st.Duplicate))
			},
			watchOpts...,
		)
		if err := watch.Start(ctx); err != nil {
			return err
		}
		defer watch.Stop()
		go watch.SyncExistingFiles()
	}

	srv := server.NewServer(eng, pre, m, e.cfg, version, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("server shutdown failed", zap.Error(err))
	}
	return nil
}
