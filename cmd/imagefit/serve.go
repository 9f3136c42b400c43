package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/imagefit/internal/cache"
	"github.com/ironsheep/imagefit/internal/config"
	"github.com/ironsheep/imagefit/internal/httpapi"
	"github.com/ironsheep/imagefit/internal/watch"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(flags *globalFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP image server",
		Long: `Start the HTTP server. Images are served from

  <prefix>/<path>/<size>/[<root>]

where <size> is WxH[,mode[,fill]] or a preset name and <root> optionally
selects one of the configured root directories.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			logger := newLogger(cfg.LogLevel, os.Stderr)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "address to listen on (default from config, :8080)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger hclog.Logger) error {
	renderer, c, err := newRenderer(cfg, nil, prometheus.DefaultRegisterer, logger)
	if err != nil {
		return err
	}
	if closer, ok := c.(io.Closer); ok {
		defer closer.Close()
	}

	if cfg.Cache.PruneSchedule != "" {
		pruner, ok := c.(cache.Pruner)
		if !ok {
			logger.Warn("cache backend does not support pruning, prune_schedule ignored", "backend", cfg.Cache.Backend)
		} else {
			maxAge, err := cfg.Cache.MaxAgeDuration()
			if err != nil {
				return err
			}
			janitor, err := cache.NewJanitor(pruner, cfg.Cache.PruneSchedule, maxAge, logger)
			if err != nil {
				return err
			}
			janitor.Start()
			defer janitor.Stop()
		}
	}

	if cfg.Watch {
		w, err := watch.New(renderer, logger)
		if err != nil {
			return err
		}
		for _, dir := range renderer.RootDirs() {
			if err := w.Add(dir); err != nil {
				w.Close()
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
		w.Start()
		defer w.Close()
	}

	app := httpapi.New(httpapi.Config{
		Prefix:        cfg.Prefix,
		ExpireSeconds: cfg.ExpireSeconds,
		Renderer:      renderer,
		Gatherer:      prometheus.DefaultGatherer,
		Logger:        logger,
		Version:       Version,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen, "prefix", cfg.Prefix, "roots", renderer.RootDirs())
		errCh <- app.Listen(cfg.Listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	}
}
