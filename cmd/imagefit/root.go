package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/imagefit/internal/cache"
	"github.com/ironsheep/imagefit/internal/config"
	"github.com/ironsheep/imagefit/internal/preset"
	"github.com/ironsheep/imagefit/internal/render"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "imagefit",
		Short: "imagefit - fit images to sizes and presets",
		Long: `imagefit renders images at a requested size using one of three strategies:
plain resize keeping the aspect ratio, crop to fill, or cropbox which pads
the scaled image onto a coloured canvas.

Sizes are given as WxH[,mode[,fill]] (for example 200x100,C or
300x300,B,ff0000) or as the name of a configured preset.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", os.Getenv("IMAGEFIT_CONFIG"), "configuration file (.yaml or .toml)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newMCPCmd(flags),
		newRenderCmd(flags),
		newResolveCmd(flags),
		newVersionCmd(),
	)
	return rootCmd
}

// load reads the configuration and applies command line overrides.
func (f *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg, nil
}

// newLogger writes to stderr; stdout carries the MCP protocol and rendered
// image data.
func newLogger(level string, out io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "imagefit",
		Output: out,
		Level:  hclog.LevelFromString(level),
	}).With("version", Version)
}

// newRenderer builds the cache and renderer described by cfg. roots
// replaces the configured roots when non-nil.
func newRenderer(cfg *config.Config, roots map[string]string, reg prometheus.Registerer, logger hclog.Logger) (*render.Renderer, cache.Cache, error) {
	table, err := cfg.PresetTable()
	if err != nil {
		return nil, nil, err
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if roots == nil {
		roots = cfg.RootDirs()
	}

	var metrics *render.Metrics
	if reg != nil {
		metrics = render.NewMetrics(reg)
	}

	r := render.New(render.Options{
		Resolver:      preset.NewResolver(table),
		Cache:         c,
		Roots:         roots,
		ExtToFormat:   cfg.ExtToFormat,
		DefaultFormat: cfg.DefaultFormat,
		Quality:       cfg.Quality,
		Metrics:       metrics,
		Logger:        logger,
	})
	return r, c, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imagefit %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}
