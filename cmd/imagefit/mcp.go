package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/imagefit/internal/server"
)

func newMCPCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve imagefit tools over MCP on stdin/stdout",
		Long: `Run an MCP (Model Context Protocol) server on stdin/stdout exposing the
imagefit_render, imagefit_resolve, imagefit_presets and imagefit_info tools.

Configure it in your MCP client (e.g., Claude Desktop). Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			logger := newLogger(cfg.LogLevel, os.Stderr)
			renderer, c, err := newRenderer(cfg, nil, nil, logger)
			if err != nil {
				return err
			}
			if closer, ok := c.(io.Closer); ok {
				defer closer.Close()
			}

			logger.Debug("mcp server starting", "build_time", BuildTime, "commit", GitCommit)
			return server.New(renderer, logger, Version).Serve(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
