package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ironsheep/imagefit/internal/preset"
)

func newRenderCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render <image> <size>",
		Short: "Render one image and write the result to a file or stdout",
		Example: `  imagefit render photo.jpg 200x200,C -o thumb.jpg
  imagefit render logo.png 300x100,B,000000 > banner.png
  imagefit render photo.jpg thumbnail -c imagefit.yaml -o thumb.jpg`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			source, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			logger := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
			roots := map[string]string{"": filepath.Dir(source)}
			renderer, _, err := newRenderer(cfg, roots, nil, logger)
			if err != nil {
				return err
			}

			rend, err := renderer.Render("", filepath.Base(source), args[1])
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(rend.Data)
				return err
			}
			if err := os.WriteFile(output, rend.Data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			logger.Info("rendered", "source", source, "output", output,
				"width", rend.Width, "height", rend.Height, "format", rend.Format, "cached", rend.Cached)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

type resolved struct {
	Size     string `json:"size"`
	Preset   bool   `json:"preset"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Strategy string `json:"strategy"`
	Fill     string `json:"fill,omitempty"`
	Spec     string `json:"spec"`
}

func newResolveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <size>...",
		Short: "Show what size arguments and preset names resolve to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			table, err := cfg.PresetTable()
			if err != nil {
				return err
			}
			resolver := preset.NewResolver(table)

			out := make([]resolved, 0, len(args))
			for _, size := range args {
				d, ok := resolver.Resolve(size)
				if !ok {
					return fmt.Errorf("%q is neither a size nor a preset", size)
				}
				if err := d.Validate(); err != nil {
					return fmt.Errorf("%q: %w", size, err)
				}
				out = append(out, resolved{
					Size:     size,
					Preset:   table.Has(size),
					Width:    d.Width,
					Height:   d.Height,
					Strategy: d.Strategy().String(),
					Fill:     fillString(d),
					Spec:     d.String(),
				})
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func fillString(d preset.Directive) string {
	if d.Strategy() != preset.StrategyCropbox {
		return ""
	}
	return d.Fill
}
