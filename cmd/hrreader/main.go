package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iafilius/ClusterHR/src/config"
	"github.com/iafilius/ClusterHR/src/gaia"
	"github.com/iafilius/ClusterHR/src/hrplot"
	"github.com/iafilius/ClusterHR/src/logx"
)

type runner interface {
	Run(ctx context.Context, cluster string) (*gaia.Result, error)
}

func main() {
	if err := newRootCommand(nil).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the hrreader command. newRunner overrides the VizieR pipeline in tests.
func newRootCommand(newRunner func(*config.Config) runner) *cobra.Command {
	var (
		format  string
		pngPath string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "hrreader <cluster>",
		Short: "Print the parallax-filtered Gaia DR2 table for a star cluster",
		Long: `Query VizieR (Gaia DR2, I/345) around the named cluster, keep stars whose
Plx/e_Plx is above the threshold and print the result. Optionally write the HR diagram as PNG.`,
		Example: `  hrreader M53
  hrreader "NGC 2516" --format csv --limit 50
  hrreader M45 --png m45.png --radius-deg 1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormat(format) {
				return fmt.Errorf("unknown format %q (want table, json, csv or md)", format)
			}
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			logx.SetLevel(cfg.LogLevel)
			defer logx.SetOutput(logx.SetOutput(cmd.ErrOrStderr()))

			var r runner = cfg.NewPipeline()
			if newRunner != nil {
				r = newRunner(cfg)
			}
			res, err := r.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			summaryOut := out
			if format == "json" || format == "csv" {
				summaryOut = cmd.ErrOrStderr()
			}
			_, _ = fmt.Fprintln(summaryOut, res.Summary())
			if err := renderTable(out, res.Table, format, limit); err != nil {
				return err
			}

			if pngPath != "" {
				return writePNG(pngPath, res, cfg.ChartWidth, cfg.ChartHeight)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	config.RegisterFlags(fs)
	fs.StringVarP(&format, "format", "f", "table", "Output format: table, json, csv or md")
	fs.StringVar(&pngPath, "png", "", "Also write the HR diagram to this PNG file")
	fs.IntVarP(&limit, "limit", "n", 0, "Print at most this many rows (0 = all)")
	return cmd
}

func writePNG(path string, res *gaia.Result, width, height int) error {
	p, ok := hrplot.Build(res.Table, res.Cluster)
	if !ok {
		return nil
	}
	p.Caption = res.Stats.String()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := hrplot.RenderPNG(f, p, width, height); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	logx.Infof("wrote %s", path)
	return nil
}
