package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iafilius/ClusterHR/src/config"
	"github.com/iafilius/ClusterHR/src/gaia"
	"github.com/iafilius/ClusterHR/src/hrplot"
)

// errNoPlot is returned when the filtered table cannot be plotted.
var errNoPlot = errors.New("required plot columns missing; nothing rendered")

// RunScreenshotMode fetches cluster, renders the HR diagram and writes it as a PNG to outPath.
// It runs headlessly without creating a UI window.
func RunScreenshotMode(cfg *config.Config, cluster, outPath string) error {
	return renderScreenshot(context.Background(), cfg.NewPipeline(), cluster, outPath, cfg.ChartWidth, cfg.ChartHeight)
}

func renderScreenshot(ctx context.Context, pipe runner, cluster, outPath string, width, height int) error {
	cluster = strings.TrimSpace(cluster)
	if cluster == "" {
		return errors.New("--screenshot needs --cluster")
	}
	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create out dir: %w", err)
		}
	}
	res, err := pipe.Run(ctx, cluster)
	if err != nil {
		return err
	}
	return writePlot(res, outPath, width, height)
}

func writePlot(res *gaia.Result, outPath string, width, height int) error {
	p, ok := hrplot.Build(res.Table, res.Cluster)
	if !ok {
		return errNoPlot
	}
	p.Caption = res.Stats.String()
	var buf bytes.Buffer
	if err := hrplot.RenderPNG(&buf, p, width, height); err != nil {
		return fmt.Errorf("png encode %s: %w", outPath, err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return nil
}
