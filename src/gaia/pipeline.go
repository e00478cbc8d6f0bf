package gaia

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iafilius/ClusterHR/src/logx"
	"github.com/iafilius/ClusterHR/src/vizier"
)

// Fetcher returns the raw catalog table for a region around a named target.
// *vizier.Client implements it.
type Fetcher interface {
	QueryRegion(ctx context.Context, target string) (*vizier.Table, error)
}

// Pipeline runs fetch -> adapt -> filter for one cluster name.
type Pipeline struct {
	Fetcher        Fetcher
	MinParallaxSNR float64
}

// Result is the outcome of one successful run.
type Result struct {
	Cluster string
	Raw     *vizier.Table
	Table   *Table // filtered, with the Plx/e_Plx column
	Stats   FilterStats
	Elapsed time.Duration
}

// Summary is a one-line description suitable for a status bar or CLI.
func (r *Result) Summary() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s (%.1fs)", r.Cluster, r.Stats, r.Elapsed.Seconds())
}

// Run executes the pipeline. Fetch and missing-column failures are returned unchanged in
// kind (errors.Is works with vizier.ErrNoTables and ErrMissingColumn). An empty result after
// filtering is not an error.
func (p *Pipeline) Run(ctx context.Context, cluster string) (*Result, error) {
	if p.Fetcher == nil {
		return nil, fmt.Errorf("pipeline: no fetcher configured")
	}
	start := time.Now()
	cluster = strings.TrimSpace(cluster)

	raw, err := p.Fetcher.QueryRegion(ctx, cluster)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", cluster, err)
	}
	phase := time.Now()
	adapted, err := Adapt(raw)
	if err != nil {
		return nil, fmt.Errorf("adapt %q: %w", cluster, err)
	}
	logx.TimeTrack(phase, "adapt "+cluster)
	minSNR := p.MinParallaxSNR
	if minSNR == 0 {
		minSNR = DefaultMinParallaxSNR
	}
	phase = time.Now()
	filtered, st, err := FilterByParallaxSNR(adapted, minSNR)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", cluster, err)
	}
	logx.TimeTrack(phase, "filter "+cluster)
	res := &Result{Cluster: cluster, Raw: raw, Table: filtered, Stats: st, Elapsed: time.Since(start)}
	logx.Infof("%s", res.Summary())
	return res, nil
}
