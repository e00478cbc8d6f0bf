// Package config loads ClusterHR settings from defaults, an optional YAML file, CLUSTERHR_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/iafilius/ClusterHR/src/gaia"
	"github.com/iafilius/ClusterHR/src/hrplot"
	"github.com/iafilius/ClusterHR/src/logx"
	"github.com/iafilius/ClusterHR/src/vizier"
)

// FileName is looked up in the working directory when --config is not given.
const FileName = "clusterhr.yaml"

// EnvPrefix prefixes environment overrides, e.g. CLUSTERHR_RADIUS_DEG=0.25.
const EnvPrefix = "CLUSTERHR_"

// Config holds every tunable of the fetch/filter/render pipeline.
type Config struct {
	VizierURL      string        `koanf:"vizier_url"`
	Catalog        string        `koanf:"catalog"`
	RadiusDeg      float64       `koanf:"radius_deg"`
	RowLimit       int           `koanf:"row_limit"`
	MinParallaxSNR float64       `koanf:"min_parallax_snr"`
	Timeout        time.Duration `koanf:"timeout"`
	Retries        int           `koanf:"retries"`
	LogLevel       string        `koanf:"log_level"`
	ChartWidth     int           `koanf:"chart_width"`
	ChartHeight    int           `koanf:"chart_height"`

	// File is the config file that was read, empty if none.
	File string `koanf:"-"`
}

// Defaults returns the built-in settings: Gaia DR2 (I/345), 0.5 deg, 10000 rows, Plx/e_Plx > 5.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"vizier_url":       vizier.DefaultBaseURL,
		"catalog":          vizier.DefaultCatalog,
		"radius_deg":       vizier.DefaultRadiusDeg,
		"row_limit":        vizier.DefaultRowLimit,
		"min_parallax_snr": gaia.DefaultMinParallaxSNR,
		"timeout":          vizier.DefaultTimeout,
		"retries":          0,
		"log_level":        "info",
		"chart_width":      hrplot.DefaultWidth,
		"chart_height":     hrplot.DefaultHeight,
	}
}

// RegisterFlags adds the shared flags to fs. Only flags the user actually sets override
// lower layers.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file (default ./"+FileName+" if present)")
	fs.String("vizier-url", vizier.DefaultBaseURL, "VizieR ASU-TSV endpoint")
	fs.String("catalog", vizier.DefaultCatalog, "VizieR catalog id")
	fs.Float64("radius-deg", vizier.DefaultRadiusDeg, "Search radius around the cluster in degrees")
	fs.Int("row-limit", vizier.DefaultRowLimit, "Maximum rows requested from VizieR")
	fs.Float64("min-parallax-snr", gaia.DefaultMinParallaxSNR, "Keep stars with Plx/e_Plx strictly above this value")
	fs.Duration("timeout", vizier.DefaultTimeout, "Per-request HTTP timeout (0 disables)")
	fs.Int("retries", 0, "Extra attempts after transient network failures")
	fs.String("log-level", "info", "Log level (debug|info|warn|error)")
	fs.Int("chart-width", hrplot.DefaultWidth, "Rendered chart width in pixels")
	fs.Int("chart-height", hrplot.DefaultHeight, "Rendered chart height in pixels")
}

// Load builds a Config. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}
	cfgFile := findConfigFile(explicit)
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// CLUSTERHR_ROW_LIMIT -> row_limit
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, known := Defaults()[key]; !known {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = cfgFile
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile returns the explicit path, or FileName when it exists in the working dir.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	return ""
}

// Validate rejects settings the pipeline cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.VizierURL) == "" {
		errs = append(errs, errors.New("vizier_url must not be empty"))
	}
	if strings.TrimSpace(c.Catalog) == "" {
		errs = append(errs, errors.New("catalog must not be empty"))
	}
	if c.RadiusDeg <= 0 {
		errs = append(errs, fmt.Errorf("radius_deg must be > 0, got %v", c.RadiusDeg))
	}
	if c.RowLimit <= 0 {
		errs = append(errs, fmt.Errorf("row_limit must be > 0, got %d", c.RowLimit))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", c.Retries))
	}
	if _, ok := logx.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		errs = append(errs, fmt.Errorf("chart size must be positive, got %dx%d", c.ChartWidth, c.ChartHeight))
	}
	return errors.Join(errs...)
}

// NewClient returns a VizieR client configured from c.
func (c *Config) NewClient() *vizier.Client {
	cl := vizier.NewClient(c.VizierURL)
	cl.Catalog = c.Catalog
	cl.RadiusDeg = c.RadiusDeg
	cl.RowLimit = c.RowLimit
	cl.Timeout = c.Timeout
	cl.Retries = c.Retries
	return cl
}

// NewPipeline wires a pipeline around a configured client.
func (c *Config) NewPipeline() *gaia.Pipeline {
	return &gaia.Pipeline{Fetcher: c.NewClient(), MinParallaxSNR: c.MinParallaxSNR}
}
