package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iafilius/ClusterHR/src/vizier"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

// chdirTemp moves into an empty dir so a stray clusterhr.yaml cannot leak in.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, vizier.DefaultBaseURL, cfg.VizierURL)
	assert.Equal(t, "I/345", cfg.Catalog)
	assert.Equal(t, 0.5, cfg.RadiusDeg)
	assert.Equal(t, 10000, cfg.RowLimit)
	assert.Equal(t, 5.0, cfg.MinParallaxSNR)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.Retries)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.File)
}

func TestLoad_Layering(t *testing.T) {
	dir := chdirTemp(t)
	yml := "radius_deg: 0.25\nrow_limit: 500\nlog_level: debug\ntimeout: 5s\n"
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("CLUSTERHR_ROW_LIMIT", "800")
	t.Setenv("CLUSTERHR_RETRIES", "2")

	cfg, err := Load(newFlags(t, "--config", path, "--retries", "1"))
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, 0.25, cfg.RadiusDeg, "file overrides default")
	assert.Equal(t, 800, cfg.RowLimit, "env overrides file")
	assert.Equal(t, 1, cfg.Retries, "flag overrides env")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "I/345", cfg.Catalog, "untouched keys keep defaults")
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.WriteFile(FileName, []byte("min_parallax_snr: 10\n"), 0o644))

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, FileName, cfg.File)
	assert.Equal(t, 10.0, cfg.MinParallaxSNR)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	chdirTemp(t)
	_, err := Load(newFlags(t, "--config", "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoad_InvalidValues(t *testing.T) {
	chdirTemp(t)
	_, err := Load(newFlags(t, "--radius-deg", "0", "--log-level", "loud", "--row-limit=-1"))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "radius_deg")
	assert.Contains(t, msg, "row_limit")
	assert.Contains(t, msg, "log_level")
}

func TestConfig_NewPipeline(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load(newFlags(t, "--vizier-url", "http://127.0.0.1:1/asu", "--radius-deg", "0.1", "--min-parallax-snr", "3"))
	require.NoError(t, err)

	cl := cfg.NewClient()
	assert.Equal(t, "http://127.0.0.1:1/asu", cl.BaseURL)
	assert.Equal(t, 0.1, cl.RadiusDeg)
	assert.Equal(t, "I/345", cl.Catalog)
	assert.Equal(t, 10000, cl.RowLimit)

	p := cfg.NewPipeline()
	require.NotNil(t, p.Fetcher)
	assert.Equal(t, 3.0, p.MinParallaxSNR)
}
