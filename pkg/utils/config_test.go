package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MANGAZEK_DB_PATH", filepath.Join(t.TempDir(), "data.db"))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Crawler.Total)
	assert.Equal(t, 10, cfg.Crawler.PageSize)
	assert.Equal(t, 10, cfg.Crawler.ChapterCap)
	assert.Equal(t, 0, cfg.Crawler.MaxRetries)

	lo, hi := cfg.Crawler.PauseRange()
	assert.Equal(t, 1500*time.Millisecond, lo)
	assert.Equal(t, 3*time.Second, hi)

	assert.Equal(t, "https://api.mangadex.org", cfg.Remote.BaseURL)
	assert.Equal(t, "en", cfg.Remote.Language)
	assert.Equal(t, 12, cfg.Server.PerPage)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TTL())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MANGAZEK_DB_PATH", filepath.Join(t.TempDir(), "data.db"))
	t.Setenv("MANGAZEK_CRAWLER_TOTAL", "40")
	t.Setenv("MANGAZEK_CRAWLER_MAX_RETRIES", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Crawler.Total)
	assert.Equal(t, 3, cfg.Crawler.MaxRetries)
}

func TestLoadFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mangazek.yaml")
	content := []byte("crawler:\n  total: 30\n  page_size: 5\ndatabase:\n  dsn: " + filepath.Join(dir, "x.db") + "\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	fs := pflag.NewFlagSet("crawler", pflag.ContinueOnError)
	fs.Int("page-size", 10, "")
	fs.Int("chapter-cap", 10, "")
	require.NoError(t, fs.Parse([]string{"--chapter-cap=3"}))

	cfg, err := LoadWithFlags(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Crawler.Total)
	// unset flags do not shadow the file
	assert.Equal(t, 5, cfg.Crawler.PageSize)
	assert.Equal(t, 3, cfg.Crawler.ChapterCap)
}

func TestValidate(t *testing.T) {
	t.Setenv("MANGAZEK_DB_PATH", filepath.Join(t.TempDir(), "data.db"))
	base, err := Load("")
	require.NoError(t, err)

	cases := map[string]func(c *Config){
		"page size too large": func(c *Config) { c.Crawler.PageSize = 101 },
		"zero total":          func(c *Config) { c.Crawler.Total = 0 },
		"inverted pause":      func(c *Config) { c.Crawler.PauseMinMs = 4000 },
		"negative retries":    func(c *Config) { c.Crawler.MaxRetries = -1 },
		"unknown driver":      func(c *Config) { c.Database.Driver = "mysql" },
		"empty secret":        func(c *Config) { c.Auth.JWTSecret = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
