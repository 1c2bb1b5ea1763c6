// Package utils loads process configuration via Viper.
package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"mangazek/pkg/database"
)

// Config captures every knob shared by the mangazek binaries.
type Config struct {
	Database database.Config `mapstructure:"database"`
	Remote   RemoteConfig    `mapstructure:"remote"`
	Crawler  CrawlerConfig   `mapstructure:"crawler"`
	Server   ServerConfig    `mapstructure:"server"`
	Auth     AuthConfig      `mapstructure:"auth"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Grpc     GrpcConfig      `mapstructure:"grpc"`
}

// RemoteConfig points the crawler at the MangaDex API.
type RemoteConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	CoverBaseURL     string `mapstructure:"cover_base_url"`
	PlaceholderCover string `mapstructure:"placeholder_cover"`
	Language         string `mapstructure:"language"`
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
}

// CrawlerConfig governs one crawl run.
type CrawlerConfig struct {
	Total            int `mapstructure:"total"`
	PageSize         int `mapstructure:"page_size"`
	ChapterCap       int `mapstructure:"chapter_cap"`
	PauseMinMs       int `mapstructure:"pause_min_ms"`
	PauseMaxMs       int `mapstructure:"pause_max_ms"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	PerPage        int      `mapstructure:"per_page"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	SyncTCPAddr    string   `mapstructure:"sync_tcp_addr"`
}

type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer"`
	JWTTTLHours int    `mapstructure:"jwt_ttl_hours"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type GrpcConfig struct {
	Addr                 string `mapstructure:"addr"`
	ProbeIntervalSeconds int    `mapstructure:"probe_interval_seconds"`
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"config":      "",
	"total":       "crawler.total",
	"page-size":   "crawler.page_size",
	"chapter-cap": "crawler.chapter_cap",
	"max-retries": "crawler.max_retries",
	"db-driver":   "database.driver",
	"db-dsn":      "database.dsn",
	"addr":        "server.addr",
}

// Load builds a Config from defaults, an optional file and MANGAZEK_* env.
func Load(path string) (Config, error) {
	return LoadWithFlags(path, nil)
}

// LoadWithFlags is Load with explicitly set flags taking precedence over
// every other source.
func LoadWithFlags(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MANGAZEK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || key == "" {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	db := database.DefaultConfig()
	v.SetDefault("database.driver", db.Driver)
	v.SetDefault("database.dsn", db.DSN)
	v.SetDefault("database.max_open_conns", 0)

	v.SetDefault("remote.base_url", "https://api.mangadex.org")
	v.SetDefault("remote.cover_base_url", "https://uploads.mangadex.org/covers")
	v.SetDefault("remote.placeholder_cover", "https://via.placeholder.com/200")
	v.SetDefault("remote.language", "en")
	v.SetDefault("remote.user_agent", "mangazek-crawler/1.0")
	v.SetDefault("remote.timeout_seconds", 15)

	v.SetDefault("crawler.total", 100)
	v.SetDefault("crawler.page_size", 10)
	v.SetDefault("crawler.chapter_cap", 10)
	v.SetDefault("crawler.pause_min_ms", 1500)
	v.SetDefault("crawler.pause_max_ms", 3000)
	v.SetDefault("crawler.max_retries", 0)
	v.SetDefault("crawler.backoff_initial_ms", 500)
	v.SetDefault("crawler.backoff_max_ms", 5000)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.per_page", 12)
	v.SetDefault("server.trusted_proxies", []string{"127.0.0.1"})
	v.SetDefault("server.sync_tcp_addr", ":7070")

	// dev default (change for production)
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.jwt_issuer", "mangazek")
	v.SetDefault("auth.jwt_ttl_hours", 24)

	v.SetDefault("logging.development", true)

	v.SetDefault("grpc.addr", ":9090")
	v.SetDefault("grpc.probe_interval_seconds", 10)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Database.Driver != database.DriverSQLite && c.Database.Driver != database.DriverPostgres {
		return fmt.Errorf("database.driver must be %q or %q", database.DriverSQLite, database.DriverPostgres)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn must be set")
	}
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url must be set")
	}
	if c.Remote.TimeoutSeconds <= 0 {
		return fmt.Errorf("remote.timeout_seconds must be > 0")
	}
	if c.Crawler.Total <= 0 {
		return fmt.Errorf("crawler.total must be > 0")
	}
	// MangaDex rejects list pages above 100.
	if c.Crawler.PageSize <= 0 || c.Crawler.PageSize > 100 {
		return fmt.Errorf("crawler.page_size must be between 1 and 100")
	}
	if c.Crawler.ChapterCap <= 0 || c.Crawler.ChapterCap > 500 {
		return fmt.Errorf("crawler.chapter_cap must be between 1 and 500")
	}
	if c.Crawler.PauseMinMs < 0 || c.Crawler.PauseMaxMs < c.Crawler.PauseMinMs {
		return fmt.Errorf("crawler pause range must satisfy 0 <= pause_min_ms <= pause_max_ms")
	}
	if c.Crawler.MaxRetries < 0 {
		return fmt.Errorf("crawler.max_retries must be >= 0")
	}
	if c.Crawler.BackoffInitialMs <= 0 || c.Crawler.BackoffMaxMs < c.Crawler.BackoffInitialMs {
		return fmt.Errorf("crawler backoff must satisfy 0 < backoff_initial_ms <= backoff_max_ms")
	}
	if c.Server.PerPage <= 0 {
		return fmt.Errorf("server.per_page must be > 0")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must be set")
	}
	if c.Auth.JWTTTLHours <= 0 {
		return fmt.Errorf("auth.jwt_ttl_hours must be > 0")
	}
	return nil
}

func (c CrawlerConfig) PauseRange() (time.Duration, time.Duration) {
	return time.Duration(c.PauseMinMs) * time.Millisecond, time.Duration(c.PauseMaxMs) * time.Millisecond
}

func (c CrawlerConfig) BackoffRange() (time.Duration, time.Duration) {
	return time.Duration(c.BackoffInitialMs) * time.Millisecond, time.Duration(c.BackoffMaxMs) * time.Millisecond
}

func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

func (a AuthConfig) TTL() time.Duration {
	return time.Duration(a.JWTTTLHours) * time.Hour
}

func (g GrpcConfig) ProbeInterval() time.Duration {
	if g.ProbeIntervalSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.ProbeIntervalSeconds) * time.Second
}
