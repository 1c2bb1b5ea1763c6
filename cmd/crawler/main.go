// Command crawler copies a slice of the MangaDex catalog into the local
// database.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mangazek/internal/logging"
	"mangazek/internal/ratelimit"
	"mangazek/internal/scraper"
	"mangazek/pkg/database"
	"mangazek/pkg/utils"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:          "crawler",
		Short:        "Crawl MangaDex into the mangazek database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := utils.LoadWithFlags(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	f.Int("total", 100, "number of manga to crawl")
	f.Int("page-size", 10, "manga per listing page")
	f.Int("chapter-cap", 10, "chapters fetched per manga")
	f.Int("max-retries", 0, "retries per failed remote call")
	f.String("db-driver", database.DriverSQLite, "database driver (sqlite3 or pgx)")
	f.String("db-dsn", "", "database DSN or SQLite path")

	return cmd
}

func run(parent context.Context, cfg utils.Config) error {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("open database", zap.Error(err))
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Error("migrate database", zap.Error(err))
		return err
	}

	pauseMin, pauseMax := cfg.Crawler.PauseRange()
	pauser := ratelimit.NewRandomPauser(pauseMin, pauseMax)
	backoffInitial, backoffMax := cfg.Crawler.BackoffRange()

	client := scraper.NewClient(scraper.ClientConfig{
		BaseURL:   cfg.Remote.BaseURL,
		Language:  cfg.Remote.Language,
		UserAgent: cfg.Remote.UserAgent,
		Retry: scraper.RetryConfig{
			MaxRetries:      cfg.Crawler.MaxRetries,
			InitialInterval: backoffInitial,
			MaxInterval:     backoffMax,
		},
	}, &http.Client{Timeout: cfg.Remote.Timeout()}, pauser, logger)

	normalizer := scraper.Normalizer{
		Language:         cfg.Remote.Language,
		CoverBaseURL:     cfg.Remote.CoverBaseURL,
		PlaceholderCover: cfg.Remote.PlaceholderCover,
	}

	crawler := scraper.NewCrawler(scraper.Config{
		Total:      cfg.Crawler.Total,
		PageSize:   cfg.Crawler.PageSize,
		ChapterCap: cfg.Crawler.ChapterCap,
	}, client, scraper.NewStore(db), normalizer, pauser, logger)

	sum, err := crawler.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("crawl interrupted", zap.Int("manga_saved", sum.MangaSaved))
		return nil
	case err != nil:
		logger.Error("crawl aborted", zap.Error(err))
		return err
	}

	logger.Info("database populated", zap.String("dsn", cfg.Database.DSN), zap.Int("manga_saved", sum.MangaSaved))
	return nil
}
