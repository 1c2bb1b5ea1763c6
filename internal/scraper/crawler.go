package scraper

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mangazek/internal/metrics"
	"mangazek/internal/ratelimit"
	"mangazek/pkg/models"
)

// Remote is the subset of the MangaDex API the crawler drives.
type Remote interface {
	ListManga(ctx context.Context, limit, offset int) ([]RawManga, error)
	ListChapters(ctx context.Context, mangaID string, limit int) ([]RawChapter, error)
	ResolvePages(ctx context.Context, chapterID string) ([]string, error)
}

// Sink persists one manga together with its chapters.
type Sink interface {
	SaveManga(ctx context.Context, m models.Manga, chapters []models.Chapter) error
}

type Config struct {
	Total      int // manga budget for the run
	PageSize   int // listing page size
	ChapterCap int // chapters fetched per manga
}

func DefaultConfig() Config {
	return Config{Total: 100, PageSize: 10, ChapterCap: 10}
}

// Summary counts what one run did.
type Summary struct {
	PagesAttempted int `json:"pages_attempted"`
	PagesFailed    int `json:"pages_failed"`
	MangaSaved     int `json:"manga_saved"`
	MangaSkipped   int `json:"manga_skipped"`
	MangaFailed    int `json:"manga_failed"`
	ChaptersSaved  int `json:"chapters_saved"`
}

type Crawler struct {
	cfg        Config
	remote     Remote
	sink       Sink
	normalizer Normalizer
	pauser     ratelimit.Pauser
	logger     *zap.Logger
}

func NewCrawler(cfg Config, remote Remote, sink Sink, normalizer Normalizer, pauser ratelimit.Pauser, logger *zap.Logger) *Crawler {
	def := DefaultConfig()
	if cfg.Total <= 0 {
		cfg.Total = def.Total
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.ChapterCap <= 0 {
		cfg.ChapterCap = def.ChapterCap
	}
	if normalizer == (Normalizer{}) {
		normalizer = DefaultNormalizer()
	}
	if pauser == nil {
		pauser = ratelimit.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		cfg:        cfg,
		remote:     remote,
		sink:       sink,
		normalizer: normalizer,
		pauser:     pauser,
		logger:     logger.Named("crawler"),
	}
}

type outcome int

const (
	outcomeSaved outcome = iota
	outcomeSkipped
)

// Run walks the listing pages until the manga budget is spent. A failed page
// or manga is logged and skipped; a store failure or cancellation ends the
// run with an error.
func (c *Crawler) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	c.logger.Info("crawl started",
		zap.Int("total", c.cfg.Total),
		zap.Int("page_size", c.cfg.PageSize),
		zap.Int("chapter_cap", c.cfg.ChapterCap),
	)

	for offset := 0; offset < c.cfg.Total; offset += c.cfg.PageSize {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		limit := min(c.cfg.PageSize, c.cfg.Total-offset)
		sum.PagesAttempted++
		c.logger.Info("fetching manga page", zap.Int("offset", offset), zap.Int("limit", limit))

		items, err := c.remote.ListManga(ctx, limit, offset)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return sum, ctxErr
			}
			sum.PagesFailed++
			metrics.ObserveCrawlPage("failed")
			c.logger.Warn("manga page failed, skipping", zap.Int("offset", offset), zap.Error(err))
			continue
		}
		metrics.ObserveCrawlPage("ok")

		for _, raw := range items {
			if err := ctx.Err(); err != nil {
				return sum, err
			}

			res, chapters, err := c.crawlManga(ctx, raw)
			switch {
			case errors.Is(err, ErrStoreFatal):
				metrics.ObserveCrawlManga("failed")
				c.logger.Error("store failed, aborting crawl", zap.String("manga_id", raw.ID), zap.Error(err))
				return sum, err
			case err != nil:
				if ctxErr := ctx.Err(); ctxErr != nil {
					return sum, ctxErr
				}
				sum.MangaFailed++
				metrics.ObserveCrawlManga("failed")
				c.logger.Warn("manga failed, skipping", zap.String("manga_id", raw.ID), zap.Error(err))
			case res == outcomeSkipped:
				sum.MangaSkipped++
				metrics.ObserveCrawlManga("skipped")
				c.logger.Info("manga has no chapters, skipping", zap.String("manga_id", raw.ID))
			default:
				sum.MangaSaved++
				sum.ChaptersSaved += chapters
				metrics.ObserveCrawlManga("saved")
				metrics.AddChaptersSaved(chapters)
				c.logger.Info("manga saved", zap.String("manga_id", raw.ID), zap.Int("chapters", chapters))
			}

			c.pauser.Pause(ctx)
		}
	}

	c.logger.Info("crawl finished",
		zap.Int("pages_attempted", sum.PagesAttempted),
		zap.Int("pages_failed", sum.PagesFailed),
		zap.Int("manga_saved", sum.MangaSaved),
		zap.Int("manga_skipped", sum.MangaSkipped),
		zap.Int("manga_failed", sum.MangaFailed),
		zap.Int("chapters_saved", sum.ChaptersSaved),
	)
	return sum, nil
}

// crawlManga resolves every chapter before anything is written, so a failure
// part way leaves no rows for this manga.
func (c *Crawler) crawlManga(ctx context.Context, raw RawManga) (outcome, int, error) {
	m := c.normalizer.Normalize(raw)

	rawChapters, err := c.remote.ListChapters(ctx, m.ID, c.cfg.ChapterCap)
	if err != nil {
		return 0, 0, fmt.Errorf("list chapters of %s: %w", m.ID, err)
	}
	if len(rawChapters) == 0 {
		return outcomeSkipped, 0, nil
	}

	chapters := make([]models.Chapter, 0, len(rawChapters))
	for i, rc := range rawChapters {
		pages, err := c.remote.ResolvePages(ctx, rc.ID)
		if err != nil {
			return 0, 0, fmt.Errorf("resolve pages of chapter %s: %w", rc.ID, err)
		}
		chapters = append(chapters, NewChapter(m.ID, i, rc, pages))
	}

	if err := c.sink.SaveManga(ctx, m, chapters); err != nil {
		if !errors.Is(err, ErrStoreFatal) {
			err = fmt.Errorf("%w: %w", ErrStoreFatal, err)
		}
		return 0, 0, err
	}
	return outcomeSaved, len(chapters), nil
}
