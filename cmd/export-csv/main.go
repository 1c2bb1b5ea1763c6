package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"mangazek/internal/logging"
	"mangazek/pkg/database"
	"mangazek/pkg/models"
	"mangazek/pkg/utils"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "Path to config file")
		mangaOut   = flag.String("manga", "data/manga.csv", "output CSV path for manga")
		chapterOut = flag.String("chapters", "data/chapters.csv", "output CSV path for chapters")
	)
	flag.Parse()

	cfg, err := utils.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate failed", zap.Error(err))
	}

	nManga, err := exportManga(ctx, db, *mangaOut)
	if err != nil {
		logger.Fatal("export manga failed", zap.Error(err))
	}
	nChapters, err := exportChapters(ctx, db, *chapterOut)
	if err != nil {
		logger.Fatal("export chapters failed", zap.Error(err))
	}

	logger.Info("export finished",
		zap.String("manga_csv", *mangaOut),
		zap.Int("manga", nManga),
		zap.String("chapters_csv", *chapterOut),
		zap.Int("chapters", nChapters),
	)
}

func createCSV(outPath string) (*os.File, *csv.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, csv.NewWriter(f), nil
}

func exportManga(ctx context.Context, db *sqlx.DB, outPath string) (int, error) {
	f, w, err := createCSV(outPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := w.Write([]string{"id", "title", "cover_url", "authors", "genres", "status", "created_at"}); err != nil {
		return 0, err
	}

	rows, err := db.QueryxContext(ctx, `
		SELECT id, title, cover_url, authors, genres, status, created_at
		FROM manga
		ORDER BY title, id
	`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var m models.Manga
		if err := rows.StructScan(&m); err != nil {
			return n, err
		}
		if err := w.Write([]string{m.ID, m.Title, m.CoverURL, m.Authors, m.Genres, m.Status, m.CreatedAt}); err != nil {
			return n, err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, err
	}

	w.Flush()
	return n, w.Error()
}

// exportChapters writes one row per chapter; page URLs are joined with "|".
func exportChapters(ctx context.Context, db *sqlx.DB, outPath string) (int, error) {
	f, w, err := createCSV(outPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := w.Write([]string{"id", "manga_id", "position", "number", "title", "pages", "images"}); err != nil {
		return 0, err
	}

	rows, err := db.QueryxContext(ctx, `
		SELECT id, manga_id, title, number, position, images
		FROM chapter
		ORDER BY manga_id, position, id
	`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var ch models.Chapter
		if err := rows.StructScan(&ch); err != nil {
			return n, err
		}
		urls := ch.ImageURLs()
		if err := w.Write([]string{
			ch.ID,
			ch.MangaID,
			strconv.Itoa(ch.Position),
			ch.Number,
			ch.Title,
			strconv.Itoa(len(urls)),
			strings.Join(urls, "|"),
		}); err != nil {
			return n, err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, err
	}

	w.Flush()
	return n, w.Error()
}
