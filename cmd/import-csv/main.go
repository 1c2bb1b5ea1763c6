// Command import-csv loads files written by export-csv back into a database.
// Rows that already exist are left untouched.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"mangazek/internal/logging"
	"mangazek/internal/scraper"
	"mangazek/pkg/database"
	"mangazek/pkg/models"
	"mangazek/pkg/utils"
)

func main() {
	var (
		cfgPath   = flag.String("config", "", "Path to config file")
		mangaIn   = flag.String("manga", "data/manga.csv", "input CSV path for manga")
		chapterIn = flag.String("chapters", "data/chapters.csv", "input CSV path for chapters")
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

	manga, err := readManga(*mangaIn)
	if err != nil {
		logger.Fatal("read manga csv failed", zap.Error(err))
	}
	chapters, err := readChapters(*chapterIn)
	if err != nil {
		logger.Fatal("read chapters csv failed", zap.Error(err))
	}

	n, err := restore(ctx, scraper.NewStore(db), manga, chapters)
	if err != nil {
		logger.Fatal("import failed", zap.Int("manga_imported", n), zap.Error(err))
	}
	logger.Info("import finished", zap.Int("manga", n), zap.Int("chapter_groups", len(chapters)))
}

// restore writes every manga with its chapters, one transaction each.
func restore(ctx context.Context, sink scraper.Sink, manga []models.Manga, chapters map[string][]models.Chapter) (int, error) {
	n := 0
	for _, m := range manga {
		if err := sink.SaveManga(ctx, m, chapters[m.ID]); err != nil {
			return n, fmt.Errorf("save %s: %w", m.ID, err)
		}
		n++
	}
	return n, nil
}

// readCSV returns the data rows of path keyed by header name.
func readCSV(path string, required ...string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	for _, col := range required {
		found := false
		for _, h := range header {
			if h == col {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%s: missing column %q", path, col)
		}
	}

	var out []map[string]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func readManga(path string) ([]models.Manga, error) {
	rows, err := readCSV(path, "id", "title")
	if err != nil {
		return nil, err
	}
	out := make([]models.Manga, 0, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row["id"])
		if id == "" {
			continue
		}
		status := row["status"]
		if status == "" {
			status = scraper.DefaultStatus
		}
		out = append(out, models.Manga{
			ID:        id,
			Title:     row["title"],
			CoverURL:  row["cover_url"],
			Authors:   row["authors"],
			Genres:    row["genres"],
			Status:    status,
			CreatedAt: row["created_at"],
		})
	}
	return out, nil
}

func readChapters(path string) (map[string][]models.Chapter, error) {
	rows, err := readCSV(path, "id", "manga_id")
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.Chapter)
	for _, row := range rows {
		id := strings.TrimSpace(row["id"])
		mangaID := strings.TrimSpace(row["manga_id"])
		if id == "" || mangaID == "" {
			continue
		}
		pos, _ := strconv.Atoi(row["position"])
		var images []string
		if s := strings.TrimSpace(row["images"]); s != "" {
			images = strings.Split(s, "|")
		}
		out[mangaID] = append(out[mangaID], models.Chapter{
			ID:       id,
			MangaID:  mangaID,
			Title:    row["title"],
			Number:   row["number"],
			Position: pos,
			Images:   models.JoinImages(images),
		})
	}
	return out, nil
}
