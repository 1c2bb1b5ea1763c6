package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangazek/internal/scraper"
	"mangazek/pkg/database/databasetest"
	"mangazek/pkg/models"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExport(t *testing.T) {
	db := databasetest.New(t)
	ctx := context.Background()
	require.NoError(t, scraper.NewStore(db).SaveManga(ctx,
		models.Manga{ID: "m1", Title: "Title, with comma", Authors: "A, B", Status: "ongoing"},
		[]models.Chapter{
			{ID: "c2", MangaID: "m1", Position: 1, Images: "https://i/3.png"},
			{ID: "c1", MangaID: "m1", Position: 0, Number: "1", Title: "Start", Images: "https://i/1.png\nhttps://i/2.png"},
		},
	))

	dir := t.TempDir()
	mangaPath := filepath.Join(dir, "out", "manga.csv")
	chapterPath := filepath.Join(dir, "out", "chapters.csv")

	n, err := exportManga(ctx, db, mangaPath)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = exportChapters(ctx, db, chapterPath)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	manga := readCSV(t, mangaPath)
	require.Len(t, manga, 2)
	assert.Equal(t, "Title, with comma", manga[1][1])

	chapters := readCSV(t, chapterPath)
	require.Len(t, chapters, 3)
	assert.Equal(t, []string{"c1", "m1", "0", "1", "Start", "2", "https://i/1.png|https://i/2.png"}, chapters[1])
	assert.Equal(t, "c2", chapters[2][0])
}
