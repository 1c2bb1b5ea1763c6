package models

import "time"

// ChaptersPerLevel is how many chapter reads it takes to gain one level.
const ChaptersPerLevel = 10

type HistoryEntry struct {
	ID         int64     `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	MangaID    string    `json:"manga_id" db:"manga_id"`
	ChapterID  string    `json:"chapter_id" db:"chapter_id"`
	ReadAt     time.Time `json:"read_at" db:"read_at"`
	MangaTitle string    `json:"manga_title,omitempty" db:"manga_title"`
	CoverURL   string    `json:"cover_url,omitempty" db:"cover_url"`
}

type UserLevel struct {
	UserID       string `json:"user_id" db:"user_id"`
	Level        int    `json:"level" db:"level"`
	ChapterCount int    `json:"chapter_count" db:"chapter_count"`
}

func LevelFor(chapterCount int) int {
	if chapterCount <= 0 {
		return 0
	}
	return chapterCount / ChaptersPerLevel
}
