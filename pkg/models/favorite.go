package models

import "time"

type Favorite struct {
	UserID  string    `json:"user_id" db:"user_id"`
	MangaID string    `json:"manga_id" db:"manga_id"`
	AddedAt time.Time `json:"added_at" db:"added_at"`
}

// FavoriteManga is a favorite joined with the manga it points at.
type FavoriteManga struct {
	MangaID  string    `json:"manga_id" db:"manga_id"`
	Title    string    `json:"title" db:"title"`
	CoverURL string    `json:"cover_url" db:"cover_url"`
	AddedAt  time.Time `json:"added_at" db:"added_at"`
}
