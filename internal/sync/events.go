package sync

import "time"

const (
	EventFavoriteAdded   = "favorite.add"
	EventFavoriteRemoved = "favorite.remove"
	EventChapterRead     = "chapter.read"
)

// Event is what the hub fans out to TCP and WebSocket listeners.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	MangaID   string    `json:"manga_id"`
	ChapterID string    `json:"chapter_id,omitempty"`
	Level     int       `json:"level,omitempty"`
	At        time.Time `json:"at"`
}
