package history

import (
	"context"

	"mangazek/internal/sync"
	"mangazek/pkg/models"
)

// Recorder stores chapter reads and announces them on the hub.
type Recorder struct {
	Repo *Repo
	Hub  *sync.Hub
}

func NewRecorder(repo *Repo, hub *sync.Hub) *Recorder {
	return &Recorder{Repo: repo, Hub: hub}
}

func (r *Recorder) RecordRead(ctx context.Context, userID, mangaID, chapterID string) (models.UserLevel, error) {
	lvl, err := r.Repo.RecordRead(ctx, userID, mangaID, chapterID)
	if err != nil {
		return lvl, err
	}
	if r.Hub != nil {
		r.Hub.Publish(sync.Event{
			Type:      sync.EventChapterRead,
			UserID:    userID,
			MangaID:   mangaID,
			ChapterID: chapterID,
			Level:     lvl.Level,
		})
	}
	return lvl, nil
}
