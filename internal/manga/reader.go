package manga

import (
	"fmt"
	"strings"

	"mangazek/pkg/models"
)

type ChapterRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ChapterLabel numbers chapters from 1 in crawl order.
func ChapterLabel(index int, title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return fmt.Sprintf("Chapter %d: %s", index+1, t)
	}
	return fmt.Sprintf("Chapter %d", index+1)
}

func ChapterRefs(chapters []models.Chapter) []ChapterRef {
	out := make([]ChapterRef, 0, len(chapters))
	for i, ch := range chapters {
		out = append(out, ChapterRef{ID: ch.ID, Label: ChapterLabel(i, ch.Title)})
	}
	return out
}

// Reader is everything needed to render one chapter.
type Reader struct {
	MangaID   string       `json:"manga_id"`
	ChapterID string       `json:"chapter_id"`
	Label     string       `json:"label"`
	Images    []string     `json:"images"`
	Prev      string       `json:"prev_chapter,omitempty"`
	Next      string       `json:"next_chapter,omitempty"`
	Chapters  []ChapterRef `json:"chapters"`
}

// BuildReader locates chapterID among chapters. ok is false when the
// chapter does not belong to the list.
func BuildReader(mangaID, chapterID string, chapters []models.Chapter) (Reader, bool) {
	idx := -1
	for i, ch := range chapters {
		if ch.ID == chapterID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Reader{}, false
	}

	r := Reader{
		MangaID:   mangaID,
		ChapterID: chapterID,
		Label:     ChapterLabel(idx, chapters[idx].Title),
		Images:    chapters[idx].ImageURLs(),
		Chapters:  ChapterRefs(chapters),
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	if idx > 0 {
		r.Prev = chapters[idx-1].ID
	}
	if idx < len(chapters)-1 {
		r.Next = chapters[idx+1].ID
	}
	return r, true
}
