package models

import "strings"

const (
	// ListSeparator joins authors and genres in a single column.
	ListSeparator = ", "
	// ImageSeparator joins page image URLs in chapter.images.
	ImageSeparator = "\n"
)

// Manga is the flat, persisted form of a crawled manga. Rows are written by
// the crawler only and never updated afterwards.
type Manga struct {
	ID        string `json:"id" db:"id"`
	Title     string `json:"title" db:"title"`
	CoverURL  string `json:"cover_url" db:"cover_url"`
	Authors   string `json:"authors" db:"authors"`
	Genres    string `json:"genres" db:"genres"`
	Status    string `json:"status" db:"status"`
	CreatedAt string `json:"created_at" db:"created_at"`
}

// GenreList splits the stored genres column.
func (m Manga) GenreList() []string { return SplitList(m.Genres) }

// AuthorList splits the stored authors column.
func (m Manga) AuthorList() []string { return SplitList(m.Authors) }

// Chapter belongs to a Manga through MangaID. The reference is logical only.
type Chapter struct {
	ID       string `json:"id" db:"id"`
	MangaID  string `json:"manga_id" db:"manga_id"`
	Title    string `json:"title" db:"title"`
	Number   string `json:"number,omitempty" db:"number"`
	Position int    `json:"position" db:"position"`
	Images   string `json:"-" db:"images"`
}

// ImageURLs returns the ordered page image URLs of the chapter.
func (c Chapter) ImageURLs() []string {
	if strings.TrimSpace(c.Images) == "" {
		return nil
	}
	return strings.Split(c.Images, ImageSeparator)
}

func JoinImages(urls []string) string {
	return strings.Join(urls, ImageSeparator)
}

func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ListSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
