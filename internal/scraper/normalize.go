package scraper

import (
	"fmt"
	"strings"

	"mangazek/pkg/models"
)

const (
	DefaultTitle            = "No title"
	DefaultStatus           = "unknown"
	DefaultCoverBaseURL     = "https://uploads.mangadex.org/covers"
	DefaultPlaceholderCover = "https://via.placeholder.com/200"
)

// Normalizer flattens raw MangaDex records. It holds no state besides its
// settings and never fails.
type Normalizer struct {
	Language         string
	CoverBaseURL     string
	PlaceholderCover string
}

func DefaultNormalizer() Normalizer {
	return Normalizer{
		Language:         "en",
		CoverBaseURL:     DefaultCoverBaseURL,
		PlaceholderCover: DefaultPlaceholderCover,
	}
}

// Normalize uses DefaultNormalizer.
func Normalize(raw RawManga) models.Manga {
	return DefaultNormalizer().Normalize(raw)
}

func (n Normalizer) Normalize(raw RawManga) models.Manga {
	title := pickLang(raw.Attributes.Title, n.Language)
	if title == "" {
		title = DefaultTitle
	}

	status := strings.TrimSpace(raw.Attributes.Status)
	if status == "" {
		status = DefaultStatus
	}

	return models.Manga{
		ID:        raw.ID,
		Title:     title,
		CoverURL:  n.coverURL(raw),
		Authors:   strings.Join(authors(raw.Relationships), models.ListSeparator),
		Genres:    strings.Join(n.genres(raw.Attributes.Tags), models.ListSeparator),
		Status:    status,
		CreatedAt: raw.Attributes.CreatedAt,
	}
}

// authors collects author and artist names, keeping the first occurrence
// of each.
func authors(rels []Relationship) []string {
	seen := make(map[string]struct{}, len(rels))
	out := make([]string, 0, len(rels))
	for _, rel := range rels {
		if rel.Type != "author" && rel.Type != "artist" {
			continue
		}
		if rel.Attributes == nil {
			continue
		}
		name := strings.TrimSpace(rel.Attributes.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func (n Normalizer) genres(tags []Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if name := pickLang(t.Attributes.Name, n.Language); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func (n Normalizer) coverURL(raw RawManga) string {
	for _, rel := range raw.Relationships {
		if rel.Type != "cover_art" || rel.Attributes == nil || rel.Attributes.FileName == "" {
			continue
		}
		base := strings.TrimRight(n.CoverBaseURL, "/")
		return fmt.Sprintf("%s/%s/%s.256.jpg", base, raw.ID, rel.Attributes.FileName)
	}
	return n.PlaceholderCover
}

// BuildPageURLs joins an at-home manifest into full image URLs.
func BuildPageURLs(baseURL, hash string, files []string) []string {
	baseURL = strings.TrimRight(baseURL, "/")
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, baseURL+"/data/"+hash+"/"+f)
	}
	return out
}

// NewChapter builds the persisted chapter for a resolved remote chapter.
// position is the chapter's index in the feed as received.
func NewChapter(mangaID string, position int, raw RawChapter, pages []string) models.Chapter {
	ch := models.Chapter{
		ID:       raw.ID,
		MangaID:  mangaID,
		Position: position,
		Images:   models.JoinImages(pages),
	}
	if raw.Attributes.Title != nil {
		ch.Title = strings.TrimSpace(*raw.Attributes.Title)
	}
	if raw.Attributes.Chapter != nil {
		ch.Number = strings.TrimSpace(*raw.Attributes.Chapter)
	}
	return ch
}

func pickLang(m map[string]string, lang string) string {
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[lang])
}
