package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func rel(typ, name, file string) Relationship {
	return Relationship{ID: typ + "-" + name + file, Type: typ, Attributes: &RelationshipAttributes{Name: name, FileName: file}}
}

func tag(names map[string]string) Tag {
	return Tag{Attributes: TagAttributes{Name: names}}
}

func TestNormalizeFullRecord(t *testing.T) {
	raw := RawManga{
		ID: "abc",
		Attributes: MangaAttributes{
			Title:     map[string]string{"en": "Solo Leveling", "ja": "俺だけレベルアップな件"},
			Status:    "completed",
			CreatedAt: "2021-01-01T00:00:00+00:00",
			Tags: []Tag{
				tag(map[string]string{"en": "Action"}),
				tag(map[string]string{"ja": "ドラマ"}),
				tag(map[string]string{"en": "Drama"}),
			},
		},
		Relationships: []Relationship{
			rel("author", "Chugong", ""),
			rel("artist", "Dubu", ""),
			rel("artist", "Chugong", ""),
			rel("cover_art", "", "x.jpg"),
		},
	}

	m := Normalize(raw)
	assert.Equal(t, "abc", m.ID)
	assert.Equal(t, "Solo Leveling", m.Title)
	assert.Equal(t, "completed", m.Status)
	assert.Equal(t, "2021-01-01T00:00:00+00:00", m.CreatedAt)
	assert.Equal(t, "Chugong, Dubu", m.Authors)
	assert.Equal(t, "Action, Drama", m.Genres)
	assert.Equal(t, "https://uploads.mangadex.org/covers/abc/x.jpg.256.jpg", m.CoverURL)
}

func TestNormalizeDefaults(t *testing.T) {
	m := Normalize(RawManga{
		ID: "empty",
		Attributes: MangaAttributes{
			Title: map[string]string{"ja": "タイトル"},
		},
		Relationships: []Relationship{
			{ID: "a1", Type: "author"},
			rel("cover_art", "", ""),
		},
	})

	assert.Equal(t, DefaultTitle, m.Title)
	assert.Equal(t, DefaultStatus, m.Status)
	assert.Equal(t, "", m.CreatedAt)
	assert.Equal(t, "", m.Authors)
	assert.Equal(t, "", m.Genres)
	assert.Equal(t, DefaultPlaceholderCover, m.CoverURL)
}

func TestNormalizeAuthorsKeepFirstSeenOrder(t *testing.T) {
	m := Normalize(RawManga{
		ID: "x",
		Relationships: []Relationship{
			rel("artist", "B", ""),
			rel("author", "A", ""),
			rel("author", "B", ""),
			rel("publisher", "P", ""),
			rel("artist", "C", ""),
		},
	})
	assert.Equal(t, "B, A, C", m.Authors)
}

func TestNormalizerCustomSettings(t *testing.T) {
	n := Normalizer{Language: "ja", CoverBaseURL: "https://cdn.test/covers/", PlaceholderCover: "none"}
	m := n.Normalize(RawManga{
		ID:            "id1",
		Attributes:    MangaAttributes{Title: map[string]string{"ja": "日本"}},
		Relationships: []Relationship{rel("cover_art", "", "c.png")},
	})
	assert.Equal(t, "日本", m.Title)
	assert.Equal(t, "https://cdn.test/covers/id1/c.png.256.jpg", m.CoverURL)
}

func TestBuildPageURLs(t *testing.T) {
	got := BuildPageURLs("https://x", "h1", []string{"a.png", "b.png"})
	assert.Equal(t, []string{"https://x/data/h1/a.png", "https://x/data/h1/b.png"}, got)

	assert.Empty(t, BuildPageURLs("https://x/", "h1", nil))
}

func TestNewChapter(t *testing.T) {
	ch := NewChapter("m1", 3, RawChapter{
		ID:         "c1",
		Attributes: ChapterAttributes{Title: strPtr(" Arrival "), Chapter: strPtr("4.5")},
	}, []string{"u1", "u2"})

	assert.Equal(t, "c1", ch.ID)
	assert.Equal(t, "m1", ch.MangaID)
	assert.Equal(t, "Arrival", ch.Title)
	assert.Equal(t, "4.5", ch.Number)
	assert.Equal(t, 3, ch.Position)
	assert.Equal(t, "u1\nu2", ch.Images)

	untitled := NewChapter("m1", 0, RawChapter{ID: "c2"}, nil)
	assert.Equal(t, "", untitled.Title)
	assert.Equal(t, "", untitled.Images)
}
