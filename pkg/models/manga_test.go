package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChapterImageURLs(t *testing.T) {
	c := Chapter{Images: JoinImages([]string{"https://x/data/h1/a.png", "https://x/data/h1/b.png"})}
	assert.Equal(t, []string{"https://x/data/h1/a.png", "https://x/data/h1/b.png"}, c.ImageURLs())
	assert.Nil(t, Chapter{}.ImageURLs())
}

func TestSplitList(t *testing.T) {
	m := Manga{Genres: "Action, Drama", Authors: ""}
	assert.Equal(t, []string{"Action", "Drama"}, m.GenreList())
	assert.Nil(t, m.AuthorList())
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, 0, LevelFor(0))
	assert.Equal(t, 0, LevelFor(9))
	assert.Equal(t, 1, LevelFor(10))
	assert.Equal(t, 2, LevelFor(27))
}
