package manga

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/opds-community/libopds2-go/opds1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangazek/pkg/models"
)

func TestWriteFeed(t *testing.T) {
	p := Page{
		Items: []models.Manga{
			{ID: "m1", Title: "First", CoverURL: "https://c/1.jpg", Authors: "A, B", Status: "ongoing"},
			{ID: "m2", Title: "Second"},
		},
		Page:       2,
		PerPage:    2,
		Total:      6,
		TotalPages: 3,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFeed(&buf, BuildFeed("/opds", p)))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `xmlns="http://www.w3.org/2005/Atom"`)

	var feed opds1.Feed
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &feed))
	require.Len(t, feed.Entries, 2)
	assert.Equal(t, "urn:mangazek:manga:m1", feed.Entries[0].ID)
	assert.Equal(t, "First", feed.Entries[0].Title)
	require.Len(t, feed.Entries[0].Author, 2)
	assert.Equal(t, "B", feed.Entries[0].Author[1].Name)

	rels := map[string]string{}
	for _, l := range feed.Links {
		rels[l.Rel] = l.Href
	}
	assert.Equal(t, "/opds?page=2", rels["self"])
	assert.Equal(t, "/opds", rels["previous"])
	assert.Equal(t, "/opds?page=3", rels["next"])

	// the second entry has no cover
	assert.Len(t, feed.Entries[1].Links, 1)
}
