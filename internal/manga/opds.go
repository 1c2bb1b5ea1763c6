package manga

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/opds-community/libopds2-go/opds1"

	"mangazek/pkg/models"
)

const (
	atomNamespace   = "http://www.w3.org/2005/Atom"
	linkTypeCatalog = "application/atom+xml;profile=opds-catalog"
	linkTypeJSON    = "application/json"
	linkRelImage    = "http://opds-spec.org/image"
	linkRelThumb    = "http://opds-spec.org/image/thumbnail"
)

// BuildFeed turns one catalog page into an OPDS 1 navigation feed. basePath
// is the path the feed is served under, e.g. "/opds".
func BuildFeed(basePath string, p Page) opds1.Feed {
	feed := opds1.Feed{
		ID:    "urn:mangazek:catalog:" + strconv.Itoa(p.Page),
		Title: "MangaZek catalog",
		Links: []opds1.Link{
			{Rel: "self", Href: pageHref(basePath, p.Page), TypeLink: linkTypeCatalog},
			{Rel: "start", Href: basePath, TypeLink: linkTypeCatalog},
		},
	}
	if p.Page > 1 {
		feed.Links = append(feed.Links, opds1.Link{Rel: "previous", Href: pageHref(basePath, p.Page-1), TypeLink: linkTypeCatalog})
	}
	if p.Page < p.TotalPages {
		feed.Links = append(feed.Links, opds1.Link{Rel: "next", Href: pageHref(basePath, p.Page+1), TypeLink: linkTypeCatalog})
	}

	for _, m := range p.Items {
		feed.Entries = append(feed.Entries, feedEntry(m))
	}
	return feed
}

func feedEntry(m models.Manga) opds1.Entry {
	e := opds1.Entry{
		ID:    "urn:mangazek:manga:" + m.ID,
		Title: m.Title,
		Links: []opds1.Link{
			{Rel: "alternate", Href: "/manga/" + url.PathEscape(m.ID), TypeLink: linkTypeJSON},
		},
	}
	if m.CoverURL != "" {
		e.Links = append(e.Links,
			opds1.Link{Rel: linkRelImage, Href: m.CoverURL, TypeLink: "image/jpeg"},
			opds1.Link{Rel: linkRelThumb, Href: m.CoverURL, TypeLink: "image/jpeg"},
		)
	}
	for _, a := range m.AuthorList() {
		e.Author = append(e.Author, opds1.Author{Name: a})
	}
	e.Content = opds1.Content{
		ContentType: "text",
		Content:     fmt.Sprintf("Status: %s. Genres: %s.", m.Status, m.Genres),
	}
	return e
}

func pageHref(basePath string, page int) string {
	if page <= 1 {
		return basePath
	}
	return basePath + "?page=" + strconv.Itoa(page)
}

// WriteFeed encodes feed as an Atom document.
func WriteFeed(w io.Writer, feed opds1.Feed) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	start := xml.StartElement{Name: xml.Name{Space: atomNamespace, Local: "feed"}}
	if err := enc.EncodeElement(feed, start); err != nil {
		return fmt.Errorf("encode opds feed: %w", err)
	}
	return enc.Flush()
}
