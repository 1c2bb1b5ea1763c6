package scraper

// Wire shapes of the MangaDex JSON API. Only the fields the crawler reads
// are declared.

type mangaListResponse struct {
	Result string     `json:"result"`
	Data   []RawManga `json:"data"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	Total  int        `json:"total"`
}

// RawManga is one entry of GET /manga as returned by the remote.
type RawManga struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Attributes    MangaAttributes `json:"attributes"`
	Relationships []Relationship  `json:"relationships"`
}

type MangaAttributes struct {
	Title     map[string]string `json:"title"`
	Status    string            `json:"status"`
	CreatedAt string            `json:"createdAt"`
	Tags      []Tag             `json:"tags"`
}

type Tag struct {
	ID         string        `json:"id"`
	Attributes TagAttributes `json:"attributes"`
}

type TagAttributes struct {
	Name map[string]string `json:"name"`
}

// Relationship attributes are only present for types requested through
// includes[].
type Relationship struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Attributes *RelationshipAttributes `json:"attributes,omitempty"`
}

type RelationshipAttributes struct {
	Name     string `json:"name"`     // author, artist
	FileName string `json:"fileName"` // cover_art
}

type chapterListResponse struct {
	Result string       `json:"result"`
	Data   []RawChapter `json:"data"`
}

type RawChapter struct {
	ID         string            `json:"id"`
	Attributes ChapterAttributes `json:"attributes"`
}

type ChapterAttributes struct {
	Title              *string `json:"title"`
	Chapter            *string `json:"chapter"`
	TranslatedLanguage string  `json:"translatedLanguage"`
	Pages              int     `json:"pages"`
}

type atHomeResponse struct {
	Result  string         `json:"result"`
	BaseURL *string        `json:"baseUrl"`
	Chapter *atHomeChapter `json:"chapter"`
}

type atHomeChapter struct {
	Hash *string   `json:"hash"`
	Data *[]string `json:"data"`
}
