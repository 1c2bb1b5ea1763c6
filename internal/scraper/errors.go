package scraper

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrStoreFatal marks storage failures. They stop the whole crawl run.
	ErrStoreFatal = errors.New("store failure")
	// ErrMalformedManifest is returned when an at-home response lacks
	// baseUrl, chapter.hash or chapter.data.
	ErrMalformedManifest = errors.New("mangadex: malformed page manifest")
)

// StatusError is a non-2xx response from the remote.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mangadex: %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Retryable reports whether repeating the request may succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
