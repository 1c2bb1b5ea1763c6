package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"mangazek/internal/metrics"
	"mangazek/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public MangaDex API.
	DefaultBaseURL = "https://api.mangadex.org"

	maxBodyBytes = 8 << 20
	maxErrorBody = 512
)

type ClientConfig struct {
	BaseURL   string
	Language  string
	UserAgent string
	Retry     RetryConfig
}

// Client is a typed accessor for the three MangaDex endpoints the crawler
// needs. Every successful call is followed by exactly one pause.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	pauser ratelimit.Pauser
	logger *zap.Logger
}

func NewClient(cfg ClientConfig, httpClient *http.Client, pauser ratelimit.Pauser, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if pauser == nil {
		pauser = ratelimit.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, http: httpClient, pauser: pauser, logger: logger.Named("mangadex")}
}

// ListManga returns one page of manga, newest first, that have chapters in
// the configured language.
func (c *Client) ListManga(ctx context.Context, limit, offset int) ([]RawManga, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	q.Add("availableTranslatedLanguage[]", c.cfg.Language)
	q.Set("order[createdAt]", "desc")

	// include author, artist and cover data in relationships
	q.Add("includes[]", "author")
	q.Add("includes[]", "artist")
	q.Add("includes[]", "cover_art")

	var resp mangaListResponse
	if err := c.getJSON(ctx, "manga.list", "/manga", q, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []RawManga{}, nil
	}
	return resp.Data, nil
}

// ListChapters returns up to limit chapters of a manga in ascending chapter
// order.
func (c *Client) ListChapters(ctx context.Context, mangaID string, limit int) ([]RawChapter, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Add("translatedLanguage[]", c.cfg.Language)
	q.Set("order[chapter]", "asc")

	var resp chapterListResponse
	if err := c.getJSON(ctx, "manga.feed", "/manga/"+url.PathEscape(mangaID)+"/feed", q, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []RawChapter{}, nil
	}
	return resp.Data, nil
}

// ResolvePages returns the full page image URLs of a chapter, in order.
func (c *Client) ResolvePages(ctx context.Context, chapterID string) ([]string, error) {
	var resp atHomeResponse
	if err := c.getJSON(ctx, "at-home", "/at-home/server/"+url.PathEscape(chapterID), nil, &resp); err != nil {
		return nil, err
	}

	switch {
	case resp.BaseURL == nil || *resp.BaseURL == "":
		return nil, fmt.Errorf("%w: chapter %s: missing baseUrl", ErrMalformedManifest, chapterID)
	case resp.Chapter == nil:
		return nil, fmt.Errorf("%w: chapter %s: missing chapter", ErrMalformedManifest, chapterID)
	case resp.Chapter.Hash == nil || *resp.Chapter.Hash == "":
		return nil, fmt.Errorf("%w: chapter %s: missing chapter.hash", ErrMalformedManifest, chapterID)
	case resp.Chapter.Data == nil:
		return nil, fmt.Errorf("%w: chapter %s: missing chapter.data", ErrMalformedManifest, chapterID)
	}

	return BuildPageURLs(*resp.BaseURL, *resp.Chapter.Hash, *resp.Chapter.Data), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	u, err := url.Parse(c.cfg.BaseURL + path)
	if err != nil {
		return fmt.Errorf("mangadex: parse url: %w", err)
	}
	if q != nil {
		u.RawQuery = q.Encode()
	}
	target := u.String()

	op := func() error {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("mangadex: build request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		if c.cfg.UserAgent != "" {
			req.Header.Set("User-Agent", c.cfg.UserAgent)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			metrics.ObserveRemoteRequest(endpoint, "error", time.Since(start))
			return fmt.Errorf("mangadex: %s: request: %w", endpoint, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		metrics.ObserveRemoteRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
		if err != nil {
			return fmt.Errorf("mangadex: %s: read body: %w", endpoint, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			serr := &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
			if !serr.Retryable() {
				return backoff.Permanent(serr)
			}
			return serr
		}

		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("mangadex: %s: decode: %w", endpoint, err))
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying remote call",
			zap.String("endpoint", endpoint),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := c.cfg.Retry.Do(ctx, op, notify); err != nil {
		return err
	}

	c.logger.Debug("remote call ok", zap.String("endpoint", endpoint), zap.String("url", target))
	c.pauser.Pause(ctx)
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
