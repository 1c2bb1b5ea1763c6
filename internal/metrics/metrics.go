// Package metrics exposes Prometheus collectors for the crawler and API.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	remoteRequestsTotal          *prometheus.CounterVec
	remoteRequestDurationSeconds *prometheus.HistogramVec
	crawlPagesTotal              *prometheus.CounterVec
	crawlMangaTotal              *prometheus.CounterVec
	crawlChaptersTotal           prometheus.Counter
	crawlPauseSeconds            prometheus.Histogram
	httpRequestsTotal            *prometheus.CounterVec
	httpRequestDurationSeconds   *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		remoteRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mangazek_remote_requests_total",
				Help: "Total number of MangaDex API requests, labeled by endpoint and status.",
			},
			[]string{"endpoint", "status"},
		)

		remoteRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mangazek_remote_request_duration_seconds",
				Help:    "Histogram of MangaDex API request latencies, labeled by endpoint.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"endpoint"},
		)

		crawlPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mangazek_crawl_pages_total",
				Help: "Total number of listing pages requested, labeled by status.",
			},
			[]string{"status"},
		)

		crawlMangaTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mangazek_crawl_manga_total",
				Help: "Total number of manga processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		crawlChaptersTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mangazek_crawl_chapters_saved_total",
				Help: "Total number of chapters handed to the store.",
			},
		)

		crawlPauseSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mangazek_crawl_pause_seconds",
				Help:    "Histogram of politeness pauses between remote requests.",
				Buckets: []float64{0.5, 1, 1.5, 2, 2.5, 3, 5},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRemoteRequest records one MangaDex call. status is the HTTP code or
// "error" when no response arrived.
func ObserveRemoteRequest(endpoint, status string, duration time.Duration) {
	Init()
	remoteRequestsTotal.WithLabelValues(endpoint, status).Inc()
	remoteRequestDurationSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func ObserveCrawlPage(status string) {
	Init()
	crawlPagesTotal.WithLabelValues(status).Inc()
}

// ObserveCrawlManga counts a manga as "saved", "skipped" or "failed".
func ObserveCrawlManga(outcome string) {
	Init()
	crawlMangaTotal.WithLabelValues(outcome).Inc()
}

func AddChaptersSaved(n int) {
	Init()
	if n > 0 {
		crawlChaptersTotal.Add(float64(n))
	}
}

func ObservePause(d time.Duration) {
	Init()
	crawlPauseSeconds.Observe(d.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// GinMiddleware records every request against its route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
