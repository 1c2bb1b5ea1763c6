package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	if remoteRequestsTotal == nil || crawlMangaTotal == nil || httpRequestsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestCrawlCounters(t *testing.T) {
	ObserveCrawlManga("saved")
	ObserveCrawlManga("saved")
	ObserveCrawlManga("skipped")
	ObserveCrawlPage("failed")
	AddChaptersSaved(3)
	AddChaptersSaved(0)

	assert.Equal(t, float64(2), testutil.ToFloat64(crawlMangaTotal.WithLabelValues("saved")))
	assert.Equal(t, float64(1), testutil.ToFloat64(crawlMangaTotal.WithLabelValues("skipped")))
	assert.Equal(t, float64(1), testutil.ToFloat64(crawlPagesTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(3), testutil.ToFloat64(crawlChaptersTotal))
}

func TestObserveRemoteRequest(t *testing.T) {
	ObserveRemoteRequest("manga.list", "200", 120*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(remoteRequestsTotal.WithLabelValues("manga.list", "200")))
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/manga/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/manga/abc", nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `http_request_duration_seconds_count{method="GET",route="/manga/:id"} 1`))
}
