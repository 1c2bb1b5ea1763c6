package manga

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangazek/internal/auth"
	"mangazek/pkg/database/databasetest"
	"mangazek/pkg/models"
)

type fakeFavorites map[string]bool

func (f fakeFavorites) IsFavorite(_ context.Context, userID, mangaID string) (bool, error) {
	return f[userID+"/"+mangaID], nil
}

type fakeReads struct {
	calls []string
}

func (f *fakeReads) RecordRead(_ context.Context, userID, mangaID, chapterID string) (models.UserLevel, error) {
	f.calls = append(f.calls, userID+"/"+mangaID+"/"+chapterID)
	n := len(f.calls)
	return models.UserLevel{UserID: userID, ChapterCount: n, Level: models.LevelFor(n)}, nil
}

var testTokens = auth.TokenService{Secret: []byte("test-secret"), Issuer: "mangazek-test", Duration: time.Hour}

func newRouter(t *testing.T, n int) (*gin.Engine, *fakeReads) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := databasetest.New(t)
	seed(t, db, n)
	reads := &fakeReads{}
	h := NewHandler(NewRepo(db), fakeFavorites{"u1/m-01": true}, reads, 0, nil)

	r := gin.New()
	h.RegisterRoutes(r, auth.OptionalAuthMiddleware(testTokens, nil))
	return r, reads
}

func get(t *testing.T, r http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func userToken(t *testing.T, id string) string {
	t.Helper()
	tok, _, err := testTokens.Sign(&auth.User{ID: id, Email: id + "@example.com"})
	require.NoError(t, err)
	return tok
}

func TestListHandler(t *testing.T) {
	r, _ := newRouter(t, 14)

	w := get(t, r, "/manga?page=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Items      []models.Manga `json:"items"`
		Page       int            `json:"page"`
		TotalPages int            `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Len(t, resp.Items, 2)

	w = get(t, r, "/manga?search=manga%2014", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "m-14", resp.Items[0].ID)
}

func TestFilterHandler(t *testing.T) {
	r, _ := newRouter(t, 4)

	w := get(t, r, "/filter/genre/Romance", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Items      []models.Manga `json:"items"`
		Total      int            `json:"total"`
		TotalPages int            `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)

	w = get(t, r, "/filter/publisher/x", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Items)
	assert.Equal(t, 1, resp.TotalPages)
}

func TestDetailHandler(t *testing.T) {
	r, _ := newRouter(t, 1)

	type detail struct {
		Manga       models.Manga `json:"manga"`
		Chapters    []ChapterRef `json:"chapters"`
		IsFavorited bool         `json:"is_favorited"`
	}

	w := get(t, r, "/manga/m-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	var anon detail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &anon))
	assert.False(t, anon.IsFavorited)
	assert.Equal(t, []ChapterRef{{ID: "m-01-c1", Label: "Chapter 1: Start"}, {ID: "m-01-c2", Label: "Chapter 2"}}, anon.Chapters)

	w = get(t, r, "/manga/m-01", userToken(t, "u1"))
	var mine detail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.True(t, mine.IsFavorited)

	w = get(t, r, "/manga/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadHandlerRecordsOnlyWhenAuthenticated(t *testing.T) {
	r, reads := newRouter(t, 1)

	w := get(t, r, "/read/m-01/m-01-c2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Reader Reader            `json:"reader"`
		Level  *models.UserLevel `json:"level"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "m-01-c1", resp.Reader.Prev)
	assert.Empty(t, resp.Reader.Next)
	assert.Equal(t, []string{"https://img/3.png"}, resp.Reader.Images)
	assert.Nil(t, resp.Level)
	assert.Empty(t, reads.calls)

	w = get(t, r, "/read/m-01/m-01-c1", userToken(t, "u7"))
	require.Equal(t, http.StatusOK, w.Code)
	resp.Level = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Level)
	assert.Equal(t, 1, resp.Level.ChapterCount)
	assert.Equal(t, []string{"u7/m-01/m-01-c1"}, reads.calls)

	w = get(t, r, "/read/m-01/unknown", userToken(t, "u7"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, reads.calls, 1)
}

func TestOPDSHandler(t *testing.T) {
	r, _ := newRouter(t, 3)

	w := get(t, r, "/opds", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "opds-catalog")
	assert.Contains(t, w.Body.String(), "urn:mangazek:manga:m-03")
}
