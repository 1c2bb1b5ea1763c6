package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangazek/internal/scraper"
	synchub "mangazek/internal/sync"
	"mangazek/pkg/database/databasetest"
	"mangazek/pkg/models"
	"mangazek/pkg/utils"
)

func TestRouterReadingFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("MANGAZEK_DATABASE_DSN", "unused.db")
	cfg, err := utils.Load("")
	require.NoError(t, err)

	db := databasetest.New(t)
	store := scraper.NewStore(db)
	require.NoError(t, store.SaveManga(context.Background(),
		models.Manga{ID: "m1", Title: "Solo Story", Genres: "Action"},
		[]models.Chapter{
			{ID: "c1", MangaID: "m1", Title: "Begin", Position: 0, Images: "https://img/1.png"},
			{ID: "c2", MangaID: "m1", Position: 1, Images: "https://img/2.png"},
		},
	))

	r := newRouter(cfg, db, synchub.NewHub(nil), nil)

	do := func(method, path, token string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/ready", "", nil).Code)

	w := do(http.MethodPost, "/auth/register", "", map[string]string{"email": "reader@example.com", "password": "long-enough"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))

	require.Equal(t, http.StatusOK, do(http.MethodPost, "/users/favorites/m1", reg.Token, nil).Code)

	w = do(http.MethodGet, "/manga/m1", reg.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_favorited":true`)

	require.Equal(t, http.StatusOK, do(http.MethodGet, "/read/m1/c1", reg.Token, nil).Code)
	require.Equal(t, http.StatusOK, do(http.MethodGet, "/read/m1/c2", reg.Token, nil).Code)

	w = do(http.MethodGet, "/users/profile", reg.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile struct {
		History   []models.HistoryEntry  `json:"reading_history"`
		Favorites []models.FavoriteManga `json:"favorites"`
		Level     models.UserLevel       `json:"level"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Len(t, profile.History, 2)
	assert.Len(t, profile.Favorites, 1)
	assert.Equal(t, 2, profile.Level.ChapterCount)

	w = do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	// logging out revokes the token
	require.Equal(t, http.StatusOK, do(http.MethodPost, "/auth/logout", reg.Token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/users/me", reg.Token, nil).Code)
}
