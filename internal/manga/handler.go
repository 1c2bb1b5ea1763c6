package manga

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mangazek/internal/auth"
	"mangazek/pkg/models"
)

// FavoriteChecker reports whether a user has favorited a manga.
type FavoriteChecker interface {
	IsFavorite(ctx context.Context, userID, mangaID string) (bool, error)
}

// ReadRecorder stores one chapter read and returns the user's new level.
type ReadRecorder interface {
	RecordRead(ctx context.Context, userID, mangaID, chapterID string) (models.UserLevel, error)
}

type Handler struct {
	Repo      *Repo
	Favorites FavoriteChecker
	Reads     ReadRecorder
	PerPage   int
	Logger    *zap.Logger
}

func NewHandler(repo *Repo, favorites FavoriteChecker, reads ReadRecorder, perPage int, logger *zap.Logger) *Handler {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Repo:      repo,
		Favorites: favorites,
		Reads:     reads,
		PerPage:   perPage,
		Logger:    logger.Named("manga"),
	}
}

// RegisterRoutes mounts the catalog on r. mw runs before every route and is
// expected to be auth.OptionalAuthMiddleware.
func (h *Handler) RegisterRoutes(r gin.IRoutes, mw ...gin.HandlerFunc) {
	with := func(hf gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, mw...), hf)
	}
	r.GET("/manga", with(h.list)...)
	r.GET("/manga/:id", with(h.getByID)...)
	r.GET("/filter/:type/:value", with(h.filter)...)
	r.GET("/read/:manga_id/:chapter_id", with(h.read)...)
	r.GET("/opds", with(h.opds)...)
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Search:  c.Query("search"),
		Page:    parseInt(c.Query("page"), 1),
		PerPage: h.PerPage,
	}

	page, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		h.Logger.Error("list manga", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"search":      q.Search,
		"items":       page.Items,
		"page":        page.Page,
		"per_page":    page.PerPage,
		"total":       page.Total,
		"total_pages": page.TotalPages,
	})
}

func (h *Handler) filter(c *gin.Context) {
	typ := c.Param("type")
	value := c.Param("value")
	q := ListQuery{
		Page:    parseInt(c.Query("page"), 1),
		PerPage: h.PerPage,
	}

	switch typ {
	case "genre":
		q.Genre = value
	case "author":
		q.Author = value
	default:
		c.JSON(http.StatusOK, gin.H{
			"filter_type":  typ,
			"filter_value": value,
			"items":        []models.Manga{},
			"page":         1,
			"per_page":     h.PerPage,
			"total":        0,
			"total_pages":  1,
		})
		return
	}

	page, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		h.Logger.Error("filter manga", zap.String("type", typ), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filter_type":  typ,
		"filter_value": value,
		"items":        page.Items,
		"page":         page.Page,
		"per_page":     page.PerPage,
		"total":        page.Total,
		"total_pages":  page.TotalPages,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	m, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		h.Logger.Error("get manga", zap.String("manga_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "manga not found"})
		return
	}

	chapters, err := h.Repo.Chapters(ctx, id)
	if err != nil {
		h.Logger.Error("list chapters", zap.String("manga_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chapters failed"})
		return
	}

	favorited := false
	if claims := auth.MustGetClaims(c); claims != nil && h.Favorites != nil {
		favorited, err = h.Favorites.IsFavorite(ctx, claims.UserID, id)
		if err != nil {
			// the page still renders without the flag
			h.Logger.Warn("favorite lookup", zap.String("manga_id", id), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"manga":        m,
		"genres":       m.GenreList(),
		"authors":      m.AuthorList(),
		"chapters":     ChapterRefs(chapters),
		"is_favorited": favorited,
	})
}

func (h *Handler) read(c *gin.Context) {
	ctx := c.Request.Context()
	mangaID := c.Param("manga_id")
	chapterID := c.Param("chapter_id")

	chapters, err := h.Repo.Chapters(ctx, mangaID)
	if err != nil {
		h.Logger.Error("list chapters", zap.String("manga_id", mangaID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chapters failed"})
		return
	}

	reader, ok := BuildReader(mangaID, chapterID, chapters)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chapter not found"})
		return
	}

	resp := gin.H{"reader": reader}
	if claims := auth.MustGetClaims(c); claims != nil && h.Reads != nil {
		level, err := h.Reads.RecordRead(ctx, claims.UserID, mangaID, chapterID)
		if err != nil {
			h.Logger.Error("record read",
				zap.String("user_id", claims.UserID),
				zap.String("chapter_id", chapterID),
				zap.Error(err),
			)
		} else {
			resp["level"] = level
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) opds(c *gin.Context) {
	page, err := h.Repo.List(c.Request.Context(), ListQuery{
		Page:    parseInt(c.Query("page"), 1),
		PerPage: h.PerPage,
	})
	if err != nil {
		h.Logger.Error("opds list", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.Header("Content-Type", linkTypeCatalog+";kind=navigation")
	c.Status(http.StatusOK)
	if err := WriteFeed(c.Writer, BuildFeed("/opds", page)); err != nil {
		h.Logger.Warn("write opds feed", zap.Error(err))
	}
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
