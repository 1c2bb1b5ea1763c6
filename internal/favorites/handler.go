package favorites

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mangazek/internal/auth"
	"mangazek/internal/sync"
)

type Handler struct {
	Repo   *Repo
	Hub    *sync.Hub
	Logger *zap.Logger
}

func NewHandler(repo *Repo, hub *sync.Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Repo: repo, Hub: hub, Logger: logger.Named("favorites")}
}

// RegisterRoutes expects rg to sit behind auth.AuthMiddleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/favorites", h.list)
	rg.POST("/favorites/:manga_id", h.add)
	rg.DELETE("/favorites/:manga_id", h.remove)
}

func (h *Handler) add(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mangaID := strings.TrimSpace(c.Param("manga_id"))
	if mangaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "manga_id required"})
		return
	}

	added, err := h.Repo.Add(c.Request.Context(), claims.UserID, mangaID)
	if errors.Is(err, ErrMangaNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "manga not found"})
		return
	}
	if err != nil {
		h.Logger.Error("add favorite", zap.String("user_id", claims.UserID), zap.String("manga_id", mangaID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	if added && h.Hub != nil {
		h.Hub.Publish(sync.Event{
			Type:    sync.EventFavoriteAdded,
			UserID:  claims.UserID,
			MangaID: mangaID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"manga_id": mangaID, "is_favorited": true, "added": added})
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mangaID := strings.TrimSpace(c.Param("manga_id"))
	if mangaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "manga_id required"})
		return
	}

	ok, err := h.Repo.Remove(c.Request.Context(), claims.UserID, mangaID)
	if err != nil {
		h.Logger.Error("remove favorite", zap.String("user_id", claims.UserID), zap.String("manga_id", mangaID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if h.Hub != nil {
		h.Hub.Publish(sync.Event{
			Type:    sync.EventFavoriteRemoved,
			UserID:  claims.UserID,
			MangaID: mangaID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"manga_id": mangaID, "is_favorited": false})
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), claims.UserID)
	if err != nil {
		h.Logger.Error("list favorites", zap.String("user_id", claims.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}
