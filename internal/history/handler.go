package history

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

const profileRecent = 10

// FavoriteLister lists a user's favorites for the profile page.
type FavoriteLister interface {
	List(ctx context.Context, userID string) ([]models.FavoriteManga, error)
}

type Handler struct {
	Repo      *Repo
	Favorites FavoriteLister
	Logger    *zap.Logger
}

func NewHandler(repo *Repo, favorites FavoriteLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Repo: repo, Favorites: favorites, Logger: logger.Named("history")}
}

// RegisterRoutes expects rg to sit behind auth.AuthMiddleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/history", h.list)
	rg.GET("/profile", h.profile)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := parseInt(c.Query("limit"), 50)
	items, err := h.Repo.Recent(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		h.Logger.Error("list history", zap.String("user_id", claims.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) profile(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx := c.Request.Context()

	recent, err := h.Repo.Recent(ctx, claims.UserID, profileRecent)
	if err != nil {
		h.Logger.Error("profile history", zap.String("user_id", claims.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile failed"})
		return
	}

	favs := []models.FavoriteManga{}
	if h.Favorites != nil {
		if favs, err = h.Favorites.List(ctx, claims.UserID); err != nil {
			h.Logger.Error("profile favorites", zap.String("user_id", claims.UserID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "profile failed"})
			return
		}
	}

	lvl, err := h.Repo.Level(ctx, claims.UserID)
	if err != nil {
		h.Logger.Error("profile level", zap.String("user_id", claims.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
			"email":    claims.Email,
		},
		"reading_history": recent,
		"favorites":       favs,
		"level":           lvl,
	})
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
