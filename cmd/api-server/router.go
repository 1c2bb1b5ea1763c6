package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"mangazek/internal/auth"
	"mangazek/internal/favorites"
	"mangazek/internal/history"
	"mangazek/internal/logging"
	"mangazek/internal/manga"
	"mangazek/internal/metrics"
	synchub "mangazek/internal/sync"
	"mangazek/pkg/utils"
)

// newRouter mounts every HTTP route of the API server.
func newRouter(cfg utils.Config, db *sqlx.DB, hub *synchub.Hub, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), logging.GinLogger(logger), metrics.GinMiddleware())
	_ = router.SetTrustedProxies(cfg.Server.TrustedProxies)

	router.GET("/ws", synchub.WSHandler(hub))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "driver": cfg.Database.Driver})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	// Auth
	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.TTL(),
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc, logger)
	authHandler.RegisterRoutes(router.Group("/auth"))

	favRepo := favorites.NewRepo(db)
	historyRepo := history.NewRepo(db)

	// Catalog (public, personalised when a token is sent)
	mangaHandler := manga.NewHandler(
		manga.NewRepo(db),
		favRepo,
		history.NewRecorder(historyRepo, hub),
		cfg.Server.PerPage,
		logger,
	)
	mangaHandler.RegisterRoutes(router, auth.OptionalAuthMiddleware(tokenSvc, authRepo))

	// Protected routes
	protected := router.Group("/users")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))
	protected.GET("/me", authHandler.Me)

	favorites.NewHandler(favRepo, hub, logger).RegisterRoutes(protected)
	history.NewHandler(historyRepo, favRepo, logger).RegisterRoutes(protected)

	return router
}
