package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kstepanov/dmbridge-server/internal/auth"
	"github.com/kstepanov/dmbridge-server/internal/config"
	"github.com/kstepanov/dmbridge-server/internal/core"
	"github.com/kstepanov/dmbridge-server/internal/store"
)

// NewServer builds the HTTP server: REST API, static attachment serving
// and the WebSocket endpoint.
func NewServer(
	registry *core.Registry,
	presence *core.Presence,
	router *core.Router,
	authService *auth.Service,
	st store.Store,
	cfg config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, logger)
	userHandlers := NewUserHandlers(st, logger)
	messageHandlers := NewMessageHandlers(st, logger)

	engine.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	authLimiter := newRateLimiter(cfg.AuthRateLimit)

	api := engine.Group("/api")
	{
		api.POST("/register", RateLimitMiddleware(authLimiter), apiHandlers.Register)
		api.POST("/login", RateLimitMiddleware(authLimiter), apiHandlers.Login)
		api.POST("/logout", apiHandlers.Logout)

		authed := api.Group("")
		authed.Use(AuthMiddleware(authService, logger))
		{
			authed.GET("/profile", apiHandlers.Profile)
			authed.GET("/people", userHandlers.ListPeople)
			authed.GET("/messages/:userId", messageHandlers.Conversation)
		}
	}

	// Attachments are written by the core and served back as static files.
	engine.Static("/files", cfg.AttachmentDir)

	wsHandler := NewWSHandler(registry, presence, router, authService, logger)
	engine.GET("/ws", gin.WrapH(wsHandler))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
