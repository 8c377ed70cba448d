package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ovrsee/spyglass/internal/adapters/ws"
	"github.com/ovrsee/spyglass/internal/app"
	"github.com/ovrsee/spyglass/internal/config"
)

// ClientTokenMiddleware mints the opaque per-connection identity. Real
// token verification sits in front of this service; the cookie only has
// to be stable across the websocket upgrade request.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// IngestAuthMiddleware guards the collaborator-facing ingest routes with
// a shared secret.
func IngestAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" || c.GetHeader("X-Ingest-Key") != secret {
			c.AbortWithStatusJSON(401, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, dispatcher *app.Dispatcher) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("SpyglassSessions", store))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "adapters.http").Msg("router setup")

	relay := ws.NewController(dispatcher, cfg)

	api := r.Group("/api")
	api.GET("/ws/relay", func(c *gin.Context) {
		relay.HandleRelay(ctx, c)
	})
	api.GET("/devices", listDevices(dispatcher))

	ingest := r.Group("/internal", IngestAuthMiddleware(cfg.IngestSecret))
	ingest.POST("/events/location", postLocation(dispatcher))

	return r
}
