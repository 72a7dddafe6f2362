package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/johnquangdev/meeting-sync/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-sync/pkg/config"
	"github.com/johnquangdev/meeting-sync/pkg/jwt"
	"github.com/johnquangdev/meeting-sync/pkg/middleware"
)

// Router holds all handlers
type Router struct {
	cfg           *config.Config
	jwtManager    *jwt.Manager
	transcription *Transcription
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, jwtManager *jwt.Manager, transcription *Transcription) *Router {
	return &Router{
		cfg:           cfg,
		jwtManager:    jwtManager,
		transcription: transcription,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	v1 := e.Group("/api/v1")

	rt.setupWebhookRoutes(v1)
	rt.setupRecordRoutes(v1)
}

// setupWebhookRoutes configures provider webhook routes. They authenticate
// with provider secrets instead of a JWT.
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	hooks := g.Group("/transcriptions/webhooks", middleware.RequireWebhookAuth(map[string]string{
		middleware.ProviderFireflies: rt.cfg.Webhooks.FirefliesSecret,
		middleware.ProviderReadAI:    rt.cfg.Webhooks.ReadAISecret,
	}))
	hooks.POST("/:provider", rt.transcription.ReceiveWebhook)
	hooks.POST("/:provider/:user_id", rt.transcription.ReceiveWebhook)
}

// setupRecordRoutes configures the JWT protected records API
func (rt *Router) setupRecordRoutes(g *echo.Group) {
	protected := g.Group("", authmw.EchoAuth(rt.jwtManager), authmw.RequireRole(jwt.RoleAdmin))

	records := protected.Group("/transcriptions")
	records.GET("/received", rt.transcription.ListReceived)
	records.GET("/received/by-meeting/:meeting_id", rt.transcription.GetReceivedByMeeting)
	records.GET("/received/:id", rt.transcription.GetReceived)
	records.POST("/backfill/:meeting_id", rt.transcription.Backfill)

	protected.GET("/action-item-creations", rt.transcription.ListCreations)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
