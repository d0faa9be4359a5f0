package server

import (
	"context"
	"net/http"
	"time"

	"activity-alerts-svc/src/internal/dependency"
	"activity-alerts-svc/src/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const healthCheckTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(
		middleware.RequestLogger(),
		middleware.CORS(deps.Config.Origins()),
		middleware.ErrorHandler(deps.Config.App.Debug),
	)

	setupHealthEndpoint(deps)
	setupPublicRoutes(router, deps)
	setupAdminRoutes(router, deps)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	cfg := deps.Config

	// Typed nil pointers must not reach the interface.
	var mongo, redis pinger
	if deps.Mongodb != nil {
		mongo = deps.Mongodb
	}
	if deps.Redis != nil {
		redis = deps.Redis
	}

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mongodb":   componentStatus(ctx, mongo),
			"redis":     componentStatus(ctx, redis),
			"queue":     queueStatus(deps),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func setupPublicRoutes(router *gin.Engine, deps *dependency.Manager) {
	router.GET("/api/v1/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"api_version": "v1",
			"status":      "operational",
			"service":     deps.Config.App.Name,
		})
	})

	router.POST("/event", setRouteName("createEvent"), deps.EventHandler.CreateEvent)
}

func setupAdminRoutes(router *gin.Engine, deps *dependency.Manager) {
	if deps.Config.Security.JwtKey == "" {
		logrus.Warn("security.jwt-key is empty, operator routes are disabled")
		return
	}

	authMiddleware := middleware.NewAuthMiddleware(deps.Config.Security.JwtKey)
	handler := deps.EventHandler

	// Apply route name FIRST, then auth middlewares
	users := router.Group("/users")
	{
		users.GET("/:id/events",
			setRouteName("listUserEvents"),
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdminRights(),
			handler.ListUserEvents)
	}
}

func setRouteName(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("route_name", name)
		c.Next()
	}
}

func componentStatus(ctx context.Context, p pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func queueStatus(deps *dependency.Manager) string {
	if deps.RabbitMQ == nil {
		return "disabled"
	}
	if deps.RabbitMQ.Conn.IsClosed() {
		return "disconnected"
	}
	return "connected"
}
