package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/satriahrh/voxcal/internal/auth"
	"github.com/satriahrh/voxcal/internal/websocket"
)

// InitRoutes initializes all routes. A nil issuer leaves /ws/voice unauthenticated.
func InitRoutes(e *echo.Echo, hub *websocket.Hub, issuer *auth.TokenIssuer, gatherer prometheus.Gatherer, logger *zap.Logger) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, StatusResponse{Message: "Voice Assistant is running"})
	})

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:            "healthy",
			ActiveConnections: hub.ActiveConnections(),
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	e.GET("/ws/voice", func(c echo.Context) error {
		if issuer == nil {
			return websocket.HandleWebSocket(hub, c)
		}
		return websocketWithAuth(hub, issuer, c, logger)
	})
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(hub *websocket.Hub, issuer *auth.TokenIssuer, c echo.Context, logger *zap.Logger) error {
	// Browsers cannot set headers on websocket requests, so a query parameter is accepted too
	token := c.QueryParam("token")
	if authHeader := c.Request().Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}

	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header or token query parameter",
		})
	}

	claims, err := issuer.ValidateToken(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	logger.Info("WebSocket connection authenticated", zap.String("clientID", claims.ClientID))

	return websocket.HandleWebSocket(hub, c)
}
