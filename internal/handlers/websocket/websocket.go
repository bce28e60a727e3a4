// internal/handlers/websocket/websocket.go
package handlers

import (
	"net/http"
	"slices"
	"time"

	"tiffin-promotions/internal/middleware"
	"tiffin-promotions/internal/pkg/response"
	ws "tiffin-promotions/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler accepts upgrades from allowedOrigins; an empty list or "*"
// accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	allowAll := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")

	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// HandleConnection upgrades an authenticated request and starts the client pumps.
// MUST be used after the Auth() middleware.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	subject, ok := middleware.GetSubject(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	tokenID, _ := middleware.GetTokenID(c)

	auth := ws.ClientAuth{
		Subject:     subject,
		TokenID:     tokenID,
		Email:       middleware.GetEmail(c),
		Roles:       middleware.GetRoles(c),
		Permissions: middleware.GetPermissions(c),
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, auth)
	h.hub.Register(client)

	h.logger.Info("websocket client connected",
		zap.String("subject", auth.Subject),
		zap.Strings("roles", auth.Roles),
		zap.String("correlation_id", middleware.GetCorrelationID(c)),
	)

	go client.WritePump()
	go client.ReadPump()
}

// GetStats returns websocket connection statistics (admin only)
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	response.Success(c, http.StatusOK, "websocket stats", map[string]any{
		"total_connections": h.hub.TotalClients(),
		"timestamp":         time.Now().UTC(),
	})
}
