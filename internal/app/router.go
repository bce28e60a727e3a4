// internal/app/router.go
package app

import (
	"net/http"

	authHandler "tiffin-promotions/internal/handlers/auth"
	promotionHandler "tiffin-promotions/internal/handlers/promotion"
	wsHandler "tiffin-promotions/internal/handlers/websocket"
	"tiffin-promotions/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	PromotionHandler *promotionHandler.PromotionHandler
	AuthHandler      *authHandler.AuthHandler
	WSHandler        *wsHandler.WebSocketHandler
	AuthMiddleware   *middleware.AuthMiddleware

	// Optional; runs after authentication so limits apply per subject.
	RateLimit gin.HandlerFunc
}

// authenticated returns the Auth chain followed by the rate limiter, if any.
func (h *Handlers) authenticated(chain []gin.HandlerFunc) []gin.HandlerFunc {
	if h.RateLimit != nil {
		chain = append(chain, h.RateLimit)
	}
	return chain
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	// Browsers cannot set headers on upgrade, so the token may come as ?token=.
	api.GET("/ws", append(h.authenticated([]gin.HandlerFunc{h.AuthMiddleware.Auth()}), h.WSHandler.HandleConnection)...)
	api.GET("/ws/stats", append(h.authenticated(h.AuthMiddleware.AdminOnly()), h.WSHandler.GetStats)...)

	// ==================== Authenticated Auth Routes ====================
	auth := api.Group("/auth")
	auth.Use(h.authenticated([]gin.HandlerFunc{h.AuthMiddleware.Auth()})...)
	{
		auth.POST("/logout", h.AuthHandler.Logout)
		auth.GET("/me", h.AuthHandler.GetMe)
	}

	// ==================== Promotions (admin) ====================
	promotions := api.Group("/promotions")
	promotions.Use(h.authenticated(h.AuthMiddleware.AdminOnly())...)
	{
		promotions.GET("", h.PromotionHandler.SearchPromotions)
		promotions.GET("/stats", h.PromotionHandler.GetPromotionStats)
		promotions.GET("/:id", h.PromotionHandler.GetPromotion)
		promotions.POST("", h.PromotionHandler.CreatePromotion)
		promotions.PUT("/:id", h.PromotionHandler.UpdatePromotion)
		promotions.PATCH("/:id", h.PromotionHandler.UpdatePromotion)
		promotions.PATCH("/:id/status", h.PromotionHandler.UpdatePromotionStatus)
		promotions.DELETE("/:id", h.PromotionHandler.DeletePromotion)
	}
}
