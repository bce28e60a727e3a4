// internal/handlers/auth/auth_handler.go
package auth

import (
	"context"
	"net/http"
	"time"

	"tiffin-promotions/internal/middleware"
	"tiffin-promotions/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenRevoker blacklists a token id until the token would have expired anyway.
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// AuthHandler serves the identity endpoints. Tokens are issued elsewhere, so
// only logout and introspection live here.
type AuthHandler struct {
	revoker TokenRevoker
	logger  *zap.Logger
}

// NewAuthHandler accepts a nil revoker when no Redis is configured; logout then
// reports 503.
func NewAuthHandler(revoker TokenRevoker, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{revoker: revoker, logger: logger}
}

// Logout revokes the presented access token (requires auth)
func (h *AuthHandler) Logout(c *gin.Context) {
	subject, _ := middleware.GetSubject(c)
	tokenID, ok := middleware.GetTokenID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if h.revoker == nil {
		response.Error(c, http.StatusServiceUnavailable, "token revocation is not configured", nil)
		return
	}

	expiresAt, ok := middleware.GetTokenExpiry(c)
	if !ok {
		expiresAt = time.Now().Add(24 * time.Hour)
	}

	if err := h.revoker.BlacklistToken(c.Request.Context(), tokenID, expiresAt); err != nil {
		h.logger.Error("logout failed",
			zap.String("subject", subject),
			zap.String("correlation_id", middleware.GetCorrelationID(c)),
			zap.Error(err),
		)
		response.InternalError(c, "logout failed")
		return
	}

	h.logger.Info("token revoked", zap.String("subject", subject))
	response.Success(c, http.StatusOK, "logout successful", nil)
}

// GetMe returns the caller's identity as read from the access token
func (h *AuthHandler) GetMe(c *gin.Context) {
	subject, _ := middleware.GetSubject(c)

	response.Success(c, http.StatusOK, "identity retrieved", gin.H{
		"subject":     subject,
		"email":       middleware.GetEmail(c),
		"roles":       middleware.GetRoles(c),
		"permissions": middleware.GetPermissions(c),
		"is_admin":    middleware.IsAdmin(c),
	})
}
