// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"tiffin-promotions/internal/pkg/jwt"
	"tiffin-promotions/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxSubject        = "subject"
	ctxTokenID        = "token_id"
	ctxTokenExpiresAt = "token_expires_at"
	ctxRoles          = "roles"
	ctxPermissions    = "permissions"
	ctxEmail          = "email"
)

type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

// TokenBlacklist reports tokens revoked through logout.
type TokenBlacklist interface {
	IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

type AuthMiddleware struct {
	verifier  TokenVerifier
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthMiddleware builds the middleware. blacklist may be nil when Redis is not
// configured, in which case revocation is not checked.
func NewAuthMiddleware(verifier TokenVerifier, blacklist TokenBlacklist, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:  verifier,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Auth is the base authentication middleware that validates JWT tokens
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		if m.blacklist != nil {
			revoked, err := m.blacklist.IsTokenBlacklisted(c.Request.Context(), claims.TokenID())
			if err != nil {
				m.logger.Error("failed to check token blacklist", zap.Error(err))
				response.InternalError(c, "failed to validate token")
				return
			}
			if revoked {
				response.Error(c, http.StatusUnauthorized, "token has been revoked", nil)
				return
			}
		}

		c.Set(ctxSubject, claims.Subject)
		c.Set(ctxTokenID, claims.TokenID())
		if claims.ExpiresAt != nil {
			c.Set(ctxTokenExpiresAt, claims.ExpiresAt.Time)
		}
		c.Set(ctxRoles, claims.Roles)
		c.Set(ctxPermissions, claims.Permissions)
		c.Set(ctxEmail, claims.Email)

		c.Next()
	}
}

// RequireRole middleware that requires user to have at least one of the specified roles
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			response.Error(c, http.StatusForbidden, "no roles found - authentication required", nil)
			return
		}

		userRoles := GetRoles(c)
		for _, required := range roles {
			if HasRole(c, required) {
				c.Next()
				return
			}
		}

		err := errors.New("user does not have required role")
		response.Error(c, http.StatusForbidden, "insufficient permissions", err, map[string]any{
			"required_roles": roles,
			"user_roles":     userRoles,
		})
	}
}

// RequirePermission middleware that requires user to have at least one of the specified permissions
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequirePermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			response.Error(c, http.StatusForbidden, "no permissions found - authentication required", nil)
			return
		}

		for _, required := range permissions {
			if HasPermission(c, required) {
				c.Next()
				return
			}
		}

		err := errors.New("user does not have required permission")
		response.Error(c, http.StatusForbidden, "insufficient permissions", err, map[string]any{
			"required_permissions": permissions,
			"user_permissions":     GetPermissions(c),
		})
	}
}

// AdminOnly returns middlewares for admin-only routes (Auth + RequireRole)
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole("admin", "super_admin"),
	}
}

// WithPermission returns middlewares for permission-based routes (Auth + RequirePermission)
func (m *AuthMiddleware) WithPermission(permissions ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequirePermission(permissions...),
	}
}

// extractToken extracts Bearer token from Authorization header. Browsers cannot
// set headers on websocket upgrades, so the token query parameter is accepted too.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return c.Query("token")
}
