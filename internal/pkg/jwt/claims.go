// internal/pkg/jwt/claims.go
package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access token issued by the dashboard's Auth0 tenant. Roles come
// from a custom claim; permissions are emitted by Auth0 RBAC.
type Claims struct {
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Email       string   `json:"email,omitempty"`
	Scope       string   `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// HasRole checks if the claims contain a specific role
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission checks if the claims contain a specific permission
func (c *Claims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// IsAdmin checks if user is an admin (including super admin)
func (c *Claims) IsAdmin() bool {
	return c.HasRole("admin") || c.HasRole("super_admin")
}

// TokenID identifies the token for revocation. Auth0 access tokens do not always
// carry a jti, so subject and issue time stand in for it.
func (c *Claims) TokenID() string {
	if c.ID != "" {
		return c.ID
	}
	var iat int64
	if c.IssuedAt != nil {
		iat = c.IssuedAt.Unix()
	}
	return fmt.Sprintf("%s:%d", c.Subject, iat)
}
