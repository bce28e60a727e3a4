// internal/middleware/helpers.go
package middleware

import (
	"slices"
	"time"

	"github.com/gin-gonic/gin"
)

// GetSubject returns the authenticated user's id (the token subject).
func GetSubject(c *gin.Context) (string, bool) {
	s := c.GetString(ctxSubject)
	return s, s != ""
}

// GetTokenID returns the id used to revoke the current token.
func GetTokenID(c *gin.Context) (string, bool) {
	id := c.GetString(ctxTokenID)
	return id, id != ""
}

// GetTokenExpiry returns when the current token expires.
func GetTokenExpiry(c *gin.Context) (time.Time, bool) {
	v, exists := c.Get(ctxTokenExpiresAt)
	if !exists {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// GetRoles gets user roles from context
func GetRoles(c *gin.Context) []string {
	roles := c.GetStringSlice(ctxRoles)
	if roles == nil {
		return []string{}
	}
	return roles
}

// GetPermissions gets user permissions from context
func GetPermissions(c *gin.Context) []string {
	permissions := c.GetStringSlice(ctxPermissions)
	if permissions == nil {
		return []string{}
	}
	return permissions
}

func HasRole(c *gin.Context, role string) bool {
	return slices.Contains(GetRoles(c), role)
}

func HasPermission(c *gin.Context, permission string) bool {
	return slices.Contains(GetPermissions(c), permission)
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, ok := GetSubject(c)
	return ok
}

// IsAdmin checks if user is an admin
func IsAdmin(c *gin.Context) bool {
	return HasRole(c, "admin") || HasRole(c, "super_admin")
}

// GetEmail returns the email claim, empty when the token carries none.
func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}
