package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const principalKey = "principal"

// Principal is the authenticated caller as asserted by the API gateway.
// Authentication itself happens upstream; this service trusts the
// X-User-ID and X-User-Roles headers the gateway injects.
type Principal struct {
	ID    uuid.UUID
	Roles []string
}

// HasRole reports whether the principal carries the given role
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Authenticated requires a valid X-User-ID header and stores the
// resulting principal on the request context.
func Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader("X-User-ID"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid X-User-ID header"})
			return
		}

		var roles []string
		if raw := c.GetHeader("X-User-Roles"); raw != "" {
			for _, role := range strings.Split(raw, ",") {
				if role = strings.TrimSpace(role); role != "" {
					roles = append(roles, role)
				}
			}
		}

		c.Set(principalKey, Principal{ID: id, Roles: roles})
		c.Next()
	}
}

// RequireRole rejects principals without the given role. Must run after
// Authenticated.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok || !p.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the principal stored by Authenticated
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
