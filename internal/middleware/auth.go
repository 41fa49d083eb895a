package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/deviceauth"
)

const principalKey = "principal"

// Authorizer resolves a bearer credential to the admin and device behind it.
type Authorizer interface {
	Authorize(ctx context.Context, raw string) (deviceauth.Principal, error)
}

// AdminAuth rejects the request before any handler runs unless it carries a
// valid session bound to a still-active device.
func AdminAuth(gate Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		principal, err := gate.Authorize(c.Request.Context(), parts[1])
		switch {
		case err == nil:
		case errors.Is(err, deviceauth.ErrDeviceRevoked):
			log.Println("[AUTH] [ERROR] request from revoked device:", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "device revoked", "code": "DEVICE_REVOKED"})
			return
		case errors.Is(err, deviceauth.ErrSessionInvalid):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		default:
			log.Println("[AUTH] [ERROR] authorization failed:", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if principal.Legacy {
			c.Header("X-Session-Legacy", "true")
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// PrincipalFrom returns the caller stored by AdminAuth.
func PrincipalFrom(c *gin.Context) (deviceauth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return deviceauth.Principal{}, false
	}
	p, ok := v.(deviceauth.Principal)
	return p, ok
}
