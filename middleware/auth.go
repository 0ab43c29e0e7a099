package middleware

import (
	"net/http"
	"strings"

	"storefront/store"
	"storefront/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-ID"
	IdentityKey   = "identity"
)

// bearerClaims returns the claims of the bearer token, or a message saying
// what is wrong with the Authorization header.
func bearerClaims(c *gin.Context) (*utils.Claims, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, "Authorization header required"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "Invalid authorization header format"
	}

	claims, err := utils.ValidateToken(parts[1])
	if err != nil {
		return nil, "Invalid or expired token"
	}
	return claims, ""
}

func setClaims(c *gin.Context, claims *utils.Claims, sessionID string) {
	c.Set("user_id", claims.UserID)
	c.Set("user_email", claims.Email)
	c.Set("user_role", claims.Role)
	c.Set(IdentityKey, store.Identity{
		UserID:    claims.UserID,
		SessionID: sessionID,
		Email:     claims.Email,
		Role:      claims.Role,
	})
}

// AuthMiddleware requires a valid bearer token.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, msg := bearerClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": msg})
			c.Abort()
			return
		}

		setClaims(c, claims, c.GetHeader(SessionHeader))
		c.Next()
	}
}

// IdentityMiddleware resolves who the request acts for without requiring
// anyone. A bad bearer token is treated as absent so a guest with a stale
// token keeps their cart. A session header that is not a UUID is ignored.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(SessionHeader))
		if _, err := uuid.Parse(sessionID); err != nil {
			sessionID = ""
		}

		if claims, _ := bearerClaims(c); claims != nil {
			setClaims(c, claims, sessionID)
		} else {
			c.Set(IdentityKey, store.Identity{SessionID: sessionID})
		}
		c.Next()
	}
}

// GetIdentity returns the identity set by IdentityMiddleware or
// AuthMiddleware, or the zero Identity if neither ran.
func GetIdentity(c *gin.Context) store.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(store.Identity); ok {
			return id
		}
	}
	return store.Identity{}
}

func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists || role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
