package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context key under which the authenticated master's id is stored.
const ctxMasterID = "master_id"

// RequireMaster validates the Bearer token and loads the master id from its
// claims. Token issuing is handled by the auth service; this middleware only
// verifies.
func RequireMaster(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token is required"})
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token"})
			return
		}
		masterID, ok := claims["master_id"].(float64)
		if !ok || masterID <= 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied. Master role required"})
			return
		}

		c.Set(ctxMasterID, int(masterID))
		c.Next()
	}
}
