package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/social-jukebox/pkg/jwt"
)

// AuthMiddleware resolves the session token from the cookie, Authorization
// header, or the token query param (websocket clients cannot set headers)
// and stores the user identity in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("auth_token")
		if token == "" {
			if header := c.GetHeader("Authorization"); len(header) > 7 && header[:7] == "Bearer " {
				token = header[7:]
			}
		}
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no session token"})
			return
		}

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("display_name", claims.DisplayName)
		c.Next()
	}
}
