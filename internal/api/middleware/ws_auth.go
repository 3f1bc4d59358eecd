package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// WSAuth authenticates the websocket upgrade request via a token query
// parameter, since browsers cannot set headers on websocket handshakes. The
// verified identity is attached to the connection before any join event is
// processed.
func (am *AuthMiddleware) WSAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
			return
		}
		tokenString = strings.Replace(tokenString, "Bearer ", "", 1)

		userID, email, err := parseToken(tokenString, am.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set("user_id", userID)
		c.Set("email", email)
		c.Next()
	}
}
