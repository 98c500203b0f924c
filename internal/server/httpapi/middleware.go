package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openfield/expensesync/internal/server/auth"
)

const (
	ctxUserID  = "userID"
	ctxIsAdmin = "isAdmin"
)

// authMiddleware verifies the Bearer token and stores the identity in the
// request context. Missing or invalid credentials abort with 401.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "), []byte(s.cfg.SecretKey))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

func userIDFromContext(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func isAdminFromContext(c *gin.Context) bool {
	return c.GetBool(ctxIsAdmin)
}
