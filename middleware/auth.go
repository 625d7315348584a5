package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/technoworld-api/models"
	"github.com/junaidrashid-git/technoworld-api/services/account"
)

const (
	ClaimsKey = "claims"
	UserIDKey = "user_id"
)

// ValidateToken accepts "Authorization: Bearer <jwt>", a bare token in the
// header, or a token query parameter for websocket clients.
func ValidateToken(tokens *account.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimSpace(c.GetHeader("Authorization"))
		tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// RequireRole lets through callers whose token carries role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
			return
		}
		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "No access"})
			return
		}
		c.Next()
	}
}

// Claims returns the verified token claims, or nil outside ValidateToken.
func Claims(c *gin.Context) *account.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*account.Claims)
	return claims
}

func IsAdmin(c *gin.Context) bool {
	claims := Claims(c)
	return claims != nil && claims.Role == models.RoleAdmin
}
