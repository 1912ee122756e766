package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shopsphere/accounts/internal/domain/entity"
	"github.com/shopsphere/accounts/pkg/helpers"
	"github.com/shopsphere/accounts/pkg/response"
)

// sessionToken pulls the token from the Authorization header or, for browser
// clients, the session cookie.
func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
	}
	if cookie, err := c.Cookie("session_token"); err == nil {
		return cookie
	}
	return ""
}

// Auth validates the session token and sets userID, userEmail, and userRole
// in the Gin context on success.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			resp := response.Error[any](c, http.StatusUnauthorized, "missing session token", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		claims, err := jwt.ParseSessionToken(token)
		if err != nil {
			resp := response.Error[any](c, http.StatusUnauthorized, "invalid session token", err.Error())
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		if !claims.IsActive {
			resp := response.Error[any](c, http.StatusUnauthorized, "account is inactive", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("userEmail", claims.Email)
		c.Set("userRole", string(claims.Role))
		c.Next()
	}
}

// RequireAdmin gates a route group on the admin role claim. Handlers still
// re-check the role against the store before privileged mutations.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userRole") != string(entity.RoleAdmin) {
			resp := response.Error[any](c, http.StatusUnauthorized, "administrator role required", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		c.Next()
	}
}
