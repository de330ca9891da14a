package handler

import (
	"net/http"
	"strings"

	"github.com/degenduel/backend/internal/model"
	"github.com/degenduel/backend/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	authUserKey    = "auth_user"
	deviceIDHeader = "X-Device-Id"
)

// accessTokenFromRequest prefers a bearer header and falls back to the
// access cookie set by the browser flows.
func accessTokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	token, err := c.Cookie(service.AccessCookieName)
	if err != nil {
		return ""
	}
	return token
}

func AuthMiddleware(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		raw := accessTokenFromRequest(c)
		if raw == "" {
			c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized", ErrorType: "unauthorized"})
			c.Abort()
			return
		}

		user, err := tokens.ParseAccessToken(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized", ErrorType: "unauthorized"})
			c.Abort()
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

func GetAuthUser(c *gin.Context) *model.AuthUser {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.AuthUser); ok {
			return user
		}
	}
	return nil
}
