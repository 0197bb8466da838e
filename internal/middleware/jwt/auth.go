package jwt

import (
	"net/http"
	"strings"

	"alphabot/pkg/back"
	"alphabot/pkg/util/myjwt"

	"github.com/gin-gonic/gin"
)

// Auth 管理接口鉴权, 解析 Bearer token 并注入用户标识
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, back.Response{
				Code:    http.StatusUnauthorized,
				Message: "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, back.Response{
				Code:    http.StatusUnauthorized,
				Message: "invalid authorization header",
			})
			return
		}

		claims, err := myjwt.ParseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, back.Response{
				Code:    http.StatusUnauthorized,
				Message: "invalid token",
			})
			return
		}

		c.Set("uuid", claims.Uuid)
		c.Set("username", claims.Username)
		c.Next()
	}
}
