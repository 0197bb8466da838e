package apikey

import (
	"net/http"

	"alphabot/internal/config"
	"alphabot/pkg/back"

	"github.com/gin-gonic/gin"
)

// Auth 校验 X-API-Key, 外部接入方每次请求都必须携带
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("api_key")
		}
		if key == "" || !validKey(key) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, back.Response{
				Code:    http.StatusUnauthorized,
				Message: "invalid api key",
			})
			return
		}
		c.Next()
	}
}

func validKey(key string) bool {
	for _, k := range config.GetConfig().Auth.ApiKeys {
		if k != "" && k == key {
			return true
		}
	}
	return false
}

// LevelAllowed 校验请求携带的用户等级, 等级在请求体里, 由各接入点绑定后调用.
// 未配置 levels 时不限制.
func LevelAllowed(level int) bool {
	return levelAllowed(config.GetConfig().Auth.Levels, level)
}

func levelAllowed(levels []int, level int) bool {
	if level < 0 {
		return false
	}
	if len(levels) == 0 {
		return true
	}
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}
