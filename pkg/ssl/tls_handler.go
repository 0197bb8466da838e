package ssl

import (
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

func TlsHandler(host string, port string) gin.HandlerFunc {
	return func(c *gin.Context) {
		secureMiddleware := secure.New(secure.Options{
			SSLRedirect: true,
			SSLHost:     host + ":" + port,
		})
		err := secureMiddleware.Process(c.Writer, c.Request)

		// Process 已经写入重定向响应，出错时直接中止处理链
		if err != nil {
			return
		}

		c.Next()
	}
}
