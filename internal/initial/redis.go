package initial

import (
	"context"
	"sync"
	"time"

	"alphabot/internal/config"
	pkgredis "alphabot/pkg/redis"
	"alphabot/pkg/zlog"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var redisOnce sync.Once

// InitRedis 初始化全局 redis 客户端
func InitRedis() {
	redisOnce.Do(func() {
		c := config.GetConfig().Redis
		client := goredis.NewClient(&goredis.Options{
			Addr:     c.Addr,
			Password: c.Password,
			DB:       c.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			zlog.Fatal("connect redis failed", zap.String("addr", c.Addr), zap.Error(err))
		}

		pkgredis.SetClient(client)
		zlog.Info("redis connected", zap.String("addr", c.Addr))
	})
}
