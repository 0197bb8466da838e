package initial

import (
	"fmt"
	"sync"

	"alphabot/internal/config"
	"alphabot/internal/modules/chatbot/domain/knowledge"
	"alphabot/pkg/zlog"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db       *gorm.DB
	gormOnce sync.Once
)

// GetDB 获取全局 gorm 连接
func GetDB() *gorm.DB {
	gormOnce.Do(initGorm)
	return db
}

func initGorm() {
	c := config.GetConfig().Mysql
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)

	conn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		zlog.Fatal("connect mysql failed", zap.Error(err))
	}

	if err := conn.AutoMigrate(
		&knowledge.Document{},
		&knowledge.Chunk{},
		&knowledge.IngestEvent{},
	); err != nil {
		zlog.Fatal("auto migrate failed", zap.Error(err))
	}

	db = conn
	zlog.Info("mysql connected", zap.String("database", c.Database))
}
