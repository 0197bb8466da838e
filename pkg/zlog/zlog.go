package zlog

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// InitLogger 初始化全局日志器（文件轮转 + 控制台双写）
// logPath 为空时仅输出到控制台
func InitLogger(logPath string) {
	once.Do(func() {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder := zapcore.NewJSONEncoder(encoderConfig)

		cores := []zapcore.Core{
			zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
		}
		if logPath != "" {
			fileWriter := &lumberjack.Logger{
				Filename:   filepath.Join(logPath, "alphabot.log"),
				MaxSize:    64, // MB
				MaxBackups: 7,
				MaxAge:     30, // days
				Compress:   true,
			}
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(fileWriter), zapcore.InfoLevel))
		}

		logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	})
}

func get() *zap.Logger {
	if logger == nil {
		InitLogger("")
	}
	return logger
}

func Debug(msg string, fields ...zap.Field) {
	get().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	get().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	get().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	get().Error(msg, fields...)
}

// Fatal 记录后退出进程
func Fatal(msg string, fields ...zap.Field) {
	get().Fatal(msg, fields...)
}

// Sync 刷新缓冲区（进程退出前调用）
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
