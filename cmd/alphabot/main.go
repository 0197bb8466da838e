package main

import (
	httpserver "alphabot/api/http"
	"alphabot/internal/config"
	"alphabot/internal/modules/report"
	mcpserver "alphabot/internal/modules/report/mcp"
	"alphabot/pkg/zlog"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg := config.GetConfig()
	zlog.InitLogger(cfg.Main.LogPath)
	defer zlog.Sync()

	if cfg.MCP.Enable {
		registry := report.NewRegistry(cfg.Reports)
		s := mcpserver.NewServer(cfg.MCP.Name, version, registry)
		sse := server.NewSSEServer(s)
		go func() {
			zlog.Info("mcp server starting", zap.String("addr", cfg.MCP.Addr))
			if err := sse.Start(cfg.MCP.Addr); err != nil {
				zlog.Error("mcp server stopped", zap.Error(err))
			}
		}()
	}

	httpserver.Run()
}
