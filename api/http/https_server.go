package http

import (
	"context"
	"time"

	"alphabot/internal/config"
	"alphabot/internal/initial"
	"alphabot/internal/middleware/apikey"
	jwtmw "alphabot/internal/middleware/jwt"
	"alphabot/internal/modules/chatbot/application/service"
	"alphabot/internal/modules/chatbot/domain/repository"
	"alphabot/internal/modules/chatbot/infrastructure/chunking"
	"alphabot/internal/modules/chatbot/infrastructure/embedding"
	"alphabot/internal/modules/chatbot/infrastructure/intent"
	"alphabot/internal/modules/chatbot/infrastructure/llm"
	"alphabot/internal/modules/chatbot/infrastructure/mq/kafka"
	"alphabot/internal/modules/chatbot/infrastructure/persistence"
	"alphabot/internal/modules/chatbot/infrastructure/pipeline"
	"alphabot/internal/modules/chatbot/infrastructure/queue"
	"alphabot/internal/modules/chatbot/infrastructure/rerank"
	"alphabot/internal/modules/chatbot/infrastructure/sessionstore"
	"alphabot/internal/modules/chatbot/infrastructure/vectordb"
	chathttp "alphabot/internal/modules/chatbot/interface/http"
	chatws "alphabot/internal/modules/chatbot/interface/ws"
	"alphabot/internal/modules/report"
	"alphabot/pkg/ssl"
	"alphabot/pkg/ws"
	"alphabot/pkg/zlog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Run 组装依赖并启动 http 服务, 阻塞到进程退出
func Run() {
	cfg := config.GetConfig()
	ctx := context.Background()

	initial.InitRedis()
	db := initial.GetDB()

	// 向量库
	var vectors repository.VectorStore
	if cfg.AI.Embedding.Provider == "mock" {
		vectors = vectordb.NewMemoryStore(cfg.AI.Embedding.Dim)
	} else {
		vectors = vectordb.NewMilvusStore(initial.GetMilvus(), cfg.Milvus.Collection, cfg.Milvus.Dim)
	}

	// 模型
	embedder, embMeta, err := embedding.NewEmbedderFromConfig(ctx, cfg.AI.Embedding)
	if err != nil {
		zlog.Fatal("create embedder failed", zap.Error(err))
	}
	retryEmbedder := embedding.NewRetryEmbedder(embedder,
		cfg.AI.Embedding.MaxRetries,
		time.Duration(cfg.AI.Embedding.RetryDelayMs)*time.Millisecond)
	zlog.Info("embedder ready",
		zap.String("provider", embMeta.Provider),
		zap.String("model", embMeta.Model),
		zap.Int("dim", embMeta.Dim))

	chatModel, cmMeta, err := llm.NewChatModelFromConfig(ctx, cfg.AI.ChatModel)
	if err != nil {
		zlog.Fatal("create chat model failed", zap.Error(err))
	}
	zlog.Info("chat model ready",
		zap.String("provider", cmMeta.Provider),
		zap.String("model", cmMeta.Model))

	// 检索与入库链路
	chunker, err := chunking.NewChunkerFromConfig(ctx, cfg.Rag.Chunker, cfg.Rag.ChunkSize, cfg.Rag.ChunkOverlap)
	if err != nil {
		zlog.Fatal("create chunker failed", zap.String("kind", cfg.Rag.Chunker), zap.Error(err))
	}
	reranker := rerank.NewReranker(rerank.NewLLMScorer(chatModel), cfg.Rag.RerankTopN)

	ingestPipeline, err := pipeline.NewIngestPipeline(ctx, chunker, retryEmbedder, vectors)
	if err != nil {
		zlog.Fatal("build ingest pipeline failed", zap.Error(err))
	}
	queryPipeline, err := pipeline.NewQueryPipeline(ctx, retryEmbedder, vectors, reranker, cfg.Rag.TopK)
	if err != nil {
		zlog.Fatal("build query pipeline failed", zap.Error(err))
	}

	// 会话
	sessionTTL := time.Duration(cfg.Session.TtlMinutes) * time.Minute
	var sessions sessionstore.Store
	var locker sessionstore.Locker
	if cfg.Session.Backend == "redis" {
		sessions = sessionstore.NewRedisStore(sessionTTL)
		locker = sessionstore.NewRedisLocker()
	} else {
		sessions = sessionstore.NewMemoryStore(sessionTTL)
		locker = sessionstore.NewKeyedMutex()
	}

	// 服务
	registry := report.NewRegistry(cfg.Reports)
	extractor := intent.NewExtractor(registry, chatModel)
	generator := llm.NewGenerator(chatModel)
	repo := persistence.NewKnowledgeRepository(db)

	chatService := service.NewChatService(sessions, locker, extractor, queryPipeline, generator, registry)
	ingestService := service.NewIngestService(repo, vectors, ingestPipeline)

	var asyncIngest service.AsyncIngestService
	if cfg.Kafka.Enable {
		publisher, err := kafka.NewPublisher(cfg.Kafka.Brokers)
		if err != nil {
			zlog.Fatal("create kafka publisher failed", zap.Error(err))
		}
		asyncIngest = service.NewAsyncIngestService(repo, publisher, cfg.Kafka.IngestTopic)

		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		if err != nil {
			zlog.Fatal("create kafka consumer failed", zap.Error(err))
		}
		worker := queue.NewIngestWorker(repo, ingestService)
		go func() {
			if err := consumer.Start(ctx, []string{cfg.Kafka.IngestTopic}, worker.Handle); err != nil {
				zlog.Error("ingest consumer stopped", zap.Error(err))
			}
		}()
	}

	// 路由
	hub := ws.NewHub()
	chatHandler := chathttp.NewChatHandler(chatService)
	adminHandler := chathttp.NewAdminHandler(ingestService, asyncIngest)
	reportHandler := chathttp.NewReportHandler(registry)
	streamHandler := chatws.NewStreamHandler(hub, chatService)

	engine := buildEngine(cfg, chatHandler, adminHandler, reportHandler, streamHandler)

	addr := cfg.Main.Host + ":" + cfg.Main.Port
	zlog.Info("http server starting", zap.String("addr", addr))
	if cfg.Main.EnableTls {
		if err := engine.RunTLS(addr, cfg.Main.CertFile, cfg.Main.KeyFile); err != nil {
			zlog.Fatal("server stopped", zap.Error(err))
		}
		return
	}
	if err := engine.Run(addr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func buildEngine(cfg *config.Config, chatHandler *chathttp.ChatHandler, adminHandler *chathttp.AdminHandler, reportHandler *chathttp.ReportHandler, streamHandler *chatws.StreamHandler) *gin.Engine {
	engine := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-API-Key")
	engine.Use(cors.New(corsCfg))

	if cfg.Main.EnableTls {
		engine.Use(ssl.TlsHandler(cfg.Main.Host, cfg.Main.Port))
	}

	// 对外接口走 API Key
	open := engine.Group("", apikey.Auth())
	{
		open.POST("/chat", chatHandler.Chat)
		open.POST("/demo", chatHandler.Demo)
		open.POST("/report", reportHandler.Validate)
		open.DELETE("/session/:key", chatHandler.ResetSession)
		open.GET("/chat/stream", streamHandler.Serve)
	}

	// 管理接口走 JWT
	admin := engine.Group("/admin", jwtmw.Auth())
	{
		admin.POST("/documents", adminHandler.IngestDocument)
		admin.POST("/documents/async", adminHandler.IngestDocumentAsync)
		admin.GET("/documents", adminHandler.ListDocuments)
		admin.DELETE("/documents/:docId", adminHandler.DeleteDocument)
	}

	return engine
}
