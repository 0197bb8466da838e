package config

import (
	"log"
	"os"
	"sync"

	"github.com/BurntSushi/toml"
)

// MainConfig 服务主配置
type MainConfig struct {
	AppName   string `toml:"appName"`
	Port      string `toml:"port"`
	Host      string `toml:"host"`
	EnableTls bool   `toml:"enableTls"`
	CertFile  string `toml:"certFile"`
	KeyFile   string `toml:"keyFile"`
	LogPath   string `toml:"logPath"`
}

type MysqlConfig struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type MilvusConfig struct {
	Address    string `toml:"address"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
	Dim        int    `toml:"dim"`
}

type KafkaConfig struct {
	Enable      bool     `toml:"enable"`
	Brokers     []string `toml:"brokers"`
	IngestTopic string   `toml:"ingestTopic"`
	GroupID     string   `toml:"groupId"`
}

// EmbeddingConfig 向量化模型配置, provider 可选 mock/openai/ark/dashscope
type EmbeddingConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"apiKey"`
	BaseURL  string `toml:"baseUrl"`
	Model    string `toml:"model"`
	Dim      int    `toml:"dim"`

	// 重试参数, 超过次数后向上抛 EmbeddingUnavailable
	MaxRetries        int `toml:"maxRetries"`
	RetryDelayMs      int `toml:"retryDelayMs"`
	RequestTimeoutSec int `toml:"requestTimeoutSec"`
}

// ChatModelConfig 对话模型配置, provider 可选 openai/ark
type ChatModelConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"apiKey"`
	BaseURL  string `toml:"baseUrl"`
	Model    string `toml:"model"`
}

type AIConfig struct {
	Embedding EmbeddingConfig `toml:"embedding"`
	ChatModel ChatModelConfig `toml:"chatModel"`
}

// RagConfig 检索链路参数
type RagConfig struct {
	Chunker        string  `toml:"chunker"` // recursive / eino
	ChunkSize      int     `toml:"chunkSize"`
	ChunkOverlap   int     `toml:"chunkOverlap"`
	TopK           int     `toml:"topK"`
	RerankTopN     int     `toml:"rerankTopN"`
	ScoreThreshold float64 `toml:"scoreThreshold"`
}

type SessionConfig struct {
	TtlMinutes int    `toml:"ttlMinutes"`
	Backend    string `toml:"backend"` // memory / redis
}

// ReportEntry 报表路由注册项
type ReportEntry struct {
	Name           string   `toml:"name"`
	Endpoint       string   `toml:"endpoint"`
	RequiredFields []string `toml:"requiredFields"`
	Aliases        []string `toml:"aliases"`
	MinLevel       int      `toml:"minLevel"`
}

type AuthConfig struct {
	ApiKeys []string `toml:"apiKeys"`
	Levels  []int    `toml:"levels"` // 允许的用户等级, 留空不限制
}

type JwtConfig struct {
	Secret      string `toml:"secret"`
	ExpireHours int    `toml:"expireHours"`
	Issuer      string `toml:"issuer"`
}

type MCPConfig struct {
	Enable bool   `toml:"enable"`
	Name   string `toml:"name"`
	Addr   string `toml:"addr"`
}

type Config struct {
	Main    MainConfig    `toml:"main"`
	Mysql   MysqlConfig   `toml:"mysql"`
	Redis   RedisConfig   `toml:"redis"`
	Milvus  MilvusConfig  `toml:"milvus"`
	Kafka   KafkaConfig   `toml:"kafka"`
	AI      AIConfig      `toml:"ai"`
	Rag     RagConfig     `toml:"rag"`
	Session SessionConfig `toml:"session"`
	Reports []ReportEntry `toml:"reports"`
	Auth    AuthConfig    `toml:"auth"`
	Jwt     JwtConfig     `toml:"jwt"`
	MCP     MCPConfig     `toml:"mcp"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig 获取全局配置, 首次调用时加载
func GetConfig() *Config {
	once.Do(func() {
		path := os.Getenv("ALPHABOT_CONFIG")
		if path == "" {
			path = "configs/config_local.toml"
		}
		c, err := LoadConfig(path)
		if err != nil {
			log.Fatalf("load config %s failed: %v", path, err)
		}
		cfg = c
	})
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	c := &Config{}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, err
	}
	applyDefaults(c)
	return c, nil
}

func applyDefaults(c *Config) {
	if c.Rag.Chunker == "" {
		c.Rag.Chunker = "recursive"
	}
	if c.Rag.ChunkSize <= 0 {
		c.Rag.ChunkSize = 400
	}
	if c.Rag.ChunkOverlap < 0 || c.Rag.ChunkOverlap >= c.Rag.ChunkSize {
		c.Rag.ChunkOverlap = 100
	}
	if c.Rag.TopK <= 0 {
		c.Rag.TopK = 10
	}
	if c.Rag.RerankTopN <= 0 {
		c.Rag.RerankTopN = 3
	}
	if c.Session.TtlMinutes <= 0 {
		c.Session.TtlMinutes = 30
	}
	if c.AI.Embedding.MaxRetries <= 0 {
		c.AI.Embedding.MaxRetries = 3
	}
	if c.AI.Embedding.RetryDelayMs <= 0 {
		c.AI.Embedding.RetryDelayMs = 200
	}
	if c.Milvus.Dim <= 0 {
		c.Milvus.Dim = c.AI.Embedding.Dim
	}
}
