// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int           `yaml:"port"`
	BasePath    string        `yaml:"base_path"` // route prefix for the public API
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL          string `yaml:"url"`
	HistoryTable string `yaml:"history_table"`
	MaxConns     int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	OpenAIKey       string `yaml:"openai_key"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	DefaultModel    string `yaml:"default_model"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type SearchConfig struct {
	Host     string        `yaml:"host"` // e.g. https://opensearch.internal:9200
	Index    string        `yaml:"index"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
	MaxHits  int           `yaml:"max_hits"`
}

type WorkerConfig struct {
	Count        int           `yaml:"count"`
	PollInterval time.Duration `yaml:"poll_interval"`
	JobTimeout   time.Duration `yaml:"job_timeout"`
}

type RetentionConfig struct {
	Cron string `yaml:"cron"` // e.g. "0 3 * * *"
	Days int    `yaml:"days"`
}

type SecurityConfig struct {
	AdminAPIKey    string        `yaml:"admin_api_key"` // shared key exchanged for a session JWT
	AdminJWTSecret string        `yaml:"admin_jwt_secret"`
	AdminTokenTTL  time.Duration `yaml:"admin_token_ttl"`
	EncryptionKey  string        `yaml:"encryption_key"`
	RateLimit      int           `yaml:"rate_limit"` // generate calls per source per window
	RateWindow     time.Duration `yaml:"rate_window"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	Search    SearchConfig    `yaml:"search"`
	Worker    WorkerConfig    `yaml:"worker"`
	Retention RetentionConfig `yaml:"retention"`
	Security  SecurityConfig  `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// applyEnvOverrides honors the environment names the deployment documents.
// Values from the environment win over the YAML file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("QUESTION_HISTORY_TABLE"); v != "" {
		c.Database.HistoryTable = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("OPENSEARCH_HOST"); v != "" {
		c.Search.Host = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.AI.DefaultModel = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.AI.OpenAIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.AI.GeminiKey = v
	}
	if v := os.Getenv("ADMIN_API_KEY"); v != "" {
		c.Security.AdminAPIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/questionBankService"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Database.HistoryTable == "" {
		c.Database.HistoryTable = "question_history"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)
	if c.AI.DefaultModel == "" {
		c.AI.DefaultModel = "gpt-4o-mini"
	}
	if c.AI.MaxOutputTokens <= 0 {
		c.AI.MaxOutputTokens = 4096
	}
	if c.AI.ConcurrentLimit <= 0 {
		c.AI.ConcurrentLimit = 16
	}
	if c.Search.Index == "" {
		c.Search.Index = "course-content"
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = 10 * time.Second
	}
	if c.Search.MaxHits <= 0 {
		c.Search.MaxHits = 8
	}
	if c.Worker.Count <= 0 {
		c.Worker.Count = 4
	}
	if c.Worker.PollInterval <= 0 {
		c.Worker.PollInterval = 500 * time.Millisecond
	}
	if c.Worker.JobTimeout <= 0 {
		c.Worker.JobTimeout = 2 * time.Minute
	}
	if c.Retention.Cron == "" {
		c.Retention.Cron = "0 3 * * *"
	}
	if c.Retention.Days <= 0 {
		c.Retention.Days = 90
	}
	if c.Security.AdminTokenTTL <= 0 {
		c.Security.AdminTokenTTL = 30 * time.Minute
	}
	if c.Security.RateLimit <= 0 {
		c.Security.RateLimit = 30
	}
	if c.Security.RateWindow <= 0 {
		c.Security.RateWindow = time.Minute
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
