// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"question-bank-service/internal/config"
	"question-bank-service/internal/domain/ports/adapter"
	aiAdapters "question-bank-service/internal/infra/adapters/ai"
	searchAdapters "question-bank-service/internal/infra/adapters/search"
	pg "question-bank-service/internal/infra/db/postgres"
	"question-bank-service/internal/infra/logging"
	"question-bank-service/internal/infra/metrics"
	red "question-bank-service/internal/infra/redis"
	"question-bank-service/internal/infra/sched"
	"question-bank-service/internal/infra/security"
	"question-bank-service/internal/infra/web"
	"question-bank-service/internal/infra/worker"
	"question-bank-service/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop providers allowed, no rate limit)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.ApplySchema(ctx, pool, cfg.Database.HistoryTable); err != nil {
		logger.Fatal().Err(err).Msg("schema apply failed")
	}
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	statusCache := red.NewStatusCache(redisClient, cfg.Redis.TTL)
	locker := red.NewLocker(redisClient)

	// ---- Encryption (history payload at rest) ----
	encKey := cfg.Security.EncryptionKey
	if len(encKey) != 32 {
		logger.Warn().Msg("security.encryption_key not set or not 32 bytes; history payloads stored unencrypted")
		encKey = ""
	}
	var encSvc *security.EncryptionService
	if encKey != "" {
		if encSvc, err = security.NewEncryptionService(encKey); err != nil {
			logger.Fatal().Err(err).Msg("encryption init failed")
		}
	}

	// ---- Repositories ----
	jobRepo := pg.NewGenerationJobRepo(pool, tm)
	historyRepo, err := pg.NewHistoryRepo(pool, cfg.Database.HistoryTable, encSvc)
	if err != nil {
		logger.Fatal().Err(err).Msg("history repo init failed")
	}

	// ---- AI adapters ----
	byProvider := map[string]adapter.AIServiceAdapter{}
	if cfg.AI.OpenAIKey != "" {
		openAI, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter init failed")
		}
		byProvider["openai"] = openAI
	}
	if cfg.AI.GeminiKey != "" {
		gemini, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter init failed")
		}
		byProvider["gemini"] = gemini
	}
	if len(byProvider) == 0 {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("no AI provider configured: set ai.openai_key or ai.gemini_key")
		}
		logger.Warn().Msg("no AI provider configured; using noop adapter")
		byProvider["noop"] = aiAdapters.NewNoopAIAdapter()
	}
	defaultProvider := "openai"
	if _, ok := byProvider[defaultProvider]; !ok {
		for name := range byProvider {
			defaultProvider = name
			break
		}
	}
	ai := aiAdapters.NewLimitedAI(
		aiAdapters.NewMultiAIAdapter(defaultProvider, byProvider, nil),
		cfg.AI.ConcurrentLimit,
	)

	// ---- Content retrieval ----
	var retriever adapter.ContentRetriever
	if cfg.Search.Host != "" {
		retriever, err = searchAdapters.NewOpenSearchRetriever(
			cfg.Search.Host, cfg.Search.Index,
			cfg.Search.Username, cfg.Search.Password,
			cfg.Search.MaxHits, cfg.Search.Timeout,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("opensearch retriever init failed")
		}
	} else {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("search.host is required outside dev mode")
		}
		logger.Warn().Msg("no search backend configured; using fixture retriever")
		retriever = searchAdapters.NewNoopRetriever()
	}

	// ---- Use cases ----
	genUC := usecase.NewGenerationUseCase(
		jobRepo, statusCache, rateLimiter, ai,
		cfg.Security.RateLimit, cfg.Security.RateWindow,
		cfg.Runtime.Dev, logger,
	)
	historyUC := usecase.NewHistoryUseCase(historyRepo)

	// ---- Background generation ----
	pool2 := worker.NewPool(cfg.Worker.Count, logger)
	pool2.Start(ctx)
	processor := worker.NewGenerationProcessor(
		jobRepo, historyUC, retriever, ai, locker, statusCache,
		cfg.Worker.PollInterval, cfg.Worker.JobTimeout, logger,
	)
	go processor.Start(ctx, pool2)

	// ---- History retention ----
	retention := sched.NewRetentionWorker(cfg.Retention.Cron, cfg.Retention.Days, historyUC, logger)
	if err := retention.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("retention worker init failed")
	}

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Security.AdminJWTSecret, !cfg.Runtime.Dev, "", cfg.Security.AdminTokenTTL)
	srv := web.NewServer(
		genUC, historyUC, auth,
		cfg.Security.AdminAPIKey, cfg.Server.BasePath,
		cfg.Server.ReadTimeout, logger,
	)
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     srv.Router(),
		ReadTimeout: cfg.Server.ReadTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("base_path", cfg.Server.BasePath).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	retention.Stop()
	cancel()
	pool2.Stop()
}
