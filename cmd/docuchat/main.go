package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/atlasops/docuchat/internal/chunker"
	"github.com/atlasops/docuchat/internal/config"
	"github.com/atlasops/docuchat/internal/db"
	dbRedis "github.com/atlasops/docuchat/internal/db/redis"
	"github.com/atlasops/docuchat/internal/domain"
	"github.com/atlasops/docuchat/internal/domain/conversation"
	"github.com/atlasops/docuchat/internal/extract"
	logpkg "github.com/atlasops/docuchat/internal/logger"
	"github.com/atlasops/docuchat/internal/metrics"
	"github.com/atlasops/docuchat/internal/repository/embcache"
	indexrepo "github.com/atlasops/docuchat/internal/repository/index"
	vectorrepo "github.com/atlasops/docuchat/internal/repository/vector"
	chiTransport "github.com/atlasops/docuchat/internal/transport/chi"
	openaiProvider "github.com/atlasops/docuchat/internal/transport/openai"
	chatuc "github.com/atlasops/docuchat/internal/usecase/chat"
	healthuc "github.com/atlasops/docuchat/internal/usecase/health"
	ingestuc "github.com/atlasops/docuchat/internal/usecase/ingest"
	searchuc "github.com/atlasops/docuchat/internal/usecase/search"
	"github.com/atlasops/docuchat/internal/version"
)

func main() {
	// Optional .env for local development; ignore absence.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docuchat API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	// Build providers — composition root
	baseEmbedder := openaiProvider.NewEmbedder(&openaiProvider.EmbedderConfig{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.EmbeddingDimensions,
		Provider:   "openai",
		Logger:     logger,
	})
	embedder := buildEmbedder(baseEmbedder, store, cfg.Storage.KeyPrefix, logger)

	completer := openaiProvider.NewCompleter(&openaiProvider.CompleterConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.ChatModel,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Provider:    "openai",
		Logger:      logger,
	})

	logger.Info("Providers created",
		zap.String("embedding_model", cfg.OpenAI.EmbeddingModel),
		zap.String("chat_model", cfg.OpenAI.ChatModel),
	)

	// Repositories
	idxRepo := indexrepo.New(store, cfg.Storage.KeyPrefix)
	vecRepo := vectorrepo.New(store, cfg.Storage.KeyPrefix)

	splitter, err := chunker.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		logger.Fatal("Invalid chunker configuration", zap.Error(err))
	}

	// Use case services
	ingestSvc := ingestuc.New(
		idxRepo, vecRepo, embedder,
		extract.NewTextExtractor(), splitter,
		cfg.Ingest.MaxFileSizeBytes, cfg.Ingest.AllowedExtensions,
		logger,
	)
	chatSvc := chatuc.New(
		embedder, vecRepo, idxRepo, completer,
		conversation.NewHistory(cfg.Chat.MaxHistoryTurns, cfg.Chat.MaxHistoryChars),
		cfg.Retrieval.TopK,
		logger,
	)
	searchSvc := searchuc.New(idxRepo, cfg.Retrieval.DefaultSearchLimit, cfg.Retrieval.MaxSearchLimit)
	healthSvc := healthuc.New(store, baseEmbedder, completer)

	server := chiTransport.NewServer(
		ingestSvc, chatSvc, searchSvc, healthSvc,
		cfg.Ingest.MaxFileSizeBytes, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached.
func buildEmbedder(base domain.Embedder, store db.Store, prefix string, logger *zap.Logger) domain.Embedder {
	if store == nil {
		return base
	}
	return embcache.New(base, store, prefix, metrics.EmbeddingCacheTotal, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
