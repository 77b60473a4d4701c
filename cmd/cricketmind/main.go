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
	"go.uber.org/zap"

	"github.com/cricketmind/cricketmind/internal/config"
	"github.com/cricketmind/cricketmind/internal/db"
	dbRedis "github.com/cricketmind/cricketmind/internal/db/redis"
	"github.com/cricketmind/cricketmind/internal/domain"
	"github.com/cricketmind/cricketmind/internal/index"
	logpkg "github.com/cricketmind/cricketmind/internal/logger"
	"github.com/cricketmind/cricketmind/internal/metadata"
	"github.com/cricketmind/cricketmind/internal/metrics"
	"github.com/cricketmind/cricketmind/internal/repository/embcache"
	"github.com/cricketmind/cricketmind/internal/repository/matches"
	chiTransport "github.com/cricketmind/cricketmind/internal/transport/chi"
	openaiTransport "github.com/cricketmind/cricketmind/internal/transport/openai"
	"github.com/cricketmind/cricketmind/internal/usecase/answer"
	healthuc "github.com/cricketmind/cricketmind/internal/usecase/health"
	reasonuc "github.com/cricketmind/cricketmind/internal/usecase/reason"
	"github.com/cricketmind/cricketmind/internal/usecase/retrieve"
	"github.com/cricketmind/cricketmind/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting cricketmind API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_driver", cfg.Index.Driver),
	)

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()

	ctx := context.Background()

	// Base embedding provider (with transport metrics built-in)
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var (
		repo     retrieve.Repository
		embedder domain.Embedder = baseEmbedder
		dbPinger healthuc.DBPinger
	)

	switch cfg.Index.Driver {
	case "flat":
		repo = mustLoadFlatRepo(cfg, logger)

	case "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")

		repo = mustLoadRedisRepo(ctx, cfg, store, logger)
		dbPinger = store

		if ttl := cfg.Embedding.CacheTTLSec; ttl > 0 {
			embedder = embcache.New(
				baseEmbedder, store, cfg.Embedding.Model,
				time.Duration(ttl)*time.Second,
				metrics.EmbeddingCacheTotal, logger,
			)
		}

	default:
		logger.Fatal("Unknown index driver", zap.String("driver", cfg.Index.Driver))
	}

	// Chat completion provider
	chat := openaiTransport.NewChatClient(&openaiTransport.ChatConfig{
		APIKey:      cfg.Chat.APIKey,
		BaseURL:     cfg.Chat.BaseURL,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		Provider:    cfg.Chat.Provider,
		Logger:      logger,
	})

	// Use case services
	retrieveSvc := retrieve.New(embedder, repo)
	answerSvc := answer.New(chat, logger)
	reasonSvc := reasonuc.New(retrieveSvc, answerSvc, logger)
	healthSvc := healthuc.New(dbPinger, newEmbeddingHealthChecker(embedder))

	// HTTP server
	server := chiTransport.NewServer(reasonSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

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

// mustLoadFlatRepo loads the snapshot and metadata artifacts and verifies
// their alignment. Missing or misaligned artifacts are fatal: serving a
// mismatched index answers questions with the wrong matches.
func mustLoadFlatRepo(cfg config.Config, logger *zap.Logger) *matches.FlatRepo {
	flat, matchIDs, err := index.ReadSnapshot(cfg.Artifacts.SnapshotPath)
	if err != nil {
		logger.Fatal("Failed to load index snapshot; run cricketmind-cli build-index first",
			zap.String("path", cfg.Artifacts.SnapshotPath),
			zap.Error(err))
	}

	meta, err := metadata.LoadFile(cfg.Artifacts.MetadataPath)
	if err != nil {
		logger.Fatal("Failed to load metadata",
			zap.String("path", cfg.Artifacts.MetadataPath),
			zap.Error(err))
	}

	repo, err := matches.NewFlat(flat, matchIDs, meta)
	if err != nil {
		logger.Fatal("Index artifacts are misaligned; rebuild with cricketmind-cli build-index",
			zap.Error(err))
	}

	logger.Info("Loaded flat index",
		zap.Int("matches", repo.Len()),
		zap.Int("dim", repo.Dim()))
	return repo
}

// mustLoadRedisRepo attaches to an index built by cricketmind-cli build-index.
func mustLoadRedisRepo(ctx context.Context, cfg config.Config, store db.Store, logger *zap.Logger) *matches.RedisRepo {
	repo := matches.NewRedis(store, cfg.Embedding.Dimensions, 0)
	if err := repo.LoadSize(ctx); err != nil {
		logger.Fatal("Failed to discover corpus size", zap.Error(err))
	}
	if repo.Len() == 0 {
		logger.Fatal("Redis index is empty; run cricketmind-cli build-index first")
	}

	logger.Info("Attached to redis index",
		zap.Int("matches", repo.Len()),
		zap.Int("dim", repo.Dim()))
	return repo
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
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
						"error": "internal error",
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

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
