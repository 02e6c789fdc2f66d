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

	"github.com/silodex/silodex/internal/config"
	dbRedis "github.com/silodex/silodex/internal/db/redis"
	"github.com/silodex/silodex/internal/domain"
	logpkg "github.com/silodex/silodex/internal/logger"
	"github.com/silodex/silodex/internal/metrics"
	chunkrepo "github.com/silodex/silodex/internal/repository/chunk"
	"github.com/silodex/silodex/internal/repository/embcache"
	mediarepo "github.com/silodex/silodex/internal/repository/media"
	searchrepo "github.com/silodex/silodex/internal/repository/search"
	silorepo "github.com/silodex/silodex/internal/repository/silo"
	chiTransport "github.com/silodex/silodex/internal/transport/chi"
	openaiEmb "github.com/silodex/silodex/internal/transport/openai"
	"github.com/silodex/silodex/internal/transport/transcript"
	healthuc "github.com/silodex/silodex/internal/usecase/health"
	indexeruc "github.com/silodex/silodex/internal/usecase/indexer"
	ingestuc "github.com/silodex/silodex/internal/usecase/ingest"
	mediauc "github.com/silodex/silodex/internal/usecase/media"
	searchuc "github.com/silodex/silodex/internal/usecase/search"
	silouc "github.com/silodex/silodex/internal/usecase/silo"
	statusuc "github.com/silodex/silodex/internal/usecase/status"
	"github.com/silodex/silodex/internal/version"
	"github.com/silodex/silodex/internal/worker"
)

func main() {
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

	logger.Info("Starting silodex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
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

	// Register embedding and ingest metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	docEmbedder := buildEmbedder(cfg, cfg.Embedding.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(cfg, cfg.Embedding.QueryInstruction, store, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	prefix := cfg.Storage.KeyPrefix
	siloRepo := silorepo.New(store, prefix)
	mediaRepo := mediarepo.New(store, prefix)
	chunkRepo := chunkrepo.New(store, prefix, chunkrepo.IndexParams{
		Dimensions:  cfg.Embedding.Dimensions,
		HNSWM:       cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	searchRepo := searchrepo.New(store, prefix)

	pool := worker.NewPool(cfg.Ingest.Workers, cfg.Ingest.QueueSize, logger)
	pool.Start()

	decoder := transcript.New(transcript.Config{
		DataDir: cfg.Storage.DataDir,
		Logger:  logger,
	})

	tracker := statusuc.New(mediaRepo, logger)
	indexerSvc := indexeruc.New(
		chunkRepo, store, docEmbedder,
		indexeruc.Policy{
			MaxChars:       cfg.Chunking.MaxChars,
			MaxDurationSec: cfg.Chunking.MaxDurationSec,
		},
		time.Duration(cfg.Ingest.LockTTLSec)*time.Second, prefix, logger,
	)
	ingestSvc := ingestuc.New(
		mediaRepo, siloRepo, decoder, indexerSvc, tracker, pool,
		cfg.Index.MaxBatchSize, time.Duration(cfg.Ingest.JobTimeoutSec)*time.Second, logger,
	)
	siloSvc := silouc.New(siloRepo, chunkRepo, mediaRepo, logger)
	mediaSvc := mediauc.New(mediaRepo, siloRepo, chunkRepo, cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize)
	searchSvc := searchuc.New(searchRepo, siloRepo, queryEmbedder, searchuc.Config{
		DefaultPageSize:      cfg.Index.DefaultPageSize,
		MaxPageSize:          cfg.Index.MaxPageSize,
		RecencyBoost:         cfg.Search.RecencyBoost,
		RecencyHalfLifeHours: cfg.Search.RecencyHalfLifeHours,
	})
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(docEmbedder))

	server := chiTransport.NewServer(siloSvc, mediaSvc, ingestSvc, tracker, searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

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

	// Drain queued ingestion jobs before exiting.
	pool.Stop()

	logger.Info("Server stopped gracefully")
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

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction
func buildEmbedder(
	cfg config.Config,
	instruction string,
	store *dbRedis.Store,
	logger *zap.Logger,
) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = embcache.New(
		base, store, cfg.Storage.KeyPrefix, metrics.EmbeddingCacheTotal, logger,
	)

	// Instruction wrapping is outermost so cache keys include the prefixed text.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}

	return embedder
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
