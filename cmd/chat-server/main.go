// cmd/chat-server/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chat-engine/internal/common/config"
	"chat-engine/internal/common/database"
	"chat-engine/internal/common/logger"
	"chat-engine/internal/common/observability"
	"chat-engine/internal/engine/ai"
	"chat-engine/internal/engine/convctx"
	"chat-engine/internal/engine/quota"
	"chat-engine/internal/engine/responder"
	"chat-engine/internal/engine/rules"
	"chat-engine/internal/notify"
	"chat-engine/internal/server"
	"chat-engine/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// requestMetrics records per-route request counts and latency.
func requestMetrics(obs *observability.Observability, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		obs.RecordRequest(r.Context(), r.URL.Path)
		obs.RecordDuration(r.Context(), time.Since(start), r.URL.Path)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("config load failed: %v", err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting chat server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Stores ---
	tenants := store.NewTenantStore(pg.GetDB(), rdb.GetClient(), log)
	conversations := store.NewConversationStore(pg.GetDB(), log)
	knowledge := store.NewKnowledgeStore(
		esClient.GetClient(),
		cfg.Database.Elasticsearch.KnowledgeIndex,
		cfg.Chat.MaxKnowledge,
		log,
	)

	// --- Decision pipeline ---
	registry := rules.NewRegistry(rules.DefaultCatalog())

	gate := quota.NewGate(quota.NewRedisStore(rdb.GetClient()), log)

	assembler := convctx.NewAssembler(
		conversations, knowledge,
		cfg.Chat.HistoryFetchLimit,
		cfg.Chat.HistoryPromptSize,
		cfg.Chat.MaxKnowledge,
		log,
	)

	var completer ai.Completer
	if cfg.AI.Enabled {
		completer, err = ai.NewGeminiCompleter(ctx, ai.GeminiConfig{
			APIKey:          cfg.AI.APIKey,
			Model:           cfg.AI.Model,
			Temperature:     cfg.AI.Temperature,
			TopP:            cfg.AI.TopP,
			TopK:            cfg.AI.TopK,
			MaxOutputTokens: cfg.AI.MaxOutputTokens,
		}, log)
		if err != nil {
			zapLog.Fatal("gemini client failed", zap.Error(err))
		}
		zapLog.Info("Gemini client initialized", zap.String("model", cfg.AI.Model))
	} else {
		zapLog.Warn("AI completion disabled, serving rules and fallbacks only")
	}

	engine := responder.NewEngine(registry, gate, assembler, completer, responder.Config{
		AIEnabled:        cfg.AI.Enabled,
		AITimeout:        time.Duration(cfg.AI.Timeout) * time.Millisecond,
		MaxMessageLength: cfg.Chat.MaxMessageLength,
	}, log)

	// --- Handover notifier ---
	var notifier *notify.Notifier
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		notifier, err = notify.New(&notify.Config{
			Enabled:   true,
			AWSRegion: cfg.Notifications.AWS.Region,
			FromEmail: cfg.Notifications.Email.FromEmail,
			Timeout:   10 * time.Second,
		}, log)
		if err != nil {
			zapLog.Fatal("notifier init failed", zap.Error(err))
		}
		zapLog.Info("Handover notifier initialized")
	}

	// --- HTTP server ---
	srv, err := server.New(tenants, conversations, engine, notifier, log)
	if err != nil {
		zapLog.Fatal("server init failed", zap.Error(err))
	}

	mux := srv.Routes()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := http.StatusOK
		state := "ready"
		if err := pg.Ping(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{
			"status": state,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      requestMetrics(obs, mux),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("Chat server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining connections...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during HTTP shutdown", zap.Error(err))
	}

	zapLog.Info("Chat server stopped gracefully")
}
