// Command server runs the news personalization HTTP API, wiring
// configuration, the index gateway, cache layer, and the four core
// engines into a gin router with graceful shutdown — grounded on
// cmd/server/main.go's Load -> initialize components -> goroutine ->
// signal-wait -> shutdown shape.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/bloom"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/cache"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/config"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/embedding"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/httpapi"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/index"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/metrics"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/observability"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/personalization"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/readhistory"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/similarity"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := observability.NewLogger("news-server")
	tracer := observability.NewTracer("news-server")

	logger.Info("starting server", map[string]interface{}{
		"environment": cfg.Environment,
		"listen":      cfg.API.ListenAddress,
	})

	ttls := cache.TTLs{
		AllArticles:        cfg.TTLs.AllArticles,
		Similar:             cfg.TTLs.Similar,
		SimilarLRU:          cfg.TTLs.SimilarLRU,
		SimilarBloom:        cfg.TTLs.SimilarBloom,
		SimilarStats:        cfg.TTLs.SimilarStats,
		Personalized:        cfg.TTLs.Personalized,
		PersonalizedSearch:  cfg.TTLs.PersonalizedSearch,
		PrefsVersion:        cfg.TTLs.PrefsVersion,
		ReadHistory:         cfg.TTLs.ReadHistory,
		DailyViews:          cfg.TTLs.DailyViews,
		Engagement:          cfg.TTLs.Engagement,
	}

	cacheLayer, err := cache.NewLayer(cache.RedisConfig{
		Address:      cfg.Cache.Address,
		Password:     cfg.Cache.Password,
		Database:     cfg.Cache.Database,
		DialTimeout:  cfg.Cache.DialTimeout,
		ReadTimeout:  cfg.Cache.ReadTimeout,
		WriteTimeout: cfg.Cache.WriteTimeout,
		PoolSize:     cfg.Cache.PoolSize,
		MinIdleConns: cfg.Cache.MinIdleConns,
		MaxRetries:   cfg.Cache.MaxRetries,
	}, ttls, cfg.Similarity.LRUMaxSize, logger)
	if err != nil {
		log.Fatalf("failed to connect to cache: %v", err)
	}

	gateway, err := index.NewESGateway(cfg.Index.Addresses, cfg.Index.IndexName)
	if err != nil {
		log.Fatalf("failed to construct index gateway: %v", err)
	}
	if err := gateway.RecreateIndex(ctx, index.Schema{VectorDim: cfg.Index.VectorDim, DistanceType: cfg.Index.DistanceType}); err != nil {
		logger.Warn("index schema ensure failed, continuing against existing index", map[string]interface{}{"error": err.Error()})
	}
	resilientGateway := index.WrapResilient(gateway)

	embedder := embedding.NewDeterministicMock(cfg.Index.VectorDim)

	seenSet := bloom.New(cacheLayer.Client(), "similar_seen_recently", 100000, 0.01)

	similarityEngine := similarity.New(resilientGateway, embedder, cacheLayer, cfg.Similarity, logger, tracer, seenSet)

	prefsStore := personalization.NewPreferenceStore(cacheLayer.Client())
	historyStore := readhistory.New(cacheLayer.Client(), cfg.TTLs.ReadHistory)
	personalizationEngine := personalization.New(resilientGateway, embedder, cacheLayer, prefsStore, historyStore, cfg.Personalization, logger, tracer)

	metricsTracker := metrics.New(cacheLayer.Client(), cfg.TTLs.DailyViews, cfg.TTLs.Engagement, logger)

	server := &httpapi.Server{
		Gateway:         resilientGateway,
		Cache:           cacheLayer,
		Similarity:      similarityEngine,
		Personalization: personalizationEngine,
		Preferences:     prefsStore,
		History:         historyStore,
		Metrics:         metricsTracker,
		Logger:          logger,
		RequestTimeout:  cfg.API.RequestTimeout,
		EnableCORS:      cfg.API.EnableCORS,
	}

	httpServer := &http.Server{
		Addr:         cfg.API.ListenAddress,
		Handler:      server.NewRouter(),
		ReadTimeout:  cfg.API.RequestTimeout,
		WriteTimeout: cfg.API.RequestTimeout,
	}

	go func() {
		logger.Info("listening", map[string]interface{}{"address": cfg.API.ListenAddress})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("received shutdown signal", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("server stopped gracefully", nil)
}
