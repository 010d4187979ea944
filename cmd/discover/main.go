package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discover/internal/config"
	dbRedis "github.com/kailas-cloud/discover/internal/db/redis"
	logpkg "github.com/kailas-cloud/discover/internal/logger"
	"github.com/kailas-cloud/discover/internal/metrics"
	"github.com/kailas-cloud/discover/internal/repository/cache"
	chiTransport "github.com/kailas-cloud/discover/internal/transport/chi"
	"github.com/kailas-cloud/discover/internal/transport/elastic"
	"github.com/kailas-cloud/discover/internal/transport/share"
	healthuc "github.com/kailas-cloud/discover/internal/usecase/health"
	searchuc "github.com/kailas-cloud/discover/internal/usecase/search"
	"github.com/kailas-cloud/discover/internal/version"
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

	logger.Info("Starting discover API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("search_url", cfg.Search.URL),
		zap.String("provider", cfg.Discover.Provider),
		zap.Bool("cache", cfg.Cache.Enabled()),
	)

	metrics.RegisterSearchMetrics()

	timeout := time.Duration(cfg.Search.TimeoutSec) * time.Second
	backend, err := elastic.New(&elastic.Config{
		URL:      cfg.Search.URL,
		Path:     cfg.Search.Path,
		Username: cfg.Search.Username,
		Password: cfg.Search.Password,
		Timeout:  timeout,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Failed to create search backend client", zap.Error(err))
	}

	// Nil interfaces, not typed nil pointers, when a dependency is disabled.
	var typeSource searchuc.TypeSource
	if cfg.Search.ShareAPIURL != "" {
		sc, err := share.New(cfg.Search.ShareAPIURL, timeout)
		if err != nil {
			logger.Fatal("Failed to create SHARE API client", zap.Error(err))
		}
		typeSource = sc
	}

	var (
		cacheRepo   searchuc.Cache
		cachePinger healthuc.Pinger
	)
	if cfg.Cache.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:          cfg.Cache.Addrs,
			Username:       cfg.Cache.Username,
			Password:       cfg.Cache.Password,
			DB:             cfg.Cache.DB,
			Standalone:     cfg.Cache.Standalone,
			ClientCacheTTL: time.Duration(cfg.Cache.ClientCacheSec) * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(context.Background(), readiness); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))

		cacheRepo = cache.New(store, cache.Config{
			Prefix:    cfg.Cache.KeyPrefix,
			CountsTTL: time.Duration(cfg.Cache.CountsTTLSec) * time.Second,
			TypesTTL:  time.Duration(cfg.Cache.TypesTTLSec) * time.Second,
		}, metrics.CacheTotal, logger)
		cachePinger = store
	}

	searchSvc := searchuc.New(backend, typeSource, cacheRepo, searchuc.Config{
		Mapping:      cfg.Discover.Mapping(),
		Locked:       cfg.Discover.LockedFilters(),
		ShareBaseURL: cfg.Search.ShareBaseURL,
	})
	healthSvc := healthuc.New(healthuc.DefaultTimeout,
		healthuc.Component{Name: "search", Pinger: backend, Critical: true},
		healthuc.Component{Name: "cache", Pinger: cachePinger},
	)

	server := chiTransport.NewServer(searchSvc, healthSvc, cfg.Discover.PageSize, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware("/metrics"))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "route not found")
	})
	server.Routes(r)

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// jsonRecoverer turns a handler panic into a JSON 500.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware logs one line per request and attaches a request-scoped logger.
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
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
