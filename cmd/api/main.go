package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"call-ingest/internal/auth"
	"call-ingest/internal/calls"
	"call-ingest/internal/config"
	"call-ingest/internal/httpapi"
	"call-ingest/internal/reporting"
	"call-ingest/internal/telephony"
	"call-ingest/pkg/logger"
	"call-ingest/pkg/metrics"
	"call-ingest/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// .env is optional; real env wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	policy, err := calls.ParsePolicy(cfg.Webhook.UpsertPolicy)
	if err != nil {
		log.Error("invalid upsert policy", "err", err)
		os.Exit(1)
	}

	m := metrics.New()

	// Missing storage config is not fatal: the call endpoints answer 500
	// until the operator fixes the environment.
	var (
		repo calls.Repository
		pg   *calls.PostgresRepo
	)
	if err := cfg.Storage.Validate(); err != nil {
		log.Error("storage not configured; call endpoints will return 500", "err", err)
	} else {
		db, err := calls.Open(rootCtx, cfg.Storage)
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		pg = calls.NewPostgresRepo(db)
		repo = pg
	}

	var cache calls.ListingCache
	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
		if err != nil {
			// The cache is an optimization; run without it.
			log.Warn("redis unavailable; listing cache disabled", "err", err)
		} else {
			defer func(rdb *redis.Client) { _ = rdb.Close() }(rdb)
			cache = calls.NewRedisListingCache(rdb, cfg.Redis.CacheTTL)
		}
	}

	svc := calls.NewService(repo, calls.Options{Policy: policy, Cache: cache, Metrics: m})

	var verifier telephony.Verifier = telephony.AllowAll{}
	if cfg.Webhook.SigningSecret != "" {
		verifier = telephony.NewHMACVerifier(cfg.Webhook.SigningSecret, cfg.Webhook.SignatureTolerance)
	} else {
		log.Warn("webhook signature verification disabled")
	}

	deps := routeDeps{
		Webhook: telephony.RetellWebhookHandler{
			Calls:        svc,
			Verifier:     verifier,
			Metrics:      m,
			MaxBodyBytes: cfg.Webhook.MaxBodyBytes,
		},
		API: httpapi.Handlers{
			Calls:     svc,
			Reporting: reporting.NewService(svc),
		},
		Metrics:   m,
		RateLimit: httpapi.RateLimit(cfg.Listing.RateLimit, cfg.Listing.RateBurst),
	}
	if pg != nil {
		deps.API.Ping = pg.Ping
	}
	if cfg.Auth.JWTSecret != "" {
		authManager, err := auth.NewManager(cfg.Auth)
		if err != nil {
			log.Error("auth init failed", "err", err)
			os.Exit(1)
		}
		deps.AuthMW = auth.RequireAccessToken(authManager)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening",
			"addr", srv.Addr,
			"env", cfg.App.Env,
			"storage", svc.Configured(),
			"policy", string(svc.Policy()),
			"cache", cache != nil,
			"auth", deps.AuthMW != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
