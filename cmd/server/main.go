package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/release-agent/modules/analytics"
	"github.com/dmitrymomot/release-agent/modules/auth"
	"github.com/dmitrymomot/release-agent/modules/releases"
	"github.com/dmitrymomot/release-agent/modules/system"
	"github.com/dmitrymomot/release-agent/modules/tokens"
	"github.com/dmitrymomot/release-agent/modules/users"
	"github.com/dmitrymomot/release-agent/pkg/apitoken"
	"github.com/dmitrymomot/release-agent/pkg/cache"
	"github.com/dmitrymomot/release-agent/pkg/config"
	"github.com/dmitrymomot/release-agent/pkg/jwt"
	"github.com/dmitrymomot/release-agent/pkg/logger"
	"github.com/dmitrymomot/release-agent/pkg/opensearch"
	"github.com/dmitrymomot/release-agent/pkg/pg"
	"github.com/dmitrymomot/release-agent/pkg/redis"
)

type appConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	TokenSecret    string        `env:"TOKEN_SECRET,required"`
	TokenAlgorithm jwt.Algorithm `env:"TOKEN_ALGORITHM" envDefault:"HS256"`

	CacheDriver   string        `env:"CACHE_DRIVER" envDefault:"memory"` // memory or redis
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	CacheCapacity int           `env:"CACHE_CAPACITY" envDefault:"128"`

	AnalyticsIndex string `env:"ANALYTICS_INDEX" envDefault:"release-feed-requests"`

	Logger     logger.Config
	Postgres   pg.Config
	Redis      redis.Config
	OpenSearch opensearch.Config
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewFromConfig(cfg.Logger, "release-agent")
	slog.SetDefault(log)

	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	probes := map[string]system.Probe{
		"postgres": pg.Healthcheck(pool),
	}

	var feedStore cache.Store
	switch cfg.CacheDriver {
	case "redis":
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		feedStore = cache.NewRedisStore(client, "release-agent")
		probes["redis"] = redis.Healthcheck(client)
	case "memory":
		feedStore = cache.NewMemoryStore(cfg.CacheCapacity)
	default:
		return fmt.Errorf("unknown cache driver %q", cfg.CacheDriver)
	}

	var recorder analytics.Recorder = analytics.NoopRecorder{}
	if cfg.OpenSearch.Enabled() {
		osClient, err := opensearch.New(ctx, cfg.OpenSearch)
		if err != nil {
			return fmt.Errorf("connect opensearch: %w", err)
		}
		recorder = analytics.NewOpenSearchRecorder(osClient, cfg.AnalyticsIndex, log)
		probes["opensearch"] = opensearch.Healthcheck(osClient)
	}

	jwtSvc, err := jwt.NewFromString(cfg.TokenSecret, cfg.TokenAlgorithm)
	if err != nil {
		return fmt.Errorf("init signing service: %w", err)
	}
	codec, err := apitoken.NewCodec(jwtSvc)
	if err != nil {
		return fmt.Errorf("init token codec: %w", err)
	}

	tokenRepo := tokens.NewRepository(pool)
	userRepo := users.NewRepository(pool)
	releaseRepo := releases.NewRepository(pool)

	verifier := auth.NewVerifier(codec, tokens.NewRevocationStore(tokenRepo), log)
	tokenSvc := tokens.NewService(tokenRepo, apitoken.NewIssuer(codec), log)
	releaseCache := releases.NewCache(feedStore, cfg.CacheTTL, log)
	releaseHandler := releases.NewHandler(releaseRepo, releaseCache, recorder)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/health", system.NewHealthHandler(probes))
	r.Mount("/api/v1/releases", releaseHandler.PublicRouter())

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(auth.Middleware(verifier))
		r.Mount("/releases", releaseHandler.AdminRouter())
		r.Mount("/tokens", tokens.NewHandler(tokenSvc, tokenRepo).Router())
		r.Mount("/users", users.NewHandler(userRepo).Router())
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
