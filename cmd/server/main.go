package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/qolzam/telar-recaptcha/internal/cache"
	"github.com/qolzam/telar-recaptcha/internal/middleware/ratelimit"
	"github.com/qolzam/telar-recaptcha/internal/pkg/log"
	platformconfig "github.com/qolzam/telar-recaptcha/internal/platform/config"
	"github.com/qolzam/telar-recaptcha/internal/recaptcha"
	"github.com/qolzam/telar-recaptcha/internal/server"
	"github.com/qolzam/telar-recaptcha/verify"
	"github.com/qolzam/telar-recaptcha/verify/repository"
)

func main() {
	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		log.Error("Failed to load platform config: %v", err)
		os.Exit(1)
	}
	log.SetDebug(cfg.Server.Debug)

	validator, err := recaptcha.NewValidator(
		recaptcha.Policy{
			SecretKey:  cfg.Recaptcha.SecretKey,
			MinScore:   cfg.Recaptcha.MinScore,
			BypassCode: cfg.Recaptcha.BypassCode,
			Hostname:   cfg.Recaptcha.Hostname,
		},
		recaptcha.WithEndpoint(cfg.Recaptcha.Endpoint),
		recaptcha.WithHTTPClient(&http.Client{Timeout: cfg.Recaptcha.Timeout}),
	)
	if err != nil {
		log.Error("Failed to create recaptcha validator: %v", err)
		os.Exit(1)
	}
	if cfg.Recaptcha.BypassCode != "" {
		log.Warn("reCAPTCHA bypass code is configured; matching tokens skip remote verification")
	}

	svc := verify.NewService(validator)

	if cfg.Cache.Enabled {
		store, err := cache.New(&cache.CacheConfig{
			TTL:             cfg.Cache.TTL,
			Prefix:          cfg.Cache.Prefix,
			Backend:         cache.CacheType(cfg.Cache.Backend),
			MaxMemory:       cfg.Cache.MaxMemory,
			CleanupInterval: cfg.Cache.CleanupInterval,
			Redis: cache.RedisConfig{
				Address:      cfg.Cache.Redis.Address,
				Password:     cfg.Cache.Redis.Password,
				Database:     cfg.Cache.Redis.Database,
				PoolSize:     cfg.Cache.Redis.PoolSize,
				MinIdleConns: cfg.Cache.Redis.MinIdleConns,
				MaxConnAge:   cfg.Cache.Redis.MaxConnAge,

				ClusterAddresses: cfg.Cache.Redis.ClusterAddresses,
			},
		})
		if err != nil {
			log.Error("Failed to create replay guard cache: %v", err)
			os.Exit(1)
		}
		defer store.Close()
		svc = svc.WithReplayGuard(verify.NewReplayGuard(store, cfg.Cache.TTL))
		log.Info("Replay guard enabled (%s backend, ttl %s)", cfg.Cache.Backend, cfg.Cache.TTL)
	}

	if cfg.Audit.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := repository.OpenPostgres(ctx, repository.PostgresConfig{
			DSN:             cfg.Audit.DSN,
			MaxOpenConns:    cfg.Audit.MaxOpenConns,
			MaxIdleConns:    cfg.Audit.MaxIdleConns,
			ConnMaxLifetime: cfg.Audit.ConnMaxLifetime,
		})
		if err != nil {
			cancel()
			log.Error("Failed to open audit database: %v", err)
			os.Exit(1)
		}
		defer db.Close()

		auditRepo := repository.NewPostgresAuditRepository(db)
		err = auditRepo.EnsureSchema(ctx)
		cancel()
		if err != nil {
			log.Error("Failed to prepare audit schema: %v", err)
			os.Exit(1)
		}
		svc = svc.WithAudit(auditRepo)
		log.Info("Audit trail enabled")
	}

	app := server.New(server.Config{
		ProxyHeader:    cfg.Server.ProxyHeader,
		TrustedProxies: cfg.Server.TrustedProxies,
	})
	if cfg.Server.ProxyHeader != "" {
		log.Info("Client IP taken from %s (trusted proxies: %v)", cfg.Server.ProxyHeader, cfg.Server.TrustedProxies)
	} else if cfg.Recaptcha.UseClientIP || cfg.RateLimit.Enabled {
		log.Warn("PROXY_HEADER is not set; client IP is the TCP peer address")
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.WebDomain,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	if cfg.RateLimit.Enabled {
		limits := ratelimit.Config{Max: cfg.RateLimit.Max, Window: cfg.RateLimit.Duration}
		log.Info("Verify rate limit: %s", limits.String())
	}

	handler := verify.NewHandler(svc, cfg.Recaptcha.UseClientIP)
	verify.RegisterRoutes(app.Group(cfg.Server.BaseRoute), handler, verify.RouteOptions{
		HMACSecret:       cfg.HMAC.Secret,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimitMax:     cfg.RateLimit.Max,
		RateLimitWindow:  cfg.RateLimit.Duration,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("Server shutdown failed: %v", err)
		}
	}()

	log.Info("reCAPTCHA verification service listening on %s%s", cfg.Server.Address(), cfg.Server.BaseRoute)
	if err := app.Listen(cfg.Server.Address()); err != nil {
		log.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
