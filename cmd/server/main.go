// Command server runs the consent dashboard API: an HTTP JSON surface over
// the consent record store, with an audit trail worker and a background
// status sweep.
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

	"golang.org/x/sync/errgroup"

	"consentdesk/internal/audit"
	"consentdesk/internal/auth"
	"consentdesk/internal/consent"
	"consentdesk/internal/consent/cache"
	consenthandler "consentdesk/internal/consent/handler"
	consentservice "consentdesk/internal/consent/service"
	"consentdesk/internal/platform/config"
	"consentdesk/internal/platform/httpserver"
	"consentdesk/internal/platform/logger"
	"consentdesk/internal/platform/metrics"
	platformpg "consentdesk/internal/platform/postgres"
	"consentdesk/internal/platform/ratelimit"
	platformredis "consentdesk/internal/platform/redis"
	"consentdesk/internal/seed"
	httptransport "consentdesk/internal/transport/http"
	"consentdesk/internal/user"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when configured, otherwise in-memory with demo data.
	var (
		consentStore consent.Store
		userStore    user.Store
	)
	db, err := platformpg.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		consentStore = consent.NewPostgresStore(db)
		userStore = user.NewPostgresStore(db)
		log.Info("using postgres store")
	} else {
		memConsent := consent.NewInMemoryStore()
		memUsers := user.NewInMemoryStore()
		if cfg.SeedDemoData {
			if err := seed.Demo(ctx, memUsers, memConsent, log); err != nil {
				return err
			}
		}
		consentStore = memConsent
		userStore = memUsers
		log.Info("using in-memory store", "seeded", cfg.SeedDemoData)
	}

	// Optional Redis stats cache.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Audit trail: memory store, optional Kafka mirror.
	auditStore := audit.NewInMemoryStore()
	var publisher audit.Publisher
	if kp, err := audit.NewKafkaPublisher(cfg.Kafka); err != nil {
		return err
	} else if kp != nil {
		defer kp.Close()
		publisher = kp
	}
	auditWorker := audit.NewWorker(auditStore, publisher, log)

	m := metrics.New()

	svcOpts := []consentservice.Option{
		consentservice.WithAuditor(auditWorker),
		consentservice.WithMetrics(m),
	}
	if redisClient != nil {
		svcOpts = append(svcOpts, consentservice.WithStatsCache(
			cache.NewRedisStatsCache(redisClient, cfg.Redis.StatsTTL, log)))
	}
	consentSvc := consentservice.New(consentStore, userStore, log, consentservice.Config{
		ExpiringWindow:   cfg.ExpiringWindow,
		RenewalExtension: cfg.RenewalExtension,
	}, svcOpts...)

	tokens := auth.NewTokenService(cfg.JWTSigningKey, 24*time.Hour)
	authSvc := auth.NewService(userStore, tokens, log)

	checks := map[string]httptransport.HealthChecker{}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit > 0 {
		limiter = ratelimit.NewLimiter(cfg.RateLimit, time.Minute)
	}

	router := httptransport.New(httptransport.Config{
		Logger:  log,
		Metrics: m,
		Limiter: limiter,
		Handlers: []httptransport.Registrar{
			consenthandler.New(consentSvc, log,
				consenthandler.WithAuth(tokens),
				consenthandler.WithPageSize(cfg.PageSize)),
			auth.NewHandler(authSvc, log),
			audit.NewHandler(auditStore, log),
		},
		Checks: checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting consentdesk", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return ignoreCancel(auditWorker.Run(ctx))
	})
	g.Go(func() error {
		return ignoreCancel(consentSvc.RunSweeper(ctx, cfg.SweepInterval))
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// ignoreCancel treats context cancellation as a clean shutdown.
func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
