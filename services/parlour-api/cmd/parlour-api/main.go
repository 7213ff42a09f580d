package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/utiibeauty/parlour/libs/auth"
	"github.com/utiibeauty/parlour/libs/config"
	"github.com/utiibeauty/parlour/libs/db"
	"github.com/utiibeauty/parlour/libs/httpx"
	"github.com/utiibeauty/parlour/libs/kafkax"
	otelx "github.com/utiibeauty/parlour/libs/otel"
	"github.com/utiibeauty/parlour/libs/runtime"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/audit"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/consumer"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/handlers"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/inbox"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/outbox"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/realtime"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/sessions"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := runtime.NewLogger(cfg.ServiceName)

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, cfg.Tracing)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	applied, err := storage.Migrate(ctx, pool)
	if err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", "versions", applied)
	}

	// Origin tags this process's outbox rows so the change consumer can skip them.
	instanceID := uuid.NewString()
	brokers := kafkax.SplitBrokers(cfg.KafkaBrokers)

	outboxRepo := outbox.NewRepository(pool, instanceID)
	admins := storage.NewAdminRepository(pool)
	shopStatuses := storage.NewShopStatusRepository(pool, outboxRepo)
	bookingRepo := storage.NewBookingRepository(pool, outboxRepo)
	reviewRepo := storage.NewReviewRepository(pool, outboxRepo)
	refreshRepo := sessions.NewRefreshRepository(pool)
	auditRepo := audit.NewRepository(pool)

	if err := bootstrap(ctx, logger, cfg, admins, shopStatuses); err != nil {
		logger.Error("bootstrap failed", "err", err)
		os.Exit(1)
	}

	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	limiter := httpx.Limiter(httpx.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute))
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		limiter = httpx.NewRedisLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "parlour:ratelimit")
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb), Optional: true})
	}
	if len(brokers) > 0 {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers), Optional: true})
	}

	hub := realtime.NewHub(logger, config.SplitList(cfg.CORSAllowedOrigins))

	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go publisher.Run(ctx)

	if len(brokers) > 0 {
		changes := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
			Brokers: brokers,
			GroupID: cfg.ServiceName + "-changes-" + instanceID,
			Topic:   outbox.TopicShopStatusUpdated,
			Origin:  instanceID,
		}, consumer.ShopStatusHandler(hub))
		go changes.Run(ctx)
	}

	go purgeRefreshTokens(ctx, logger, refreshRepo)

	signer := auth.NewHS256(cfg.JWTSecret)
	requireAdmin := handlers.RequireAdmin(signer)

	router := newRouter(routeDeps{
		logger:       logger,
		auth:         handlers.NewAuthHandler(signer, admins, refreshRepo, auditRepo, logger, cfg.accessTTL(), cfg.refreshTTL()),
		shopStatus:   handlers.NewShopStatusHandler(shopStatuses, hub, auditRepo, logger, requireAdmin),
		bookings:     handlers.NewBookingsHandler(bookingRepo, auditRepo, logger),
		reviews:      handlers.NewReviewsHandler(reviewRepo, auditRepo, logger, cfg.ReviewAutoApprove),
		audit:        handlers.NewAuditHandler(auditRepo),
		hub:          hub,
		requireAdmin: requireAdmin,
		limiter:      limiter,
		corsOrigins:  config.SplitList(cfg.CORSAllowedOrigins),
		readyChecks:  readyChecks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "parlour-api"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "instance_id", instanceID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func bootstrap(ctx context.Context, logger *slog.Logger, cfg apiConfig, admins *storage.AdminRepository, shopStatuses *storage.ShopStatusRepository) error {
	if cfg.AdminEmail != "" {
		admin, err := admins.Upsert(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return err
		}
		logger.Info("admin account ready", "admin_id", admin.ID, "email", admin.Email)
	}
	if cfg.ShopStatusSeed {
		seeded, err := shopStatuses.EnsureSeeded(ctx)
		if err != nil {
			return err
		}
		if seeded {
			logger.Info("shop status seeded", "is_open", true)
		}
	}
	return nil
}

func purgeRefreshTokens(ctx context.Context, logger *slog.Logger, repo *sessions.RefreshRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx, time.Now().Add(-24*time.Hour))
			if err != nil {
				logger.Warn("refresh token purge failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("expired refresh tokens purged", "count", n)
			}
		}
	}
}
