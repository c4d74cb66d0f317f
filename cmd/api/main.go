package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/tickethub/helpdesk/internal/api/http"
	"github.com/tickethub/helpdesk/internal/api/http/handlers"
	"github.com/tickethub/helpdesk/internal/auth"
	"github.com/tickethub/helpdesk/internal/config"
	"github.com/tickethub/helpdesk/internal/events"
	"github.com/tickethub/helpdesk/internal/idempotency"
	"github.com/tickethub/helpdesk/internal/observability"
	"github.com/tickethub/helpdesk/internal/persistence"
	"github.com/tickethub/helpdesk/internal/ratelimit"
	"github.com/tickethub/helpdesk/internal/repository"
	"github.com/tickethub/helpdesk/internal/service"
	"github.com/tickethub/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		userRepo    repository.UserRepository
		ticketRepo  repository.TicketRepository
		commentRepo repository.CommentRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		userRepo = repository.NewUserRepository(pool)
		ticketRepo = repository.NewTicketRepository(pool)
		commentRepo = repository.NewCommentRepository(pool)
	} else {
		memComments := repository.NewMemoryCommentRepository()
		userRepo = repository.NewMemoryUserRepository()
		ticketRepo = repository.NewMemoryTicketRepository(memComments)
		commentRepo = memComments
	}

	var (
		limiter ratelimit.Limiter
		ledger  idempotency.Ledger
	)
	if redis.Available(ctx) {
		limiter = ratelimit.NewRedisLimiter(redis.Client, cfg.RateLimit.Limit, cfg.RateLimit.Window())
		ledger = idempotency.NewRedisLedger(redis.Client, cfg.Idempotency.Retention())
	} else {
		logger.Warn("redis unavailable; using in-process rate limiter")
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window())
		if pool := pg.PoolHandle(); pool != nil {
			ledger = idempotency.NewPostgresLedger(pool, cfg.Idempotency.Retention())
		} else {
			ledger = idempotency.NewMemoryLedger(cfg.Idempotency.Retention())
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authService := service.NewAuthService(*cfg, userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})
	commentService := service.NewCommentService(ticketRepo, commentRepo, dispatcher)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthChecks := map[string]handlers.HealthCheck{}
	if pg.PoolHandle() != nil {
		healthChecks["postgres"] = pg.Ping
	}
	if redis.Client != nil {
		healthChecks["redis"] = redis.Ping
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Env, healthChecks),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Comments:       handlers.NewCommentsHandler(commentService),
		AuthMiddleware: authMiddleware,
		RateLimit:      httptransport.NewRateLimitMiddleware(limiter),
		Idempotency:    httptransport.NewIdempotencyMiddleware(ledger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
