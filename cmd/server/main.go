package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"coursecart-be/internal/cart"
	"coursecart-be/internal/catalog"
	"coursecart-be/internal/checkout"
	"coursecart-be/internal/config"
	"coursecart-be/internal/db"
	"coursecart-be/internal/enrollment"
	"coursecart-be/internal/events"
	"coursecart-be/internal/httpapi"
	"coursecart-be/internal/jobs"
	"coursecart-be/internal/logger"
	"coursecart-be/internal/metrics"
	"coursecart-be/internal/middleware"
	"coursecart-be/internal/notify"
	"coursecart-be/internal/order"
	"coursecart-be/internal/payment"
	"coursecart-be/internal/payment/webhook"
	"coursecart-be/internal/user"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.NewDatabase
	startServerFunc = func(s *httpapi.Server) error { return s.Start() }
)

// app holds everything main has to start and stop.
type app struct {
	server    *httpapi.Server
	scheduler *jobs.Scheduler
	limiter   *middleware.RateLimiter
	publisher events.Publisher
}

func newApp(cfg *config.Config, database *sql.DB) (*app, error) {
	m := metrics.New()

	userSvc := user.NewService(user.NewRepository(database))
	catalogSvc := catalog.NewService(
		catalog.NewRepository(database),
		catalog.NewLookupRepository(database),
	)
	enrollmentSvc := enrollment.NewService(enrollment.NewRepository(database))
	cartSvc := cart.NewService(cart.NewRepository(database), catalogSvc, enrollmentSvc)

	publisher := events.NewPublisher(events.ParseBrokers(cfg.KafkaBrokers), cfg.KafkaOrderTopic)
	mailer := notify.NewMailer(cfg.SendgridAPIKey, cfg.MailFrom)
	orderSvc := order.NewService(order.NewRepository(database), userSvc, publisher, mailer, m)

	gateway := payment.NewRazorpayGateway(payment.RazorpayConfig{
		KeyID:         cfg.RazorpayKeyID,
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
		BaseURL:       cfg.RazorpayBaseURL,
	}, m)
	webhooks := webhook.NewWebhookHandler(orderSvc, gateway, payment.NewRepository(database), m)

	checkoutSvc := checkout.NewService(checkout.Deps{
		Cart:        cartSvc,
		Catalog:     catalogSvc,
		Enrollments: enrollmentSvc,
		Orders:      orderSvc,
		Gateway:     gateway,
		Metrics:     m,
		Currency:    cfg.Currency,
	})

	scheduler := jobs.NewScheduler(orderSvc, cfg.OrderExpiry)
	if err := scheduler.ScheduleOrderExpiry(cfg.OrderSweepSpec); err != nil {
		return nil, err
	}

	limiter := middleware.NewRateLimiter(cfg.InternalAPIKey)

	server := httpapi.NewServer(&httpapi.Options{
		Address:      ":" + cfg.AppPort,
		CORSOrigins:  cfg.CORSOrigins,
		SecureCookie: cfg.IsProduction(),
		DB:           database,
		Users:        userSvc,
		Catalog:      catalogSvc,
		Cart:         cartSvc,
		Checkout:     checkoutSvc,
		Orders:       orderSvc,
		Enrollments:  enrollmentSvc,
		Webhooks:     webhooks,
		Metrics:      m,
		Limiter:      limiter,
	})

	return &app{
		server:    server,
		scheduler: scheduler,
		limiter:   limiter,
		publisher: publisher,
	}, nil
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := initDBFunc(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	a, err := newApp(cfg, database)
	if err != nil {
		return err
	}
	defer a.publisher.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.scheduler.Start()
	go a.limiter.RunCleanup(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- startServerFunc(a.server)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.L().Error("server stopped", zap.Error(err))
			a.scheduler.Stop(context.Background())
			return err
		}
	case <-ctx.Done():
		logger.L().Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("graceful shutdown failed", zap.Error(err))
	}
	a.scheduler.Stop(shutdownCtx)

	logger.L().Info("server exited")
	return nil
}

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
