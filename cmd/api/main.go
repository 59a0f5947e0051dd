package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/brightsmile-ai/receptionist/internal/api/router"
	"github.com/brightsmile-ai/receptionist/internal/appointments"
	appconfig "github.com/brightsmile-ai/receptionist/internal/config"
	"github.com/brightsmile-ai/receptionist/internal/notify"
	"github.com/brightsmile-ai/receptionist/internal/observability/metrics"
	"github.com/brightsmile-ai/receptionist/internal/realtime"
	"github.com/brightsmile-ai/receptionist/internal/schedule"
	"github.com/brightsmile-ai/receptionist/internal/voice"
	"github.com/brightsmile-ai/receptionist/internal/voice/retellclient"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting receptionist API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	hours, err := schedule.ParseHours(cfg.BusinessHoursOpen, cfg.BusinessHoursClose)
	if err != nil {
		logger.Warn("invalid business hours, using default window", "error", err)
		hours = schedule.DefaultHours
	}

	// Storage. Without DATABASE_URL the server runs fully in memory, which is
	// enough for demos and local development.
	var (
		repo  appointments.Repository
		calls voice.CallStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = appointments.NewPostgresRepository(pool)
		calls = voice.NewPostgresCallStore(pool)
		logger.Info("using postgres storage")
	} else {
		repo = appointments.NewInMemoryRepository()
		calls = voice.NewInMemoryCallStore()
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Redis pub/sub for live dashboards.
	var (
		broadcaster appointments.Broadcaster
		hub         *realtime.Hub
	)
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		broadcaster = notify.NewRedisBroadcaster(rdb, logger)
		hub = realtime.NewHub(rdb, cfg.CORSAllowedOrigins, logger)
	} else {
		logger.Warn("REDIS_ADDR not set, booking events disabled")
	}

	// Metrics
	promReg := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(promReg)

	// Staff email notifications
	var notifier appointments.StaffNotifier
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil && cfg.NotifyEmail != "" {
		notifier = notify.NewBookingEmailNotifier(sender, cfg.NotifyEmail, logger)
	}

	// Booking operations
	checker := appointments.NewChecker(appointments.CheckerConfig{
		Repo:    repo,
		Hours:   hours,
		Timeout: cfg.BookingTimeout,
		Logger:  logger,
		Metrics: bookingMetrics,
	})
	booker := appointments.NewBooker(appointments.BookerConfig{
		Repo:        repo,
		Broadcaster: broadcaster,
		Notifier:    notifier,
		Timeout:     cfg.BookingTimeout,
		Logger:      logger,
		Metrics:     bookingMetrics,
		Ephemeral:   cfg.DemoMode,
	})
	dispatcher := voice.NewDispatcher(voice.DispatcherConfig{
		Checker:         checker,
		Booker:          booker,
		DefaultClinicID: cfg.DefaultClinicID,
		Logger:          logger,
	})

	// Voice provider client for browser calls
	var webCallClient voice.WebCallClient
	if cfg.RetellAPIKey != "" {
		rc, err := retellclient.New(retellclient.Config{
			BaseURL: cfg.RetellBaseURL,
			APIKey:  cfg.RetellAPIKey,
			Logger:  logger.Logger,
		})
		if err != nil {
			logger.Error("failed to create retell client", "error", err)
			os.Exit(1)
		}
		webCallClient = rc
	}

	// Setup router
	routerCfg := &router.Config{
		Logger: logger,
		RetellHandler: voice.NewRetellHandler(voice.RetellHandlerConfig{
			Dispatcher: dispatcher,
			Calls:      calls,
			Logger:     logger,
			Metrics:    bookingMetrics,
		}),
		VapiHandler:         voice.NewVapiHandler(dispatcher, logger, bookingMetrics),
		WebCallHandler:      voice.NewWebCallHandler(webCallClient, cfg.RetellAgentID, logger),
		AppointmentsHandler: appointments.NewHandler(repo, logger),
		DashboardHub:        hub,
		StaffAuthSecret:     cfg.StaffJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		MetricsHandler:      promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
		WebhookRPS:          20,
		WebhookBurst:        40,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
