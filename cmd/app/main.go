package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studioslot/internal/auth"
	"studioslot/internal/booking"
	"studioslot/internal/class"
	"studioslot/internal/config"
	"studioslot/internal/db"
	"studioslot/internal/email"
	"studioslot/internal/events"
	"studioslot/internal/favorite"
	"studioslot/internal/logger"
	"studioslot/internal/notify"
	"studioslot/internal/pass"
	"studioslot/internal/policy"
	"studioslot/internal/promotion"
	"studioslot/internal/server"
	"studioslot/internal/user"

	"github.com/redis/go-redis/v9"
)

// @title StudioSlot API
// @version 1.0
// @description Class booking, passes and waitlists for a fitness studio.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting StudioSlot", "env", cfg.Env, "refund_window", cfg.RefundWindow.String())

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := email.New(rdb, email.SMTPConfig{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
	})
	go mailer.Start(ctx)

	// Without a broker the studio still books; events are simply not published.
	var publisher notify.Publisher
	if p, err := events.NewPublisher(cfg.AMQPURL, cfg.EventsExchange); err != nil {
		logger.Warn("Event publishing disabled", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	tx := db.NewTxManager(database, cfg.TxMaxRetries)

	userRepo := user.NewRepository(database)
	userService := user.NewService(userRepo)

	passRepo := pass.NewRepository(database)
	ledger := pass.NewLedger(passRepo, tx)

	classRepo := class.NewRepository(database)
	tracker := class.NewTracker(classRepo)
	classService := class.NewService(classRepo, tracker)

	bookingService := booking.NewService(
		booking.NewRepository(database),
		classRepo,
		tracker,
		ledger,
		userService,
		policy.NewEvaluator(cfg.RefundWindow),
		tx,
		notify.NewDispatcher(userRepo, mailer, publisher),
		auth.NewCheckInSigner(cfg.JWTSecret),
	)

	promotionService := promotion.NewService(promotion.NewRepository(database), rdb, cfg.PromotionCacheTTL)

	go pass.Sweep(ctx, ledger, cfg.PassSweepInterval)

	if consumer, err := events.NewConsumer(cfg.AMQPURL, cfg.EventsExchange, cfg.PassEventsQueue,
		[]string{events.KeyPassIssued, events.KeyPassToppedUp}); err != nil {
		logger.Warn("Pass event consumer disabled", "error", err)
	} else {
		defer consumer.Close()
		go func() {
			if err := events.NewPassConsumer(ledger, consumer).Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Pass event consumer stopped", "error", err)
			}
		}()
	}

	srv := server.New(cfg, server.Handlers{
		Users:      user.NewHandler(userService),
		Classes:    class.NewHandler(classService),
		Passes:     pass.NewHandler(ledger),
		Bookings:   booking.NewHandler(bookingService),
		Favorites:  favorite.NewHandler(favorite.NewRepository(database)),
		Promotions: promotion.NewHandler(promotionService),
	}, database, mailer)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mailer.QueueLength(ctx)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	cancel()

	logger.Info("Server stopped")
}
