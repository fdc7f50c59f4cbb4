package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/medisync/medisync-backend/internal/stock/events"
	"github.com/medisync/medisync-backend/internal/stock/handler"
	"github.com/medisync/medisync-backend/internal/stock/notify"
	"github.com/medisync/medisync-backend/internal/stock/repository"
	"github.com/medisync/medisync-backend/internal/stock/service"
	"github.com/medisync/medisync-backend/pkg/auth"
	"github.com/medisync/medisync-backend/pkg/config"
	"github.com/medisync/medisync-backend/pkg/database"
	"github.com/medisync/medisync-backend/pkg/httputil"
	"github.com/medisync/medisync-backend/pkg/logger"
	"github.com/medisync/medisync-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("stock-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("stock-service", cfg.Server.Environment)
	log.Info().Msg("starting Stock Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher and notification dispatcher
	publisher, err := events.NewStockEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	dispatcher, err := notify.NewAMQPDispatcher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create notification dispatcher")
	}

	// Initialize repositories
	lotRepo := repository.NewLotRepository(db)
	dispenseRepo := repository.NewDispenseEventRepository(db)
	alertStateRepo := repository.NewAlertStateRepository(db)

	// Initialize services
	stockService := service.NewStockService(db, lotRepo, dispenseRepo, publisher, cfg.Alerts.ExpiryWindowDays, log)
	gate := service.NewAlertGate(lotRepo, alertStateRepo, dispatcher, cfg.Alerts.HourOfDay, cfg.Alerts.ExpiryWindowDays, log)
	scheduler := service.NewAlertScheduler(gate, cfg.Alerts.CheckInterval, log)

	// Initialize auth
	jwtManager := auth.NewManager(&cfg.JWT)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(&cfg.Auth, jwtManager, log)
	lotHandler := handler.NewLotHandler(stockService, log)
	dispenseHandler := handler.NewDispenseHandler(stockService, log)
	exportHandler := handler.NewExportHandler(stockService, log)
	alertHandler := handler.NewAlertHandler(gate, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the daily alert scheduler
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "stock-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// Public routes
	r.Post("/api/v1/auth/login", authHandler.Login)

	// API routes
	r.Route("/api/v1/stock", func(r chi.Router) {
		r.Use(httputil.Auth(jwtManager))

		r.Route("/lots", func(r chi.Router) {
			r.Get("/", lotHandler.List)
			r.Post("/", lotHandler.Intake)
			r.Get("/{id}", lotHandler.Get)
			r.Put("/{id}", lotHandler.Update)
			r.Delete("/{id}", lotHandler.Delete)
		})

		r.Get("/summary", lotHandler.Summary)

		r.Route("/dispenses", func(r chi.Router) {
			r.Get("/", dispenseHandler.List)
			r.Post("/", dispenseHandler.Create)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/inventory", exportHandler.ExportInventory)
			r.Get("/dispenses", exportHandler.ExportDispenses)
		})

		// Invoked by clients on app foreground; the scheduler covers
		// the rest of the day
		r.Post("/alerts/check", alertHandler.Check)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop the scheduler before closing connections
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
