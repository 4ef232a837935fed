package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/thandalhq/thandal-engine/internal/config"
	"github.com/thandalhq/thandal-engine/internal/handler"
	"github.com/thandalhq/thandal-engine/internal/repository"
	"github.com/thandalhq/thandal-engine/internal/service"
	"github.com/thandalhq/thandal-engine/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := newLogger(cfg)

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	loanRepo := repository.NewLoanRepository(db)
	repaymentRepo := repository.NewRepaymentRepository(db)
	capitalRepo := repository.NewCapitalRepository(db)
	borrowerRepo := repository.NewBorrowerRepository(db)

	// Initialize service
	ledgerService := service.NewLedgerService(loanRepo, repaymentRepo, capitalRepo, borrowerRepo, redisClient, cfg, log)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Setup routes
	router := setupRoutes(ledgerHandler, healthHandler, log)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(ledgerHandler *handler.LedgerHandler, healthHandler *handler.HealthHandler, log *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log))

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/borrowers", ledgerHandler.CreateBorrower).Methods("POST")
	api.HandleFunc("/borrowers/{borrowerId}/risk", ledgerHandler.GetRiskAssessment).Methods("GET")
	api.HandleFunc("/loans", ledgerHandler.IssueLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}", ledgerHandler.GetLoanDetails).Methods("GET")
	api.HandleFunc("/loans/{loanId}/payment", ledgerHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/due-today", ledgerHandler.GetTodayDue).Methods("GET")
	api.HandleFunc("/close-day", ledgerHandler.CloseDay).Methods("POST")
	api.HandleFunc("/history", ledgerHandler.GetHistory).Methods("GET")
	api.HandleFunc("/capital", ledgerHandler.GetCapital).Methods("GET")
	api.HandleFunc("/capital", ledgerHandler.InitializeCapital).Methods("POST")
	api.HandleFunc("/capital/adjust", ledgerHandler.AdjustCapital).Methods("POST")

	return router
}
