package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/thandalhq/thandal-engine/internal/config"
	"github.com/thandalhq/thandal-engine/internal/repository"
	"github.com/thandalhq/thandal-engine/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := newLogger(cfg)
	log.Info("Starting day-close scheduler...")

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	repaymentRepo := repository.NewRepaymentRepository(db)
	capitalRepo := repository.NewCapitalRepository(db)
	borrowerRepo := repository.NewBorrowerRepository(db)

	ledgerService := service.NewLedgerService(loanRepo, repaymentRepo, capitalRepo, borrowerRepo, redisClient, cfg, log)

	// Initialize cron scheduler in the configured timezone
	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.Location()))

	_, err = c.AddFunc(cfg.Scheduler.DayCloseSpec, func() {
		runDayClose(loanRepo, ledgerService, log)
	})
	if err != nil {
		log.Fatalf("Error scheduling day-close job: %v", err)
	}

	c.Start()
	log.Info("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}

// runDayClose sweeps every lender that still has active loans. CloseDay is
// idempotent per calendar day, so a duplicate or retried trigger is safe.
func runDayClose(loanRepo repository.LoanRepository, svc *service.LedgerService, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	lenders, err := loanRepo.ListLendersWithActiveLoans(ctx)
	if err != nil {
		log.WithError(err).Error("day-close: listing lenders failed")
		return
	}

	for _, lenderID := range lenders {
		result, err := svc.CloseDay(ctx, lenderID)
		if err != nil {
			log.WithError(err).WithField("lender_id", lenderID).Error("day-close failed")
			continue
		}
		log.WithFields(logrus.Fields{
			"lender_id": lenderID,
			"missed":    result.MissedCount,
			"collected": result.CollectedTotal,
		}).Info("day-close completed")
	}
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
