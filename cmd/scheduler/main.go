package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/andisari/loan-engine/internal/config"
	"github.com/andisari/loan-engine/internal/engine"
	"github.com/andisari/loan-engine/internal/repository"
	"github.com/andisari/loan-engine/internal/service"
	"github.com/andisari/loan-engine/pkg/logger"
)

// The scheduler runs the daily penalty-accrual sweep: every active loan's
// overdue installments get their penalty recomputed and their status moved
// to overdue. The sweep is idempotent, so a missed or repeated run is safe.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	productRepo := repository.NewProductRepository(db)

	products, err := productRepo.List(context.Background())
	if err != nil {
		zapLogger.Fatal("failed to load products", zap.Error(err))
	}
	catalog := engine.NewCatalog(products, cfg.Business.CurrencyPlaces)
	eng := engine.New(engine.Config{
		CurrencyPlaces:     cfg.Business.CurrencyPlaces,
		MonthlyPenaltyRate: cfg.GetMonthlyPenaltyRate(),
		BounceCharge:       cfg.GetBounceCharge(),
		FieldVisitCharge:   cfg.GetFieldVisitCharge(),
		LegalOneTimeFee:    cfg.GetLegalOneTimeFee(),
		LegalWeeklyFee:     cfg.GetLegalWeeklyFee(),
	}, catalog)

	loanService := service.NewLoanService(loanRepo, paymentRepo, eng, redisClient, zapLogger)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		zapLogger.Fatal("invalid scheduler timezone", zap.Error(err))
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))
	_, err = c.AddFunc(cfg.Scheduler.AccrualSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		updated, err := loanService.AccrueOverdue(ctx, time.Now().In(location))
		if err != nil {
			zapLogger.Error("accrual sweep failed", zap.Error(err))
			return
		}
		zapLogger.Info("accrual sweep completed", zap.Int("installments_updated", updated))
	})
	if err != nil {
		zapLogger.Fatal("failed to schedule accrual job", zap.Error(err))
	}

	c.Start()
	zapLogger.Info("scheduler started", zap.String("spec", cfg.Scheduler.AccrualSpec))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down scheduler")
	<-c.Stop().Done()
	zapLogger.Info("scheduler stopped")
}
