package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andisari/loan-engine/internal/config"
	"github.com/andisari/loan-engine/internal/engine"
	"github.com/andisari/loan-engine/internal/handler"
	"github.com/andisari/loan-engine/internal/repository"
	"github.com/andisari/loan-engine/internal/service"
	"github.com/andisari/loan-engine/pkg/logger"
	"github.com/andisari/loan-engine/pkg/response"
)

func main() {
	// .env is optional; viper falls back to real environment variables
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

	db, err := initDB(cfg)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	productRepo := repository.NewProductRepository(db)

	eng, err := buildEngine(cfg, productRepo)
	if err != nil {
		zapLogger.Fatal("failed to build engine", zap.Error(err))
	}

	loanService := service.NewLoanService(loanRepo, paymentRepo, eng, redisClient, zapLogger)
	loanHandler := handler.NewLoanHandler(loanService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(loanHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
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

// buildEngine loads the product rate table and wires the engine with the
// deployment's business constants.
func buildEngine(cfg *config.Config, productRepo repository.ProductRepository) (*engine.Engine, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	products, err := productRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	catalog := engine.NewCatalog(products, cfg.Business.CurrencyPlaces)
	return engine.New(engine.Config{
		CurrencyPlaces:     cfg.Business.CurrencyPlaces,
		MonthlyPenaltyRate: cfg.GetMonthlyPenaltyRate(),
		BounceCharge:       cfg.GetBounceCharge(),
		FieldVisitCharge:   cfg.GetFieldVisitCharge(),
		LegalOneTimeFee:    cfg.GetLegalOneTimeFee(),
		LegalWeeklyFee:     cfg.GetLegalWeeklyFee(),
	}, catalog), nil
}

func setupRoutes(loanHandler *handler.LoanHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/loans/preview", loanHandler.PreviewLoan).Methods("GET")
	api.HandleFunc("/loans", loanHandler.CreateLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}/schedule", loanHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/loans/{loanId}/outstanding", loanHandler.GetOutstanding).Methods("GET")
	api.HandleFunc("/loans/{loanId}/payment", loanHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/loans/{loanId}/payments", loanHandler.ListPayments).Methods("GET")
	api.HandleFunc("/loans/{loanId}/charges", loanHandler.ApplyCharge).Methods("POST")
	api.HandleFunc("/loans/{loanId}/charges", loanHandler.ListCharges).Methods("GET")
	api.HandleFunc("/loans/{loanId}/topup", loanHandler.TopUp).Methods("POST")

	return router
}
