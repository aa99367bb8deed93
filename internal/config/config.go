package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Business  BusinessConfig  `mapstructure:"business"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"DATABASE_HOST"`
	Port            string        `mapstructure:"DATABASE_PORT"`
	Name            string        `mapstructure:"DATABASE_NAME"`
	User            string        `mapstructure:"DATABASE_USER"`
	Password        string        `mapstructure:"DATABASE_PASSWORD"`
	SSLMode         string        `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	AccrualSpec string `mapstructure:"SCHEDULER_ACCRUAL_SPEC"`
	Timezone    string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// BusinessConfig carries the operational constants the engine consumes. They
// vary per deployment, so they are configuration rather than code.
type BusinessConfig struct {
	MonthlyPenaltyRate string `mapstructure:"MONTHLY_PENALTY_RATE"`
	BounceCharge       string `mapstructure:"BOUNCE_CHARGE_AMOUNT"`
	FieldVisitCharge   string `mapstructure:"FIELD_VISIT_CHARGE_AMOUNT"`
	LegalOneTimeFee    string `mapstructure:"LEGAL_ONE_TIME_FEE"`
	LegalWeeklyFee     string `mapstructure:"LEGAL_WEEKLY_FEE"`
	CurrencyPlaces     int32  `mapstructure:"CURRENCY_PLACES"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "15s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("DATABASE_HOST", "localhost")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("SCHEDULER_ACCRUAL_SPEC", "0 0 0 * * *")
	viper.SetDefault("SCHEDULER_TIMEZONE", "Asia/Jakarta")
	viper.SetDefault("MONTHLY_PENALTY_RATE", "0.03")
	viper.SetDefault("BOUNCE_CHARGE_AMOUNT", "25000")
	viper.SetDefault("FIELD_VISIT_CHARGE_AMOUNT", "15000")
	viper.SetDefault("LEGAL_ONE_TIME_FEE", "500000")
	viper.SetDefault("LEGAL_WEEKLY_FEE", "50000")
	viper.SetDefault("CURRENCY_PLACES", 0)

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("DATABASE_NAME is required")
	}

	if c.Business.CurrencyPlaces < 0 {
		return fmt.Errorf("CURRENCY_PLACES must not be negative")
	}

	rates := map[string]string{
		"MONTHLY_PENALTY_RATE":      c.Business.MonthlyPenaltyRate,
		"BOUNCE_CHARGE_AMOUNT":      c.Business.BounceCharge,
		"FIELD_VISIT_CHARGE_AMOUNT": c.Business.FieldVisitCharge,
		"LEGAL_ONE_TIME_FEE":        c.Business.LegalOneTimeFee,
		"LEGAL_WEEKLY_FEE":          c.Business.LegalWeeklyFee,
	}
	for key, value := range rates {
		if _, err := decimal.NewFromString(value); err != nil {
			return fmt.Errorf("%s must be a valid decimal: %w", key, err)
		}
	}

	if c.Scheduler.AccrualSpec == "" {
		return fmt.Errorf("SCHEDULER_ACCRUAL_SPEC is required")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

func (c *Config) GetMonthlyPenaltyRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.MonthlyPenaltyRate)
	return rate
}

func (c *Config) GetBounceCharge() decimal.Decimal {
	amount, _ := decimal.NewFromString(c.Business.BounceCharge)
	return amount
}

func (c *Config) GetFieldVisitCharge() decimal.Decimal {
	amount, _ := decimal.NewFromString(c.Business.FieldVisitCharge)
	return amount
}

func (c *Config) GetLegalOneTimeFee() decimal.Decimal {
	amount, _ := decimal.NewFromString(c.Business.LegalOneTimeFee)
	return amount
}

func (c *Config) GetLegalWeeklyFee() decimal.Decimal {
	amount, _ := decimal.NewFromString(c.Business.LegalWeeklyFee)
	return amount
}
