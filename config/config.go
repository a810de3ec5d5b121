package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "food_ordering_dev_secret"

// Config is the process configuration resolved from the environment and an optional .env file
type Config struct {
	Port                string
	GinMode             string
	DBDriver            string
	DBDSN               string
	JWTSecret           []byte
	TokenTTL            time.Duration
	LogLevel            string
	LogFormat           string
	PublicBaseURL       string
	PaymentSuccessURL   string
	PaymentCancelURL    string
	StockRetryBudget    int
	BacklogPollInterval time.Duration
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"GIN_MODE":              "debug",
	"DB_DRIVER":             "sqlite",
	"DB_DSN":                "food_ordering.db",
	"JWT_SECRET":            "",
	"TOKEN_TTL":             "24h",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"PUBLIC_BASE_URL":       "http://localhost:8080",
	"PAYMENT_SUCCESS_URL":   "",
	"PAYMENT_CANCEL_URL":    "",
	"STOCK_RETRY_BUDGET":    3,
	"BACKLOG_POLL_INTERVAL": "1m",
}

// Load reads .env (if present) then the process environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:                v.GetString("PORT"),
		GinMode:             v.GetString("GIN_MODE"),
		DBDriver:            v.GetString("DB_DRIVER"),
		DBDSN:               v.GetString("DB_DSN"),
		JWTSecret:           []byte(v.GetString("JWT_SECRET")),
		TokenTTL:            v.GetDuration("TOKEN_TTL"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		PublicBaseURL:       v.GetString("PUBLIC_BASE_URL"),
		PaymentSuccessURL:   v.GetString("PAYMENT_SUCCESS_URL"),
		PaymentCancelURL:    v.GetString("PAYMENT_CANCEL_URL"),
		StockRetryBudget:    v.GetInt("STOCK_RETRY_BUDGET"),
		BacklogPollInterval: v.GetDuration("BACKLOG_POLL_INTERVAL"),
	}

	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		return Config{}, fmt.Errorf("GIN_MODE: unknown mode %q (want debug, release or test)", cfg.GinMode)
	}
	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("DB_DRIVER: unsupported driver %q (want sqlite or postgres)", cfg.DBDriver)
	}
	if len(cfg.JWTSecret) == 0 {
		if cfg.GinMode == "release" {
			return Config{}, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		cfg.JWTSecret = []byte(devJWTSecret)
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("TOKEN_TTL must be a positive duration")
	}
	if cfg.StockRetryBudget <= 0 {
		return Config{}, fmt.Errorf("STOCK_RETRY_BUDGET must be greater than 0")
	}
	if cfg.BacklogPollInterval <= 0 {
		return Config{}, fmt.Errorf("BACKLOG_POLL_INTERVAL must be a positive duration")
	}
	if cfg.PaymentSuccessURL == "" {
		cfg.PaymentSuccessURL = cfg.PublicBaseURL + "/payments/success"
	}
	if cfg.PaymentCancelURL == "" {
		cfg.PaymentCancelURL = cfg.PublicBaseURL + "/payments/cancel"
	}
	return cfg, nil
}
