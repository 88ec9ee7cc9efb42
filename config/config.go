package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	PesaFlux PesaFluxConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// PesaFluxConfig holds the merchant credentials for the STK push API.
// AccountEmail doubles as the merchant identifier written to every ledger row.
type PesaFluxConfig struct {
	BaseURL            string
	APIKey             string
	AccountEmail       string
	ReferencePrefix    string
	DefaultAmount      int64
	DefaultDescription string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8080"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second, // websocket status watch outlives normal requests
		},
		Database: DatabaseConfig{
			DSN:             getenv("MYSQL_DSN", "farepay:farepay@tcp(localhost:3306)/farepay?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		PesaFlux: PesaFluxConfig{
			BaseURL:            getenv("PESAFLUX_BASE_URL", "https://api.pesaflux.co.ke"),
			APIKey:             getenv("PESAFLUX_API_KEY", "PSFXPCGLCY37"),
			AccountEmail:       getenv("PESAFLUX_EMAIL", "silverstonesolutions103@gmail.com"),
			ReferencePrefix:    getenv("PAYMENT_REFERENCE_PREFIX", "FARE"),
			DefaultAmount:      getInt64("PAYMENT_DEFAULT_AMOUNT", 149),
			DefaultDescription: getenv("PAYMENT_DEFAULT_DESCRIPTION", "FARE Account Activation"),
		},
	}
}
