// Package myconfig reads the process configuration from the environment,
// optionally seeded from a .env file.
package myconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendAuto   = "auto"
	BackendMemory = "memory"
	BackendGcloud = "gcloud"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Config struct {
	Port               string
	GoogleCloudProject string
	StoreBackend       string
	RedisAddr          string
	SQLitePath         string
	CartKey            string
	CatalogURL         string
	CatalogTimeout     time.Duration
	WriteTimeout       time.Duration
	Currency           string
}

func Load(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			err = godotenv.Load(envFile)
			if err != nil {
				return Config{}, fmt.Errorf("error loading env-file %s: %w", envFile, err)
			}
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_BACKEND", BackendAuto)
	v.SetDefault("SQLITE_PATH", "cart.db")
	v.SetDefault("CART_KEY", "cart")
	v.SetDefault("CATALOG_URL", "https://fakestoreapi.com")
	v.SetDefault("CATALOG_TIMEOUT", "5s")
	v.SetDefault("WRITE_TIMEOUT", "10s")
	v.SetDefault("CURRENCY", "EUR")

	cfg := Config{
		Port:               v.GetString("PORT"),
		GoogleCloudProject: v.GetString("GOOGLE_CLOUD_PROJECT"),
		StoreBackend:       v.GetString("STORE_BACKEND"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		SQLitePath:         v.GetString("SQLITE_PATH"),
		CartKey:            v.GetString("CART_KEY"),
		CatalogURL:         v.GetString("CATALOG_URL"),
		CatalogTimeout:     v.GetDuration("CATALOG_TIMEOUT"),
		WriteTimeout:       v.GetDuration("WRITE_TIMEOUT"),
		Currency:           v.GetString("CURRENCY"),
	}

	err := cfg.Validate()
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Backend resolves "auto" into the most durable backend the environment offers
func (c Config) Backend() string {
	if c.StoreBackend != BackendAuto {
		return c.StoreBackend
	}
	if c.GoogleCloudProject != "" {
		return BackendGcloud
	}
	if c.RedisAddr != "" {
		return BackendRedis
	}
	return BackendSQLite
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendAuto, BackendMemory, BackendSQLite:
	case BackendGcloud:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("STORE_BACKEND=%s requires GOOGLE_CLOUD_PROJECT", c.StoreBackend)
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("STORE_BACKEND=%s requires REDIS_ADDR", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.CartKey == "" {
		return fmt.Errorf("CART_KEY must not be empty")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("WRITE_TIMEOUT must be positive")
	}
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be positive")
	}

	return nil
}
