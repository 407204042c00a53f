package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"storeadmin/pkg/database"
)

type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type SyncConfig struct {
	FeedAddr string `yaml:"feed_addr"` // empty disables the TCP feed
	GRPCAddr string `yaml:"grpc_addr"` // gRPC health service; empty disables it
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTDuration time.Duration `yaml:"jwt_duration"`
}

type CatalogConfig struct {
	Currency string        `yaml:"currency"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type SelectionConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Sync      SyncConfig      `yaml:"sync"`
	Database  database.Config `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Selection SelectionConfig `yaml:"selection"`
	Log       LogConfig       `yaml:"log"`
	Features  map[string]bool `yaml:"features"`
}

// FeatureCommentsM3 gates the single-comment view.
const FeatureCommentsM3 = "comments/management/m3-design"

func DefaultConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Addr: ":8080", TrustedProxies: []string{"127.0.0.1"}},
		Sync:     SyncConfig{FeedAddr: ":7070", GRPCAddr: ":7071"},
		Database: database.DefaultConfig(),
		Auth: AuthConfig{
			// dev default (change for production)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "storeadmin",
			JWTDuration: 24 * time.Hour,
		},
		Catalog:   CatalogConfig{Currency: "USD", CacheTTL: 5 * time.Minute},
		Selection: SelectionConfig{SessionTTL: 30 * time.Minute},
		Log:       LogConfig{Level: "info"},
		Features:  map[string]bool{FeatureCommentsM3: true},
	}
}

// LoadConfig layers defaults, the optional YAML file at path and STOREADMIN_*
// environment variables, in that order. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STOREADMIN_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v, ok := os.LookupEnv("STOREADMIN_FEED_ADDR"); ok {
		cfg.Sync.FeedAddr = v
	}
	if v, ok := os.LookupEnv("STOREADMIN_GRPC_ADDR"); ok {
		cfg.Sync.GRPCAddr = v
	}
	if v := os.Getenv("STOREADMIN_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("STOREADMIN_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("STOREADMIN_JWT_ISSUER"); v != "" {
		cfg.Auth.JWTIssuer = v
	}
	// hours; a bad value keeps the previous duration
	if v := os.Getenv("STOREADMIN_JWT_TTL_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			cfg.Auth.JWTDuration = time.Duration(h) * time.Hour
		}
	}
	if v := os.Getenv("STOREADMIN_CURRENCY"); v != "" {
		cfg.Catalog.Currency = strings.ToUpper(v)
	}
	if v := os.Getenv("STOREADMIN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv("STOREADMIN_FEATURES"); ok {
		cfg.Features = map[string]bool{}
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				cfg.Features[f] = true
			}
		}
	}
}

func (c Config) IsEnabled(feature string) bool {
	return c.Features[feature]
}
