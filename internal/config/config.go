package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                   string
	BackendURL             string
	TablesFile             string
	DefaultBranchID        string
	CatalogRefreshInterval time.Duration
	OrdersPollInterval     time.Duration
	HTTPTimeout            time.Duration
	AllowNegativeTotal     bool
	AllowedOrigins         []string
}

func Load() *Config {
	return &Config{
		Port:                   getEnv("PORT", "8082"),
		BackendURL:             getEnv("BACKEND_URL", "http://localhost:8081"),
		TablesFile:             getEnv("TABLES_FILE", "tables.json"),
		DefaultBranchID:        getEnv("DEFAULT_BRANCH_ID", ""),
		CatalogRefreshInterval: getDuration("CATALOG_REFRESH_INTERVAL", 30*time.Second),
		OrdersPollInterval:     getDuration("ORDERS_POLL_INTERVAL", 5*time.Second),
		HTTPTimeout:            getDuration("HTTP_TIMEOUT", 10*time.Second),
		AllowNegativeTotal:     getBool("ALLOW_NEGATIVE_TOTAL", true),
		AllowedOrigins:         getList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
