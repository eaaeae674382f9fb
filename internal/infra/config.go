package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	Port          string
	DatabaseURL   string
	TriggerSecret string
	StoragePath   string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	RenderBaseURL   string
	AssembleBaseURL string
	PublishBaseURL  string
	PublishAPIKey   string

	DefaultLocale string

	GenerateBatchSize    int
	GenerateTemperature  float64
	RetryTemperatureBump float64
	DuplicateWindow      time.Duration
	ClaimLease           time.Duration
	ProviderTimeout      time.Duration

	// Per-stage claim mode: "batch" or "single". Expensive, side-effectful
	// stages default to single so the claim window stays at one row.
	GenerateMode string
	RenderMode   string
	AssembleMode string
	PublishMode  string

	LayoutConfigPath string

	// Default account scope for orphan reconciliation when the trigger call
	// does not name accounts itself.
	ReconcileAccounts []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		TriggerSecret: os.Getenv("TRIGGER_SECRET"),
		StoragePath:   getEnv("STORAGE_PATH", "./storage"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		RenderBaseURL:   getEnv("RENDER_BASE_URL", "http://localhost:9090"),
		AssembleBaseURL: getEnv("ASSEMBLE_BASE_URL", "http://localhost:9091"),
		PublishBaseURL:  getEnv("PUBLISH_BASE_URL", "http://localhost:9092"),
		PublishAPIKey:   os.Getenv("PUBLISH_API_KEY"),

		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),

		GenerateBatchSize:    getEnvInt("GENERATE_BATCH_SIZE", 5),
		GenerateTemperature:  getEnvFloat("GENERATE_TEMPERATURE", 0.7),
		RetryTemperatureBump: getEnvFloat("RETRY_TEMPERATURE_BUMP", 0.3),
		DuplicateWindow:      time.Hour * time.Duration(getEnvInt("DUPLICATE_WINDOW_HOURS", 24)),
		ClaimLease:           time.Minute * time.Duration(getEnvInt("CLAIM_LEASE_MINUTES", 10)),
		ProviderTimeout:      time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 120)),

		GenerateMode: getEnvMode("GENERATE_STAGE_MODE", "batch"),
		RenderMode:   getEnvMode("RENDER_STAGE_MODE", "single"),
		AssembleMode: getEnvMode("ASSEMBLE_STAGE_MODE", "single"),
		PublishMode:  getEnvMode("PUBLISH_STAGE_MODE", "single"),

		LayoutConfigPath: os.Getenv("LAYOUT_CONFIG_PATH"),

		ReconcileAccounts: getEnvList("RECONCILE_ACCOUNTS"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvMode(key, fallback string) string {
	v := strings.ToLower(getEnv(key, fallback))
	if v != "batch" && v != "single" {
		return fallback
	}
	return v
}
