package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string

	// TLS/mTLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string // CA for verifying client certs (mTLS)

	// Stores
	DatabaseURL string
	RedisURL    string // empty disables the shared fast store (in-memory fallback)

	// Control API auth
	APIToken string // bearer token for the control endpoints

	// Text model
	LLMBaseURL      string
	LLMAPIKey       string
	LLMModel        string
	ClassifierModel string

	// Rate limits (sliding windows)
	RateActorPerMinute  int
	RateActorPerHour    int
	RateGlobalPerMinute int

	// Control-plane timings
	CheckTimeout  time.Duration // per store call on the live-turn path
	PauseTTL      time.Duration // fast-store TTL for operator takeover
	SuppressTTL   time.Duration // fast-store TTL for campaign suppression
	RepopulateTTL time.Duration // TTL used when re-populating the fast store

	// Response shaping
	MaxSentences int

	// Classification job
	ClassifyInterval    time.Duration // 0 disables the periodic job
	ClassifyBatchSize   int
	ClassifyParallelism int
	ClassifyPause       time.Duration // delay between batches

	// Email (SMTP) - hot-lead notifications
	SMTPHost     string // empty disables email
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // "none", "tls", or "starttls"
	NotifyEmails string // comma-separated recipients for hot-lead alerts
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:         getEnv("ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		TLSEnabled:  getEnv("TLS_ENABLED", "") != "",
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),
		TLSCAFile:   getEnv("TLS_CA_FILE", ""),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/salespilot?sslmode=disable"),
		RedisURL:    getEnv("REDIS_URL", ""),

		APIToken: getEnv("API_TOKEN", ""),

		LLMBaseURL:      getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:       getEnv("LLM_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", "gpt-4o-mini"),
		ClassifierModel: getEnv("CLASSIFIER_MODEL", "gpt-4o-mini"),

		RateActorPerMinute:  getEnvInt("RATE_ACTOR_PER_MINUTE", 8),
		RateActorPerHour:    getEnvInt("RATE_ACTOR_PER_HOUR", 40),
		RateGlobalPerMinute: getEnvInt("RATE_GLOBAL_PER_MINUTE", 120),

		CheckTimeout:  getEnvDuration("CHECK_TIMEOUT", 500*time.Millisecond),
		PauseTTL:      getEnvDuration("PAUSE_TTL", 6*time.Hour),
		SuppressTTL:   getEnvDuration("SUPPRESS_TTL", 72*time.Hour),
		RepopulateTTL: getEnvDuration("REPOPULATE_TTL", 10*time.Minute),

		MaxSentences: getEnvInt("MAX_SENTENCES", 3),

		ClassifyInterval:    getEnvDuration("CLASSIFY_INTERVAL", 0),
		ClassifyBatchSize:   getEnvInt("CLASSIFY_BATCH_SIZE", 20),
		ClassifyParallelism: getEnvInt("CLASSIFY_PARALLELISM", 4),
		ClassifyPause:       getEnvDuration("CLASSIFY_PAUSE", 5*time.Second),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "SalesPilot"),
		SMTPTLS:      getEnv("SMTP_TLS", "starttls"),
		NotifyEmails: getEnv("NOTIFY_EMAILS", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsMTLSEnabled returns true if mTLS is configured with a CA file.
func (c *Config) IsMTLSEnabled() bool {
	return c.TLSEnabled && c.TLSCAFile != ""
}

// IsEmailEnabled returns true if SMTP is configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}
