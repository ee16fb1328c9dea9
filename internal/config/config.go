package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string `env:"PORT" envDefault:"8080"`

	// Database
	DatabaseType   string `env:"DATABASE_TYPE" envDefault:"sqlite"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DatabasePath   string `env:"DB_PATH" envDefault:"./casetrack.db"`
	MigrationsPath string `env:"MIGRATIONS_PATH"` // empty uses the embedded migrations

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Auth
	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`
	// Peers allowed to set X-Forwarded-For; empty trusts none
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Prediction models
	ModelsPath   string `env:"MODELS_PATH" envDefault:"./models"`
	DefaultModel string `env:"DEFAULT_MODEL" envDefault:"random_forest"`

	// HTTP
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Email (Amazon SES); empty SES_FROM_EMAIL disables notifications
	AWSRegion    string `env:"AWS_REGION" envDefault:"us-east-1"`
	SESFromEmail string `env:"SES_FROM_EMAIL"`
	SESFromName  string `env:"SES_FROM_NAME" envDefault:"Case Management"`
	AppBaseURL   string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	EmailDebug   bool   `env:"EMAIL_DEBUG" envDefault:"false"`
}

// DefaultEnvFiles are read, when present, before the process environment is parsed.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Load reads configuration from .env files and environment variables with sensible defaults
func Load() (*Config, error) {
	if err := loadEnvFiles(DefaultEnvFiles); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// loadEnvFiles loads only the files that exist; godotenv fails on missing files.
// Variables already set in the environment win.
func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env files %v: %w", existing, err)
	}
	return nil
}
