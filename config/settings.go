package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings holds every environment-driven knob of the API and the CLI.
type Settings struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	GinMode     string `env:"GIN_MODE"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	DebugSQL    bool   `env:"DEBUG_SQL"`

	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBDatabase string `env:"DB_DATABASE" envDefault:"diwan"`
	DBUsername string `env:"DB_USERNAME"`
	DBPassword string `env:"DB_PASSWORD"`

	JWTSecret      string `env:"JWT_SECRET"`
	JWTExpireHours int    `env:"JWT_EXPIRE_HOURS" envDefault:"24"`

	SMTPHost          string `env:"SMTP_HOST"`
	SMTPPort          int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser          string `env:"SMTP_USER"`
	SMTPPass          string `env:"SMTP_PASS"`
	SMTPFrom          string `env:"SMTP_FROM"` // e.g. "ديوان المعرفة <no-reply@diwan.org>"
	SMTPSkipTLSVerify bool   `env:"SMTP_SKIP_TLS_VERIFY"`

	FrontendURL    string   `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE" envDefault:"logs/diwan-api.log"`

	AllowResubmission bool          `env:"WORKFLOW_ALLOW_RESUBMISSION"`
	CommentMaxLength  int           `env:"WORKFLOW_COMMENT_MAX_LENGTH" envDefault:"1000"`
	ViewWriteAttempts int           `env:"VIEW_WRITE_ATTEMPTS" envDefault:"3"`
	ViewRetryBackoff  time.Duration `env:"VIEW_RETRY_BACKOFF" envDefault:"50ms"`

	OTelEndpoint    string `env:"OTEL_EXPORTER_ENDPOINT"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"diwan-api"`
}

// Load reads .env (when present) and parses the environment into Settings.
func Load() (*Settings, error) {
	// A missing .env is normal in containers; variables come from the environment.
	_ = godotenv.Load()

	var settings Settings
	if err := env.Parse(&settings); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &settings, nil
}

// IsProduction reports whether ENVIRONMENT=production.
func (s *Settings) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// Validate checks the settings the API server cannot start without.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if s.CommentMaxLength <= 0 {
		return fmt.Errorf("WORKFLOW_COMMENT_MAX_LENGTH must be positive")
	}
	if s.ViewWriteAttempts <= 0 {
		return fmt.Errorf("VIEW_WRITE_ATTEMPTS must be positive")
	}
	return nil
}

// DSN builds the MySQL data source name.
func (s *Settings) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		s.DBUsername,
		s.DBPassword,
		s.DBHost,
		s.DBPort,
		s.DBDatabase,
	)
}
