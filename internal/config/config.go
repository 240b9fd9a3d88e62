package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ErrCSRFKeyLength is returned when CSRF_KEY is not exactly 32 bytes.
var ErrCSRFKeyLength = errors.New("CSRF_KEY must be exactly 32 bytes")

// ErrSessionTTL is returned when SESSION_TTL is not positive.
var ErrSessionTTL = errors.New("SESSION_TTL must be positive")

// ErrSweepInterval is returned when SESSION_SWEEP_INTERVAL is not positive.
var ErrSweepInterval = errors.New("SESSION_SWEEP_INTERVAL must be positive")

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port                 int           `envconfig:"PORT" default:"8080"`
	LogLevel             string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL          string        `envconfig:"DATABASE_URL" default:""`
	Version              string        `envconfig:"VERSION" default:"dev"`
	JWTSecret            string        `envconfig:"JWT_SECRET" required:"true"`
	CSRFKey              string        `envconfig:"CSRF_KEY" required:"true"`
	GoogleClientID       string        `envconfig:"GOOGLE_CLIENT_ID" default:""`
	GoogleClientSecret   string        `envconfig:"GOOGLE_CLIENT_SECRET" default:""`
	GoogleCallbackURL    string        `envconfig:"GOOGLE_CALLBACK_URL" default:"http://localhost:8080/auth/callback"`
	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m"`
	SecureCookies        bool          `envconfig:"SECURE_COOKIES" default:"true"`
	BcryptCost           int           `envconfig:"BCRYPT_COST" default:"12"`
	TrustedOrigins       []string      `envconfig:"TRUSTED_ORIGINS" default:""`
	AllowedOrigins       []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

// Load reads configuration from environment variables into a Config struct.
// An empty DATABASE_URL is allowed; the service then runs without a store.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.CSRFKey) != 32 {
		return nil, ErrCSRFKeyLength
	}
	if cfg.SessionTTL <= 0 {
		return nil, ErrSessionTTL
	}
	if cfg.SessionSweepInterval <= 0 {
		return nil, ErrSweepInterval
	}
	return &cfg, nil
}
