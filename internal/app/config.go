package app

import (
	"errors"
	"net"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the dashboard.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8501"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// WarehouseDSN empty means the stub runner serves empty result sets.
	WarehouseDSN string        `envconfig:"WAREHOUSE_DSN" default:""`
	RedisAddr    string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	SessionFile string        `envconfig:"SESSION_FILE" default:"data/user_session.json"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	AuditLogDir        string `envconfig:"AUDIT_LOG_DIR" default:"logs"`
	AuditRetentionDays int    `envconfig:"AUDIT_RETENTION_DAYS" default:"30"`

	BrandAPassword string `envconfig:"BRAND_A_PASSWORD" required:"true"`
	BrandBPassword string `envconfig:"BRAND_B_PASSWORD" required:"true"`
	AdminPassword  string `envconfig:"ADMIN_PASSWORD" required:"true"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Port extracts the listen port from AppAddr, for audit log file scoping.
func (c *Config) Port() string {
	if c == nil {
		return ""
	}
	_, port, err := net.SplitHostPort(c.AppAddr)
	if err != nil {
		return ""
	}
	return port
}
