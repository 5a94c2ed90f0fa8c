package internal

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env           string              `mapstructure:"env" env:"APP_ENV" envDefault:"development"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Import        ImportConfig        `mapstructure:"import"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" env:"HTTP_PORT" envDefault:"8080" validate:"min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url" env:"BASE_URL"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" env:"ALLOWED_ORIGINS"`
	TrustProxy        bool          `mapstructure:"trust_proxy" env:"TRUST_PROXY" envDefault:"false"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" env:"DB_MAX_OPEN_CONNS" envDefault:"25" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" envDefault:"5" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" envDefault:"30m" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m" validate:"required,min=1m"`
	Source          string        `mapstructure:"source" env:"DATABASE_URL" validate:"required"`
}

type SecurityConfig struct {
	SessionSecret string        `mapstructure:"session_secret" env:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" env:"SESSION_TTL" envDefault:"168h" validate:"min=1h"`
	CookieName    string        `mapstructure:"cookie_name" env:"SESSION_COOKIE_NAME" envDefault:"contacthub_session" validate:"required"`
	CookieSecure  bool          `mapstructure:"cookie_secure" env:"SESSION_COOKIE_SECURE" envDefault:"true"`
	BCryptCost    int           `mapstructure:"bcrypt_cost" env:"BCRYPT_COST" envDefault:"12" validate:"required,min=10,max=15"`
	LoginRate     string        `mapstructure:"login_rate" env:"LOGIN_RATE" envDefault:"10-M" validate:"required"`
}

type StorageConfig struct {
	UploadDir      string `mapstructure:"upload_dir" env:"UPLOAD_DIR" envDefault:"./uploads" validate:"required"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" envDefault:"10485760" validate:"required,min=1"`
}

type ImportConfig struct {
	MaxWorkers   int           `mapstructure:"max_workers" env:"IMPORT_MAX_WORKERS" envDefault:"2" validate:"min=1"`
	JobQueueSize int           `mapstructure:"job_queue_size" env:"IMPORT_JOB_QUEUE_SIZE" envDefault:"100" validate:"min=1"`
	StartDelay   time.Duration `mapstructure:"start_delay" env:"IMPORT_START_DELAY" envDefault:"0s"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" env:"METRICS_ENABLED" envDefault:"false"`
	Path    string `mapstructure:"path" env:"METRICS_PATH" envDefault:"/metrics" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" env:"LOG_FORMAT" envDefault:"json" validate:"required,oneof=json text"`
}

const minSessionSecretLength = 32

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfigFromEnv reads the configuration from environment variables.
func LoadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// ----------------- VALIDATION -----------------

var structValidator = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	var errs []string

	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(c.IsProduction()); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range c.Origins() {
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *ServerConfig) Origins() []string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

// Validate rejects a missing or short session secret. Outside production an
// empty secret is left for EnsureSessionSecret to fill.
func (c *SecurityConfig) Validate(production bool) error {
	if c.SessionSecret == "" {
		if production {
			return errors.New("session_secret is required in production")
		}
		return nil
	}
	if len(c.SessionSecret) < minSessionSecretLength {
		return fmt.Errorf("session_secret must be at least %d characters", minSessionSecretLength)
	}
	return nil
}

// EnsureSessionSecret generates an ephemeral random secret when none is
// configured. It reports whether a secret was generated.
func (c *SecurityConfig) EnsureSessionSecret() (bool, error) {
	if c.SessionSecret != "" {
		return false, nil
	}
	buf := make([]byte, minSessionSecretLength)
	if _, err := rand.Read(buf); err != nil {
		return false, fmt.Errorf("failed to generate session secret: %w", err)
	}
	c.SessionSecret = hex.EncodeToString(buf)
	return true, nil
}
