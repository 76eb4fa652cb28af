package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is only suitable for local development.
const DefaultJWTSecret = "default-secret-key-change-me"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Authz     AuthzConfig     `mapstructure:"authz"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	ConnectRetries int           `mapstructure:"connect_retries"`
	RetryInterval  time.Duration `mapstructure:"retry_interval"`
	MaxOpenConns   int           `mapstructure:"max_open_conns"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// IdentityConfig selects how token subjects are resolved to users.
// "local" reads the users table; "remote" asks a sibling instance over HTTP.
type IdentityConfig struct {
	Mode       string        `mapstructure:"mode"`
	URL        string        `mapstructure:"url"`
	ServiceKey string        `mapstructure:"service_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
}

type StorageConfig struct {
	UploadDir      string `mapstructure:"upload_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type AuthzConfig struct {
	AdminBypass bool `mapstructure:"admin_bypass"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads .env (without overriding real environment variables) and then
// the environment, applying defaults and validating the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	cfg.Identity.Mode = strings.ToLower(cfg.Identity.Mode)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "team_tasks.db")
	v.SetDefault("database.connect_retries", 30)
	v.SetDefault("database.retry_interval", 2*time.Second)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("jwt.secret", DefaultJWTSecret)
	v.SetDefault("jwt.ttl", 30*time.Minute)

	v.SetDefault("identity.mode", "local")
	v.SetDefault("identity.url", "")
	v.SetDefault("identity.service_key", "")
	v.SetDefault("identity.timeout", 5*time.Second)
	v.SetDefault("identity.retries", 3)

	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.max_upload_bytes", 10<<20)

	v.SetDefault("admin.email", "admin@example.com")
	v.SetDefault("admin.password", "adminpassword")

	v.SetDefault("authz.admin_bypass", false)

	v.SetDefault("logging.level", "info")

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o")

	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"server.host",
		"server.port",
		"server.mode",
		"server.shutdown_timeout",
		"server.request_timeout",
		"database.driver",
		"database.dsn",
		"database.connect_retries",
		"database.retry_interval",
		"database.max_open_conns",
		"database.max_idle_conns",
		"jwt.secret",
		"jwt.ttl",
		"identity.mode",
		"identity.url",
		"identity.service_key",
		"identity.timeout",
		"identity.retries",
		"storage.upload_dir",
		"storage.max_upload_bytes",
		"admin.email",
		"admin.password",
		"authz.admin_bypass",
		"logging.level",
		"sentry.dsn",
		"sentry.environment",
		"openai.api_key",
		"openai.model",
		"rate_limit.rps",
		"rate_limit.burst",
		"cors.allowed_origins",
	}

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Names used by older deployments.
	_ = v.BindEnv("server.mode", "SERVER_MODE", "GIN_MODE")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET", "SECRET_KEY")
	_ = v.BindEnv("database.dsn", "DATABASE_DSN", "DATABASE_URL")
}

// Validate ensures required fields are present and consistent.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port is required")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be positive")
	}
	switch c.Identity.Mode {
	case "local":
	case "remote":
		if c.Identity.URL == "" {
			return errors.New("identity.url is required in remote mode")
		}
	default:
		return fmt.Errorf("identity.mode %q is not supported", c.Identity.Mode)
	}
	if c.Storage.UploadDir == "" {
		return errors.New("storage.upload_dir is required")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return errors.New("storage.max_upload_bytes must be positive")
	}
	if c.Admin.Email == "" {
		return errors.New("admin.email is required")
	}
	return nil
}

// ServerAddr returns host:port for HTTP server binding.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
