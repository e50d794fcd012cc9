package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	CORSAllowOrigins      string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSLMode        string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig describes how bearer tokens are verified.
type AuthConfig struct {
	JWKSURI     string
	Issuer      string
	Audience    string
	SigningAlgs []string
}

// RateLimitConfig controls per-caller throttling. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

var environments = []string{"development", "production", "test"}

// Load reads configuration from environment variables (and a .env file when
// present), applying defaults. Every missing or malformed value is reported.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "4000")
	v.SetDefault("APP_HOST", "0.0.0.0")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "TicketFlow API")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("HTTP_REQUEST_TIMEOUT_SECONDS", 0)
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "ticketflow_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 0)
	v.SetDefault("DB_RUN_MIGRATIONS", true)
	v.SetDefault("DB_CONN_MAX_IDLE_SECONDS", 30)
	v.SetDefault("DB_CONN_MAX_LIFE_SECONDS", 300)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AUTH_SIGNING_ALGS", "RS256")
	v.SetDefault("RATE_LIMIT_RPS", 0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("LOG_LEVEL", "info")

	env := &envReader{v: v}
	cfg := &Config{
		App: AppConfig{
			Name:                  v.GetString("APP_NAME"),
			Env:                   strings.ToLower(v.GetString("APP_ENV")),
			Host:                  v.GetString("APP_HOST"),
			Port:                  v.GetString("PORT"),
			Version:               v.GetString("APP_VERSION"),
			CORSAllowOrigins:      v.GetString("CORS_ALLOW_ORIGINS"),
			RequestTimeoutSeconds: env.intValue("HTTP_REQUEST_TIMEOUT_SECONDS"),
		},
		Postgres: PostgresConfig{
			Host:           v.GetString("DB_HOST"),
			Port:           env.intValue("DB_PORT"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASS"),
			Database:       v.GetString("DB_NAME"),
			SSLMode:        v.GetString("DB_SSLMODE"),
			MaxConns:       env.int32Value("DB_MAX_CONNS"),
			MinConns:       env.int32Value("DB_MIN_CONNS"),
			RunMigrations:  env.boolValue("DB_RUN_MIGRATIONS"),
			ConnMaxIdleSec: env.int32Value("DB_CONN_MAX_IDLE_SECONDS"),
			ConnMaxLifeSec: env.int32Value("DB_CONN_MAX_LIFE_SECONDS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       env.intValue("REDIS_DB"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Auth: AuthConfig{
			JWKSURI:     v.GetString("JWKS_URI"),
			Issuer:      v.GetString("ISSUER"),
			Audience:    v.GetString("AUDIENCE"),
			SigningAlgs: splitList(v.GetString("AUTH_SIGNING_ALGS")),
		},
		RateLimit: RateLimitConfig{
			RPS:   env.float64Value("RATE_LIMIT_RPS"),
			Burst: env.intValue("RATE_LIMIT_BURST"),
		},
	}

	if errs := append(env.errs, cfg.problems()...); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// Validate checks required values and formats.
func (c *Config) Validate() error {
	if errs := c.problems(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) problems() []error {
	var errs []error
	required := map[string]string{
		"DB_HOST":  c.Postgres.Host,
		"DB_USER":  c.Postgres.User,
		"DB_PASS":  c.Postgres.Password,
		"JWKS_URI": c.Auth.JWKSURI,
		"ISSUER":   c.Auth.Issuer,
	}
	for _, key := range []string{"DB_HOST", "DB_USER", "DB_PASS", "JWKS_URI", "ISSUER"} {
		if strings.TrimSpace(required[key]) == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	if c.Auth.JWKSURI != "" {
		u, err := url.Parse(c.Auth.JWKSURI)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, errors.New("JWKS_URI must be a valid http(s) URL"))
		}
	}
	if !contains(environments, c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of %s", strings.Join(environments, ", ")))
	}
	if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
		errs = append(errs, errors.New("DB_PORT must be a valid TCP port"))
	}
	if c.Postgres.MaxConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
	}
	if len(c.Auth.SigningAlgs) == 0 {
		errs = append(errs, errors.New("AUTH_SIGNING_ALGS must list at least one algorithm"))
	}
	return errs
}

// envReader converts raw values and records the keys that fail to parse,
// where viper's getters would fall back to zero.
type envReader struct {
	v    *viper.Viper
	errs []error
}

func (r *envReader) intValue(key string) int {
	n, err := cast.ToIntE(r.v.Get(key))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be an integer", key))
	}
	return n
}

func (r *envReader) int32Value(key string) int32 {
	n, err := cast.ToInt32E(r.v.Get(key))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be an integer", key))
	}
	return n
}

func (r *envReader) float64Value(key string) float64 {
	f, err := cast.ToFloat64E(r.v.Get(key))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a number", key))
	}
	return f
}

func (r *envReader) boolValue(key string) bool {
	b, err := cast.ToBoolE(r.v.Get(key))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a boolean", key))
	}
	return b
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return net.JoinHostPort(a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// DSN builds a postgres URL with credentials escaped.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, fmt.Sprint(p.Port)),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
