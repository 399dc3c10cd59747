// Package config loads application settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// insecureDevSecret is only used when JWT_SECRET is unset.
const insecureDevSecret = "mindflow-dev-secret-change-me"

// Config is the root configuration for the server.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Gemini GeminiConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string
	APIPrefix       string
	Env             string
	LogLevel        slog.Level
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// IsProduction reports whether the server runs in a production-like environment.
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// StoreConfig selects and configures the credential store.
type StoreConfig struct {
	Driver         string // postgres, sqlite or mongo
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	SQLitePath     string
	RunMigrations  bool
	ConnectTimeout time.Duration
	MongoURI       string
	MongoDatabase  string
}

// RedisConfig holds the optional Redis connection. An empty Host disables Redis.
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	UserCacheTTL time.Duration
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// AuthConfig holds token, hashing and rate limit settings.
type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
	RateLimit  string // ulule formatted rate, e.g. "10-M"
}

// GeminiConfig configures the chat backend. An empty APIKey disables chat.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	RPM     int
}

// RefreshTokenTTL is the fixed lifetime of refresh tokens and their cookie.
const RefreshTokenTTL = 30 * 24 * time.Hour

// Load reads configuration from the environment, after loading .env if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "mindflow")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "mindflow.db")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("DB_CONNECT_TIMEOUT", "60s")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "MindFlowAI")

	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("USER_CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRE", "7d")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("AUTH_RATE_LIMIT", "10-M")

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_TIMEOUT", "30s")
	v.SetDefault("GEMINI_RPM", 15)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	level, err := parseLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	shutdown, err := ParseDuration(v.GetString("SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.Server = ServerConfig{
		Port:            v.GetString("PORT"),
		APIPrefix:       "/" + strings.Trim(v.GetString("API_PREFIX"), "/"),
		Env:             strings.ToLower(v.GetString("APP_ENV")),
		LogLevel:        level,
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
		ShutdownTimeout: shutdown,
	}

	connectTimeout, err := ParseDuration(v.GetString("DB_CONNECT_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("DB_CONNECT_TIMEOUT: %w", err)
	}
	cfg.Store = StoreConfig{
		Driver:         strings.ToLower(v.GetString("STORE_DRIVER")),
		Host:           v.GetString("DB_HOST"),
		Port:           v.GetString("DB_PORT"),
		User:           v.GetString("DB_USER"),
		Password:       v.GetString("DB_PASSWORD"),
		Name:           v.GetString("DB_NAME"),
		SSLMode:        v.GetString("DB_SSLMODE"),
		SQLitePath:     v.GetString("SQLITE_PATH"),
		RunMigrations:  v.GetBool("RUN_MIGRATIONS"),
		ConnectTimeout: connectTimeout,
		MongoURI:       v.GetString("MONGODB_URI"),
		MongoDatabase:  v.GetString("MONGODB_DATABASE"),
	}
	switch cfg.Store.Driver {
	case "postgres", "sqlite", "mongo":
	default:
		return nil, fmt.Errorf("STORE_DRIVER: unsupported driver %q", cfg.Store.Driver)
	}

	cacheTTL, err := ParseDuration(v.GetString("USER_CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("USER_CACHE_TTL: %w", err)
	}
	cfg.Redis = RedisConfig{
		Host:         v.GetString("REDIS_HOST"),
		Port:         v.GetString("REDIS_PORT"),
		Password:     v.GetString("REDIS_PASSWORD"),
		UserCacheTTL: cacheTTL,
	}

	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		if cfg.Server.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		slog.Warn("JWT_SECRET is not set. Using an insecure development secret.")
		secret = insecureDevSecret
	}
	accessTTL, err := ParseDuration(v.GetString("JWT_EXPIRE"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRE: %w", err)
	}
	cfg.Auth = AuthConfig{
		JWTSecret:  secret,
		AccessTTL:  accessTTL,
		RefreshTTL: RefreshTokenTTL,
		BcryptCost: v.GetInt("BCRYPT_COST"),
		RateLimit:  v.GetString("AUTH_RATE_LIMIT"),
	}

	geminiTimeout, err := ParseDuration(v.GetString("GEMINI_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("GEMINI_TIMEOUT: %w", err)
	}
	cfg.Gemini = GeminiConfig{
		APIKey:  v.GetString("GEMINI_API_KEY"),
		Model:   v.GetString("GEMINI_MODEL"),
		Timeout: geminiTimeout,
		RPM:     v.GetInt("GEMINI_RPM"),
	}

	return cfg, nil
}

// ParseDuration accepts Go durations ("90m", "168h") and whole days ("7d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
