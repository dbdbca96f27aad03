package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	OIDC          OIDCConfig
	Session       SessionConfig
	Redis         RedisConfig
	CORS          CORSConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// OIDCConfig holds the enterprise identity provider settings
type OIDCConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	IssuerURL    string // Overrides the tenant-derived issuer when set
	RedirectURL  string // Callback URL registered with the provider
	ResponseMode string // "query" or "form_post"
	FrontEndURL  string // Post-login and post-logout redirect target
	LoginFailed  string // Redirect target when authentication fails
}

// SessionConfig controls the server-side session authority
type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	Store      string // "memory" or "redis"
	CookieName string
	// InRedirect appends the signed session token to the post-login redirect
	// for frontends served from another origin.
	InRedirect bool
}

// RedisConfig holds the Redis connection used by the redis session store
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CORSConfig lists the origins allowed to call the API with credentials
type CORSConfig struct {
	AllowedOrigins []string
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"

	ResponseModeQuery    = "query"
	ResponseModeFormPost = "form_post"

	minSessionSecretLength = 32
)

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	frontEnd := getEnv("FRONT_END_URL", "http://localhost:5173")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		OIDC: OIDCConfig{
			TenantID:     getEnv("OIDC_TENANT_ID", ""),
			ClientID:     getEnv("OIDC_CLIENT_ID", ""),
			ClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
			IssuerURL:    getEnv("OIDC_ISSUER_URL", ""),
			RedirectURL:  getEnv("OIDC_REDIRECT_URL", "http://localhost:8080/auth/openid/return"),
			ResponseMode: getEnv("OIDC_RESPONSE_MODE", ResponseModeQuery),
			FrontEndURL:  frontEnd,
			LoginFailed:  getEnv("LOGIN_FAILED_URL", "/login-failed"),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", ""),
			TTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			Store:      getEnv("SESSION_STORE", SessionStoreMemory),
			CookieName: getEnv("SESSION_COOKIE_NAME", "campus_session"),
			InRedirect: getEnvAsBool("SESSION_IN_REDIRECT", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{frontEnd}),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	switch c.Session.Store {
	case SessionStoreMemory, "":
	case SessionStoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("unknown session store: %s", c.Session.Store)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.Session.TTL)
	}

	switch c.OIDC.ResponseMode {
	case ResponseModeQuery, ResponseModeFormPost, "":
	default:
		return fmt.Errorf("unknown oidc response mode: %s", c.OIDC.ResponseMode)
	}

	if c.IsProduction() {
		if c.OIDC.TenantID == "" && c.OIDC.IssuerURL == "" {
			return fmt.Errorf("oidc tenant ID or issuer URL is required in production")
		}
		if c.OIDC.ClientID == "" {
			return fmt.Errorf("oidc client ID is required in production")
		}
		if len(c.Session.Secret) < minSessionSecretLength {
			return fmt.Errorf("session secret must be at least %d bytes in production", minSessionSecretLength)
		}
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// Issuer returns the OIDC issuer URL, derived from the tenant when not set explicitly.
func (c *OIDCConfig) Issuer() string {
	if c.IssuerURL != "" {
		return strings.TrimSuffix(c.IssuerURL, "/")
	}
	return fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", c.TenantID)
}

// Configured reports whether enough is set to talk to the identity provider.
func (c *OIDCConfig) Configured() bool {
	return c.ClientID != "" && (c.TenantID != "" || c.IssuerURL != "")
}

// SecureCookies reports whether cookies should carry the Secure attribute.
func (c *OIDCConfig) SecureCookies() bool {
	return strings.HasPrefix(c.RedirectURL, "https")
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "dev"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "campus_eats"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
