package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Metrics cache type constants
const (
	MetricsCacheTypeMemory     = "memory"
	MetricsCacheTypeRedis      = "redis"
	MetricsCacheTypeRedisAside = "redis-aside"
)

// DefaultAccessTokenExpiration is one leap year, the lifetime tokens get when
// nothing else is configured.
const DefaultAccessTokenExpiration = 31622400 * time.Second

// ScopeSpec is a scope id with its human readable description, as parsed from
// the SCOPES and DEFAULT_SCOPES variables.
type ScopeSpec struct {
	ID          string
	Description string
}

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// JWT settings
	JWTSecret string

	// Token lifetimes
	AccessTokenExpiration            time.Duration
	RefreshTokenExpiration           time.Duration
	ClientCredentialsTokenExpiration time.Duration
	PasswordTokenExpiration          time.Duration
	PersonalAccessTokenExpiration    time.Duration
	AuthCodeExpiration               time.Duration

	// Scopes
	Scopes           []ScopeSpec
	DefaultScopes    []ScopeSpec
	UseDefaultScopes bool

	// Error responses
	HideErrorHints bool // Strip "hint" from OAuth error bodies (default: true)

	// Response type
	EnableIDToken bool // Append a signed id_token to user-bound token responses

	// Hashing
	BcryptCost int

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Seeding
	SeedDefaultClient bool

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	TokenRateLimit           int    // requests per minute per IP on /oauth/token
	RateLimitCleanupInterval time.Duration

	// Redis (rate limiting and metrics cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration
	MetricsCacheType           string // "memory", "redis" or "redis-aside"
	MetricsCacheClientTTL      time.Duration
	MetricsCacheSizePerConn    int // MB of client-side cache per connection (redis-aside)

	// Maintenance
	TokenPurgeInterval time.Duration

	// Timeouts
	DBInitTimeout         time.Duration
	RedisConnTimeout      time.Duration
	CacheInitTimeout      time.Duration
	ServerShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "oauth.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	accessExpiration := getEnvDuration("ACCESS_TOKEN_EXPIRATION", DefaultAccessTokenExpiration)

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		IsProduction: getEnv("ENVIRONMENT", "development") == "production",
		JWTSecret:    getEnv("JWT_SECRET", "your-256-bit-secret-change-in-production"),

		AccessTokenExpiration: accessExpiration,
		RefreshTokenExpiration: getEnvDuration(
			"REFRESH_TOKEN_EXPIRATION",
			2*DefaultAccessTokenExpiration,
		),
		ClientCredentialsTokenExpiration: getEnvDuration(
			"CLIENT_CREDENTIALS_TOKEN_EXPIRATION",
			accessExpiration,
		),
		PasswordTokenExpiration: getEnvDuration("PASSWORD_TOKEN_EXPIRATION", accessExpiration),
		PersonalAccessTokenExpiration: getEnvDuration(
			"PERSONAL_ACCESS_TOKEN_EXPIRATION",
			accessExpiration,
		),
		AuthCodeExpiration: getEnvDuration("AUTH_CODE_EXPIRATION", 10*time.Minute),

		Scopes:           getEnvScopes("SCOPES"),
		DefaultScopes:    getEnvScopes("DEFAULT_SCOPES"),
		UseDefaultScopes: getEnvBool("USE_DEFAULT_SCOPES", false),

		HideErrorHints: getEnvBool("HIDE_ERROR_HINTS", true),
		EnableIDToken:  getEnvBool("ENABLE_ID_TOKEN", false),
		BcryptCost:     getEnvInt("BCRYPT_COST", 10),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		SeedDefaultClient: getEnvBool("SEED_DEFAULT_CLIENT", true),

		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		TokenRateLimit:           getEnvInt("TOKEN_RATE_LIMIT", 60),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 5*time.Minute),
		MetricsCacheType:           getEnv("METRICS_CACHE_TYPE", MetricsCacheTypeMemory),
		MetricsCacheClientTTL:      getEnvDuration("METRICS_CACHE_CLIENT_TTL", 30*time.Second),
		MetricsCacheSizePerConn:    getEnvInt("METRICS_CACHE_SIZE_PER_CONN", 32),

		TokenPurgeInterval: getEnvDuration("TOKEN_PURGE_INTERVAL", 24*time.Hour),

		DBInitTimeout:         getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		RedisConnTimeout:      getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
		CacheInitTimeout:      getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// Validate checks enumerated settings and obviously broken lifetimes
func (c *Config) Validate() error {
	if c.RateLimitStore != RateLimitStoreMemory && c.RateLimitStore != RateLimitStoreRedis {
		return fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
			c.RateLimitStore, RateLimitStoreMemory, RateLimitStoreRedis,
		)
	}
	switch c.MetricsCacheType {
	case MetricsCacheTypeMemory, MetricsCacheTypeRedis, MetricsCacheTypeRedisAside:
	default:
		return fmt.Errorf(
			"invalid METRICS_CACHE_TYPE value: %q (must be %q, %q or %q)",
			c.MetricsCacheType, MetricsCacheTypeMemory, MetricsCacheTypeRedis, MetricsCacheTypeRedisAside,
		)
	}
	if c.AccessTokenExpiration <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRATION must be positive")
	}
	if c.RefreshTokenExpiration <= 0 {
		return errors.New("REFRESH_TOKEN_EXPIRATION must be positive")
	}
	if c.IsProduction && c.JWTSecret == "your-256-bit-secret-change-in-production" {
		return errors.New("JWT_SECRET must be changed in production")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvScopes parses "id:description,id2:description two" into scope specs,
// keeping the declared order. A bare id gets an empty description.
func getEnvScopes(key string) []ScopeSpec {
	return ParseScopes(os.Getenv(key))
}

// ParseScopes parses the SCOPES / DEFAULT_SCOPES format
func ParseScopes(value string) []ScopeSpec {
	var out []ScopeSpec
	for _, part := range splitAndTrim(value, ",") {
		id, description, _ := strings.Cut(part, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out = append(out, ScopeSpec{ID: id, Description: strings.TrimSpace(description)})
	}
	return out
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
