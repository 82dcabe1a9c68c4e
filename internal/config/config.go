package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Ledger   LedgerConfig
	Logging  LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Environment     string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	MaxHeaderBytes  int
	CORSOrigins     []string

	// AuthRateLimit bounds login and register attempts per client IP
	// within AuthRateWindow. Zero disables the limit.
	AuthRateLimit  int
	AuthRateWindow time.Duration

	// TrustedProxies lists the IPs or CIDR ranges whose X-Forwarded-For
	// and X-Real-IP headers are believed. Empty trusts no proxy.
	TrustedProxies []string
}

// DatabaseConfig holds persistence configuration
type DatabaseConfig struct {
	Driver             string
	URL                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
	MigrationsPath     string
	AutoMigrate        bool
	HealthTimeout      time.Duration
}

// AuthConfig holds token and password hashing settings
type AuthConfig struct {
	JWTSecret  string
	JWTIssuer  string
	JWTExpiry  time.Duration
	BCryptCost int
}

// CacheConfig holds dashboard cache settings
type CacheConfig struct {
	Provider string
	RedisURL string
	TTL      time.Duration
	MaxKeys  int
}

// LedgerConfig holds donation and leaderboard policy
type LedgerConfig struct {
	MinDonationAmount int64
	MaxDonationAmount int64
	MaxTaskPoints     int64
	TopDonorsDefault  int
	TopDonorsMax      int
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, loading .env files first
// outside production.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load() // fallback to .env
		}
	}

	config := &Config{
		Server:   loadServerConfig(env),
		Database: loadDatabaseConfig(env),
		Auth:     loadAuthConfig(),
		Cache:    loadCacheConfig(),
		Ledger:   loadLedgerConfig(),
		Logging:  loadLoggingConfig(env),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadServerConfig(env string) ServerConfig {
	return ServerConfig{
		Port:            getEnv("PORT", "5000"),
		Environment:     env,
		Host:            getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		GracefulTimeout: getDurationEnv("GRACEFUL_TIMEOUT", 30*time.Second),
		MaxHeaderBytes:  getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1MB
		CORSOrigins:     getSliceEnv("CORS_ORIGINS", []string{"http://localhost:3000"}),
		AuthRateLimit:   getIntEnv("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:  getDurationEnv("AUTH_RATE_WINDOW", 15*time.Minute),
		TrustedProxies:  getSliceEnv("TRUSTED_PROXIES", nil),
	}
}

func loadDatabaseConfig(env string) DatabaseConfig {
	defaultDriver := DriverMemory
	if env == "production" {
		defaultDriver = DriverPostgres
	}

	return DatabaseConfig{
		Driver:             strings.ToLower(getEnv("STORAGE_DRIVER", defaultDriver)),
		URL:                getEnv("DATABASE_URL", ""),
		MaxOpenConns:       getIntEnv("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:       getIntEnv("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:    getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime:    getDurationEnv("DB_CONN_MAX_IDLE_TIME", time.Minute),
		SlowQueryThreshold: getDurationEnv("DB_SLOW_QUERY_THRESHOLD", 500*time.Millisecond),
		MigrationsPath:     getEnv("MIGRATIONS_PATH", "./migrations"),
		AutoMigrate:        getBoolEnv("DB_AUTO_MIGRATE", true),
		HealthTimeout:      getDurationEnv("DB_HEALTH_TIMEOUT", 30*time.Second),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTIssuer:  getEnv("JWT_ISSUER", "helpinghands"),
		JWTExpiry:  getDurationEnv("JWT_EXPIRY", 7*24*time.Hour),
		BCryptCost: getIntEnv("BCRYPT_COST", 10),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Provider: strings.ToLower(getEnv("CACHE_PROVIDER", "memory")),
		RedisURL: getEnv("REDIS_URL", ""),
		TTL:      getDurationEnv("CACHE_TTL", time.Minute),
		MaxKeys:  getIntEnv("CACHE_MAX_KEYS", 1000),
	}
}

func loadLedgerConfig() LedgerConfig {
	return LedgerConfig{
		MinDonationAmount: getInt64Env("DONATION_MIN_AMOUNT", 1),
		MaxDonationAmount: getInt64Env("DONATION_MAX_AMOUNT", 1_000_000_000),
		MaxTaskPoints:     getInt64Env("TASK_MAX_POINTS", 10_000),
		TopDonorsDefault:  getIntEnv("TOP_DONORS_DEFAULT", 5),
		TopDonorsMax:      getIntEnv("TOP_DONORS_MAX", 100),
	}
}

func loadLoggingConfig(env string) LoggingConfig {
	return LoggingConfig{
		Level:  getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
		Format: getEnv("LOG_FORMAT", getDefaultLogFormat(env)),
	}
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := c.Auth.Validate(c.Server.Environment); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger config: %w", err)
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if s.ReadTimeout <= 0 {
		return fmt.Errorf("ReadTimeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		return fmt.Errorf("WriteTimeout must be positive")
	}

	if s.AuthRateLimit < 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT cannot be negative")
	}

	if s.AuthRateLimit > 0 && s.AuthRateWindow <= 0 {
		return fmt.Errorf("AUTH_RATE_WINDOW must be positive")
	}

	for _, proxy := range s.TrustedProxies {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy)
		}
	}

	return nil
}

func (d *DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverMemory:
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", d.Driver)
	}

	if d.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if d.MaxOpenConns <= 0 {
		return fmt.Errorf("MaxOpenConns must be positive")
	}

	if d.MaxIdleConns < 0 {
		return fmt.Errorf("MaxIdleConns cannot be negative")
	}

	if d.MaxIdleConns > d.MaxOpenConns {
		return fmt.Errorf("MaxIdleConns cannot be greater than MaxOpenConns")
	}

	if d.SlowQueryThreshold <= 0 {
		return fmt.Errorf("SlowQueryThreshold must be positive")
	}

	return nil
}

func (a *AuthConfig) Validate(env string) error {
	if a.JWTSecret == "" {
		if env == "production" {
			return fmt.Errorf("JWT_SECRET must be set for production")
		}
		a.JWTSecret = "development-jwt-secret-change-me"
	}

	if a.BCryptCost < 4 || a.BCryptCost > 31 {
		return fmt.Errorf("BCryptCost must be between 4 and 31")
	}

	if a.JWTExpiry <= 0 {
		return fmt.Errorf("JWTExpiry must be positive")
	}

	return nil
}

func (c *CacheConfig) Validate() error {
	switch c.Provider {
	case "memory", "":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis provider")
		}
	default:
		return fmt.Errorf("unsupported CACHE_PROVIDER %q", c.Provider)
	}

	if c.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	return nil
}

func (l *LedgerConfig) Validate() error {
	if l.MinDonationAmount <= 0 {
		return fmt.Errorf("DONATION_MIN_AMOUNT must be positive")
	}

	if l.MaxDonationAmount < l.MinDonationAmount {
		return fmt.Errorf("DONATION_MAX_AMOUNT cannot be below DONATION_MIN_AMOUNT")
	}

	if l.MaxTaskPoints <= 0 {
		return fmt.Errorf("TASK_MAX_POINTS must be positive")
	}

	if l.TopDonorsDefault <= 0 || l.TopDonorsMax < l.TopDonorsDefault {
		return fmt.Errorf("TOP_DONORS_DEFAULT must be positive and not exceed TOP_DONORS_MAX")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Address returns host:port for the HTTP listener
func (s *ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getDefaultLogLevel(env string) string {
	switch env {
	case "production":
		return "info"
	default:
		return "debug"
	}
}

func getDefaultLogFormat(env string) string {
	switch env {
	case "production":
		return "json"
	default:
		return "console"
	}
}
