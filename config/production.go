// Package config provides configuration management and environment variable handling for the application
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database   DatabaseConfig   `json:"database"`
	Server     ServerConfig     `json:"server"`
	Cache      CacheConfig      `json:"cache"`
	Queue      QueueConfig      `json:"queue"`
	Crediting  CreditingConfig  `json:"crediting"`
	Reward     RewardConfig     `json:"reward"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Deployment DeploymentConfig `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryLog    bool          `json:"slow_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
}

type ServerConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	WriteTimeout      time.Duration `json:"write_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout"`
	BodyLimit         int           `json:"body_limit"`
	TrustedProxies    []string      `json:"trusted_proxies"`
	ProxyHeader       string        `json:"proxy_header"`
	EnableCompression bool          `json:"enable_compression"`
	CompressionLevel  int           `json:"compression_level"`
}

type CacheConfig struct {
	Enabled     bool          `json:"enabled"`
	RedisURL    string        `json:"redis_url"`
	RedisDB     int           `json:"redis_db"`
	RedisPrefix string        `json:"redis_prefix"`
	DefaultTTL  time.Duration `json:"default_ttl"`
}

// QueueConfig selects and tunes the reward job queue.
// Provider "redis" gives a durable queue that survives restarts; "memory"
// keeps jobs in process for single-node and local operation.
type QueueConfig struct {
	Provider       string        `json:"provider"` // redis, memory
	KeyPrefix      string        `json:"key_prefix"`
	BufferSize     int           `json:"buffer_size"` // memory provider only
	DequeueTimeout time.Duration `json:"dequeue_timeout"`
}

// CreditingConfig configures the external crediting service call.
// An empty EndpointURL means no provider is wired and credits are simulated.
type CreditingConfig struct {
	EndpointURL    string        `json:"endpoint_url"`
	BearerToken    string        `json:"bearer_token"`
	Timeout        time.Duration `json:"timeout"`
	SimulatedDelay time.Duration `json:"simulated_delay"`
}

type RewardConfig struct {
	AmountCents int64         `json:"amount_cents"`
	WorkerCount int           `json:"worker_count"`
	JobTimeout  time.Duration `json:"job_timeout"`
}

type LoggingConfig struct {
	Level      string `json:"level"`  // debug, info, warn, error
	Format     string `json:"format"` // json, text
	Output     string `json:"output"` // stdout, file, both
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`

	EnableAccessLog bool   `json:"enable_access_log"`
	AccessLogPath   string `json:"access_log_path"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type DeploymentConfig struct {
	// PublicDomain is the scheme+host short URLs are rendered against,
	// e.g. https://gig.sh
	PublicDomain string `json:"public_domain"`

	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "sharelinks"),
			User:            getEnvString("DB_USER", "sharelinks"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			SlowQueryLog:    getEnvBool("DB_SLOW_QUERY_LOG", true),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 200*time.Millisecond),
		},
		Server: ServerConfig{
			Host:              getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:              getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:         getEnvInt("SERVER_BODY_LIMIT", 1*1024*1024),
			TrustedProxies:    getEnvStringSlice("SERVER_TRUSTED_PROXIES", []string{}),
			ProxyHeader:       getEnvString("SERVER_PROXY_HEADER", "X-Forwarded-For"),
			EnableCompression: getEnvBool("SERVER_ENABLE_COMPRESSION", true),
			CompressionLevel:  getEnvInt("SERVER_COMPRESSION_LEVEL", 1),
		},
		Cache: CacheConfig{
			Enabled:     getEnvBool("CACHE_ENABLED", true),
			RedisURL:    getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:     getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix: getEnvString("CACHE_REDIS_PREFIX", "sharelinks:"),
			DefaultTTL:  getEnvDuration("CACHE_DEFAULT_TTL", time.Hour),
		},
		Queue: QueueConfig{
			Provider:       getEnvString("QUEUE_PROVIDER", "redis"),
			KeyPrefix:      getEnvString("QUEUE_KEY_PREFIX", "sharelinks:"),
			BufferSize:     getEnvInt("QUEUE_BUFFER_SIZE", 1024),
			DequeueTimeout: getEnvDuration("QUEUE_DEQUEUE_TIMEOUT", 5*time.Second),
		},
		Crediting: CreditingConfig{
			EndpointURL:    getEnvString("CREDITING_ENDPOINT_URL", ""),
			BearerToken:    getEnvString("CREDITING_BEARER_TOKEN", ""),
			Timeout:        getEnvDuration("CREDITING_TIMEOUT", 5*time.Second),
			SimulatedDelay: getEnvDuration("CREDITING_SIMULATED_DELAY", 50*time.Millisecond),
		},
		Reward: RewardConfig{
			AmountCents: int64(getEnvInt("REWARD_AMOUNT_CENTS", 5)),
			WorkerCount: getEnvInt("REWARD_WORKER_COUNT", 4),
			JobTimeout:  getEnvDuration("REWARD_JOB_TIMEOUT", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			Format:     getEnvString("LOG_FORMAT", "json"),
			Output:     getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:   getEnvString("LOG_FILE_PATH", ""),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
			Compress:   getEnvBool("LOG_COMPRESS", true),

			EnableAccessLog: getEnvBool("LOG_ENABLE_ACCESS", true),
			AccessLogPath:   getEnvString("LOG_ACCESS_PATH", ""),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Deployment: DeploymentConfig{
			PublicDomain: getEnvString("PUBLIC_DOMAIN", "http://localhost:8080"),
			Environment:  getEnvString("ENVIRONMENT", "production"),
			Version:      getEnvString("VERSION", "dev"),
			CommitHash:   getEnvString("COMMIT_HASH", ""),
			BuildTime:    getEnvString("BUILD_TIME", ""),
		},
	}

	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadEnvFile loads environment variables from .env file if it exists
func loadEnvFile() error {
	envFile := ".env"

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// .env file doesn't exist, continue with environment variables
		return nil
	}

	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
					(strings.HasPrefix(value, `'`) && strings.HasSuffix(value, `'`)) {
					value = value[1 : len(value)-1]
				}

				// Real environment wins over .env
				if os.Getenv(key) == "" {
					os.Setenv(key, value)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	if cfg.Database.Host == "" {
		errors = append(errors, "database host is required")
	}
	if cfg.Database.Name == "" {
		errors = append(errors, "database name is required")
	}
	if cfg.Database.User == "" {
		errors = append(errors, "database user is required")
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		errors = append(errors, "database port must be between 1 and 65535")
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errors = append(errors, "server port must be between 1 and 65535")
	}

	switch cfg.Queue.Provider {
	case "redis", "memory":
	default:
		errors = append(errors, "queue provider must be 'redis' or 'memory'")
	}
	if cfg.Queue.Provider == "memory" && cfg.Queue.BufferSize < 1 {
		errors = append(errors, "queue buffer size must be at least 1")
	}
	if cfg.Queue.DequeueTimeout <= 0 {
		errors = append(errors, "queue dequeue timeout must be positive")
	}

	if cfg.Crediting.EndpointURL != "" && cfg.Crediting.BearerToken == "" {
		errors = append(errors, "crediting bearer token is required when an endpoint is configured")
	}
	if cfg.Crediting.Timeout <= 0 {
		errors = append(errors, "crediting timeout must be positive")
	}

	if cfg.Reward.AmountCents <= 0 {
		errors = append(errors, "reward amount must be positive")
	}
	if cfg.Reward.WorkerCount < 1 {
		errors = append(errors, "reward worker count must be at least 1")
	}

	if cfg.Deployment.PublicDomain == "" {
		errors = append(errors, "public domain is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}
