package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AssetSourceDisk = "disk"
	AssetSourceS3   = "s3"
)

type Config struct {
	Server      ServerConfig
	Assets      AssetsConfig
	S3          S3Config
	Redis       RedisConfig
	NATS        NATSConfig
	CloudWatch  CloudWatchConfig
	RateLimit   RateLimitConfig
	Compression CompressionConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AssetsConfig struct {
	Source          string
	Root            string
	RequiredFiles   []string
	CacheMaxAge     time.Duration
	Watch           bool
	RefreshInterval time.Duration
}

type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	RequestTimeout  time.Duration
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	DB           int
	TTL          time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type NATSConfig struct {
	Enabled bool
	URL     string
	Subject string
}

type CloudWatchConfig struct {
	LogsEnabled       bool
	Region            string
	Endpoint          string
	AccessKeyID       string
	SecretAccessKey   string
	LogGroupName      string
	LogStreamName     string
	LogsBufferSize    int
	LogsFlushInterval time.Duration
}

type RateLimitConfig struct {
	Enabled        bool
	RPS            float64
	Burst          int
	TrustedProxies []string
}

type CompressionConfig struct {
	Enabled bool
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads the environment without cross-field validation, for callers
// that override fields before calling Validate.
func Parse() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	readTimeout, err := parseDuration("SERVER_READ_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	writeTimeout, err := parseDuration("SERVER_WRITE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	idleTimeout, err := parseDuration("SERVER_IDLE_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SERVER_SHUTDOWN_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	cacheMaxAge, err := parseDuration("ASSETS_CACHE_MAX_AGE", "0s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("ASSETS_REFRESH_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}

	s3Timeout, err := parseDuration("S3_REQUEST_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	redisTTL, err := parseDuration("REDIS_TTL", "5m")
	if err != nil {
		return nil, err
	}
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	logsFlushInterval, err := parseDuration("CLOUDWATCH_LOGS_FLUSH_INTERVAL", "5s")
	if err != nil {
		return nil, err
	}
	logsBufferSize, err := strconv.Atoi(getEnv("CLOUDWATCH_LOGS_BUFFER_SIZE", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_LOGS_BUFFER_SIZE: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "50"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			IdleTimeout:     idleTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Assets: AssetsConfig{
			Source:          strings.ToLower(getEnv("ASSETS_SOURCE", AssetSourceDisk)),
			Root:            getEnv("ASSETS_ROOT", "public"),
			RequiredFiles:   splitCSV(getEnv("ASSETS_REQUIRED_FILES", "index.html,kpi_map.json,people_data.json")),
			CacheMaxAge:     cacheMaxAge,
			Watch:           getEnvBool("ASSETS_WATCH", false),
			RefreshInterval: refreshInterval,
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Prefix:          getEnv("S3_PREFIX", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
			RequestTimeout:  s3Timeout,
		},
		Redis: RedisConfig{
			Enabled:      getEnvBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           redisDB,
			TTL:          redisTTL,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		NATS: NATSConfig{
			Enabled: getEnvBool("NATS_ENABLED", false),
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Subject: getEnv("NATS_SUBJECT", "rcm.assets.changed"),
		},
		CloudWatch: CloudWatchConfig{
			LogsEnabled:       getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			Region:            getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:          getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:       getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey:   getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),
			LogGroupName:      getEnv("CLOUDWATCH_LOG_GROUP", "/rcm-dashboard/edge"),
			LogStreamName:     getEnv("CLOUDWATCH_LOG_STREAM", hostnameOr("rcm-dashboard")),
			LogsBufferSize:    logsBufferSize,
			LogsFlushInterval: logsFlushInterval,
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", false),
			RPS:            rps,
			Burst:          burst,
			TrustedProxies: splitCSV(getEnv("RATE_LIMIT_TRUSTED_PROXIES", "")),
		},
		Compression: CompressionConfig{
			Enabled: getEnvBool("COMPRESSION_ENABLED", true),
		},
	}

	return cfg, nil
}

// Validate checks cross-field constraints that defaults alone cannot guarantee.
func (c *Config) Validate() error {
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	switch c.Assets.Source {
	case AssetSourceDisk:
		if strings.TrimSpace(c.Assets.Root) == "" {
			return fmt.Errorf("ASSETS_ROOT is required when ASSETS_SOURCE=disk")
		}
	case AssetSourceS3:
		if strings.TrimSpace(c.S3.Bucket) == "" {
			return fmt.Errorf("S3_BUCKET is required when ASSETS_SOURCE=s3")
		}
		if c.S3.RequestTimeout <= 0 {
			return fmt.Errorf("S3_REQUEST_TIMEOUT must be positive")
		}
	default:
		return fmt.Errorf("unsupported ASSETS_SOURCE: %q", c.Assets.Source)
	}

	if c.Assets.CacheMaxAge < 0 {
		return fmt.Errorf("ASSETS_CACHE_MAX_AGE must not be negative")
	}
	if c.Assets.RefreshInterval <= 0 {
		return fmt.Errorf("ASSETS_REFRESH_INTERVAL must be positive")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			return fmt.Errorf("RATE_LIMIT_RPS must be positive")
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("RATE_LIMIT_BURST must be positive")
		}
	}

	if c.Redis.Enabled && c.Redis.TTL <= 0 {
		return fmt.Errorf("REDIS_TTL must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func parseDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func hostnameOr(fallback string) string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return fallback
	}
	return name
}
