package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Env      string
	HTTPAddr string
	BaseURL  string

	// Additional origins allowed to call the API (the deployed SPA hosts).
	AllowedOrigins []string

	DBDSN     string
	JWTSecret string

	LogLevel string

	LoginRateLimitRPM int
	SessionDays       int

	MaxAttachmentBytes int64

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	RedisAddr          string
	PlacesCacheTTLSecs int

	FoursquareAPIKey    string
	FoursquareTimeoutMS int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Env = strings.TrimSpace(os.Getenv("TRIPPER_ENV"))
	if cfg.Env == "" {
		return nil, fmt.Errorf("TRIPPER_ENV is required")
	}
	if cfg.Env != "dev" && cfg.Env != "prod" {
		return nil, fmt.Errorf("TRIPPER_ENV must be one of: dev, prod (got: %s)", cfg.Env)
	}

	cfg.HTTPAddr = getEnvOrDefault("TRIPPER_HTTP_ADDR", ":8080")

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("TRIPPER_BASE_URL")), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("TRIPPER_BASE_URL is required")
	}

	cfg.AllowedOrigins = []string{cfg.BaseURL}
	for _, origin := range strings.Split(os.Getenv("TRIPPER_ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" && origin != cfg.BaseURL {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	cfg.DBDSN = strings.TrimSpace(os.Getenv("TRIPPER_DB_DSN"))
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("TRIPPER_DB_DSN is required")
	}

	cfg.JWTSecret = os.Getenv("TRIPPER_JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("TRIPPER_JWT_SECRET is required")
	}
	if cfg.Env == "prod" && len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("TRIPPER_JWT_SECRET must be at least 32 characters (currently %d)", len(cfg.JWTSecret))
	}

	cfg.LogLevel = getEnvOrDefault("TRIPPER_LOG_LEVEL", "info")
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("TRIPPER_LOG_LEVEL must be one of: debug, info, warn, error (got: %s)", cfg.LogLevel)
	}

	var err error
	cfg.LoginRateLimitRPM, err = getEnvIntOrDefault("TRIPPER_LOGIN_RATE_LIMIT_RPM", 10)
	if err != nil {
		return nil, err
	}

	cfg.SessionDays, err = getEnvIntOrDefault("TRIPPER_SESSION_DAYS", 7)
	if err != nil {
		return nil, err
	}

	cfg.MaxAttachmentBytes, err = getEnvInt64OrDefault("TRIPPER_MAX_ATTACHMENT_BYTES", 10*1024*1024)
	if err != nil {
		return nil, err
	}

	cfg.S3Bucket = strings.TrimSpace(os.Getenv("TRIPPER_S3_BUCKET"))
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("TRIPPER_S3_BUCKET is required")
	}
	cfg.S3Region = getEnvOrDefault("TRIPPER_S3_REGION", "us-east-1")
	cfg.S3Endpoint = strings.TrimSpace(os.Getenv("TRIPPER_S3_ENDPOINT"))
	cfg.S3AccessKey = strings.TrimSpace(os.Getenv("TRIPPER_S3_ACCESS_KEY"))
	cfg.S3SecretKey = os.Getenv("TRIPPER_S3_SECRET_KEY")

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("TRIPPER_REDIS_ADDR"))

	cfg.PlacesCacheTTLSecs, err = getEnvIntOrDefault("TRIPPER_PLACES_CACHE_TTL_SECS", 300)
	if err != nil {
		return nil, err
	}

	cfg.FoursquareAPIKey = strings.TrimSpace(os.Getenv("TRIPPER_FOURSQUARE_API_KEY"))

	cfg.FoursquareTimeoutMS, err = getEnvIntOrDefault("TRIPPER_FOURSQUARE_TIMEOUT_MS", 5000)
	if err != nil {
		return nil, err
	}
	if cfg.FoursquareTimeoutMS <= 0 || cfg.FoursquareTimeoutMS > 30000 {
		return nil, fmt.Errorf("TRIPPER_FOURSQUARE_TIMEOUT_MS must be between 1 and 30000 (got: %d)", cfg.FoursquareTimeoutMS)
	}

	return cfg, nil
}

// IsDev returns true if running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// RedactedValues returns a map of config values with secrets redacted.
func (c *Config) RedactedValues() map[string]string {
	return map[string]string{
		"TRIPPER_ENV":                   c.Env,
		"TRIPPER_HTTP_ADDR":             c.HTTPAddr,
		"TRIPPER_BASE_URL":              c.BaseURL,
		"TRIPPER_ALLOWED_ORIGINS":       strings.Join(c.AllowedOrigins, ","),
		"TRIPPER_DB_DSN":                redactDSN(c.DBDSN),
		"TRIPPER_JWT_SECRET":            "[REDACTED]",
		"TRIPPER_LOG_LEVEL":             c.LogLevel,
		"TRIPPER_LOGIN_RATE_LIMIT_RPM":  fmt.Sprintf("%d", c.LoginRateLimitRPM),
		"TRIPPER_SESSION_DAYS":          fmt.Sprintf("%d", c.SessionDays),
		"TRIPPER_MAX_ATTACHMENT_BYTES":  fmt.Sprintf("%d", c.MaxAttachmentBytes),
		"TRIPPER_S3_BUCKET":             c.S3Bucket,
		"TRIPPER_S3_REGION":             c.S3Region,
		"TRIPPER_S3_ENDPOINT":           c.S3Endpoint,
		"TRIPPER_S3_ACCESS_KEY":         redactIfSet(c.S3AccessKey),
		"TRIPPER_S3_SECRET_KEY":         redactIfSet(c.S3SecretKey),
		"TRIPPER_REDIS_ADDR":            c.RedisAddr,
		"TRIPPER_PLACES_CACHE_TTL_SECS": fmt.Sprintf("%d", c.PlacesCacheTTLSecs),
		"TRIPPER_FOURSQUARE_API_KEY":    redactIfSet(c.FoursquareAPIKey),
		"TRIPPER_FOURSQUARE_TIMEOUT_MS": fmt.Sprintf("%d", c.FoursquareTimeoutMS),
	}
}

func redactDSN(dsn string) string {
	if start := strings.Index(dsn, "://"); start != -1 {
		if end := strings.Index(dsn[start+3:], "@"); end != -1 {
			return dsn[:start+3] + "[REDACTED]" + dsn[start+3+end:]
		}
	}
	return dsn
}

func redactIfSet(value string) string {
	if value == "" {
		return ""
	}
	return "[REDACTED]"
}

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got: %q)", key, value)
	}
	return parsed, nil
}

func getEnvInt64OrDefault(key string, defaultValue int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got: %q)", key, value)
	}
	return parsed, nil
}
