package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "Billvault"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultBaseURL        = "http://localhost:8080"
	defaultSessionTTL     = 15 * time.Minute
	defaultResetTokenTTL  = 900 * time.Second
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultLoginPerMinute = 5

	minJWTSecretLen = 16

	sessionTTLSecondsEnvVar = "SESSION_TTL_SECONDS"
	sessionTTLDurEnvVar     = "SESSION_TTL"
	resetTTLSecondsEnvVar   = "RESET_TOKEN_TTL_SECONDS"
	resetTTLDurEnvVar       = "RESET_TOKEN_TTL"
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	BaseURL        string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	SessionTTL     time.Duration
	ResetTokenTTL  time.Duration
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	LoginPerMinute int

	// SES delivery settings. Mail delivery falls back to the logging mailer
	// when SESFromEmail is empty.
	SESRegion    string
	SESFromEmail string
	SESFromName  string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		BaseURL:        strings.TrimRight(getEnv("APP_BASE_URL", defaultBaseURL), "/"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		LoginPerMinute: defaultLoginPerMinute,
		SESRegion:      getEnv("SES_REGION", "eu-west-1"),
		SESFromEmail:   os.Getenv("SES_FROM_EMAIL"),
		SESFromName:    getEnv("SES_FROM_NAME", defaultAppName),
	}

	var err error
	if cfg.SessionTTL, err = ttlFromEnv(sessionTTLSecondsEnvVar, sessionTTLDurEnvVar, defaultSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.ResetTokenTTL, err = ttlFromEnv(resetTTLSecondsEnvVar, resetTTLDurEnvVar, defaultResetTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = ttlFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = ttlFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("LOGIN_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOGIN_RATE_PER_MINUTE: %w", err)
		}
		cfg.LoginPerMinute = n
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}
	if len(cfg.JWTSecret) < minJWTSecretLen {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLen)
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the configured environment is a development tier.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// ttlFromEnv reads a duration from either a *_SECONDS integer variable or a
// Go duration variable, preferring the former.
func ttlFromEnv(secondsVar, durationVar string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsVar, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationVar, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
