package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"

	AuthModeJWT = "jwt"
	AuthModeDev = "dev"
)

// Config is the service configuration, read from the environment.
type Config struct {
	Port string

	StorageBackend string
	DatabaseURL    string
	RedisURL       string
	RedisKeyPrefix string
	RunMigrations  bool
	SeedFile       string

	// LayoutHost is the base address of the layout renderer.
	LayoutHost            string
	// RenderBreakerFailures opts into a circuit breaker on the render client; 0 leaves it off.
	RenderBreakerFailures int
	RenderBreakerCooldown time.Duration

	LogLevel  string
	LogFormat string

	AuthMode   string
	DevSubject string

	ServiceName  string
	Environment  string
	OTLPEndpoint string
}

// Load reads the service configuration. JWT settings are loaded separately
// with LoadJWTConfigFromEnv because they only apply in jwt auth mode.
func Load() (Config, error) {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		StorageBackend: strings.ToLower(getenv("STORAGE_BACKEND", StorageMemory)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RedisKeyPrefix: getenv("REDIS_KEY_PREFIX", "mensa:"),
		SeedFile:       os.Getenv("SEED_FILE"),
		LayoutHost:     strings.TrimSpace(os.Getenv("LAYOUT_HOST")),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "json"),
		AuthMode:       strings.ToLower(getenv("AUTH_MODE", AuthModeJWT)),
		DevSubject:     os.Getenv("DEV_SUBJECT"),
		ServiceName:    getenv("SERVICE_NAME", "mensa-api"),
		Environment:    getenv("ENVIRONMENT", "development"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.RunMigrations, err = getbool("RUN_MIGRATIONS", true); err != nil {
		return Config{}, err
	}
	if cfg.RenderBreakerFailures, err = getint("RENDER_BREAKER_FAILURES", 0); err != nil {
		return Config{}, err
	}
	if cfg.RenderBreakerFailures < 0 {
		return Config{}, fmt.Errorf("RENDER_BREAKER_FAILURES must not be negative")
	}
	if cfg.RenderBreakerCooldown, err = getduration("RENDER_BREAKER_COOLDOWN", 30*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.LayoutHost == "" {
		return Config{}, fmt.Errorf("missing required env var: LAYOUT_HOST")
	}
	switch cfg.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("STORAGE_BACKEND=postgres requires DATABASE_URL")
		}
	case StorageRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("STORAGE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be one of memory, postgres, redis (got %q)", cfg.StorageBackend)
	}
	switch cfg.AuthMode {
	case AuthModeJWT, AuthModeDev:
	default:
		return Config{}, fmt.Errorf("AUTH_MODE must be jwt or dev (got %q)", cfg.AuthMode)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getint(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getduration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 30s): %w", key, err)
	}
	return d, nil
}
