package app

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sentinelhq/gatekeep/pkg/jwtx"
)

// Registry backend selectors for Config.RegistryBackend.
const (
	RegistryMemory = "memory"
	RegistrySQLite = "sqlite"
	RegistryRedis  = "redis"
)

type Config struct {
	AccessSecret  []byte // Required: HMAC secret for the access token class
	RefreshSecret []byte // Required: HMAC secret for the refresh token class

	Issuer   string   // Issuer claim for all tokens (default: gatekeep)
	Audience []string // Audience claim for all tokens (default: gatekeep-api)

	AccessTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTTL time.Duration // Refresh token lifetime (default: 168h)

	RegistryBackend string // Refresh registry backend: memory, sqlite, redis (default: sqlite)
	RegistryFile    string // SQLite registry file (default: ./registry.db)
	RedisAddr       string // Redis address for the redis backend (default: localhost:6379)
	RedisPassword   string // Optional redis password
	RedisDB         int    // Redis database number (default: 0)

	DatabaseFile string // Path to the SQLite user database (default: ./gatekeep.db)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	SecureCookies        bool          // Mark the refresh cookie Secure (default: true outside dev)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Registry sweep interval (default: 1h)
}

// LoadConfig reads configuration from GATEKEEP_* environment variables.
// The two signing secrets are the only required settings: the service
// refuses to start without them rather than falling back to a guessable
// default.
func LoadConfig() (Config, error) {
	env := getEnvOrDefault("GATEKEEP_ENV", "dev")

	cfg := Config{
		AccessSecret:  []byte(os.Getenv("GATEKEEP_ACCESS_SECRET")),
		RefreshSecret: []byte(os.Getenv("GATEKEEP_REFRESH_SECRET")),

		Issuer:   getEnvOrDefault("GATEKEEP_ISSUER", "gatekeep"),
		Audience: splitAndTrim(getEnvOrDefault("GATEKEEP_AUDIENCE", "gatekeep-api")),

		AccessTTL:  getEnvDurationOrDefault("GATEKEEP_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("GATEKEEP_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		RegistryBackend: getEnvOrDefault("GATEKEEP_REGISTRY_BACKEND", RegistrySQLite),
		RegistryFile:    getEnvOrDefault("GATEKEEP_REGISTRY_FILE", "registry.db"),
		RedisAddr:       getEnvOrDefault("GATEKEEP_REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("GATEKEEP_REDIS_PASSWORD"),
		RedisDB:         getEnvIntOrDefault("GATEKEEP_REDIS_DB", 0),

		DatabaseFile: getEnvOrDefault("GATEKEEP_DATABASE_FILE", "gatekeep.db"),

		Env:                  env,
		LogLevel:             getEnvOrDefault("GATEKEEP_LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("GATEKEEP_LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("GATEKEEP_PORT", 8080),
		SecureCookies:        getEnvBoolOrDefault("GATEKEEP_SECURE_COOKIES", env != "dev"),
		ShutdownGracePeriod:  getEnvDurationOrDefault("GATEKEEP_SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("GATEKEEP_HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.AccessSecret) == 0 {
		return errors.New("GATEKEEP_ACCESS_SECRET is required")
	}
	if len(c.RefreshSecret) == 0 {
		return errors.New("GATEKEEP_REFRESH_SECRET is required")
	}
	if len(c.AccessSecret) < jwtx.MinSecretBytes || len(c.RefreshSecret) < jwtx.MinSecretBytes {
		return fmt.Errorf("signing secrets must be at least %d bytes", jwtx.MinSecretBytes)
	}
	// Identical secrets would collapse the two token classes into one.
	if len(c.AccessSecret) == len(c.RefreshSecret) &&
		subtle.ConstantTimeCompare(c.AccessSecret, c.RefreshSecret) == 1 {
		return errors.New("access and refresh secrets must differ")
	}

	switch c.RegistryBackend {
	case RegistryMemory, RegistrySQLite, RegistryRedis:
	default:
		return fmt.Errorf("unknown registry backend %q", c.RegistryBackend)
	}

	return nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
