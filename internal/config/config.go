package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port         string
	QueryTimeout time.Duration
	RateLimitRPM int
	// TrustedProxies are extra CIDRs whose X-Forwarded-For is honoured
	TrustedProxies []string

	// Backend selection
	DataBackend string

	// Postgres
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// SQLite
	SQLiteDBPath string

	// Logging
	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		QueryTimeout: getEnvDuration("QUERY_TIMEOUT", 7*time.Second),
		RateLimitRPM: getEnvInt("RATE_LIMIT_RPM", 120),

		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		DataBackend: getEnv("DATA_BACKEND", "postgres"),

		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "template1"),
		DBUser:     getEnv("DB_SERVICE_USER", ""),
		DBPassword: getEnv("DB_SERVICE_USER_PASSWORD", ""),
		DBSSLMode:  getEnv("DB_SSLMODE", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/checkins.db"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"postgres", "sqlite"}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Postgres credentials have no fallback
	if c.DataBackend == "postgres" {
		missing := []string{}
		if c.DBHost == "" {
			missing = append(missing, "DB_HOST")
		}
		if c.DBUser == "" {
			missing = append(missing, "DB_SERVICE_USER")
		}
		if c.DBPassword == "" {
			missing = append(missing, "DB_SERVICE_USER_PASSWORD")
		}
		if len(missing) > 0 {
			errors = append(errors, fmt.Sprintf("missing required database variables: %s", strings.Join(missing, ", ")))
		}
		if port, err := strconv.Atoi(c.DBPort); err != nil {
			errors = append(errors, fmt.Sprintf("invalid database port '%s': must be a number", c.DBPort))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid database port %d: must be between 1 and 65535", port))
		}
		if c.DBName == "" {
			errors = append(errors, "database name cannot be empty when using postgres backend")
		}
	}

	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.QueryTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid query timeout %v: must be at least 100ms", c.QueryTimeout))
	} else if c.QueryTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid query timeout %v: must be at most 5 minutes", c.QueryTimeout))
	}

	if c.RateLimitRPM < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// PostgresDSN builds a pgx connection URL. Every session is read-only.
func (c *Config) PostgresDSN() string {
	q := url.Values{}
	q.Set("default_transaction_read_only", "on")
	if c.DBSSLMode != "" {
		q.Set("sslmode", c.DBSSLMode)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SQLiteDSN opens the database file read-only.
func (c *Config) SQLiteDSN() string {
	return "file:" + c.SQLiteDBPath + "?mode=ro"
}

// DSN returns the connection string for the selected backend.
func (c *Config) DSN() string {
	if c.DataBackend == "sqlite" {
		return c.SQLiteDSN()
	}
	return c.PostgresDSN()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
