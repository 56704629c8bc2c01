// Copyright (c) 2025 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the verification service configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Recaptcha RecaptchaConfig `json:"recaptcha"`
	HMAC      HMACConfig      `json:"hmac"`
	Cache     CacheConfig     `json:"cache"`
	Audit     AuditConfig     `json:"audit"`
	RateLimit RateLimitConfig `json:"rateLimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	BaseRoute string `json:"baseRoute"`
	WebDomain string `json:"webDomain"`
	Debug     bool   `json:"debug"`

	// ProxyHeader carries the client IP when the service sits behind a load balancer
	ProxyHeader    string   `json:"proxyHeader"`
	TrustedProxies []string `json:"trustedProxies"`
}

// RecaptchaConfig holds the validation policy and siteverify client settings
type RecaptchaConfig struct {
	SecretKey   string        `json:"-"`
	MinScore    float64       `json:"minScore"`
	BypassCode  string        `json:"-"`
	Hostname    string        `json:"hostname"`
	Endpoint    string        `json:"endpoint"`
	Timeout     time.Duration `json:"timeout"`
	UseClientIP bool          `json:"useClientIp"`
}

// HMACConfig holds HMAC-related configuration. An empty secret disables request signing.
type HMACConfig struct {
	Secret string `json:"-"`
}

// CacheConfig holds replay-guard cache configuration
type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	Backend         string        `json:"backend"`
	Prefix          string        `json:"prefix"`
	TTL             time.Duration `json:"ttl"`
	MaxMemory       int64         `json:"maxMemory"`
	CleanupInterval time.Duration `json:"cleanupInterval"`
	Redis           RedisConfig   `json:"redis"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Address      string        `json:"address"`
	Password     string        `json:"-"`
	Database     int           `json:"database"`
	PoolSize     int           `json:"poolSize"`
	MinIdleConns int           `json:"minIdleConns"`
	MaxConnAge   time.Duration `json:"maxConnAge"`

	// ClusterAddresses enables cluster mode when non-empty
	ClusterAddresses []string `json:"clusterAddresses"`
}

// AuditConfig holds the Postgres audit trail configuration
type AuditConfig struct {
	Enabled         bool          `json:"enabled"`
	DSN             string        `json:"-"`
	MaxOpenConns    int           `json:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
}

// RateLimitConfig holds rate limiting configuration for the verify endpoint
type RateLimitConfig struct {
	Enabled  bool          `json:"enabled"`
	Max      int           `json:"max"`
	Duration time.Duration `json:"duration"`
}

// lookupFunc resolves a configuration key; ok is false when the key is unset.
type lookupFunc func(key string) (string, bool)

// LoadFromEnv loads configuration from the environment.
// Precedence:
// 1. Explicit Environment Variables
// 2. Values from the .env file (if it exists)
// 3. Hardcoded defaults
func LoadFromEnv() (*Config, error) {
	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("INFO: .env file not found, using environment variables and defaults.")
	}

	return load(func(key string) (string, bool) {
		value := os.Getenv(key)
		return value, value != ""
	})
}

// LoadFromMap loads configuration from an in-memory map.
// This is the primary helper for testing configuration logic in isolation
// without manipulating global environment variables.
func LoadFromMap(envMap map[string]string) (*Config, error) {
	return load(func(key string) (string, bool) {
		value, ok := envMap[key]
		return value, ok
	})
}

func load(lookup lookupFunc) (*Config, error) {
	get := func(key, defaultValue string) string {
		if value, ok := lookup(key); ok {
			return value
		}
		return defaultValue
	}

	getInt := func(key string, defaultValue int) int {
		if value, ok := lookup(key); ok {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		return defaultValue
	}

	getInt64 := func(key string, defaultValue int64) int64 {
		if value, ok := lookup(key); ok {
			if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
				return intValue
			}
		}
		return defaultValue
	}

	getFloat := func(key string, defaultValue float64) float64 {
		if value, ok := lookup(key); ok {
			if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
				return floatValue
			}
		}
		return defaultValue
	}

	getBool := func(key string, defaultValue bool) bool {
		if value, ok := lookup(key); ok {
			if boolValue, err := strconv.ParseBool(value); err == nil {
				return boolValue
			}
		}
		return defaultValue
	}

	getDuration := func(key string, defaultValue time.Duration) time.Duration {
		if value, ok := lookup(key); ok {
			if duration, err := time.ParseDuration(value); err == nil {
				return duration
			}
		}
		return defaultValue
	}

	getList := func(key string) []string {
		value, ok := lookup(key)
		if !ok {
			return nil
		}
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items
	}

	config := &Config{
		Server: ServerConfig{
			Host:      get("HOST", "localhost"),
			Port:      getInt("SERVER_PORT", 8080),
			BaseRoute: get("BASE_ROUTE", "/api"),
			WebDomain: get("WEB_DOMAIN", "http://localhost:3000"),
			Debug:     getBool("DEBUG", false),

			ProxyHeader:    get("PROXY_HEADER", ""),
			TrustedProxies: getList("TRUSTED_PROXIES"),
		},
		Recaptcha: RecaptchaConfig{
			SecretKey:   get("RECAPTCHA_KEY", ""),
			MinScore:    getFloat("RECAPTCHA_MIN_SCORE", 0.5),
			BypassCode:  get("RECAPTCHA_BYPASS_CODE", ""),
			Hostname:    get("RECAPTCHA_HOSTNAME", ""),
			Endpoint:    get("RECAPTCHA_ENDPOINT", "https://www.google.com/recaptcha/api/siteverify"),
			Timeout:     getDuration("RECAPTCHA_TIMEOUT", 5*time.Second),
			UseClientIP: getBool("VERIFY_USE_CLIENT_IP", true),
		},
		HMAC: HMACConfig{
			Secret: get("HMAC_SECRET", ""),
		},
		Cache: CacheConfig{
			Enabled:         getBool("CACHE_ENABLED", false),
			Backend:         get("CACHE_BACKEND", "memory"),
			Prefix:          get("CACHE_PREFIX", "recaptcha:"),
			TTL:             getDuration("CACHE_TTL", 2*time.Minute),
			MaxMemory:       getInt64("CACHE_MAX_MEMORY", 16*1024*1024), // 16MB default
			CleanupInterval: getDuration("CACHE_CLEANUP_INTERVAL", time.Minute),
			Redis: RedisConfig{
				Address:      get("REDIS_ADDRESS", "localhost:6379"),
				Password:     get("REDIS_PASSWORD", ""),
				Database:     getInt("REDIS_DATABASE", 0),
				PoolSize:     getInt("REDIS_POOL_SIZE", 10),
				MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
				MaxConnAge:   time.Duration(getInt("REDIS_MAX_CONN_AGE", 1800)) * time.Second,

				ClusterAddresses: getList("REDIS_CLUSTER_ADDRESSES"),
			},
		},
		Audit: AuditConfig{
			Enabled:         getBool("AUDIT_ENABLED", false),
			DSN:             get("POSTGRES_DSN", ""),
			MaxOpenConns:    getInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getInt("POSTGRES_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:  getBool("RATE_LIMIT_VERIFY_ENABLED", true),
			Max:      getInt("RATE_LIMIT_VERIFY_MAX", 60),
			Duration: getDuration("RATE_LIMIT_VERIFY_DURATION", time.Minute),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration for required fields
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.Recaptcha.SecretKey) == "" {
		errors = append(errors, "RECAPTCHA_KEY is required")
	}
	if c.Recaptcha.MinScore < 0 || c.Recaptcha.MinScore > 1 {
		errors = append(errors, "RECAPTCHA_MIN_SCORE must be between 0 and 1")
	}
	if c.Recaptcha.Timeout <= 0 {
		errors = append(errors, "RECAPTCHA_TIMEOUT must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be a valid port")
	}

	if c.Cache.Enabled {
		validBackends := []string{"memory", "redis"}
		if !contains(validBackends, c.Cache.Backend) {
			errors = append(errors, fmt.Sprintf("CACHE_BACKEND must be one of: %s", strings.Join(validBackends, ", ")))
		}
		if c.Cache.TTL <= 0 {
			errors = append(errors, "CACHE_TTL must be positive")
		}
	}

	if len(c.Server.TrustedProxies) > 0 && c.Server.ProxyHeader == "" {
		errors = append(errors, "TRUSTED_PROXIES requires PROXY_HEADER")
	}

	if c.Audit.Enabled && strings.TrimSpace(c.Audit.DSN) == "" {
		errors = append(errors, "POSTGRES_DSN is required when AUDIT_ENABLED is true")
	}

	if c.RateLimit.Enabled && (c.RateLimit.Max <= 0 || c.RateLimit.Duration <= 0) {
		errors = append(errors, "RATE_LIMIT_VERIFY_MAX and RATE_LIMIT_VERIFY_DURATION must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// Address returns the listen address for the HTTP server
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
