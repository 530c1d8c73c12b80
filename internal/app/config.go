package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/food-kart/internal/docstore"
	"github.com/xenking/food-kart/internal/domain/auth"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendRedis    = "redis"
)

// Config holds the complete application configuration, loadable from
// environment variables (KART_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"API server listen address"`
	AdminPassword string `default:"admin123" usage:"Shared admin panel password (KART_ADMIN_PASSWORD)" flag:"admin-password"`
	Currency      string `default:"AED" usage:"Currency shown next to prices"`
	Timezone      string `default:"Local" usage:"IANA zone used for the orders-today counter"`
	SecureCookies bool   `default:"false" usage:"Mark the cart session cookie Secure (HTTPS deployments)" flag:"secure-cookies"`
	Store         StoreConfig
	Session       SessionConfig
	Checkout      CheckoutConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend       string `default:"memory" usage:"Document store backend: memory, postgres or mongo"`
	DatabaseURL   string `usage:"PostgreSQL connection URL (KART_STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	MongoURI      string `usage:"MongoDB connection URI, replica set required (KART_STORE_MONGO_URI or MONGO_URL)" flag:"mongo-uri"`
	MongoDatabase string `default:"kart" usage:"MongoDB database name" flag:"mongo-database"`
	Breaker       BreakerConfig
}

// BreakerConfig controls the circuit breaker in front of each collection.
type BreakerConfig struct {
	MaxRequests uint32        `default:"1" usage:"Requests allowed while half-open"`
	Interval    time.Duration `default:"0s" usage:"Closed-state counter reset interval (0 never resets)"`
	Timeout     time.Duration `default:"30s" usage:"Open-state duration before probing"`
	Failures    uint32        `default:"5" usage:"Consecutive failures that open the breaker"`
}

func (c BreakerConfig) settings() docstore.BreakerConfig {
	return docstore.BreakerConfig{
		MaxRequests: c.MaxRequests,
		Interval:    c.Interval,
		Timeout:     c.Timeout,
		Failures:    c.Failures,
	}
}

// SessionConfig controls admin and cart sessions.
type SessionConfig struct {
	Backend   string        `default:"memory" usage:"Admin session store: memory or redis"`
	RedisAddr string        `usage:"Redis address or redis:// URL (KART_SESSION_REDIS_ADDR or REDIS_URL)" flag:"redis-addr"`
	TTL       time.Duration `default:"12h" usage:"Admin session lifetime"`
	CartTTL   time.Duration `default:"2h" usage:"Idle time before a customer cart is dropped" flag:"cart-ttl"`
}

// CheckoutConfig controls cart timing around checkout.
type CheckoutConfig struct {
	DismissClearDelay time.Duration `default:"3s" usage:"Delay before the cart clears after the confirmation is dismissed" flag:"dismiss-clear-delay"`
	SweepInterval     time.Duration `default:"5m" usage:"How often idle carts are swept" flag:"sweep-interval"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "KART",
		Files:     []string{"config.yaml", "/etc/kart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("database URL is required: set KART_STORE_DATABASE_URL or DATABASE_URL")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return errors.New("mongo URI is required: set KART_STORE_MONGO_URI or MONGO_URL")
		}
	default:
		return errors.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Session.RedisAddr == "" {
			return errors.New("redis address is required: set KART_SESSION_REDIS_ADDR or REDIS_URL")
		}
	default:
		return errors.Errorf("unknown session backend %q", c.Session.Backend)
	}

	if c.AdminPassword == "" {
		return errors.Errorf("admin password must not be empty (default is %q)", auth.DefaultPassword)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's KART_-prefixed configuration.
func (c *Config) applyPlatformDefaults(getenv func(string) string) {
	if c.Store.DatabaseURL == "" {
		c.Store.DatabaseURL = getenv("DATABASE_URL")
	}
	if c.Store.MongoURI == "" {
		c.Store.MongoURI = getenv("MONGO_URL")
	}
	if c.Session.RedisAddr == "" {
		c.Session.RedisAddr = getenv("REDIS_URL")
	}
	if port := getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	c.Session.Backend = strings.ToLower(c.Session.Backend)
}

// location resolves Timezone; "Local" and "" mean the process zone.
func (c *Config) location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "load timezone %q", c.Timezone)
	}
	return loc, nil
}
