package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (BURGER_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (BURGER_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (BURGER_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Cart         CartConfig
	Reports      ReportsConfig
	RateLimit    RateLimitConfig
	Graceful     GracefulConfig
}

// CartConfig tunes the optimistic cart writer.
type CartConfig struct {
	MaxAttempts int `default:"5" usage:"Attempts per cart mutation before reporting a conflict" flag:"cart-max-attempts"`
}

// ReportsConfig controls the dashboard report cache. The cache is disabled
// when RedisAddr is empty.
type ReportsConfig struct {
	RedisAddr string        `usage:"Redis URL for the report cache (BURGER_REPORTS_REDIS_ADDR or REDIS_URL)" flag:"reports-redis-addr"`
	TTL       time.Duration `default:"1m" usage:"Lifetime of cached reports" flag:"reports-ttl"`
}

// RateLimitConfig controls the per-client token bucket rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

func loadConfig(args []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		Args:      args,
		EnvPrefix: "BURGER",
		Files:     []string{"config.yaml", "/etc/burger/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set BURGER_DATABASE_URL or DATABASE_URL")
	case c.Cart.MaxAttempts < 1:
		return errors.Errorf("cart max attempts must be positive, got %d", c.Cart.MaxAttempts)
	case c.RateLimit.Max < 1 || c.RateLimit.Window <= 0:
		return errors.New("rate limit max and window must be positive")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL, REDIS_URL and PORT to the
// application's BURGER_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Reports.RedisAddr == "" {
		c.Reports.RedisAddr = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
