package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (SHOP_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Paystack     PaystackConfig
	SMTP         SMTPConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// PaystackConfig holds the payment gateway credentials and webhook policy.
type PaystackConfig struct {
	SecretKey   string        `usage:"Paystack secret key (SHOP_PAYSTACK_SECRET_KEY)" flag:"paystack-secret-key"`
	PublicKey   string        `usage:"Paystack public key" flag:"paystack-public-key"`
	BaseURL     string        `default:"https://api.paystack.co" usage:"Paystack API base URL" flag:"paystack-base-url"`
	CallbackURL string        `usage:"Base URL the gateway redirects buyers back to" flag:"paystack-callback-url"`
	Timeout     time.Duration `default:"15s" usage:"Gateway request timeout" flag:"paystack-timeout"`
	// RelaxedWebhooks tolerates missing webhook signatures, for local
	// development behind tunnels. Mismatched signatures are always rejected.
	RelaxedWebhooks bool `default:"false" usage:"Tolerate missing webhook signatures (dev only)" flag:"relaxed-webhooks"`
}

// SMTPConfig holds the outbound email relay settings. An empty host disables
// email entirely.
type SMTPConfig struct {
	Host     string `usage:"SMTP relay host; empty disables email" flag:"smtp-host"`
	Port     int    `default:"587" usage:"SMTP relay port" flag:"smtp-port"`
	Username string `usage:"SMTP username" flag:"smtp-username"`
	Password string `usage:"SMTP password" flag:"smtp-password"`
	From     string `usage:"From address for transactional email" flag:"smtp-from"`
	ShopName string `default:"Crochet Hair by GG" usage:"Shop name used in email subjects" flag:"shop-name"`
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

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/shop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Paystack.SecretKey == "" {
		return nil, errors.New("Paystack secret key is required: set SHOP_PAYSTACK_SECRET_KEY")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
