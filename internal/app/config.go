package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/storekit/checkout/internal/domain/order"
)

// Config holds the complete application configuration, loadable from
// environment variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr    string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Storage string `default:"postgres" usage:"Storage backend: postgres or memory"`

	DatabaseURL string `usage:"PostgreSQL connection URL (CHECKOUT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisAddr   string `usage:"Redis address for idempotency keys; empty uses in-process storage" flag:"redis-addr"`

	Kafka     KafkaConfig
	Gateway   GatewayConfig
	Pricing   PricingConfig
	Checkout  CheckoutConfig
	Inventory InventoryConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// KafkaConfig controls the optional order event stream. Empty brokers
// disable publishing.
type KafkaConfig struct {
	Brokers []string `usage:"Kafka broker addresses"`
	Topic   string   `default:"order-events" usage:"Topic for order lifecycle events"`
}

// GatewayConfig selects and configures the payment gateway.
type GatewayConfig struct {
	Mode    string        `default:"stub" usage:"Payment gateway mode: stub or hosted"`
	BaseURL string        `usage:"Hosted gateway base URL" flag:"gateway-base-url"`
	APIKey  string        `usage:"Hosted gateway API key" flag:"gateway-api-key"`
	Timeout time.Duration `default:"10s" usage:"Gateway request timeout"`

	SuccessURL string `default:"http://localhost:3000/checkout/success" usage:"Redirect target after successful payment" flag:"success-url"`
	CancelURL  string `default:"http://localhost:3000/checkout/cancel" usage:"Redirect target after cancelled payment" flag:"cancel-url"`
}

// PricingConfig holds the money parameters applied at checkout. Decimal
// values are strings to avoid float rounding in configuration.
type PricingConfig struct {
	TaxRate          string `default:"0.18" usage:"Tax rate applied to the subtotal" flag:"tax-rate"`
	ShippingStandard string `default:"99" usage:"Standard shipping cost" flag:"shipping-standard"`
	ShippingExpress  string `default:"199" usage:"Express shipping cost" flag:"shipping-express"`
	Currency         string `default:"INR" usage:"ISO currency code"`
}

// CheckoutConfig bounds the retry loops of the order workflow.
type CheckoutConfig struct {
	RetryAttempts int           `default:"3" usage:"Order persistence attempts" flag:"retry-attempts"`
	RetryDelay    time.Duration `default:"500ms" usage:"Delay between persistence attempts" flag:"retry-delay"`

	PollBaseDelay   time.Duration `default:"1s" usage:"Initial delay of the order read poller" flag:"poll-base-delay"`
	PollMaxDelay    time.Duration `default:"10s" usage:"Delay cap of the order read poller" flag:"poll-max-delay"`
	PollMaxAttempts int           `default:"5" usage:"Attempt bound of the order read poller" flag:"poll-max-attempts"`
}

// InventoryConfig controls stock bookkeeping defaults.
type InventoryConfig struct {
	LowStockThreshold int `default:"5" usage:"Default low-stock threshold for new records" flag:"low-stock-threshold"`
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
		EnvPrefix: "CHECKOUT",
		Files:     []string{"config.yaml", "/etc/checkout/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch cfg.Storage {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("database URL is required: set CHECKOUT_DATABASE_URL or DATABASE_URL")
		}
	case "memory":
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Storage)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) using standard names like DATABASE_URL and PORT to
// the CHECKOUT_-prefixed configuration.
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

// OrderPricing parses the pricing configuration into workflow parameters.
func (c *Config) OrderPricing() (order.Pricing, error) {
	taxRate, err := decimal.NewFromString(c.Pricing.TaxRate)
	if err != nil {
		return order.Pricing{}, errors.Wrap(err, "parse tax rate")
	}
	standard, err := decimal.NewFromString(c.Pricing.ShippingStandard)
	if err != nil {
		return order.Pricing{}, errors.Wrap(err, "parse standard shipping cost")
	}
	express, err := decimal.NewFromString(c.Pricing.ShippingExpress)
	if err != nil {
		return order.Pricing{}, errors.Wrap(err, "parse express shipping cost")
	}

	return order.Pricing{
		TaxRate: taxRate,
		ShippingRates: map[string]decimal.Decimal{
			"standard": standard,
			"express":  express,
		},
		DefaultShippingCost: standard,
		Currency:            c.Pricing.Currency,
		SuccessURL:          c.Gateway.SuccessURL,
		CancelURL:           c.Gateway.CancelURL,
	}, nil
}
