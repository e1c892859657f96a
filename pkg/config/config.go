package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is empty because every field names its variable in full.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Cart     CartConfig
	Catalog  CatalogConfig
	Checkout CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TROPX_APP_ENV" default:"dev"`
	Port         string `envconfig:"TROPX_APP_PORT" default:"4242"`
	Origin       string `envconfig:"TROPX_APP_ORIGIN" default:"http://localhost:4242"`
	LogLevel     string `envconfig:"TROPX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TROPX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"TROPX_REDIS_URL"`
	Address      string        `envconfig:"TROPX_REDIS_ADDR"`
	Password     string        `envconfig:"TROPX_REDIS_PASSWORD"`
	DB           int           `envconfig:"TROPX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TROPX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TROPX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TROPX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TROPX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TROPX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether any Redis endpoint was provided. When false the
// service keeps carts in process memory only.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

type StripeConfig struct {
	APIKey string `envconfig:"TROPX_STRIPE_API_KEY"`
	Env    string `envconfig:"TROPX_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// DemoMode reports whether the service runs without Stripe credentials and
// should answer checkout requests with the fallback redirect.
func (s StripeConfig) DemoMode() bool {
	return strings.TrimSpace(s.APIKey) == ""
}

type CartConfig struct {
	TTL time.Duration `envconfig:"TROPX_CART_TTL" default:"720h"`
}

type CatalogConfig struct {
	Path string `envconfig:"TROPX_CATALOG_PATH"`
}

type CheckoutConfig struct {
	SuccessPath string        `envconfig:"TROPX_CHECKOUT_SUCCESS_PATH" default:"/success.html"`
	CancelPath  string        `envconfig:"TROPX_CHECKOUT_CANCEL_PATH" default:"/cancel.html"`
	FallbackURL string        `envconfig:"TROPX_CHECKOUT_FALLBACK_URL" default:"/success.html?demo=1"`
	Timeout     time.Duration `envconfig:"TROPX_CHECKOUT_TIMEOUT" default:"10s"`
	PickupPlace string        `envconfig:"TROPX_CHECKOUT_PICKUP_PLACE" default:"MyTropx Store"`
	ShipCountry string        `envconfig:"TROPX_CHECKOUT_SHIP_COUNTRY" default:"US"`
}
