package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Server       ServerConfig
	DB           DBConfig
	Redis        RedisConfig
	Cart         CartConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RETAILCART_APP_ENV" default:"dev"`
	Port         string `envconfig:"RETAILCART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"RETAILCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RETAILCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServerConfig struct {
	CORSOrigins     []string      `envconfig:"RETAILCART_SERVER_CORS_ORIGINS"`
	ReadTimeout     time.Duration `envconfig:"RETAILCART_SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"RETAILCART_SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"RETAILCART_SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"RETAILCART_SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

type DBConfig struct {
	DSN             string        `envconfig:"RETAILCART_DB_DSN"`
	MaxOpenConns    int           `envconfig:"RETAILCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RETAILCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RETAILCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RETAILCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// Enabled reports whether a database was configured at all. The API can run
// against the in-memory promotion catalog when no DSN is provided.
func (d DBConfig) Enabled() bool {
	return strings.TrimSpace(d.DSN) != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"RETAILCART_REDIS_URL"`
	Address      string        `envconfig:"RETAILCART_REDIS_ADDR"`
	Password     string        `envconfig:"RETAILCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETAILCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETAILCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETAILCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETAILCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETAILCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETAILCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether redis was configured. Carts fall back to the
// in-process store when it is not.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CartConfig struct {
	// TaxRate is the flat rate applied to the discounted subtotal in the
	// cart summary, e.g. 0.08 for 8%.
	TaxRate  float64       `envconfig:"RETAILCART_CART_TAX_RATE" default:"0.08"`
	TTL      time.Duration `envconfig:"RETAILCART_CART_TTL" default:"72h"`
	Currency string        `envconfig:"RETAILCART_CART_DEFAULT_CURRENCY" default:"USD"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RETAILCART_FEATURE_AUTO_MIGRATE" default:"false"`
}
