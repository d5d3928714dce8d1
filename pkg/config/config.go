package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	RateLimit    RateLimitConfig
	Maintenance  MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GROCERY_APP_ENV" required:"true"`
	Port         string `envconfig:"GROCERY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GROCERY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GROCERY_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"GROCERY_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GROCERY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"GROCERY_DB_DSN"`

	LegacyHost     string `envconfig:"GROCERY_DB_HOST"`
	LegacyPort     int    `envconfig:"GROCERY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GROCERY_DB_USER"`
	LegacyPassword string `envconfig:"GROCERY_DB_PASSWORD"`
	LegacyName     string `envconfig:"GROCERY_DB_NAME"`
	LegacySSLMode  string `envconfig:"GROCERY_DB_SSLMODE" default:"disable"`

	MaxOpenConns     int           `envconfig:"GROCERY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns     int           `envconfig:"GROCERY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime  time.Duration `envconfig:"GROCERY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime  time.Duration `envconfig:"GROCERY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	StatementTimeout time.Duration `envconfig:"GROCERY_DB_STATEMENT_TIMEOUT" default:"5s"`
	SlowQuery        time.Duration `envconfig:"GROCERY_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GROCERY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GROCERY_REDIS_ADDR"`
	Password     string        `envconfig:"GROCERY_REDIS_PASSWORD"`
	DB           int           `envconfig:"GROCERY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GROCERY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GROCERY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GROCERY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GROCERY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GROCERY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GROCERY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GROCERY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GROCERY_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CheckoutConfig drives order-total assembly.
type CheckoutConfig struct {
	TaxRatePercent string        `envconfig:"GROCERY_TAX_RATE_PERCENT" default:"0"`
	Currency       string        `envconfig:"GROCERY_CURRENCY" default:"INR"`
	MinorUnits     int32         `envconfig:"GROCERY_CURRENCY_MINOR_UNITS" default:"2"`
	IdempotencyTTL time.Duration `envconfig:"GROCERY_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GROCERY_AUTO_MIGRATE" default:"false"`
}

type PubSubConfig struct {
	ProjectID      string `envconfig:"GROCERY_GCP_PROJECT_ID"`
	OrdersTopic    string `envconfig:"GROCERY_PUBSUB_ORDERS_TOPIC" default:"grocery-order-events"`
	DiscountsTopic string `envconfig:"GROCERY_PUBSUB_DISCOUNTS_TOPIC" default:"grocery-discount-events"`
}

// RateLimitConfig throttles discount code attempts per caller.
type RateLimitConfig struct {
	ApplyDiscountLimit  int           `envconfig:"GROCERY_RATE_LIMIT_APPLY_DISCOUNT" default:"20"`
	ApplyDiscountWindow time.Duration `envconfig:"GROCERY_RATE_LIMIT_APPLY_DISCOUNT_WINDOW" default:"1m"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GROCERY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GROCERY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GROCERY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// MaintenanceConfig schedules the cron worker's housekeeping jobs.
type MaintenanceConfig struct {
	Interval            time.Duration `envconfig:"GROCERY_MAINTENANCE_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"GROCERY_OUTBOX_RETENTION_DAYS" default:"30"`
}

func (c CheckoutConfig) validate() error {
	if c.MinorUnits < 0 || c.MinorUnits > 4 {
		return fmt.Errorf("%s must be between 0 and 4", EnvCurrencyMinorUnits)
	}
	if _, err := ParseTaxRate(c.TaxRatePercent); err != nil {
		return fmt.Errorf("%s: %w", EnvTaxRatePercent, err)
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
