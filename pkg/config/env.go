package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const EnvPrefix = "GROCERY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv             = "GROCERY_APP_ENV"
	EnvPort               = "GROCERY_APP_PORT"
	EnvLogLevel           = "GROCERY_LOG_LEVEL"
	EnvDBDSN              = "GROCERY_DB_DSN"
	EnvDBHost             = "GROCERY_DB_HOST"
	EnvDBUser             = "GROCERY_DB_USER"
	EnvDBName             = "GROCERY_DB_NAME"
	EnvRedisURL           = "GROCERY_REDIS_URL"
	EnvJWTSecret          = "GROCERY_JWT_SECRET"
	EnvJWTIssuer          = "GROCERY_JWT_ISSUER"
	EnvJWTExpMins         = "GROCERY_JWT_EXPIRATION_MINUTES"
	EnvTaxRatePercent     = "GROCERY_TAX_RATE_PERCENT"
	EnvCurrencyMinorUnits = "GROCERY_CURRENCY_MINOR_UNITS"
	EnvGCPProjectID       = "GROCERY_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "GROCERY_PUBSUB_ORDERS_TOPIC"
	EnvPubSubDiscounts    = "GROCERY_PUBSUB_DISCOUNTS_TOPIC"
	EnvAutoMigrate        = "GROCERY_AUTO_MIGRATE"
	EnvCORSOrigins        = "GROCERY_CORS_ALLOWED_ORIGINS"
	EnvApplyDiscountLimit = "GROCERY_RATE_LIMIT_APPLY_DISCOUNT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

var hundred = decimal.NewFromInt(100)

// ParseTaxRate parses a percentage such as "5" or "12.5" into a fraction (0.05, 0.125).
func ParseTaxRate(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	pct, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tax rate %q: %w", value, err)
	}
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("tax rate %q must be between 0 and 100", value)
	}
	return pct.Div(hundred), nil
}

// TaxRate returns the configured tax rate as a fraction. Load has already validated it.
func (c CheckoutConfig) TaxRate() decimal.Decimal {
	rate, err := ParseTaxRate(c.TaxRatePercent)
	if err != nil {
		return decimal.Zero
	}
	return rate
}
