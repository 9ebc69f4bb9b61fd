package cmd

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/etnz/holdings"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Environment variables holding the defaults of the global flags.
const (
	EnvLedger        = "HLD_LEDGER"
	EnvReference     = "HLD_REFERENCE"
	EnvResidence     = "HLD_RESIDENCE"
	EnvCurrency      = "HLD_CURRENCY"
	EnvExchangeFee   = "HLD_EXCHANGE_FEE"
	EnvLogLevel      = "HLD_LOG_LEVEL"
	EnvToleranceDays = "HLD_TOLERANCE_DAYS"
)

// Config is the configuration shared by all commands.
type Config struct {
	Ledger        string // JSONL transaction log
	Reference     string // JSONL reference data
	Residence     string // tax residence
	Currency      string // reporting currency
	ExchangeFee   decimal.Decimal
	LogLevel      string
	ToleranceDays int
}

// LoadConfig reads the configuration from the environment, after loading the
// .env file of the working directory if there is one.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	fee, err := decimal.NewFromString(getEnv(EnvExchangeFee, holdings.DefaultExchangeFee.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvExchangeFee, err)
	}
	cfg := &Config{
		Ledger:        getEnv(EnvLedger, "transactions.jsonl"),
		Reference:     getEnv(EnvReference, "reference.jsonl"),
		Residence:     getEnv(EnvResidence, "FR"),
		Currency:      getEnv(EnvCurrency, "EUR"),
		ExchangeFee:   fee,
		LogLevel:      getEnv(EnvLogLevel, "info"),
		ToleranceDays: getEnvAsInt(EnvToleranceDays, holdings.DefaultTolerance),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be checked by the flag package.
func (c *Config) Validate() error {
	if err := holdings.ValidateCurrency(c.Currency); err != nil {
		return fmt.Errorf("reporting currency: %w", err)
	}
	if c.ExchangeFee.IsNegative() || c.ExchangeFee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("exchange fee must be in [0, 1), got %s", c.ExchangeFee)
	}
	if c.ToleranceDays < 0 {
		return fmt.Errorf("tolerance must be a positive number of days, got %d", c.ToleranceDays)
	}
	return nil
}

// RegisterFlags declares the global flags on f, the current values of c being the defaults.
func (c *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&c.Ledger, "ledger-file", c.Ledger, "Path to the ledger file containing transactions (JSONL format)")
	f.StringVar(&c.Reference, "reference-file", c.Reference, "Path to the reference data file (JSONL format)")
	f.StringVar(&c.Residence, "residence", c.Residence, "Tax residence")
	f.StringVar(&c.Currency, "currency", c.Currency, "Reporting currency")
	f.TextVar(&c.ExchangeFee, "exchange-fee", c.ExchangeFee, "Share of a converted amount kept by the bank")
	f.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	f.IntVar(&c.ToleranceDays, "tolerance", c.ToleranceDays, "How many days back rates and prices are searched")
}

// Env returns the configuration as environment variables, in the os.Environ format.
func (c *Config) Env() []string {
	return []string{
		EnvLedger + "=" + c.Ledger,
		EnvReference + "=" + c.Reference,
		EnvResidence + "=" + c.Residence,
		EnvCurrency + "=" + c.Currency,
		EnvExchangeFee + "=" + c.ExchangeFee.String(),
		EnvLogLevel + "=" + c.LogLevel,
		EnvToleranceDays + "=" + strconv.Itoa(c.ToleranceDays),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
