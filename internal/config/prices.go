package config

import (
	"github.com/spf13/pflag"
)

// PricesConfig holds configuration for the prices command.
type PricesConfig struct {
	PriceAPIURL string
	PGDSN       string
	Days        int
	MagicCoinID string
	EthCoinID   string
	LogLevel    string
}

// LoadPrices merges config file, environment variables, and flags into PricesConfig.
func LoadPrices(cfgFile string, flags *pflag.FlagSet) (PricesConfig, error) {
	v := newViper()

	v.SetDefault("price-api-url", "https://api.coingecko.com/api/v3")
	v.SetDefault("days", 7)
	v.SetDefault("magic-coin-id", "magic")
	v.SetDefault("eth-coin-id", "ethereum")
	v.SetDefault("log-level", "info")

	if err := mergeSources(v, cfgFile, flags); err != nil {
		return PricesConfig{}, err
	}

	cfg := PricesConfig{
		PriceAPIURL: v.GetString("price-api-url"),
		PGDSN:       v.GetString("pg-dsn"),
		Days:        v.GetInt("days"),
		MagicCoinID: v.GetString("magic-coin-id"),
		EthCoinID:   v.GetString("eth-coin-id"),
		LogLevel:    v.GetString("log-level"),
	}

	return cfg, nil
}
