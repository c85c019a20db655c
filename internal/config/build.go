package config

import (
	"github.com/spf13/pflag"
)

// BuildConfig holds configuration for the build command.
type BuildConfig struct {
	TxIn        string
	TransfersIn string
	Errors      string
	PGDSN       string
	LookupsDir  string
	FeeWallet   string
	FeeRate     string
	LogLevel    string
}

// LoadBuild merges config file, environment variables, and flags into BuildConfig.
func LoadBuild(cfgFile string, flags *pflag.FlagSet) (BuildConfig, error) {
	v := newViper()

	v.SetDefault("tx-in", "./data/transactions.jsonl")
	v.SetDefault("transfers-in", "./data/transfers.jsonl")
	v.SetDefault("errors", "./data/decode_errors.jsonl")
	v.SetDefault("lookups", "./lookups")
	v.SetDefault("fee-wallet", "0xdb6ab450178babcf0e467c1f3b436050d907e233")
	v.SetDefault("fee-rate", "0.05")
	v.SetDefault("log-level", "info")

	if err := mergeSources(v, cfgFile, flags); err != nil {
		return BuildConfig{}, err
	}

	cfg := BuildConfig{
		TxIn:        v.GetString("tx-in"),
		TransfersIn: v.GetString("transfers-in"),
		Errors:      v.GetString("errors"),
		PGDSN:       v.GetString("pg-dsn"),
		LookupsDir:  v.GetString("lookups"),
		FeeWallet:   v.GetString("fee-wallet"),
		FeeRate:     v.GetString("fee-rate"),
		LogLevel:    v.GetString("log-level"),
	}

	return cfg, nil
}
