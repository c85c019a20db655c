package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// IngestConfig holds configuration values loaded from flags, env, or config file.
type IngestConfig struct {
	APIURL            string
	APIKey            string
	RequestsPerSec    int
	StartBlock        uint64
	LookupsDir        string
	TxOut             string
	TransfersOut      string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// LoadIngest merges config file, environment variables, and flags into IngestConfig.
func LoadIngest(cfgFile string, flags *pflag.FlagSet) (IngestConfig, error) {
	v := newViper()

	v.SetDefault("api-url", "https://api.arbiscan.io/api")
	v.SetDefault("rps", 2)
	v.SetDefault("lookups", "./lookups")
	v.SetDefault("tx-out", "./data/transactions.jsonl")
	v.SetDefault("transfers-out", "./data/transfers.jsonl")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if err := mergeSources(v, cfgFile, flags); err != nil {
		return IngestConfig{}, err
	}

	cfg := IngestConfig{
		APIURL:            v.GetString("api-url"),
		APIKey:            v.GetString("api-key"),
		RequestsPerSec:    v.GetInt("rps"),
		StartBlock:        v.GetUint64("start-block"),
		LookupsDir:        v.GetString("lookups"),
		TxOut:             v.GetString("tx-out"),
		TransfersOut:      v.GetString("transfers-out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func mergeSources(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}
