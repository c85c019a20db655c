package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Treasure marketplace transaction indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Pull marketplace transactions and payment-token transfers",
		RunE:  runIngest,
	}

	ingestCmd.Flags().String("api-url", "https://api.arbiscan.io/api", "block explorer API URL")
	ingestCmd.Flags().String("api-key", "", "block explorer API key")
	ingestCmd.Flags().Int("rps", 2, "explorer requests per second")
	ingestCmd.Flags().Uint64("start-block", 0, "start block when no checkpoint exists")
	ingestCmd.Flags().String("lookups", "./lookups", "lookup tables directory")
	ingestCmd.Flags().String("tx-out", "./data/transactions.jsonl", "raw transactions JSONL path")
	ingestCmd.Flags().String("transfers-out", "./data/transfers.jsonl", "token transfers JSONL path")
	ingestCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	ingestCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	ingestCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	ingestCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	ingestCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(ingestCmd)

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Decode raw transactions into sales and listing lifecycles",
		RunE:  runBuild,
	}

	buildCmd.Flags().String("tx-in", "./data/transactions.jsonl", "raw transactions JSONL path")
	buildCmd.Flags().String("transfers-in", "./data/transfers.jsonl", "token transfers JSONL path")
	buildCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	buildCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	buildCmd.Flags().String("lookups", "./lookups", "lookup tables directory")
	buildCmd.Flags().String("fee-wallet", "0xdb6ab450178babcf0e467c1f3b436050d907e233", "marketplace fee wallet")
	buildCmd.Flags().String("fee-rate", "0.05", "marketplace fee rate")
	buildCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(buildCmd)

	pricesCmd := &cobra.Command{
		Use:   "prices",
		Short: "Pull MAGIC and ETH USD price series",
		RunE:  runPrices,
	}

	pricesCmd.Flags().String("price-api-url", "https://api.coingecko.com/api/v3", "price API URL")
	pricesCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	pricesCmd.Flags().Int("days", 7, "days of price history to fetch")
	pricesCmd.Flags().String("magic-coin-id", "magic", "price API coin id for MAGIC")
	pricesCmd.Flags().String("eth-coin-id", "ethereum", "price API coin id for ETH")
	pricesCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(pricesCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
