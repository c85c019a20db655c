package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketScope/internal/config"
	"marketScope/internal/prices"
	"marketScope/internal/storage/postgres"
)

func runPrices(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPrices(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}
	if cfg.Days <= 0 {
		return fmt.Errorf("days must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := prices.NewFetcher(cfg.PriceAPIURL, logger)

	magicSeries, err := fetcher.MarketChart(ctx, cfg.MagicCoinID, cfg.Days)
	if err != nil {
		return fmt.Errorf("fetch %s prices: %w", cfg.MagicCoinID, err)
	}
	ethSeries, err := fetcher.MarketChart(ctx, cfg.EthCoinID, cfg.Days)
	if err != nil {
		return fmt.Errorf("fetch %s prices: %w", cfg.EthCoinID, err)
	}

	merged := prices.MergeSeries(prices.FloorSeries(magicSeries), prices.FloorSeries(ethSeries))

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	cutoff, ok, err := store.LatestPriceTime(ctx)
	if err != nil {
		return fmt.Errorf("latest price time: %w", err)
	}
	if ok {
		merged = prices.After(merged, cutoff)
	}

	inserted, err := store.InsertTokenPrices(ctx, merged)
	if err != nil {
		return fmt.Errorf("insert prices: %w", err)
	}

	logger.Info("prices complete",
		zap.Int("magic_points", len(magicSeries)),
		zap.Int("eth_points", len(ethSeries)),
		zap.Int("merged", len(merged)),
		zap.Int64("inserted", inserted),
		zap.Time("cutoff", cutoff),
		zap.Duration("bucket", prices.Bucket),
	)

	return nil
}
