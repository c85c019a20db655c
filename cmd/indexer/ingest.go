package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketScope/internal/config"
	"marketScope/internal/explorer"
	"marketScope/internal/indexer"
	"marketScope/internal/model"
	"marketScope/internal/storage"
)

func runIngest(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadIngest(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.APIKey == "" {
		return fmt.Errorf("api key is required")
	}

	lookups, err := config.LoadLookups(cfg.LookupsDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := explorer.NewClient(explorer.Config{
		BaseURL:           cfg.APIURL,
		APIKey:            cfg.APIKey,
		RequestsPerSecond: float64(cfg.RequestsPerSec),
	}, logger)

	store := storage.NewJsonlStore(cfg.TxOut, cfg.TransfersOut)

	seenHashes, seenTransfers, err := loadSeedRows(cfg.TxOut, cfg.TransfersOut)
	if err != nil {
		return err
	}

	logger.Info("ingest start",
		zap.String("api_url", cfg.APIURL),
		zap.Int("marketplaces", len(lookups.Marketplaces)),
		zap.Uint64("start_block", cfg.StartBlock),
		zap.String("tx_out", cfg.TxOut),
		zap.Int("known_transactions", len(seenHashes)),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	for _, contract := range lookups.MarketplaceAddresses() {
		version := lookups.Marketplaces[contract]

		runner := indexer.NewRunner(indexer.RunConfig{
			MarketplaceContract: contract,
			PaymentToken:        lookups.PaymentToken,
			Selectors:           lookups.Selectors,
			StartBlock:          cfg.StartBlock,
			CheckpointPath:      versionedCheckpoint(cfg.Checkpoint, version),
			CheckpointEnabled:   cfg.CheckpointEnabled,
			MaxRetries:          cfg.MaxRetries,
			RetryBackoff:        cfg.RetryBackoff,
		}, client, store, logger.With(zap.Int("marketplace_version", version)))

		runner.SeedHashes(seenHashes)
		runner.SeedTransfers(seenTransfers)

		if err := runner.Run(ctx); err != nil {
			return fmt.Errorf("ingest marketplace v%d: %w", version, err)
		}
	}

	return nil
}

// loadSeedRows replays the output files so a restarted ingest cannot
// append rows it already wrote. Missing files mean a first run.
func loadSeedRows(txPath, transferPath string) ([]string, []model.TokenTransfer, error) {
	var hashes []string
	txs, err := storage.ReadTransactions(txPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, err
	}
	for _, tx := range txs {
		hashes = append(hashes, tx.Hash)
	}

	transfers, err := storage.ReadTransfers(transferPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, err
	}
	return hashes, transfers, nil
}

// versionedCheckpoint derives a per-marketplace checkpoint path so the two
// contract versions track progress independently.
func versionedCheckpoint(path string, version int) string {
	if version <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + fmt.Sprintf("-v%d", version) + ext
}
