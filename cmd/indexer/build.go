package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketScope/internal/config"
	"marketScope/internal/market"
	"marketScope/internal/model"
	"marketScope/internal/storage"
	"marketScope/internal/storage/postgres"
)

func runBuild(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBuild(cfgFile, cmd.Flags())
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

	feeRate, err := decimal.NewFromString(cfg.FeeRate)
	if err != nil {
		return fmt.Errorf("invalid fee rate: %w", err)
	}

	lookups, err := config.LoadLookups(cfg.LookupsDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transactions, err := storage.ReadTransactions(cfg.TxIn)
	if err != nil {
		return fmt.Errorf("read transactions: %w", err)
	}
	transfers, err := storage.ReadTransfers(cfg.TransfersIn)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read transfers: %w", err)
	}

	logger.Info("build start",
		zap.String("tx_in", cfg.TxIn),
		zap.Int("transactions", len(transactions)),
		zap.Int("transfers", len(transfers)),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	classifier := market.NewClassifier(market.ClassifierConfig{
		Collections: lookups.Collections,
		TokenNames:  lookups.TokenNames,
	})
	decoder := market.NewDecoder(market.DecoderConfig{
		Selectors:           lookups.Selectors,
		MarketplaceVersions: lookups.Marketplaces,
	}, classifier)

	var events []model.DecodedEvent
	var decodeErrors []model.DecodeErrorRecord
	for _, tx := range transactions {
		event, err := decoder.Decode(tx)
		if err != nil {
			decodeErrors = append(decodeErrors, decodeErrorRecord(tx, err))
			continue
		}
		if event != nil {
			events = append(events, *event)
		}
	}

	if len(decodeErrors) > 0 {
		logger.Warn("decode errors", zap.Int("count", len(decodeErrors)), zap.String("sink", cfg.Errors))
		if err := appendDecodeErrors(cfg.Errors, decodeErrors); err != nil {
			return fmt.Errorf("write decode errors: %w", err)
		}
	}

	var buys []model.DecodedEvent
	for _, ev := range events {
		if ev.Kind == model.KindBuyItem {
			buys = append(buys, ev)
		}
	}

	reconciler := market.NewSaleReconciler(market.ReconcilerConfig{
		FeeWallet: cfg.FeeWallet,
		FeeRate:   feeRate,
	})
	sales, saleFlags := reconciler.Reconcile(buys, transfers)

	listings, lifecycleFlags := market.NewLifecycleBuilder().Build(events, sales)

	for _, flag := range append(saleFlags, lifecycleFlags...) {
		logger.Warn("reconciliation flag",
			zap.String("kind", string(flag.Kind)),
			zap.String("tx_hash", flag.TxHash),
			zap.String("related_tx", flag.RelatedTx),
			zap.String("collection", flag.Collection),
			zap.Uint64("token_id", flag.TokenID),
			zap.String("detail", flag.Detail),
		)
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	prevCursor, _, err := store.LoadState(ctx, "build")
	if err != nil {
		return fmt.Errorf("load build cursor: %w", err)
	}

	// Sales are append-only; sending only unseen hashes keeps the batch
	// proportional to the delta instead of the full history.
	storedSales, err := store.SaleHashes(ctx)
	if err != nil {
		return fmt.Errorf("load sale hashes: %w", err)
	}
	stored := market.HashSet(storedSales)
	newSales := make([]model.Sale, 0, len(sales))
	for _, sale := range sales {
		if _, ok := stored[sale.TxHash]; ok {
			continue
		}
		newSales = append(newSales, sale)
	}

	insertedSales, err := store.InsertSales(ctx, newSales)
	if err != nil {
		return fmt.Errorf("insert sales: %w", err)
	}
	insertedListings, err := store.InsertListings(ctx, listings)
	if err != nil {
		return fmt.Errorf("insert listings: %w", err)
	}

	if highest := market.HighestBlock(transactions); highest > 0 {
		if err := store.SaveState(ctx, "build", highest); err != nil {
			return fmt.Errorf("save build cursor: %w", err)
		}
	}

	logger.Info("build complete",
		zap.Uint64("previous_cursor", prevCursor),
		zap.Uint64("cursor", market.HighestBlock(transactions)),
		zap.Int("events", len(events)),
		zap.Int("sales", len(sales)),
		zap.Int("listings", len(listings)),
		zap.Int64("inserted_sales", insertedSales),
		zap.Int64("upserted_listings", insertedListings),
		zap.Int("flags", len(saleFlags)+len(lifecycleFlags)),
	)

	return nil
}

func decodeErrorRecord(tx model.RawTransaction, err error) model.DecodeErrorRecord {
	record := model.DecodeErrorRecord{
		TxHash:      tx.Hash,
		BlockNumber: tx.BlockNumber,
		Error:       err.Error(),
	}
	if len(tx.Input) >= 10 {
		record.Selector = tx.Input[:10]
	}
	return record
}

func appendDecodeErrors(path string, records []model.DecodeErrorRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return err
		}
	}
	return writer.Flush()
}
