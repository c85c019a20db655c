package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketScope/internal/explorer"
	"marketScope/internal/market"
	"marketScope/internal/model"
	"marketScope/internal/storage"
)

// RunConfig holds runtime settings for an ingestion run.
type RunConfig struct {
	// MarketplaceContract receives the listing/buy calls to ingest.
	MarketplaceContract string
	// PaymentToken is the ERC-20 whose transfers carry sale proceeds.
	PaymentToken string
	// Selectors identifies marketplace methods; buyItem rows drive the
	// follow-up token-transfer fetches.
	Selectors map[string]model.EventKind
	// StartBlock is where ingestion begins when no checkpoint exists.
	StartBlock        uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner pulls marketplace transactions and their payment-token transfer
// legs from the explorer and appends strictly-new rows to storage.
type Runner struct {
	cfg           RunConfig
	client        *explorer.Client
	store         storage.RawStore
	logger        *zap.Logger
	seen          map[string]struct{}
	seenTransfers map[string]struct{}
	checkpoint    *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, client *explorer.Client, store storage.RawStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:           cfg,
		client:        client,
		store:         store,
		logger:        logger,
		seen:          make(map[string]struct{}),
		seenTransfers: make(map[string]struct{}),
		checkpoint:    NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// SeedHashes marks already-persisted transaction hashes so re-runs over an
// overlapping fetch window cannot append duplicates.
func (r *Runner) SeedHashes(hashes []string) {
	for _, h := range hashes {
		r.seen[strings.ToLower(h)] = struct{}{}
	}
}

// SeedTransfers marks already-persisted transfer legs. The key includes
// value and recipient because one hash can carry several legs.
func (r *Runner) SeedTransfers(transfers []model.TokenTransfer) {
	for _, t := range transfers {
		r.seenTransfers[t.Hash+"|"+t.Value+"|"+t.To] = struct{}{}
	}
}

// Run executes the ingestion loop: page the explorer by start block until
// a fetch window yields no new rows, appending each delta and saving the
// checkpoint after every page.
func (r *Runner) Run(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("explorer client is nil")
	}
	if r.store == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.MarketplaceContract == "" {
		return fmt.Errorf("marketplace contract is required")
	}
	if r.cfg.PaymentToken == "" {
		return fmt.Errorf("payment token is required")
	}

	from := r.cfg.StartBlock
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok && cp.LastIngestedBlock >= from {
			// Resume on the checkpoint block itself: the page cap can
			// split a block, and hash dedup absorbs the overlap.
			from = cp.LastIngestedBlock
			r.logger.Info("resume from checkpoint", zap.Uint64("from", from))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch marketplace transactions", zap.Uint64("start_block", from))

		page, err := r.contractTransactionsWithRetry(ctx, from)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}

		ingestedAt := time.Now().UTC()
		raws := r.normalizeTransactions(page, ingestedAt)
		fresh := market.NewTransactions(r.seen, raws)
		if len(fresh) == 0 {
			r.logger.Info("no new transactions", zap.Uint64("start_block", from))
			return nil
		}

		transfers, err := r.fetchTransferLegs(ctx, fresh, from, ingestedAt)
		if err != nil {
			return err
		}

		if err := r.store.PutTransactionBatch(fresh); err != nil {
			return fmt.Errorf("store transactions: %w", err)
		}
		if err := r.store.PutTransferBatch(transfers); err != nil {
			return fmt.Errorf("store transfers: %w", err)
		}

		highest := market.HighestBlock(fresh)
		if r.checkpoint != nil {
			if err := r.checkpoint.Save(highest); err != nil {
				return err
			}
		}

		r.logger.Info("page complete",
			zap.Int("transactions", len(fresh)),
			zap.Int("transfers", len(transfers)),
			zap.Uint64("highest_block", highest),
		)

		// A short page means the window was complete, not capped.
		if len(page) < explorer.MaxPageResults {
			return nil
		}
		from = highest
	}
}

func (r *Runner) normalizeTransactions(page []explorer.Transaction, ingestedAt time.Time) []model.RawTransaction {
	out := make([]model.RawTransaction, 0, len(page))
	for _, tx := range page {
		raw, err := buildRawTransaction(tx, ingestedAt)
		if err != nil {
			r.logger.Warn("skip malformed explorer row", zap.String("hash", tx.Hash), zap.Error(err))
			continue
		}
		out = append(out, raw)
	}
	return out
}

// fetchTransferLegs pulls payment-token transfers for every distinct buyer
// wallet in the batch. Buys are identified by selector so the explorer is
// only queried for wallets that actually purchased something.
func (r *Runner) fetchTransferLegs(ctx context.Context, batch []model.RawTransaction, startBlock uint64, ingestedAt time.Time) ([]model.TokenTransfer, error) {
	buyers := make([]string, 0)
	seenBuyer := make(map[string]bool)
	for _, tx := range batch {
		if !tx.Succeeded || len(tx.Input) < 10 {
			continue
		}
		if r.cfg.Selectors[strings.ToLower(tx.Input[:10])] != model.KindBuyItem {
			continue
		}
		if seenBuyer[tx.From] {
			continue
		}
		seenBuyer[tx.From] = true
		buyers = append(buyers, tx.From)
	}

	transfers := make([]model.TokenTransfer, 0)
	for _, buyer := range buyers {
		rows, err := r.tokenTransfersWithRetry(ctx, buyer, startBlock)
		if err != nil {
			return nil, fmt.Errorf("fetch transfers for %s: %w", buyer, err)
		}
		for _, row := range rows {
			transfer, err := buildTokenTransfer(row, ingestedAt)
			if err != nil {
				r.logger.Warn("skip malformed transfer row", zap.String("hash", row.Hash), zap.Error(err))
				continue
			}
			id := transfer.Hash + "|" + transfer.Value + "|" + transfer.To
			if _, ok := r.seenTransfers[id]; ok {
				continue
			}
			r.seenTransfers[id] = struct{}{}
			transfers = append(transfers, transfer)
		}
	}
	return transfers, nil
}

func (r *Runner) contractTransactionsWithRetry(ctx context.Context, startBlock uint64) ([]explorer.Transaction, error) {
	var page []explorer.Transaction
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		page, err = r.client.ContractTransactions(ctx, r.cfg.MarketplaceContract, startBlock)
		if err != nil {
			r.logger.Warn("contract transactions fetch failed", zap.Error(err), zap.Uint64("start_block", startBlock))
		}
		return err
	})
	return page, err
}

func (r *Runner) tokenTransfersWithRetry(ctx context.Context, wallet string, startBlock uint64) ([]explorer.Transaction, error) {
	var page []explorer.Transaction
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		page, err = r.client.TokenTransfers(ctx, r.cfg.PaymentToken, wallet, startBlock)
		if err != nil {
			r.logger.Warn("token transfers fetch failed", zap.Error(err), zap.String("wallet", wallet))
		}
		return err
	})
	return page, err
}
