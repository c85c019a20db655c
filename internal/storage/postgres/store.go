package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketScope/internal/model"
)

// Store provides Postgres persistence for the derived marketplace tables.
// All inserts are append-only with primary-key dedup, so re-running a
// build over the same raw data is a no-op.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertSales appends sales, skipping hashes already present. The batch
// runs in one transaction: either every new row lands or none do. Returns
// the number of rows actually inserted.
func (s *Store) InsertSales(ctx context.Context, sales []model.Sale) (int64, error) {
	if len(sales) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, sale := range sales {
		batch.Queue(`
			INSERT INTO marketplace_sales (
				tx_hash, sold_at, block_number, wallet_buyer, wallet_seller,
				sale_amt, seller_amt_received, fee_amt_received, gas_fee_eth,
				collection, token_id, token_name, subcategory, quantity
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			ON CONFLICT (tx_hash) DO NOTHING
		`,
			sale.TxHash,
			sale.Time,
			int64(sale.BlockNumber),
			sale.Buyer,
			sale.Seller,
			sale.TotalAmount,
			sale.SellerProceeds,
			sale.FeeAmount,
			sale.GasFeeETH,
			sale.Collection,
			int64(sale.TokenID),
			nullableString(sale.TokenName),
			nullableString(sale.Subcategory),
			int64(sale.Quantity),
		)
	}
	return s.sendBatchTx(ctx, batch, len(sales))
}

// InsertListings upserts listing lifecycles keyed on the originating
// createListing hash. Lifecycle columns are rewritten on conflict: an
// update, cancellation, or final sale can land in a later build than the
// create it closes out.
func (s *Store) InsertListings(ctx context.Context, listings []model.Listing) (int64, error) {
	if len(listings) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, l := range listings {
		batch.Queue(`
			INSERT INTO marketplace_listings (
				tx_hash, listed_at, block_number, wallet_seller, listing_price,
				gas_fee_eth, collection, token_id, token_name, subcategory,
				quantity, expires_at,
				update_tx_hash, updated_at,
				cancellation_tx_hash, cancelled_at,
				final_sale_tx_hash, sold_at, quantity_sold
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
			ON CONFLICT (tx_hash) DO UPDATE SET
				update_tx_hash = EXCLUDED.update_tx_hash,
				updated_at = EXCLUDED.updated_at,
				cancellation_tx_hash = EXCLUDED.cancellation_tx_hash,
				cancelled_at = EXCLUDED.cancelled_at,
				final_sale_tx_hash = EXCLUDED.final_sale_tx_hash,
				sold_at = EXCLUDED.sold_at,
				quantity_sold = EXCLUDED.quantity_sold
		`,
			l.TxHash,
			l.ListedAt,
			int64(l.BlockNumber),
			l.Seller,
			l.Price,
			l.GasFeeETH,
			l.Collection,
			int64(l.TokenID),
			nullableString(l.TokenName),
			nullableString(l.Subcategory),
			int64(l.Quantity),
			nullableTime(l.ExpiresAt),
			l.UpdateTxHash,
			l.UpdatedAt,
			l.CancellationTxHash,
			l.CancelledAt,
			l.FinalSaleTxHash,
			l.SoldAt,
			int64(l.QuantitySold),
		)
	}
	return s.sendBatchTx(ctx, batch, len(listings))
}

// SaleHashes returns every persisted sale hash for build-side dedup.
func (s *Store) SaleHashes(ctx context.Context) ([]string, error) {
	return s.hashColumn(ctx, `SELECT tx_hash FROM marketplace_sales`)
}

func (s *Store) hashColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// InsertTokenPrices appends price rows strictly newer than what is stored.
func (s *Store) InsertTokenPrices(ctx context.Context, prices []model.TokenPrice) (int64, error) {
	if len(prices) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(`
			INSERT INTO token_prices (datetime, price_magic_usd, price_eth_usd)
			VALUES ($1, $2, $3)
			ON CONFLICT (datetime) DO NOTHING
		`, p.Time, p.MagicUSD, p.EthUSD)
	}
	return s.sendBatchTx(ctx, batch, len(prices))
}

// LatestPriceTime returns the newest stored price timestamp.
func (s *Store) LatestPriceTime(ctx context.Context) (time.Time, bool, error) {
	var latest *time.Time
	row := s.pool.QueryRow(ctx, `SELECT MAX(datetime) FROM token_prices`)
	if err := row.Scan(&latest); err != nil {
		return time.Time{}, false, err
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return latest.UTC(), true, nil
}

// LoadState returns the stored cursor for a named process.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block uint64
	row := s.pool.QueryRow(ctx, `SELECT last_block FROM ingest_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return block, true, nil
}

// SaveState upserts the cursor for a named process.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingest_state (name, last_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_block = EXCLUDED.last_block, updated_at = now()
	`, name, block)
	return err
}

// sendBatchTx runs a batch inside one transaction and sums affected rows.
func (s *Store) sendBatchTx(ctx context.Context, batch *pgx.Batch, queued int) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	var inserted int64
	for i := 0; i < queued; i++ {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, err
		}
		inserted += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
