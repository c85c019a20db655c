package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is the lifecycle of one createListing transaction: the original
// listing plus at most one attached update, and at most one terminal event
// (cancellation or final sale). Dedup key is the originating TxHash.
type Listing struct {
	TxHash      string          `json:"tx_hash"`
	ListedAt    time.Time       `json:"listed_at"`
	BlockNumber uint64          `json:"block_number"`
	Seller      string          `json:"wallet_seller"`
	Price       decimal.Decimal `json:"listing_price"`
	GasFeeETH   decimal.Decimal `json:"gas_fee_eth"`
	Collection  string          `json:"collection"`
	TokenID     uint64          `json:"token_id"`
	TokenName   string          `json:"token_name,omitempty"`
	Subcategory string          `json:"subcategory,omitempty"`
	Quantity    uint64          `json:"quantity"`
	ExpiresAt   time.Time       `json:"expires_at"`

	UpdateTxHash       *string    `json:"update_tx_hash,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
	CancellationTxHash *string    `json:"cancellation_tx_hash,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	FinalSaleTxHash    *string    `json:"final_sale_tx_hash,omitempty"`
	SoldAt             *time.Time `json:"sold_at,omitempty"`

	// QuantitySold accumulates partial fills attributed to this listing.
	// It equals Quantity exactly when FinalSaleTxHash is set.
	QuantitySold uint64 `json:"quantity_sold"`
}

// Cancelled reports whether the listing terminated by cancellation.
func (l Listing) Cancelled() bool { return l.CancellationTxHash != nil }

// Sold reports whether the listing terminated by a final (depleting) sale.
func (l Listing) Sold() bool { return l.FinalSaleTxHash != nil }
