package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind identifies the marketplace method behind a transaction.
type EventKind string

const (
	KindCreateListing EventKind = "createListing"
	KindUpdateListing EventKind = "updateListing"
	KindCancelListing EventKind = "cancelListing"
	KindBuyItem       EventKind = "buyItem"
)

// DecodedEvent is a marketplace call decoded from raw transaction input.
// There is exactly one event per transaction hash; transactions whose
// selector is not in the method table produce no event at all.
type DecodedEvent struct {
	TxHash          string          `json:"tx_hash"`
	BlockNumber     uint64          `json:"block_number"`
	Timestamp       time.Time       `json:"timestamp"`
	Kind            EventKind       `json:"kind"`
	ContractVersion int             `json:"contract_version"`
	Collection      string          `json:"collection"`
	CollectionAddr  string          `json:"collection_addr"`
	TokenID         uint64          `json:"token_id"`
	TokenName       string          `json:"token_name,omitempty"`
	Subcategory     string          `json:"subcategory,omitempty"`
	Quantity        uint64          `json:"quantity,omitempty"`
	Price           decimal.Decimal `json:"price"`
	ExpiresAt       time.Time       `json:"expires_at,omitempty"`
	From            string          `json:"from"`
	Counterpart     string          `json:"counterpart,omitempty"`
	GasFeeETH       decimal.Decimal `json:"gas_fee_eth"`
}
