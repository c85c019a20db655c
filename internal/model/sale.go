package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one completed purchase, reconciled from a buyItem call and the
// payment-token transfers sharing its hash. Append-only; the persistence
// layer dedups on TxHash.
type Sale struct {
	TxHash         string          `json:"tx_hash"`
	Time           time.Time       `json:"time"`
	BlockNumber    uint64          `json:"block_number"`
	Buyer          string          `json:"wallet_buyer"`
	Seller         string          `json:"wallet_seller"`
	TotalAmount    decimal.Decimal `json:"sale_amt"`
	SellerProceeds decimal.Decimal `json:"seller_amt_received"`
	FeeAmount      decimal.Decimal `json:"fee_amt_received"`
	GasFeeETH      decimal.Decimal `json:"gas_fee_eth"`
	Collection     string          `json:"collection"`
	TokenID        uint64          `json:"token_id"`
	TokenName      string          `json:"token_name,omitempty"`
	Subcategory    string          `json:"subcategory,omitempty"`
	Quantity       uint64          `json:"quantity"`
}
