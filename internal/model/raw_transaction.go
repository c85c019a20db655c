package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTransaction is the normalized representation of an on-chain
// marketplace-contract call as returned by the block explorer.
type RawTransaction struct {
	Hash        string `json:"hash"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp"`
	From        string `json:"from"`
	To          string `json:"to"`
	Input       string `json:"input"`
	GasPrice    uint64 `json:"gas_price"`
	GasUsed     uint64 `json:"gas_used"`
	Succeeded   bool   `json:"succeeded"`
	IngestedAt  string `json:"ingested_at"`
}

// Time returns the block timestamp in UTC.
func (tx RawTransaction) Time() time.Time {
	return time.Unix(int64(tx.Timestamp), 0).UTC()
}

// GasFeeETH is gas price times gas used, scaled from wei to ETH.
func (tx RawTransaction) GasFeeETH() decimal.Decimal {
	price := decimal.NewFromInt(int64(tx.GasPrice))
	used := decimal.NewFromInt(int64(tx.GasUsed))
	return price.Mul(used).Shift(-18)
}

// TokenTransfer is a payment-token transfer leg. Multiple transfers may
// share one transaction hash (fee leg and proceeds leg of the same sale).
type TokenTransfer struct {
	Hash        string `json:"hash"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	IngestedAt  string `json:"ingested_at"`
}

// Time returns the block timestamp in UTC.
func (t TokenTransfer) Time() time.Time {
	return time.Unix(int64(t.Timestamp), 0).UTC()
}

// Amount returns the transferred value scaled from wei to whole tokens.
// A malformed value yields zero; the explorer only emits integer strings.
func (t TokenTransfer) Amount() decimal.Decimal {
	d, err := decimal.NewFromString(t.Value)
	if err != nil {
		return decimal.Zero
	}
	return d.Shift(-18)
}
