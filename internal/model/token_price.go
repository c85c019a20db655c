package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenPrice is one row of the USD price series used to restate sale
// amounts in other currencies downstream.
type TokenPrice struct {
	Time     time.Time       `json:"time"`
	MagicUSD decimal.Decimal `json:"price_magic_usd"`
	EthUSD   decimal.Decimal `json:"price_eth_usd"`
}
