package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRawTransactionGasFee(t *testing.T) {
	tx := RawTransaction{GasPrice: 100000000, GasUsed: 500000}
	if !tx.GasFeeETH().Equal(decimal.RequireFromString("0.00005")) {
		t.Fatalf("gas fee mismatch: %s", tx.GasFeeETH())
	}

	zero := RawTransaction{}
	if !zero.GasFeeETH().IsZero() {
		t.Fatalf("expected zero gas fee: %s", zero.GasFeeETH())
	}
}

func TestRawTransactionTime(t *testing.T) {
	tx := RawTransaction{Timestamp: 1650000000}
	want := time.Date(2022, 4, 15, 5, 20, 0, 0, time.UTC)
	if !tx.Time().Equal(want) {
		t.Fatalf("time mismatch: %s", tx.Time())
	}
}

func TestTokenTransferAmount(t *testing.T) {
	transfer := TokenTransfer{Value: "95000000000000000000"}
	if !transfer.Amount().Equal(decimal.NewFromInt(95)) {
		t.Fatalf("amount mismatch: %s", transfer.Amount())
	}

	malformed := TokenTransfer{Value: "bogus"}
	if !malformed.Amount().IsZero() {
		t.Fatalf("malformed value must yield zero: %s", malformed.Amount())
	}
}
