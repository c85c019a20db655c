package indexer

import (
	"testing"
	"time"

	"marketScope/internal/explorer"
)

func explorerRow() explorer.Transaction {
	return explorer.Transaction{
		BlockNumber:   "12345",
		TimeStamp:     "1650000000",
		Hash:          "0xABCDEF",
		From:          "0xAAAA000000000000000000000000000000000001",
		To:            "0xBBBB000000000000000000000000000000000002",
		Value:         "95000000000000000000",
		Input:         "0xfa40fb84",
		GasPrice:      "100000000",
		GasUsed:       "500000",
		ReceiptStatus: "1",
	}
}

func TestBuildRawTransaction(t *testing.T) {
	ingestedAt := time.Date(2022, 4, 15, 12, 0, 0, 0, time.UTC)

	tx, err := buildRawTransaction(explorerRow(), ingestedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tx.Hash != "0xabcdef" {
		t.Fatalf("hash not lowercased: %s", tx.Hash)
	}
	if tx.From != "0xaaaa000000000000000000000000000000000001" {
		t.Fatalf("from not lowercased: %s", tx.From)
	}
	if tx.BlockNumber != 12345 || tx.Timestamp != 1650000000 {
		t.Fatalf("numeric fields mismatch: %+v", tx)
	}
	if tx.GasPrice != 100000000 || tx.GasUsed != 500000 {
		t.Fatalf("gas fields mismatch: %+v", tx)
	}
	if !tx.Succeeded {
		t.Fatalf("expected succeeded")
	}
	if tx.IngestedAt != "2022-04-15T12:00:00Z" {
		t.Fatalf("ingested at mismatch: %s", tx.IngestedAt)
	}
}

func TestBuildRawTransactionReverted(t *testing.T) {
	row := explorerRow()
	row.ReceiptStatus = "0"

	tx, err := buildRawTransaction(row, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Succeeded {
		t.Fatalf("reverted transaction marked succeeded")
	}
}

func TestBuildRawTransactionMalformed(t *testing.T) {
	row := explorerRow()
	row.BlockNumber = "not-a-number"

	if _, err := buildRawTransaction(row, time.Now()); err == nil {
		t.Fatalf("expected error for malformed block number")
	}
}

func TestBuildTokenTransfer(t *testing.T) {
	transfer, err := buildTokenTransfer(explorerRow(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if transfer.Hash != "0xabcdef" {
		t.Fatalf("hash not lowercased: %s", transfer.Hash)
	}
	if transfer.Value != "95000000000000000000" {
		t.Fatalf("value must stay a raw wei string: %s", transfer.Value)
	}
	if transfer.BlockNumber != 12345 {
		t.Fatalf("block mismatch: %d", transfer.BlockNumber)
	}
}
