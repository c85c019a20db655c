package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"marketScope/internal/model"
)

func TestJsonlStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	txPath := filepath.Join(dir, "transactions.jsonl")
	transferPath := filepath.Join(dir, "transfers.jsonl")

	store := NewJsonlStore(txPath, transferPath)

	txs := []model.RawTransaction{
		{Hash: "0xaaa", BlockNumber: 100, Timestamp: 1650000000, Input: "0x764d63c7", Succeeded: true},
		{Hash: "0xbbb", BlockNumber: 101, Timestamp: 1650000010, Input: "0xfa40fb84", Succeeded: true},
	}
	if err := store.PutTransactionBatch(txs); err != nil {
		t.Fatalf("put transactions: %v", err)
	}

	transfers := []model.TokenTransfer{
		{Hash: "0xbbb", BlockNumber: 101, To: "0xseller", Value: "95000000000000000000"},
	}
	if err := store.PutTransferBatch(transfers); err != nil {
		t.Fatalf("put transfers: %v", err)
	}

	// A second batch appends, never truncates.
	if err := store.PutTransactionBatch([]model.RawTransaction{{Hash: "0xccc", BlockNumber: 102}}); err != nil {
		t.Fatalf("append transactions: %v", err)
	}

	gotTxs, err := ReadTransactions(txPath)
	if err != nil {
		t.Fatalf("read transactions: %v", err)
	}
	if len(gotTxs) != 3 {
		t.Fatalf("expected three transactions, got %d", len(gotTxs))
	}
	if gotTxs[0].Hash != "0xaaa" || gotTxs[2].Hash != "0xccc" {
		t.Fatalf("order mismatch: %+v", gotTxs)
	}
	if gotTxs[0].Input != "0x764d63c7" || !gotTxs[0].Succeeded {
		t.Fatalf("fields mismatch: %+v", gotTxs[0])
	}

	gotTransfers, err := ReadTransfers(transferPath)
	if err != nil {
		t.Fatalf("read transfers: %v", err)
	}
	if len(gotTransfers) != 1 || gotTransfers[0].Value != "95000000000000000000" {
		t.Fatalf("transfers mismatch: %+v", gotTransfers)
	}
}

func TestReadTransactionsMissingFile(t *testing.T) {
	_, err := ReadTransactions(filepath.Join(t.TempDir(), "nope.jsonl"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestPutTransactionBatchEmpty(t *testing.T) {
	store := NewJsonlStore(filepath.Join(t.TempDir(), "tx.jsonl"), filepath.Join(t.TempDir(), "tr.jsonl"))
	if err := store.PutTransactionBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}
