package indexer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"marketScope/internal/explorer"
	"marketScope/internal/model"
)

// buildRawTransaction normalizes an explorer row into the typed record the
// reconciliation core consumes. Addresses are lowercased here once so every
// later comparison is plain string equality.
func buildRawTransaction(tx explorer.Transaction, ingestedAt time.Time) (model.RawTransaction, error) {
	blockNumber, err := strconv.ParseUint(tx.BlockNumber, 10, 64)
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("block number %q: %w", tx.BlockNumber, err)
	}
	timestamp, err := strconv.ParseUint(tx.TimeStamp, 10, 64)
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("timestamp %q: %w", tx.TimeStamp, err)
	}
	gasPrice, err := strconv.ParseUint(tx.GasPrice, 10, 64)
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("gas price %q: %w", tx.GasPrice, err)
	}
	gasUsed, err := strconv.ParseUint(tx.GasUsed, 10, 64)
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("gas used %q: %w", tx.GasUsed, err)
	}

	return model.RawTransaction{
		Hash:        strings.ToLower(tx.Hash),
		BlockNumber: blockNumber,
		Timestamp:   timestamp,
		From:        strings.ToLower(tx.From),
		To:          strings.ToLower(tx.To),
		Input:       tx.Input,
		GasPrice:    gasPrice,
		GasUsed:     gasUsed,
		Succeeded:   tx.ReceiptStatus == "1",
		IngestedAt:  ingestedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

// buildTokenTransfer normalizes an explorer token-transfer row. The value
// stays a raw wei string; scaling happens at reconciliation time.
func buildTokenTransfer(tx explorer.Transaction, ingestedAt time.Time) (model.TokenTransfer, error) {
	blockNumber, err := strconv.ParseUint(tx.BlockNumber, 10, 64)
	if err != nil {
		return model.TokenTransfer{}, fmt.Errorf("block number %q: %w", tx.BlockNumber, err)
	}
	timestamp, err := strconv.ParseUint(tx.TimeStamp, 10, 64)
	if err != nil {
		return model.TokenTransfer{}, fmt.Errorf("timestamp %q: %w", tx.TimeStamp, err)
	}

	return model.TokenTransfer{
		Hash:        strings.ToLower(tx.Hash),
		BlockNumber: blockNumber,
		Timestamp:   timestamp,
		From:        strings.ToLower(tx.From),
		To:          strings.ToLower(tx.To),
		Value:       tx.Value,
		IngestedAt:  ingestedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}
