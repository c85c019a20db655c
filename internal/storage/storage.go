package storage

import "marketScope/internal/model"

// RawStore is a sink for ingested raw transactions and transfer legs.
type RawStore interface {
	PutTransactionBatch(txs []model.RawTransaction) error
	PutTransferBatch(transfers []model.TokenTransfer) error
}
