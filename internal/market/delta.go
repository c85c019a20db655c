package market

import "marketScope/internal/model"

// HashSet builds a membership set from transaction hashes.
func HashSet(hashes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		set[h] = struct{}{}
	}
	return set
}

// NewTransactions filters a freshly fetched batch down to transactions
// whose hash has not been seen before, preserving order. Re-running over
// the same fetch window is a no-op. The filtered hashes are added to seen,
// so duplicates within the batch itself also collapse.
func NewTransactions(seen map[string]struct{}, batch []model.RawTransaction) []model.RawTransaction {
	out := make([]model.RawTransaction, 0, len(batch))
	for _, tx := range batch {
		if _, ok := seen[tx.Hash]; ok {
			continue
		}
		seen[tx.Hash] = struct{}{}
		out = append(out, tx)
	}
	return out
}

// HighestBlock returns the maximum block number in a batch, or zero for an
// empty batch.
func HighestBlock(batch []model.RawTransaction) uint64 {
	var highest uint64
	for _, tx := range batch {
		if tx.BlockNumber > highest {
			highest = tx.BlockNumber
		}
	}
	return highest
}
