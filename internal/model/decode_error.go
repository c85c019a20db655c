package model

// DecodeErrorRecord captures a call-data decode failure for the error sink.
type DecodeErrorRecord struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	Selector    string `json:"selector,omitempty"`
	Error       string `json:"error"`
}

// FlagKind classifies a data-quality condition surfaced by reconciliation.
type FlagKind string

const (
	// FlagUnreconciledSale marks a buyItem with no matching transfer leg.
	// The sale is held back, not dropped: the transfer may arrive in a
	// later ingestion window and write-time dedup makes retries safe.
	FlagUnreconciledSale FlagKind = "unreconciled_sale"

	// FlagSaleAfterCancellation marks a sale observed after the listing
	// was already cancelled; it likely belongs to an unmodeled re-listing.
	FlagSaleAfterCancellation FlagKind = "sale_after_cancellation"

	// FlagAmbiguousLifecycle marks terminal candidates whose block numbers
	// tie in a way the precedence rules do not cover.
	FlagAmbiguousLifecycle FlagKind = "ambiguous_lifecycle"

	// FlagExpiredBeforeEvent marks a listing whose expiration precedes a
	// recorded update, cancellation, or sale.
	FlagExpiredBeforeEvent FlagKind = "expired_before_event"
)

// LifecycleFlag is a reconciliation condition flagged for review rather
// than guessed at.
type LifecycleFlag struct {
	Kind       FlagKind `json:"kind"`
	TxHash     string   `json:"tx_hash"`
	RelatedTx  string   `json:"related_tx,omitempty"`
	Collection string   `json:"collection,omitempty"`
	TokenID    uint64   `json:"token_id,omitempty"`
	Detail     string   `json:"detail,omitempty"`
}
