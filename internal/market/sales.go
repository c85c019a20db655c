package market

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"marketScope/internal/model"
)

// ReconcilerConfig carries the fee policy for sale reconciliation.
type ReconcilerConfig struct {
	// FeeWallet is the platform's fee-collection address (lowercase).
	FeeWallet string
	// FeeRate is the platform royalty, e.g. 0.05.
	FeeRate decimal.Decimal
}

// SaleReconciler pairs buyItem events with the payment-token transfers
// sharing their transaction hash and computes the fee split.
type SaleReconciler struct {
	feeWallet string
	feeRate   decimal.Decimal
}

// NewSaleReconciler builds a reconciler with the given fee policy.
func NewSaleReconciler(cfg ReconcilerConfig) *SaleReconciler {
	return &SaleReconciler{
		feeWallet: strings.ToLower(cfg.FeeWallet),
		feeRate:   cfg.FeeRate,
	}
}

// Reconcile computes one Sale per buyItem event that has at least one
// matching transfer. Buys with no transfer leg are returned as flags, not
// sales: the amounts cannot be reconstructed, and the transfer data may
// still arrive in a later ingestion window.
func (r *SaleReconciler) Reconcile(buys []model.DecodedEvent, transfers []model.TokenTransfer) ([]model.Sale, []model.LifecycleFlag) {
	byHash := groupTransfers(transfers)

	sales := make([]model.Sale, 0, len(buys))
	var flags []model.LifecycleFlag

	for _, buy := range buys {
		if buy.Kind != model.KindBuyItem {
			continue
		}
		legs := byHash[buy.TxHash]
		if len(legs) == 0 {
			flags = append(flags, model.LifecycleFlag{
				Kind:       model.FlagUnreconciledSale,
				TxHash:     buy.TxHash,
				Collection: buy.Collection,
				TokenID:    buy.TokenID,
				Detail:     "no transfer leg observed yet",
			})
			continue
		}

		total, proceeds, fee := r.split(legs, buy.ContractVersion)
		sales = append(sales, model.Sale{
			TxHash:         buy.TxHash,
			Time:           buy.Timestamp,
			BlockNumber:    buy.BlockNumber,
			Buyer:          buy.From,
			Seller:         r.sellerWallet(legs, buy),
			TotalAmount:    total,
			SellerProceeds: proceeds,
			FeeAmount:      fee,
			GasFeeETH:      buy.GasFeeETH,
			Collection:     buy.Collection,
			TokenID:        buy.TokenID,
			TokenName:      buy.TokenName,
			Subcategory:    buy.Subcategory,
			Quantity:       buy.Quantity,
		})
	}

	return sales, flags
}

// split assigns total, proceeds, and fee from the transfer amounts.
//
// Legacy contract: the smaller leg is the platform fee, the larger the
// seller proceeds. When only one leg was indexed it is assumed to be the
// proceeds and the total is reconstructed from the fee rate. This is an
// approximation carried over from the source data: for the minority of
// cases where the lone leg was actually the fee there is nothing to
// reconcile against.
//
// Second contract version: roles are reversed. A lone leg is the gross
// buyer-paid amount, and with two legs the larger one is the fee side.
func (r *SaleReconciler) split(legs []model.TokenTransfer, version int) (total, proceeds, fee decimal.Decimal) {
	min, max, sum := amountStats(legs)

	if version >= 2 {
		if len(legs) == 1 {
			total = sum
			fee = total.Mul(r.feeRate)
			proceeds = total.Sub(fee)
			return total, proceeds, fee
		}
		return sum, min, max
	}

	if min.Equal(max) && len(legs) == 1 {
		proceeds = max
		total = proceeds.Div(decimal.NewFromInt(1).Sub(r.feeRate))
		fee = total.Mul(r.feeRate)
		return total, proceeds, fee
	}
	return sum, max, min
}

// sellerWallet is the first transfer recipient that is not the fee wallet;
// the decoded counterparty is the fallback when every leg hit the fee
// wallet.
func (r *SaleReconciler) sellerWallet(legs []model.TokenTransfer, buy model.DecodedEvent) string {
	for _, leg := range legs {
		to := strings.ToLower(leg.To)
		if to != r.feeWallet {
			return to
		}
	}
	return buy.Counterpart
}

// groupTransfers indexes transfers by hash, dropping exact-duplicate legs
// (same hash, value, and recipient) that the explorer sometimes repeats
// across fetch windows.
func groupTransfers(transfers []model.TokenTransfer) map[string][]model.TokenTransfer {
	byHash := make(map[string][]model.TokenTransfer)
	seen := make(map[string]bool, len(transfers))
	for _, t := range transfers {
		id := fmt.Sprintf("%s|%s|%s", t.Hash, t.Value, strings.ToLower(t.To))
		if seen[id] {
			continue
		}
		seen[id] = true
		byHash[t.Hash] = append(byHash[t.Hash], t)
	}
	return byHash
}

func amountStats(legs []model.TokenTransfer) (min, max, sum decimal.Decimal) {
	for i, leg := range legs {
		amount := leg.Amount()
		sum = sum.Add(amount)
		if i == 0 {
			min, max = amount, amount
			continue
		}
		if amount.LessThan(min) {
			min = amount
		}
		if amount.GreaterThan(max) {
			max = amount
		}
	}
	return min, max, sum
}
