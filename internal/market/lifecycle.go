package market

import (
	"fmt"
	"sort"

	"marketScope/internal/model"
)

// lifecycleKey identifies one logical listing. Updates, cancellations, and
// sales reference the listing through this tuple, never through the
// original transaction hash.
type lifecycleKey struct {
	seller     string
	collection string
	tokenID    uint64
}

// LifecycleBuilder reconstructs per-listing lifecycles from the full event
// stream. All inputs must carry block numbers; block order is the
// canonical event order.
type LifecycleBuilder struct{}

// NewLifecycleBuilder returns a lifecycle builder.
func NewLifecycleBuilder() *LifecycleBuilder {
	return &LifecycleBuilder{}
}

// Build produces one Listing per createListing event, with at most one
// attached update and at most one terminal event (cancellation or final
// sale), plus flags for the conditions that need review.
func (b *LifecycleBuilder) Build(events []model.DecodedEvent, sales []model.Sale) ([]model.Listing, []model.LifecycleFlag) {
	events = dedupeEvents(events)

	var creates []model.DecodedEvent
	updates := make(map[lifecycleKey][]model.DecodedEvent)
	cancels := make(map[lifecycleKey][]model.DecodedEvent)
	for _, ev := range events {
		key := lifecycleKey{seller: ev.From, collection: ev.Collection, tokenID: ev.TokenID}
		switch ev.Kind {
		case model.KindCreateListing:
			creates = append(creates, ev)
		case model.KindUpdateListing:
			updates[key] = append(updates[key], ev)
		case model.KindCancelListing:
			cancels[key] = append(cancels[key], ev)
		}
	}

	saleGroups := make(map[lifecycleKey][]model.Sale)
	for _, sale := range sales {
		key := lifecycleKey{seller: sale.Seller, collection: sale.Collection, tokenID: sale.TokenID}
		saleGroups[key] = append(saleGroups[key], sale)
	}

	sortEventsByBlock(creates)
	for _, group := range updates {
		sortEventsByBlock(group)
	}
	for _, group := range cancels {
		sortEventsByBlock(group)
	}
	for _, group := range saleGroups {
		sortSalesByTime(group)
	}

	listings := make([]model.Listing, 0, len(creates))
	var flags []model.LifecycleFlag
	for _, create := range creates {
		key := lifecycleKey{seller: create.From, collection: create.Collection, tokenID: create.TokenID}
		listing, listingFlags := b.buildOne(create, updates[key], cancels[key], saleGroups[key])
		listings = append(listings, listing)
		flags = append(flags, listingFlags...)
	}

	return listings, flags
}

func (b *LifecycleBuilder) buildOne(create model.DecodedEvent, updates, cancels []model.DecodedEvent, sales []model.Sale) (model.Listing, []model.LifecycleFlag) {
	listing := model.Listing{
		TxHash:      create.TxHash,
		ListedAt:    create.Timestamp,
		BlockNumber: create.BlockNumber,
		Seller:      create.From,
		Price:       create.Price,
		GasFeeETH:   create.GasFeeETH,
		Collection:  create.Collection,
		TokenID:     create.TokenID,
		TokenName:   create.TokenName,
		Subcategory: create.Subcategory,
		Quantity:    create.Quantity,
		ExpiresAt:   create.ExpiresAt,
	}
	var flags []model.LifecycleFlag

	// Nearest later update. Chained updates attach to each other's state,
	// not to the original, so only the first one applies here.
	update := firstEventAfter(updates, create.BlockNumber, false)

	// Earliest cancellation at or after the original. Equal blocks are
	// allowed: an update immediately followed by a cancellation lands in
	// the same block.
	cancel := firstEventAfter(cancels, create.BlockNumber, true)

	finalSale, quantitySold := matchFinalSale(sales, create.BlockNumber, create.Quantity)
	listing.QuantitySold = quantitySold

	// Tie-breaks run pairwise in block order. Update vs cancellation:
	// equality resolves in favor of the cancellation.
	if update != nil && cancel != nil {
		if cancel.BlockNumber <= update.BlockNumber {
			update = nil
		} else {
			cancel = nil
		}
	}

	// Cancellation vs final sale: the earlier block wins. A sale after
	// the cancellation belongs to an unmodeled re-listing. An exact tie
	// is not covered by the precedence rules, so neither side is guessed.
	if cancel != nil && finalSale != nil {
		switch {
		case cancel.BlockNumber < finalSale.BlockNumber:
			flags = append(flags, model.LifecycleFlag{
				Kind:       model.FlagSaleAfterCancellation,
				TxHash:     create.TxHash,
				RelatedTx:  finalSale.TxHash,
				Collection: create.Collection,
				TokenID:    create.TokenID,
			})
			finalSale = nil
			listing.QuantitySold = 0
		case cancel.BlockNumber > finalSale.BlockNumber:
			cancel = nil
		default:
			flags = append(flags, model.LifecycleFlag{
				Kind:       model.FlagAmbiguousLifecycle,
				TxHash:     create.TxHash,
				RelatedTx:  finalSale.TxHash,
				Collection: create.Collection,
				TokenID:    create.TokenID,
				Detail:     fmt.Sprintf("cancellation and sale share block %d", cancel.BlockNumber),
			})
			cancel = nil
			finalSale = nil
			listing.QuantitySold = 0
		}
	}

	// Update vs final sale: a sale at or after the update applies to the
	// updated listing state, not to this original.
	if update != nil && finalSale != nil {
		if update.BlockNumber > finalSale.BlockNumber {
			update = nil
		} else {
			finalSale = nil
			listing.QuantitySold = 0
		}
	}

	if update != nil {
		hash, at := update.TxHash, update.Timestamp
		listing.UpdateTxHash, listing.UpdatedAt = &hash, &at
	}
	if cancel != nil {
		hash, at := cancel.TxHash, cancel.Timestamp
		listing.CancellationTxHash, listing.CancelledAt = &hash, &at
	}
	if finalSale != nil {
		hash, at := finalSale.TxHash, finalSale.Time
		listing.FinalSaleTxHash, listing.SoldAt = &hash, &at
	}

	flags = append(flags, expiryFlags(listing)...)
	return listing, flags
}

// firstEventAfter returns the earliest event strictly after block, or at
// or after it when inclusive is set.
func firstEventAfter(events []model.DecodedEvent, block uint64, inclusive bool) *model.DecodedEvent {
	for i := range events {
		if events[i].BlockNumber > block || (inclusive && events[i].BlockNumber == block) {
			return &events[i]
		}
	}
	return nil
}

// matchFinalSale walks the group's sales in time order, accumulating
// quantities for sales at or after the listing's block. The sale whose
// running total exactly reaches the listed quantity depletes the listing
// and is its final sale. The returned quantity is the largest running
// total not exceeding the listed quantity, so partially filled listings
// report their fill level even without a terminal sale.
func matchFinalSale(sales []model.Sale, block uint64, quantity uint64) (*model.Sale, uint64) {
	var cumulative uint64
	var sold uint64
	for i := range sales {
		if sales[i].BlockNumber < block {
			continue
		}
		cumulative += sales[i].Quantity
		if cumulative <= quantity {
			sold = cumulative
		}
		if cumulative == quantity {
			return &sales[i], sold
		}
		if cumulative > quantity {
			return nil, sold
		}
	}
	return nil, sold
}

// expiryFlags reports lifecycle events recorded after the listing's
// expiration. The marketplace had a bug where expiry did not always
// trigger, so these are surfaced instead of being nulled or guessed.
func expiryFlags(listing model.Listing) []model.LifecycleFlag {
	if listing.ExpiresAt.IsZero() {
		return nil
	}
	var flags []model.LifecycleFlag
	flag := func(related string, detail string) model.LifecycleFlag {
		return model.LifecycleFlag{
			Kind:       model.FlagExpiredBeforeEvent,
			TxHash:     listing.TxHash,
			RelatedTx:  related,
			Collection: listing.Collection,
			TokenID:    listing.TokenID,
			Detail:     detail,
		}
	}
	if listing.UpdatedAt != nil && listing.UpdatedAt.After(listing.ExpiresAt) {
		flags = append(flags, flag(*listing.UpdateTxHash, "updated after expiration"))
	}
	if listing.CancelledAt != nil && listing.CancelledAt.After(listing.ExpiresAt) {
		flags = append(flags, flag(*listing.CancellationTxHash, "cancelled after expiration"))
	}
	if listing.SoldAt != nil && listing.SoldAt.After(listing.ExpiresAt) {
		flags = append(flags, flag(*listing.FinalSaleTxHash, "sold after expiration"))
	}
	return flags
}

// dedupeEvents drops events whose semantic content is identical to one
// already seen. Stuck transactions get re-broadcast with a fresh hash and
// nonce but decode to the exact same event; keeping both would double the
// listing.
func dedupeEvents(events []model.DecodedEvent) []model.DecodedEvent {
	seen := make(map[string]bool, len(events))
	out := make([]model.DecodedEvent, 0, len(events))
	for _, ev := range events {
		id := fmt.Sprintf("%s|%d|%s|%s|%d|%d|%s|%d",
			ev.Kind, ev.BlockNumber, ev.From, ev.Collection, ev.TokenID,
			ev.Quantity, ev.Price.String(), ev.ExpiresAt.UnixMilli())
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, ev)
	}
	return out
}

func sortEventsByBlock(events []model.DecodedEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].TxHash < events[j].TxHash
	})
}

func sortSalesByTime(sales []model.Sale) {
	sort.Slice(sales, func(i, j int) bool {
		if !sales[i].Time.Equal(sales[j].Time) {
			return sales[i].Time.Before(sales[j].Time)
		}
		if sales[i].BlockNumber != sales[j].BlockNumber {
			return sales[i].BlockNumber < sales[j].BlockNumber
		}
		return sales[i].TxHash < sales[j].TxHash
	})
}
