package market

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"marketScope/internal/model"
)

// Call-data layout. The selector is the first four bytes; arguments follow
// as 32-byte big-endian words. Word positions are fixed per method:
//
//	createListing / updateListing:
//	  w0 collection  w1 tokenId  w2 quantity  w3 price(wei)  w4 expiration(ms)
//	cancelListing:
//	  w0 collection  w1 tokenId
//	buyItem:
//	  w0 collection  w1 tokenId  w2 owner  w3 quantity
//
// The owner word is only meaningful on the second marketplace contract;
// the first version carries the counterparty in the transaction itself.
const (
	selectorHexLen = 10
	wordHexLen     = 64

	wordCollection = 0
	wordTokenID    = 1
	wordQuantity   = 2
	wordPrice      = 3
	wordExpiration = 4
	wordBuyOwner   = 2
	wordBuyQty     = 3
)

// DecodeError reports call-data too short or malformed at a required
// offset. Callers skip-and-log the transaction; the batch continues.
type DecodeError struct {
	TxHash string
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s: %s", e.TxHash, e.Field, e.Reason)
}

// DecoderConfig carries the static lookup tables the decoder runs on.
type DecoderConfig struct {
	// Selectors maps a 4-byte method selector ("0x" + 8 hex chars,
	// lowercase) to its event kind.
	Selectors map[string]model.EventKind
	// MarketplaceVersions maps each marketplace contract address
	// (lowercase) to its ABI version (1 or 2).
	MarketplaceVersions map[string]int
}

// Decoder turns raw marketplace call transactions into decoded events.
type Decoder struct {
	selectors  map[string]model.EventKind
	versions   map[string]int
	classifier *Classifier
}

// NewDecoder builds a decoder over the given lookup tables. The classifier
// may be nil, in which case collection keys stay raw addresses.
func NewDecoder(cfg DecoderConfig, classifier *Classifier) *Decoder {
	selectors := make(map[string]model.EventKind, len(cfg.Selectors))
	for sel, kind := range cfg.Selectors {
		selectors[strings.ToLower(sel)] = kind
	}
	versions := make(map[string]int, len(cfg.MarketplaceVersions))
	for addr, v := range cfg.MarketplaceVersions {
		versions[strings.ToLower(addr)] = v
	}
	return &Decoder{selectors: selectors, versions: versions, classifier: classifier}
}

// Decode extracts a typed marketplace event from a raw transaction.
// Failed transactions and unknown selectors return (nil, nil): the former
// never changed state, the latter are no-op or pre-launch whitelist calls.
// A *DecodeError means the payload is truncated at a required offset.
func (d *Decoder) Decode(tx model.RawTransaction) (*model.DecodedEvent, error) {
	if !tx.Succeeded {
		return nil, nil
	}
	if len(tx.Input) < selectorHexLen {
		return nil, nil
	}

	kind, ok := d.selectors[strings.ToLower(tx.Input[:selectorHexLen])]
	if !ok {
		return nil, nil
	}

	version := d.versions[strings.ToLower(tx.To)]
	if version == 0 {
		version = 1
	}

	event := &model.DecodedEvent{
		TxHash:          tx.Hash,
		BlockNumber:     tx.BlockNumber,
		Timestamp:       tx.Time(),
		Kind:            kind,
		ContractVersion: version,
		From:            strings.ToLower(tx.From),
		GasFeeETH:       tx.GasFeeETH(),
	}

	collection, err := wordAddress(tx, wordCollection)
	if err != nil {
		return nil, err
	}
	event.CollectionAddr = collection

	tokenID, err := wordUint(tx, wordTokenID, "token id")
	if err != nil {
		return nil, err
	}
	event.TokenID = tokenID

	if d.classifier != nil {
		event.Collection = d.classifier.Collection(collection)
		event.TokenName, event.Subcategory = d.classifier.TokenName(event.Collection, tokenID)
	} else {
		event.Collection = collection
	}

	switch kind {
	case model.KindCreateListing, model.KindUpdateListing:
		if err := d.decodeListing(tx, event); err != nil {
			return nil, err
		}
	case model.KindBuyItem:
		if err := d.decodeBuy(tx, event); err != nil {
			return nil, err
		}
	case model.KindCancelListing:
		event.Counterpart = strings.ToLower(tx.To)
	}

	return event, nil
}

func (d *Decoder) decodeListing(tx model.RawTransaction, event *model.DecodedEvent) error {
	quantity, err := wordUint(tx, wordQuantity, "quantity")
	if err != nil {
		return err
	}
	event.Quantity = quantity

	price, err := wordBig(tx, wordPrice, "price")
	if err != nil {
		return err
	}
	event.Price = decimal.NewFromBigInt(price, -18)

	expiration, err := wordUint(tx, wordExpiration, "expiration")
	if err != nil {
		return err
	}
	event.ExpiresAt = time.UnixMilli(int64(expiration)).UTC()
	event.Counterpart = strings.ToLower(tx.To)
	return nil
}

func (d *Decoder) decodeBuy(tx model.RawTransaction, event *model.DecodedEvent) error {
	quantity, err := wordUint(tx, wordBuyQty, "quantity")
	if err != nil {
		return err
	}
	event.Quantity = quantity

	// The second contract version encodes the listing owner in the call
	// itself; the first only has the transaction recipient.
	if event.ContractVersion >= 2 {
		owner, err := wordAddress(tx, wordBuyOwner)
		if err != nil {
			return err
		}
		event.Counterpart = owner
	} else {
		event.Counterpart = strings.ToLower(tx.To)
	}
	return nil
}

// word returns argument word i as its 64 hex characters.
func word(tx model.RawTransaction, i int, field string) (string, error) {
	start := selectorHexLen + i*wordHexLen
	end := start + wordHexLen
	if len(tx.Input) < end {
		return "", &DecodeError{
			TxHash: tx.Hash,
			Field:  field,
			Reason: fmt.Sprintf("input is %d chars, word %d needs %d", len(tx.Input), i, end),
		}
	}
	return tx.Input[start:end], nil
}

func wordBig(tx model.RawTransaction, i int, field string) (*big.Int, error) {
	w, err := word(tx, i, field)
	if err != nil {
		return nil, err
	}
	value, ok := new(big.Int).SetString(w, 16)
	if !ok {
		return nil, &DecodeError{TxHash: tx.Hash, Field: field, Reason: "not hexadecimal"}
	}
	return value, nil
}

func wordUint(tx model.RawTransaction, i int, field string) (uint64, error) {
	value, err := wordBig(tx, i, field)
	if err != nil {
		return 0, err
	}
	if !value.IsUint64() {
		return 0, &DecodeError{TxHash: tx.Hash, Field: field, Reason: "exceeds uint64"}
	}
	return value.Uint64(), nil
}

// wordAddress reads the low 20 bytes of word i as a lowercase hex address.
func wordAddress(tx model.RawTransaction, i int) (string, error) {
	w, err := word(tx, i, "address")
	if err != nil {
		return "", err
	}
	if _, ok := new(big.Int).SetString(w, 16); !ok {
		return "", &DecodeError{TxHash: tx.Hash, Field: "address", Reason: "not hexadecimal"}
	}
	addr := common.HexToAddress("0x" + w[wordHexLen-40:])
	return strings.ToLower(addr.Hex()), nil
}
