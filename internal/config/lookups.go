package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"marketScope/internal/model"
)

// Contract-table names with a fixed role: marketplace contracts and the
// payment token. Every other entry is an NFT collection.
const (
	nameMarketplace   = "treasure_marketplace"
	nameMarketplaceV2 = "treasure_marketplace_v2"
	namePaymentToken  = "magic"
)

var methodKinds = map[string]model.EventKind{
	"createListing": model.KindCreateListing,
	"updateListing": model.KindUpdateListing,
	"cancelListing": model.KindCancelListing,
	"buyItem":       model.KindBuyItem,
}

// Lookups bundles the static tables the decoder and ingester run on,
// loaded from JSON files in the lookups directory.
type Lookups struct {
	// Selectors maps lowercase 4-byte selectors to event kinds.
	Selectors map[string]model.EventKind
	// Marketplaces maps lowercase marketplace addresses to ABI version.
	Marketplaces map[string]int
	// PaymentToken is the ERC-20 carrying sale proceeds, lowercase.
	PaymentToken string
	// Collections maps lowercase NFT contract addresses to collection keys.
	Collections map[string]string
	// TokenNames maps numeric token ids to display names.
	TokenNames map[uint64]string
}

// LoadLookups reads marketplace_method_ids.json, contract_addresses.json,
// and token_ids.json from dir.
func LoadLookups(dir string) (Lookups, error) {
	var methods map[string]string
	if err := readJSON(filepath.Join(dir, "marketplace_method_ids.json"), &methods); err != nil {
		return Lookups{}, err
	}

	var contracts map[string]string
	if err := readJSON(filepath.Join(dir, "contract_addresses.json"), &contracts); err != nil {
		return Lookups{}, err
	}

	var tokenNames map[string]string
	if err := readJSON(filepath.Join(dir, "token_ids.json"), &tokenNames); err != nil {
		return Lookups{}, err
	}

	lk := Lookups{
		Selectors:    make(map[string]model.EventKind, len(methods)),
		Marketplaces: make(map[string]int, 2),
		Collections:  make(map[string]string, len(contracts)),
		TokenNames:   make(map[uint64]string, len(tokenNames)),
	}

	for name, selector := range methods {
		kind, ok := methodKinds[name]
		if !ok {
			return Lookups{}, fmt.Errorf("unknown marketplace method %q", name)
		}
		lk.Selectors[strings.ToLower(selector)] = kind
	}

	for name, addr := range contracts {
		addr = strings.ToLower(addr)
		switch name {
		case nameMarketplace:
			lk.Marketplaces[addr] = 1
		case nameMarketplaceV2:
			lk.Marketplaces[addr] = 2
		case namePaymentToken:
			lk.PaymentToken = addr
		default:
			lk.Collections[addr] = name
		}
	}

	for id, name := range tokenNames {
		numeric, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return Lookups{}, fmt.Errorf("token id %q: %w", id, err)
		}
		lk.TokenNames[numeric] = name
	}

	if len(lk.Marketplaces) == 0 {
		return Lookups{}, fmt.Errorf("contract_addresses.json has no marketplace entry")
	}
	if lk.PaymentToken == "" {
		return Lookups{}, fmt.Errorf("contract_addresses.json has no %s entry", namePaymentToken)
	}

	return lk, nil
}

// MarketplaceAddresses returns the marketplace contracts ordered by version.
func (l Lookups) MarketplaceAddresses() []string {
	out := make([]string, 0, len(l.Marketplaces))
	for addr := range l.Marketplaces {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		if l.Marketplaces[out[i]] != l.Marketplaces[out[j]] {
			return l.Marketplaces[out[i]] < l.Marketplaces[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func readJSON(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read lookup: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
