package market

import (
	"regexp"
	"strings"
)

var digitRuns = regexp.MustCompile(`[0-9]+`)

// Collections whose token ids resolve to display names.
var namedCollections = map[string]bool{
	"treasures":       true,
	"legions":         true,
	"legions_genesis": true,
}

// ClassifierConfig carries the static collection and token-name tables.
type ClassifierConfig struct {
	// Collections maps a lowercase contract address to its collection key.
	Collections map[string]string
	// TokenNames maps a numeric token id to its display name.
	TokenNames map[uint64]string
}

// Classifier resolves contract addresses to collection keys and token ids
// to display names.
type Classifier struct {
	collections map[string]string
	tokenNames  map[uint64]string
}

// NewClassifier builds a classifier over the lookup tables.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	collections := make(map[string]string, len(cfg.Collections))
	for addr, key := range cfg.Collections {
		collections[strings.ToLower(addr)] = key
	}
	return &Classifier{collections: collections, tokenNames: cfg.TokenNames}
}

// Collection maps a contract address to its collection key. Addresses with
// no table entry pass through unchanged; dropping the event would lose the
// sale, so the raw address serves as a degraded-mode key.
func (c *Classifier) Collection(addr string) string {
	addr = strings.ToLower(addr)
	if key, ok := c.collections[addr]; ok {
		return key
	}
	return addr
}

// TokenName resolves the display name and subcategory for a token. Only
// the named collections carry a token-id table; everything else gets
// empty strings.
func (c *Classifier) TokenName(collection string, tokenID uint64) (string, string) {
	if !namedCollections[collection] {
		return "", ""
	}
	name, ok := c.tokenNames[tokenID]
	if !ok {
		return "", ""
	}
	return name, Subcategory(name)
}

// Subcategory strips numeric characters and trailing whitespace from a
// token name: "Ancient Relic 07" becomes "Ancient Relic".
func Subcategory(name string) string {
	return strings.TrimRightFunc(digitRuns.ReplaceAllString(name, ""), func(r rune) bool {
		return r == ' ' || r == '\t'
	})
}
