package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"marketScope/internal/model"
)

func writeLookupFiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"marketplace_method_ids.json": `{
			"createListing": "0x764D63C7",
			"cancelListing": "0xb2ddee06",
			"buyItem": "0xfa40fb84"
		}`,
		"contract_addresses.json": `{
			"treasure_marketplace": "0x2E3b85F85628301a0BCE300dEE3A6B04195A15Ee",
			"treasure_marketplace_v2": "0x09986b4e255b3c548041a30a2ee312fe176731c2",
			"magic": "0x539bde0d7dbd336b79148aa742883198bbf60342",
			"treasures": "0xebba467ecb6b21239178033189ceae27ca12eadf"
		}`,
		"token_ids.json": `{"54": "Snow White Feather"}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadLookups(t *testing.T) {
	lk, err := LoadLookups(writeLookupFiles(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if lk.Selectors["0x764d63c7"] != model.KindCreateListing {
		t.Fatalf("selector not lowercased or mapped: %+v", lk.Selectors)
	}
	if lk.Selectors["0xfa40fb84"] != model.KindBuyItem {
		t.Fatalf("buy selector mismatch: %+v", lk.Selectors)
	}

	if lk.Marketplaces["0x2e3b85f85628301a0bce300dee3a6b04195a15ee"] != 1 {
		t.Fatalf("v1 marketplace mismatch: %+v", lk.Marketplaces)
	}
	if lk.Marketplaces["0x09986b4e255b3c548041a30a2ee312fe176731c2"] != 2 {
		t.Fatalf("v2 marketplace mismatch: %+v", lk.Marketplaces)
	}
	if lk.PaymentToken != "0x539bde0d7dbd336b79148aa742883198bbf60342" {
		t.Fatalf("payment token mismatch: %s", lk.PaymentToken)
	}

	// Reserved names never become collections.
	wantCollections := map[string]string{
		"0xebba467ecb6b21239178033189ceae27ca12eadf": "treasures",
	}
	if !reflect.DeepEqual(lk.Collections, wantCollections) {
		t.Fatalf("collections mismatch: %+v", lk.Collections)
	}

	if lk.TokenNames[54] != "Snow White Feather" {
		t.Fatalf("token names mismatch: %+v", lk.TokenNames)
	}

	order := lk.MarketplaceAddresses()
	want := []string{
		"0x2e3b85f85628301a0bce300dee3a6b04195a15ee",
		"0x09986b4e255b3c548041a30a2ee312fe176731c2",
	}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("marketplace order mismatch: %v", order)
	}
}

func TestLoadLookupsUnknownMethod(t *testing.T) {
	dir := writeLookupFiles(t)
	bad := `{"swapExactTokens": "0xdeadbeef"}`
	if err := os.WriteFile(filepath.Join(dir, "marketplace_method_ids.json"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadLookups(dir); err == nil {
		t.Fatalf("expected error for unknown method name")
	}
}

func TestLoadLookupsMissingPaymentToken(t *testing.T) {
	dir := writeLookupFiles(t)
	noMagic := `{"treasure_marketplace": "0x2e3b85f85628301a0bce300dee3a6b04195a15ee"}`
	if err := os.WriteFile(filepath.Join(dir, "contract_addresses.json"), []byte(noMagic), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadLookups(dir); err == nil {
		t.Fatalf("expected error for missing payment token")
	}
}
