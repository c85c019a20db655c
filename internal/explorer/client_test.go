package explorer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestContractTransactions(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Write([]byte(`{
			"status": "1",
			"message": "OK",
			"result": [
				{
					"blockNumber": "1000",
					"timeStamp": "1650000000",
					"hash": "0xAAA",
					"from": "0x1111111111111111111111111111111111111111",
					"to": "0x2222222222222222222222222222222222222222",
					"value": "0",
					"input": "0x764d63c7",
					"gasPrice": "100000000",
					"gasUsed": "500000",
					"txreceipt_status": "1"
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:           server.URL,
		APIKey:            "test-key",
		RequestsPerSecond: 1000,
	}, nil)

	txs, err := client.ContractTransactions(context.Background(), "0xmarket", 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected one row, got %d", len(txs))
	}
	if txs[0].Hash != "0xAAA" || txs[0].BlockNumber != "1000" {
		t.Fatalf("row mismatch: %+v", txs[0])
	}

	want := map[string]string{
		"module":     "account",
		"action":     "txlist",
		"address":    "0xmarket",
		"startblock": "500",
		"endblock":   "99999999",
		"sort":       "asc",
		"apikey":     "test-key",
	}
	for key, val := range want {
		if gotQuery[key] != val {
			t.Fatalf("query %s = %q, want %q", key, gotQuery[key], val)
		}
	}
}

func TestTokenTransfersQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "tokentx" {
			t.Errorf("action = %q", q.Get("action"))
		}
		if q.Get("contractaddress") != "0xtoken" || q.Get("address") != "0xwallet" {
			t.Errorf("address params mismatch: %v", q)
		}
		w.Write([]byte(`{"status": "1", "message": "OK", "result": []}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, RequestsPerSecond: 1000}, nil)
	txs, err := client.TokenTransfers(context.Background(), "0xtoken", "0xwallet", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected empty result, got %d", len(txs))
	}
}

func TestAccountQueryEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "0", "message": "No transactions found", "result": []}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, RequestsPerSecond: 1000}, nil)
	txs, err := client.ContractTransactions(context.Background(), "0xmarket", 0)
	if err != nil {
		t.Fatalf("empty page must not error: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected no rows, got %d", len(txs))
	}
}

func TestAccountQueryAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "0", "message": "NOTOK", "result": "Max rate limit reached"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, RequestsPerSecond: 1000}, nil)
	_, err := client.ContractTransactions(context.Background(), "0xmarket", 0)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "Max rate limit reached") {
		t.Fatalf("error detail missing: %v", err)
	}
}

func TestAccountQueryHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, RequestsPerSecond: 1000}, nil)
	if _, err := client.ContractTransactions(context.Background(), "0xmarket", 0); err == nil {
		t.Fatalf("expected error for status 502")
	}
}
