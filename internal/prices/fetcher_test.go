package prices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func point(t time.Time, price string) PricePoint {
	return PricePoint{Time: t, Price: decimal.RequireFromString(price)}
}

func TestFloorSeries(t *testing.T) {
	base := time.Date(2022, 4, 15, 12, 0, 0, 0, time.UTC)

	floored := FloorSeries([]PricePoint{
		point(base.Add(7*time.Minute), "2.10"),
		point(base.Add(2*time.Minute), "2.00"),
		point(base.Add(4*time.Minute), "2.05"),
	})

	if len(floored) != 2 {
		t.Fatalf("expected two buckets, got %d", len(floored))
	}
	if !floored[0].Time.Equal(base) || !floored[0].Price.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("first bucket mismatch: %+v", floored[0])
	}
	if !floored[1].Time.Equal(base.Add(5 * time.Minute)) {
		t.Fatalf("second bucket mismatch: %+v", floored[1])
	}
}

func TestMergeSeries(t *testing.T) {
	base := time.Date(2022, 4, 15, 12, 0, 0, 0, time.UTC)

	merged := MergeSeries(
		[]PricePoint{
			point(base, "2.00"),
			point(base.Add(5*time.Minute), "2.05"),
		},
		[]PricePoint{
			point(base, "3000"),
		},
	)

	// Only the shared bucket survives.
	if len(merged) != 1 {
		t.Fatalf("expected one merged row, got %d", len(merged))
	}
	row := merged[0]
	if !row.Time.Equal(base) {
		t.Fatalf("time mismatch: %s", row.Time)
	}
	if !row.MagicUSD.Equal(decimal.RequireFromString("2.00")) || !row.EthUSD.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("price mismatch: %+v", row)
	}
}

func TestAfter(t *testing.T) {
	base := time.Date(2022, 4, 15, 12, 0, 0, 0, time.UTC)

	merged := MergeSeries(
		[]PricePoint{point(base, "2.00"), point(base.Add(5*time.Minute), "2.05")},
		[]PricePoint{point(base, "3000"), point(base.Add(5*time.Minute), "3010")},
	)

	kept := After(merged, base)
	if len(kept) != 1 || !kept[0].Time.Equal(base.Add(5*time.Minute)) {
		t.Fatalf("cutoff filter mismatch: %+v", kept)
	}
}

func TestMarketChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/magic/market_chart" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("vs_currency") != "usd" || q.Get("days") != "7" {
			t.Errorf("query mismatch: %v", q)
		}
		w.Write([]byte(`{"prices": [[1650000000000, 2.0513], [1650000300000, 2.0611]]}`))
	}))
	defer server.Close()

	points, err := NewFetcher(server.URL, nil).MarketChart(context.Background(), "magic", 7)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected two points, got %d", len(points))
	}
	if !points[0].Time.Equal(time.UnixMilli(1650000000000).UTC()) {
		t.Fatalf("time mismatch: %s", points[0].Time)
	}
	if !points[0].Price.Equal(decimal.RequireFromString("2.0513")) {
		t.Fatalf("price mismatch: %s", points[0].Price)
	}
}

func TestMarketChartHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	if _, err := NewFetcher(server.URL, nil).MarketChart(context.Background(), "magic", 7); err == nil {
		t.Fatalf("expected error for status 429")
	}
}
