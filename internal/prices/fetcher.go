package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"marketScope/internal/model"
)

// Bucket is the resolution of the stored price series. Upstream points
// arrive on an irregular grid; they are floored to this interval and the
// first point per bucket wins.
const Bucket = 5 * time.Minute

// PricePoint is one raw timestamp/price pair from the market-chart API.
type PricePoint struct {
	Time  time.Time
	Price decimal.Decimal
}

// Fetcher pulls USD price series from a CoinGecko-style API.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewFetcher(baseURL string, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// MarketChart fetches the USD price series for a coin over the last
// `days` days.
func (f *Fetcher) MarketChart(ctx context.Context, coinID string, days int) ([]PricePoint, error) {
	requestURL := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d", f.baseURL, coinID, days)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price api status %d", resp.StatusCode)
	}

	var payload struct {
		Prices [][2]json.Number `json:"prices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	points := make([]PricePoint, 0, len(payload.Prices))
	for _, pair := range payload.Prices {
		ms, err := pair[0].Int64()
		if err != nil {
			return nil, fmt.Errorf("price timestamp %q: %w", pair[0], err)
		}
		price, err := decimal.NewFromString(pair[1].String())
		if err != nil {
			return nil, fmt.Errorf("price value %q: %w", pair[1], err)
		}
		points = append(points, PricePoint{
			Time:  time.UnixMilli(ms).UTC(),
			Price: price,
		})
	}
	f.logger.Debug("market chart fetched", zap.String("coin", coinID), zap.Int("points", len(points)))
	return points, nil
}

// FloorSeries truncates each point to the bucket boundary, keeping the
// first point per bucket, in time order.
func FloorSeries(points []PricePoint) []PricePoint {
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	out := make([]PricePoint, 0, len(points))
	seen := make(map[int64]bool, len(points))
	for _, p := range points {
		floored := p.Time.Truncate(Bucket)
		if seen[floored.Unix()] {
			continue
		}
		seen[floored.Unix()] = true
		out = append(out, PricePoint{Time: floored, Price: p.Price})
	}
	return out
}

// MergeSeries inner-joins the MAGIC and ETH series on bucket timestamp.
// Buckets present in only one series are dropped: a price row is only
// useful downstream when both conversions exist.
func MergeSeries(magic, eth []PricePoint) []model.TokenPrice {
	ethByTime := make(map[int64]decimal.Decimal, len(eth))
	for _, p := range eth {
		ethByTime[p.Time.Unix()] = p.Price
	}

	out := make([]model.TokenPrice, 0, len(magic))
	for _, p := range magic {
		ethPrice, ok := ethByTime[p.Time.Unix()]
		if !ok {
			continue
		}
		out = append(out, model.TokenPrice{
			Time:     p.Time,
			MagicUSD: p.Price,
			EthUSD:   ethPrice,
		})
	}
	return out
}

// After keeps rows strictly newer than cutoff.
func After(prices []model.TokenPrice, cutoff time.Time) []model.TokenPrice {
	out := make([]model.TokenPrice, 0, len(prices))
	for _, p := range prices {
		if p.Time.After(cutoff) {
			out = append(out, p)
		}
	}
	return out
}
