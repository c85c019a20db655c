package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MaxPageResults is the hard cap the explorer applies to one query. A page
// of exactly this size is almost certainly truncated; callers page by
// start block until a fetch yields no new rows.
const MaxPageResults = 10000

const endBlock = 99999999

// Transaction is one row of an explorer account query, string-typed
// exactly as the API returns it.
type Transaction struct {
	BlockNumber   string `json:"blockNumber"`
	TimeStamp     string `json:"timeStamp"`
	Hash          string `json:"hash"`
	From          string `json:"from"`
	To            string `json:"to"`
	Value         string `json:"value"`
	Input         string `json:"input"`
	GasPrice      string `json:"gasPrice"`
	GasUsed       string `json:"gasUsed"`
	ReceiptStatus string `json:"txreceipt_status"`
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Config holds explorer client settings.
type Config struct {
	BaseURL string
	APIKey  string
	// RequestsPerSecond caps outbound calls; the limiter blocks the
	// caller rather than dropping requests.
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client queries an Arbiscan-style block-explorer account API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient builds a rate-limited explorer client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// ContractTransactions lists normal transactions sent to a contract,
// ascending by block, starting at startBlock (inclusive). At most
// MaxPageResults rows come back per call.
func (c *Client) ContractTransactions(ctx context.Context, contract string, startBlock uint64) ([]Transaction, error) {
	params := url.Values{}
	params.Set("action", "txlist")
	params.Set("address", contract)
	params.Set("startblock", strconv.FormatUint(startBlock, 10))
	return c.accountQuery(ctx, params)
}

// TokenTransfers lists ERC-20 transfer rows of the given token involving
// fromAddress, ascending by block.
func (c *Client) TokenTransfers(ctx context.Context, token, fromAddress string, startBlock uint64) ([]Transaction, error) {
	params := url.Values{}
	params.Set("action", "tokentx")
	params.Set("address", fromAddress)
	params.Set("contractaddress", token)
	params.Set("startblock", strconv.FormatUint(startBlock, 10))
	return c.accountQuery(ctx, params)
}

func (c *Client) accountQuery(ctx context.Context, params url.Values) ([]Transaction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("module", "account")
	params.Set("endblock", strconv.Itoa(endBlock))
	params.Set("sort", "asc")
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	requestURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// Status "0" covers both errors and the legitimate empty page.
	if env.Status != "1" {
		if strings.Contains(env.Message, "No transactions found") {
			return nil, nil
		}
		return nil, fmt.Errorf("explorer error: %s", apiErrorDetail(env))
	}

	var txs []Transaction
	if err := json.Unmarshal(env.Result, &txs); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	if len(txs) >= MaxPageResults {
		c.logger.Warn("explorer page at result cap, results may be truncated",
			zap.Int("rows", len(txs)))
	}
	return txs, nil
}

// apiErrorDetail extracts the error text; on failures the result field is
// a bare string instead of a transaction array.
func apiErrorDetail(env envelope) string {
	var detail string
	if err := json.Unmarshal(env.Result, &detail); err == nil && detail != "" {
		return fmt.Sprintf("%s: %s", env.Message, detail)
	}
	return env.Message
}
