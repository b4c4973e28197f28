package swft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"flash-swap/pkg/types"
)

const (
	// DefaultBaseURL is the public SWFT aggregator endpoint.
	DefaultBaseURL = "https://www.swftc.info"

	// resCodeOK is the success response code; anything else is a
	// domain-level failure even when the HTTP call itself succeeded.
	resCodeOK = "800"
)

// Client wraps the SWFT aggregator API: coin list, pair base info (the
// quote source) and order creation.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL; an empty URL selects
// the public endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// envelope is the common SWFT response wrapper.
type envelope struct {
	ResCode string          `json:"resCode"`
	ResMsg  string          `json:"resMsg"`
	Data    json.RawMessage `json:"data"`
}

// baseInfo is the raw getBaseInfo payload. SWFT returns numbers as strings.
type baseInfo struct {
	InstantRate        string `json:"instantRate"`
	DepositCoinFeeRate string `json:"depositCoinFeeRate"`
	MinerFee           string `json:"minerFee"`
	MinDepositCoinAmt  string `json:"minDepositCoinAmt"`
	MaxDepositCoinAmt  string `json:"maxDepositCoinAmt"`
}

// OrderRequest describes an exchange order for CreateOrder.
type OrderRequest struct {
	From            types.AssetRef
	To              types.AssetRef
	Amount          float64
	DestinationAddr string
	RefundAddr      string
}

// Order is the created exchange order.
type Order struct {
	OrderID        string `json:"orderId"`
	PlatformAddr   string `json:"platformAddr"`
	DepositCoinAmt string `json:"depositCoinAmt"`
	ReceiveCoinAmt string `json:"receiveCoinAmt"`
}

// GetCoinList retrieves the full supported coin list.
func (c *Client) GetCoinList(ctx context.Context) ([]types.CoinInfo, error) {
	body := map[string]string{"supportType": "advanced"}

	var coins []types.CoinInfo
	if err := c.post(ctx, "/api/v1/queryCoinList", body, &coins); err != nil {
		return nil, fmt.Errorf("failed to get coin list: %w", err)
	}
	return coins, nil
}

// GetPriceInfo fetches the current conversion data for a pair. It
// implements the engine's QuoteSource contract.
func (c *Client) GetPriceInfo(ctx context.Context, from, to types.AssetRef) (types.Quote, error) {
	body := map[string]string{
		"depositCoinCode": from.Symbol,
		"receiveCoinCode": to.Symbol,
	}

	var info baseInfo
	if err := c.post(ctx, "/api/v2/getBaseInfo", body, &info); err != nil {
		return types.Quote{}, fmt.Errorf("failed to get price info: %w", err)
	}

	rate, err := strconv.ParseFloat(info.InstantRate, 64)
	if err != nil {
		return types.Quote{}, fmt.Errorf("invalid instant rate %q: %w", info.InstantRate, err)
	}

	quote := types.Quote{
		Rate:           rate,
		DepositFeeRate: parseOptional(info.DepositCoinFeeRate),
		MinerFee:       parseOptional(info.MinerFee),
		MinAmount:      parseOptional(info.MinDepositCoinAmt),
		MaxAmount:      parseOptional(info.MaxDepositCoinAmt),
		AsOf:           time.Now(),
	}
	return quote, nil
}

// CreateOrder places an exchange order and returns the deposit details.
// Each order carries a client-generated reference id.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.DestinationAddr == "" {
		return nil, fmt.Errorf("destination address is required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be greater than 0")
	}

	refundAddr := req.RefundAddr
	if refundAddr == "" {
		refundAddr = req.DestinationAddr
	}

	body := map[string]string{
		"depositCoinCode": req.From.Symbol,
		"receiveCoinCode": req.To.Symbol,
		"depositCoinAmt":  fmt.Sprintf("%.8f", req.Amount),
		"destinationAddr": req.DestinationAddr,
		"refundAddr":      refundAddr,
		"sourceFlag":      "flash-swap",
		"sessionUuid":     uuid.New().String(),
	}

	var order Order
	if err := c.post(ctx, "/api/v2/accountExchange", body, &order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &order, nil
}

// post sends a JSON request and decodes the enveloped payload into out.
func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status code %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if env.ResCode != resCodeOK {
		if env.ResMsg != "" {
			return fmt.Errorf("API returned code %s: %s", env.ResCode, env.ResMsg)
		}
		return fmt.Errorf("API returned code %s", env.ResCode)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

func parseOptional(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}
