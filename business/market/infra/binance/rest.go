package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/fd1az/spread-analyzer/business/market/app"
	"github.com/fd1az/spread-analyzer/internal/apperror"
	"github.com/fd1az/spread-analyzer/internal/httpclient"
)

const (
	BaseAPIURL   = "https://api.binance.com"
	BaseAPIURLUS = "https://api.binance.us"

	depthEndpoint = "/api/v3/depth"
)

// DepthResponse is the REST order book payload.
type DepthResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// APIError is an error body returned by the REST API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance api error %d: %s", e.Code, e.Message)
}

func decodeAPIError(_ int, body []byte) error {
	var apiErr APIError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
		return &apiErr
	}
	return nil
}

// RESTClient fetches depth snapshots over the REST API.
type RESTClient struct {
	http  *httpclient.Client
	depth int
}

var _ app.DepthSnapshotter = (*RESTClient)(nil)

// NewRESTClient creates a RESTClient returning depth levels per side.
func NewRESTClient(baseURL string, timeout time.Duration, depth int) (*RESTClient, error) {
	if baseURL == "" {
		baseURL = BaseAPIURL
	}
	c, err := httpclient.New(
		httpclient.WithName("binance"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithTimeout(timeout),
		httpclient.WithErrorDecoder(decodeAPIError),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	return &RESTClient{http: c, depth: depth}, nil
}

// restLimit picks the smallest limit the endpoint accepts holding depth levels.
func restLimit(depth int) int {
	for _, l := range []int{5, 10, 20, 50, 100, 500, 1000, 5000} {
		if depth <= l {
			return l
		}
	}
	return 5000
}

// Snapshot fetches the current book of symbol.
func (c *RESTClient) Snapshot(ctx context.Context, symbol string) (app.DepthEvent, error) {
	var resp DepthResponse
	err := c.http.GetJSON(ctx, depthEndpoint, url.Values{
		"symbol": {symbol},
		"limit":  {strconv.Itoa(restLimit(c.depth))},
	}, &resp, httpclient.NewLabel("endpoint", "depth"))
	if err != nil {
		return app.DepthEvent{}, apperror.External(apperror.CodeExternalServiceError, "binance depth "+symbol, err)
	}

	bids, err := ParseLevels(resp.Bids)
	if err != nil {
		return app.DepthEvent{}, apperror.New(apperror.CodeInvalidOrderbook, apperror.WithCause(err), apperror.WithContext(symbol))
	}
	asks, err := ParseLevels(resp.Asks)
	if err != nil {
		return app.DepthEvent{}, apperror.New(apperror.CodeInvalidOrderbook, apperror.WithCause(err), apperror.WithContext(symbol))
	}

	return app.DepthEvent{
		Symbol:   symbol,
		UpdateID: resp.LastUpdateID,
		Bids:     bids,
		Asks:     asks,
	}, nil
}
