package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultAPIVersion pins the Admin REST API version for all calls.
	DefaultAPIVersion = "2024-01"

	// DefaultPageSize is the page size bound for collection fetches.
	DefaultPageSize = 250
)

// APIError is a non-2xx response from the platform.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform API error: status %d: %s", e.StatusCode, e.Body)
}

// Client issues authenticated Admin REST calls and extracts the
// continuation cursor from the Link response header.
type Client struct {
	httpClient *http.Client
	apiVersion string
	baseURL    string // overrides the per-shop https base when set, for tests
	logger     zerolog.Logger
}

// NewClient creates a platform REST client.
func NewClient(apiVersion string, logger zerolog.Logger) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiVersion: apiVersion,
		logger:     logger,
	}
}

// NewClientWithBaseURL creates a client that sends every request to a
// fixed base URL regardless of shop domain. Used in tests.
func NewClientWithBaseURL(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		apiVersion: DefaultAPIVersion,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger,
	}
}

// ListCustomers fetches one page of customers. It returns the page items
// and the cursor for the next page, empty when the collection is exhausted.
func (c *Client) ListCustomers(ctx context.Context, shopDomain, accessToken, pageInfo string, limit int) ([]CustomerPayload, string, error) {
	var body struct {
		Customers []CustomerPayload `json:"customers"`
	}
	next, err := c.getPage(ctx, shopDomain, accessToken, "customers.json", nil, pageInfo, limit, &body)
	if err != nil {
		return nil, "", err
	}
	return body.Customers, next, nil
}

// ListProducts fetches one page of products.
func (c *Client) ListProducts(ctx context.Context, shopDomain, accessToken, pageInfo string, limit int) ([]ProductPayload, string, error) {
	var body struct {
		Products []ProductPayload `json:"products"`
	}
	next, err := c.getPage(ctx, shopDomain, accessToken, "products.json", nil, pageInfo, limit, &body)
	if err != nil {
		return nil, "", err
	}
	return body.Products, next, nil
}

// ListOrders fetches one page of orders of any status, line items included.
func (c *Client) ListOrders(ctx context.Context, shopDomain, accessToken, pageInfo string, limit int) ([]OrderPayload, string, error) {
	var body struct {
		Orders []OrderPayload `json:"orders"`
	}
	extra := url.Values{"status": []string{"any"}}
	next, err := c.getPage(ctx, shopDomain, accessToken, "orders.json", extra, pageInfo, limit, &body)
	if err != nil {
		return nil, "", err
	}
	return body.Orders, next, nil
}

// getPage performs one paginated GET. Filter parameters are only sent on
// the first request; once a cursor is present the platform rejects any
// paging parameter other than page_info and limit.
func (c *Client) getPage(ctx context.Context, shopDomain, accessToken, resource string, extra url.Values, pageInfo string, limit int, out interface{}) (string, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	base := c.baseURL
	if base == "" {
		base = "https://" + shopDomain
	}
	endpoint := fmt.Sprintf("%s/admin/api/%s/%s", base, c.apiVersion, resource)

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if pageInfo != "" {
		query.Set("page_info", pageInfo)
	} else {
		for key, values := range extra {
			for _, value := range values {
				query.Add(key, value)
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn().
			Str("shop", shopDomain).
			Str("resource", resource).
			Int("status", resp.StatusCode).
			Msg("Platform API request failed")
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", fmt.Errorf("failed to decode %s response: %w", resource, err)
	}

	return nextPageInfo(resp.Header.Get("Link")), nil
}

// nextPageInfo extracts the page_info cursor of the rel="next" link from
// a Link response header. Returns empty when there is no next page.
func nextPageInfo(header string) string {
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		if !strings.Contains(segments[1], `rel="next"`) {
			continue
		}
		raw := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		return u.Query().Get("page_info")
	}
	return ""
}
