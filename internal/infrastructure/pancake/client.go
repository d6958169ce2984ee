package pancake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
)

// maxResponseSize is the maximum allowed response size from the remote API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Default page sizes accepted per collection endpoint
const (
	DefaultProductPageSize  = 30
	DefaultCustomerPageSize = 50
	DefaultOrderPageSize    = 100
	DefaultPageSize         = 100
)

// Collection paths under /shops/{id}/
const (
	CollectionCategories = "categories"
	CollectionProducts   = "products"
	CollectionCustomers  = "customers"
	CollectionUsers      = "users"
	CollectionOrders     = "orders"
)

// Config holds remote API client configuration
type Config struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// TimeWindow optionally restricts a listing to records updated inside the range
type TimeWindow struct {
	Start *time.Time
	End   *time.Time
}

// Client fetches paginated collections from the remote API. Requests are
// idempotent GETs; transport failures are retried up to the configured
// bound, application-level rejections are never retried.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new remote API client
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 500 * time.Millisecond
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// ListShops fetches the full tenant listing
func (c *Client) ListShops(ctx context.Context) ([]RemoteShop, error) {
	q := url.Values{}
	q.Set("api_key", c.config.APIKey)

	body, err := c.getWithRetry(ctx, fmt.Sprintf("%s/shops", c.config.BaseURL), q)
	if err != nil {
		return nil, err
	}

	var resp shopsEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrInvalidResponse, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: shop listing returned success=false", syncdomain.ErrRemoteRejected)
	}
	return resp.Shops, nil
}

// ListCategories fetches one page of a shop's category tree
func (c *Client) ListCategories(ctx context.Context, shopID string, page, pageSize int) (*Page[RemoteCategory], error) {
	return fetchPage[RemoteCategory](ctx, c, shopID, CollectionCategories, page, pageSize, nil)
}

// ListProducts fetches one page of a shop's products with variations embedded
func (c *Client) ListProducts(ctx context.Context, shopID string, page, pageSize int) (*Page[RemoteProduct], error) {
	return fetchPage[RemoteProduct](ctx, c, shopID, CollectionProducts, page, pageSize, nil)
}

// ListUsers fetches one page of the shop's API actors
func (c *Client) ListUsers(ctx context.Context, shopID string, page, pageSize int) (*Page[RemoteUser], error) {
	return fetchPage[RemoteUser](ctx, c, shopID, CollectionUsers, page, pageSize, nil)
}

// ListCustomers fetches one page of a shop's customers, optionally windowed
// by remote update time
func (c *Client) ListCustomers(ctx context.Context, shopID string, page, pageSize int, window *TimeWindow) (*Page[RemoteCustomer], error) {
	return fetchPage[RemoteCustomer](ctx, c, shopID, CollectionCustomers, page, pageSize, window)
}

// ListOrders fetches one page of a shop's orders, optionally windowed by
// remote update time
func (c *Client) ListOrders(ctx context.Context, shopID string, page, pageSize int, window *TimeWindow) (*Page[RemoteOrder], error) {
	return fetchPage[RemoteOrder](ctx, c, shopID, CollectionOrders, page, pageSize, window)
}

// fetchPage fetches and decodes one page of a shop-scoped collection
func fetchPage[T any](ctx context.Context, c *Client, shopID, collection string, page, pageSize int, window *TimeWindow) (*Page[T], error) {
	if page < 1 {
		return nil, fmt.Errorf("pancake: page must be >= 1, got %d", page)
	}

	q := url.Values{}
	q.Set("api_key", c.config.APIKey)
	q.Set("page_number", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	if window != nil {
		if window.Start != nil {
			q.Set("start_time_updated_at", strconv.FormatInt(window.Start.Unix(), 10))
		}
		if window.End != nil {
			q.Set("end_time_updated_at", strconv.FormatInt(window.End.Unix(), 10))
		}
	}

	endpoint := fmt.Sprintf("%s/shops/%s/%s", c.config.BaseURL, url.PathEscape(shopID), collection)
	body, err := c.getWithRetry(ctx, endpoint, q)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrInvalidResponse, err)
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s page %d returned success=false", syncdomain.ErrRemoteRejected, collection, page)
	}

	result := &Page[T]{
		Number:     env.PageNumber,
		TotalPages: env.TotalPages,
	}
	if result.Number == 0 {
		result.Number = page
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &result.Data); err != nil {
			return nil, fmt.Errorf("%w: %s page %d data: %v", syncdomain.ErrInvalidResponse, collection, page, err)
		}
	}
	return result, nil
}

// getWithRetry performs a GET, retrying transport failures with a fixed
// delay. Rejections and malformed responses are surfaced immediately.
func (c *Client) getWithRetry(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.config.RetryAttempts; attempt++ {
		body, err := c.doRequest(ctx, endpoint, query)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isTransient(err) {
			return nil, err
		}
		c.logger.Warn("transient fetch failure, retrying",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < c.config.RetryAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}
	}
	return nil, lastErr
}

// doRequest performs one HTTP GET against the remote API
func (c *Client) doRequest(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("pancake: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", syncdomain.ErrRemoteUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		if isTransientStatus(resp.StatusCode) {
			return nil, fmt.Errorf("%w: HTTP %d", syncdomain.ErrRemoteUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: HTTP %d", syncdomain.ErrRemoteRejected, resp.StatusCode)
	}
	return body, nil
}

func isTransient(err error) bool {
	return errors.Is(err, syncdomain.ErrRemoteUnavailable)
}

// isTransientStatus reports whether an HTTP error status is worth retrying
func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
