package pancake

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:       baseURL,
		APIKey:        "test-key",
		Timeout:       2 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}, zap.NewNop())
}

func TestClient_ListShops(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes the shop listing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/shops", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"success": true,
				"shops": [
					{"id": 1001, "name": "Main Store", "pages": [{"id": "pg-1", "name": "Main Page", "platform": "facebook"}]},
					{"id": 1002, "name": "Outlet"}
				]
			}`))
		}))
		defer server.Close()

		shops, err := newTestClient(server.URL).ListShops(ctx)

		require.NoError(t, err)
		require.Len(t, shops, 2)
		assert.Equal(t, "1001", shops[0].ID.String())
		assert.Equal(t, "Main Store", shops[0].Name)
		require.Len(t, shops[0].Pages, 1)
		assert.Equal(t, "facebook", shops[0].Pages[0].Platform)
	})

	t.Run("success=false is a rejection", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			_, _ = w.Write([]byte(`{"success": false, "message": "invalid api key"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).ListShops(ctx)

		assert.ErrorIs(t, err, syncdomain.ErrRemoteRejected)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "rejections must not be retried")
	})
}

func TestClient_ListOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a page envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/shops/1001/orders", r.URL.Path)
			assert.Equal(t, "2", r.URL.Query().Get("page_number"))
			assert.Equal(t, "100", r.URL.Query().Get("page_size"))
			_, _ = w.Write([]byte(`{
				"success": true,
				"page_number": 2,
				"total_pages": 5,
				"data": [{"id": 42, "status": 1, "total_price": "125.5000"}]
			}`))
		}))
		defer server.Close()

		page, err := newTestClient(server.URL).ListOrders(ctx, "1001", 2, 100, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, page.Number)
		assert.Equal(t, 5, page.TotalPages)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "42", page.Data[0].ID.String())
		require.NotNil(t, page.Data[0].TotalPrice)
		assert.Equal(t, "125.5", page.Data[0].TotalPrice.String())
	})

	t.Run("forwards the update window as unix seconds", func(t *testing.T) {
		start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
		end := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, strconv.FormatInt(start.Unix(), 10), r.URL.Query().Get("start_time_updated_at"))
			assert.Equal(t, strconv.FormatInt(end.Unix(), 10), r.URL.Query().Get("end_time_updated_at"))
			_, _ = w.Write([]byte(`{"success": true, "page_number": 1, "total_pages": 1, "data": []}`))
		}))
		defer server.Close()

		window := &TimeWindow{Start: &start, End: &end}
		_, err := newTestClient(server.URL).ListOrders(ctx, "1001", 1, 100, window)

		require.NoError(t, err)
	})

	t.Run("missing page_number falls back to the requested page", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success": true, "total_pages": 3, "data": []}`))
		}))
		defer server.Close()

		page, err := newTestClient(server.URL).ListOrders(ctx, "1001", 2, 100, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, page.Number)
	})

	t.Run("rejects page below 1", func(t *testing.T) {
		_, err := newTestClient("http://unused").ListOrders(ctx, "1001", 0, 100, nil)

		assert.ErrorContains(t, err, "page must be >= 1")
	})
}

func TestClient_Retry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries transient statuses until success", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"success": true, "page_number": 1, "total_pages": 1, "data": []}`))
		}))
		defer server.Close()

		page, err := newTestClient(server.URL).ListCustomers(ctx, "1001", 1, 50, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, page.Number)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("gives up after exhausting retries", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).ListCustomers(ctx, "1001", 1, 50, nil)

		assert.ErrorIs(t, err, syncdomain.ErrRemoteUnavailable)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("client errors fail fast", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).ListProducts(ctx, "1001", 1, 30)

		assert.ErrorIs(t, err, syncdomain.ErrRemoteRejected)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("malformed body is an invalid response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>not json</html>`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).ListCategories(ctx, "1001", 1, 100)

		assert.ErrorIs(t, err, syncdomain.ErrInvalidResponse)
	})

	t.Run("unreachable host is transient", func(t *testing.T) {
		client := NewClient(Config{
			BaseURL:       "http://127.0.0.1:1",
			APIKey:        "test-key",
			Timeout:       200 * time.Millisecond,
			RetryAttempts: 2,
			RetryDelay:    time.Millisecond,
		}, zap.NewNop())

		_, err := client.ListShops(ctx)

		assert.ErrorIs(t, err, syncdomain.ErrRemoteUnavailable)
	})
}
