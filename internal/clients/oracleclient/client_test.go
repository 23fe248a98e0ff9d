package oracleclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklend-io/risk-engine/internal/config"
	"github.com/stacklend-io/risk-engine/internal/observability/metrics"
)

func testConfig(endpoint string) *config.OracleConfig {
	return &config.OracleConfig{
		Endpoint:      endpoint,
		Timeout:       5 * time.Second,
		MaxRetryTimes: 3,
		RetryInterval: 10 * time.Millisecond, // Short interval for testing
	}
}

func TestGetTicker_WithRetry(t *testing.T) {
	metrics.Init(9999)

	// Return 429 for the first 2 requests, then 200
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if requestCount <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too Many Requests"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"symbol":"STX","price":200,"volatility":10}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	ticker, err := client.GetTicker(context.Background(), "STX")
	require.NoError(t, err)
	assert.Equal(t, "STX", ticker.Symbol)
	assert.Equal(t, uint64(200), ticker.Price)
	assert.Equal(t, uint64(10), ticker.Volatility)
	assert.Equal(t, 3, requestCount, "Should have made 3 requests (2 failures + 1 success)")
}

func TestGetTicker_ExceedsMaxRetries(t *testing.T) {
	metrics.Init(9999)

	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"Too Many Requests"}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetryTimes = 2
	client := NewClient(cfg)

	_, err := client.GetTicker(context.Background(), "STX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch ticker")
	assert.Equal(t, 2, requestCount, "Should have made 2 requests before giving up")
}

func TestGetTicker_NoRetryOnServerError(t *testing.T) {
	metrics.Init(9999)

	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	_, err := client.GetTicker(context.Background(), "STX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
	assert.Equal(t, 1, requestCount, "Non rate-limit errors should not be retried")
}

func TestGetTicker_EmptySymbol(t *testing.T) {
	metrics.Init(9999)

	client := NewClient(testConfig("http://localhost:1"))

	_, err := client.GetTicker(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty asset symbol provided")
}

func TestGetTickers(t *testing.T) {
	metrics.Init(9999)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tickers", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"tickers":[
			{"symbol":"STX","price":200,"volatility":10},
			{"symbol":"BTC","price":6500000,"volatility":35}
		]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	tickers, err := client.GetTickers(context.Background())
	require.NoError(t, err)
	require.Len(t, tickers, 2)
	assert.Equal(t, "BTC", tickers[1].Symbol)
	assert.Equal(t, uint64(35), tickers[1].Volatility)
}

func TestGetTicker_ExponentialBackoff(t *testing.T) {
	metrics.Init(9999)

	// Track request timestamps to verify exponential backoff
	var requestTimes []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestTimes = append(requestTimes, time.Now())
		if len(requestTimes) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too Many Requests"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"symbol":"STX","price":200,"volatility":10}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RetryInterval = 50 * time.Millisecond
	client := NewClient(cfg)

	ticker, err := client.GetTicker(context.Background(), "STX")
	require.NoError(t, err)
	assert.Equal(t, "STX", ticker.Symbol)
	require.Len(t, requestTimes, 3)

	delay1 := requestTimes[1].Sub(requestTimes[0])
	delay2 := requestTimes[2].Sub(requestTimes[1])

	// With exponential backoff the second delay should be longer than the
	// first. Allow some tolerance for timing variations.
	assert.GreaterOrEqual(t, delay1, 40*time.Millisecond)
	assert.Greater(t, delay2, delay1)
}
