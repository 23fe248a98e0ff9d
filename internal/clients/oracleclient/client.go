package oracleclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/clients/client"
	"github.com/stacklend-io/risk-engine/internal/config"
)

const tickersEndpoint = "/v1/tickers"

const defaultTimeout = 15 * time.Second

type Client struct {
	httpClient *http.Client
	cfg        *config.OracleConfig
}

func (c *Client) GetBaseURL() string {
	return c.cfg.Endpoint
}

func (c *Client) GetDefaultRequestTimeout() time.Duration {
	if c.cfg.Timeout <= 0 {
		return defaultTimeout
	}
	return c.cfg.Timeout
}

func (c *Client) GetHttpClient() *http.Client {
	return c.httpClient
}

func NewClient(cfg *config.OracleConfig) *Client {
	if cfg == nil {
		return nil
	}

	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

func (c *Client) GetTickers(ctx context.Context) ([]Ticker, error) {
	type empty struct{}
	type tickersResponse struct {
		Tickers []Ticker `json:"tickers"`
	}

	callForTickers := func() ([]Ticker, error) {
		opts := &client.HttpClientOptions{
			Path:         tickersEndpoint,
			TemplatePath: tickersEndpoint,
		}

		resp, err := client.SendRequest[empty, tickersResponse](ctx, c, http.MethodGet, opts, nil)
		if err != nil {
			return nil, err
		}

		return resp.Tickers, nil
	}

	result, err := clientCallWithRetry(ctx, callForTickers, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickers: %w", err)
	}

	return result, nil
}

func (c *Client) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	if symbol == "" {
		return nil, fmt.Errorf("empty asset symbol provided")
	}

	type empty struct{}

	callForTicker := func() (*Ticker, error) {
		opts := &client.HttpClientOptions{
			Path:         fmt.Sprintf("%s/%s", tickersEndpoint, symbol),
			TemplatePath: tickersEndpoint + "/{symbol}",
		}

		resp, err := client.SendRequest[empty, Ticker](ctx, c, http.MethodGet, opts, nil)
		if err != nil {
			return nil, err
		}

		if resp.Symbol == "" {
			return nil, fmt.Errorf("feed returned no quote for %q", symbol)
		}

		return resp, nil
	}

	result, err := clientCallWithRetry(ctx, callForTicker, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ticker for %q: %w", symbol, err)
	}

	return result, nil
}

func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
	cfg *config.OracleConfig,
) (T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			// Only retry on rate limit errors (429)
			return err != nil && strings.Contains(err.Error(), "rate limit exceeded")
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("rate limit exceeded, retrying with exponential backoff")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
