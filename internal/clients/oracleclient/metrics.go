package oracleclient

import (
	"context"
	"time"

	"github.com/stacklend-io/risk-engine/internal/observability/metrics"
)

type oracleClientWithMetrics struct {
	oracle OracleInterface
}

func NewOracleClientWithMetrics(oracle OracleInterface) *oracleClientWithMetrics {
	return &oracleClientWithMetrics{oracle: oracle}
}

func (o *oracleClientWithMetrics) GetTickers(ctx context.Context) ([]Ticker, error) {
	return runOracleClientMethodWithMetrics("GetTickers", func() ([]Ticker, error) {
		return o.oracle.GetTickers(ctx)
	})
}

func (o *oracleClientWithMetrics) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	return runOracleClientMethodWithMetrics("GetTicker", func() (*Ticker, error) {
		return o.oracle.GetTicker(ctx, symbol)
	})
}

func runOracleClientMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordOracleClientLatency(duration, method, err != nil)
	return v, err
}
