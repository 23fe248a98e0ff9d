package oracleclient

import "context"

type OracleInterface interface {
	GetTickers(ctx context.Context) ([]Ticker, error)
	GetTicker(ctx context.Context, symbol string) (*Ticker, error)
}
