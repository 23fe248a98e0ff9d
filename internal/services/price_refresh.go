package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/observability/metrics"
	"github.com/stacklend-io/risk-engine/internal/utils/poller"
)

// StartPriceRefreshPoller starts the oracle price refresh service. The oracle
// is optional; without one, prices only move through the owner API and the
// price update queue.
func (s *Service) StartPriceRefreshPoller(ctx context.Context) {
	if s.oracle == nil || s.cfg.Oracle == nil {
		log.Info().Msg("No oracle configured - price refresh poller disabled")
		return
	}

	priceRefreshPoller := poller.NewPoller(
		s.cfg.Oracle.RefreshInterval,
		metrics.RecordPollerDuration("price_refresh", s.refreshAssetPrices),
	)
	go priceRefreshPoller.Start(ctx)
}

func (s *Service) refreshAssetPrices(ctx context.Context) error {
	tickers, err := s.oracle.GetTickers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch tickers: %w", err)
	}
	if len(tickers) == 0 {
		log.Ctx(ctx).Debug().Msg("Oracle returned no tickers - skipping price refresh")
		return nil
	}

	var applied int
	for _, ticker := range tickers {
		if err := s.applyAssetUpdate(ctx, ticker.Symbol, ticker.Price, ticker.Volatility); err != nil {
			log.Ctx(ctx).Warn().
				Err(err).
				Str("asset_symbol", ticker.Symbol).
				Msg("Skipping ticker with invalid asset update")
			continue
		}
		applied++
	}

	if applied == 0 {
		return fmt.Errorf("all %d ticker updates failed", len(tickers))
	}

	log.Ctx(ctx).Debug().
		Int("applied", applied).
		Int("received", len(tickers)).
		Msg("Refreshed asset prices from oracle")

	return nil
}
