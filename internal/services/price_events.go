package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/queue"
)

// ProcessPriceUpdateEvent applies one price update delivered through the
// queue. A non-nil return hands the message to the queue retry path.
func (s *Service) ProcessPriceUpdateEvent(ctx context.Context, event *queue.PriceUpdateEvent) error {
	if event.SchemaVersion != queue.SchemaVersion {
		return fmt.Errorf(
			"unsupported price update schema version %d, expected %d",
			event.SchemaVersion, queue.SchemaVersion,
		)
	}

	if err := s.applyAssetUpdate(ctx, event.Symbol, event.Price, event.Volatility); err != nil {
		return err
	}

	log.Ctx(ctx).Debug().
		Str("asset_symbol", event.Symbol).
		Uint64("price", event.Price).
		Msg("Applied queued price update")

	return nil
}
