package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/db"
	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/types"
)

const (
	bootstrapRetryInterval = 10 * time.Second
	bootstrapMaxRetries    = 10
)

// BootstrapProtocolState handles its own retry logic and runs in a goroutine.
// It makes sure a protocol state document exists before the pollers start, so
// the first monitoring cycle reads a well-defined prior mode. If any errors
// occur it retries with backoff, up to a maximum of bootstrapMaxRetries.
func (s *Service) BootstrapProtocolState(ctx context.Context) {
	go func() {
		bootstrapCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		for retries := 0; retries < bootstrapMaxRetries; retries++ {
			err := s.attemptBootstrap(bootstrapCtx)
			if err != nil {
				log.Err(err).
					Msgf(
						"Failed to bootstrap protocol state, attempt %d/%d",
						retries+1,
						bootstrapMaxRetries,
					)

				if retries == bootstrapMaxRetries-1 {
					log.Fatal().
						Msg(
							"Failed to bootstrap protocol state after max retries, exiting",
						)
				}

				time.Sleep(bootstrapRetryInterval * time.Duration(retries))
			} else {
				log.Info().Msg("Successfully bootstrapped protocol state")
				break
			}
		}
	}()
}

// attemptBootstrap seeds the singleton protocol state document if the store
// has none yet. An existing document is left untouched so a restart does not
// reset the emergency flag.
func (s *Service) attemptBootstrap(ctx context.Context) *types.Error {
	_, err := s.db.GetProtocolState(ctx)
	if err == nil {
		log.Debug().Msg("Protocol state already present, skipping seed")
		return nil
	}
	if !db.IsNotFoundError(err) {
		return types.NewInternalServiceError(
			fmt.Errorf("failed to get protocol state: %w", err),
		)
	}

	now := s.clock.Now()
	state := &model.ProtocolState{
		LastMonitoredAt: now,
		NextCycleAt:     now + s.cfg.Risk.MonitoringInterval,
	}
	if err := s.db.UpsertProtocolState(ctx, state); err != nil {
		return types.NewInternalServiceError(
			fmt.Errorf("failed to seed protocol state: %w", err),
		)
	}

	log.Info().Msg("Seeded initial protocol state")
	return nil
}
