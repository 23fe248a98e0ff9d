package poller

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

type Poller struct {
	interval   time.Duration
	quit       chan struct{}
	pollMethod func(ctx context.Context) error
}

func NewPoller(interval time.Duration, pollMethod func(ctx context.Context) error) *Poller {
	return &Poller{
		interval:   interval,
		quit:       make(chan struct{}),
		pollMethod: pollMethod,
	}
}

func (p *Poller) Start(ctx context.Context) {
	// Jitter the first tick so pollers sharing an interval don't all fire
	// at once after startup.
	jitter := time.Duration(rand.Int63n(int64(p.interval)))
	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		return
	case <-p.quit:
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Info().Msgf("Starting poller with interval %s", p.interval)

	for {
		select {
		case <-ticker.C:
			log.Debug().Msg("Executing poll method")
			if err := p.pollMethod(ctx); err != nil {
				log.Error().Err(err).Msg("Error polling")
			} else {
				log.Debug().Msg("Poll method executed successfully")
			}
		case <-ctx.Done():
			log.Info().Msg("Poller stopped due to context cancellation")
			return
		case <-p.quit:
			log.Info().Msg("Poller stopped")
			return
		}
	}
}

func (p *Poller) Stop() {
	close(p.quit)
}
