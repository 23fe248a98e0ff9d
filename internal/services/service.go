package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/stacklend-io/risk-engine/consumer"
	"github.com/stacklend-io/risk-engine/internal/clients/oracleclient"
	"github.com/stacklend-io/risk-engine/internal/config"
	"github.com/stacklend-io/risk-engine/internal/db"
	"github.com/stacklend-io/risk-engine/internal/types"
	"github.com/stacklend-io/risk-engine/internal/utils/clock"
)

type Service struct {
	cfg           *config.Config
	db            db.DbInterface
	oracle        oracleclient.OracleInterface
	eventConsumer consumer.EventConsumer
	clock         clock.Clock

	// Serializes every state-mutating operation so each one validates and
	// commits against a consistent read set.
	writeMu sync.Mutex
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	oracle oracleclient.OracleInterface,
	eventConsumer consumer.EventConsumer,
	clk clock.Clock,
) *Service {
	return &Service{
		cfg:           cfg,
		db:            db,
		oracle:        oracle,
		eventConsumer: eventConsumer,
		clock:         clk,
	}
}

// StartRiskEngine boots the background machinery: the protocol state
// singleton, the scheduled monitoring cycle and the oracle price refresh.
func (s *Service) StartRiskEngine(ctx context.Context) {
	s.BootstrapProtocolState(ctx)
	s.StartMonitorPoller(ctx)
	s.StartPriceRefreshPoller(ctx)
}

// HealthCheck verifies the store is reachable.
func (s *Service) HealthCheck(ctx context.Context) *types.Error {
	if err := s.db.Ping(ctx); err != nil {
		return types.NewInternalServiceError(fmt.Errorf("store unreachable: %w", err))
	}
	return nil
}

// DefaultMonitoringOptions exposes the configured toggle defaults for
// on-demand monitoring runs.
func (s *Service) DefaultMonitoringOptions() types.MonitoringOptions {
	return s.cfg.Risk.MonitoringOptions()
}

func (s *Service) requireOwner(callerID string) *types.Error {
	if callerID != s.cfg.Risk.OwnerID {
		return types.NewUnauthorizedError(
			fmt.Errorf("caller %q is not the configured owner", callerID),
		)
	}
	return nil
}
