package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/observability/metrics"
	"github.com/stacklend-io/risk-engine/internal/utils/poller"
)

// StartMonitorPoller starts the scheduled monitoring service
func (s *Service) StartMonitorPoller(ctx context.Context) {
	monitorPoller := poller.NewPoller(
		s.cfg.Poller.MonitorPollingInterval,
		metrics.RecordPollerDuration("monitor", s.runScheduledMonitoring),
	)
	go monitorPoller.Start(ctx)
}

func (s *Service) runScheduledMonitoring(ctx context.Context) error {
	report, err := s.ExecuteRiskMonitoring(ctx, s.cfg.Risk.MonitoringOptions())
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Uint64("protocol_risk_score", report.ProtocolRiskLevel).
		Uint64("aggregate_ltv", report.Indicators.AggregateLtv).
		Uint64("total_value_locked", report.Indicators.TotalValueLocked).
		Stringer("system_status", report.SystemStatus).
		Bool("emergency_actions_needed", report.EmergencyActionsNeeded).
		Msg("Completed scheduled monitoring cycle")

	return nil
}
