package services

import (
	"context"
	"fmt"

	"github.com/stacklend-io/risk-engine/internal/queue"
	"github.com/stacklend-io/risk-engine/internal/types"
)

func (s *Service) emitAssessmentEvent(
	ctx context.Context,
	borrowerID string,
	assetSymbol string,
	collateralAmount uint64,
	borrowedAmount uint64,
	result *types.AssessmentResult,
	assessedAt uint64,
) *types.Error {
	assessmentEvent := queue.NewAssessmentEvent(
		borrowerID,
		assetSymbol,
		collateralAmount,
		borrowedAmount,
		result.RiskScore,
		result.LtvRatio,
		result.HealthFactor,
		assessedAt,
	)

	if err := s.eventConsumer.PushAssessmentEvent(&assessmentEvent); err != nil {
		return types.NewInternalServiceError(fmt.Errorf("failed to push the assessment event to the queue: %w", err))
	}
	return nil
}

func (s *Service) emitMonitoringReportEvent(
	ctx context.Context,
	report *types.MonitoringReport,
	emergencyMode bool,
	generatedAt uint64,
) *types.Error {
	reportEvent := queue.NewMonitoringReportEvent(
		report.ProtocolRiskLevel,
		report.Indicators.AggregateLtv,
		report.Indicators.TotalValueLocked,
		report.SystemStatus.String(),
		emergencyMode,
		generatedAt,
	)

	if err := s.eventConsumer.PushMonitoringReportEvent(&reportEvent); err != nil {
		return types.NewInternalServiceError(fmt.Errorf("failed to push the monitoring report event to the queue: %w", err))
	}
	return nil
}

func (s *Service) emitEmergencyModeEvent(
	ctx context.Context,
	active bool,
	riskScore uint64,
	aggregateLtv uint64,
	changedAt uint64,
) *types.Error {
	emergencyEvent := queue.NewEmergencyModeEvent(active, riskScore, aggregateLtv, changedAt)

	if err := s.eventConsumer.PushEmergencyModeEvent(&emergencyEvent); err != nil {
		return types.NewInternalServiceError(fmt.Errorf("failed to push the emergency mode event to the queue: %w", err))
	}
	return nil
}
