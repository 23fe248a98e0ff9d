package api

import (
	"context"

	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/types"
)

// RiskService is the slice of the service layer the HTTP surface exposes.
type RiskService interface {
	RegisterBorrower(ctx context.Context, callerID, borrowerID string) *types.Error
	UpdateAssetPrice(ctx context.Context, callerID, symbol string, price, volatility uint64) *types.Error
	CreditScore(ctx context.Context, borrowerID string) (uint64, *types.Error)
	VolatilityRisk(ctx context.Context, assetSymbol string) (uint64, *types.Error)
	GetBorrowerPositions(ctx context.Context, borrowerID, assetSymbol string) ([]*model.LendingPosition, *types.Error)
	AssessBorrowingRisk(
		ctx context.Context,
		callerID, borrowerID, assetSymbol string,
		borrowAmount, collateralAmount uint64,
	) (*types.AssessmentResult, *types.Error)
	ExecuteRiskMonitoring(ctx context.Context, opts types.MonitoringOptions) (*types.MonitoringReport, *types.Error)
	DefaultMonitoringOptions() types.MonitoringOptions
	GetProtocolState(ctx context.Context) (*model.ProtocolState, *types.Error)
	GetLatestMonitoringReport(ctx context.Context) (*model.MonitoringReportDocument, *types.Error)
	HealthCheck(ctx context.Context) *types.Error
}
