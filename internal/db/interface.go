package db

import (
	"context"

	"github.com/stacklend-io/risk-engine/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	SaveBorrowerProfile(ctx context.Context, profile *model.BorrowerProfile) error
	GetBorrowerProfile(ctx context.Context, borrowerID string) (*model.BorrowerProfile, error)
	UpdateBorrowerAssessment(
		ctx context.Context,
		borrowerID string,
		totalBorrowed, collateralValue uint64,
		creditScore, liquidationRisk uint64,
		assessedAt uint64,
	) error

	SaveCollateralAsset(ctx context.Context, asset *model.CollateralAsset) error
	GetCollateralAsset(ctx context.Context, symbol string) (*model.CollateralAsset, error)
	GetAllCollateralAssets(ctx context.Context) ([]*model.CollateralAsset, error)

	UpsertLendingPosition(ctx context.Context, position *model.LendingPosition) error
	GetLendingPosition(ctx context.Context, borrowerID, assetSymbol string) (*model.LendingPosition, error)
	GetLendingPositionsByBorrower(ctx context.Context, borrowerID string) ([]*model.LendingPosition, error)
	GetAllLendingPositions(ctx context.Context) ([]*model.LendingPosition, error)
	GetPositionsBelowHealth(ctx context.Context, maxHealthFactor uint64, limit int64) ([]*model.LendingPosition, error)

	GetProtocolState(ctx context.Context) (*model.ProtocolState, error)
	UpsertProtocolState(ctx context.Context, state *model.ProtocolState) error

	CalculatePortfolioAggregates(ctx context.Context) (*PortfolioAggregates, error)
	CalculateAssetExposure(ctx context.Context) ([]*AssetExposureResult, error)
	CountPositionsInHealthBand(ctx context.Context, maxHealthFactor uint64) (*HealthBandResult, error)
	CountPositionsSurvivingShock(ctx context.Context, shockPct uint64) (uint64, error)
	CountPositionsWithLtvBelow(ctx context.Context, maxLtv uint64) (uint64, error)

	InsertMonitoringReport(ctx context.Context, doc *model.MonitoringReportDocument) error
	GetLatestMonitoringReport(ctx context.Context) (*model.MonitoringReportDocument, error)
	GetMonitoringReports(ctx context.Context, limit int64) ([]*model.MonitoringReportDocument, error)
}
