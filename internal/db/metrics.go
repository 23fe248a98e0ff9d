package db

import (
	"context"
	"time"

	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveBorrowerProfile(ctx context.Context, profile *model.BorrowerProfile) error {
	return d.run("SaveBorrowerProfile", func() error {
		return d.db.SaveBorrowerProfile(ctx, profile)
	})
}

func (d *DbWithMetrics) GetBorrowerProfile(ctx context.Context, borrowerID string) (result *model.BorrowerProfile, err error) {
	//nolint:errcheck
	d.run("GetBorrowerProfile", func() error {
		result, err = d.db.GetBorrowerProfile(ctx, borrowerID)
		return err
	})
	return
}

func (d *DbWithMetrics) UpdateBorrowerAssessment(
	ctx context.Context,
	borrowerID string,
	totalBorrowed, collateralValue uint64,
	creditScore, liquidationRisk uint64,
	assessedAt uint64,
) error {
	return d.run("UpdateBorrowerAssessment", func() error {
		return d.db.UpdateBorrowerAssessment(ctx, borrowerID, totalBorrowed, collateralValue, creditScore, liquidationRisk, assessedAt)
	})
}

func (d *DbWithMetrics) SaveCollateralAsset(ctx context.Context, asset *model.CollateralAsset) error {
	return d.run("SaveCollateralAsset", func() error {
		return d.db.SaveCollateralAsset(ctx, asset)
	})
}

func (d *DbWithMetrics) GetCollateralAsset(ctx context.Context, symbol string) (result *model.CollateralAsset, err error) {
	//nolint:errcheck
	d.run("GetCollateralAsset", func() error {
		result, err = d.db.GetCollateralAsset(ctx, symbol)
		return err
	})
	return
}

func (d *DbWithMetrics) GetAllCollateralAssets(ctx context.Context) (result []*model.CollateralAsset, err error) {
	//nolint:errcheck
	d.run("GetAllCollateralAssets", func() error {
		result, err = d.db.GetAllCollateralAssets(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) UpsertLendingPosition(ctx context.Context, position *model.LendingPosition) error {
	return d.run("UpsertLendingPosition", func() error {
		return d.db.UpsertLendingPosition(ctx, position)
	})
}

func (d *DbWithMetrics) GetLendingPosition(ctx context.Context, borrowerID, assetSymbol string) (result *model.LendingPosition, err error) {
	//nolint:errcheck
	d.run("GetLendingPosition", func() error {
		result, err = d.db.GetLendingPosition(ctx, borrowerID, assetSymbol)
		return err
	})
	return
}

func (d *DbWithMetrics) GetLendingPositionsByBorrower(ctx context.Context, borrowerID string) (result []*model.LendingPosition, err error) {
	//nolint:errcheck
	d.run("GetLendingPositionsByBorrower", func() error {
		result, err = d.db.GetLendingPositionsByBorrower(ctx, borrowerID)
		return err
	})
	return
}

func (d *DbWithMetrics) GetAllLendingPositions(ctx context.Context) (result []*model.LendingPosition, err error) {
	//nolint:errcheck
	d.run("GetAllLendingPositions", func() error {
		result, err = d.db.GetAllLendingPositions(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) GetPositionsBelowHealth(ctx context.Context, maxHealthFactor uint64, limit int64) (result []*model.LendingPosition, err error) {
	//nolint:errcheck
	d.run("GetPositionsBelowHealth", func() error {
		result, err = d.db.GetPositionsBelowHealth(ctx, maxHealthFactor, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) GetProtocolState(ctx context.Context) (result *model.ProtocolState, err error) {
	//nolint:errcheck
	d.run("GetProtocolState", func() error {
		result, err = d.db.GetProtocolState(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) UpsertProtocolState(ctx context.Context, state *model.ProtocolState) error {
	return d.run("UpsertProtocolState", func() error {
		return d.db.UpsertProtocolState(ctx, state)
	})
}

func (d *DbWithMetrics) CalculatePortfolioAggregates(ctx context.Context) (result *PortfolioAggregates, err error) {
	//nolint:errcheck
	d.run("CalculatePortfolioAggregates", func() error {
		result, err = d.db.CalculatePortfolioAggregates(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) CalculateAssetExposure(ctx context.Context) (result []*AssetExposureResult, err error) {
	//nolint:errcheck
	d.run("CalculateAssetExposure", func() error {
		result, err = d.db.CalculateAssetExposure(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) CountPositionsInHealthBand(ctx context.Context, maxHealthFactor uint64) (result *HealthBandResult, err error) {
	//nolint:errcheck
	d.run("CountPositionsInHealthBand", func() error {
		result, err = d.db.CountPositionsInHealthBand(ctx, maxHealthFactor)
		return err
	})
	return
}

func (d *DbWithMetrics) CountPositionsSurvivingShock(ctx context.Context, shockPct uint64) (result uint64, err error) {
	//nolint:errcheck
	d.run("CountPositionsSurvivingShock", func() error {
		result, err = d.db.CountPositionsSurvivingShock(ctx, shockPct)
		return err
	})
	return
}

func (d *DbWithMetrics) CountPositionsWithLtvBelow(ctx context.Context, maxLtv uint64) (result uint64, err error) {
	//nolint:errcheck
	d.run("CountPositionsWithLtvBelow", func() error {
		result, err = d.db.CountPositionsWithLtvBelow(ctx, maxLtv)
		return err
	})
	return
}

func (d *DbWithMetrics) InsertMonitoringReport(ctx context.Context, doc *model.MonitoringReportDocument) error {
	return d.run("InsertMonitoringReport", func() error {
		return d.db.InsertMonitoringReport(ctx, doc)
	})
}

func (d *DbWithMetrics) GetLatestMonitoringReport(ctx context.Context) (result *model.MonitoringReportDocument, err error) {
	//nolint:errcheck
	d.run("GetLatestMonitoringReport", func() error {
		result, err = d.db.GetLatestMonitoringReport(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) GetMonitoringReports(ctx context.Context, limit int64) (result []*model.MonitoringReportDocument, err error) {
	//nolint:errcheck
	d.run("GetMonitoringReports", func() error {
		result, err = d.db.GetMonitoringReports(ctx, limit)
		return err
	})
	return
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
