package services

import (
	"context"
	"sort"
	"testing"

	"github.com/stacklend-io/risk-engine/consumer"
	"github.com/stacklend-io/risk-engine/internal/config"
	"github.com/stacklend-io/risk-engine/internal/db"
	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/observability/metrics"
	"github.com/stacklend-io/risk-engine/internal/queue"
	"github.com/stacklend-io/risk-engine/internal/utils/clock"
)

const testOwnerID = "protocol-owner"

// memDB is an in-memory DbInterface that mirrors the aggregation pipeline
// semantics so service logic can be exercised without a store.
type memDB struct {
	borrowers map[string]*model.BorrowerProfile
	assets    map[string]*model.CollateralAsset
	positions map[string]*model.LendingPosition
	state     *model.ProtocolState
	reports   []*model.MonitoringReportDocument

	// non-nil values make the matching method fail
	aggregatesErr error
	shockCountErr error
	stateErr      error
}

func newMemDB() *memDB {
	return &memDB{
		borrowers: make(map[string]*model.BorrowerProfile),
		assets:    make(map[string]*model.CollateralAsset),
		positions: make(map[string]*model.LendingPosition),
	}
}

func (m *memDB) Ping(ctx context.Context) error { return nil }

func (m *memDB) SaveBorrowerProfile(ctx context.Context, profile *model.BorrowerProfile) error {
	m.borrowers[profile.BorrowerID] = profile
	return nil
}

func (m *memDB) GetBorrowerProfile(ctx context.Context, borrowerID string) (*model.BorrowerProfile, error) {
	profile, ok := m.borrowers[borrowerID]
	if !ok {
		return nil, &db.NotFoundError{Key: borrowerID, Message: "borrower not found"}
	}
	return profile, nil
}

func (m *memDB) UpdateBorrowerAssessment(
	ctx context.Context,
	borrowerID string,
	totalBorrowed, collateralValue uint64,
	creditScore, liquidationRisk uint64,
	assessedAt uint64,
) error {
	profile, ok := m.borrowers[borrowerID]
	if !ok {
		profile = &model.BorrowerProfile{BorrowerID: borrowerID}
		m.borrowers[borrowerID] = profile
	}
	profile.TotalBorrowed = totalBorrowed
	profile.CollateralValue = collateralValue
	profile.CreditScore = creditScore
	profile.LiquidationRisk = liquidationRisk
	profile.LastAssessmentAt = assessedAt
	return nil
}

func (m *memDB) SaveCollateralAsset(ctx context.Context, asset *model.CollateralAsset) error {
	m.assets[asset.Symbol] = asset
	return nil
}

func (m *memDB) GetCollateralAsset(ctx context.Context, symbol string) (*model.CollateralAsset, error) {
	asset, ok := m.assets[symbol]
	if !ok {
		return nil, &db.NotFoundError{Key: symbol, Message: "asset not found"}
	}
	return asset, nil
}

func (m *memDB) GetAllCollateralAssets(ctx context.Context) ([]*model.CollateralAsset, error) {
	assets := make([]*model.CollateralAsset, 0, len(m.assets))
	for _, asset := range m.assets {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Symbol < assets[j].Symbol })
	return assets, nil
}

func (m *memDB) UpsertLendingPosition(ctx context.Context, position *model.LendingPosition) error {
	m.positions[position.ID] = position
	return nil
}

func (m *memDB) GetLendingPosition(ctx context.Context, borrowerID, assetSymbol string) (*model.LendingPosition, error) {
	position, ok := m.positions[model.PositionID(borrowerID, assetSymbol)]
	if !ok {
		return nil, &db.NotFoundError{Key: borrowerID, Message: "position not found"}
	}
	return position, nil
}

func (m *memDB) GetLendingPositionsByBorrower(ctx context.Context, borrowerID string) ([]*model.LendingPosition, error) {
	var positions []*model.LendingPosition
	for _, position := range m.positions {
		if position.BorrowerID == borrowerID {
			positions = append(positions, position)
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].ID < positions[j].ID })
	return positions, nil
}

func (m *memDB) GetAllLendingPositions(ctx context.Context) ([]*model.LendingPosition, error) {
	positions := make([]*model.LendingPosition, 0, len(m.positions))
	for _, position := range m.positions {
		positions = append(positions, position)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].ID < positions[j].ID })
	return positions, nil
}

func (m *memDB) GetPositionsBelowHealth(ctx context.Context, maxHealthFactor uint64, limit int64) ([]*model.LendingPosition, error) {
	var positions []*model.LendingPosition
	for _, position := range m.positions {
		if position.HealthFactor <= maxHealthFactor {
			positions = append(positions, position)
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].HealthFactor < positions[j].HealthFactor })
	if limit > 0 && int64(len(positions)) > limit {
		positions = positions[:limit]
	}
	return positions, nil
}

func (m *memDB) GetProtocolState(ctx context.Context) (*model.ProtocolState, error) {
	if m.stateErr != nil {
		return nil, m.stateErr
	}
	if m.state == nil {
		return nil, &db.NotFoundError{Key: "singleton", Message: "protocol state not found"}
	}
	return m.state, nil
}

func (m *memDB) UpsertProtocolState(ctx context.Context, state *model.ProtocolState) error {
	m.state = state
	return nil
}

func (m *memDB) CalculatePortfolioAggregates(ctx context.Context) (*db.PortfolioAggregates, error) {
	if m.aggregatesErr != nil {
		return nil, m.aggregatesErr
	}

	aggregates := &db.PortfolioAggregates{}
	perBorrower := make(map[string]uint64)
	perBorrowerAssets := make(map[string]uint64)
	for _, position := range m.positions {
		aggregates.TotalBorrowed += position.BorrowedAmount
		aggregates.TotalCollateral += position.CollateralAmount
		aggregates.PositionCount++
		perBorrower[position.BorrowerID] += position.BorrowedAmount
		perBorrowerAssets[position.BorrowerID]++
	}
	for borrowerID, borrowed := range perBorrower {
		if borrowed > aggregates.MaxBorrowerBorrowed {
			aggregates.MaxBorrowerBorrowed = borrowed
		}
		aggregates.BorrowersWithPositions++
		if perBorrowerAssets[borrowerID] > 1 {
			aggregates.MultiAssetBorrowers++
		}
	}
	return aggregates, nil
}

func (m *memDB) CalculateAssetExposure(ctx context.Context) ([]*db.AssetExposureResult, error) {
	perAsset := make(map[string]*db.AssetExposureResult)
	for _, position := range m.positions {
		entry, ok := perAsset[position.AssetSymbol]
		if !ok {
			entry = &db.AssetExposureResult{AssetSymbol: position.AssetSymbol}
			perAsset[position.AssetSymbol] = entry
		}
		entry.Collateral += position.CollateralAmount
		entry.Borrowed += position.BorrowedAmount
		entry.PositionCount++
	}

	results := make([]*db.AssetExposureResult, 0, len(perAsset))
	for _, entry := range perAsset {
		results = append(results, entry)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Collateral > results[j].Collateral })
	return results, nil
}

func (m *memDB) CountPositionsInHealthBand(ctx context.Context, maxHealthFactor uint64) (*db.HealthBandResult, error) {
	band := &db.HealthBandResult{}
	for _, position := range m.positions {
		if position.HealthFactor <= maxHealthFactor {
			band.Positions++
			band.Debt += position.BorrowedAmount
		}
	}
	return band, nil
}

func (m *memDB) CountPositionsSurvivingShock(ctx context.Context, shockPct uint64) (uint64, error) {
	if m.shockCountErr != nil {
		return 0, m.shockCountErr
	}

	var surviving uint64
	for _, position := range m.positions {
		shocked := position.CollateralAmount * (100 - shockPct) / 100
		if healthFactor(shocked, position.BorrowedAmount) > 100 {
			surviving++
		}
	}
	return surviving, nil
}

func (m *memDB) CountPositionsWithLtvBelow(ctx context.Context, maxLtv uint64) (uint64, error) {
	var count uint64
	for _, position := range m.positions {
		if position.LtvRatio < maxLtv {
			count++
		}
	}
	return count, nil
}

func (m *memDB) InsertMonitoringReport(ctx context.Context, doc *model.MonitoringReportDocument) error {
	m.reports = append(m.reports, doc)
	return nil
}

func (m *memDB) GetLatestMonitoringReport(ctx context.Context) (*model.MonitoringReportDocument, error) {
	if len(m.reports) == 0 {
		return nil, &db.NotFoundError{Key: "latest", Message: "no monitoring reports"}
	}
	return m.reports[len(m.reports)-1], nil
}

func (m *memDB) GetMonitoringReports(ctx context.Context, limit int64) ([]*model.MonitoringReportDocument, error) {
	docs := make([]*model.MonitoringReportDocument, len(m.reports))
	copy(docs, m.reports)
	for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
		docs[i], docs[j] = docs[j], docs[i]
	}
	if limit > 0 && int64(len(docs)) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// capturingConsumer records pushed events instead of delivering them.
type capturingConsumer struct {
	assessmentEvents []*queue.AssessmentEvent
	reportEvents     []*queue.MonitoringReportEvent
	emergencyEvents  []*queue.EmergencyModeEvent

	pushErr error
}

func (c *capturingConsumer) Start() error { return nil }
func (c *capturingConsumer) Stop() error  { return nil }

func (c *capturingConsumer) PushAssessmentEvent(ev *queue.AssessmentEvent) error {
	if c.pushErr != nil {
		return c.pushErr
	}
	c.assessmentEvents = append(c.assessmentEvents, ev)
	return nil
}

func (c *capturingConsumer) PushMonitoringReportEvent(ev *queue.MonitoringReportEvent) error {
	if c.pushErr != nil {
		return c.pushErr
	}
	c.reportEvents = append(c.reportEvents, ev)
	return nil
}

func (c *capturingConsumer) PushEmergencyModeEvent(ev *queue.EmergencyModeEvent) error {
	if c.pushErr != nil {
		return c.pushErr
	}
	c.emergencyEvents = append(c.emergencyEvents, ev)
	return nil
}

var _ consumer.EventConsumer = (*capturingConsumer)(nil)

func testConfig() *config.Config {
	return &config.Config{
		Poller: config.PollerConfig{
			AtRiskPositionsLimit: 10,
		},
		Risk: config.RiskConfig{
			OwnerID:                    testOwnerID,
			MonitoringInterval:         600,
			PriceFreshnessWindow:       900,
			EnableLiquidationDetection: true,
			EnableStressTesting:        true,
			EnableCorrelationAnalysis:  true,
			MonitoringIntensity:        50,
		},
	}
}

type testHarness struct {
	service  *Service
	db       *memDB
	consumer *capturingConsumer
	clock    *clock.Manual
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	metrics.Init(9998)

	store := newMemDB()
	events := &capturingConsumer{}
	clk := clock.NewManual(1_000_000)

	return &testHarness{
		service:  NewService(testConfig(), store, nil, events, clk),
		db:       store,
		consumer: events,
		clock:    clk,
	}
}
