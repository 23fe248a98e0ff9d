package services

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/stacklend-io/risk-engine/internal/db"
	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/observability/metrics"
	"github.com/stacklend-io/risk-engine/internal/types"
)

// Stress shock severities and derived-flag thresholds.
const (
	severeCrashPct     = 50
	flashCrashPct      = 30
	contractHaircutPct = 25
	lowLtvBound        = 40

	atRiskActivationCount  = 20
	reserveAdequacyFloor   = 120
	utilizationCeiling     = 75
	marketDepthFloor       = 70
	concentrationCeiling   = 40
	incentiveFloor         = 80
	oracleContingencyFloor = 85
	correlationCeiling     = 60
	cascadeCeiling         = 25
)

// monitorInputs is the consistent read set one monitoring cycle works from.
type monitorInputs struct {
	totalBorrowed          uint64
	totalCollateral        uint64
	positionCount          uint64
	maxBorrowerBorrowed    uint64
	borrowersWithPositions uint64
	multiAssetBorrowers    uint64

	assets []*model.CollateralAsset

	assetCount          uint64
	avgVolatility       uint64
	avgLiquidity        uint64
	freshAssetCount     uint64
	highVolAssetCount   uint64
	maxAssetCollateral  uint64
	penalizedCollateral uint64
}

// ExecuteRiskMonitoring runs one protocol-wide monitoring cycle: aggregate
// the stored portfolio, compute the enabled analytic blocks, resolve the
// protocol mode, persist state and report, and emit events. It has no
// domain failure mode; optional blocks degrade to absent on error.
func (s *Service) ExecuteRiskMonitoring(
	ctx context.Context, opts types.MonitoringOptions,
) (*types.MonitoringReport, *types.Error) {
	startTime := time.Now()
	report, err := s.runMonitoringCycle(ctx, opts)
	metrics.RecordMonitoringRunDuration(time.Since(startTime), err != nil)
	return report, err
}

func (s *Service) runMonitoringCycle(
	ctx context.Context, opts types.MonitoringOptions,
) (*types.MonitoringReport, *types.Error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	inputs, verr := s.collectMonitorInputs(ctx)
	if verr != nil {
		return nil, verr
	}

	indicators := buildIndicators(inputs)
	liquidation, stress, correlation := s.computeOptionalBlocks(ctx, opts, inputs, indicators)

	riskScore := protocolRiskScore(indicators.AggregateLtv, liquidation, correlation)

	currentState, verr := s.currentProtocolState(ctx)
	if verr != nil {
		return nil, verr
	}
	nextMode := types.NextMode(currentState.Mode(), riskScore, indicators.AggregateLtv)
	emergencyMode := nextMode == types.ModeEmergency

	now := s.clock.Now()
	nextCycle := now + s.cfg.Risk.MonitoringInterval

	report := &types.MonitoringReport{
		MonitoringComplete:     true,
		ProtocolRiskLevel:      riskScore,
		EmergencyActionsNeeded: riskScore > types.HighRiskThreshold,
		NextCycleTime:          nextCycle,
		SystemStatus:           types.HealthStatusForScore(riskScore),
		MonitoringIntensity:    opts.MonitoringIntensity,
		Indicators:             indicators,
		Liquidation:            liquidation,
		Stress:                 stress,
		Correlation:            correlation,
		Actions:                deriveActions(indicators, liquidation),
		Recommendations:        deriveRecommendations(indicators, liquidation, stress, correlation),
	}

	state := &model.ProtocolState{
		TotalBorrowed:        inputs.totalBorrowed,
		TotalCollateralValue: inputs.totalCollateral,
		RiskScore:            riskScore,
		EmergencyMode:        emergencyMode,
		LastMonitoredAt:      now,
		NextCycleAt:          nextCycle,
	}
	if err := s.db.UpsertProtocolState(ctx, state); err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to upsert protocol state: %w", err),
		)
	}

	if err := s.db.InsertMonitoringReport(ctx, model.NewMonitoringReportDocument(*report, now)); err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to insert monitoring report: %w", err),
		)
	}

	metrics.RecordProtocolRiskSnapshot(riskScore, indicators.AggregateLtv, indicators.TotalValueLocked, emergencyMode)
	if liquidation != nil {
		metrics.RecordAtRiskPositionsCount(liquidation.AtRiskPositions)
	}

	if emergencyMode != currentState.EmergencyMode {
		log.Ctx(ctx).Warn().
			Bool("emergency_mode", emergencyMode).
			Uint64("risk_score", riskScore).
			Uint64("aggregate_ltv", indicators.AggregateLtv).
			Msg("Protocol mode transition")

		if verr := s.emitEmergencyModeEvent(ctx, emergencyMode, riskScore, indicators.AggregateLtv, now); verr != nil {
			return nil, verr
		}
	}

	if verr := s.emitMonitoringReportEvent(ctx, report, emergencyMode, now); verr != nil {
		return nil, verr
	}

	return report, nil
}

func (s *Service) collectMonitorInputs(ctx context.Context) (*monitorInputs, *types.Error) {
	aggregates, err := s.db.CalculatePortfolioAggregates(ctx)
	if err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to calculate portfolio aggregates: %w", err),
		)
	}

	assets, err := s.db.GetAllCollateralAssets(ctx)
	if err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to list collateral assets: %w", err),
		)
	}

	exposure, err := s.db.CalculateAssetExposure(ctx)
	if err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to calculate asset exposure: %w", err),
		)
	}

	inputs := &monitorInputs{
		totalBorrowed:          aggregates.TotalBorrowed,
		totalCollateral:        aggregates.TotalCollateral,
		positionCount:          aggregates.PositionCount,
		maxBorrowerBorrowed:    aggregates.MaxBorrowerBorrowed,
		borrowersWithPositions: aggregates.BorrowersWithPositions,
		multiAssetBorrowers:    aggregates.MultiAssetBorrowers,
		assets:                 assets,
		assetCount:             uint64(len(assets)),
		avgLiquidity:           100,
	}

	now := s.clock.Now()
	freshness := s.cfg.Risk.PriceFreshnessWindow

	if len(assets) > 0 {
		volSum := sdkmath.ZeroInt()
		liqSum := sdkmath.ZeroInt()
		for _, asset := range assets {
			volSum = volSum.Add(sdkmath.NewIntFromUint64(asset.Volatility))
			liqSum = liqSum.Add(sdkmath.NewIntFromUint64(asset.LiquidityScore))
			if asset.Volatility > types.VolatilityLimit {
				inputs.highVolAssetCount++
			}
			if asset.LastUpdatedAt+freshness >= now {
				inputs.freshAssetCount++
			}
		}
		count := sdkmath.NewInt(int64(len(assets)))
		inputs.avgVolatility = clampUint64(volSum.Quo(count))
		inputs.avgLiquidity = clampUint64(liqSum.Quo(count))
	}

	riskWeights := make(map[string]uint64, len(assets))
	for _, asset := range assets {
		riskWeights[asset.Symbol] = asset.RiskWeight
	}

	penalized := sdkmath.ZeroInt()
	for _, entry := range exposure {
		if entry.Collateral > inputs.maxAssetCollateral {
			inputs.maxAssetCollateral = entry.Collateral
		}
		if riskWeights[entry.AssetSymbol] == types.PenalizedRiskWeight {
			penalized = penalized.Add(sdkmath.NewIntFromUint64(entry.Collateral))
		}
	}
	inputs.penalizedCollateral = clampUint64(penalized)

	return inputs, nil
}

func buildIndicators(inputs *monitorInputs) types.SystemicRiskIndicators {
	aggregateLtv := pctOf(inputs.totalBorrowed, inputs.totalCollateral)

	borrowerDiversification := uint64(100)
	if inputs.totalBorrowed > 0 {
		borrowerDiversification = 100 - pctOf(inputs.maxBorrowerBorrowed, inputs.totalBorrowed)
	}

	reserveAdequacy := uint64(types.MaxHealthFactor)
	if inputs.totalBorrowed > 0 {
		reserveAdequacy = pctOf(inputs.totalCollateral, inputs.totalBorrowed)
	}

	utilizationRate := capAt(clampUint64(
		sdkmath.NewIntFromUint64(aggregateLtv).MulRaw(100).QuoRaw(types.MaxLtvRatio),
	), 100)

	return types.SystemicRiskIndicators{
		TotalValueLocked:        inputs.totalCollateral,
		AggregateLtv:            aggregateLtv,
		LiquidationBufferRatio:  healthFactor(inputs.totalCollateral, inputs.totalBorrowed),
		MarketDepthScore:        inputs.avgLiquidity,
		CollateralConcentration: pctOf(inputs.maxAssetCollateral, inputs.totalCollateral),
		BorrowerDiversification: borrowerDiversification,
		ProtocolUtilizationRate: utilizationRate,
		ReserveAdequacyRatio:    reserveAdequacy,
	}
}

// computeOptionalBlocks fans the enabled blocks out concurrently. Each block
// writes a distinct slot, so no further synchronization is needed beyond
// Wait.
func (s *Service) computeOptionalBlocks(
	ctx context.Context,
	opts types.MonitoringOptions,
	inputs *monitorInputs,
	indicators types.SystemicRiskIndicators,
) (*types.LiquidationMonitoring, *types.StressTestingScenarios, *types.CorrelationRiskMatrix) {
	var (
		liquidation *types.LiquidationMonitoring
		stress      *types.StressTestingScenarios
		correlation *types.CorrelationRiskMatrix
	)

	var wg conc.WaitGroup
	if opts.EnableLiquidationDetection {
		wg.Go(func() {
			block, err := s.buildLiquidationMonitoring(ctx, inputs, indicators)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("Liquidation monitoring failed - omitting block")
				return
			}
			liquidation = block
		})
	}
	if opts.EnableStressTesting {
		wg.Go(func() {
			block, err := s.buildStressScenarios(ctx, inputs, indicators)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("Stress testing failed - omitting block")
				return
			}
			stress = block
		})
	}
	if opts.EnableCorrelationAnalysis {
		wg.Go(func() {
			correlation = buildCorrelationMatrix(inputs, indicators)
		})
	}
	wg.Wait()

	return liquidation, stress, correlation
}

func (s *Service) buildLiquidationMonitoring(
	ctx context.Context,
	inputs *monitorInputs,
	indicators types.SystemicRiskIndicators,
) (*types.LiquidationMonitoring, error) {
	band, err := s.db.CountPositionsInHealthBand(ctx, types.AtRiskHealthBand)
	if err != nil {
		return nil, fmt.Errorf("failed to count at-risk positions: %w", err)
	}

	atRisk := band.Positions
	predictedVolume := band.Debt

	cascadeProbability := capAt(pctOf(predictedVolume, inputs.totalCollateral), 100)

	capacity := uint64(100)
	if predictedVolume > 0 {
		headroom := uint64(1)
		if inputs.totalCollateral > inputs.totalBorrowed {
			headroom = inputs.totalCollateral - inputs.totalBorrowed
		}
		capacity = 100 - capAt(pctOf(predictedVolume, headroom), 100)
	}

	botReadiness := uint64(0)
	if atRisk < 50 {
		botReadiness = 100 - atRisk*2
	}

	marketImpact := pctOf(predictedVolume, inputs.totalBorrowed)

	slippageBuffer := uint64(0)
	if indicators.MarketDepthScore > marketImpact {
		slippageBuffer = indicators.MarketDepthScore - marketImpact
	}

	incentiveAdequacy := uint64(100)
	if inputs.assetCount > 0 {
		incentiveAdequacy = 0
		if inputs.avgVolatility < 100 {
			incentiveAdequacy = 100 - inputs.avgVolatility
		}
	}

	s.logWorstPositions(ctx, atRisk)

	return &types.LiquidationMonitoring{
		AtRiskPositions:              atRisk,
		PredictedLiquidationVolume:   predictedVolume,
		CascadeProbability:           cascadeProbability,
		EmergencyLiquidationCapacity: capacity,
		LiquidatorBotReadiness:       botReadiness,
		MarketImpactAssessment:       marketImpact,
		SlippageBuffer:               slippageBuffer,
		IncentiveAdequacy:            incentiveAdequacy,
	}, nil
}

func (s *Service) logWorstPositions(ctx context.Context, atRisk uint64) {
	if atRisk == 0 {
		return
	}

	positions, err := s.db.GetPositionsBelowHealth(
		ctx, types.AtRiskHealthBand, int64(s.cfg.Poller.AtRiskPositionsLimit),
	)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to list at-risk positions")
		return
	}

	for _, position := range positions {
		log.Ctx(ctx).Debug().
			Str("borrower_id", position.BorrowerID).
			Str("asset_symbol", position.AssetSymbol).
			Uint64("health_factor", position.HealthFactor).
			Uint64("borrowed_amount", position.BorrowedAmount).
			Msg("Position inside liquidation band")
	}
}

func (s *Service) buildStressScenarios(
	ctx context.Context,
	inputs *monitorInputs,
	indicators types.SystemicRiskIndicators,
) (*types.StressTestingScenarios, error) {
	survival50, err := s.survivingShare(ctx, inputs.positionCount, severeCrashPct)
	if err != nil {
		return nil, err
	}
	survival30, err := s.survivingShare(ctx, inputs.positionCount, flashCrashPct)
	if err != nil {
		return nil, err
	}
	survival25, err := s.survivingShare(ctx, inputs.positionCount, contractHaircutPct)
	if err != nil {
		return nil, err
	}

	lowLtvShare := uint64(100)
	if inputs.positionCount > 0 {
		lowLtvCount, err := s.db.CountPositionsWithLtvBelow(ctx, lowLtvBound)
		if err != nil {
			return nil, fmt.Errorf("failed to count low-ltv positions: %w", err)
		}
		lowLtvShare = pctOf(lowLtvCount, inputs.positionCount)
	}

	oracleContingency := uint64(100)
	if inputs.assetCount > 0 {
		oracleContingency = pctOf(inputs.freshAssetCount, inputs.assetCount)
	}

	return &types.StressTestingScenarios{
		SurvivalRate:                survival50,
		FlashCrashResilience:        survival30,
		LiquidityCrisisPreparedness: (indicators.MarketDepthScore + capAt(indicators.ReserveAdequacyRatio, 100)) / 2,
		CorrelationBreakdownImpact:  capAt(indicators.CollateralConcentration+inputs.avgVolatility/2, 100),
		OracleFailureContingency:    oracleContingency,
		GovernanceAttackResistance:  (indicators.BorrowerDiversification + (100 - indicators.CollateralConcentration)) / 2,
		ContractRiskCoverage:        survival25,
		RegulatoryShockAdaptation:   lowLtvShare,
	}, nil
}

func (s *Service) survivingShare(ctx context.Context, positionCount, shockPct uint64) (uint64, error) {
	if positionCount == 0 {
		return 100, nil
	}

	surviving, err := s.db.CountPositionsSurvivingShock(ctx, shockPct)
	if err != nil {
		return 0, fmt.Errorf("failed to count positions surviving %d%% shock: %w", shockPct, err)
	}
	return pctOf(surviving, positionCount), nil
}

func buildCorrelationMatrix(
	inputs *monitorInputs,
	indicators types.SystemicRiskIndicators,
) *types.CorrelationRiskMatrix {
	avgCorr := averagePairCorrelation(inputs.assets)

	regimeStability := uint64(0)
	if inputs.avgVolatility < 50 {
		regimeStability = 100 - 2*inputs.avgVolatility
	}

	clusteringRisk := uint64(0)
	if inputs.assetCount > 0 {
		clusteringRisk = pctOf(inputs.highVolAssetCount, inputs.assetCount)
	}

	shockPropagation := clampUint64(
		sdkmath.NewIntFromUint64(avgCorr).
			Add(sdkmath.NewIntFromUint64(indicators.AggregateLtv)).
			QuoRaw(2),
	)

	return &types.CorrelationRiskMatrix{
		AverageInterAssetCorrelation: avgCorr,
		ContagionRiskScore:           avgCorr * indicators.CollateralConcentration / 100,
		DiversificationEffectiveness: (100 - indicators.CollateralConcentration) * (100 - avgCorr) / 100,
		SystemicShockPropagation:     shockPropagation,
		CrossCollateralDependency:    pctOf(inputs.multiAssetBorrowers, inputs.borrowersWithPositions),
		MarketRegimeStability:        regimeStability,
		VolatilityClusteringRisk:     clusteringRisk,
		TailRiskExposure:             pctOf(inputs.penalizedCollateral, inputs.totalCollateral),
	}
}

// averagePairCorrelation proxies co-movement by volatility distance over
// all distinct asset pairs: similar volatility reads as correlated.
func averagePairCorrelation(assets []*model.CollateralAsset) uint64 {
	if len(assets) < 2 {
		return 0
	}

	var sum, pairs uint64
	for i := 0; i < len(assets); i++ {
		for j := i + 1; j < len(assets); j++ {
			sum += pairCorrelation(assets[i].Volatility, assets[j].Volatility)
			pairs++
		}
	}
	return sum / pairs
}

func pairCorrelation(volA, volB uint64) uint64 {
	diff := volA - volB
	if volB > volA {
		diff = volB - volA
	}
	if diff >= 100 {
		return 0
	}
	return 100 - diff
}

// protocolRiskScore averages the included block terms; the divisor tracks
// which optional terms actually contributed. The result clamps at 100 to
// keep the score inside its domain when aggregate LTV exceeds it.
func protocolRiskScore(
	aggregateLtv uint64,
	liquidation *types.LiquidationMonitoring,
	correlation *types.CorrelationRiskMatrix,
) uint64 {
	sum := sdkmath.NewIntFromUint64(aggregateLtv)
	terms := int64(1)

	if liquidation != nil {
		sum = sum.Add(sdkmath.NewIntFromUint64(liquidation.CascadeProbability))
		terms++
	}
	if correlation != nil {
		sum = sum.Add(sdkmath.NewIntFromUint64(correlation.ContagionRiskScore))
		terms++
	}

	return capAt(clampUint64(sum.QuoRaw(terms)), 100)
}

func deriveActions(
	indicators types.SystemicRiskIndicators,
	liquidation *types.LiquidationMonitoring,
) types.AutomatedActions {
	actions := types.AutomatedActions{
		EmergencyModeTrigger:       indicators.AggregateLtv > types.MaxLtvRatio,
		ReserveRebalancingNeeded:   indicators.ReserveAdequacyRatio < reserveAdequacyFloor,
		RiskParameterAdjustment:    indicators.ProtocolUtilizationRate > utilizationCeiling,
		MarketMakerIncentiveNeeded: indicators.MarketDepthScore < marketDepthFloor,
	}
	if liquidation != nil {
		actions.LiquidationBotActivation = liquidation.AtRiskPositions > atRiskActivationCount
	}
	return actions
}

func deriveRecommendations(
	indicators types.SystemicRiskIndicators,
	liquidation *types.LiquidationMonitoring,
	stress *types.StressTestingScenarios,
	correlation *types.CorrelationRiskMatrix,
) types.RiskRecommendations {
	recommendations := types.RiskRecommendations{
		DiversifyCollateral: indicators.CollateralConcentration > concentrationCeiling,
	}
	if liquidation != nil {
		recommendations.IncreaseLiquidationIncentives = liquidation.IncentiveAdequacy < incentiveFloor
		recommendations.PrepareEmergencyProcedures = liquidation.CascadeProbability > cascadeCeiling
	}
	if stress != nil {
		recommendations.StrengthenOracleRedundancy = stress.OracleFailureContingency < oracleContingencyFloor
	}
	if correlation != nil {
		recommendations.StrengthenCorrelationMonitoring = correlation.AverageInterAssetCorrelation > correlationCeiling
	}
	return recommendations
}

func (s *Service) currentProtocolState(ctx context.Context) (*model.ProtocolState, *types.Error) {
	state, err := s.db.GetProtocolState(ctx)
	if err != nil {
		if db.IsNotFoundError(err) {
			// Before the first cycle the protocol is trivially in normal
			// mode with zero exposure.
			return &model.ProtocolState{}, nil
		}
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to get protocol state: %w", err),
		)
	}
	return state, nil
}

// pctOf is part*100/whole with truncation, 0 when whole is 0.
func pctOf(part, whole uint64) uint64 {
	if whole == 0 {
		return 0
	}
	return clampUint64(
		sdkmath.NewIntFromUint64(part).MulRaw(100).Quo(sdkmath.NewIntFromUint64(whole)),
	)
}

func capAt(v, ceiling uint64) uint64 {
	if v > ceiling {
		return ceiling
	}
	return v
}
