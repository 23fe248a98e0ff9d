package types

// Protocol risk parameters. Percent values are expressed as integers in
// [0, 100] and all derived ratios use truncating integer division.
const (
	// MaxLtvRatio is the highest admissible loan-to-value percent.
	MaxLtvRatio = 80
	// LiquidationThreshold is the collateral fraction counted toward
	// solvency when computing health factors.
	LiquidationThreshold = 85
	// VolatilityLimit is the volatility percent above which an asset is
	// classified as high risk.
	VolatilityLimit = 30
	// HighRiskThreshold is the protocol risk score above which emergency
	// mode engages.
	HighRiskThreshold = 75

	// DegradedRiskThreshold separates "healthy" from "degraded" reports.
	DegradedRiskThreshold = 50
	// EmergencyExitMargin is how far below HighRiskThreshold the risk score
	// must fall before emergency mode may clear.
	EmergencyExitMargin = 5

	// MaxHealthFactor is the sentinel health factor for debt-free positions.
	MaxHealthFactor = 999
	// NeutralCreditScore is assigned to borrowers without a profile and to
	// freshly registered profiles.
	NeutralCreditScore = 50
	// BaseCreditScore is the starting point of the credit score formula.
	BaseCreditScore = 100
	// DefaultPenalty is the credit score deduction per recorded default.
	DefaultPenalty = 10

	// NeutralVolatilityRisk is the classification for unknown assets.
	NeutralVolatilityRisk = 50
	// HighVolatilityRisk is the classification for assets above
	// VolatilityLimit.
	HighVolatilityRisk = 100

	// BaseRiskWeight applies to assets at or below VolatilityLimit,
	// PenalizedRiskWeight above it.
	BaseRiskWeight      = 100
	PenalizedRiskWeight = 150
	// ResetLiquidityScore is the liquidity score every price update
	// re-establishes.
	ResetLiquidityScore = 80

	// AtRiskHealthBand is the health factor at or below which a position
	// counts as liquidation-eligible for monitoring purposes.
	AtRiskHealthBand = 120
)

// MonitoringOptions selects the optional analytic blocks of a monitoring
// run. Intensity is carried through to the report but does not change any
// computation.
type MonitoringOptions struct {
	EnableLiquidationDetection bool   `json:"enableLiquidationDetection"`
	EnableStressTesting        bool   `json:"enableStressTesting"`
	EnableCorrelationAnalysis  bool   `json:"enableCorrelationAnalysis"`
	MonitoringIntensity        uint64 `json:"monitoringIntensity"`
}

// AssessmentResult is the outcome of an approved borrowing risk assessment.
type AssessmentResult struct {
	RiskScore    uint64 `json:"riskScore"`
	LtvRatio     uint64 `json:"ltvRatio"`
	HealthFactor uint64 `json:"healthFactor"`
	Approved     bool   `json:"approved"`
}

// SystemicRiskIndicators is the always-on block of a monitoring report.
type SystemicRiskIndicators struct {
	TotalValueLocked        uint64 `json:"totalValueLocked" bson:"total_value_locked"`
	AggregateLtv            uint64 `json:"aggregateLtv" bson:"aggregate_ltv"`
	LiquidationBufferRatio  uint64 `json:"liquidationBufferRatio" bson:"liquidation_buffer_ratio"`
	MarketDepthScore        uint64 `json:"marketDepthScore" bson:"market_depth_score"`
	CollateralConcentration uint64 `json:"collateralConcentration" bson:"collateral_concentration"`
	BorrowerDiversification uint64 `json:"borrowerDiversification" bson:"borrower_diversification"`
	ProtocolUtilizationRate uint64 `json:"protocolUtilizationRate" bson:"protocol_utilization_rate"`
	ReserveAdequacyRatio    uint64 `json:"reserveAdequacyRatio" bson:"reserve_adequacy_ratio"`
}

type LiquidationMonitoring struct {
	AtRiskPositions              uint64 `json:"atRiskPositions" bson:"at_risk_positions"`
	PredictedLiquidationVolume   uint64 `json:"predictedLiquidationVolume" bson:"predicted_liquidation_volume"`
	CascadeProbability           uint64 `json:"cascadeProbability" bson:"cascade_probability"`
	EmergencyLiquidationCapacity uint64 `json:"emergencyLiquidationCapacity" bson:"emergency_liquidation_capacity"`
	LiquidatorBotReadiness       uint64 `json:"liquidatorBotReadiness" bson:"liquidator_bot_readiness"`
	MarketImpactAssessment       uint64 `json:"marketImpactAssessment" bson:"market_impact_assessment"`
	SlippageBuffer               uint64 `json:"slippageBuffer" bson:"slippage_buffer"`
	IncentiveAdequacy            uint64 `json:"incentiveAdequacy" bson:"incentive_adequacy"`
}

type StressTestingScenarios struct {
	SurvivalRate                uint64 `json:"survivalRate" bson:"survival_rate"`
	FlashCrashResilience        uint64 `json:"flashCrashResilience" bson:"flash_crash_resilience"`
	LiquidityCrisisPreparedness uint64 `json:"liquidityCrisisPreparedness" bson:"liquidity_crisis_preparedness"`
	CorrelationBreakdownImpact  uint64 `json:"correlationBreakdownImpact" bson:"correlation_breakdown_impact"`
	OracleFailureContingency    uint64 `json:"oracleFailureContingency" bson:"oracle_failure_contingency"`
	GovernanceAttackResistance  uint64 `json:"governanceAttackResistance" bson:"governance_attack_resistance"`
	ContractRiskCoverage        uint64 `json:"contractRiskCoverage" bson:"contract_risk_coverage"`
	RegulatoryShockAdaptation   uint64 `json:"regulatoryShockAdaptation" bson:"regulatory_shock_adaptation"`
}

type CorrelationRiskMatrix struct {
	AverageInterAssetCorrelation uint64 `json:"averageInterAssetCorrelation" bson:"average_inter_asset_correlation"`
	ContagionRiskScore           uint64 `json:"contagionRiskScore" bson:"contagion_risk_score"`
	DiversificationEffectiveness uint64 `json:"diversificationEffectiveness" bson:"diversification_effectiveness"`
	SystemicShockPropagation     uint64 `json:"systemicShockPropagation" bson:"systemic_shock_propagation"`
	CrossCollateralDependency    uint64 `json:"crossCollateralDependency" bson:"cross_collateral_dependency"`
	MarketRegimeStability        uint64 `json:"marketRegimeStability" bson:"market_regime_stability"`
	VolatilityClusteringRisk     uint64 `json:"volatilityClusteringRisk" bson:"volatility_clustering_risk"`
	TailRiskExposure             uint64 `json:"tailRiskExposure" bson:"tail_risk_exposure"`
}

// AutomatedActions are the operational switches a monitoring run derives
// from its aggregates. A flag whose source block is disabled stays false.
type AutomatedActions struct {
	EmergencyModeTrigger       bool `json:"emergencyModeTrigger" bson:"emergency_mode_trigger"`
	LiquidationBotActivation   bool `json:"liquidationBotActivation" bson:"liquidation_bot_activation"`
	ReserveRebalancingNeeded   bool `json:"reserveRebalancingNeeded" bson:"reserve_rebalancing_needed"`
	RiskParameterAdjustment    bool `json:"riskParameterAdjustment" bson:"risk_parameter_adjustment"`
	MarketMakerIncentiveNeeded bool `json:"marketMakerIncentiveNeeded" bson:"market_maker_incentive_needed"`
}

type RiskRecommendations struct {
	DiversifyCollateral             bool `json:"diversifyCollateral" bson:"diversify_collateral"`
	IncreaseLiquidationIncentives   bool `json:"increaseLiquidationIncentives" bson:"increase_liquidation_incentives"`
	StrengthenOracleRedundancy      bool `json:"strengthenOracleRedundancy" bson:"strengthen_oracle_redundancy"`
	StrengthenCorrelationMonitoring bool `json:"strengthenCorrelationMonitoring" bson:"strengthen_correlation_monitoring"`
	PrepareEmergencyProcedures      bool `json:"prepareEmergencyProcedures" bson:"prepare_emergency_procedures"`
}

// MonitoringReport is the full outcome of one monitoring engine run.
// Optional blocks are nil when their toggle was off.
type MonitoringReport struct {
	MonitoringComplete     bool                    `json:"monitoringComplete" bson:"monitoring_complete"`
	ProtocolRiskLevel      uint64                  `json:"protocolRiskLevel" bson:"protocol_risk_level"`
	EmergencyActionsNeeded bool                    `json:"emergencyActionsNeeded" bson:"emergency_actions_needed"`
	NextCycleTime          uint64                  `json:"nextCycleTime" bson:"next_cycle_time"`
	SystemStatus           HealthStatus            `json:"systemStatus" bson:"system_status"`
	MonitoringIntensity    uint64                  `json:"monitoringIntensity" bson:"monitoring_intensity"`
	Indicators             SystemicRiskIndicators  `json:"systemicRiskIndicators" bson:"systemic_risk_indicators"`
	Liquidation            *LiquidationMonitoring  `json:"liquidationMonitoring,omitempty" bson:"liquidation_monitoring,omitempty"`
	Stress                 *StressTestingScenarios `json:"stressTestingScenarios,omitempty" bson:"stress_testing_scenarios,omitempty"`
	Correlation            *CorrelationRiskMatrix  `json:"correlationRiskMatrix,omitempty" bson:"correlation_risk_matrix,omitempty"`
	Actions                AutomatedActions        `json:"automatedActions" bson:"automated_actions"`
	Recommendations        RiskRecommendations     `json:"riskMitigationRecommendations" bson:"risk_mitigation_recommendations"`
}
