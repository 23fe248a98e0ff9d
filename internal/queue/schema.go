package queue

// SchemaVersion is stamped into every outbound payload so downstream
// consumers can detect incompatible producers.
const SchemaVersion = 1

// Queue names. All queues are durable.
const (
	AssessmentEventsQueue  = "risk_assessment_events"
	MonitoringReportsQueue = "monitoring_report_events"
	EmergencyModeQueue     = "emergency_mode_events"
	PriceUpdatesQueue      = "price_update_events"

	priceUpdatesDelayQueue = "price_update_events_delay"
)

// AssessmentEvent reports an admitted borrowing position.
type AssessmentEvent struct {
	SchemaVersion    int    `json:"schemaVersion"`
	BorrowerID       string `json:"borrowerId"`
	AssetSymbol      string `json:"assetSymbol"`
	CollateralAmount uint64 `json:"collateralAmount"`
	BorrowedAmount   uint64 `json:"borrowedAmount"`
	RiskScore        uint64 `json:"riskScore"`
	LtvRatio         uint64 `json:"ltvRatio"`
	HealthFactor     uint64 `json:"healthFactor"`
	AssessedAt       uint64 `json:"assessedAt"`
}

func NewAssessmentEvent(
	borrowerID string,
	assetSymbol string,
	collateralAmount uint64,
	borrowedAmount uint64,
	riskScore uint64,
	ltvRatio uint64,
	healthFactor uint64,
	assessedAt uint64,
) AssessmentEvent {
	return AssessmentEvent{
		SchemaVersion:    SchemaVersion,
		BorrowerID:       borrowerID,
		AssetSymbol:      assetSymbol,
		CollateralAmount: collateralAmount,
		BorrowedAmount:   borrowedAmount,
		RiskScore:        riskScore,
		LtvRatio:         ltvRatio,
		HealthFactor:     healthFactor,
		AssessedAt:       assessedAt,
	}
}

// MonitoringReportEvent is a compact summary of a completed monitoring cycle.
// The full report lives in the store.
type MonitoringReportEvent struct {
	SchemaVersion     int    `json:"schemaVersion"`
	ProtocolRiskScore uint64 `json:"protocolRiskScore"`
	AggregateLtv      uint64 `json:"aggregateLtv"`
	TotalValueLocked  uint64 `json:"totalValueLocked"`
	SystemStatus      string `json:"systemStatus"`
	EmergencyMode     bool   `json:"emergencyMode"`
	GeneratedAt       uint64 `json:"generatedAt"`
}

func NewMonitoringReportEvent(
	protocolRiskScore uint64,
	aggregateLtv uint64,
	totalValueLocked uint64,
	systemStatus string,
	emergencyMode bool,
	generatedAt uint64,
) MonitoringReportEvent {
	return MonitoringReportEvent{
		SchemaVersion:     SchemaVersion,
		ProtocolRiskScore: protocolRiskScore,
		AggregateLtv:      aggregateLtv,
		TotalValueLocked:  totalValueLocked,
		SystemStatus:      systemStatus,
		EmergencyMode:     emergencyMode,
		GeneratedAt:       generatedAt,
	}
}

// EmergencyModeEvent marks a protocol mode transition in either direction.
type EmergencyModeEvent struct {
	SchemaVersion int    `json:"schemaVersion"`
	Active        bool   `json:"active"`
	RiskScore     uint64 `json:"riskScore"`
	AggregateLtv  uint64 `json:"aggregateLtv"`
	ChangedAt     uint64 `json:"changedAt"`
}

func NewEmergencyModeEvent(active bool, riskScore, aggregateLtv, changedAt uint64) EmergencyModeEvent {
	return EmergencyModeEvent{
		SchemaVersion: SchemaVersion,
		Active:        active,
		RiskScore:     riskScore,
		AggregateLtv:  aggregateLtv,
		ChangedAt:     changedAt,
	}
}

// PriceUpdateEvent is consumed from upstream feed publishers.
type PriceUpdateEvent struct {
	SchemaVersion int    `json:"schemaVersion"`
	Symbol        string `json:"symbol"`
	Price         uint64 `json:"price"`
	Volatility    uint64 `json:"volatility"`
	UpdatedAt     uint64 `json:"updatedAt"`
}
