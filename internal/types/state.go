package types

// Enum values for protocol mode
type ProtocolMode string

const (
	ModeNormal    ProtocolMode = "NORMAL"
	ModeEmergency ProtocolMode = "EMERGENCY"
)

func (m ProtocolMode) String() string {
	return string(m)
}

// ShouldEnterEmergency reports whether a monitoring outcome forces the
// protocol into emergency mode.
func ShouldEnterEmergency(riskScore, aggregateLtv uint64) bool {
	return riskScore > HighRiskThreshold || aggregateLtv > MaxLtvRatio
}

// ShouldExitEmergency reports whether the protocol may leave emergency mode.
// Exit is damped: the risk score must clear the entry threshold by
// EmergencyExitMargin and aggregate LTV must be back inside the limit, so a
// score oscillating around the threshold cannot flap the mode.
func ShouldExitEmergency(riskScore, aggregateLtv uint64) bool {
	return riskScore+EmergencyExitMargin <= HighRiskThreshold && aggregateLtv <= MaxLtvRatio
}

// NextMode resolves the mode transition for a finished monitoring run.
func NextMode(current ProtocolMode, riskScore, aggregateLtv uint64) ProtocolMode {
	switch current {
	case ModeEmergency:
		if ShouldExitEmergency(riskScore, aggregateLtv) {
			return ModeNormal
		}
		return ModeEmergency
	default:
		if ShouldEnterEmergency(riskScore, aggregateLtv) {
			return ModeEmergency
		}
		return ModeNormal
	}
}

// Enum values for the report health label
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusCritical HealthStatus = "critical"
)

func (s HealthStatus) String() string {
	return string(s)
}

func HealthStatusForScore(riskScore uint64) HealthStatus {
	switch {
	case riskScore > HighRiskThreshold:
		return HealthStatusCritical
	case riskScore > DegradedRiskThreshold:
		return HealthStatusDegraded
	default:
		return HealthStatusHealthy
	}
}
