package model

import (
	"github.com/stacklend-io/risk-engine/internal/types"
)

const ProtocolStateCollection = "protocol_state"

// ProtocolState is the singleton snapshot the monitoring engine maintains.
// Nothing else writes it.
type ProtocolState struct {
	TotalBorrowed        uint64 `bson:"total_borrowed"`
	TotalCollateralValue uint64 `bson:"total_collateral_value"`
	RiskScore            uint64 `bson:"risk_score"` // Protocol risk score in [0, 100]
	EmergencyMode        bool   `bson:"emergency_mode"`
	LastMonitoredAt      uint64 `bson:"last_monitored_at"` // Logical time, 0 before the first run
	NextCycleAt          uint64 `bson:"next_cycle_at"`
}

func (s *ProtocolState) Mode() types.ProtocolMode {
	if s.EmergencyMode {
		return types.ModeEmergency
	}
	return types.ModeNormal
}
