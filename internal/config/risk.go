package config

import (
	"fmt"

	"github.com/stacklend-io/risk-engine/internal/types"
)

const (
	// Logical seconds between scheduled monitoring runs, announced to
	// callers as the next cycle time.
	defaultMonitoringInterval = 600
	// Logical seconds an asset price stays fresh for oracle contingency
	// scoring.
	defaultPriceFreshnessWindow = 900
)

// RiskConfig holds protocol-level knobs: the operator identity allowed to
// mutate reference data, and the analytic defaults for scheduled
// monitoring runs.
type RiskConfig struct {
	OwnerID                    string `mapstructure:"owner-id"`
	MonitoringInterval         uint64 `mapstructure:"monitoring-interval"`
	PriceFreshnessWindow       uint64 `mapstructure:"price-freshness-window"`
	EnableLiquidationDetection bool   `mapstructure:"enable-liquidation-detection"`
	EnableStressTesting        bool   `mapstructure:"enable-stress-testing"`
	EnableCorrelationAnalysis  bool   `mapstructure:"enable-correlation-analysis"`
	MonitoringIntensity        uint64 `mapstructure:"monitoring-intensity"`
}

func (cfg *RiskConfig) Validate() error {
	if cfg.OwnerID == "" {
		return fmt.Errorf("missing risk owner-id")
	}
	if cfg.MonitoringInterval == 0 {
		cfg.MonitoringInterval = defaultMonitoringInterval
	}
	if cfg.PriceFreshnessWindow == 0 {
		cfg.PriceFreshnessWindow = defaultPriceFreshnessWindow
	}
	return nil
}

// MonitoringOptions returns the analytic toggles scheduled runs use.
func (cfg *RiskConfig) MonitoringOptions() types.MonitoringOptions {
	return types.MonitoringOptions{
		EnableLiquidationDetection: cfg.EnableLiquidationDetection,
		EnableStressTesting:        cfg.EnableStressTesting,
		EnableCorrelationAnalysis:  cfg.EnableCorrelationAnalysis,
		MonitoringIntensity:        cfg.MonitoringIntensity,
	}
}
