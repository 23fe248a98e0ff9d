package config

import (
	"errors"
	"time"
)

const defaultMonitorPollingInterval = 5 * time.Minute

type PollerConfig struct {
	MonitorPollingInterval time.Duration `mapstructure:"monitor-polling-interval"`
	AtRiskPositionsLimit   uint64        `mapstructure:"at-risk-positions-limit"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.MonitorPollingInterval <= 0 {
		cfg.MonitorPollingInterval = defaultMonitorPollingInterval
	}

	if cfg.AtRiskPositionsLimit <= 0 {
		return errors.New("at-risk-positions-limit must be positive")
	}

	return nil
}
