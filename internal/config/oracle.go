package config

import (
	"fmt"
	"net/url"
	"time"
)

const defaultPriceRefreshInterval = 5 * time.Minute

// OracleConfig points the engine at an external price feed. The section is
// optional in Config.
type OracleConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetryTimes   uint          `mapstructure:"max-retry-times"`
	RetryInterval   time.Duration `mapstructure:"retry-interval"`
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`
}

func (cfg *OracleConfig) Validate() error {
	parsed, err := url.ParseRequestURI(cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid oracle endpoint %s: %w", cfg.Endpoint, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("oracle endpoint must be http or https, got %s", parsed.Scheme)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("oracle timeout must be positive")
	}
	if cfg.MaxRetryTimes == 0 {
		return fmt.Errorf("oracle max-retry-times must be positive")
	}
	if cfg.RetryInterval <= 0 {
		return fmt.Errorf("oracle retry-interval must be positive")
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultPriceRefreshInterval
	}
	return nil
}
