package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Db      DbConfig      `mapstructure:"db"`
	Oracle  *OracleConfig `mapstructure:"oracle"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Api     ApiConfig     `mapstructure:"api"`
	Poller  PollerConfig  `mapstructure:"poller"`
	Risk    RiskConfig    `mapstructure:"risk"`
}

func (cfg *Config) Validate() error {
	if err := cfg.Db.Validate(); err != nil {
		return err
	}
	// The oracle section is optional; without it the price refresh poller
	// stays off and prices arrive only through the API and the queue.
	if cfg.Oracle != nil {
		if err := cfg.Oracle.Validate(); err != nil {
			return err
		}
	}
	if err := cfg.Queue.Validate(); err != nil {
		return err
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return err
	}
	if err := cfg.Api.Validate(); err != nil {
		return err
	}
	if err := cfg.Poller.Validate(); err != nil {
		return err
	}
	if err := cfg.Risk.Validate(); err != nil {
		return err
	}
	return nil
}

// New returns the parsed and validated Config from the given yaml file.
// Environment variables override file values, with dots and dashes mapped
// to underscores (e.g. DB_DB_NAME overrides db.db-name).
func New(cfgFile string) (*Config, error) {
	viper.SetConfigFile(cfgFile)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
