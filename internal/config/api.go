package config

import (
	"fmt"
	"net"
	"time"
)

type ApiConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle-timeout"`
}

func (cfg *ApiConfig) Validate() error {
	if ip := net.ParseIP(cfg.Host); ip == nil {
		return fmt.Errorf("invalid api host %s", cfg.Host)
	}
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return fmt.Errorf("api port must be in [1024, 65535], got %d", cfg.Port)
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("api write-timeout must be positive")
	}
	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("api read-timeout must be positive")
	}
	if cfg.IdleTimeout <= 0 {
		return fmt.Errorf("api idle-timeout must be positive")
	}
	return nil
}

func (cfg *ApiConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
