package config

import (
	"fmt"
	"strings"
)

type DbConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Address  string `mapstructure:"address"`
	DbName   string `mapstructure:"db-name"`
}

func (cfg *DbConfig) Validate() error {
	if cfg.Username == "" {
		return fmt.Errorf("missing db username")
	}
	if cfg.Password == "" {
		return fmt.Errorf("missing db password")
	}
	if cfg.DbName == "" {
		return fmt.Errorf("missing db name")
	}
	if !strings.HasPrefix(cfg.Address, "mongodb://") && !strings.HasPrefix(cfg.Address, "mongodb+srv://") {
		return fmt.Errorf("invalid db address %s, expected a mongodb:// URI", cfg.Address)
	}
	return nil
}
