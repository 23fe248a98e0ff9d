package config

import (
	"fmt"
	"time"
)

type QueueConfig struct {
	QueueUser              string        `mapstructure:"queue-user"`
	QueuePassword          string        `mapstructure:"queue-password"`
	Url                    string        `mapstructure:"url"`
	QueueProcessingTimeout time.Duration `mapstructure:"processing-timeout"`
	MsgMaxRetryAttempts    int32         `mapstructure:"msg-max-retry-attempts"`
	ReQueueDelayTime       time.Duration `mapstructure:"requeue-delay-time"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.QueueUser == "" {
		return fmt.Errorf("missing queue user")
	}
	if cfg.QueuePassword == "" {
		return fmt.Errorf("missing queue password")
	}
	if cfg.Url == "" {
		return fmt.Errorf("missing queue url")
	}
	if cfg.QueueProcessingTimeout <= 0 {
		return fmt.Errorf("queue processing-timeout must be positive")
	}
	if cfg.MsgMaxRetryAttempts <= 0 {
		return fmt.Errorf("queue msg-max-retry-attempts must be positive")
	}
	if cfg.ReQueueDelayTime <= 0 {
		return fmt.Errorf("queue requeue-delay-time must be positive")
	}
	return nil
}

// AmqpURI assembles the broker connection string.
func (cfg *QueueConfig) AmqpURI() string {
	return fmt.Sprintf("amqp://%s:%s@%s", cfg.QueueUser, cfg.QueuePassword, cfg.Url)
}
