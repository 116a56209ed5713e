package config

import (
	"github.com/Shopify/sarama"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// EventConfig holds configuration for domain event publishing
type EventConfig struct {
	Backend types.PubSubBackend `mapstructure:"backend" validate:"omitempty,oneof=memory kafka"`
	Topic   string              `mapstructure:"topic"`
}

// KafkaConfig is only read when the event backend is kafka
type KafkaConfig struct {
	Brokers       []string             `mapstructure:"brokers"`
	ClientID      string               `mapstructure:"client_id"`
	TLS           bool                 `mapstructure:"tls"`
	UseSASL       bool                 `mapstructure:"use_sasl"`
	SASLMechanism sarama.SASLMechanism `mapstructure:"sasl_mechanism"`
	SASLUser      string               `mapstructure:"sasl_user"`
	SASLPassword  string               `mapstructure:"sasl_password"`
}
