package kafka

import (
	"testing"

	"github.com/Shopify/sarama"
	"github.com/radu9120/ZeroDue-sub000/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestGetSaramaConfig(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Kafka = config.KafkaConfig{
		Brokers:       []string{"localhost:9092"},
		ClientID:      "zerodue-test",
		UseSASL:       true,
		SASLMechanism: sarama.SASLTypePlaintext,
		SASLUser:      "user",
		SASLPassword:  "secret",
	}

	sc := GetSaramaConfig(cfg)
	assert.Equal(t, "zerodue-test", sc.ClientID)
	assert.True(t, sc.Producer.Return.Successes)
	assert.True(t, sc.Net.SASL.Enable)
	assert.True(t, sc.Net.TLS.Enable)
	assert.Equal(t, "user", sc.Net.SASL.User)
}

func TestGetSaramaConfigWithoutSASL(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Kafka.ClientID = "zerodue-test"

	sc := GetSaramaConfig(cfg)
	assert.False(t, sc.Net.SASL.Enable)
	assert.False(t, sc.Net.TLS.Enable)
}
