package config

import "time"

// Kafka is optional for the standalone binary: with no addresses the outbox
// keeps accumulating and neither the relay nor the consumer is started.
type Kafka struct {
	Addresses []string `env:"KAFKA_ADDRESSES" envSeparator:","`
	Group     string   `env:"KAFKA_GROUP" envDefault:"product-catalog"`
	ClientID  string   `env:"KAFKA_CLIENT_ID" envDefault:"product-catalog"`

	// TopicPrefix namespaces every catalog topic, e.g. "staging.".
	TopicPrefix string `env:"KAFKA_TOPIC_PREFIX"`

	PingTimeout    time.Duration `env:"KAFKA_PING_TIMEOUT" envDefault:"5s"`
	ProduceTimeout time.Duration `env:"KAFKA_PRODUCE_TIMEOUT" envDefault:"10s"`
}

// Enabled reports whether any broker address is configured.
func (k Kafka) Enabled() bool {
	return len(k.Addresses) > 0
}

// Topic returns name with the configured prefix.
func (k Kafka) Topic(name string) string {
	return k.TopicPrefix + name
}
