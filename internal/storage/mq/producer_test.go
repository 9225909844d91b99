package mq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

func TestProducerRecord(t *testing.T) {
	t.Run("Should prefix the topic and keep headers sorted", func(t *testing.T) {
		p := &KafkaProducer{cfg: config.Kafka{TopicPrefix: "staging."}}
		key := "42"

		rec := p.record(ProduceMsg{
			Topic:        "catalog.product.updated",
			Headers:      map[string]string{"x-correlation-id": "abc", "traceparent": "00-1"},
			Payload:      []byte(`{"id":42}`),
			PartitionKey: &key,
		})

		assert.Equal(t, "staging.catalog.product.updated", rec.Topic)
		assert.Equal(t, []byte("42"), rec.Key)
		require.Len(t, rec.Headers, 2)
		assert.Equal(t, "traceparent", rec.Headers[0].Key)
	})

	t.Run("Should leave the key empty without a partition key", func(t *testing.T) {
		rec := (&KafkaProducer{}).record(ProduceMsg{Topic: "t"})
		assert.Nil(t, rec.Key)
	})
}

func TestNewClient(t *testing.T) {
	t.Run("Should refuse an empty broker list", func(t *testing.T) {
		_, err := newClient(context.Background(), config.Kafka{})
		assert.Error(t, err)
	})
}
