package outbox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
)

func TestHeaders(t *testing.T) {
	t.Run("Should carry correlation id through record headers", func(t *testing.T) {
		ctx := correlationid.NewContext(context.Background(), "req-1")

		headers := outbox.BuildHeaders(ctx)
		rec := &kgo.Record{Headers: outbox.RecordHeaders(headers)}

		restored := outbox.ExtractContext(context.Background(), outbox.HeadersFromRecord(rec))
		id, ok := correlationid.FromContext(restored)
		assert.True(t, ok)
		assert.Equal(t, "req-1", id)
	})

	t.Run("Should sort record headers by key", func(t *testing.T) {
		got := outbox.RecordHeaders(map[string]string{"b": "2", "a": "1"})
		assert.Equal(t, []kgo.RecordHeader{
			{Key: "a", Value: []byte("1")},
			{Key: "b", Value: []byte("2")},
		}, got)
	})
}
