package mq

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
)

// ProduceMsg is one outbox message on its way to the broker. Topic is the
// unprefixed catalog topic name.
type ProduceMsg struct {
	Topic        string
	Headers      map[string]string
	Payload      []byte
	PartitionKey *string
}

type Producer interface {
	Produce(ctx context.Context, msg ProduceMsg) error
}

var _ Producer = (*KafkaProducer)(nil)

type KafkaProducer struct {
	cl  *kgo.Client
	cfg config.Kafka
}

func NewKafkaProducer(ctx context.Context, cfg config.Kafka) (*KafkaProducer, error) {
	cl, err := newClient(ctx, cfg,
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
	)
	if err != nil {
		return nil, err
	}

	return &KafkaProducer{cl: cl, cfg: cfg}, nil
}

// Produce blocks until every in-sync replica acknowledged msg or the produce
// timeout elapsed. Messages sharing a partition key keep their order.
func (p *KafkaProducer) Produce(ctx context.Context, msg ProduceMsg) error {
	record := p.record(msg)

	ctx, span := tracer.Start(ctx, "KafkaProducer.Produce",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", record.Topic),
			attribute.Int("messaging.message.body.size", len(record.Value)),
		),
	)
	defer span.End()

	if p.cfg.ProduceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ProduceTimeout)
		defer cancel()
	}

	if err := p.cl.ProduceSync(ctx, record).FirstErr(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to produce message")
		return fmt.Errorf("produce to %s: %w", record.Topic, err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (p *KafkaProducer) Close() {
	p.cl.Close()
}

func (p *KafkaProducer) record(msg ProduceMsg) *kgo.Record {
	r := &kgo.Record{
		Topic:   p.cfg.Topic(msg.Topic),
		Value:   msg.Payload,
		Headers: outbox.RecordHeaders(msg.Headers),
	}
	if msg.PartitionKey != nil {
		r.Key = []byte(*msg.PartitionKey)
	}

	return r
}
