package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/codes"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
)

// HandlerFunc handles one record. topic is the unprefixed catalog topic name.
type HandlerFunc func(ctx context.Context, topic string, payload []byte) error

type CleanupFunc func()

type Consumer interface {
	RegisterHandler(topic string, handler HandlerFunc) error
	Run(ctx context.Context) (CleanupFunc, error)
}

var _ Consumer = (*KafkaConsumer)(nil)

// KafkaConsumer dispatches records to handlers by topic and commits offsets
// after each polled batch. A failing handler is logged and does not block the
// partition.
type KafkaConsumer struct {
	cl       *kgo.Client
	cfg      config.Kafka
	handlers map[string]HandlerFunc
	log      *slog.Logger
}

func NewKafkaConsumer(ctx context.Context, cfg config.Kafka, logger *slog.Logger) (*KafkaConsumer, error) {
	cl, err := newClient(ctx, cfg,
		kgo.ConsumerGroup(cfg.Group),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, err
	}

	return &KafkaConsumer{
		cl:       cl,
		cfg:      cfg,
		handlers: make(map[string]HandlerFunc),
		log:      logger.With(slog.String("component", "kafka_consumer")),
	}, nil
}

// RegisterHandler must be called before Run.
func (c *KafkaConsumer) RegisterHandler(topic string, handler HandlerFunc) error {
	if _, exists := c.handlers[topic]; exists {
		return fmt.Errorf("handler for topic %s already registered", topic)
	}

	c.cl.AddConsumeTopics(c.cfg.Topic(topic))
	c.handlers[topic] = handler
	return nil
}

func (c *KafkaConsumer) Run(ctx context.Context) (CleanupFunc, error) {
	if len(c.handlers) == 0 {
		return nil, errors.New("no handlers registered")
	}

	ctx, cancel := context.WithCancel(ctx)
	doneChan := make(chan struct{})

	go func() {
		defer close(doneChan)
		for ctx.Err() == nil {
			c.poll(ctx)
		}
	}()

	cleanup := func() {
		cancel()
		c.cl.Close()
		<-doneChan
	}

	return cleanup, nil
}

func (c *KafkaConsumer) poll(ctx context.Context) {
	fetches := c.cl.PollFetches(ctx)
	if fetches.IsClientClosed() {
		return
	}

	fetches.EachError(func(topic string, partition int32, err error) {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.log.ErrorContext(ctx, "error fetching messages",
			slog.String("topic", topic),
			slog.Int("partition", int(partition)),
			slog.Any("error", err),
		)
	})

	fetches.EachRecord(func(rec *kgo.Record) {
		c.handle(ctx, rec)
	})

	if err := c.cl.CommitUncommittedOffsets(ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.log.ErrorContext(ctx, "error committing offsets", slog.Any("error", err))
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, rec *kgo.Record) {
	if rec.Context != nil {
		ctx = rec.Context
	}
	rec.Context = outbox.ExtractContext(ctx, outbox.HeadersFromRecord(rec))

	ctx, span := kTracer.WithProcessSpan(rec)
	defer span.End()

	topic := strings.TrimPrefix(rec.Topic, c.cfg.TopicPrefix)
	logger := c.log.With(
		slog.String("topic", topic),
		slog.String("key", string(rec.Key)),
		slog.Int64("offset", rec.Offset),
	)

	defer func() {
		if rvr := recover(); rvr != nil {
			span.RecordError(fmt.Errorf("panic: %v", rvr))
			span.SetStatus(codes.Error, "panic in handler")
			logger.ErrorContext(ctx, "panic in message handler",
				slog.Any("recover", rvr),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	fn, exists := c.handlers[topic]
	if !exists {
		logger.WarnContext(ctx, "no handler registered for topic")
		return
	}

	if err := fn(ctx, topic, rec.Value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
		logger.ErrorContext(ctx, "error handling message", slog.Any("error", err))
	}
}

func (c *KafkaConsumer) Close() {
	c.cl.Close()
}
