package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/product-catalog/internal/storage/cache"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
)

// Service consumes catalog events to keep derived state fresh.
type Service struct {
	logger     *slog.Logger
	mqConsumer mq.Consumer
	statsCache cache.StatisticsCache
}

// New creates a new event service.
func New(
	logger *slog.Logger,
	mqConsumer mq.Consumer,
	statsCache cache.StatisticsCache,
) *Service {
	return &Service{
		logger:     logger.With(slog.String("service", "event")),
		mqConsumer: mqConsumer,
		statsCache: statsCache,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	for _, topic := range ProductTopics {
		if err := s.mqConsumer.RegisterHandler(topic, s.handleProductChanged); err != nil {
			return nil, fmt.Errorf("register %s handler: %w", topic, err)
		}
	}

	if err := s.mqConsumer.RegisterHandler(TopicProductPriceChanged, s.handlePriceChanged); err != nil {
		return nil, fmt.Errorf("register %s handler: %w", TopicProductPriceChanged, err)
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	return CleanupFunc(mqCleanup), nil
}
