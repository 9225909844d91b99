package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

func (s *Service) handleProductChanged(ctx context.Context, topic string, payload []byte) error {
	var ev ProductEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("unmarshal %s event: %w", topic, err)
	}

	if err := s.statsCache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate statistics: %w", err)
	}

	s.logger.DebugContext(ctx, "product statistics invalidated",
		slog.String("topic", topic),
		slog.Int64("product_id", ev.ProductID),
	)
	return nil
}

func (s *Service) handlePriceChanged(ctx context.Context, topic string, payload []byte) error {
	var ev PriceChangedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("unmarshal %s event: %w", topic, err)
	}

	s.logger.InfoContext(ctx, "product price changed",
		slog.Int64("product_id", ev.ProductID),
		slog.String("old_price", ev.OldPrice.String()),
		slog.String("new_price", ev.NewPrice.String()),
	)
	return nil
}
