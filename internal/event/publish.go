package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
)

// Publish stores ev in the outbox through repo. Call it with a repository bound
// to the transaction of the change being announced. The entity id is used as
// partition key so events of one entity stay ordered.
func Publish(ctx context.Context, repo repository.OutboxMsgRepository, topic string, entityID int64, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	key := strconv.FormatInt(entityID, 10)
	if err := repo.CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
		Topic:        topic,
		Headers:      outbox.BuildHeaders(ctx),
		Payload:      payload,
		PartitionKey: &key,
	}); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	return nil
}
