package tracking

import (
	"context"
	"fmt"

	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

// Result is the outcome of one tracked update.
type Result struct {
	Product      model.Product
	Diff         Diff
	PriceHistory *model.PriceHistory
	StockHistory *model.StockHistory
}

// Pipeline applies a product patch as fetch, diff, append history, persist.
// Every step runs in one transaction, so history rows become visible together
// with the update they describe.
type Pipeline struct {
	productRepo      repository.ProductRepository
	priceHistoryRepo repository.PriceHistoryRepository
	stockHistoryRepo repository.StockHistoryRepository
	outboxMsgRepo    repository.OutboxMsgRepository
}

func NewPipeline(
	productRepo repository.ProductRepository,
	priceHistoryRepo repository.PriceHistoryRepository,
	stockHistoryRepo repository.StockHistoryRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) *Pipeline {
	return &Pipeline{
		productRepo:      productRepo,
		priceHistoryRepo: priceHistoryRepo,
		stockHistoryRepo: stockHistoryRepo,
		outboxMsgRepo:    outboxMsgRepo,
	}
}

// Update applies patch to product id on d. When d is already a transaction the
// update runs in a savepoint of it.
func (p *Pipeline) Update(ctx context.Context, d db.DB, id int64, patch model.ProductPatch, reason *string) (Result, error) {
	rec, err := repository.ProductPatchRecord(patch)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if err := d.WithTx(ctx, func(tx db.DB) error {
		productRepo := p.productRepo.WithDB(tx)

		current, err := productRepo.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("fetch current product: %w", err)
		}

		res.Diff = Compute(current, patch, reason)

		if c := res.Diff.Price; c != nil {
			h, err := p.priceHistoryRepo.WithDB(tx).Append(ctx, id, c.Old, c.New)
			if err != nil {
				return err
			}
			res.PriceHistory = &h
		}

		if c := res.Diff.Stock; c != nil {
			h, err := p.stockHistoryRepo.WithDB(tx).Append(ctx, id, c.Old, c.New, c.Reason)
			if err != nil {
				return err
			}
			res.StockHistory = &h
		}

		res.Product, err = productRepo.Update(ctx, id, rec)
		if err != nil {
			return fmt.Errorf("persist product: %w", err)
		}

		return p.publish(ctx, tx, res)
	}); err != nil {
		return Result{}, err
	}

	return res, nil
}

func (p *Pipeline) publish(ctx context.Context, tx db.DB, res Result) error {
	outboxRepo := p.outboxMsgRepo.WithDB(tx)
	id := res.Product.ID

	if err := event.Publish(ctx, outboxRepo, event.TopicProductUpdated, id, event.NewProductEvent(res.Product)); err != nil {
		return err
	}

	if c := res.Diff.Price; c != nil {
		if err := event.Publish(ctx, outboxRepo, event.TopicProductPriceChanged, id, event.PriceChangedEvent{
			ProductID: id,
			OldPrice:  c.Old,
			NewPrice:  c.New,
		}); err != nil {
			return err
		}
	}

	if c := res.Diff.Stock; c != nil {
		if err := event.Publish(ctx, outboxRepo, event.TopicProductStockChanged, id, event.StockChangedEvent{
			ProductID:    id,
			OldQuantity:  c.Old,
			NewQuantity:  c.New,
			ChangeReason: c.Reason,
		}); err != nil {
			return err
		}
	}

	return nil
}
