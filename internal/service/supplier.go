package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/batch"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

// SupplierSearchFields are matched by the name filter of supplier listings.
var SupplierSearchFields = []string{"name", "contact_info"}

type ListSuppliersParams struct {
	Name      string
	MinRating *int
	MaxRating *int
	Sort      query.Sort
	Page      query.Page
}

func (p ListSuppliersParams) criteria() query.Criteria {
	c := query.Criteria{
		Filters: query.Filters{},
		Search:  query.Search{Term: p.Name, Fields: SupplierSearchFields},
	}
	if p.MinRating != nil || p.MaxRating != nil {
		var r query.Range
		if p.MinRating != nil {
			r.Min = *p.MinRating
		}
		if p.MaxRating != nil {
			r.Max = *p.MaxRating
		}
		c.Filters["credit_rating"] = r
	}
	return c
}

type SupplierList struct {
	Items []model.Supplier
	Total int64
}

type SupplierService interface {
	GetSupplier(ctx context.Context, id int64) (model.Supplier, error)
	ListSuppliers(ctx context.Context, params ListSuppliersParams) (SupplierList, error)
	ListTopRatedSuppliers(ctx context.Context, limit int) ([]model.Supplier, error)
	CreateSupplier(ctx context.Context, params model.NewSupplier) (model.Supplier, error)
	UpdateSupplier(ctx context.Context, id int64, patch model.SupplierPatch) (model.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) (model.Supplier, error)

	BatchCreateSuppliers(ctx context.Context, params []model.NewSupplier) ([]model.Supplier, error)
	BatchUpdateSuppliers(ctx context.Context, policy batch.Policy, ids []int64, patch model.SupplierPatch) ([]model.Supplier, error)
	BatchDeleteSuppliers(ctx context.Context, policy batch.Policy, ids []int64) ([]model.Supplier, error)
}

type supplierService struct {
	logger        *slog.Logger
	db            db.DB
	supplierRepo  repository.SupplierRepository
	outboxMsgRepo repository.OutboxMsgRepository
}

func NewSupplierService(
	logger *slog.Logger,
	db db.DB,
	supplierRepo repository.SupplierRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) SupplierService {
	return &supplierService{
		logger:        logger.With(slog.String("service", "supplier")),
		db:            db,
		supplierRepo:  supplierRepo,
		outboxMsgRepo: outboxMsgRepo,
	}
}

func checkCreditRating(r int) error {
	if model.ValidCreditRating(r) {
		return nil
	}
	return apperr.InvalidCreditRatingErr.WithMsgf(
		"credit_rating must be between %d and %d, got %d",
		model.MinCreditRating, model.MaxCreditRating, r,
	)
}

// checkNewCreditRating requires a rating on create.
func checkNewCreditRating(p model.NewSupplier) error {
	if p.CreditRating == nil {
		return apperr.InvalidCreditRatingErr.WithMsg("credit rating is required")
	}
	return checkCreditRating(*p.CreditRating)
}

func checkPatchCreditRating(patch model.SupplierPatch) error {
	if r, ok := patch.CreditRating.Get(); ok {
		return checkCreditRating(r)
	}
	return nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id int64) (model.Supplier, error) {
	supplier, err := s.supplierRepo.Get(ctx, id)
	if err != nil {
		return model.Supplier{}, fmt.Errorf("supplier repository get: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) ListSuppliers(ctx context.Context, params ListSuppliersParams) (SupplierList, error) {
	criteria := params.criteria()

	items, err := s.supplierRepo.List(ctx, query.Spec{Criteria: criteria, Sort: params.Sort, Page: params.Page})
	if err != nil {
		return SupplierList{}, fmt.Errorf("supplier repository list: %w", err)
	}

	total, err := s.supplierRepo.Count(ctx, criteria)
	if err != nil {
		return SupplierList{}, fmt.Errorf("supplier repository count: %w", err)
	}

	return SupplierList{Items: items, Total: total}, nil
}

// ListTopRatedSuppliers orders by credit rating, best first, ties by id.
func (s *supplierService) ListTopRatedSuppliers(ctx context.Context, limit int) ([]model.Supplier, error) {
	items, err := s.supplierRepo.List(ctx, query.Spec{
		Sort: query.Sort{Field: "credit_rating", Direction: query.Desc},
		Page: query.Page{Limit: limit},
	})
	if err != nil {
		return nil, fmt.Errorf("supplier repository list: %w", err)
	}
	return items, nil
}

func (s *supplierService) CreateSupplier(ctx context.Context, params model.NewSupplier) (model.Supplier, error) {
	if err := checkNewCreditRating(params); err != nil {
		return model.Supplier{}, err
	}

	var supplier model.Supplier
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		var err error
		supplier, err = s.supplierRepo.WithDB(tx).Create(ctx, repository.SupplierRecord(params))
		if err != nil {
			return fmt.Errorf("supplier repository create: %w", err)
		}
		return s.publish(ctx, tx, event.SupplierCreated, supplier)
	}); err != nil {
		return model.Supplier{}, fmt.Errorf("db with tx: %w", err)
	}

	return supplier, nil
}

// BatchCreateSuppliers rejects the whole batch when any rating is out of
// bounds, before anything is written.
func (s *supplierService) BatchCreateSuppliers(ctx context.Context, params []model.NewSupplier) ([]model.Supplier, error) {
	recs := make([]repository.Record, len(params))
	for i, p := range params {
		if err := checkNewCreditRating(p); err != nil {
			return nil, fmt.Errorf("supplier %d: %w", i, err)
		}
		recs[i] = repository.SupplierRecord(p)
	}

	var suppliers []model.Supplier
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		var err error
		suppliers, err = s.supplierRepo.WithDB(tx).BatchCreate(ctx, recs)
		if err != nil {
			return fmt.Errorf("supplier repository batch create: %w", err)
		}
		return s.publish(ctx, tx, event.SupplierCreated, suppliers...)
	}); err != nil {
		return nil, fmt.Errorf("db with tx: %w", err)
	}

	return suppliers, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, id int64, patch model.SupplierPatch) (model.Supplier, error) {
	if err := checkPatchCreditRating(patch); err != nil {
		return model.Supplier{}, err
	}
	rec, err := repository.SupplierPatchRecord(patch)
	if err != nil {
		return model.Supplier{}, err
	}

	var supplier model.Supplier
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		var err error
		supplier, err = s.supplierRepo.WithDB(tx).Update(ctx, id, rec)
		if err != nil {
			return fmt.Errorf("supplier repository update: %w", err)
		}
		return s.publish(ctx, tx, event.SupplierUpdated, supplier)
	}); err != nil {
		return model.Supplier{}, fmt.Errorf("db with tx: %w", err)
	}

	return supplier, nil
}

func (s *supplierService) BatchUpdateSuppliers(ctx context.Context, policy batch.Policy, ids []int64, patch model.SupplierPatch) ([]model.Supplier, error) {
	if err := checkPatchCreditRating(patch); err != nil {
		return nil, err
	}
	rec, err := repository.SupplierPatchRecord(patch)
	if err != nil {
		return nil, err
	}

	var suppliers []model.Supplier
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		supplierRepo := s.supplierRepo.WithDB(tx)
		res, err := batch.Run(ctx, batch.Spec[model.Supplier]{
			Policy:   policy,
			IDs:      ids,
			Existing: supplierRepo.ExistingIDs,
			NotFound: apperr.SuppliersNotFoundErr,
			Apply: func(ctx context.Context, present []int64) ([]model.Supplier, error) {
				updated, err := supplierRepo.BatchUpdate(ctx, present, rec)
				if err != nil {
					return nil, fmt.Errorf("supplier repository batch update: %w", err)
				}
				return updated, s.publish(ctx, tx, event.SupplierUpdated, updated...)
			},
		})
		if err != nil {
			return err
		}

		s.logSkipped(ctx, "batch update", res.Skipped)
		suppliers = res.Items
		return nil
	}); err != nil {
		return nil, fmt.Errorf("db with tx: %w", err)
	}

	return suppliers, nil
}

func (s *supplierService) DeleteSupplier(ctx context.Context, id int64) (model.Supplier, error) {
	var supplier model.Supplier
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		var err error
		supplier, err = s.supplierRepo.WithDB(tx).Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("supplier repository delete: %w", err)
		}
		return s.publish(ctx, tx, event.SupplierDeleted, supplier)
	}); err != nil {
		return model.Supplier{}, fmt.Errorf("db with tx: %w", err)
	}

	return supplier, nil
}

func (s *supplierService) BatchDeleteSuppliers(ctx context.Context, policy batch.Policy, ids []int64) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		supplierRepo := s.supplierRepo.WithDB(tx)
		res, err := batch.Run(ctx, batch.Spec[model.Supplier]{
			Policy:   policy,
			IDs:      ids,
			Existing: supplierRepo.ExistingIDs,
			NotFound: apperr.SuppliersNotFoundErr,
			Apply: func(ctx context.Context, present []int64) ([]model.Supplier, error) {
				deleted, err := supplierRepo.BatchDelete(ctx, present)
				if err != nil {
					return nil, fmt.Errorf("supplier repository batch delete: %w", err)
				}
				return deleted, s.publish(ctx, tx, event.SupplierDeleted, deleted...)
			},
		})
		if err != nil {
			return err
		}

		s.logSkipped(ctx, "batch delete", res.Skipped)
		suppliers = res.Items
		return nil
	}); err != nil {
		return nil, fmt.Errorf("db with tx: %w", err)
	}

	return suppliers, nil
}

func (s *supplierService) publish(ctx context.Context, tx db.DB, action event.SupplierAction, suppliers ...model.Supplier) error {
	outboxRepo := s.outboxMsgRepo.WithDB(tx)
	for _, sp := range suppliers {
		if err := event.Publish(ctx, outboxRepo, event.TopicSupplierChanged, sp.ID, event.SupplierChangedEvent{
			SupplierID: sp.ID,
			Action:     action,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *supplierService) logSkipped(ctx context.Context, op string, ids []int64) {
	if len(ids) == 0 {
		return
	}
	s.logger.InfoContext(ctx, "skipped missing suppliers",
		slog.String("operation", op),
		slog.String("supplier_ids", batch.FormatIDs(ids)),
	)
}
