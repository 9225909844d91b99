package repotest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

// Store holds every table in memory. The repositories it hands out share it.
// Lists and counts ignore filters and sorting; they return rows by id and
// record what they were asked for in Specs and Criteria.
type Store struct {
	mu sync.Mutex

	Products     map[int64]model.Product
	Suppliers    map[int64]model.Supplier
	Links        map[int64][]int64
	PriceHistory []model.PriceHistory
	StockHistory []model.StockHistory
	Outbox       []OutboxMsg

	Specs    []query.Spec
	Criteria []query.Criteria

	// Err, when set, fails every call.
	Err error

	nextID int64
	now    time.Time
}

func NewStore() *Store {
	return &Store{
		Products:  map[int64]model.Product{},
		Suppliers: map[int64]model.Supplier{},
		Links:     map[int64][]int64{},
		now:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

// Topics returns the topics of the outbox messages in write order.
func (s *Store) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.Outbox))
	for i, m := range s.Outbox {
		out[i] = m.Topic
	}
	return out
}

func (s *Store) ProductRepository() repository.ProductRepository { return &productRepo{s} }

func (s *Store) SupplierRepository() repository.SupplierRepository { return &supplierRepo{s} }

func (s *Store) PriceHistoryRepository() repository.PriceHistoryRepository {
	return &priceHistoryRepo{s}
}

func (s *Store) StockHistoryRepository() repository.StockHistoryRepository {
	return &stockHistoryRepo{s}
}

func (s *Store) OutboxMsgRepository() repository.OutboxMsgRepository { return &outboxRepo{s} }

type productRepo struct{ s *Store }

func (r *productRepo) WithDB(db.DB) repository.ProductRepository { return r }

func (r *productRepo) Get(_ context.Context, id int64) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return model.Product{}, r.s.Err
	}
	return r.s.getProduct(id)
}

func (s *Store) getProduct(id int64) (model.Product, error) {
	p, ok := s.Products[id]
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr.WithMsgf("product with id %d not found", id)
	}
	return p, nil
}

func (r *productRepo) List(_ context.Context, spec query.Spec) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	r.s.Specs = append(r.s.Specs, spec)
	return page(sortedValues(r.s.Products), spec.Page), nil
}

func (r *productRepo) Search(ctx context.Context, term string, fields []string, spec query.Spec) ([]model.Product, error) {
	spec.Search = query.Search{Term: term, Fields: fields}
	return r.List(ctx, spec)
}

func (r *productRepo) Count(_ context.Context, criteria query.Criteria) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	r.s.Criteria = append(r.s.Criteria, criteria)
	return int64(len(r.s.Products)), nil
}

func (r *productRepo) Create(_ context.Context, rec repository.Record) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return model.Product{}, r.s.Err
	}
	return r.s.createProduct(rec)
}

func (s *Store) createProduct(rec repository.Record) (model.Product, error) {
	now := s.tick()
	p := model.Product{ID: s.id(), CreatedAt: now, UpdatedAt: now}
	if err := applyProduct(&p, rec); err != nil {
		return model.Product{}, err
	}
	s.Products[p.ID] = p
	return p, nil
}

func (r *productRepo) BatchCreate(_ context.Context, recs []repository.Record) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}

	out := make([]model.Product, 0, len(recs))
	for _, rec := range recs {
		p, err := r.s.createProduct(rec)
		if err != nil {
			for _, created := range out {
				delete(r.s.Products, created.ID)
			}
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *productRepo) Update(_ context.Context, id int64, rec repository.Record) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return model.Product{}, r.s.Err
	}
	return r.s.updateProduct(id, rec)
}

func (s *Store) updateProduct(id int64, rec repository.Record) (model.Product, error) {
	p, err := s.getProduct(id)
	if err != nil {
		return model.Product{}, err
	}
	if len(rec) == 0 {
		return p, nil
	}
	if err := applyProduct(&p, rec); err != nil {
		return model.Product{}, err
	}
	p.UpdatedAt = s.tick()
	s.Products[id] = p
	return p, nil
}

func (r *productRepo) BatchUpdate(_ context.Context, ids []int64, rec repository.Record) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}

	out := []model.Product{}
	for _, id := range sortedIDs(ids) {
		if _, ok := r.s.Products[id]; !ok {
			continue
		}
		p, err := r.s.updateProduct(id, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *productRepo) Delete(_ context.Context, id int64) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return model.Product{}, r.s.Err
	}
	p, err := r.s.getProduct(id)
	if err != nil {
		return model.Product{}, err
	}
	r.s.deleteProduct(id)
	return p, nil
}

func (s *Store) deleteProduct(id int64) {
	delete(s.Products, id)
	delete(s.Links, id)
	s.PriceHistory = slices.DeleteFunc(s.PriceHistory, func(h model.PriceHistory) bool { return h.ProductID == id })
	s.StockHistory = slices.DeleteFunc(s.StockHistory, func(h model.StockHistory) bool { return h.ProductID == id })
}

func (r *productRepo) BatchDelete(_ context.Context, ids []int64) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}

	out := []model.Product{}
	for _, id := range sortedIDs(ids) {
		if p, ok := r.s.Products[id]; ok {
			r.s.deleteProduct(id)
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *productRepo) ExistingIDs(_ context.Context, ids []int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return existing(r.s.Products, ids), nil
}

func (r *productRepo) AddSupplier(_ context.Context, productID, supplierID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, err := r.s.getProduct(productID); err != nil {
		return err
	}
	if _, ok := r.s.Suppliers[supplierID]; !ok {
		return apperr.SupplierNotFoundErr.WithMsgf("supplier with id %d not found", supplierID)
	}
	if !slices.Contains(r.s.Links[productID], supplierID) {
		r.s.Links[productID] = append(r.s.Links[productID], supplierID)
	}
	return nil
}

func (r *productRepo) RemoveSupplier(_ context.Context, productID, supplierID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, err := r.s.getProduct(productID); err != nil {
		return err
	}
	r.s.Links[productID] = slices.DeleteFunc(r.s.Links[productID], func(id int64) bool { return id == supplierID })
	return nil
}

func (r *productRepo) ListSuppliers(ctx context.Context, productID int64) ([]model.Supplier, error) {
	if _, err := r.Get(ctx, productID); err != nil {
		return nil, err
	}
	byProduct, err := r.SuppliersByProducts(ctx, []int64{productID})
	if err != nil {
		return nil, err
	}
	return byProduct[productID], nil
}

func (r *productRepo) SuppliersByProducts(_ context.Context, productIDs []int64) (map[int64][]model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}

	out := make(map[int64][]model.Supplier, len(productIDs))
	for _, pid := range productIDs {
		out[pid] = []model.Supplier{}
		for _, sid := range sortedIDs(r.s.Links[pid]) {
			if sp, ok := r.s.Suppliers[sid]; ok {
				out[pid] = append(out[pid], sp)
			}
		}
	}
	return out, nil
}

func (r *productRepo) CountByCategory(context.Context) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}

	out := map[string]int64{}
	for _, p := range r.s.Products {
		key := repository.UncategorizedKey
		if p.Category != nil {
			key = *p.Category
		}
		out[key]++
	}
	return out, nil
}

func applyProduct(p *model.Product, rec repository.Record) error {
	for field, v := range rec {
		var ok bool
		switch field {
		case "name":
			p.Name, ok = v.(string)
		case "price":
			p.Price, ok = v.(decimal.Decimal)
		case "stock_quantity":
			p.StockQuantity, ok = v.(int)
		case "discount":
			p.Discount, ok = v.(float64)
		case "description":
			p.Description, ok = v.(*string)
		case "category":
			p.Category, ok = v.(*string)
		}
		if !ok {
			return fmt.Errorf("products: field %q is not writable as %T", field, v)
		}
	}
	return nil
}

type supplierRepo struct{ s *Store }

func (r *supplierRepo) WithDB(db.DB) repository.SupplierRepository { return r }

func (r *supplierRepo) Get(_ context.Context, id int64) (model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return model.Supplier{}, r.s.Err
	}
	return r.s.getSupplier(id)
}

func (s *Store) getSupplier(id int64) (model.Supplier, error) {
	sp, ok := s.Suppliers[id]
	if !ok {
		return model.Supplier{}, apperr.SupplierNotFoundErr.WithMsgf("supplier with id %d not found", id)
	}
	return sp, nil
}

func (r *supplierRepo) List(_ context.Context, spec query.Spec) ([]model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	r.s.Specs = append(r.s.Specs, spec)
	return page(sortedValues(r.s.Suppliers), spec.Page), nil
}

func (r *supplierRepo) Search(ctx context.Context, term string, fields []string, spec query.Spec) ([]model.Supplier, error) {
	spec.Search = query.Search{Term: term, Fields: fields}
	return r.List(ctx, spec)
}

func (r *supplierRepo) Count(_ context.Context, criteria query.Criteria) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	r.s.Criteria = append(r.s.Criteria, criteria)
	return int64(len(r.s.Suppliers)), nil
}

func (r *supplierRepo) Create(_ context.Context, rec repository.Record) (model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return model.Supplier{}, r.s.Err
	}
	return r.s.createSupplier(rec)
}

func (s *Store) createSupplier(rec repository.Record) (model.Supplier, error) {
	now := s.tick()
	sp := model.Supplier{ID: s.id(), CreatedAt: now, UpdatedAt: now}
	if err := applySupplier(&sp, rec); err != nil {
		return model.Supplier{}, err
	}
	s.Suppliers[sp.ID] = sp
	return sp, nil
}

func (r *supplierRepo) BatchCreate(_ context.Context, recs []repository.Record) ([]model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}

	out := make([]model.Supplier, 0, len(recs))
	for _, rec := range recs {
		sp, err := r.s.createSupplier(rec)
		if err != nil {
			for _, created := range out {
				delete(r.s.Suppliers, created.ID)
			}
			return nil, err
		}
		out = append(out, sp)
	}
	return out, nil
}

func (r *supplierRepo) Update(_ context.Context, id int64, rec repository.Record) (model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return model.Supplier{}, r.s.Err
	}
	return r.s.updateSupplier(id, rec)
}

func (s *Store) updateSupplier(id int64, rec repository.Record) (model.Supplier, error) {
	sp, err := s.getSupplier(id)
	if err != nil {
		return model.Supplier{}, err
	}
	if len(rec) == 0 {
		return sp, nil
	}
	if err := applySupplier(&sp, rec); err != nil {
		return model.Supplier{}, err
	}
	sp.UpdatedAt = s.tick()
	s.Suppliers[id] = sp
	return sp, nil
}

func (r *supplierRepo) BatchUpdate(_ context.Context, ids []int64, rec repository.Record) ([]model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}

	out := []model.Supplier{}
	for _, id := range sortedIDs(ids) {
		if _, ok := r.s.Suppliers[id]; !ok {
			continue
		}
		sp, err := r.s.updateSupplier(id, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, nil
}

func (r *supplierRepo) Delete(_ context.Context, id int64) (model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return model.Supplier{}, r.s.Err
	}
	sp, err := r.s.getSupplier(id)
	if err != nil {
		return model.Supplier{}, err
	}
	r.s.deleteSupplier(id)
	return sp, nil
}

func (s *Store) deleteSupplier(id int64) {
	delete(s.Suppliers, id)
	for pid, sids := range s.Links {
		s.Links[pid] = slices.DeleteFunc(sids, func(sid int64) bool { return sid == id })
	}
}

func (r *supplierRepo) BatchDelete(_ context.Context, ids []int64) ([]model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}

	out := []model.Supplier{}
	for _, id := range sortedIDs(ids) {
		if sp, ok := r.s.Suppliers[id]; ok {
			r.s.deleteSupplier(id)
			out = append(out, sp)
		}
	}
	return out, nil
}

func (r *supplierRepo) ExistingIDs(_ context.Context, ids []int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return existing(r.s.Suppliers, ids), nil
}

func applySupplier(sp *model.Supplier, rec repository.Record) error {
	for field, v := range rec {
		var ok bool
		switch field {
		case "name":
			sp.Name, ok = v.(string)
		case "contact_info":
			sp.ContactInfo, ok = v.(string)
		case "credit_rating":
			sp.CreditRating, ok = v.(int)
		}
		if !ok {
			return fmt.Errorf("suppliers: field %q is not writable as %T", field, v)
		}
	}
	return nil
}

type priceHistoryRepo struct{ s *Store }

func (r *priceHistoryRepo) WithDB(db.DB) repository.PriceHistoryRepository { return r }

func (r *priceHistoryRepo) Append(_ context.Context, productID int64, oldPrice, newPrice decimal.Decimal) (model.PriceHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return model.PriceHistory{}, r.s.Err
	}

	h := model.PriceHistory{ID: r.s.id(), ProductID: productID, OldPrice: oldPrice, NewPrice: newPrice, Timestamp: r.s.tick()}
	r.s.PriceHistory = append(r.s.PriceHistory, h)
	return h, nil
}

func (r *priceHistoryRepo) ListByProduct(_ context.Context, productID int64, tr repository.TimeRange, p query.Page) ([]model.PriceHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return page(newestFirst(r.s.PriceHistory, productID, tr, func(h model.PriceHistory) (int64, time.Time) {
		return h.ProductID, h.Timestamp
	}), p), nil
}

func (r *priceHistoryRepo) CountByProduct(ctx context.Context, productID int64, tr repository.TimeRange) (int64, error) {
	items, err := r.ListByProduct(ctx, productID, tr, query.Unlimited)
	return int64(len(items)), err
}

type stockHistoryRepo struct{ s *Store }

func (r *stockHistoryRepo) WithDB(db.DB) repository.StockHistoryRepository { return r }

func (r *stockHistoryRepo) Append(_ context.Context, productID int64, oldQuantity, newQuantity int, reason *string) (model.StockHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return model.StockHistory{}, r.s.Err
	}

	h := model.StockHistory{
		ID:           r.s.id(),
		ProductID:    productID,
		OldQuantity:  oldQuantity,
		NewQuantity:  newQuantity,
		ChangeReason: reason,
		Timestamp:    r.s.tick(),
	}
	r.s.StockHistory = append(r.s.StockHistory, h)
	return h, nil
}

func (r *stockHistoryRepo) ListByProduct(_ context.Context, productID int64, tr repository.TimeRange, p query.Page) ([]model.StockHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return page(newestFirst(r.s.StockHistory, productID, tr, func(h model.StockHistory) (int64, time.Time) {
		return h.ProductID, h.Timestamp
	}), p), nil
}

func (r *stockHistoryRepo) CountByProduct(ctx context.Context, productID int64, tr repository.TimeRange) (int64, error) {
	items, err := r.ListByProduct(ctx, productID, tr, query.Unlimited)
	return int64(len(items)), err
}

type outboxRepo struct{ s *Store }

func (r *outboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

// OutboxMsg is a stored outbox row.
type OutboxMsg struct {
	repository.CreateOutboxMsgParams

	ID        uuid.UUID
	Attempts  int32
	Processed bool
	Error     *string
}

func (r *outboxRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if !json.Valid(params.Payload) {
		return errors.New("outbox: payload is not valid json")
	}
	r.s.Outbox = append(r.s.Outbox, OutboxMsg{CreateOutboxMsgParams: params, ID: uuid.New()})
	return nil
}

func (r *outboxRepo) ListUnprocessedOutboxMsgs(_ context.Context, params repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}

	out := []repository.ListUnprocessedOutboxMsgsResult{}
	for _, m := range r.s.Outbox {
		if int32(len(out)) >= params.BatchSize {
			break
		}
		if m.Processed {
			continue
		}
		out = append(out, repository.ListUnprocessedOutboxMsgsResult{
			ID:           m.ID,
			Topic:        m.Topic,
			Headers:      m.Headers,
			Payload:      m.Payload,
			PartitionKey: m.PartitionKey,
			Attempts:     m.Attempts,
		})
	}
	return out, nil
}

func (r *outboxRepo) BulkUpdateOutboxMsgs(_ context.Context, params repository.BulkUpdateOutboxMsgsParams) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}

	for _, item := range params.Items {
		for i := range r.s.Outbox {
			m := &r.s.Outbox[i]
			if m.ID != item.ID {
				continue
			}
			m.Attempts++
			m.Error = item.Error
			m.Processed = item.Error == nil || m.Attempts >= params.MaxAttempts
		}
	}
	return nil
}

func sortedValues[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = m[id]
	}
	return out
}

func sortedIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func existing[T any](m map[int64]T, ids []int64) []int64 {
	out := []int64{}
	for _, id := range sortedIDs(ids) {
		if _, ok := m[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func page[T any](items []T, p query.Page) []T {
	if p.Skip >= len(items) {
		return []T{}
	}
	items = items[p.Skip:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

func newestFirst[T any](items []T, productID int64, tr repository.TimeRange, key func(T) (int64, time.Time)) []T {
	out := []T{}
	for i := len(items) - 1; i >= 0; i-- {
		pid, ts := key(items[i])
		if pid != productID {
			continue
		}
		if tr.Start != nil && ts.Before(*tr.Start) {
			continue
		}
		if tr.End != nil && ts.After(*tr.End) {
			continue
		}
		out = append(out, items[i])
	}
	return out
}
