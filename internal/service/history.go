package service

import (
	"context"
	"fmt"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/query"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
)

type HistoryParams struct {
	Range repository.TimeRange
	Page  query.Page
}

type PriceHistoryList struct {
	Items []model.PriceHistory
	Total int64
}

type StockHistoryList struct {
	Items []model.StockHistory
	Total int64
}

// HistoryService is read only. Every query fails with ProductNotFound when the
// product does not exist, even if it would simply have no history.
type HistoryService interface {
	GetPriceHistory(ctx context.Context, productID int64, params HistoryParams) (PriceHistoryList, error)
	GetStockHistory(ctx context.Context, productID int64, params HistoryParams) (StockHistoryList, error)
	GetCombinedHistory(ctx context.Context, productID int64, params HistoryParams) (model.CombinedHistory, error)
}

type historyService struct {
	productRepo      repository.ProductRepository
	priceHistoryRepo repository.PriceHistoryRepository
	stockHistoryRepo repository.StockHistoryRepository
}

func NewHistoryService(
	productRepo repository.ProductRepository,
	priceHistoryRepo repository.PriceHistoryRepository,
	stockHistoryRepo repository.StockHistoryRepository,
) HistoryService {
	return &historyService{
		productRepo:      productRepo,
		priceHistoryRepo: priceHistoryRepo,
		stockHistoryRepo: stockHistoryRepo,
	}
}

func (s *historyService) GetPriceHistory(ctx context.Context, productID int64, params HistoryParams) (PriceHistoryList, error) {
	if _, err := s.product(ctx, productID, params.Range); err != nil {
		return PriceHistoryList{}, err
	}
	return s.priceHistory(ctx, productID, params)
}

func (s *historyService) GetStockHistory(ctx context.Context, productID int64, params HistoryParams) (StockHistoryList, error) {
	if _, err := s.product(ctx, productID, params.Range); err != nil {
		return StockHistoryList{}, err
	}
	return s.stockHistory(ctx, productID, params)
}

// GetCombinedHistory pages price and stock history independently with the same
// page.
func (s *historyService) GetCombinedHistory(ctx context.Context, productID int64, params HistoryParams) (model.CombinedHistory, error) {
	product, err := s.product(ctx, productID, params.Range)
	if err != nil {
		return model.CombinedHistory{}, err
	}

	prices, err := s.priceHistory(ctx, productID, params)
	if err != nil {
		return model.CombinedHistory{}, err
	}

	stocks, err := s.stockHistory(ctx, productID, params)
	if err != nil {
		return model.CombinedHistory{}, err
	}

	return model.CombinedHistory{
		ProductID:    product.ID,
		ProductName:  product.Name,
		PriceHistory: prices.Items,
		StockHistory: stocks.Items,
	}, nil
}

// product checks the date range, then that the product exists.
func (s *historyService) product(ctx context.Context, productID int64, tr repository.TimeRange) (model.Product, error) {
	if tr.Start != nil && tr.End != nil && tr.Start.After(*tr.End) {
		return model.Product{}, apperr.InvalidDateRangeErr
	}

	product, err := s.productRepo.Get(ctx, productID)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository get: %w", err)
	}
	return product, nil
}

func (s *historyService) priceHistory(ctx context.Context, productID int64, params HistoryParams) (PriceHistoryList, error) {
	items, err := s.priceHistoryRepo.ListByProduct(ctx, productID, params.Range, params.Page)
	if err != nil {
		return PriceHistoryList{}, fmt.Errorf("price history repository list: %w", err)
	}

	total, err := s.priceHistoryRepo.CountByProduct(ctx, productID, params.Range)
	if err != nil {
		return PriceHistoryList{}, fmt.Errorf("price history repository count: %w", err)
	}

	return PriceHistoryList{Items: items, Total: total}, nil
}

func (s *historyService) stockHistory(ctx context.Context, productID int64, params HistoryParams) (StockHistoryList, error) {
	items, err := s.stockHistoryRepo.ListByProduct(ctx, productID, params.Range, params.Page)
	if err != nil {
		return StockHistoryList{}, fmt.Errorf("stock history repository list: %w", err)
	}

	total, err := s.stockHistoryRepo.CountByProduct(ctx, productID, params.Range)
	if err != nil {
		return StockHistoryList{}, fmt.Errorf("stock history repository count: %w", err)
	}

	return StockHistoryList{Items: items, Total: total}, nil
}
