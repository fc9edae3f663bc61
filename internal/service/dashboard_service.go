package service

import (
	"context"
	"time"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/repository"
)

const (
	defaultChartDays = 7
	maxChartDays     = 365
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
	GetLowStockProducts(ctx context.Context) ([]repository.ProductView, error)
}

type dashboardService struct {
	ledgerRepo  repository.LedgerRepository
	productRepo repository.ProductRepository
}

func NewDashboardService(lRepo repository.LedgerRepository, pRepo repository.ProductRepository) DashboardService {
	return &dashboardService{ledgerRepo: lRepo, productRepo: pRepo}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = defaultChartDays
	}
	if days > maxChartDays {
		days = maxChartDays
	}
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	data, err := s.ledgerRepo.GetStockMovement(ctx, startDate, endDate)
	if err != nil {
		return nil, classify("stock movement chart", err)
	}
	return data, nil
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	stats, err := s.productRepo.GetDashboardStats(ctx)
	if err != nil {
		return nil, classify("dashboard stats", err)
	}
	return stats, nil
}

func (s *dashboardService) GetLowStockProducts(ctx context.Context) ([]repository.ProductView, error) {
	products, err := s.productRepo.FindLowStock(ctx)
	if err != nil {
		return nil, classify("low stock products", err)
	}
	return products, nil
}
