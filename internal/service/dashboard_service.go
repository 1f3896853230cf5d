package service

import (
	"context"
	"time"

	"profitpath-api/internal/repository"

	"github.com/shopspring/decimal"
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	dashRepo          repository.DashboardRepository
	lowStockThreshold decimal.Decimal
	now               func() time.Time
}

func NewDashboardService(dashRepo repository.DashboardRepository, lowStockThreshold decimal.Decimal) DashboardService {
	return &dashboardService{dashRepo: dashRepo, lowStockThreshold: lowStockThreshold, now: time.Now}
}

// GetStockMovement covers the last days days including today; days is clamped to 1..366.
func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days < 1 {
		days = 1
	}
	if days > 366 {
		days = 366
	}
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -(days - 1))

	return s.dashRepo.GetStockMovement(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.dashRepo.GetDashboardStats(ctx, s.lowStockThreshold)
}
