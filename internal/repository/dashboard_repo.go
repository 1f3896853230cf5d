package repository

import (
	"context"
	"time"

	"profitpath-api/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovementData is one day of the dashboard movement chart.
type StockMovementData struct {
	Date     string          `json:"date"`
	Inbound  decimal.Decimal `json:"inbound"`
	Outbound decimal.Decimal `json:"outbound"`
}

// DashboardStats is the overview card data.
type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

type DashboardRepository interface {
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context, lowStockThreshold decimal.Decimal) (*DashboardStats, error)
}

type dashboardRepo struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db}
}

func (r *dashboardRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// Adjustments count toward inbound or outbound by direction
	rows, err := r.db.WithContext(ctx).Model(&model.StockTransaction{}).
		Select(`
			TO_CHAR(transaction_date, 'YYYY-MM-DD') as date,
			COALESCE(SUM(CASE WHEN entry_type = 'incoming' OR (entry_type = 'adjustment' AND direction = 'add') THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN entry_type = 'outgoing' OR (entry_type = 'adjustment' AND direction = 'subtract') THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("transaction_date BETWEEN ? AND ?", startDate, endDate).
		Group("transaction_date").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}

func (r *dashboardRepo) GetDashboardStats(ctx context.Context, lowStockThreshold decimal.Decimal) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Product{}).Where("stock < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Product{}).Select("COALESCE(SUM(stock * price), 0)").Scan(&stats.TotalValuation).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
