package service

import (
	"context"

	"meterstock/internal/model"

	"gorm.io/gorm"
)

// StatusCount is one row of the manager dashboard breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ItemTypeStats aggregates quantities per product across the whole store.
type ItemTypeStats struct {
	ItemType          string `json:"item_type"`
	RequestedQuantity int64  `json:"requested_quantity"`
	ApprovedQuantity  int64  `json:"approved_quantity"`
	DispatchQuantity  int64  `json:"dispatch_quantity"`
}

type StatisticsResponse struct {
	TotalRecords   int64           `json:"total_records"`
	ByStatus       []StatusCount   `json:"by_status"`
	ByItemType     []ItemTypeStats `json:"by_item_type"`
	PendingReviews int64           `json:"pending_reviews"`
}

type StatisticsService interface {
	GetStatistics(ctx context.Context) (StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates record counts for the manager dashboard.
func (s *statisticsService) GetStatistics(ctx context.Context) (StatisticsResponse, error) {
	var resp StatisticsResponse
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.StockRequest{}).Count(&resp.TotalRecords).Error; err != nil {
		return resp, err
	}

	if err := db.Model(&model.StockRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&resp.ByStatus).Error; err != nil {
		return resp, err
	}

	if err := db.Model(&model.StockRequest{}).
		Select("item_type, COALESCE(SUM(requested_quantity),0) AS requested_quantity, COALESCE(SUM(approved_quantity),0) AS approved_quantity, COALESCE(SUM(dispatch_quantity),0) AS dispatch_quantity").
		Group("item_type").
		Order("item_type").
		Scan(&resp.ByItemType).Error; err != nil {
		return resp, err
	}

	if err := db.Model(&model.StockRequest{}).
		Where("status IN ?", []string{model.StatusPendingVerification, model.StatusPendingCityApproval}).
		Count(&resp.PendingReviews).Error; err != nil {
		return resp, err
	}

	return resp, nil
}
