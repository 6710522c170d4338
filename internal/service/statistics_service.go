package service

import (
	"context"
	"time"

	"portal/internal/model"

	"gorm.io/gorm"
)

// DashboardResponse is the landing-page summary for the signed-in user.
type DashboardResponse struct {
	PendingPurchaseRequests int64            `json:"pending_purchase_requests"`
	RejectedStages          int64            `json:"rejected_stages"`
	PendingLeaveRequests    int64            `json:"pending_leave_requests"`
	OpenFaults              int64            `json:"open_faults"`
	DueControls             int64            `json:"due_controls"`
	AwaitingUsers           int64            `json:"awaiting_users"`
	IdeasByStatus           map[string]int64 `json:"ideas_by_status"`
	RequestsByStage         map[string]int64 `json:"requests_by_stage"`
}

type StatisticsService interface {
	GetDashboard(ctx context.Context) (*DashboardResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

func (s *statisticsService) GetDashboard(ctx context.Context) (*DashboardResponse, error) {
	res := &DashboardResponse{
		IdeasByStatus:   make(map[string]int64),
		RequestsByStage: make(map[string]int64),
	}

	if err := s.db.WithContext(ctx).Model(&model.PurchaseRequest{}).
		Where("stage <> ?", model.StageCompleted).
		Count(&res.PendingPurchaseRequests).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&model.PurchaseRequest{}).
		Where("rejected = ?", true).
		Count(&res.RejectedStages).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&model.LeaveRequest{}).
		Where("status = ?", model.LeavePending).
		Count(&res.PendingLeaveRequests).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&model.FaultLog{}).
		Where("status <> ?", model.FaultResolved).
		Count(&res.OpenFaults).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&model.PeriodicControlPlan{}).
		Where("active = ? AND next_due_date <= ?", true, time.Now()).
		Count(&res.DueControls).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("approved = ?", false).
		Count(&res.AwaitingUsers).Error; err != nil {
		return nil, err
	}

	var ideaRows []struct {
		Status string
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&model.Idea{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&ideaRows).Error; err != nil {
		return nil, err
	}
	for _, row := range ideaRows {
		res.IdeasByStatus[row.Status] = row.Count
	}

	var stageRows []struct {
		Stage string
		Count int64
	}
	if err := s.db.WithContext(ctx).Model(&model.PurchaseRequest{}).
		Select("stage, COUNT(*) as count").
		Group("stage").
		Scan(&stageRows).Error; err != nil {
		return nil, err
	}
	for _, row := range stageRows {
		res.RequestsByStage[row.Stage] = row.Count
	}

	return res, nil
}
