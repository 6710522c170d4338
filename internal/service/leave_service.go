package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateLeaveRequestDTO struct {
	LeaveType string `json:"leave_type" binding:"required"`
	StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string `json:"end_date" binding:"required"`   // YYYY-MM-DD
	Reason    string `json:"reason"`
}

type DecideLeaveRequestDTO struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
	Reason string `json:"reason"`
}

type LeaveFilter struct {
	Status string
	UserID string
	Page   int
	Limit  int
}

type LeaveRequestResponse struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	UserName        string `json:"user_name,omitempty"`
	LeaveType       string `json:"leave_type"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Reason          string `json:"reason"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	DecidedBy       string `json:"decided_by,omitempty"`
	DecidedAt       string `json:"decided_at,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// --- Interface ---

type LeaveService interface {
	CreateLeaveRequest(ctx context.Context, req CreateLeaveRequestDTO, userID string) (*LeaveRequestResponse, error)
	ListLeaveRequests(ctx context.Context, filter LeaveFilter) ([]LeaveRequestResponse, int64, error)
	DecideLeaveRequest(ctx context.Context, id string, req DecideLeaveRequestDTO, actorID string) (*LeaveRequestResponse, error)
}

type leaveService struct {
	db *gorm.DB
}

func NewLeaveService(db *gorm.DB) LeaveService {
	return &leaveService{db: db}
}

// --- Implementation ---

func (s *leaveService) CreateLeaveRequest(ctx context.Context, req CreateLeaveRequestDTO, userID string) (*LeaveRequestResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, errors.New("geçersiz başlangıç tarihi")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, errors.New("geçersiz bitiş tarihi")
	}
	if end.Before(start) {
		return nil, errors.New("bitiş tarihi başlangıç tarihinden önce olamaz")
	}

	leave := model.LeaveRequest{
		UserID:    uid,
		LeaveType: req.LeaveType,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
		Status:    model.LeavePending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&leave).Error; err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}
		return writeAudit(tx, userID, model.ActionCreateLeaveRequest, leave.ID.String(), req.LeaveType, req)
	})
	if err != nil {
		return nil, err
	}

	return s.getLeaveRequest(ctx, leave.ID)
}

func (s *leaveService) ListLeaveRequests(ctx context.Context, filter LeaveFilter) ([]LeaveRequestResponse, int64, error) {
	var total int64
	query := s.db.WithContext(ctx).Model(&model.LeaveRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	var leaves []model.LeaveRequest
	fetch := s.db.WithContext(ctx).Preload("User")
	if filter.Status != "" {
		fetch = fetch.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		fetch = fetch.Where("user_id = ?", filter.UserID)
	}
	if err := fetch.
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&leaves).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch leave requests: %w", err)
	}

	res := make([]LeaveRequestResponse, 0, len(leaves))
	for _, l := range leaves {
		res = append(res, toLeaveResponse(l))
	}
	return res, total, nil
}

func (s *leaveService) DecideLeaveRequest(ctx context.Context, id string, req DecideLeaveRequestDTO, actorID string) (*LeaveRequestResponse, error) {
	leaveID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid leave request id: %w", err)
	}

	approverID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var leave model.LeaveRequest
		if err := tx.First(&leave, "id = ?", leaveID).Error; err != nil {
			return fmt.Errorf("leave request not found: %w", err)
		}
		if leave.Status != model.LeavePending {
			return fmt.Errorf("izin talebi zaten %s durumunda", leave.Status)
		}

		now := time.Now()
		leave.DecidedBy = &approverID
		leave.DecidedAt = &now

		switch req.Action {
		case PurchaseActionApprove:
			leave.Status = model.LeaveApproved
		case PurchaseActionReject:
			if req.Reason == "" {
				return errors.New("ret nedeni girilmelidir")
			}
			leave.Status = model.LeaveRejected
			leave.RejectionReason = req.Reason
		default:
			return fmt.Errorf("unknown action '%s'", req.Action)
		}

		if err := tx.Save(&leave).Error; err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}
		return writeAudit(tx, actorID, model.ActionDecideLeaveRequest, leave.ID.String(), leave.LeaveType, map[string]interface{}{
			"action": req.Action,
			"reason": req.Reason,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.getLeaveRequest(ctx, leaveID)
}

// --- Helpers ---

func (s *leaveService) getLeaveRequest(ctx context.Context, id uuid.UUID) (*LeaveRequestResponse, error) {
	var leave model.LeaveRequest
	if err := s.db.WithContext(ctx).Preload("User").First(&leave, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("leave request not found: %w", err)
	}
	resp := toLeaveResponse(leave)
	return &resp, nil
}

func toLeaveResponse(l model.LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:              l.ID.String(),
		UserID:          l.UserID.String(),
		LeaveType:       l.LeaveType,
		StartDate:       l.StartDate.Format("2006-01-02"),
		EndDate:         l.EndDate.Format("2006-01-02"),
		Reason:          l.Reason,
		Status:          l.Status,
		RejectionReason: l.RejectionReason,
		CreatedAt:       l.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if l.User != nil {
		resp.UserName = l.User.FirstName + " " + l.User.LastName
	}
	if l.DecidedBy != nil {
		resp.DecidedBy = l.DecidedBy.String()
	}
	if l.DecidedAt != nil {
		resp.DecidedAt = l.DecidedAt.Format("2006-01-02 15:04:05")
	}
	return resp
}
