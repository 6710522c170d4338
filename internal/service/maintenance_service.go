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

type CreateDeviceRequest struct {
	Name     string `json:"name" binding:"required"`
	SerialNo string `json:"serial_no" binding:"required"`
	Location string `json:"location"`
}

type UpdateDeviceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE INACTIVE FAULTY"`
}

type CreateFaultLogRequest struct {
	DeviceID    string `json:"device_id" binding:"required,uuid"`
	Description string `json:"description" binding:"required"`
}

type UpdateFaultStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=OPEN IN_PROGRESS RESOLVED"`
}

type CreateControlPlanRequest struct {
	DeviceID     string `json:"device_id" binding:"required,uuid"`
	Title        string `json:"title" binding:"required"`
	IntervalDays int    `json:"interval_days" binding:"required,min=1"`
	NextDueDate  string `json:"next_due_date" binding:"required"`
}

type CreateControlLogRequest struct {
	PlanID string `json:"plan_id" binding:"required,uuid"`
	Result string `json:"result" binding:"required,oneof=OK ISSUE"`
	Note   string `json:"note"`
}

type CreateMaintenancePlanRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
}

type UpdatePlanStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PLANNED ONGOING DONE"`
}

// --- Interface ---

type MaintenanceService interface {
	ListDevices(ctx context.Context, status string) ([]model.Device, error)
	CreateDevice(ctx context.Context, req CreateDeviceRequest) (*model.Device, error)
	UpdateDeviceStatus(ctx context.Context, id string, status string) (*model.Device, error)

	ListFaultLogs(ctx context.Context, deviceID, status string) ([]model.FaultLog, error)
	CreateFaultLog(ctx context.Context, reporterID string, req CreateFaultLogRequest) (*model.FaultLog, error)
	UpdateFaultStatus(ctx context.Context, id string, status string) (*model.FaultLog, error)

	ListControlPlans(ctx context.Context, dueOnly bool) ([]model.PeriodicControlPlan, error)
	CreateControlPlan(ctx context.Context, req CreateControlPlanRequest) (*model.PeriodicControlPlan, error)
	CreateControlLog(ctx context.Context, performerID string, req CreateControlLogRequest) (*model.PeriodicControlLog, error)

	ListMaintenancePlans(ctx context.Context, status string) ([]model.MaintenancePlan, error)
	CreateMaintenancePlan(ctx context.Context, req CreateMaintenancePlanRequest) (*model.MaintenancePlan, error)
	UpdateMaintenancePlanStatus(ctx context.Context, id string, status string) (*model.MaintenancePlan, error)
}

type maintenanceService struct {
	db *gorm.DB
}

func NewMaintenanceService(db *gorm.DB) MaintenanceService {
	return &maintenanceService{db: db}
}

// --- Devices ---

func (s *maintenanceService) ListDevices(ctx context.Context, status string) ([]model.Device, error) {
	query := s.db.WithContext(ctx).Order("name ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var devices []model.Device
	if err := query.Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch devices: %w", err)
	}
	return devices, nil
}

func (s *maintenanceService) CreateDevice(ctx context.Context, req CreateDeviceRequest) (*model.Device, error) {
	var existing model.Device
	err := s.db.WithContext(ctx).Where("serial_no = ?", req.SerialNo).First(&existing).Error
	if err == nil {
		return nil, errors.New("bu seri numarası ile kayıtlı cihaz var")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	device := model.Device{
		Name:     req.Name,
		SerialNo: req.SerialNo,
		Location: req.Location,
		Status:   model.DeviceActive,
	}
	if err := s.db.WithContext(ctx).Create(&device).Error; err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return &device, nil
}

func (s *maintenanceService) UpdateDeviceStatus(ctx context.Context, id string, status string) (*model.Device, error) {
	deviceID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid device id: %w", err)
	}

	var device model.Device
	if err := s.db.WithContext(ctx).First(&device, "id = ?", deviceID).Error; err != nil {
		return nil, fmt.Errorf("device not found: %w", err)
	}

	device.Status = status
	if err := s.db.WithContext(ctx).Save(&device).Error; err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}
	return &device, nil
}

// --- Fault logs ---

func (s *maintenanceService) ListFaultLogs(ctx context.Context, deviceID, status string) ([]model.FaultLog, error) {
	query := s.db.WithContext(ctx).
		Preload("Device").
		Preload("Reporter").
		Order("created_at DESC")
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var logs []model.FaultLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch fault logs: %w", err)
	}
	return logs, nil
}

func (s *maintenanceService) CreateFaultLog(ctx context.Context, reporterID string, req CreateFaultLogRequest) (*model.FaultLog, error) {
	deviceID, err := uuid.Parse(req.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("invalid device id: %w", err)
	}
	reporter, err := uuid.Parse(reporterID)
	if err != nil {
		return nil, fmt.Errorf("invalid reporter id: %w", err)
	}

	var device model.Device
	if err := s.db.WithContext(ctx).First(&device, "id = ?", deviceID).Error; err != nil {
		return nil, fmt.Errorf("device not found: %w", err)
	}

	var log model.FaultLog
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		log = model.FaultLog{
			DeviceID:    deviceID,
			ReportedBy:  &reporter,
			Description: req.Description,
			Status:      model.FaultOpen,
		}
		if err := tx.Create(&log).Error; err != nil {
			return fmt.Errorf("failed to create fault log: %w", err)
		}
		// A reported fault marks the device faulty until it is resolved.
		return tx.Model(&model.Device{}).
			Where("id = ?", deviceID).
			Update("status", model.DeviceFaulty).Error
	})
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (s *maintenanceService) UpdateFaultStatus(ctx context.Context, id string, status string) (*model.FaultLog, error) {
	logID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid fault log id: %w", err)
	}

	var log model.FaultLog
	if err := s.db.WithContext(ctx).First(&log, "id = ?", logID).Error; err != nil {
		return nil, fmt.Errorf("fault log not found: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		log.Status = status
		if status == model.FaultResolved {
			now := time.Now()
			log.ResolvedAt = &now
		}
		if err := tx.Save(&log).Error; err != nil {
			return fmt.Errorf("failed to update fault log: %w", err)
		}

		if status != model.FaultResolved {
			return nil
		}
		// Device recovers only when no other open faults remain.
		var open int64
		if err := tx.Model(&model.FaultLog{}).
			Where("device_id = ? AND status <> ? AND id <> ?", log.DeviceID, model.FaultResolved, log.ID).
			Count(&open).Error; err != nil {
			return err
		}
		if open == 0 {
			return tx.Model(&model.Device{}).
				Where("id = ?", log.DeviceID).
				Update("status", model.DeviceActive).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// --- Periodic control plans & logs ---

func (s *maintenanceService) ListControlPlans(ctx context.Context, dueOnly bool) ([]model.PeriodicControlPlan, error) {
	query := s.db.WithContext(ctx).
		Preload("Device").
		Where("active = ?", true).
		Order("next_due_date ASC")
	if dueOnly {
		query = query.Where("next_due_date <= ?", time.Now())
	}

	var plans []model.PeriodicControlPlan
	if err := query.Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch control plans: %w", err)
	}
	return plans, nil
}

func (s *maintenanceService) CreateControlPlan(ctx context.Context, req CreateControlPlanRequest) (*model.PeriodicControlPlan, error) {
	deviceID, err := uuid.Parse(req.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("invalid device id: %w", err)
	}
	dueDate, err := time.Parse("2006-01-02", req.NextDueDate)
	if err != nil {
		return nil, errors.New("geçersiz tarih formatı, YYYY-MM-DD bekleniyor")
	}

	var device model.Device
	if err := s.db.WithContext(ctx).First(&device, "id = ?", deviceID).Error; err != nil {
		return nil, fmt.Errorf("device not found: %w", err)
	}

	plan := model.PeriodicControlPlan{
		DeviceID:     deviceID,
		Title:        req.Title,
		IntervalDays: req.IntervalDays,
		NextDueDate:  dueDate,
		Active:       true,
	}
	if err := s.db.WithContext(ctx).Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("failed to create control plan: %w", err)
	}
	return &plan, nil
}

func (s *maintenanceService) CreateControlLog(ctx context.Context, performerID string, req CreateControlLogRequest) (*model.PeriodicControlLog, error) {
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("invalid plan id: %w", err)
	}
	performer, err := uuid.Parse(performerID)
	if err != nil {
		return nil, fmt.Errorf("invalid performer id: %w", err)
	}

	var plan model.PeriodicControlPlan
	if err := s.db.WithContext(ctx).First(&plan, "id = ?", planID).Error; err != nil {
		return nil, fmt.Errorf("control plan not found: %w", err)
	}

	var log model.PeriodicControlLog
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		log = model.PeriodicControlLog{
			PlanID:      planID,
			PerformedBy: &performer,
			PerformedAt: now,
			Result:      req.Result,
			Note:        req.Note,
		}
		if err := tx.Create(&log).Error; err != nil {
			return fmt.Errorf("failed to create control log: %w", err)
		}
		// Recording a control rolls the due date forward by the interval.
		next := now.AddDate(0, 0, plan.IntervalDays)
		return tx.Model(&model.PeriodicControlPlan{}).
			Where("id = ?", planID).
			Update("next_due_date", next).Error
	})
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// --- Maintenance plans ---

func (s *maintenanceService) ListMaintenancePlans(ctx context.Context, status string) ([]model.MaintenancePlan, error) {
	query := s.db.WithContext(ctx).Order("start_date ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var plans []model.MaintenancePlan
	if err := query.Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch maintenance plans: %w", err)
	}
	return plans, nil
}

func (s *maintenanceService) CreateMaintenancePlan(ctx context.Context, req CreateMaintenancePlanRequest) (*model.MaintenancePlan, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, errors.New("geçersiz tarih formatı, YYYY-MM-DD bekleniyor")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, errors.New("geçersiz tarih formatı, YYYY-MM-DD bekleniyor")
	}
	if end.Before(start) {
		return nil, errors.New("bitiş tarihi başlangıç tarihinden önce olamaz")
	}

	plan := model.MaintenancePlan{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		Status:      model.PlanPlanned,
	}
	if err := s.db.WithContext(ctx).Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("failed to create maintenance plan: %w", err)
	}
	return &plan, nil
}

func (s *maintenanceService) UpdateMaintenancePlanStatus(ctx context.Context, id string, status string) (*model.MaintenancePlan, error) {
	planID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid plan id: %w", err)
	}

	var plan model.MaintenancePlan
	if err := s.db.WithContext(ctx).First(&plan, "id = ?", planID).Error; err != nil {
		return nil, fmt.Errorf("maintenance plan not found: %w", err)
	}

	plan.Status = status
	if err := s.db.WithContext(ctx).Save(&plan).Error; err != nil {
		return nil, fmt.Errorf("failed to update maintenance plan: %w", err)
	}
	return &plan, nil
}
