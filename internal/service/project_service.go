package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portal/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProjectRequest struct {
	Name        string          `json:"name" binding:"required"`
	Customer    string          `json:"customer" binding:"required"`
	Description string          `json:"description"`
	Budget      decimal.Decimal `json:"budget"`
}

type UpdateProjectRequest struct {
	Name        string          `json:"name" binding:"required"`
	Customer    string          `json:"customer" binding:"required"`
	Description string          `json:"description"`
	Status      string          `json:"status" binding:"required,oneof=ACTIVE ON_HOLD COMPLETED"`
	Budget      decimal.Decimal `json:"budget"`
}

type CreateProjectInvoiceRequest struct {
	InvoiceNo string          `json:"invoice_no" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	IssuedAt  string          `json:"issued_at" binding:"required"`
}

type ProjectSummaryResponse struct {
	Project       model.Project   `json:"project"`
	InvoicedTotal decimal.Decimal `json:"invoiced_total"`
	PaidTotal     decimal.Decimal `json:"paid_total"`
	UnpaidTotal   decimal.Decimal `json:"unpaid_total"`
}

// --- Interface ---

type ProjectService interface {
	ListProjects(ctx context.Context, status string, page, limit int) ([]model.Project, int64, error)
	GetProject(ctx context.Context, id string) (*ProjectSummaryResponse, error)
	CreateProject(ctx context.Context, req CreateProjectRequest) (*model.Project, error)
	UpdateProject(ctx context.Context, id string, req UpdateProjectRequest) (*model.Project, error)
	DeleteProject(ctx context.Context, id string) error

	CreateProjectInvoice(ctx context.Context, projectID string, req CreateProjectInvoiceRequest) (*model.ProjectInvoice, error)
	SetInvoicePaid(ctx context.Context, invoiceID string, paid bool) (*model.ProjectInvoice, error)
}

type projectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) ProjectService {
	return &projectService{db: db}
}

// --- Projects ---

func (s *projectService) ListProjects(ctx context.Context, status string, page, limit int) ([]model.Project, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Project{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	fetch := s.db.WithContext(ctx)
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}

	var projects []model.Project
	if err := fetch.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch projects: %w", err)
	}
	return projects, total, nil
}

func (s *projectService) GetProject(ctx context.Context, id string) (*ProjectSummaryResponse, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid project id: %w", err)
	}

	var project model.Project
	if err := s.db.WithContext(ctx).
		Preload("Invoices", func(db *gorm.DB) *gorm.DB {
			return db.Order("issued_at DESC")
		}).
		First(&project, "id = ?", projectID).Error; err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}

	summary := ProjectSummaryResponse{
		Project:       project,
		InvoicedTotal: decimal.Zero,
		PaidTotal:     decimal.Zero,
		UnpaidTotal:   decimal.Zero,
	}
	for _, inv := range project.Invoices {
		summary.InvoicedTotal = summary.InvoicedTotal.Add(inv.Amount)
		if inv.Paid {
			summary.PaidTotal = summary.PaidTotal.Add(inv.Amount)
		} else {
			summary.UnpaidTotal = summary.UnpaidTotal.Add(inv.Amount)
		}
	}
	return &summary, nil
}

func (s *projectService) CreateProject(ctx context.Context, req CreateProjectRequest) (*model.Project, error) {
	project := model.Project{
		Name:        req.Name,
		Customer:    req.Customer,
		Description: req.Description,
		Status:      model.ProjectActive,
		Budget:      req.Budget,
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &project, nil
}

func (s *projectService) UpdateProject(ctx context.Context, id string, req UpdateProjectRequest) (*model.Project, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid project id: %w", err)
	}

	var project model.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", projectID).Error; err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}

	project.Name = req.Name
	project.Customer = req.Customer
	project.Description = req.Description
	project.Status = req.Status
	project.Budget = req.Budget

	if err := s.db.WithContext(ctx).Save(&project).Error; err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return &project, nil
}

func (s *projectService) DeleteProject(ctx context.Context, id string) error {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid project id: %w", err)
	}

	var project model.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", projectID).Error; err != nil {
		return fmt.Errorf("project not found: %w", err)
	}

	return s.db.WithContext(ctx).Delete(&project).Error
}

// --- Project invoices ---

func (s *projectService) CreateProjectInvoice(ctx context.Context, projectID string, req CreateProjectInvoiceRequest) (*model.ProjectInvoice, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return nil, fmt.Errorf("invalid project id: %w", err)
	}
	issuedAt, err := time.Parse("2006-01-02", req.IssuedAt)
	if err != nil {
		return nil, errors.New("geçersiz tarih formatı, YYYY-MM-DD bekleniyor")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("fatura tutarı sıfırdan büyük olmalıdır")
	}

	var project model.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", pid).Error; err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}

	var existing model.ProjectInvoice
	err = s.db.WithContext(ctx).Where("invoice_no = ?", req.InvoiceNo).First(&existing).Error
	if err == nil {
		return nil, errors.New("bu fatura numarası ile kayıtlı fatura var")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	invoice := model.ProjectInvoice{
		ProjectID: pid,
		InvoiceNo: req.InvoiceNo,
		Amount:    req.Amount,
		IssuedAt:  issuedAt,
	}
	if err := s.db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return nil, fmt.Errorf("failed to create project invoice: %w", err)
	}
	return &invoice, nil
}

func (s *projectService) SetInvoicePaid(ctx context.Context, invoiceID string, paid bool) (*model.ProjectInvoice, error) {
	id, err := uuid.Parse(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice id: %w", err)
	}

	var invoice model.ProjectInvoice
	if err := s.db.WithContext(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("project invoice not found: %w", err)
	}

	invoice.Paid = paid
	if err := s.db.WithContext(ctx).Save(&invoice).Error; err != nil {
		return nil, fmt.Errorf("failed to update project invoice: %w", err)
	}
	return &invoice, nil
}
