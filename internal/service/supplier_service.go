package service

import (
	"context"
	"fmt"

	"portal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateSupplierRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email" binding:"omitempty,email"`
	Address     string `json:"address"`
}

type UpdateSupplierRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email" binding:"omitempty,email"`
	Address     string `json:"address"`
}

type SupplierResponse struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Puan        string `json:"puan"`
	RatingCount int    `json:"rating_count"`
	CreatedAt   string `json:"created_at"`
}

// --- Interface ---

type SupplierService interface {
	ListSuppliers(ctx context.Context, page, limit int) ([]SupplierResponse, int64, error)
	GetSupplier(ctx context.Context, id string) (*SupplierResponse, error)
	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*SupplierResponse, error)
	UpdateSupplier(ctx context.Context, id string, req UpdateSupplierRequest) (*SupplierResponse, error)
	DeleteSupplier(ctx context.Context, id string) error
}

type supplierService struct {
	db *gorm.DB
}

func NewSupplierService(db *gorm.DB) SupplierService {
	return &supplierService{db: db}
}

// --- Implementation ---

func (s *supplierService) ListSuppliers(ctx context.Context, page, limit int) ([]SupplierResponse, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Supplier{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count suppliers: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var suppliers []model.Supplier
	if err := s.db.WithContext(ctx).
		Order("company_name ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&suppliers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch suppliers: %w", err)
	}

	res := make([]SupplierResponse, 0, len(suppliers))
	for _, sup := range suppliers {
		res = append(res, toSupplierResponse(sup))
	}
	return res, total, nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id string) (*SupplierResponse, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid supplier id: %w", err)
	}

	var supplier model.Supplier
	if err := s.db.WithContext(ctx).First(&supplier, "id = ?", supplierID).Error; err != nil {
		return nil, fmt.Errorf("supplier not found: %w", err)
	}

	resp := toSupplierResponse(supplier)
	return &resp, nil
}

func (s *supplierService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*SupplierResponse, error) {
	supplier := model.Supplier{
		CompanyName: req.CompanyName,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
	}

	if err := s.db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	resp := toSupplierResponse(supplier)
	return &resp, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, id string, req UpdateSupplierRequest) (*SupplierResponse, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid supplier id: %w", err)
	}

	var supplier model.Supplier
	if err := s.db.WithContext(ctx).First(&supplier, "id = ?", supplierID).Error; err != nil {
		return nil, fmt.Errorf("supplier not found: %w", err)
	}

	supplier.CompanyName = req.CompanyName
	supplier.ContactName = req.ContactName
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address

	if err := s.db.WithContext(ctx).Save(&supplier).Error; err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}

	resp := toSupplierResponse(supplier)
	return &resp, nil
}

func (s *supplierService) DeleteSupplier(ctx context.Context, id string) error {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid supplier id: %w", err)
	}

	var supplier model.Supplier
	if err := s.db.WithContext(ctx).First(&supplier, "id = ?", supplierID).Error; err != nil {
		return fmt.Errorf("supplier not found: %w", err)
	}

	return s.db.WithContext(ctx).Delete(&supplier).Error
}

// --- Helpers ---

func toSupplierResponse(s model.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:          s.ID.String(),
		CompanyName: s.CompanyName,
		ContactName: s.ContactName,
		Phone:       s.Phone,
		Email:       s.Email,
		Address:     s.Address,
		Puan:        s.Puan.String(),
		RatingCount: s.RatingCount,
		CreatedAt:   s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
