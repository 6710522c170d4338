package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Project status enum constants
const (
	ProjectActive    = "ACTIVE"
	ProjectOnHold    = "ON_HOLD"
	ProjectCompleted = "COMPLETED"
)

// Project tracks an ongoing customer project and its issued invoices.
type Project struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string           `gorm:"type:varchar(255);not null" json:"name"`
	Customer    string           `gorm:"type:varchar(255);not null" json:"customer"`
	Description string           `gorm:"type:text" json:"description"`
	Status      string           `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	Budget      decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"budget"`
	Invoices    []ProjectInvoice `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"invoices"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// ProjectInvoice is an invoice issued against a project.
type ProjectInvoice struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	InvoiceNo string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	IssuedAt  time.Time       `gorm:"type:date;not null" json:"issued_at"`
	Paid      bool            `gorm:"default:false;index" json:"paid"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
