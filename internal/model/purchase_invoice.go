package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice approval status enum constants
const (
	InvoicePending  = "PENDING"
	InvoiceApproved = "APPROVED"
	InvoiceRejected = "REJECTED"
)

// Accounting edit field names accepted by ApplyAccountingEdit
const (
	KDVFieldRate   = "kdv_rate"
	KDVFieldAmount = "kdv_amount"
	KDVFieldTotal  = "total"
)

// PurchaseInvoice is an invoice uploaded against a purchase request. The KDV
// columns are filled in during the accounting reconciliation stage.
type PurchaseInvoice struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseRequestID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_request_id"`
	FileURL           string          `gorm:"type:varchar(500);not null" json:"file_url"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"` // Net amount as uploaded
	Status            string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RejectionReason   string          `gorm:"type:text" json:"rejection_reason"`
	KDVRate           decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"kdv_rate"`   // Percent, e.g. 20
	KDVAmount         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"kdv_amount"` // amount * rate/100
	TotalAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	SupplierRated     bool            `gorm:"default:false" json:"supplier_rated"`
	ApprovedBy        *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt        *time.Time      `json:"approved_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

var (
	ErrNegativeKDVValue = errors.New("kdv değerleri negatif olamaz")
	ErrUnknownKDVField  = errors.New("bilinmeyen kdv alanı")
)

// ApplyAccountingEdit applies the one-directional KDV recompute rule to an
// invoice. Editing the rate recomputes kdv amount and total from the net
// amount; editing the kdv amount recomputes the total only; editing the total
// touches nothing else. The result is a pure function of the current values
// and the edit, so repeating the same edit is a no-op.
func ApplyAccountingEdit(inv *PurchaseInvoice, field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return ErrNegativeKDVValue
	}

	switch field {
	case KDVFieldRate:
		inv.KDVRate = value
		inv.KDVAmount = inv.Amount.Mul(value).Div(decimal.NewFromInt(100))
		inv.TotalAmount = inv.Amount.Add(inv.KDVAmount)
	case KDVFieldAmount:
		inv.KDVAmount = value
		inv.TotalAmount = inv.Amount.Add(value)
	case KDVFieldTotal:
		inv.TotalAmount = value
	default:
		return ErrUnknownKDVField
	}

	return nil
}
