package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase request stage enum constants. The pipeline moves strictly forward;
// a rejection marks the request rejected at its current stage and is recovered
// by resubmitting offers at that same stage, never by restarting the pipeline.
const (
	StageOfferCollection   = "OFFER_COLLECTION"    // offers entered, first approval
	StageOfferSelection    = "OFFER_SELECTION"     // winning offer picked, manager approval
	StageInvoiceUpload     = "INVOICE_UPLOAD"      // invoice file + amount expected
	StageInvoicePriceCheck = "INVOICE_PRICE_CHECK" // per-invoice price approval
	StageAccounting        = "ACCOUNTING"          // KDV reconciliation
	StageCompleted         = "COMPLETED"
)

// stageTransitions is the legal forward-transition table. Anything not listed
// here is rejected at the API boundary.
var stageTransitions = map[string]string{
	StageOfferCollection:   StageOfferSelection,
	StageOfferSelection:    StageInvoiceUpload,
	StageInvoiceUpload:     StageInvoicePriceCheck,
	StageInvoicePriceCheck: StageAccounting,
	StageAccounting:        StageCompleted,
}

// NextStage returns the stage that follows current, or false if current is
// terminal or unknown.
func NextStage(current string) (string, bool) {
	next, ok := stageTransitions[current]
	return next, ok
}

// CanTransition reports whether moving from one stage to another is legal.
func CanTransition(from, to string) bool {
	next, ok := stageTransitions[from]
	return ok && next == to
}

// PurchaseRequest is a material purchase moving through the approval pipeline.
// The stage column is the single source of truth for where the request stands;
// Rejected marks a recoverable rejection at the current stage.
type PurchaseRequest struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequesterID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"requester_id"`
	Requester       *User             `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Material        string            `gorm:"type:varchar(255);not null" json:"material"`
	Unit            string            `gorm:"type:varchar(50);not null" json:"unit"`
	Quantity        decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Justification   string            `gorm:"type:text" json:"justification"`
	Category        string            `gorm:"type:varchar(100);index" json:"category"`
	Stage           string            `gorm:"type:varchar(30);not null;default:'OFFER_COLLECTION';index" json:"stage"`
	Rejected        bool              `gorm:"default:false;index" json:"rejected"`
	RejectionReason string            `gorm:"type:text" json:"rejection_reason"`
	Offers          []Offer           `gorm:"foreignKey:PurchaseRequestID;constraint:OnDelete:CASCADE" json:"offers"`
	SelectedOfferID *uuid.UUID        `gorm:"type:uuid" json:"selected_offer_id"`
	SelectedOffer   *Offer            `gorm:"foreignKey:SelectedOfferID" json:"selected_offer,omitempty"`
	Invoices        []PurchaseInvoice `gorm:"foreignKey:PurchaseRequestID;constraint:OnDelete:CASCADE" json:"invoices"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"index" json:"-"`
}

// Offer is a supplier price quote attached to a purchase request. Position
// preserves the order the offers were entered in, which is what the selection
// index refers to.
type Offer struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseRequestID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_request_id"`
	SupplierID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	SupplierName      string          `gorm:"type:varchar(255);not null" json:"supplier_name"`
	Price             decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Position          int             `gorm:"not null" json:"position"`
	CreatedAt         time.Time       `json:"created_at"`
}

// IdempotencyKey records a processed Idempotency-Key header for a purchase
// request so a double-submitted approval action is not applied twice.
type IdempotencyKey struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseRequestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_request_idem_key" json:"purchase_request_id"`
	Key               string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_request_idem_key" json:"key"`
	Action            string    `gorm:"type:varchar(50);not null" json:"action"`
	CreatedAt         time.Time `json:"created_at"`
}
