package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"portal/internal/model"
	"portal/pkg/filestore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceFileStore persists uploaded invoice files. Satisfied by
// filestore.LocalStore.
type InvoiceFileStore interface {
	Save(ctx context.Context, folder, filename string, r io.Reader) (string, error)
}

// --- DTOs ---

type UploadInvoiceDTO struct {
	RequestID string
	Amount    string // decimal string from the form field
	Filename  string
	Size      int64
	File      io.Reader
}

type PriceCheckActionDTO struct {
	InvoiceID string `json:"invoice_id" binding:"required"`
	Action    string `json:"action" binding:"required,oneof=approve reject rateSupplier"`
	Reason    string `json:"reason"`
	Rating    int    `json:"rating"`
}

type AccountingEditDTO struct {
	InvoiceID string `json:"invoice_id" binding:"required"`
	Field     string `json:"field" binding:"required,oneof=kdv_rate kdv_amount total"`
	Value     string `json:"value" binding:"required"` // decimal string
	Finalize  bool   `json:"finalize"`
}

// UploadInvoice attaches the invoice file and amount to a request waiting at
// the upload stage. A request whose invoice was rejected at the price check
// re-enters here: the new upload clears the rejection and stays at the price
// check stage.
func (s *purchaseService) UploadInvoice(ctx context.Context, req UploadInvoiceDTO, actorID string) (*PurchaseRequestResponse, error) {
	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase request id: %w", err)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() || amount.IsZero() {
		return nil, errors.New("geçersiz fatura tutarı")
	}

	// Server-side re-validation: client checks are bypassable
	if err := filestore.ValidateUpload(req.Filename, req.Size); err != nil {
		return nil, err
	}

	// Check the request and its stage before touching the disk so a
	// wrong-stage or unknown-request upload never leaves an orphan file.
	var current model.PurchaseRequest
	if err := s.db.WithContext(ctx).First(&current, "id = ?", requestID).Error; err != nil {
		return nil, fmt.Errorf("purchase request not found: %w", err)
	}
	if current.Stage != model.StageInvoiceUpload && !(current.Stage == model.StageInvoicePriceCheck && current.Rejected) {
		return nil, fmt.Errorf("talep bu aşamada değil (mevcut aşama: %s)", current.Stage)
	}

	fileURL, err := s.filestore.Save(ctx, "invoices", req.Filename, req.File)
	if err != nil {
		return nil, fmt.Errorf("failed to store invoice file: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request model.PurchaseRequest
		if err := tx.First(&request, "id = ?", requestID).Error; err != nil {
			return fmt.Errorf("purchase request not found: %w", err)
		}

		// Re-check inside the transaction, the stage may have moved since
		// the pre-check.
		resubmission := request.Stage == model.StageInvoicePriceCheck && request.Rejected
		if request.Stage != model.StageInvoiceUpload && !resubmission {
			return fmt.Errorf("talep bu aşamada değil (mevcut aşama: %s)", request.Stage)
		}

		invoice := model.PurchaseInvoice{
			PurchaseRequestID: request.ID,
			FileURL:           fileURL,
			Amount:            amount,
			Status:            model.InvoicePending,
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		if resubmission {
			request.Rejected = false
			request.RejectionReason = ""
			if err := tx.Save(&request).Error; err != nil {
				return fmt.Errorf("failed to update purchase request: %w", err)
			}
		} else if err := s.advanceStage(tx, &request, model.StageInvoicePriceCheck, actorID); err != nil {
			return err
		}

		return writeAudit(tx, actorID, model.ActionUploadInvoice, invoice.ID.String(), request.Material, map[string]interface{}{
			"amount":   req.Amount,
			"file_url": fileURL,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetRequest(ctx, req.RequestID)
}

// HandlePriceCheck serves the per-invoice price check: approve, reject with a
// reason, or record the one-time supplier rating after approval.
func (s *purchaseService) HandlePriceCheck(ctx context.Context, req PriceCheckActionDTO, actorID string) (*PurchaseRequestResponse, error) {
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice id: %w", err)
	}

	var requestIDStr string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice model.PurchaseInvoice
		if err := tx.First(&invoice, "id = ?", invoiceID).Error; err != nil {
			return fmt.Errorf("invoice not found: %w", err)
		}

		var request model.PurchaseRequest
		if err := tx.First(&request, "id = ?", invoice.PurchaseRequestID).Error; err != nil {
			return fmt.Errorf("purchase request not found: %w", err)
		}
		requestIDStr = request.ID.String()

		switch req.Action {
		case PurchaseActionApprove:
			if request.Stage != model.StageInvoicePriceCheck {
				return fmt.Errorf("talep bu aşamada değil (mevcut aşama: %s)", request.Stage)
			}
			if invoice.Status != model.InvoicePending {
				return fmt.Errorf("fatura zaten %s durumunda", invoice.Status)
			}
			now := time.Now()
			invoice.Status = model.InvoiceApproved
			invoice.ApprovedAt = &now
			if approver, parseErr := uuid.Parse(actorID); parseErr == nil {
				invoice.ApprovedBy = &approver
			}
			if err := tx.Save(&invoice).Error; err != nil {
				return fmt.Errorf("failed to approve invoice: %w", err)
			}
			if err := s.advanceStage(tx, &request, model.StageAccounting, actorID); err != nil {
				return err
			}
			return writeAudit(tx, actorID, model.ActionApproveInvoice, invoice.ID.String(), request.Material, nil)

		case PurchaseActionReject:
			if request.Stage != model.StageInvoicePriceCheck {
				return fmt.Errorf("talep bu aşamada değil (mevcut aşama: %s)", request.Stage)
			}
			if invoice.Status != model.InvoicePending {
				return fmt.Errorf("fatura zaten %s durumunda", invoice.Status)
			}
			if req.Reason == "" {
				return errors.New("ret nedeni girilmelidir")
			}
			invoice.Status = model.InvoiceRejected
			invoice.RejectionReason = req.Reason
			if err := tx.Save(&invoice).Error; err != nil {
				return fmt.Errorf("failed to reject invoice: %w", err)
			}
			request.Rejected = true
			request.RejectionReason = req.Reason
			if err := tx.Save(&request).Error; err != nil {
				return fmt.Errorf("failed to update purchase request: %w", err)
			}
			return writeAudit(tx, actorID, model.ActionRejectInvoice, invoice.ID.String(), request.Material, map[string]interface{}{
				"reason": req.Reason,
			})

		case PurchaseActionRateSupplier:
			return s.rateSupplier(tx, &request, &invoice, req.Rating, actorID)

		default:
			return fmt.Errorf("unknown action '%s'", req.Action)
		}
	})
	if err != nil {
		return nil, err
	}

	return s.GetRequest(ctx, requestIDStr)
}

// rateSupplier records a one-time 1-5 rating against the supplier of the
// selected offer and folds it into the running average.
func (s *purchaseService) rateSupplier(tx *gorm.DB, request *model.PurchaseRequest, invoice *model.PurchaseInvoice, rating int, actorID string) error {
	if invoice.Status != model.InvoiceApproved {
		return errors.New("yalnızca onaylanmış faturalar için puan verilebilir")
	}
	if invoice.SupplierRated {
		return errors.New("tedarikçi bu fatura için zaten puanlandı")
	}
	if rating < 1 || rating > 5 {
		return errors.New("puan 1 ile 5 arasında olmalıdır")
	}
	if request.SelectedOfferID == nil {
		return errors.New("talep için seçilmiş teklif bulunamadı")
	}

	var offer model.Offer
	if err := tx.First(&offer, "id = ?", *request.SelectedOfferID).Error; err != nil {
		return fmt.Errorf("selected offer not found: %w", err)
	}

	var supplier model.Supplier
	if err := tx.First(&supplier, "id = ?", offer.SupplierID).Error; err != nil {
		return fmt.Errorf("supplier not found: %w", err)
	}

	supplier.ApplyRating(rating)
	if err := tx.Save(&supplier).Error; err != nil {
		return fmt.Errorf("failed to update supplier rating: %w", err)
	}

	invoice.SupplierRated = true
	if err := tx.Save(invoice).Error; err != nil {
		return fmt.Errorf("failed to mark invoice as rated: %w", err)
	}

	return writeAudit(tx, actorID, model.ActionRateSupplier, supplier.ID.String(), supplier.CompanyName, map[string]interface{}{
		"rating":     rating,
		"invoice_id": invoice.ID.String(),
		"new_puan":   supplier.Puan.String(),
	})
}

// AccountingEdit applies the one-directional KDV recompute rule to an
// approved invoice during reconciliation, optionally completing the request.
func (s *purchaseService) AccountingEdit(ctx context.Context, req AccountingEditDTO, actorID string) (*PurchaseRequestResponse, error) {
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice id: %w", err)
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		return nil, errors.New("geçersiz sayısal değer")
	}

	var requestIDStr string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice model.PurchaseInvoice
		if err := tx.First(&invoice, "id = ?", invoiceID).Error; err != nil {
			return fmt.Errorf("invoice not found: %w", err)
		}
		if invoice.Status != model.InvoiceApproved {
			return errors.New("yalnızca onaylanmış faturalar için mutabakat yapılabilir")
		}

		var request model.PurchaseRequest
		if err := tx.First(&request, "id = ?", invoice.PurchaseRequestID).Error; err != nil {
			return fmt.Errorf("purchase request not found: %w", err)
		}
		requestIDStr = request.ID.String()
		if request.Stage != model.StageAccounting {
			return fmt.Errorf("talep bu aşamada değil (mevcut aşama: %s)", request.Stage)
		}

		if err := model.ApplyAccountingEdit(&invoice, req.Field, value); err != nil {
			return err
		}
		if err := tx.Save(&invoice).Error; err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}

		if err := writeAudit(tx, actorID, model.ActionAccountingEdit, invoice.ID.String(), request.Material, map[string]interface{}{
			"field": req.Field,
			"value": req.Value,
		}); err != nil {
			return err
		}

		if req.Finalize {
			return s.advanceStage(tx, &request, model.StageCompleted, actorID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRequest(ctx, requestIDStr)
}
