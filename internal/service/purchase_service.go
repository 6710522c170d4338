package service

import (
	"context"
	"errors"
	"fmt"

	"portal/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase action constants, matching the client's action field values.
const (
	PurchaseActionApprove      = "approve"
	PurchaseActionReject       = "reject"
	PurchaseActionSaveOffers   = "saveOffers"
	PurchaseActionNewOffer     = "newOffer"
	PurchaseActionRateSupplier = "rateSupplier"
)

// --- DTOs ---

type CreatePurchaseRequestDTO struct {
	Material      string `json:"material" binding:"required"`
	Unit          string `json:"unit" binding:"required"`
	Quantity      string `json:"quantity" binding:"required"` // decimal string
	Justification string `json:"justification"`
	Category      string `json:"category"`
}

type OfferInput struct {
	SupplierID   string `json:"supplier_id" binding:"required"`
	SupplierName string `json:"supplier_name"`
	Price        string `json:"price" binding:"required"` // decimal string
}

// OfferCollectionActionDTO drives the second-approval endpoint.
type OfferCollectionActionDTO struct {
	RequestID string       `json:"request_id" binding:"required"`
	Action    string       `json:"action" binding:"required,oneof=approve reject saveOffers"`
	Offers    []OfferInput `json:"offers"`
	Reason    string       `json:"reason"`
}

// OfferSelectionActionDTO drives the third-approval endpoint.
type OfferSelectionActionDTO struct {
	RequestID          string       `json:"request_id" binding:"required"`
	Action             string       `json:"action" binding:"required,oneof=approve reject newOffer"`
	SelectedOfferIndex *int         `json:"selected_offer_index"`
	Offers             []OfferInput `json:"offers"`
	Reason             string       `json:"reason"`
}

type PurchaseFilter struct {
	Stage    string
	Rejected *bool
	Page     int
	Limit    int
}

type OfferResponse struct {
	ID           string `json:"id"`
	SupplierID   string `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
	Price        string `json:"price"`
	Position     int    `json:"position"`
}

type PurchaseInvoiceResponse struct {
	ID              string `json:"id"`
	FileURL         string `json:"file_url"`
	Amount          string `json:"amount"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	KDVRate         string `json:"kdv_rate"`
	KDVAmount       string `json:"kdv_amount"`
	TotalAmount     string `json:"total_amount"`
	SupplierRated   bool   `json:"supplier_rated"`
}

type PurchaseRequestResponse struct {
	ID              string                    `json:"id"`
	RequesterID     string                    `json:"requester_id"`
	RequesterName   string                    `json:"requester_name,omitempty"`
	Material        string                    `json:"material"`
	Unit            string                    `json:"unit"`
	Quantity        string                    `json:"quantity"`
	Justification   string                    `json:"justification"`
	Category        string                    `json:"category"`
	Stage           string                    `json:"stage"`
	Rejected        bool                      `json:"rejected"`
	RejectionReason string                    `json:"rejection_reason,omitempty"`
	Offers          []OfferResponse           `json:"offers"`
	SelectedOfferID string                    `json:"selected_offer_id,omitempty"`
	Invoices        []PurchaseInvoiceResponse `json:"invoices"`
	CreatedAt       string                    `json:"created_at"`
}

// --- Interface ---

type PurchaseService interface {
	CreateRequest(ctx context.Context, req CreatePurchaseRequestDTO, requesterID string) (*PurchaseRequestResponse, error)
	ListRequests(ctx context.Context, filter PurchaseFilter) ([]PurchaseRequestResponse, int64, error)
	GetRequest(ctx context.Context, id string) (*PurchaseRequestResponse, error)
	HandleOfferCollection(ctx context.Context, req OfferCollectionActionDTO, actorID, idemKey string) (*PurchaseRequestResponse, error)
	HandleOfferSelection(ctx context.Context, req OfferSelectionActionDTO, actorID, idemKey string) (*PurchaseRequestResponse, error)
	UploadInvoice(ctx context.Context, req UploadInvoiceDTO, actorID string) (*PurchaseRequestResponse, error)
	HandlePriceCheck(ctx context.Context, req PriceCheckActionDTO, actorID string) (*PurchaseRequestResponse, error)
	AccountingEdit(ctx context.Context, req AccountingEditDTO, actorID string) (*PurchaseRequestResponse, error)
}

// StageNotifier pushes stage-change events to connected dashboard clients.
type StageNotifier interface {
	BroadcastStageChange(requestID, stage string)
}

type purchaseService struct {
	db        *gorm.DB
	filestore InvoiceFileStore
	notifier  StageNotifier // optional
}

func NewPurchaseService(db *gorm.DB, store InvoiceFileStore, notifier StageNotifier) PurchaseService {
	return &purchaseService{db: db, filestore: store, notifier: notifier}
}

// errIdempotentReplay signals that the idempotency key was already processed:
// the caller returns the current state without reapplying the action.
var errIdempotentReplay = errors.New("idempotent replay")

// --- Implementation ---

func (s *purchaseService) CreateRequest(ctx context.Context, req CreatePurchaseRequestDTO, requesterID string) (*PurchaseRequestResponse, error) {
	reqID, err := uuid.Parse(requesterID)
	if err != nil {
		return nil, fmt.Errorf("invalid requester id: %w", err)
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil || quantity.IsNegative() || quantity.IsZero() {
		return nil, errors.New("geçersiz miktar")
	}

	request := model.PurchaseRequest{
		RequesterID:   reqID,
		Material:      req.Material,
		Unit:          req.Unit,
		Quantity:      quantity,
		Justification: req.Justification,
		Category:      req.Category,
		Stage:         model.StageOfferCollection,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return fmt.Errorf("failed to create purchase request: %w", err)
		}
		return writeAudit(tx, requesterID, model.ActionCreatePurchaseRequest, request.ID.String(), req.Material, req)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRequest(ctx, request.ID.String())
}

func (s *purchaseService) ListRequests(ctx context.Context, filter PurchaseFilter) ([]PurchaseRequestResponse, int64, error) {
	var total int64
	query := s.db.WithContext(ctx).Model(&model.PurchaseRequest{})
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.Rejected != nil {
		query = query.Where("rejected = ?", *filter.Rejected)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count purchase requests: %w", err)
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	var requests []model.PurchaseRequest
	fetch := s.db.WithContext(ctx).
		Preload("Requester").
		Preload("Offers", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Invoices")
	if filter.Stage != "" {
		fetch = fetch.Where("stage = ?", filter.Stage)
	}
	if filter.Rejected != nil {
		fetch = fetch.Where("rejected = ?", *filter.Rejected)
	}
	if err := fetch.
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch purchase requests: %w", err)
	}

	res := make([]PurchaseRequestResponse, 0, len(requests))
	for _, r := range requests {
		res = append(res, toPurchaseResponse(r))
	}
	return res, total, nil
}

func (s *purchaseService) GetRequest(ctx context.Context, id string) (*PurchaseRequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase request id: %w", err)
	}

	var request model.PurchaseRequest
	if err := s.db.WithContext(ctx).
		Preload("Requester").
		Preload("Offers", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Invoices").
		First(&request, "id = ?", requestID).Error; err != nil {
		return nil, fmt.Errorf("purchase request not found: %w", err)
	}

	resp := toPurchaseResponse(request)
	return &resp, nil
}

// HandleOfferCollection serves the offer-collection approval. Offers can be
// saved without advancing; approving requires at least one persisted offer;
// rejecting requires a reason and keeps the offers. Saving offers on a
// rejected request clears the rejection, re-entering the pipeline at this
// same stage.
func (s *purchaseService) HandleOfferCollection(ctx context.Context, req OfferCollectionActionDTO, actorID, idemKey string) (*PurchaseRequestResponse, error) {
	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase request id: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The replay check must run before the stage guard: a retried
		// approve that already advanced the request is a replay, not a
		// wrong-stage error.
		if replay, err := checkIdempotency(tx, requestID, idemKey, req.Action); err != nil {
			return err
		} else if replay {
			return errIdempotentReplay
		}
		request, err := loadAtStage(tx, requestID, model.StageOfferCollection)
		if err != nil {
			return err
		}

		switch req.Action {
		case PurchaseActionSaveOffers:
			if len(req.Offers) == 0 {
				return errors.New("en az bir teklif girilmelidir")
			}
			if err := replaceOffers(tx, request, req.Offers); err != nil {
				return err
			}
			// Resubmitted offers recover a rejected request
			request.Rejected = false
			request.RejectionReason = ""
			if err := tx.Save(request).Error; err != nil {
				return fmt.Errorf("failed to update purchase request: %w", err)
			}
			return writeAudit(tx, actorID, model.ActionSaveOffers, request.ID.String(), request.Material, req.Offers)

		case PurchaseActionApprove:
			if request.Rejected {
				return errors.New("reddedilmiş talep onaylanamaz, önce yeni teklif girilmelidir")
			}
			var offerCount int64
			if err := tx.Model(&model.Offer{}).Where("purchase_request_id = ?", request.ID).Count(&offerCount).Error; err != nil {
				return fmt.Errorf("failed to count offers: %w", err)
			}
			if offerCount == 0 {
				return errors.New("en az bir teklif girilmelidir")
			}
			return s.advanceStage(tx, request, model.StageOfferSelection, actorID)

		case PurchaseActionReject:
			return rejectAtStage(tx, request, req.Reason, actorID)

		default:
			return fmt.Errorf("unknown action '%s'", req.Action)
		}
	})

	if err != nil && !errors.Is(err, errIdempotentReplay) {
		return nil, err
	}
	return s.GetRequest(ctx, req.RequestID)
}

// HandleOfferSelection serves the final offer selection. Approving finalizes
// the selected offer by list index and moves the request to invoice upload.
// When the request sits rejected, the only way forward is newOffer, which
// resets it to pending at this same stage.
func (s *purchaseService) HandleOfferSelection(ctx context.Context, req OfferSelectionActionDTO, actorID, idemKey string) (*PurchaseRequestResponse, error) {
	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase request id: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replay, err := checkIdempotency(tx, requestID, idemKey, req.Action); err != nil {
			return err
		} else if replay {
			return errIdempotentReplay
		}
		request, err := loadAtStage(tx, requestID, model.StageOfferSelection)
		if err != nil {
			return err
		}

		switch req.Action {
		case PurchaseActionApprove:
			if request.Rejected {
				return errors.New("reddedilmiş talep onaylanamaz, önce yeni teklif girilmelidir")
			}
			var offers []model.Offer
			if err := tx.Where("purchase_request_id = ?", request.ID).Order("position ASC").Find(&offers).Error; err != nil {
				return fmt.Errorf("failed to fetch offers: %w", err)
			}
			if req.SelectedOfferIndex == nil {
				return errors.New("teklif seçimi zorunludur")
			}
			idx := *req.SelectedOfferIndex
			if idx < 0 || idx >= len(offers) {
				return errors.New("geçersiz teklif seçimi")
			}
			request.SelectedOfferID = &offers[idx].ID
			return s.advanceStage(tx, request, model.StageInvoiceUpload, actorID)

		case PurchaseActionReject:
			return rejectAtStage(tx, request, req.Reason, actorID)

		case PurchaseActionNewOffer:
			if !request.Rejected {
				return errors.New("yeni teklif yalnızca reddedilmiş talepler için girilebilir")
			}
			if len(req.Offers) == 0 {
				return errors.New("en az bir teklif girilmelidir")
			}
			if err := replaceOffers(tx, request, req.Offers); err != nil {
				return err
			}
			request.Rejected = false
			request.RejectionReason = ""
			request.SelectedOfferID = nil
			if err := tx.Save(request).Error; err != nil {
				return fmt.Errorf("failed to update purchase request: %w", err)
			}
			return writeAudit(tx, actorID, model.ActionSaveOffers, request.ID.String(), request.Material, req.Offers)

		default:
			return fmt.Errorf("unknown action '%s'", req.Action)
		}
	})

	if err != nil && !errors.Is(err, errIdempotentReplay) {
		return nil, err
	}
	return s.GetRequest(ctx, req.RequestID)
}

// --- shared stage helpers ---

// loadAtStage loads the request and verifies it sits at the expected stage.
// Concurrent submissions resolve last-writer-wins, so no row lock is taken.
func loadAtStage(tx *gorm.DB, requestID uuid.UUID, expectedStage string) (*model.PurchaseRequest, error) {
	var request model.PurchaseRequest
	if err := tx.First(&request, "id = ?", requestID).Error; err != nil {
		return nil, fmt.Errorf("purchase request not found: %w", err)
	}
	if request.Stage != expectedStage {
		return nil, fmt.Errorf("talep bu aşamada değil (mevcut aşama: %s)", request.Stage)
	}
	return &request, nil
}

// checkIdempotency records the key and reports true when it was seen before.
func checkIdempotency(tx *gorm.DB, requestID uuid.UUID, key, action string) (bool, error) {
	if key == "" {
		return false, nil
	}
	var existing model.IdempotencyKey
	err := tx.Where("purchase_request_id = ? AND key = ?", requestID, key).First(&existing).Error
	if err == nil {
		// A key is bound to the action it was first used with. Reusing it
		// for another action is a client bug, not a replay.
		if existing.Action != action {
			return false, fmt.Errorf("idempotency anahtarı başka bir işlem için kullanılmış: %s", existing.Action)
		}
		return true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	record := model.IdempotencyKey{PurchaseRequestID: requestID, Key: key, Action: action}
	if err := tx.Create(&record).Error; err != nil {
		return false, fmt.Errorf("failed to record idempotency key: %w", err)
	}
	return false, nil
}

// advanceStage moves the request to the next stage after validating the
// transition against the legal-transition table.
func (s *purchaseService) advanceStage(tx *gorm.DB, request *model.PurchaseRequest, to, actorID string) error {
	if !model.CanTransition(request.Stage, to) {
		return fmt.Errorf("geçersiz aşama geçişi: %s -> %s", request.Stage, to)
	}
	from := request.Stage
	request.Stage = to
	request.Rejected = false
	request.RejectionReason = ""
	if err := tx.Save(request).Error; err != nil {
		return fmt.Errorf("failed to advance stage: %w", err)
	}

	if err := writeAudit(tx, actorID, model.ActionApproveStage, request.ID.String(), request.Material, map[string]interface{}{
		"from": from,
		"to":   to,
	}); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.BroadcastStageChange(request.ID.String(), to)
	}
	return nil
}

// rejectAtStage marks the request rejected at its current stage. Offers are
// kept; the reason is mandatory.
func rejectAtStage(tx *gorm.DB, request *model.PurchaseRequest, reason, actorID string) error {
	if reason == "" {
		return errors.New("ret nedeni girilmelidir")
	}
	request.Rejected = true
	request.RejectionReason = reason
	if err := tx.Save(request).Error; err != nil {
		return fmt.Errorf("failed to reject purchase request: %w", err)
	}
	return writeAudit(tx, actorID, model.ActionRejectStage, request.ID.String(), request.Material, map[string]interface{}{
		"stage":  request.Stage,
		"reason": reason,
	})
}

// replaceOffers swaps the request's full offer list, validating supplier ids
// and prices.
func replaceOffers(tx *gorm.DB, request *model.PurchaseRequest, inputs []OfferInput) error {
	offers := make([]model.Offer, 0, len(inputs))
	for i, in := range inputs {
		supplierID, err := uuid.Parse(in.SupplierID)
		if err != nil {
			return fmt.Errorf("invalid supplier id '%s': %w", in.SupplierID, err)
		}
		price, err := decimal.NewFromString(in.Price)
		if err != nil || price.IsNegative() || price.IsZero() {
			return errors.New("geçersiz teklif fiyatı")
		}

		name := in.SupplierName
		if name == "" {
			var supplier model.Supplier
			if err := tx.First(&supplier, "id = ?", supplierID).Error; err != nil {
				return fmt.Errorf("supplier not found: %w", err)
			}
			name = supplier.CompanyName
		}

		offers = append(offers, model.Offer{
			PurchaseRequestID: request.ID,
			SupplierID:        supplierID,
			SupplierName:      name,
			Price:             price,
			Position:          i,
		})
	}

	if err := tx.Where("purchase_request_id = ?", request.ID).Delete(&model.Offer{}).Error; err != nil {
		return fmt.Errorf("failed to clear offers: %w", err)
	}
	if err := tx.Create(&offers).Error; err != nil {
		return fmt.Errorf("failed to save offers: %w", err)
	}
	return nil
}

// --- Response mapping ---

func toPurchaseResponse(r model.PurchaseRequest) PurchaseRequestResponse {
	resp := PurchaseRequestResponse{
		ID:              r.ID.String(),
		RequesterID:     r.RequesterID.String(),
		Material:        r.Material,
		Unit:            r.Unit,
		Quantity:        r.Quantity.String(),
		Justification:   r.Justification,
		Category:        r.Category,
		Stage:           r.Stage,
		Rejected:        r.Rejected,
		RejectionReason: r.RejectionReason,
		Offers:          make([]OfferResponse, 0, len(r.Offers)),
		Invoices:        make([]PurchaseInvoiceResponse, 0, len(r.Invoices)),
		CreatedAt:       r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if r.Requester != nil {
		resp.RequesterName = r.Requester.FirstName + " " + r.Requester.LastName
	}
	if r.SelectedOfferID != nil {
		resp.SelectedOfferID = r.SelectedOfferID.String()
	}
	for _, o := range r.Offers {
		resp.Offers = append(resp.Offers, OfferResponse{
			ID:           o.ID.String(),
			SupplierID:   o.SupplierID.String(),
			SupplierName: o.SupplierName,
			Price:        o.Price.String(),
			Position:     o.Position,
		})
	}
	for _, inv := range r.Invoices {
		resp.Invoices = append(resp.Invoices, PurchaseInvoiceResponse{
			ID:              inv.ID.String(),
			FileURL:         inv.FileURL,
			Amount:          inv.Amount.String(),
			Status:          inv.Status,
			RejectionReason: inv.RejectionReason,
			KDVRate:         inv.KDVRate.String(),
			KDVAmount:       inv.KDVAmount.String(),
			TotalAmount:     inv.TotalAmount.String(),
			SupplierRated:   inv.SupplierRated,
		})
	}
	return resp
}
