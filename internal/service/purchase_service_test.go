package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"portal/internal/model"
)

type fakeFileStore struct{}

func (fakeFileStore) Save(_ context.Context, folder, filename string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	return "/uploads/" + folder + "/" + filename, nil
}

func TestPurchaseWorkflowHappyPath(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "requester")
	sup1 := createTestSupplier(t, db, "Demir A.Ş.")
	sup2 := createTestSupplier(t, db, "Çelik Ltd.")

	svc := NewPurchaseService(db, fakeFileStore{}, nil)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, CreatePurchaseRequestDTO{
		Material: "Çelik levha",
		Unit:     "kg",
		Quantity: "500",
	}, user.ID.String())
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if req.Stage != model.StageOfferCollection {
		t.Fatalf("new request stage = %s", req.Stage)
	}

	// Approving before any offer exists must fail
	if _, err := svc.HandleOfferCollection(ctx, OfferCollectionActionDTO{
		RequestID: req.ID,
		Action:    PurchaseActionApprove,
	}, user.ID.String(), ""); err == nil {
		t.Fatal("expected error approving without offers")
	}

	offers := []OfferInput{
		{SupplierID: sup1.ID.String(), Price: "1000"},
		{SupplierID: sup2.ID.String(), Price: "950"},
	}
	res, err := svc.HandleOfferCollection(ctx, OfferCollectionActionDTO{
		RequestID: req.ID,
		Action:    PurchaseActionSaveOffers,
		Offers:    offers,
	}, user.ID.String(), "")
	if err != nil {
		t.Fatalf("save offers: %v", err)
	}
	if len(res.Offers) != 2 || res.Stage != model.StageOfferCollection {
		t.Fatalf("after saveOffers: offers=%d stage=%s", len(res.Offers), res.Stage)
	}
	// Supplier name resolved from the supplier record when omitted
	if res.Offers[0].SupplierName != "Demir A.Ş." {
		t.Errorf("offer supplier name = %q", res.Offers[0].SupplierName)
	}

	res, err = svc.HandleOfferCollection(ctx, OfferCollectionActionDTO{
		RequestID: req.ID,
		Action:    PurchaseActionApprove,
	}, user.ID.String(), "")
	if err != nil {
		t.Fatalf("approve collection: %v", err)
	}
	if res.Stage != model.StageOfferSelection {
		t.Fatalf("stage after approve = %s", res.Stage)
	}

	// Selection approval needs a valid index
	bad := 7
	if _, err := svc.HandleOfferSelection(ctx, OfferSelectionActionDTO{
		RequestID:          req.ID,
		Action:             PurchaseActionApprove,
		SelectedOfferIndex: &bad,
	}, user.ID.String(), ""); err == nil {
		t.Fatal("expected error for out-of-range offer index")
	}

	idx := 1
	res, err = svc.HandleOfferSelection(ctx, OfferSelectionActionDTO{
		RequestID:          req.ID,
		Action:             PurchaseActionApprove,
		SelectedOfferIndex: &idx,
	}, user.ID.String(), "")
	if err != nil {
		t.Fatalf("approve selection: %v", err)
	}
	if res.Stage != model.StageInvoiceUpload {
		t.Fatalf("stage after selection = %s", res.Stage)
	}
	if res.SelectedOfferID != res.Offers[1].ID {
		t.Fatalf("selected offer = %s, want %s", res.SelectedOfferID, res.Offers[1].ID)
	}

	// Bad extension blocked server-side
	if _, err := svc.UploadInvoice(ctx, UploadInvoiceDTO{
		RequestID: req.ID,
		Amount:    "950",
		Filename:  "fatura.exe",
		Size:      100,
		File:      strings.NewReader("MZ"),
	}, user.ID.String()); err == nil {
		t.Fatal("expected error for disallowed file type")
	}

	res, err = svc.UploadInvoice(ctx, UploadInvoiceDTO{
		RequestID: req.ID,
		Amount:    "950",
		Filename:  "fatura.pdf",
		Size:      2048,
		File:      strings.NewReader("%PDF-1.4"),
	}, user.ID.String())
	if err != nil {
		t.Fatalf("upload invoice: %v", err)
	}
	if res.Stage != model.StageInvoicePriceCheck || len(res.Invoices) != 1 {
		t.Fatalf("after upload: stage=%s invoices=%d", res.Stage, len(res.Invoices))
	}
	invoiceID := res.Invoices[0].ID

	// Rejection at price check requires a reason
	if _, err := svc.HandlePriceCheck(ctx, PriceCheckActionDTO{
		InvoiceID: invoiceID,
		Action:    PurchaseActionReject,
	}, user.ID.String()); err == nil {
		t.Fatal("expected error rejecting without a reason")
	}

	res, err = svc.HandlePriceCheck(ctx, PriceCheckActionDTO{
		InvoiceID: invoiceID,
		Action:    PurchaseActionApprove,
	}, user.ID.String())
	if err != nil {
		t.Fatalf("approve invoice: %v", err)
	}
	if res.Stage != model.StageAccounting || res.Invoices[0].Status != model.InvoiceApproved {
		t.Fatalf("after invoice approve: stage=%s status=%s", res.Stage, res.Invoices[0].Status)
	}

	// One-time supplier rating after approval
	if _, err := svc.HandlePriceCheck(ctx, PriceCheckActionDTO{
		InvoiceID: invoiceID,
		Action:    PurchaseActionRateSupplier,
		Rating:    5,
	}, user.ID.String()); err != nil {
		t.Fatalf("rate supplier: %v", err)
	}
	var rated model.Supplier
	if err := db.First(&rated, "id = ?", sup2.ID).Error; err != nil {
		t.Fatalf("reload supplier: %v", err)
	}
	if rated.RatingCount != 1 || rated.Puan.String() != "5" {
		t.Fatalf("supplier rating: count=%d puan=%s", rated.RatingCount, rated.Puan)
	}
	if _, err := svc.HandlePriceCheck(ctx, PriceCheckActionDTO{
		InvoiceID: invoiceID,
		Action:    PurchaseActionRateSupplier,
		Rating:    4,
	}, user.ID.String()); err == nil {
		t.Fatal("expected error rating the same invoice twice")
	}

	res, err = svc.AccountingEdit(ctx, AccountingEditDTO{
		InvoiceID: invoiceID,
		Field:     model.KDVFieldRate,
		Value:     "20",
	}, user.ID.String())
	if err != nil {
		t.Fatalf("kdv edit: %v", err)
	}
	if res.Invoices[0].KDVAmount != "190" || res.Invoices[0].TotalAmount != "1140" {
		t.Fatalf("kdv recompute: kdv=%s total=%s", res.Invoices[0].KDVAmount, res.Invoices[0].TotalAmount)
	}

	res, err = svc.AccountingEdit(ctx, AccountingEditDTO{
		InvoiceID: invoiceID,
		Field:     model.KDVFieldTotal,
		Value:     "1140",
		Finalize:  true,
	}, user.ID.String())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.Stage != model.StageCompleted {
		t.Fatalf("final stage = %s", res.Stage)
	}

	// Completed requests accept no further accounting edits
	if _, err := svc.AccountingEdit(ctx, AccountingEditDTO{
		InvoiceID: invoiceID,
		Field:     model.KDVFieldTotal,
		Value:     "1200",
	}, user.ID.String()); err == nil {
		t.Fatal("expected error editing a completed request")
	}
}

func TestPurchaseRejectionRecovery(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "requester")
	sup := createTestSupplier(t, db, "Demir A.Ş.")

	svc := NewPurchaseService(db, fakeFileStore{}, nil)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, CreatePurchaseRequestDTO{Material: "Vida", Unit: "adet", Quantity: "100"}, user.ID.String())
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	offers := []OfferInput{{SupplierID: sup.ID.String(), Price: "10"}}
	if _, err := svc.HandleOfferCollection(ctx, OfferCollectionActionDTO{RequestID: req.ID, Action: PurchaseActionSaveOffers, Offers: offers}, user.ID.String(), ""); err != nil {
		t.Fatalf("save offers: %v", err)
	}
	if _, err := svc.HandleOfferCollection(ctx, OfferCollectionActionDTO{RequestID: req.ID, Action: PurchaseActionApprove}, user.ID.String(), ""); err != nil {
		t.Fatalf("approve collection: %v", err)
	}

	// Reject at selection, offers are kept
	res, err := svc.HandleOfferSelection(ctx, OfferSelectionActionDTO{
		RequestID: req.ID,
		Action:    PurchaseActionReject,
		Reason:    "fiyat çok yüksek",
	}, user.ID.String(), "")
	if err != nil {
		t.Fatalf("reject selection: %v", err)
	}
	if !res.Rejected || res.Stage != model.StageOfferSelection || len(res.Offers) != 1 {
		t.Fatalf("after reject: rejected=%v stage=%s offers=%d", res.Rejected, res.Stage, len(res.Offers))
	}

	// Approving a rejected request is blocked
	idx := 0
	if _, err := svc.HandleOfferSelection(ctx, OfferSelectionActionDTO{
		RequestID:          req.ID,
		Action:             PurchaseActionApprove,
		SelectedOfferIndex: &idx,
	}, user.ID.String(), ""); err == nil {
		t.Fatal("expected error approving a rejected request")
	}

	// newOffer resets the rejection with a fresh offer list
	res, err = svc.HandleOfferSelection(ctx, OfferSelectionActionDTO{
		RequestID: req.ID,
		Action:    PurchaseActionNewOffer,
		Offers:    []OfferInput{{SupplierID: sup.ID.String(), Price: "8"}},
	}, user.ID.String(), "")
	if err != nil {
		t.Fatalf("newOffer: %v", err)
	}
	if res.Rejected || res.RejectionReason != "" {
		t.Fatalf("rejection not cleared: %+v", res)
	}
	if len(res.Offers) != 1 || res.Offers[0].Price != "8" {
		t.Fatalf("offers not replaced: %+v", res.Offers)
	}

	// newOffer on a request that was never rejected is invalid
	if _, err := svc.HandleOfferSelection(ctx, OfferSelectionActionDTO{
		RequestID: req.ID,
		Action:    PurchaseActionNewOffer,
		Offers:    []OfferInput{{SupplierID: sup.ID.String(), Price: "7"}},
	}, user.ID.String(), ""); err == nil {
		t.Fatal("expected error for newOffer on non-rejected request")
	}
}

func TestPurchaseIdempotencyReplay(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "requester")
	sup := createTestSupplier(t, db, "Demir A.Ş.")

	svc := NewPurchaseService(db, fakeFileStore{}, nil)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, CreatePurchaseRequestDTO{Material: "Boya", Unit: "lt", Quantity: "20"}, user.ID.String())
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	offers := []OfferInput{{SupplierID: sup.ID.String(), Price: "50"}}
	if _, err := svc.HandleOfferCollection(ctx, OfferCollectionActionDTO{RequestID: req.ID, Action: PurchaseActionSaveOffers, Offers: offers}, user.ID.String(), ""); err != nil {
		t.Fatalf("save offers: %v", err)
	}

	res, err := svc.HandleOfferCollection(ctx, OfferCollectionActionDTO{
		RequestID: req.ID,
		Action:    PurchaseActionApprove,
	}, user.ID.String(), "key-123")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.Stage != model.StageOfferSelection {
		t.Fatalf("stage = %s", res.Stage)
	}

	// Same key again: no error, no double-advance, current state returned.
	// The stage guard alone would reject this; the key makes it a clean replay.
	res, err = svc.HandleOfferCollection(ctx, OfferCollectionActionDTO{
		RequestID: req.ID,
		Action:    PurchaseActionApprove,
	}, user.ID.String(), "key-123")
	if err != nil {
		t.Fatalf("replay returned error: %v", err)
	}
	if res.Stage != model.StageOfferSelection {
		t.Fatalf("stage after replay = %s", res.Stage)
	}

	var keys int64
	if err := db.Model(&model.IdempotencyKey{}).Count(&keys).Error; err != nil {
		t.Fatalf("count keys: %v", err)
	}
	if keys != 1 {
		t.Fatalf("idempotency keys = %d, want 1", keys)
	}

	// Same key, different action: not a replay, must fail loudly.
	if _, err := svc.HandleOfferCollection(ctx, OfferCollectionActionDTO{
		RequestID: req.ID,
		Action:    PurchaseActionReject,
		Reason:    "fiyat yüksek",
	}, user.ID.String(), "key-123"); err == nil {
		t.Fatal("expected error when reusing a key for a different action")
	}
}

func TestInvoiceRejectionResubmission(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "requester")
	sup := createTestSupplier(t, db, "Demir A.Ş.")

	svc := NewPurchaseService(db, fakeFileStore{}, nil)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, CreatePurchaseRequestDTO{Material: "Kablo", Unit: "m", Quantity: "300"}, user.ID.String())
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	offers := []OfferInput{{SupplierID: sup.ID.String(), Price: "120"}}
	if _, err := svc.HandleOfferCollection(ctx, OfferCollectionActionDTO{RequestID: req.ID, Action: PurchaseActionSaveOffers, Offers: offers}, user.ID.String(), ""); err != nil {
		t.Fatalf("save offers: %v", err)
	}
	if _, err := svc.HandleOfferCollection(ctx, OfferCollectionActionDTO{RequestID: req.ID, Action: PurchaseActionApprove}, user.ID.String(), ""); err != nil {
		t.Fatalf("approve collection: %v", err)
	}
	idx := 0
	if _, err := svc.HandleOfferSelection(ctx, OfferSelectionActionDTO{RequestID: req.ID, Action: PurchaseActionApprove, SelectedOfferIndex: &idx}, user.ID.String(), ""); err != nil {
		t.Fatalf("approve selection: %v", err)
	}
	res, err := svc.UploadInvoice(ctx, UploadInvoiceDTO{
		RequestID: req.ID, Amount: "120", Filename: "fatura.pdf", Size: 100, File: strings.NewReader("%PDF"),
	}, user.ID.String())
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	res, err = svc.HandlePriceCheck(ctx, PriceCheckActionDTO{
		InvoiceID: res.Invoices[0].ID,
		Action:    PurchaseActionReject,
		Reason:    "tutar teklifle uyuşmuyor",
	}, user.ID.String())
	if err != nil {
		t.Fatalf("reject invoice: %v", err)
	}
	if !res.Rejected || res.Stage != model.StageInvoicePriceCheck {
		t.Fatalf("after reject: rejected=%v stage=%s", res.Rejected, res.Stage)
	}

	// A corrected upload clears the rejection and stays at the price check
	res, err = svc.UploadInvoice(ctx, UploadInvoiceDTO{
		RequestID: req.ID, Amount: "118", Filename: "fatura-v2.pdf", Size: 100, File: strings.NewReader("%PDF"),
	}, user.ID.String())
	if err != nil {
		t.Fatalf("resubmit upload: %v", err)
	}
	if res.Rejected || res.Stage != model.StageInvoicePriceCheck {
		t.Fatalf("after resubmit: rejected=%v stage=%s", res.Rejected, res.Stage)
	}
	if len(res.Invoices) != 2 {
		t.Fatalf("invoice count = %d, want 2", len(res.Invoices))
	}
}

type countingFileStore struct {
	saves int
}

func (c *countingFileStore) Save(_ context.Context, folder, filename string, r io.Reader) (string, error) {
	c.saves++
	_, _ = io.Copy(io.Discard, r)
	return "/uploads/" + folder + "/" + filename, nil
}

func TestUploadInvoiceWrongStageSkipsFileWrite(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "yukleyici")
	store := &countingFileStore{}
	svc := NewPurchaseService(db, store, nil)
	ctx := context.Background()

	res, err := svc.CreateRequest(ctx, CreatePurchaseRequestDTO{
		Material:      "Vida",
		Unit:          "kutu",
		Quantity:      "10",
		Justification: "Stok bitti",
	}, user.ID.String())
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	// Still at offer collection: the upload must fail before any file is
	// written.
	if _, err := svc.UploadInvoice(ctx, UploadInvoiceDTO{
		RequestID: res.ID,
		Amount:    "1000",
		Filename:  "fatura.pdf",
		Size:      100,
		File:      strings.NewReader("pdf"),
	}, user.ID.String()); err == nil {
		t.Fatal("expected wrong-stage error")
	}

	if _, err := svc.UploadInvoice(ctx, UploadInvoiceDTO{
		RequestID: "2b6e6f0a-0000-0000-0000-000000000000",
		Amount:    "1000",
		Filename:  "fatura.pdf",
		Size:      100,
		File:      strings.NewReader("pdf"),
	}, user.ID.String()); err == nil {
		t.Fatal("expected unknown-request error")
	}

	if store.saves != 0 {
		t.Errorf("expected no file writes for rejected uploads, got %d", store.saves)
	}
}
