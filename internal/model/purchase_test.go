package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStageTransitions(t *testing.T) {
	cases := []struct {
		from string
		to   string
		ok   bool
	}{
		{StageOfferCollection, StageOfferSelection, true},
		{StageOfferSelection, StageInvoiceUpload, true},
		{StageInvoiceUpload, StageInvoicePriceCheck, true},
		{StageInvoicePriceCheck, StageAccounting, true},
		{StageAccounting, StageCompleted, true},
		// No skipping
		{StageOfferCollection, StageInvoiceUpload, false},
		{StageOfferSelection, StageAccounting, false},
		// No going backwards
		{StageOfferSelection, StageOfferCollection, false},
		{StageCompleted, StageAccounting, false},
		// Terminal stage has no successor
		{StageCompleted, StageCompleted, false},
		{"BOGUS", StageOfferSelection, false},
	}

	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestNextStage(t *testing.T) {
	next, ok := NextStage(StageOfferCollection)
	if !ok || next != StageOfferSelection {
		t.Fatalf("NextStage(OFFER_COLLECTION) = %s, %v", next, ok)
	}
	if _, ok := NextStage(StageCompleted); ok {
		t.Fatal("expected COMPLETED to be terminal")
	}
}

func TestApplyAccountingEditRate(t *testing.T) {
	inv := &PurchaseInvoice{Amount: decimal.NewFromInt(1000)}

	if err := ApplyAccountingEdit(inv, KDVFieldRate, decimal.NewFromInt(20)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inv.KDVAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("kdv amount = %s, want 200", inv.KDVAmount)
	}
	if !inv.TotalAmount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("total = %s, want 1200", inv.TotalAmount)
	}

	// Repeating the same edit must not change anything
	if err := ApplyAccountingEdit(inv, KDVFieldRate, decimal.NewFromInt(20)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inv.TotalAmount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("total after repeat = %s, want 1200", inv.TotalAmount)
	}
}

func TestApplyAccountingEditAmount(t *testing.T) {
	inv := &PurchaseInvoice{Amount: decimal.NewFromInt(1000), KDVRate: decimal.NewFromInt(20)}

	if err := ApplyAccountingEdit(inv, KDVFieldAmount, decimal.NewFromInt(180)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Editing the kdv amount leaves the rate alone and recomputes the total
	if !inv.KDVRate.Equal(decimal.NewFromInt(20)) {
		t.Errorf("rate = %s, want untouched 20", inv.KDVRate)
	}
	if !inv.TotalAmount.Equal(decimal.NewFromInt(1180)) {
		t.Errorf("total = %s, want 1180", inv.TotalAmount)
	}
}

func TestApplyAccountingEditTotal(t *testing.T) {
	inv := &PurchaseInvoice{
		Amount:    decimal.NewFromInt(1000),
		KDVRate:   decimal.NewFromInt(20),
		KDVAmount: decimal.NewFromInt(200),
	}

	if err := ApplyAccountingEdit(inv, KDVFieldTotal, decimal.NewFromInt(1250)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inv.TotalAmount.Equal(decimal.NewFromInt(1250)) {
		t.Errorf("total = %s, want 1250", inv.TotalAmount)
	}
	// Editing the total never back-propagates
	if !inv.KDVRate.Equal(decimal.NewFromInt(20)) || !inv.KDVAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("rate/amount changed: %s / %s", inv.KDVRate, inv.KDVAmount)
	}
}

func TestApplyAccountingEditRejectsBadInput(t *testing.T) {
	inv := &PurchaseInvoice{Amount: decimal.NewFromInt(1000)}

	if err := ApplyAccountingEdit(inv, KDVFieldRate, decimal.NewFromInt(-1)); err != ErrNegativeKDVValue {
		t.Errorf("negative value: got %v, want ErrNegativeKDVValue", err)
	}
	if err := ApplyAccountingEdit(inv, "net_amount", decimal.NewFromInt(5)); err != ErrUnknownKDVField {
		t.Errorf("unknown field: got %v, want ErrUnknownKDVField", err)
	}
}

func TestSupplierApplyRating(t *testing.T) {
	s := &Supplier{Puan: decimal.Zero}

	s.ApplyRating(4)
	if !s.Puan.Equal(decimal.NewFromInt(4)) || s.RatingCount != 1 {
		t.Fatalf("after first rating: puan=%s count=%d", s.Puan, s.RatingCount)
	}

	s.ApplyRating(5)
	if !s.Puan.Equal(decimal.RequireFromString("4.5")) || s.RatingCount != 2 {
		t.Fatalf("after second rating: puan=%s count=%d", s.Puan, s.RatingCount)
	}

	s.ApplyRating(2)
	// (4+5+2)/3 = 3.666... rounded to 2 decimals
	if !s.Puan.Equal(decimal.RequireFromString("3.67")) || s.RatingCount != 3 {
		t.Fatalf("after third rating: puan=%s count=%d", s.Puan, s.RatingCount)
	}
}
