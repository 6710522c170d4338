package service

import (
	"context"
	"testing"

	"portal/internal/model"

	"github.com/shopspring/decimal"
)

func TestProjectInvoiceTotals(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewProjectService(db)

	project, err := svc.CreateProject(ctx, CreateProjectRequest{
		Name:     "Depo otomasyonu",
		Customer: "Aras Lojistik",
		Budget:   decimal.NewFromInt(500000),
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if project.Status != model.ProjectActive {
		t.Fatalf("new project status = %s", project.Status)
	}

	if _, err := svc.CreateProjectInvoice(ctx, project.ID.String(), CreateProjectInvoiceRequest{
		InvoiceNo: "FTR-2026-001",
		Amount:    decimal.Zero,
		IssuedAt:  "2026-08-01",
	}); err == nil {
		t.Fatal("expected rejection of zero amount")
	}

	inv1, err := svc.CreateProjectInvoice(ctx, project.ID.String(), CreateProjectInvoiceRequest{
		InvoiceNo: "FTR-2026-001",
		Amount:    decimal.NewFromInt(120000),
		IssuedAt:  "2026-08-01",
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if _, err := svc.CreateProjectInvoice(ctx, project.ID.String(), CreateProjectInvoiceRequest{
		InvoiceNo: "FTR-2026-002",
		Amount:    decimal.NewFromInt(80000),
		IssuedAt:  "2026-08-15",
	}); err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	// Invoice numbers are unique
	if _, err := svc.CreateProjectInvoice(ctx, project.ID.String(), CreateProjectInvoiceRequest{
		InvoiceNo: "FTR-2026-001",
		Amount:    decimal.NewFromInt(10),
		IssuedAt:  "2026-08-20",
	}); err == nil {
		t.Fatal("expected duplicate invoice number rejection")
	}

	paid, err := svc.SetInvoicePaid(ctx, inv1.ID.String(), true)
	if err != nil {
		t.Fatalf("set paid: %v", err)
	}
	if !paid.Paid {
		t.Fatal("invoice not marked paid")
	}

	summary, err := svc.GetProject(ctx, project.ID.String())
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if !summary.InvoicedTotal.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("invoiced total = %s", summary.InvoicedTotal)
	}
	if !summary.PaidTotal.Equal(decimal.NewFromInt(120000)) {
		t.Errorf("paid total = %s", summary.PaidTotal)
	}
	if !summary.UnpaidTotal.Equal(decimal.NewFromInt(80000)) {
		t.Errorf("unpaid total = %s", summary.UnpaidTotal)
	}

	// Unpaying moves the amount back
	if _, err := svc.SetInvoicePaid(ctx, inv1.ID.String(), false); err != nil {
		t.Fatalf("unset paid: %v", err)
	}
	summary, err = svc.GetProject(ctx, project.ID.String())
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if !summary.PaidTotal.IsZero() || !summary.UnpaidTotal.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("after unpay: paid=%s unpaid=%s", summary.PaidTotal, summary.UnpaidTotal)
	}
}

func TestProjectListFilterAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewProjectService(db)

	active, err := svc.CreateProject(ctx, CreateProjectRequest{Name: "Hat modernizasyonu", Customer: "İç proje"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	done, err := svc.CreateProject(ctx, CreateProjectRequest{Name: "Eski ERP geçişi", Customer: "İç proje"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateProject(ctx, done.ID.String(), UpdateProjectRequest{
		Name:     done.Name,
		Customer: done.Customer,
		Status:   model.ProjectCompleted,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	completed, total, err := svc.ListProjects(ctx, model.ProjectCompleted, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(completed) != 1 || completed[0].ID != done.ID {
		t.Fatalf("completed filter: total=%d len=%d", total, len(completed))
	}

	if err := svc.DeleteProject(ctx, active.ID.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetProject(ctx, active.ID.String()); err == nil {
		t.Fatal("expected not-found after delete")
	}
}
