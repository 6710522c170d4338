package service

import (
	"context"
	"testing"
	"time"

	"portal/internal/model"
)

func TestFaultLifecycleDrivesDeviceStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	reporter := createTestUser(t, db, "reporter")
	svc := NewMaintenanceService(db)

	device, err := svc.CreateDevice(ctx, CreateDeviceRequest{Name: "CNC Torna", SerialNo: "CNC-001", Location: "Atölye 2"})
	if err != nil {
		t.Fatalf("create device: %v", err)
	}
	if device.Status != model.DeviceActive {
		t.Fatalf("new device status = %s", device.Status)
	}

	// Duplicate serial numbers are refused
	if _, err := svc.CreateDevice(ctx, CreateDeviceRequest{Name: "Kopya", SerialNo: "CNC-001"}); err == nil {
		t.Fatal("expected duplicate serial rejection")
	}

	fault1, err := svc.CreateFaultLog(ctx, reporter.ID.String(), CreateFaultLogRequest{
		DeviceID:    device.ID.String(),
		Description: "Mil yatağından ses geliyor",
	})
	if err != nil {
		t.Fatalf("create fault: %v", err)
	}
	fault2, err := svc.CreateFaultLog(ctx, reporter.ID.String(), CreateFaultLogRequest{
		DeviceID:    device.ID.String(),
		Description: "Soğutma sıvısı sızdırıyor",
	})
	if err != nil {
		t.Fatalf("create fault: %v", err)
	}

	var reloaded model.Device
	if err := db.First(&reloaded, "id = ?", device.ID).Error; err != nil {
		t.Fatalf("reload device: %v", err)
	}
	if reloaded.Status != model.DeviceFaulty {
		t.Fatalf("device status after fault = %s", reloaded.Status)
	}

	// Resolving one fault keeps the device faulty while another stays open
	resolved, err := svc.UpdateFaultStatus(ctx, fault1.ID.String(), model.FaultResolved)
	if err != nil {
		t.Fatalf("resolve fault: %v", err)
	}
	if resolved.ResolvedAt == nil {
		t.Fatal("resolved fault missing ResolvedAt")
	}
	if err := db.First(&reloaded, "id = ?", device.ID).Error; err != nil {
		t.Fatalf("reload device: %v", err)
	}
	if reloaded.Status != model.DeviceFaulty {
		t.Fatalf("device status with open fault = %s", reloaded.Status)
	}

	// Resolving the last open fault returns the device to active
	if _, err := svc.UpdateFaultStatus(ctx, fault2.ID.String(), model.FaultResolved); err != nil {
		t.Fatalf("resolve fault: %v", err)
	}
	if err := db.First(&reloaded, "id = ?", device.ID).Error; err != nil {
		t.Fatalf("reload device: %v", err)
	}
	if reloaded.Status != model.DeviceActive {
		t.Fatalf("device status after all resolved = %s", reloaded.Status)
	}

	open, err := svc.ListFaultLogs(ctx, device.ID.String(), model.FaultOpen)
	if err != nil {
		t.Fatalf("list faults: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("open faults = %d", len(open))
	}
}

func TestControlLogRollsDueDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	performer := createTestUser(t, db, "technician")
	svc := NewMaintenanceService(db)

	device, err := svc.CreateDevice(ctx, CreateDeviceRequest{Name: "Kompresör", SerialNo: "KMP-01"})
	if err != nil {
		t.Fatalf("create device: %v", err)
	}

	due := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	plan, err := svc.CreateControlPlan(ctx, CreateControlPlanRequest{
		DeviceID:     device.ID.String(),
		Title:        "Haftalık basınç kontrolü",
		IntervalDays: 7,
		NextDueDate:  due,
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}

	if _, err := svc.CreateControlPlan(ctx, CreateControlPlanRequest{
		DeviceID: device.ID.String(), Title: "Bozuk tarih", IntervalDays: 7, NextDueDate: "01.09.2026",
	}); err == nil {
		t.Fatal("expected date format rejection")
	}

	duePlans, err := svc.ListControlPlans(ctx, true)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(duePlans) != 1 {
		t.Fatalf("due plans = %d", len(duePlans))
	}

	if _, err := svc.CreateControlLog(ctx, performer.ID.String(), CreateControlLogRequest{
		PlanID: plan.ID.String(),
		Result: "OK",
		Note:   "Değerler normal",
	}); err != nil {
		t.Fatalf("create log: %v", err)
	}

	// The due date rolls forward from the control time by the interval
	var rolled model.PeriodicControlPlan
	if err := db.First(&rolled, "id = ?", plan.ID).Error; err != nil {
		t.Fatalf("reload plan: %v", err)
	}
	if !rolled.NextDueDate.After(time.Now().AddDate(0, 0, plan.IntervalDays-1)) {
		t.Fatalf("next due not rolled forward: %s", rolled.NextDueDate)
	}

	duePlans, err = svc.ListControlPlans(ctx, true)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(duePlans) != 0 {
		t.Fatalf("due plans after control = %d", len(duePlans))
	}
}

func TestMaintenancePlanStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewMaintenanceService(db)

	if _, err := svc.CreateMaintenancePlan(ctx, CreateMaintenancePlanRequest{
		Title: "Yıllık revizyon", StartDate: "2026-12-10", EndDate: "2026-12-01",
	}); err == nil {
		t.Fatal("expected error when end precedes start")
	}

	plan, err := svc.CreateMaintenancePlan(ctx, CreateMaintenancePlanRequest{
		Title:       "Yıllık revizyon",
		Description: "Tüm hat duruşu ile bakım",
		StartDate:   "2026-12-01",
		EndDate:     "2026-12-10",
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if plan.Status != model.PlanPlanned {
		t.Fatalf("new plan status = %s", plan.Status)
	}

	updated, err := svc.UpdateMaintenancePlanStatus(ctx, plan.ID.String(), model.PlanOngoing)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != model.PlanOngoing {
		t.Fatalf("status = %s", updated.Status)
	}

	ongoing, err := svc.ListMaintenancePlans(ctx, model.PlanOngoing)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ongoing) != 1 {
		t.Fatalf("ongoing = %d", len(ongoing))
	}
}
