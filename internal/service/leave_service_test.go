package service

import (
	"context"
	"testing"

	"portal/internal/model"
)

func TestLeaveRequestLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	worker := createTestUser(t, db, "worker")
	manager := createTestUser(t, db, "manager")

	svc := NewLeaveService(db)

	if _, err := svc.CreateLeaveRequest(ctx, CreateLeaveRequestDTO{
		LeaveType: "yillik",
		StartDate: "02-10-2026",
		EndDate:   "2026-10-05",
	}, worker.ID.String()); err == nil {
		t.Fatal("expected error for malformed start date")
	}
	if _, err := svc.CreateLeaveRequest(ctx, CreateLeaveRequestDTO{
		LeaveType: "yillik",
		StartDate: "2026-10-05",
		EndDate:   "2026-10-02",
	}, worker.ID.String()); err == nil {
		t.Fatal("expected error when end precedes start")
	}

	leave, err := svc.CreateLeaveRequest(ctx, CreateLeaveRequestDTO{
		LeaveType: "yillik",
		StartDate: "2026-10-02",
		EndDate:   "2026-10-05",
		Reason:    "aile ziyareti",
	}, worker.ID.String())
	if err != nil {
		t.Fatalf("create leave: %v", err)
	}
	if leave.Status != model.LeavePending || leave.StartDate != "2026-10-02" {
		t.Fatalf("created leave: status=%s start=%s", leave.Status, leave.StartDate)
	}

	// Rejection without a reason is refused
	if _, err := svc.DecideLeaveRequest(ctx, leave.ID, DecideLeaveRequestDTO{Action: "reject"}, manager.ID.String()); err == nil {
		t.Fatal("expected error rejecting without a reason")
	}

	decided, err := svc.DecideLeaveRequest(ctx, leave.ID, DecideLeaveRequestDTO{Action: "approve"}, manager.ID.String())
	if err != nil {
		t.Fatalf("approve leave: %v", err)
	}
	if decided.Status != model.LeaveApproved || decided.DecidedBy != manager.ID.String() {
		t.Fatalf("decided leave: status=%s decidedBy=%s", decided.Status, decided.DecidedBy)
	}

	// A decided request cannot be decided again
	if _, err := svc.DecideLeaveRequest(ctx, leave.ID, DecideLeaveRequestDTO{Action: "approve"}, manager.ID.String()); err == nil {
		t.Fatal("expected error re-deciding an approved request")
	}
}

func TestListLeaveRequestsFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	worker := createTestUser(t, db, "worker")
	other := createTestUser(t, db, "other")
	manager := createTestUser(t, db, "manager")

	svc := NewLeaveService(db)

	mine, err := svc.CreateLeaveRequest(ctx, CreateLeaveRequestDTO{
		LeaveType: "yillik", StartDate: "2026-09-10", EndDate: "2026-09-12",
	}, worker.ID.String())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateLeaveRequest(ctx, CreateLeaveRequestDTO{
		LeaveType: "mazeret", StartDate: "2026-09-11", EndDate: "2026-09-11",
	}, other.ID.String()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.DecideLeaveRequest(ctx, mine.ID, DecideLeaveRequestDTO{
		Action: "reject", Reason: "yoğun dönem",
	}, manager.ID.String()); err != nil {
		t.Fatalf("reject: %v", err)
	}

	byUser, total, err := svc.ListLeaveRequests(ctx, LeaveFilter{UserID: worker.ID.String()})
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if total != 1 || len(byUser) != 1 || byUser[0].ID != mine.ID {
		t.Fatalf("by user: total=%d len=%d", total, len(byUser))
	}
	if byUser[0].RejectionReason != "yoğun dönem" {
		t.Errorf("rejection reason = %q", byUser[0].RejectionReason)
	}

	pending, total, err := svc.ListLeaveRequests(ctx, LeaveFilter{Status: model.LeavePending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if total != 1 || len(pending) != 1 || pending[0].LeaveType != "mazeret" {
		t.Fatalf("pending: total=%d len=%d", total, len(pending))
	}
}
