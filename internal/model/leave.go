package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Leave request status enum constants
const (
	LeavePending  = "PENDING"
	LeaveApproved = "APPROVED"
	LeaveRejected = "REJECTED"
)

// LeaveRequest is an employee's time-off request awaiting a single approval.
type LeaveRequest struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	LeaveType       string         `gorm:"type:varchar(50);not null" json:"leave_type"` // annual, sick, unpaid...
	StartDate       time.Time      `gorm:"type:date;not null" json:"start_date"`
	EndDate         time.Time      `gorm:"type:date;not null" json:"end_date"`
	Reason          string         `gorm:"type:text" json:"reason"`
	Status          string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason"`
	DecidedBy       *uuid.UUID     `gorm:"type:uuid" json:"decided_by"`
	Approver        *User          `gorm:"foreignKey:DecidedBy" json:"approver,omitempty"`
	DecidedAt       *time.Time     `json:"decided_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
