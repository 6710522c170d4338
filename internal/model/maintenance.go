package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device status enum constants
const (
	DeviceActive   = "ACTIVE"
	DeviceInactive = "INACTIVE"
	DeviceFaulty   = "FAULTY"
)

// Fault log status enum constants
const (
	FaultOpen       = "OPEN"
	FaultInProgress = "IN_PROGRESS"
	FaultResolved   = "RESOLVED"
)

// Periodic control result enum constants
const (
	ControlResultOK    = "OK"
	ControlResultIssue = "ISSUE"
)

// Maintenance plan status enum constants
const (
	PlanPlanned = "PLANNED"
	PlanOngoing = "ONGOING"
	PlanDone    = "DONE"
)

// Device is a tracked piece of equipment.
type Device struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	SerialNo  string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"serial_no"`
	Location  string         `gorm:"type:varchar(255)" json:"location"`
	Status    string         `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FaultLog records a reported device fault and its resolution status.
type FaultLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DeviceID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"device_id"`
	Device      *Device    `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
	ReportedBy  *uuid.UUID `gorm:"type:uuid;index" json:"reported_by"`
	Reporter    *User      `gorm:"foreignKey:ReportedBy" json:"reporter,omitempty"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Status      string     `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`
	ResolvedAt  *time.Time `json:"resolved_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PeriodicControlPlan schedules recurring inspections for a device.
type PeriodicControlPlan struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DeviceID     uuid.UUID `gorm:"type:uuid;not null;index" json:"device_id"`
	Device       *Device   `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	IntervalDays int       `gorm:"not null" json:"interval_days"`
	NextDueDate  time.Time `gorm:"type:date;not null;index" json:"next_due_date"`
	Active       bool      `gorm:"default:true;index" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PeriodicControlLog records one performed inspection under a plan.
type PeriodicControlLog struct {
	ID          uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PlanID      uuid.UUID            `gorm:"type:uuid;not null;index" json:"plan_id"`
	Plan        *PeriodicControlPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	PerformedBy *uuid.UUID           `gorm:"type:uuid" json:"performed_by"`
	PerformedAt time.Time            `gorm:"not null" json:"performed_at"`
	Result      string               `gorm:"type:varchar(20);not null" json:"result"` // OK, ISSUE
	Note        string               `gorm:"type:text" json:"note"`
	CreatedAt   time.Time            `json:"created_at"`
}

// MaintenancePlan is a scheduled maintenance activity, not tied to one device.
type MaintenancePlan struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	StartDate   time.Time      `gorm:"type:date;not null" json:"start_date"`
	EndDate     time.Time      `gorm:"type:date;not null" json:"end_date"`
	Status      string         `gorm:"type:varchar(20);not null;default:'PLANNED';index" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
