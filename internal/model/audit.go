package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	// Purchase workflow actions
	ActionCreatePurchaseRequest = "CREATE_PURCHASE_REQUEST"
	ActionSaveOffers            = "SAVE_OFFERS"
	ActionApproveStage          = "APPROVE_STAGE"
	ActionRejectStage           = "REJECT_STAGE"
	ActionUploadInvoice         = "UPLOAD_INVOICE"
	ActionApproveInvoice        = "APPROVE_INVOICE"
	ActionRejectInvoice         = "REJECT_INVOICE"
	ActionRateSupplier          = "RATE_SUPPLIER"
	ActionAccountingEdit        = "ACCOUNTING_EDIT"

	// Leave workflow actions
	ActionCreateLeaveRequest = "CREATE_LEAVE_REQUEST"
	ActionDecideLeaveRequest = "DECIDE_LEAVE_REQUEST"

	// Administration actions
	ActionApproveUser           = "APPROVE_USER"
	ActionDeleteUser            = "DELETE_USER"
	ActionUpdateRolePermissions = "UPDATE_ROLE_PERMISSIONS"
	ActionUpdateUserPermissions = "UPDATE_USER_PERMISSIONS"
	ActionCreatePermission      = "CREATE_PERMISSION"
	ActionDeletePermission      = "DELETE_PERMISSION"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
