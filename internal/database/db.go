package database

import (
	"log"

	"portal/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.PurchaseRequest{},
		&model.Offer{},
		&model.PurchaseInvoice{},
		&model.IdempotencyKey{},
		&model.Supplier{},
		&model.LeaveRequest{},
		&model.Device{},
		&model.FaultLog{},
		&model.PeriodicControlPlan{},
		&model.PeriodicControlLog{},
		&model.MaintenancePlan{},
		&model.Project{},
		&model.ProjectInvoice{},
		&model.Idea{},
		&model.IdeaVote{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
