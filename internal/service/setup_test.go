package service

import (
	"testing"

	"portal/internal/model"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens an in-memory sqlite database with a hand-written,
// sqlite-friendly copy of the production schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	schema := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			approved BOOLEAN DEFAULT FALSE,
			role_id TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE refresh_tokens (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			expires_at DATETIME NOT NULL,
			created_at DATETIME
		);`,
		`CREATE TABLE roles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT,
			is_system BOOLEAN DEFAULT FALSE,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE permissions (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			"group" TEXT
		);`,
		`CREATE TABLE role_permissions (
			role_id TEXT NOT NULL,
			permission_id TEXT NOT NULL,
			PRIMARY KEY (role_id, permission_id)
		);`,
		`CREATE TABLE user_permissions (
			user_id TEXT NOT NULL,
			permission_id TEXT NOT NULL,
			PRIMARY KEY (user_id, permission_id)
		);`,
		`CREATE TABLE suppliers (
			id TEXT PRIMARY KEY,
			company_name TEXT NOT NULL,
			contact_name TEXT,
			phone TEXT,
			email TEXT,
			address TEXT,
			puan NUMERIC NOT NULL DEFAULT 0,
			rating_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE purchase_requests (
			id TEXT PRIMARY KEY,
			requester_id TEXT NOT NULL,
			material TEXT NOT NULL,
			unit TEXT NOT NULL,
			quantity NUMERIC NOT NULL,
			justification TEXT,
			category TEXT,
			stage TEXT NOT NULL DEFAULT 'OFFER_COLLECTION',
			rejected BOOLEAN DEFAULT FALSE,
			rejection_reason TEXT,
			selected_offer_id TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE offers (
			id TEXT PRIMARY KEY,
			purchase_request_id TEXT NOT NULL,
			supplier_id TEXT NOT NULL,
			supplier_name TEXT NOT NULL,
			price NUMERIC NOT NULL,
			position INTEGER NOT NULL,
			created_at DATETIME
		);`,
		`CREATE TABLE idempotency_keys (
			id TEXT PRIMARY KEY,
			purchase_request_id TEXT NOT NULL,
			"key" TEXT NOT NULL,
			action TEXT NOT NULL,
			created_at DATETIME,
			UNIQUE (purchase_request_id, "key")
		);`,
		`CREATE TABLE purchase_invoices (
			id TEXT PRIMARY KEY,
			purchase_request_id TEXT NOT NULL,
			file_url TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			rejection_reason TEXT,
			kdv_rate NUMERIC NOT NULL DEFAULT 0,
			kdv_amount NUMERIC NOT NULL DEFAULT 0,
			total_amount NUMERIC NOT NULL DEFAULT 0,
			supplier_rated BOOLEAN DEFAULT FALSE,
			approved_by TEXT,
			approved_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE leave_requests (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			leave_type TEXT NOT NULL,
			start_date DATETIME NOT NULL,
			end_date DATETIME NOT NULL,
			reason TEXT,
			status TEXT NOT NULL DEFAULT 'PENDING',
			rejection_reason TEXT,
			decided_by TEXT,
			decided_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE audit_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			action TEXT NOT NULL,
			entity_id TEXT,
			entity_name TEXT,
			details TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			serial_no TEXT NOT NULL UNIQUE,
			location TEXT,
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE fault_logs (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			reported_by TEXT,
			description TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'OPEN',
			resolved_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE periodic_control_plans (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			title TEXT NOT NULL,
			interval_days INTEGER NOT NULL,
			next_due_date DATETIME NOT NULL,
			active BOOLEAN DEFAULT TRUE,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE periodic_control_logs (
			id TEXT PRIMARY KEY,
			plan_id TEXT NOT NULL,
			performed_by TEXT,
			performed_at DATETIME NOT NULL,
			result TEXT NOT NULL,
			note TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE maintenance_plans (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			start_date DATETIME NOT NULL,
			end_date DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'PLANNED',
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			customer TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			budget NUMERIC NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE project_invoices (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			invoice_no TEXT NOT NULL UNIQUE,
			amount NUMERIC NOT NULL,
			issued_at DATETIME NOT NULL,
			paid BOOLEAN DEFAULT FALSE,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE ideas (
			id TEXT PRIMARY KEY,
			author_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'NEW',
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE idea_votes (
			id TEXT PRIMARY KEY,
			idea_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created_at DATETIME,
			UNIQUE (idea_id, user_id)
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) model.User {
	t.Helper()
	user := model.User{
		FirstName: "Test",
		LastName:  "User",
		Username:  username,
		Email:     username + "@portal.local",
		Password:  "x",
		Approved:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestSupplier(t *testing.T, db *gorm.DB, name string) model.Supplier {
	t.Helper()
	supplier := model.Supplier{CompanyName: name}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	return supplier
}

func createTestPermission(t *testing.T, db *gorm.DB, code string) model.Permission {
	t.Helper()
	perm := model.Permission{ID: uuid.New(), Code: code, Name: code, Group: "test"}
	if err := db.Create(&perm).Error; err != nil {
		t.Fatalf("create permission: %v", err)
	}
	return perm
}
