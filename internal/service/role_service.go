package service

import (
	"context"
	"fmt"

	"portal/internal/middleware"
	"portal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // Permission UUIDs
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	GetRolePermissions(ctx context.Context, roleID string) ([]PermissionResponse, error)
	ReplaceRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest, actorID string) (*RoleResponse, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) RoleService {
	return &roleService{db: db}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	var roles []model.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	var role model.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", roleID).Error; err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	role := model.Role{
		Name:        req.Name,
		Description: req.Description,
		IsSystem:    false,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}

		if len(req.Permissions) > 0 {
			var perms []model.Permission
			permIDs := make([]uuid.UUID, 0, len(req.Permissions))
			for _, pid := range req.Permissions {
				parsed, parseErr := uuid.Parse(pid)
				if parseErr != nil {
					return fmt.Errorf("invalid permission id '%s': %w", pid, parseErr)
				}
				permIDs = append(permIDs, parsed)
			}
			if err := tx.Where("id IN ?", permIDs).Find(&perms).Error; err != nil {
				return fmt.Errorf("failed to fetch permissions: %w", err)
			}
			if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
				return fmt.Errorf("failed to assign permissions: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	// Reload with permissions
	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) GetRolePermissions(ctx context.Context, roleID string) ([]PermissionResponse, error) {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

// ReplaceRolePermissions swaps a role's full permission set in one
// transaction. The replace is delete-all-then-insert semantically, but the
// transaction boundary means no request ever observes the empty window.
func (s *roleService) ReplaceRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest, actorID string) (*RoleResponse, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role model.Role
		if err := tx.First(&role, "id = ?", id).Error; err != nil {
			return fmt.Errorf("role not found: %w", err)
		}

		var perms []model.Permission
		if len(req.PermissionIDs) > 0 {
			permIDs := make([]uuid.UUID, 0, len(req.PermissionIDs))
			for _, pid := range req.PermissionIDs {
				parsed, parseErr := uuid.Parse(pid)
				if parseErr != nil {
					return fmt.Errorf("invalid permission id '%s': %w", pid, parseErr)
				}
				permIDs = append(permIDs, parsed)
			}
			if err := tx.Where("id IN ?", permIDs).Find(&perms).Error; err != nil {
				return fmt.Errorf("failed to fetch permissions: %w", err)
			}
		}

		if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("failed to update permissions: %w", err)
		}

		return writeAudit(tx, actorID, model.ActionUpdateRolePermissions, role.ID.String(), role.Name, map[string]interface{}{
			"permission_ids": req.PermissionIDs,
		})
	})

	if err != nil {
		return nil, err
	}

	// The cache is keyed per user, not per role, so a role edit has to
	// drop everything: any cached user may hold this role.
	middleware.ClearPermissionCache("")

	return s.GetRole(ctx, roleID)
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles if not already present
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	defaultPermissions := []model.Permission{
		{Code: "view_dashboard", Name: "Panoyu Görüntüle", Group: "dashboard"},
		// Leave
		{Code: "create_leave_request", Name: "İzin Talebi Oluştur", Group: "leave"},
		{Code: "view_leave_request", Name: "İzin Taleplerini Görüntüle", Group: "leave"},
		{Code: "approving_leave_request", Name: "İzin Taleplerini Onayla", Group: "leave"},
		// Purchase workflow
		{Code: "create_purchase_request", Name: "Satınalma Talebi Oluştur", Group: "purchase"},
		{Code: "view_purchase_request", Name: "Satınalma Taleplerini Görüntüle", Group: "purchase"},
		{Code: "first_approval_purchase", Name: "Satınalma Teklif Onayı", Group: "purchase"},
		{Code: "second_approval_purchase", Name: "Satınalma Teklif Seçimi", Group: "purchase"},
		{Code: "upload_invoice", Name: "Fatura Yükle", Group: "purchase"},
		{Code: "invoice_price_check", Name: "Fatura Fiyat Kontrolü", Group: "purchase"},
		{Code: "accounting_invoice", Name: "Muhasebe KDV Mutabakatı", Group: "purchase"},
		// Maintenance
		{Code: "view_maintenance", Name: "Bakım Kayıtlarını Görüntüle", Group: "maintenance"},
		{Code: "manage_maintenance", Name: "Bakım Kayıtlarını Yönet", Group: "maintenance"},
		// Projects
		{Code: "view_projects", Name: "Projeleri Görüntüle", Group: "projects"},
		{Code: "manage_projects", Name: "Projeleri Yönet", Group: "projects"},
		// Ideas
		{Code: "view_ideas", Name: "Fikirleri Görüntüle", Group: "ideas"},
		{Code: "submit_idea", Name: "Fikir Gönder", Group: "ideas"},
		{Code: "manage_ideas", Name: "Fikirleri Yönet", Group: "ideas"},
		// Suppliers
		{Code: "view_suppliers", Name: "Tedarikçileri Görüntüle", Group: "suppliers"},
		{Code: "manage_suppliers", Name: "Tedarikçileri Yönet", Group: "suppliers"},
		// Administration
		{Code: "manage_roles", Name: "Rol ve Yetki Yönetimi", Group: "admin"},
		{Code: "manage_users", Name: "Kullanıcı Yönetimi", Group: "admin"},
		{Code: "view_audit_log", Name: "İşlem Geçmişini Görüntüle", Group: "admin"},
	}

	// Upsert permissions
	for i := range defaultPermissions {
		p := &defaultPermissions[i]
		var existing model.Permission
		result := s.db.WithContext(ctx).Where("code = ?", p.Code).First(&existing)
		if result.Error != nil {
			// Not found, create
			if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", p.Code, err)
			}
		} else {
			p.ID = existing.ID // Use existing ID
			// Update name/group if changed
			s.db.WithContext(ctx).Exec(
				`UPDATE permissions SET name = ?, "group" = ? WHERE id = ?`,
				p.Name, p.Group, existing.ID,
			)
		}
	}

	permByCode := make(map[string]model.Permission, len(defaultPermissions))
	allCodes := make([]string, 0, len(defaultPermissions))
	for _, p := range defaultPermissions {
		permByCode[p.Code] = p
		allCodes = append(allCodes, p.Code)
	}

	roleDefinitions := map[string]struct {
		Description string
		PermCodes   []string
	}{
		"admin": {
			Description: "Yönetici — tüm sistem yetkileri",
			PermCodes:   allCodes,
		},
		"manager": {
			Description: "Müdür — onay akışları ve raporlar",
			PermCodes: []string{
				"view_dashboard",
				"create_leave_request", "view_leave_request", "approving_leave_request",
				"create_purchase_request", "view_purchase_request",
				"first_approval_purchase", "second_approval_purchase",
				"view_maintenance", "manage_maintenance",
				"view_projects", "manage_projects",
				"view_ideas", "submit_idea", "manage_ideas",
				"view_suppliers",
			},
		},
		"accounting": {
			Description: "Muhasebe — fatura kontrolü ve KDV mutabakatı",
			PermCodes: []string{
				"view_dashboard",
				"create_leave_request", "view_leave_request",
				"view_purchase_request", "upload_invoice",
				"invoice_price_check", "accounting_invoice",
				"view_suppliers", "manage_suppliers",
				"view_ideas", "submit_idea",
			},
		},
		"specialist": {
			Description: "Uzman — talep oluşturma ve görüntüleme",
			PermCodes: []string{
				"view_dashboard",
				"create_leave_request", "view_leave_request",
				"create_purchase_request", "view_purchase_request",
				"view_maintenance",
				"view_ideas", "submit_idea",
			},
		},
	}

	for roleName, def := range roleDefinitions {
		var role model.Role
		result := s.db.WithContext(ctx).Where("name = ?", roleName).First(&role)
		if result.Error != nil {
			role = model.Role{
				Name:        roleName,
				Description: def.Description,
				IsSystem:    true,
			}
			if err := s.db.WithContext(ctx).Create(&role).Error; err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", roleName, err)
			}
		}

		perms := make([]model.Permission, 0, len(def.PermCodes))
		for _, code := range def.PermCodes {
			if p, ok := permByCode[code]; ok {
				perms = append(perms, p)
			}
		}
		if err := s.db.WithContext(ctx).Model(&role).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", roleName, err)
		}
	}

	// Seeding re-replaces the system roles' permission sets.
	middleware.ClearPermissionCache("")

	return nil
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}
