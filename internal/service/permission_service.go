package service

import (
	"context"
	"fmt"
	"strings"

	"portal/internal/middleware"
	"portal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreatePermissionRequest struct {
	Code  string `json:"code" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Group string `json:"group"`
}

type UpdateUserPermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

// UserPermissionsResponse distinguishes role-inherited permissions from
// direct grants for the admin UI; the effective set is the union of both.
type UserPermissionsResponse struct {
	UserID    string               `json:"user_id"`
	RoleName  string               `json:"role_name"`
	Inherited []PermissionResponse `json:"inherited"`
	Direct    []PermissionResponse `json:"direct"`
	Effective []string             `json:"effective"` // deduplicated codes
}

// --- Interface ---

type PermissionService interface {
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	CreatePermission(ctx context.Context, req CreatePermissionRequest, actorID string) (*PermissionResponse, error)
	DeletePermission(ctx context.Context, id string, actorID string) error
	GetUserPermissions(ctx context.Context, userID string) (*UserPermissionsResponse, error)
	ReplaceUserPermissions(ctx context.Context, userID string, req UpdateUserPermissionsRequest, actorID string) (*UserPermissionsResponse, error)
	EffectivePermissions(ctx context.Context, userID string) ([]string, error)
}

type permissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) PermissionService {
	return &permissionService{db: db}
}

// --- Implementation ---

func (s *permissionService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	var perms []model.Permission
	if err := s.db.WithContext(ctx).Order("\"group\" ASC, code ASC").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *permissionService) CreatePermission(ctx context.Context, req CreatePermissionRequest, actorID string) (*PermissionResponse, error) {
	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" || name == "" {
		return nil, fmt.Errorf("yetki kodu ve adı boş olamaz")
	}

	perm := model.Permission{Code: code, Name: name, Group: req.Group}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&perm).Error; err != nil {
			return fmt.Errorf("failed to create permission: %w", err)
		}
		return writeAudit(tx, actorID, model.ActionCreatePermission, perm.ID.String(), code, req)
	})
	if err != nil {
		return nil, err
	}

	resp := toPermissionResponse(perm)
	return &resp, nil
}

func (s *permissionService) DeletePermission(ctx context.Context, id string, actorID string) error {
	permID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid permission id: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var perm model.Permission
		if err := tx.First(&perm, "id = ?", permID).Error; err != nil {
			return fmt.Errorf("permission not found: %w", err)
		}

		// Remove join rows first so no role or user keeps a dangling grant
		if err := tx.Exec(`DELETE FROM role_permissions WHERE permission_id = ?`, permID).Error; err != nil {
			return fmt.Errorf("failed to detach permission from roles: %w", err)
		}
		if err := tx.Exec(`DELETE FROM user_permissions WHERE permission_id = ?`, permID).Error; err != nil {
			return fmt.Errorf("failed to detach permission from users: %w", err)
		}

		if err := tx.Delete(&perm).Error; err != nil {
			return fmt.Errorf("failed to delete permission: %w", err)
		}
		return writeAudit(tx, actorID, model.ActionDeletePermission, id, perm.Code, nil)
	})
	if err != nil {
		return err
	}

	// Deleting a permission can affect any user
	middleware.ClearPermissionCache("")
	return nil
}

func (s *permissionService) GetUserPermissions(ctx context.Context, userID string) (*UserPermissionsResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	var user model.User
	if err := s.db.WithContext(ctx).
		Preload("Role.Permissions").
		Preload("DirectPermissions").
		First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return buildUserPermissionsResponse(&user), nil
}

// ReplaceUserPermissions swaps the user's full direct-grant set atomically,
// then drops the user's cached effective set.
func (s *permissionService) ReplaceUserPermissions(ctx context.Context, userID string, req UpdateUserPermissionsRequest, actorID string) (*UserPermissionsResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return fmt.Errorf("user not found: %w", err)
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

		if err := tx.Model(&user).Association("DirectPermissions").Replace(perms); err != nil {
			return fmt.Errorf("failed to update user permissions: %w", err)
		}

		return writeAudit(tx, actorID, model.ActionUpdateUserPermissions, userID, user.Username, map[string]interface{}{
			"permission_ids": req.PermissionIDs,
		})
	})
	if err != nil {
		return nil, err
	}

	middleware.ClearPermissionCache(userID)
	return s.GetUserPermissions(ctx, userID)
}

// EffectivePermissions resolves the user's active permission codes:
// role permissions ∪ direct grants. Grants are additive only — there is no
// way to revoke a role-granted permission per user.
func (s *permissionService) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	resp, err := s.GetUserPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return resp.Effective, nil
}

// --- Helpers ---

func buildUserPermissionsResponse(user *model.User) *UserPermissionsResponse {
	resp := &UserPermissionsResponse{
		UserID:    user.ID.String(),
		Inherited: make([]PermissionResponse, 0),
		Direct:    make([]PermissionResponse, 0, len(user.DirectPermissions)),
	}

	seen := make(map[string]bool)
	if user.Role != nil {
		resp.RoleName = user.Role.Name
		for _, p := range user.Role.Permissions {
			resp.Inherited = append(resp.Inherited, toPermissionResponse(p))
			if !seen[p.Code] {
				seen[p.Code] = true
				resp.Effective = append(resp.Effective, p.Code)
			}
		}
	}
	for _, p := range user.DirectPermissions {
		resp.Direct = append(resp.Direct, toPermissionResponse(p))
		if !seen[p.Code] {
			seen[p.Code] = true
			resp.Effective = append(resp.Effective, p.Code)
		}
	}

	return resp
}
