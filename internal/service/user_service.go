package service

import (
	"context"
	"errors"
	"os"
	"regexp"
	"time"

	"portal/internal/middleware"
	"portal/internal/model"
	"portal/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ApproveUserRequest struct {
	RoleID string `json:"role_id" binding:"required"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Approved  bool      `json:"approved"`
	RoleID    string    `json:"role_id,omitempty"`
	RoleName  string    `json:"role_name,omitempty"`
	CreatedAt string    `json:"created_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, roleID string, page, limit int) ([]UserResponse, int64, error)
	ListAwaitingApproval(ctx context.Context) ([]UserResponse, error)
	ApproveAwaitingUser(ctx context.Context, id string, req ApproveUserRequest, actorID string) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string, actorID string) error
	SeedAdminUser(ctx context.Context) error
}

type userService struct {
	repo repository.UserRepository
	txm  repository.TransactionManager
	db   *gorm.DB
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, txm repository.TransactionManager, db *gorm.DB) UserService {
	return &userService{repo: repo, txm: txm, db: db}
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		Email:     user.Email,
		Approved:  user.Approved,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if user.RoleID != nil {
		resp.RoleID = user.RoleID.String()
	}
	if user.Role != nil {
		resp.RoleName = user.Role.Name
	}
	return resp
}

// Register creates an unapproved account. The user cannot log in until an
// admin approves them and assigns a role.
func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if !emailRegex.MatchString(req.Email) {
		return nil, errors.New("invalid email format")
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, errors.New("username already exists")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashedPassword),
		Approved:  false,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	if !user.Approved {
		return nil, errors.New("hesabınız henüz onaylanmadı")
	}

	roleName := ""
	if user.RoleID != nil {
		var role model.Role
		if err := s.db.WithContext(ctx).First(&role, "id = ?", *user.RoleID).Error; err == nil {
			roleName = role.Name
		}
	}

	accessToken, err := s.signAccessToken(user, roleName)
	if err != nil {
		return nil, err
	}

	refresh := model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := s.db.WithContext(ctx).Create(&refresh).Error; err != nil {
		return nil, errors.New("failed to create refresh token")
	}

	return &TokenResponse{Token: accessToken, RefreshToken: refresh.Token}, nil
}

func (s *userService) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var stored model.RefreshToken
	if err := s.db.WithContext(ctx).First(&stored, "token = ?", refreshToken).Error; err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		s.db.WithContext(ctx).Delete(&stored)
		return nil, errors.New("refresh token expired")
	}

	user, err := s.repo.GetByIDWithRole(ctx, stored.UserID.String())
	if err != nil || !user.Approved {
		return nil, errors.New("invalid refresh token")
	}

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}

	accessToken, err := s.signAccessToken(user, roleName)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{Token: accessToken, RefreshToken: refreshToken}, nil
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.db.WithContext(ctx).Where("token = ?", refreshToken).Delete(&model.RefreshToken{}).Error
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByIDWithRole(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, roleID string, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var roleFilter *uuid.UUID
	if roleID != "" {
		parsed, err := uuid.Parse(roleID)
		if err != nil {
			return nil, 0, errors.New("invalid roleId filter")
		}
		roleFilter = &parsed
	}

	users, total, err := s.repo.List(ctx, roleFilter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, *mapToResponse(&u))
	}

	return responses, total, nil
}

func (s *userService) ListAwaitingApproval(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.ListAwaitingApproval(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, *mapToResponse(&u))
	}
	return responses, nil
}

// ApproveAwaitingUser marks a registration approved and assigns its role in a
// single transaction.
func (s *userService) ApproveAwaitingUser(ctx context.Context, id string, req ApproveUserRequest, actorID string) (*UserResponse, error) {
	roleID, err := uuid.Parse(req.RoleID)
	if err != nil {
		return nil, errors.New("invalid role id")
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return errors.New("user not found")
		}
		if user.Approved {
			return errors.New("user is already approved")
		}

		var role model.Role
		if err := repository.GetDB(txCtx, s.db).First(&role, "id = ?", roleID).Error; err != nil {
			return errors.New("role not found")
		}

		user.Approved = true
		user.RoleID = &roleID
		if err := s.repo.Update(txCtx, user); err != nil {
			return err
		}

		return writeAudit(repository.GetDB(txCtx, s.db), actorID, model.ActionApproveUser, user.ID.String(), user.Username, map[string]interface{}{
			"role_id": req.RoleID,
		})
	})
	if err != nil {
		return nil, err
	}

	middleware.ClearPermissionCache(id)
	return s.GetUserByID(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, id string, actorID string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return errors.New("user not found")
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		return writeAudit(repository.GetDB(txCtx, s.db), actorID, model.ActionDeleteUser, id, user.Username, nil)
	})
	if err != nil {
		return err
	}

	middleware.ClearPermissionCache(id)
	return nil
}

// SeedAdminUser creates the initial admin account if no approved admin
// exists. The admin's role permissions are also copied into direct grants so
// the admin keeps access even if the role set is edited down later.
func (s *userService) SeedAdminUser(ctx context.Context) error {
	var role model.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Where("name = ?", "admin").First(&role).Error; err != nil {
		return errors.New("admin role is not seeded")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("role_id = ? AND approved = ?", role.ID, true).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@portal.local"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		FirstName: "System",
		LastName:  "Admin",
		Username:  "admin",
		Email:     email,
		Password:  string(hashed),
		Approved:  true,
		RoleID:    &role.ID,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		return tx.Model(&admin).Association("DirectPermissions").Replace(role.Permissions)
	})
}

func (s *userService) signAccessToken(user *model.User, roleName string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.ID.String(),
		"role":     roleName,
		"username": user.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return "", errors.New("failed to generate token")
	}
	return tokenString, nil
}
