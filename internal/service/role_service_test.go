package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portal/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func signTestToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// guardedStatus sends a request through RequirePermission and reports the
// resulting status code.
func guardedStatus(t *testing.T, token, perm string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	_, router := gin.CreateTestContext(w)
	router.GET("/guarded", middleware.RequirePermission(perm), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	return w.Code
}

func TestReplaceRolePermissionsInvalidatesCache(t *testing.T) {
	db := newTestDB(t)
	middleware.InitPermissionMiddleware(db)
	middleware.ClearPermissionCache("")
	t.Cleanup(func() { middleware.ClearPermissionCache("") })

	svc := NewRoleService(db)
	ctx := context.Background()

	viewPerm := createTestPermission(t, db, "view_dashboard")
	managePerm := createTestPermission(t, db, "manage_roles")

	role, err := svc.CreateRole(ctx, CreateRoleRequest{
		Name:        "denetmen",
		Description: "Denetim rolü",
		Permissions: []string{viewPerm.ID.String(), managePerm.ID.String()},
	})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}

	user := createTestUser(t, db, "denetmen1")
	if err := db.Exec("UPDATE users SET role_id = ? WHERE id = ?", role.ID, user.ID).Error; err != nil {
		t.Fatalf("assign role: %v", err)
	}

	token := signTestToken(t, user.ID.String())

	// First pass both authorizes and warms the per-user cache.
	if code := guardedStatus(t, token, "manage_roles"); code != http.StatusOK {
		t.Fatalf("expected 200 before revocation, got %d", code)
	}

	// Revoke manage_roles from the role. The request right after the edit
	// must already see the reduced set.
	if _, err := svc.ReplaceRolePermissions(ctx, role.ID, UpdateRolePermissionsRequest{
		PermissionIDs: []string{viewPerm.ID.String()},
	}, user.ID.String()); err != nil {
		t.Fatalf("replace role permissions: %v", err)
	}

	if code := guardedStatus(t, token, "manage_roles"); code != http.StatusForbidden {
		t.Errorf("expected 403 right after role edit, got %d", code)
	}
	if code := guardedStatus(t, token, "view_dashboard"); code != http.StatusOK {
		t.Errorf("expected kept permission to keep authorizing, got %d", code)
	}
}
