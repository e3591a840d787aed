package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-eca-api/internal/models"
	appErrors "github.com/noah-isme/sma-eca-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func protectedRouter(role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", JWT(stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: role}}), RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTAndRoles(t *testing.T) {
	cases := []struct {
		name   string
		role   models.UserRole
		header string
		status int
	}{
		{name: "missing header", role: models.RoleAdmin, header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", role: models.RoleAdmin, header: "Basic good", status: http.StatusUnauthorized},
		{name: "invalid token", role: models.RoleAdmin, header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "teacher forbidden", role: models.RoleTeacher, header: "Bearer good", status: http.StatusForbidden},
		{name: "admin allowed", role: models.RoleAdmin, header: "Bearer good", status: http.StatusOK},
		{name: "superadmin allowed", role: models.RoleSuperAdmin, header: "bearer good", status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			protectedRouter(tc.role).ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
