package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-eca-api/internal/allocation"
	"github.com/noah-isme/sma-eca-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-eca-api/internal/middleware"
	"github.com/noah-isme/sma-eca-api/internal/models"
	"github.com/noah-isme/sma-eca-api/internal/repository"
	"github.com/noah-isme/sma-eca-api/internal/service"
	"github.com/noah-isme/sma-eca-api/pkg/config"
	"github.com/noah-isme/sma-eca-api/pkg/runlock"
)

func intPtr(v int) *int { return &v }

type auditSink struct {
	mu      sync.Mutex
	actions []string
}

func (a *auditSink) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, log.Action)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		JWT:       config.JWTConfig{Secret: "router-secret", Issuer: "sma-portal"},
	}
}

func seededService(t *testing.T, metrics *service.MetricsService) *service.ECAAllocationService {
	t.Helper()
	db := repository.NewMemoryStore()
	db.SeedSchool(models.School{ID: "school-1", Name: "SMA 1"})
	db.SeedTerm(models.Term{ID: "term-1", SchoolID: "school-1", Name: "Semester 1", Status: models.TermStatusSelectionClosed})
	db.SeedStudent("st-1", "Ani")
	db.SeedActivities(models.ECAActivity{ID: "act-art", TermID: "term-1", SchoolID: "school-1", Name: "Art", DayOfWeek: 2,
		TimeSlot: models.TimeSlotAfterSchool, MaxCapacity: intPtr(5), ActivityType: models.ActivityTypeOpen, IsActive: true})
	db.SeedSelections(models.ECASelection{ID: "sel-1", TermID: "term-1", StudentID: "st-1", ActivityID: "act-art", Rank: 1, CreatedAt: time.Now()})

	cacheSvc := service.NewCacheService(repository.NewMemoryCacheRepository(), metrics, time.Hour, zap.NewNop(), true)
	engine := allocation.NewEngine(allocation.NewRandomSource(1), zap.NewNop(), allocation.DefaultIterationFactor)
	return service.NewECAAllocationService(service.NewMemoryECAStores(db), engine, runlock.NewLocalLocker(), cacheSvc, metrics, nil, zap.NewNop(), service.ECAAllocationConfig{})
}

func newTestRouter(t *testing.T, withECA bool, audit internalmiddleware.AuditRecorder) (*gin.Engine, *service.TokenVerifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	metrics := service.NewMetricsService()
	verifier := service.NewTokenVerifier(cfg.JWT)
	deps := routerDeps{
		Config:   cfg,
		Logger:   zap.NewNop(),
		Metrics:  metrics,
		Checks:   map[string]handler.Pinger{"postgres": func(context.Context) error { return nil }},
		Verifier: verifier,
		Audit:    audit,
	}
	if withECA {
		deps.ECA = handler.NewECAAllocationHandler(seededService(t, metrics))
	}
	return newRouter(deps), verifier
}

func bearer(t *testing.T, verifier *service.TokenVerifier, role models.UserRole, schoolID string) string {
	t.Helper()
	token, err := verifier.IssueToken(models.JWTClaims{UserID: "u-1", Role: role, SchoolID: schoolID}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(r http.Handler, method, target, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterProbes(t *testing.T) {
	r, _ := newTestRouter(t, true, nil)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready", "", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/metrics", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/nope", "", "").Code)
}

func TestRouterRequiresAdminToken(t *testing.T) {
	r, verifier := newTestRouter(t, true, nil)
	target := "/api/v1/eca/terms/term-1/waitlist?schoolId=school-1"

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, target, "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, target, bearer(t, verifier, models.RoleTeacher, "school-1"), "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, target, bearer(t, verifier, models.RoleAdmin, "school-1"), "").Code)
}

func TestRouterRunThenLatest(t *testing.T) {
	sink := &auditSink{}
	r, verifier := newTestRouter(t, true, sink)
	auth := bearer(t, verifier, models.RoleAdmin, "school-1")

	w := do(r, http.MethodPost, "/api/v1/eca/terms/term-1/allocation-runs", auth, `{"schoolId":"school-1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"success":true`)

	w = do(r, http.MethodGet, "/api/v1/eca/terms/term-1/allocation-runs/latest?schoolId=school-1", auth, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalAllocations":1`)

	w = do(r, http.MethodGet, "/api/v1/metrics/summary", auth, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"allocationRuns":1`)

	assert.Equal(t, []string{models.AuditActionAllocationRun}, sink.actions)
}

func TestRouterECADisabled(t *testing.T) {
	r, verifier := newTestRouter(t, false, nil)

	w := do(r, http.MethodPost, "/api/v1/eca/terms/term-1/allocation-runs", bearer(t, verifier, models.RoleSuperAdmin, ""), `{"schoolId":"school-1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
