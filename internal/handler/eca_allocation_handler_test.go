package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-eca-api/internal/dto"
	internalmiddleware "github.com/noah-isme/sma-eca-api/internal/middleware"
	"github.com/noah-isme/sma-eca-api/internal/models"
	"github.com/noah-isme/sma-eca-api/internal/service"
	appErrors "github.com/noah-isme/sma-eca-api/pkg/errors"
)

type ecaAllocatorMock struct {
	runReq     dto.RunAllocationRequest
	asyncCalls int
	previewReq dto.PreviewAllocationRequest
	scope      dto.TermScopeQuery
	exportQ    dto.ExportAllocationsQuery
	runErr     error
	result     *dto.AllocationResult
}

func (m *ecaAllocatorMock) Run(_ context.Context, req dto.RunAllocationRequest) (*dto.AllocationResult, error) {
	m.runReq = req
	if m.runErr != nil {
		return nil, m.runErr
	}
	if m.result != nil {
		return m.result, nil
	}
	return &dto.AllocationResult{RunID: "run-1", TermID: req.TermID, Success: true}, nil
}

func (m *ecaAllocatorMock) RunAsync(_ context.Context, req dto.RunAllocationRequest) (*dto.AllocationRunAccepted, error) {
	m.asyncCalls++
	m.runReq = req
	return &dto.AllocationRunAccepted{RunID: "run-async", TermID: req.TermID, Status: "QUEUED"}, nil
}

func (m *ecaAllocatorMock) RunStatus(_ context.Context, runID string) (*dto.AllocationRunAccepted, error) {
	if runID != "run-async" {
		return nil, appErrors.ErrRunNotFound
	}
	return &dto.AllocationRunAccepted{RunID: runID, TermID: "term-1", Status: "RUNNING"}, nil
}

func (m *ecaAllocatorMock) Preview(_ context.Context, req dto.PreviewAllocationRequest) (*dto.AllocationPreview, error) {
	m.previewReq = req
	return &dto.AllocationPreview{TermID: req.TermID, WouldCancel: []string{"Chess"}}, nil
}

func (m *ecaAllocatorMock) Latest(_ context.Context, query dto.TermScopeQuery) (*dto.AllocationResult, error) {
	m.scope = query
	return &dto.AllocationResult{RunID: "run-1", TermID: query.TermID, Success: true}, nil
}

func (m *ecaAllocatorMock) Export(_ context.Context, query dto.ExportAllocationsQuery) (*service.ExportFile, error) {
	m.exportQ = query
	return &service.ExportFile{Filename: "eca-allocations-term-1.csv", ContentType: "text/csv", Content: []byte("Activity\n")}, nil
}

func (m *ecaAllocatorMock) ListWaitlist(_ context.Context, query dto.TermScopeQuery) ([]dto.WaitlistItem, error) {
	m.scope = query
	return []dto.WaitlistItem{{ActivityID: "act-1", StudentID: "st-1", Position: 1}}, nil
}

func newECAContext(t *testing.T, method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "termId", Value: "term-1"}}
	if claims != nil {
		c.Set(internalmiddleware.ContextUserKey, claims)
	}
	return c, w
}

func adminClaims(schoolID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, SchoolID: schoolID}
}

func TestECAAllocationHandlerRunUsesPathTerm(t *testing.T) {
	mockSvc := &ecaAllocatorMock{}
	handler := &ECAAllocationHandler{service: mockSvc}
	c, w := newECAContext(t, http.MethodPost, "/eca/terms/term-1/allocation-runs",
		[]byte(`{"termId":"ignored","schoolId":"school-1","selectionMode":"FIRST_COME_FIRST_SERVED","cancelBelowMinimum":false}`), adminClaims("school-1"))

	handler.RunAllocation(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "term-1", mockSvc.runReq.TermID)
	assert.Equal(t, "FIRST_COME_FIRST_SERVED", mockSvc.runReq.SelectionMode)
	require.NotNil(t, mockSvc.runReq.CancelBelowMinimum)
	assert.False(t, *mockSvc.runReq.CancelBelowMinimum)

	var body struct {
		Data dto.AllocationResult   `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.Data.RunID)
	assert.Equal(t, true, body.Meta["success"])
}

func TestECAAllocationHandlerRunAsync(t *testing.T) {
	mockSvc := &ecaAllocatorMock{}
	handler := &ECAAllocationHandler{service: mockSvc}
	c, w := newECAContext(t, http.MethodPost, "/eca/terms/term-1/allocation-runs?async=true",
		[]byte(`{"schoolId":"school-1"}`), adminClaims(""))

	handler.RunAllocation(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, mockSvc.asyncCalls)
}

func TestECAAllocationHandlerRunConflict(t *testing.T) {
	handler := &ECAAllocationHandler{service: &ecaAllocatorMock{runErr: appErrors.ErrRunInProgress}}
	c, w := newECAContext(t, http.MethodPost, "/eca/terms/term-1/allocation-runs", []byte(`{"schoolId":"school-1"}`), adminClaims("school-1"))

	handler.RunAllocation(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "RUN_IN_PROGRESS")
}

func TestECAAllocationHandlerRejectsOtherSchool(t *testing.T) {
	mockSvc := &ecaAllocatorMock{}
	handler := &ECAAllocationHandler{service: mockSvc}
	c, w := newECAContext(t, http.MethodPost, "/eca/terms/term-1/allocation-runs", []byte(`{"schoolId":"school-2"}`), adminClaims("school-1"))

	handler.RunAllocation(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, mockSvc.runReq.TermID)
}

func TestECAAllocationHandlerRejectsMalformedBody(t *testing.T) {
	handler := &ECAAllocationHandler{service: &ecaAllocatorMock{}}
	c, w := newECAContext(t, http.MethodPost, "/eca/terms/term-1/allocation-preview", []byte(`{"schoolId":`), adminClaims(""))

	handler.PreviewAllocation(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestECAAllocationHandlerPreview(t *testing.T) {
	mockSvc := &ecaAllocatorMock{}
	handler := &ECAAllocationHandler{service: mockSvc}
	c, w := newECAContext(t, http.MethodPost, "/eca/terms/term-1/allocation-preview",
		[]byte(`{"schoolId":"school-1","selectionMode":"SMART_ALLOCATION"}`), adminClaims("school-1"))

	handler.PreviewAllocation(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "term-1", mockSvc.previewReq.TermID)
	assert.Contains(t, w.Body.String(), "Chess")
}

func TestECAAllocationHandlerLatestAndWaitlist(t *testing.T) {
	mockSvc := &ecaAllocatorMock{}
	handler := &ECAAllocationHandler{service: mockSvc}

	c, w := newECAContext(t, http.MethodGet, "/eca/terms/term-1/allocation-runs/latest?schoolId=school-1", nil, adminClaims("school-1"))
	handler.LatestRun(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.TermScopeQuery{TermID: "term-1", SchoolID: "school-1"}, mockSvc.scope)

	c, w = newECAContext(t, http.MethodGet, "/eca/terms/term-1/waitlist?schoolId=school-1", nil, adminClaims("school-1"))
	handler.Waitlist(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestECAAllocationHandlerExport(t *testing.T) {
	mockSvc := &ecaAllocatorMock{}
	handler := &ECAAllocationHandler{service: mockSvc}
	c, w := newECAContext(t, http.MethodGet, "/eca/terms/term-1/allocations/export?schoolId=school-1&format=csv", nil, adminClaims("school-1"))

	handler.ExportAllocations(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "eca-allocations-term-1.csv")
	assert.Equal(t, "csv", mockSvc.exportQ.Format)
	assert.Equal(t, "term-1", mockSvc.exportQ.TermID)
}

func TestECAAllocationHandlerRunStatus(t *testing.T) {
	handler := &ECAAllocationHandler{service: &ecaAllocatorMock{}}

	c, w := newECAContext(t, http.MethodGet, "/eca/allocation-runs/run-async", nil, adminClaims(""))
	c.Params = gin.Params{{Key: "runId", Value: "run-async"}}
	handler.RunStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "RUNNING")

	c, w = newECAContext(t, http.MethodGet, "/eca/allocation-runs/missing", nil, adminClaims(""))
	c.Params = gin.Params{{Key: "runId", Value: "missing"}}
	handler.RunStatus(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestECAAllocationHandlerRequiresClaims(t *testing.T) {
	handler := &ECAAllocationHandler{service: &ecaAllocatorMock{}}
	c, w := newECAContext(t, http.MethodGet, "/eca/terms/term-1/waitlist?schoolId=school-1", nil, nil)

	handler.Waitlist(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

type waitlistAllocatorMock struct {
	ecaAllocatorMock
	items []dto.WaitlistItem
}

func (m *waitlistAllocatorMock) ListWaitlist(_ context.Context, _ dto.TermScopeQuery) ([]dto.WaitlistItem, error) {
	return m.items, nil
}

func TestECAAllocationHandlerWaitlistFiltersAndPages(t *testing.T) {
	mockSvc := &waitlistAllocatorMock{items: []dto.WaitlistItem{
		{ActivityID: "act-1", StudentID: "st-1", Position: 1},
		{ActivityID: "act-1", StudentID: "st-2", Position: 2},
		{ActivityID: "act-1", StudentID: "st-3", Position: 3},
		{ActivityID: "act-2", StudentID: "st-4", Position: 1},
	}}
	handler := &ECAAllocationHandler{service: mockSvc}
	c, w := newECAContext(t, http.MethodGet, "/eca/terms/term-1/waitlist?schoolId=school-1&activityId=act-1&page=2&limit=2", nil, adminClaims("school-1"))

	handler.Waitlist(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data       []dto.WaitlistItem     `json:"data"`
		Pagination models.Pagination      `json:"pagination"`
		Meta       map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "st-3", body.Data[0].StudentID)
	assert.Equal(t, models.Pagination{Page: 2, PageSize: 2, TotalCount: 3}, body.Pagination)
	assert.EqualValues(t, 3, body.Meta["total"])
}
