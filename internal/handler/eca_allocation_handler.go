package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-eca-api/internal/dto"
	"github.com/noah-isme/sma-eca-api/internal/service"
	appErrors "github.com/noah-isme/sma-eca-api/pkg/errors"
	"github.com/noah-isme/sma-eca-api/pkg/response"
)

type ecaAllocator interface {
	Run(ctx context.Context, req dto.RunAllocationRequest) (*dto.AllocationResult, error)
	RunAsync(ctx context.Context, req dto.RunAllocationRequest) (*dto.AllocationRunAccepted, error)
	RunStatus(ctx context.Context, runID string) (*dto.AllocationRunAccepted, error)
	Preview(ctx context.Context, req dto.PreviewAllocationRequest) (*dto.AllocationPreview, error)
	Latest(ctx context.Context, query dto.TermScopeQuery) (*dto.AllocationResult, error)
	Export(ctx context.Context, query dto.ExportAllocationsQuery) (*service.ExportFile, error)
	ListWaitlist(ctx context.Context, query dto.TermScopeQuery) ([]dto.WaitlistItem, error)
}

// ECAAllocationHandler exposes allocation runs to school administrators.
type ECAAllocationHandler struct {
	service ecaAllocator
}

// NewECAAllocationHandler constructs the handler.
func NewECAAllocationHandler(svc *service.ECAAllocationService) *ECAAllocationHandler {
	return &ECAAllocationHandler{service: svc}
}

// RunAllocation godoc
// @Summary Run ECA allocation for a term
// @Description Replaces engine allocations and waitlists for the term. Check `success` in the result; failures after validation are reported there. With async=true the run is queued and 202 is returned.
// @Tags ECA
// @Accept json
// @Produce json
// @Param termId path string true "Term ID"
// @Param async query bool false "Queue the run"
// @Param payload body dto.RunAllocationRequest true "Run options"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /eca/terms/{termId}/allocation-runs [post]
func (h *ECAAllocationHandler) RunAllocation(c *gin.Context) {
	var req dto.RunAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid allocation run payload"))
		return
	}
	req.TermID = c.Param("termId")
	if !h.authorizeSchool(c, req.SchoolID) {
		return
	}

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		accepted, err := h.service.RunAsync(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, accepted)
		return
	}

	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"success": result.Success})
}

// RunStatus godoc
// @Summary Status of a queued allocation run
// @Tags ECA
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /eca/allocation-runs/{runId} [get]
func (h *ECAAllocationHandler) RunStatus(c *gin.Context) {
	status, err := h.service.RunStatus(c.Request.Context(), c.Param("runId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// PreviewAllocation godoc
// @Summary Simulate ECA allocation without writing
// @Tags ECA
// @Accept json
// @Produce json
// @Param termId path string true "Term ID"
// @Param payload body dto.PreviewAllocationRequest true "Preview options"
// @Success 200 {object} response.Envelope
// @Router /eca/terms/{termId}/allocation-preview [post]
func (h *ECAAllocationHandler) PreviewAllocation(c *gin.Context) {
	var req dto.PreviewAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid allocation preview payload"))
		return
	}
	req.TermID = c.Param("termId")
	if !h.authorizeSchool(c, req.SchoolID) {
		return
	}
	preview, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// LatestRun godoc
// @Summary Most recent allocation result for a term
// @Tags ECA
// @Produce json
// @Param termId path string true "Term ID"
// @Param schoolId query string true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /eca/terms/{termId}/allocation-runs/latest [get]
func (h *ECAAllocationHandler) LatestRun(c *gin.Context) {
	query, ok := h.bindScope(c)
	if !ok {
		return
	}
	result, err := h.service.Latest(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExportAllocations godoc
// @Summary Download the allocation roster
// @Tags ECA
// @Produce text/csv
// @Produce application/pdf
// @Param termId path string true "Term ID"
// @Param schoolId query string true "School ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /eca/terms/{termId}/allocations/export [get]
func (h *ECAAllocationHandler) ExportAllocations(c *gin.Context) {
	var query dto.ExportAllocationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid export query"))
		return
	}
	query.TermID = c.Param("termId")
	if !h.authorizeSchool(c, query.SchoolID) {
		return
	}
	file, err := h.service.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}

// Waitlist godoc
// @Summary List waitlists for a term
// @Tags ECA
// @Produce json
// @Param termId path string true "Term ID"
// @Param schoolId query string true "School ID"
// @Param activityId query string false "Only this activity"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /eca/terms/{termId}/waitlist [get]
func (h *ECAAllocationHandler) Waitlist(c *gin.Context) {
	query, ok := h.bindScope(c)
	if !ok {
		return
	}
	items, err := h.service.ListWaitlist(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if activityID := c.Query("activityId"); activityID != "" {
		filtered := items[:0:0]
		for _, item := range items {
			if item.ActivityID == activityID {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	page, limit := pageParams(c, 100, 500)
	pageItems, pagination := paginate(items, page, limit)
	response.JSON(c, http.StatusOK, pageItems, pagination, map[string]interface{}{"total": len(items)})
}

func (h *ECAAllocationHandler) bindScope(c *gin.Context) (dto.TermScopeQuery, bool) {
	var query dto.TermScopeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid query"))
		return query, false
	}
	query.TermID = c.Param("termId")
	return query, h.authorizeSchool(c, query.SchoolID)
}

// authorizeSchool rejects admins scoped to a different school.
func (h *ECAAllocationHandler) authorizeSchool(c *gin.Context, schoolID string) bool {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return false
	}
	if schoolID != "" && !claims.CanManageSchool(schoolID) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "school is outside your scope"))
		return false
	}
	return true
}
