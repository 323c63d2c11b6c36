package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-crm-api/internal/dto"
	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/internal/service"
	appErrors "github.com/noah-isme/academy-crm-api/pkg/errors"
	"github.com/noah-isme/academy-crm-api/pkg/response"
)

// RetentionHandler exposes the renewal and milestone detectors.
type RetentionHandler struct {
	service *service.RetentionService
	nudges  *service.NudgeService
}

// NewRetentionHandler constructs the handler.
func NewRetentionHandler(svc *service.RetentionService, nudges *service.NudgeService) *RetentionHandler {
	return &RetentionHandler{service: svc, nudges: nudges}
}

func schemeParam(c *gin.Context) (models.MilestoneScheme, bool) {
	raw := strings.TrimSpace(c.Query("scheme"))
	if raw == "" {
		return "", true
	}
	scheme := models.MilestoneScheme(raw)
	if !scheme.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "scheme must be web or mobile"))
		return "", false
	}
	return scheme, true
}

// Renewals godoc
// @Summary Students inside the renewal window
// @Tags Retention
// @Produce json
// @Param window query int false "Window size in days"
// @Success 200 {object} response.Envelope
// @Router /retention/renewals [get]
func (h *RetentionHandler) Renewals(c *gin.Context) {
	window, _ := strconv.Atoi(c.DefaultQuery("window", "0"))
	students, err := h.service.RenewalsDue(c.Request.Context(), window)
	if err != nil {
		response.Error(c, err)
		return
	}
	if window <= 0 {
		window = h.service.DefaultRenewalWindow()
	}
	response.JSON(c, http.StatusOK, dto.RenewalsResponse{WindowDays: window, Students: students}, nil)
}

// Milestones godoc
// @Summary Students who recently hit a tracked milestone
// @Tags Retention
// @Produce json
// @Param scheme query string false "Milestone scheme (web or mobile)"
// @Success 200 {object} response.Envelope
// @Router /retention/milestones [get]
func (h *RetentionHandler) Milestones(c *gin.Context) {
	scheme, ok := schemeParam(c)
	if !ok {
		return
	}
	students, err := h.service.MilestoneStudents(c.Request.Context(), scheme)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"students": students, "count": len(students)}, nil)
}

// StudentMilestone godoc
// @Summary Milestone position for a single student
// @Tags Retention
// @Produce json
// @Param leadId path string true "Lead ID"
// @Param scheme query string false "Milestone scheme (web or mobile)"
// @Success 200 {object} response.Envelope
// @Router /retention/students/{leadId}/milestone [get]
func (h *RetentionHandler) StudentMilestone(c *gin.Context) {
	scheme, ok := schemeParam(c)
	if !ok {
		return
	}
	summary, err := h.service.StudentMilestone(c.Request.Context(), c.Param("leadId"), scheme)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// StudentView godoc
// @Summary Combined retention signals for a single student
// @Tags Retention
// @Produce json
// @Param leadId path string true "Lead ID"
// @Param scheme query string false "Milestone scheme (web or mobile)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /retention/students/{leadId} [get]
func (h *RetentionHandler) StudentView(c *gin.Context) {
	scheme, ok := schemeParam(c)
	if !ok {
		return
	}
	view, err := h.service.StudentView(c.Request.Context(), c.Param("leadId"), scheme)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// StudentIndicator godoc
// @Summary Attendance indicator for a single student
// @Tags Retention
// @Produce json
// @Param leadId path string true "Lead ID"
// @Success 200 {object} response.Envelope
// @Router /retention/students/{leadId}/indicator [get]
func (h *RetentionHandler) StudentIndicator(c *gin.Context) {
	indicator, err := h.service.StudentIndicator(c.Request.Context(), c.Param("leadId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"indicator": indicator}, nil)
}

// DispatchNudges godoc
// @Summary Scan retention signals and enqueue nudges
// @Tags Retention
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /retention/nudges/dispatch [post]
func (h *RetentionHandler) DispatchNudges(c *gin.Context) {
	if h.nudges == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "nudges are disabled"))
		return
	}
	enqueued, err := h.nudges.DispatchDue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"enqueued": enqueued}, nil)
}
