package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-crm-api/internal/dto"
	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/internal/service"
	"github.com/noah-isme/academy-crm-api/pkg/dateutil"
	appErrors "github.com/noah-isme/academy-crm-api/pkg/errors"
	"github.com/noah-isme/academy-crm-api/pkg/response"
)

// LeadHandler wires lead CRUD and lifecycle transitions to HTTP endpoints.
type LeadHandler struct {
	service   *service.LeadService
	lifecycle *service.LifecycleService
}

// NewLeadHandler constructs the handler.
func NewLeadHandler(svc *service.LeadService, lifecycle *service.LifecycleService) *LeadHandler {
	return &LeadHandler{service: svc, lifecycle: lifecycle}
}

// List godoc
// @Summary List leads
// @Tags Leads
// @Produce json
// @Param status query string false "Filter by lifecycle status"
// @Param batchId query string false "Filter by trial or permanent batch"
// @Param search query string false "Name or phone search"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	filter := models.LeadFilter{
		BatchID:   strings.TrimSpace(c.Query("batchId")),
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    strings.TrimSpace(c.Query("sortBy")),
		SortOrder: strings.TrimSpace(c.Query("sortOrder")),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.LeadStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrInvalidStatus, "unknown status "+raw))
			return
		}
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	leads, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leads, pagination)
}

// Get godoc
// @Summary Get a lead with its lifecycle projection
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /leads/{id} [get]
func (h *LeadHandler) Get(c *gin.Context) {
	lead, view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"lead": lead, "status_view": view}, nil)
}

// ValidateTransition godoc
// @Summary Dry-run a status transition
// @Description Returns the structured verdict without persisting anything
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param payload body dto.OffRampRequest true "Proposed transition"
// @Success 200 {object} response.Envelope
// @Router /leads/{id}/status/validate [post]
func (h *LeadHandler) ValidateTransition(c *gin.Context) {
	var req dto.OffRampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}
	lead, _, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result := h.lifecycle.ValidateTransition(lead.Status, req)
	response.JSON(c, http.StatusOK, result, nil)
}

// Transition godoc
// @Summary Apply a status transition
// @Description Validates and persists a lifecycle change; invalid transitions return the verdict with HTTP 422
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param payload body dto.OffRampRequest true "Transition"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /leads/{id}/status [put]
func (h *LeadHandler) Transition(c *gin.Context) {
	var req dto.OffRampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}
	result, err := h.service.Transition(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Valid {
		response.JSON(c, http.StatusUnprocessableEntity, result, nil)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Revert godoc
// @Summary Revert the last pipeline advance
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /leads/{id}/status/revert [post]
func (h *LeadHandler) Revert(c *gin.Context) {
	result, err := h.service.Revert(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Valid {
		response.JSON(c, http.StatusUnprocessableEntity, result, nil)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// OffRampRequirements godoc
// @Summary Field requirements for a parking status
// @Tags Leads
// @Produce json
// @Param status query string true "Parking status"
// @Success 200 {object} response.Envelope
// @Router /leads/off-ramp-requirements [get]
func (h *LeadHandler) OffRampRequirements(c *gin.Context) {
	status := models.LeadStatus(strings.TrimSpace(c.Query("status")))
	if !status.IsOffRamp() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status is not a parking status"))
		return
	}
	response.JSON(c, http.StatusOK, h.lifecycle.OffRampRequirements(status), nil)
}

// ScheduleFollowup godoc
// @Summary Set or clear the next follow-up date
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Success 204 {object} response.Envelope
// @Router /leads/{id}/followup [put]
func (h *LeadHandler) ScheduleFollowup(c *gin.Context) {
	var payload struct {
		Date *string `json:"date"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid follow-up payload"))
		return
	}

	var followup *time.Time
	if payload.Date != nil && *payload.Date != "" {
		parsed, ok := dateutil.ParseDate(*payload.Date)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD"))
			return
		}
		followup = &parsed
	}

	if err := h.service.ScheduleFollowup(c.Request.Context(), c.Param("id"), followup); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SubmitPreferences godoc
// @Summary Record parent scheduling preferences
// @Description Public endpoint used by the booking page; the stored status stays New
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Success 204 {object} response.Envelope
// @Router /public/leads/{id}/preferences [post]
func (h *LeadHandler) SubmitPreferences(c *gin.Context) {
	var req service.PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preferences payload"))
		return
	}
	if err := h.service.SubmitPreferences(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
