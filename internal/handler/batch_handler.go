package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-crm-api/internal/dto"
	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/internal/repository"
	"github.com/noah-isme/academy-crm-api/internal/service"
	"github.com/noah-isme/academy-crm-api/pkg/dateutil"
	appErrors "github.com/noah-isme/academy-crm-api/pkg/errors"
	"github.com/noah-isme/academy-crm-api/pkg/response"
)

// BatchHandler serves batch listings and the occurrence calendar math.
type BatchHandler struct {
	repo        *repository.BatchRepository
	occurrences *service.OccurrenceService
}

// NewBatchHandler constructs the handler.
func NewBatchHandler(repo *repository.BatchRepository, occurrences *service.OccurrenceService) *BatchHandler {
	return &BatchHandler{repo: repo, occurrences: occurrences}
}

func (h *BatchHandler) parseDate(c *gin.Context, key string, fallbackToday bool) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		if fallbackToday {
			return time.Now().UTC(), true
		}
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, key+" is required"))
		return time.Time{}, false
	}
	parsed, ok := dateutil.ParseDate(raw)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+key+" format, expected YYYY-MM-DD"))
		return time.Time{}, false
	}
	return parsed, true
}

// List godoc
// @Summary List batches
// @Tags Batches
// @Produce json
// @Param centerId query string false "Center ID"
// @Param active query bool false "Active filter"
// @Success 200 {object} response.Envelope
// @Router /batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	filter := models.BatchFilter{CenterID: strings.TrimSpace(c.Query("centerId"))}
	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be true or false"))
			return
		}
		filter.Active = &active
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	batches, total, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, batches, pagination)
}

// Occurrences godoc
// @Summary Batches holding a session on a date
// @Tags Batches
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD). Defaults to today"
// @Param centerId query string false "Center ID"
// @Success 200 {object} response.Envelope
// @Router /batches/occurrences [get]
func (h *BatchHandler) Occurrences(c *gin.Context) {
	date, ok := h.parseDate(c, "date", true)
	if !ok {
		return
	}
	batches, err := h.occurrences.OccurrencesForCenter(c.Request.Context(), strings.TrimSpace(c.Query("centerId")), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.OccurrencesResponse{
		Date:    date.Format(dateutil.DateLayout),
		Batches: batches,
	}, nil)
}

// SessionsBetween godoc
// @Summary Count batch sessions in a date range
// @Tags Batches
// @Produce json
// @Param id path string true "Batch ID"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/sessions [get]
func (h *BatchHandler) SessionsBetween(c *gin.Context) {
	from, ok := h.parseDate(c, "from", false)
	if !ok {
		return
	}
	to, ok := h.parseDate(c, "to", false)
	if !ok {
		return
	}
	batchID := c.Param("id")
	sessions, err := h.occurrences.BatchSessionsBetween(c.Request.Context(), batchID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SessionCountResponse{
		BatchID:  batchID,
		From:     from.Format(dateutil.DateLayout),
		To:       to.Format(dateutil.DateLayout),
		Sessions: sessions,
	}, nil)
}

// EndDate godoc
// @Summary Project the completion date for a session bundle
// @Tags Batches
// @Produce json
// @Param id path string true "Batch ID"
// @Param start query string true "Bundle start (YYYY-MM-DD)"
// @Param sessions query int true "Total sessions in the bundle"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/end-date [get]
func (h *BatchHandler) EndDate(c *gin.Context) {
	start, ok := h.parseDate(c, "start", false)
	if !ok {
		return
	}
	sessions, err := strconv.Atoi(c.Query("sessions"))
	if err != nil || sessions <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "sessions must be a positive integer"))
		return
	}
	batchID := c.Param("id")
	endDate, err := h.occurrences.BatchEndDate(c.Request.Context(), batchID, start, sessions)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.EndDateResponse{
		BatchID:       batchID,
		StartDate:     start.Format(dateutil.DateLayout),
		TotalSessions: sessions,
		EndDate:       endDate.Format(dateutil.DateLayout),
	}, nil)
}
