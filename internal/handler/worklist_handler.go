package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-crm-api/internal/middleware"
	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/internal/service"
	"github.com/noah-isme/academy-crm-api/pkg/dateutil"
	appErrors "github.com/noah-isme/academy-crm-api/pkg/errors"
	"github.com/noah-isme/academy-crm-api/pkg/response"
)

// WorklistHandler serves the daily triple-stack, the smart filters and the
// downloadable exports.
type WorklistHandler struct {
	service *service.WorklistService
	export  *service.ExportService
}

// NewWorklistHandler constructs the handler.
func NewWorklistHandler(svc *service.WorklistService, export *service.ExportService) *WorklistHandler {
	return &WorklistHandler{service: svc, export: export}
}

func selectedDate(c *gin.Context) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		return time.Now().UTC(), true
	}
	parsed, ok := dateutil.ParseDate(raw)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD"))
		return time.Time{}, false
	}
	return parsed, true
}

// TripleStack godoc
// @Summary Daily worklist
// @Description Overdue, due-today and upcoming leads for a selected date
// @Tags Worklist
// @Produce json
// @Param date query string false "Selected date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /worklist [get]
func (h *WorklistHandler) TripleStack(c *gin.Context) {
	date, ok := selectedDate(c)
	if !ok {
		return
	}
	start := time.Now()
	stack, cacheHit, err := h.service.TripleStack(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, stack, nil, meta)
}

// SmartFilter godoc
// @Summary Named worklist view
// @Tags Worklist
// @Produce json
// @Param name path string true "Filter name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /worklist/filters/{name} [get]
func (h *WorklistHandler) SmartFilter(c *gin.Context) {
	filter := models.SmartFilter(c.Param("name"))
	result, err := h.service.SmartFilter(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Download the daily worklist
// @Tags Worklist
// @Produce text/csv
// @Produce application/pdf
// @Param date query string false "Selected date (YYYY-MM-DD). Defaults to today"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /worklist/export [get]
func (h *WorklistHandler) Export(c *gin.Context) {
	if h.export == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}
	date, ok := selectedDate(c)
	if !ok {
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	doc, err := h.export.ExportWorklist(c.Request.Context(), date, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
