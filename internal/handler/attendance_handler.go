package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/internal/repository"
	"github.com/noah-isme/academy-crm-api/internal/service"
	"github.com/noah-isme/academy-crm-api/pkg/dateutil"
	appErrors "github.com/noah-isme/academy-crm-api/pkg/errors"
	"github.com/noah-isme/academy-crm-api/pkg/response"
)

// AttendanceHandler records attendance and reports session marking progress.
type AttendanceHandler struct {
	attendance *repository.AttendanceRepository
	students   *repository.StudentRepository
	retention  *service.RetentionService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance *repository.AttendanceRepository, students *repository.StudentRepository, retention *service.RetentionService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, students: students, retention: retention}
}

type markRequest struct {
	LeadID  string `json:"lead_id" binding:"required"`
	BatchID string `json:"batch_id" binding:"required"`
	Date    string `json:"date" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

func (r markRequest) toRecord() (*models.AttendanceRecord, error) {
	date, ok := dateutil.ParseDate(r.Date)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	status := models.AttendanceStatus(r.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be Present or Absent")
	}
	return &models.AttendanceRecord{
		LeadID:  r.LeadID,
		BatchID: r.BatchID,
		Date:    date,
		Status:  status,
	}, nil
}

// Mark godoc
// @Summary Mark one attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body markRequest true "Attendance record"
// @Success 204 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	record, err := req.toRecord()
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.attendance.Mark(c.Request.Context(), record); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkMark godoc
// @Summary Mark a whole session roster
// @Tags Attendance
// @Accept json
// @Produce json
// @Success 204 {object} response.Envelope
// @Router /attendance/bulk [post]
func (h *AttendanceHandler) BulkMark(c *gin.Context) {
	var payload struct {
		Records []markRequest `json:"records" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	records := make([]models.AttendanceRecord, 0, len(payload.Records))
	for _, req := range payload.Records {
		record, err := req.toRecord()
		if err != nil {
			response.Error(c, err)
			return
		}
		records = append(records, *record)
	}
	if err := h.attendance.BulkMark(c.Request.Context(), records); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SessionSummary godoc
// @Summary Marking progress for one batch session
// @Tags Attendance
// @Produce json
// @Param id path string true "Batch ID"
// @Param date query string false "Session date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendance/batches/{id}/summary [get]
func (h *AttendanceHandler) SessionSummary(c *gin.Context) {
	batchID := c.Param("id")
	date := time.Now().UTC()
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, ok := dateutil.ParseDate(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	roster, err := h.students.RosterForBatch(c.Request.Context(), batchID)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.attendance.ForBatchOnDate(c.Request.Context(), batchID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	participants := make([]string, 0, len(roster))
	for _, student := range roster {
		participants = append(participants, student.LeadID)
	}
	statusMap := make(map[string]*models.AttendanceStatus, len(records))
	for i := range records {
		statusMap[records[i].LeadID] = &records[i].Status
	}

	summary := h.retention.AttendanceSummary(participants, statusMap)
	response.JSON(c, http.StatusOK, summary, nil)
}
