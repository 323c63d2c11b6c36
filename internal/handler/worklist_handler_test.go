package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/internal/service"
)

type fakeWorklistLeads struct {
	leads   []models.Lead
	buckets *models.FollowUpBuckets
}

func (f *fakeWorklistLeads) ListAll(context.Context) ([]models.Lead, error) {
	return f.leads, nil
}

func (f *fakeWorklistLeads) Buckets(context.Context, time.Time) (*models.FollowUpBuckets, error) {
	if f.buckets == nil {
		return &models.FollowUpBuckets{}, nil
	}
	return f.buckets, nil
}

type fakeRetention struct{}

func (fakeRetention) RenewalsDue(context.Context, int) ([]models.Student, error) {
	return []models.Student{{ID: "student-1", LeadID: "lead-1", Name: "Asha"}}, nil
}

func (fakeRetention) MilestoneStudents(context.Context, models.MilestoneScheme) ([]models.Student, error) {
	return nil, nil
}

func newWorklistHandler(leads *fakeWorklistLeads) *WorklistHandler {
	svc := service.NewWorklistService(leads, fakeRetention{}, nil, nil, service.WorklistConfig{})
	return NewWorklistHandler(svc, nil)
}

func TestWorklistHandlerTripleStack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	overdueDate := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	todayDate := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	handler := newWorklistHandler(&fakeWorklistLeads{
		buckets: &models.FollowUpBuckets{
			Overdue: []models.Lead{
				{ID: "late", Status: models.StatusCalled, NextFollowupDate: &overdueDate},
			},
			DueToday: []models.Lead{
				{ID: "today", Status: models.StatusTrialScheduled, NextFollowupDate: &todayDate},
			},
		},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/worklist?date=2024-01-10", nil)

	handler.TripleStack(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			SelectedDate string `json:"selected_date"`
			Counts       struct {
				Overdue int `json:"overdue"`
				Today   int `json:"today"`
			} `json:"counts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "2024-01-10", envelope.Data.SelectedDate)
	assert.Equal(t, 1, envelope.Data.Counts.Overdue)
	assert.Equal(t, 1, envelope.Data.Counts.Today)
}

func TestWorklistHandlerTripleStackInvalidDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newWorklistHandler(&fakeWorklistLeads{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/worklist?date=10-01-2024", nil)

	handler.TripleStack(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorklistHandlerSmartFilterUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newWorklistHandler(&fakeWorklistLeads{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/worklist/filters/bogus", nil)
	c.Params = gin.Params{{Key: "name", Value: "bogus"}}

	handler.SmartFilter(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorklistHandlerSmartFilterRenewals(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newWorklistHandler(&fakeWorklistLeads{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/worklist/filters/renewals", nil)
	c.Params = gin.Params{{Key: "name", Value: "renewals"}}

	handler.SmartFilter(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			Filter string `json:"filter"`
			Count  int    `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "renewals", envelope.Data.Filter)
	assert.Equal(t, 1, envelope.Data.Count)
}
