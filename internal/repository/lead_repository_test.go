package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-crm-api/internal/models"
)

func newLeadMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func leadRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "phone", "status", "created_time", "next_followup_date", "last_updated",
		"trial_batch_id", "permanent_batch_id", "subscription_plan", "subscription_start_date", "subscription_end_date",
		"loss_reason", "nudge_count", "preferred_batch_id", "preferred_call_time", "extra_data", "created_at", "updated_at",
	}).AddRow("lead-1", "Asha", "555-0101", string(models.StatusCalled), now, now, now,
		nil, nil, nil, nil, nil, nil, 0, nil, nil, []byte(`{}`), now, now)
}

func TestLeadRepositoryList(t *testing.T) {
	db, mock, cleanup := newLeadMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE 1=1 AND status = \$1 ORDER BY created_time DESC LIMIT 50 OFFSET 0`).
		WithArgs(models.StatusCalled).
		WillReturnRows(leadRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads WHERE 1=1 AND status = \$1`).
		WithArgs(models.StatusCalled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.StatusCalled
	leads, total, err := repo.List(context.Background(), models.LeadFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Asha", leads[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryBuckets(t *testing.T) {
	db, mock, cleanup := newLeadMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	today := "2024-01-10"

	mock.ExpectQuery(`next_followup_date::date < \$1::date`).
		WithArgs(today).
		WillReturnRows(leadRows())
	mock.ExpectQuery(`next_followup_date::date = \$1::date`).
		WithArgs(today).
		WillReturnRows(leadRows())
	mock.ExpectQuery(`next_followup_date::date > \$1::date`).
		WithArgs(today).
		WillReturnRows(leadRows())

	buckets, err := repo.Buckets(context.Background(), now)
	require.NoError(t, err)
	assert.Len(t, buckets.Overdue, 1)
	assert.Len(t, buckets.DueToday, 1)
	assert.Len(t, buckets.Upcoming, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryUpdateStatusClearsFollowup(t *testing.T) {
	db, mock, cleanup := newLeadMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectExec(`UPDATE leads SET status = \$2, last_updated = \$3, updated_at = \$3, loss_reason = \$4, next_followup_date = NULL WHERE id = \$1`).
		WithArgs("lead-1", models.StatusNotInterested, sqlmock.AnyArg(), "moved away").
		WillReturnResult(sqlmock.NewResult(0, 1))

	reason := "moved away"
	err := repo.UpdateStatus(context.Background(), "lead-1", models.StatusUpdate{
		Status:        models.StatusNotInterested,
		LossReason:    &reason,
		ClearFollowup: true,
		UpdatedAt:     time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryUpdateStatusMissingLead(t *testing.T) {
	db, mock, cleanup := newLeadMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectExec(`UPDATE leads SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.StatusUpdate{
		Status:    models.StatusCalled,
		UpdatedAt: time.Now().UTC(),
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryIncrementNudgeCount(t *testing.T) {
	db, mock, cleanup := newLeadMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectExec(`UPDATE leads SET nudge_count = nudge_count \+ 1, updated_at = \$2 WHERE id = \$1`).
		WithArgs("lead-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IncrementNudgeCount(context.Background(), "lead-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newLeadMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectExec("INSERT INTO leads").
		WillReturnResult(sqlmock.NewResult(1, 1))

	lead := &models.Lead{Name: "Asha"}
	require.NoError(t, repo.Create(context.Background(), lead))
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, models.StatusNew, lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
