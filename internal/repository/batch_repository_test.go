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

func newBatchMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func batchRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "center_id", "name", "is_sunday", "is_monday", "is_tuesday", "is_wednesday", "is_thursday",
		"is_friday", "is_saturday", "start_time", "end_time", "start_date", "end_date", "max_capacity", "is_active", "created_at", "updated_at",
	}).AddRow("batch-1", "center-1", "U10 Evening", false, false, false, true, false,
		true, false, "17:00", "18:30", now, nil, 20, true, now, now)
}

func TestBatchRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newBatchMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM batches WHERE is_active = true AND center_id = \$1 ORDER BY start_time ASC, name ASC`).
		WithArgs("center-1").
		WillReturnRows(batchRows())

	batches, err := repo.ListActive(context.Background(), "center-1")
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.True(t, batches[0].IsWednesday)
	assert.True(t, batches[0].IsFriday)
	assert.False(t, batches[0].IsMonday)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryListActiveAllCenters(t *testing.T) {
	db, mock, cleanup := newBatchMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM batches WHERE is_active = true ORDER BY start_time ASC, name ASC`).
		WillReturnRows(batchRows())

	batches, err := repo.ListActive(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, batches, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newBatchMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM batches WHERE id = \$1`).
		WithArgs("batch-1").
		WillReturnRows(batchRows())
	mock.ExpectQuery(`SELECT COALESCE\(array_agg\(coach_id ORDER BY coach_id\), '{}'\) FROM batch_coaches WHERE batch_id = \$1`).
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(`{coach-1,coach-2}`))

	batch, err := repo.FindByID(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"coach-1", "coach-2"}, batch.CoachIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newBatchMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectExec("INSERT INTO batches").
		WillReturnResult(sqlmock.NewResult(1, 1))

	batch := &models.Batch{CenterID: "center-1", Name: "U10 Evening", IsWednesday: true, IsFriday: true, StartDate: time.Now(), IsActive: true}
	require.NoError(t, repo.Create(context.Background(), batch))
	assert.NotEmpty(t, batch.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newBatchMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectExec(`UPDATE batches SET is_active = false, updated_at = \$2 WHERE id = \$1`).
		WithArgs("batch-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "batch-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
