package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-crm-api/internal/models"
)

// AttendanceRepository manages per-session attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// HistoryByLead returns every attendance record for a lead, oldest first.
func (r *AttendanceRepository) HistoryByLead(ctx context.Context, leadID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, lead_id, batch_id, date, status, created_at
        FROM attendance WHERE lead_id = $1 ORDER BY date ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, leadID); err != nil {
		return nil, fmt.Errorf("attendance history: %w", err)
	}
	return records, nil
}

// PresentCountByLead returns the lead's lifetime count of attended sessions.
func (r *AttendanceRepository) PresentCountByLead(ctx context.Context, leadID string) (int, error) {
	const query = `SELECT COUNT(*) FROM attendance WHERE lead_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, leadID, models.AttendancePresent); err != nil {
		return 0, fmt.Errorf("present count: %w", err)
	}
	return count, nil
}

// ForBatchOnDate returns records for one batch session.
func (r *AttendanceRepository) ForBatchOnDate(ctx context.Context, batchID string, date time.Time) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, lead_id, batch_id, date, status, created_at
        FROM attendance WHERE batch_id = $1 AND date::date = $2::date
        ORDER BY created_at ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, batchID, date.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("attendance for session: %w", err)
	}
	return records, nil
}

// Mark upserts a single attendance record. Re-marking the same lead and
// session replaces the earlier status.
func (r *AttendanceRepository) Mark(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance (id, lead_id, batch_id, date, status, created_at)
        VALUES (:id, :lead_id, :batch_id, :date, :status, :created_at)
        ON CONFLICT (lead_id, batch_id, date) DO UPDATE SET status = EXCLUDED.status`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("mark attendance: %w", err)
	}
	return nil
}

// BulkMark records a whole session roster in one transaction.
func (r *AttendanceRepository) BulkMark(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk mark: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `INSERT INTO attendance (id, lead_id, batch_id, date, status, created_at)
        VALUES (:id, :lead_id, :batch_id, :date, :status, :created_at)
        ON CONFLICT (lead_id, batch_id, date) DO UPDATE SET status = EXCLUDED.status`
	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, records[i]); err != nil {
			return fmt.Errorf("bulk mark attendance: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk mark: %w", err)
	}
	return nil
}
