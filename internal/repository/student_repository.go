package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academy-crm-api/internal/models"
)

// StudentRepository reads the enrolled-student projection of joined leads.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListActive returns students with a live or grace-period subscription.
func (r *StudentRepository) ListActive(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT id, lead_id, name, is_active, subscription_plan, subscription_end_date, in_grace_period, created_at, updated_at
        FROM students WHERE is_active = true OR in_grace_period = true
        ORDER BY name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}

// FindByID fetches a single student with batch memberships.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, lead_id, name, is_active, subscription_plan, subscription_end_date, in_grace_period, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}

	var batchIDs pq.StringArray
	const batchQuery = `SELECT COALESCE(array_agg(batch_id ORDER BY batch_id), '{}') FROM student_batches WHERE student_id = $1`
	if err := r.db.GetContext(ctx, &batchIDs, batchQuery, id); err != nil {
		return nil, fmt.Errorf("load student batches: %w", err)
	}
	student.BatchIDs = batchIDs
	return &student, nil
}

// FindByLeadID fetches the student projection for a lead.
func (r *StudentRepository) FindByLeadID(ctx context.Context, leadID string) (*models.Student, error) {
	const query = `SELECT id, lead_id, name, is_active, subscription_plan, subscription_end_date, in_grace_period, created_at, updated_at
        FROM students WHERE lead_id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, leadID); err != nil {
		return nil, err
	}
	return &student, nil
}

// RosterForBatch returns the active students enrolled in a batch.
func (r *StudentRepository) RosterForBatch(ctx context.Context, batchID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.lead_id, s.name, s.is_active, s.subscription_plan, s.subscription_end_date, s.in_grace_period, s.created_at, s.updated_at
        FROM students s
        JOIN student_batches sb ON sb.student_id = s.id
        WHERE sb.batch_id = $1 AND s.is_active = true
        ORDER BY s.name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, batchID); err != nil {
		return nil, fmt.Errorf("batch roster: %w", err)
	}
	return students, nil
}

// SetGracePeriod toggles the post-expiry grace flag.
func (r *StudentRepository) SetGracePeriod(ctx context.Context, id string, inGrace bool) error {
	const query = `UPDATE students SET in_grace_period = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, inGrace, time.Now().UTC()); err != nil {
		return fmt.Errorf("set grace period: %w", err)
	}
	return nil
}
