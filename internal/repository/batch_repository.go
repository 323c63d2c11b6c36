package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academy-crm-api/internal/models"
)

const batchColumns = `id, center_id, name, is_sunday, is_monday, is_tuesday, is_wednesday, is_thursday,
        is_friday, is_saturday, start_time, end_time, start_date, end_date, max_capacity, is_active, created_at, updated_at`

// BatchRepository manages persistence for recurring weekly batches.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs a BatchRepository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// List returns batches matching the provided filters.
func (r *BatchRepository) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error) {
	base := "FROM batches"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.CenterID != "" {
		conditions = append(conditions, fmt.Sprintf("center_id = $%d", len(args)+1))
		args = append(args, filter.CenterID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY start_time ASC, name ASC LIMIT %d OFFSET %d", batchColumns, base, size, offset)

	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}
	return batches, total, nil
}

// ListActive returns active batches for a center, every batch when centerID
// is empty. One query serves the whole-day occurrence expansion.
func (r *BatchRepository) ListActive(ctx context.Context, centerID string) ([]models.Batch, error) {
	query := fmt.Sprintf("SELECT %s FROM batches WHERE is_active = true", batchColumns)
	args := []interface{}{}
	if centerID != "" {
		query += " AND center_id = $1"
		args = append(args, centerID)
	}
	query += " ORDER BY start_time ASC, name ASC"

	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, fmt.Errorf("list active batches: %w", err)
	}
	return batches, nil
}

// FindByID fetches a single batch with its assigned coaches.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	query := fmt.Sprintf("SELECT %s FROM batches WHERE id = $1", batchColumns)
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, err
	}

	var coachIDs pq.StringArray
	const coachQuery = `SELECT COALESCE(array_agg(coach_id ORDER BY coach_id), '{}') FROM batch_coaches WHERE batch_id = $1`
	if err := r.db.GetContext(ctx, &coachIDs, coachQuery, id); err != nil {
		return nil, fmt.Errorf("load batch coaches: %w", err)
	}
	batch.CoachIDs = coachIDs
	return &batch, nil
}

// Create inserts a new batch.
func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = now
	}
	batch.UpdatedAt = now
	const query = `INSERT INTO batches (id, center_id, name, is_sunday, is_monday, is_tuesday, is_wednesday, is_thursday,
        is_friday, is_saturday, start_time, end_time, start_date, end_date, max_capacity, is_active, created_at, updated_at)
        VALUES (:id, :center_id, :name, :is_sunday, :is_monday, :is_tuesday, :is_wednesday, :is_thursday,
        :is_friday, :is_saturday, :start_time, :end_time, :start_date, :end_date, :max_capacity, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// Update modifies an existing batch.
func (r *BatchRepository) Update(ctx context.Context, batch *models.Batch) error {
	batch.UpdatedAt = time.Now().UTC()
	const query = `UPDATE batches SET center_id = :center_id, name = :name,
        is_sunday = :is_sunday, is_monday = :is_monday, is_tuesday = :is_tuesday, is_wednesday = :is_wednesday,
        is_thursday = :is_thursday, is_friday = :is_friday, is_saturday = :is_saturday,
        start_time = :start_time, end_time = :end_time, start_date = :start_date, end_date = :end_date,
        max_capacity = :max_capacity, is_active = :is_active, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	return nil
}

// Deactivate marks a batch as inactive so it stops producing occurrences.
func (r *BatchRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE batches SET is_active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate batch: %w", err)
	}
	return nil
}
