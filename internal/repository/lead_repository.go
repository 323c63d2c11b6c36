package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-crm-api/internal/models"
)

const leadColumns = `id, name, phone, status, created_time, next_followup_date, last_updated,
        trial_batch_id, permanent_batch_id, subscription_plan, subscription_start_date, subscription_end_date,
        loss_reason, nudge_count, preferred_batch_id, preferred_call_time, extra_data, created_at, updated_at`

// LeadRepository manages persistence for leads.
type LeadRepository struct {
	db *sqlx.DB
}

// NewLeadRepository constructs a LeadRepository.
func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// List returns leads matching the provided filters.
func (r *LeadRepository) List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int, error) {
	base := "FROM leads"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.BatchID != "" {
		conditions = append(conditions, fmt.Sprintf("(trial_batch_id = $%d OR permanent_batch_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.BatchID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR phone LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":               "name",
		"created_time":       "created_time",
		"next_followup_date": "next_followup_date",
		"last_updated":       "last_updated",
	}
	if sortBy == "" {
		sortBy = "created_time"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_time"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", leadColumns, base, column, order, size, offset)

	var leads []models.Lead
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}
	return leads, total, nil
}

// ListAll returns every lead. The worklist categoriser filters in memory so
// that a single scan serves all smart filters.
func (r *LeadRepository) ListAll(ctx context.Context) ([]models.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads ORDER BY created_time DESC", leadColumns)
	var leads []models.Lead
	if err := r.db.SelectContext(ctx, &leads, query); err != nil {
		return nil, fmt.Errorf("list all leads: %w", err)
	}
	return leads, nil
}

// Buckets partitions leads with a scheduled follow-up into overdue, due-today
// and upcoming relative to the provided server time. Date comparison is done
// on calendar days, not instants.
func (r *LeadRepository) Buckets(ctx context.Context, now time.Time) (*models.FollowUpBuckets, error) {
	today := now.Format("2006-01-02")

	buckets := &models.FollowUpBuckets{}
	queries := []struct {
		dest *[]models.Lead
		op   string
	}{
		{&buckets.Overdue, "<"},
		{&buckets.DueToday, "="},
		{&buckets.Upcoming, ">"},
	}
	for _, q := range queries {
		query := fmt.Sprintf(`SELECT %s FROM leads
            WHERE next_followup_date IS NOT NULL AND next_followup_date::date %s $1::date
            ORDER BY next_followup_date ASC`, leadColumns, q.op)
		if err := r.db.SelectContext(ctx, q.dest, query, today); err != nil {
			return nil, fmt.Errorf("bucket leads (%s): %w", q.op, err)
		}
	}
	return buckets, nil
}

// FindByID fetches a single lead.
func (r *LeadRepository) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads WHERE id = $1", leadColumns)
	var lead models.Lead
	if err := r.db.GetContext(ctx, &lead, query, id); err != nil {
		return nil, err
	}
	return &lead, nil
}

// Create inserts a new lead.
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lead.CreatedTime.IsZero() {
		lead.CreatedTime = now
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	if lead.Status == "" {
		lead.Status = models.StatusNew
	}
	const query = `INSERT INTO leads (id, name, phone, status, created_time, next_followup_date, last_updated,
        trial_batch_id, permanent_batch_id, subscription_plan, subscription_start_date, subscription_end_date,
        loss_reason, nudge_count, preferred_batch_id, preferred_call_time, extra_data, created_at, updated_at)
        VALUES (:id, :name, :phone, :status, :created_time, :next_followup_date, :last_updated,
        :trial_batch_id, :permanent_batch_id, :subscription_plan, :subscription_start_date, :subscription_end_date,
        :loss_reason, :nudge_count, :preferred_batch_id, :preferred_call_time, :extra_data, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

// UpdateStatus applies a lifecycle change and its side effects in one write.
func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) error {
	sets := []string{"status = $2", "last_updated = $3", "updated_at = $3"}
	args := []interface{}{id, update.Status, update.UpdatedAt}

	if update.LossReason != nil {
		sets = append(sets, fmt.Sprintf("loss_reason = $%d", len(args)+1))
		args = append(args, *update.LossReason)
	}
	switch {
	case update.ClearFollowup:
		sets = append(sets, "next_followup_date = NULL")
	case update.NextFollowup != nil:
		sets = append(sets, fmt.Sprintf("next_followup_date = $%d", len(args)+1))
		args = append(args, *update.NextFollowup)
	}
	if update.Note != nil {
		sets = append(sets, fmt.Sprintf(
			"extra_data = jsonb_set(COALESCE(extra_data, '{}'::jsonb), '{status_note}', to_jsonb($%d::text))", len(args)+1))
		args = append(args, *update.Note)
	}

	query := fmt.Sprintf("UPDATE leads SET %s WHERE id = $1", strings.Join(sets, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("update lead status: lead %s not found", id)
	}
	return nil
}

// SetNextFollowup sets or clears the scheduled follow-up date.
func (r *LeadRepository) SetNextFollowup(ctx context.Context, id string, followup *time.Time) error {
	const query = `UPDATE leads SET next_followup_date = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, followup, time.Now().UTC()); err != nil {
		return fmt.Errorf("set next followup: %w", err)
	}
	return nil
}

// SavePreferences records parent-submitted scheduling preferences.
func (r *LeadRepository) SavePreferences(ctx context.Context, id string, batchID, callTime *string) error {
	const query = `UPDATE leads SET
        preferred_batch_id = COALESCE($2, preferred_batch_id),
        preferred_call_time = COALESCE($3, preferred_call_time),
        updated_at = $4
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, batchID, callTime, time.Now().UTC()); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// IncrementNudgeCount bumps the per-lead nudge counter.
func (r *LeadRepository) IncrementNudgeCount(ctx context.Context, id string) error {
	const query = `UPDATE leads SET nudge_count = nudge_count + 1, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment nudge count: %w", err)
	}
	return nil
}
