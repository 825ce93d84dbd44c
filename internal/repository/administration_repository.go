package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
)

// AdministrationRepository handles persistence for the dose administration log.
type AdministrationRepository struct {
	db *sqlx.DB
}

// NewAdministrationRepository constructs the repository.
func NewAdministrationRepository(db *sqlx.DB) *AdministrationRepository {
	return &AdministrationRepository{db: db}
}

const administrationColumns = `id, student_id, student_name_sortable, medication_id, medication_name, dosage, date, time_range, status, given_by_uid, hour, notes, created_at, updated_at`

// Upsert writes the outcome for one (student, medication, date, time range)
// key. A second write for the same key overwrites the status, author and
// notes in place instead of inserting a duplicate, which keeps concurrent
// markings race-free. The unique index coalesces a NULL medication_id to ''
// so manual entries share the same key space.
func (r *AdministrationRepository) Upsert(ctx context.Context, record *models.Administration) (*models.Administration, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = &now
	query := fmt.Sprintf(`INSERT INTO administrations (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (student_id, COALESCE(medication_id, ''), date, time_range)
DO UPDATE SET status = EXCLUDED.status, given_by_uid = EXCLUDED.given_by_uid, hour = EXCLUDED.hour, notes = EXCLUDED.notes,
    student_name_sortable = EXCLUDED.student_name_sortable, medication_name = EXCLUDED.medication_name, dosage = EXCLUDED.dosage,
    updated_at = EXCLUDED.updated_at
RETURNING %s`, administrationColumns, administrationColumns)
	var stored models.Administration
	if err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.StudentID, record.StudentNameSortable, record.MedicationID, record.MedicationName,
		record.Dosage, record.Date, record.TimeRange, record.Status, record.GivenByUID,
		record.Hour, record.Notes, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert administration: %w", err)
	}
	return &stored, nil
}

// FindByKey looks up the record for one logical dose key. Returns nil when
// no record exists yet.
func (r *AdministrationRepository) FindByKey(ctx context.Context, studentID string, medicationID *string, date models.Date, timeRange models.TimeRange) (*models.Administration, error) {
	query := fmt.Sprintf(`SELECT %s FROM administrations
        WHERE student_id = $1 AND COALESCE(medication_id, '') = $2 AND date = $3 AND time_range = $4`, administrationColumns)
	medKey := ""
	if medicationID != nil {
		medKey = *medicationID
	}
	var record models.Administration
	if err := r.db.GetContext(ctx, &record, query, studentID, medKey, date, timeRange); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find administration by key: %w", err)
	}
	return &record, nil
}

// ListForWindow returns all administrations recorded on a date whose time
// range falls inside the window. The combined fasting+breakfast window
// expands to both tags.
func (r *AdministrationRepository) ListForWindow(ctx context.Context, date models.Date, window models.Window) ([]models.Administration, error) {
	tags := window.Set()
	values := make([]string, 0, len(tags))
	for _, tag := range tags {
		values = append(values, string(tag))
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM administrations WHERE date = ? AND time_range IN (?)`, administrationColumns), date, values)
	if err != nil {
		return nil, fmt.Errorf("build administration window query: %w", err)
	}
	var records []models.Administration
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list administrations for window: %w", err)
	}
	return records, nil
}

// List returns administrations for the history view, filtered and ordered
// most recent first.
func (r *AdministrationRepository) List(ctx context.Context, filter models.AdministrationFilter) ([]models.Administration, error) {
	conditions := []string{"date = ?"}
	args := []interface{}{filter.Date}
	if filter.StudentID != "" {
		conditions = append(conditions, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Window.String() != "" {
		tags := filter.Window.Set()
		values := make([]string, 0, len(tags))
		for _, tag := range tags {
			values = append(values, string(tag))
		}
		conditions = append(conditions, "time_range IN (?)")
		args = append(args, values)
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM administrations WHERE %s ORDER BY created_at DESC`,
		administrationColumns, strings.Join(conditions, " AND ")), args...)
	if err != nil {
		return nil, fmt.Errorf("build administration list query: %w", err)
	}
	var records []models.Administration
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list administrations: %w", err)
	}
	return records, nil
}

// ListSOSRange returns the as-needed doses recorded in the inclusive date
// range, ordered for report output.
func (r *AdministrationRepository) ListSOSRange(ctx context.Context, from, to models.Date) ([]models.SOSReportRow, error) {
	const query = `SELECT date, hour, student_name_sortable, medication_name, dosage, notes, created_at
        FROM administrations
        WHERE time_range = $1 AND date >= $2 AND date <= $3
        ORDER BY date ASC, created_at ASC`
	var rows []models.SOSReportRow
	if err := r.db.SelectContext(ctx, &rows, query, models.TimeRangeSOS, from, to); err != nil {
		return nil, fmt.Errorf("list sos administrations: %w", err)
	}
	return rows, nil
}
