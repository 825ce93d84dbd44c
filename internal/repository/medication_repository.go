package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
)

// MedicationRepository manages persistence for medication prescriptions.
type MedicationRepository struct {
	db *sqlx.DB
}

// NewMedicationRepository constructs a MedicationRepository.
func NewMedicationRepository(db *sqlx.DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

const medicationColumns = `id, student_id, name, dosage, time_ranges, notes, start_date, end_date, hour, kind, active, created_at, updated_at`

// List returns medications matching the provided filters.
func (r *MedicationRepository) List(ctx context.Context, filter models.MedicationFilter) ([]models.Medication, int, error) {
	base := "FROM medications m"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("m.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Unassigned {
		conditions = append(conditions, "m.student_id IS NULL")
	}
	if filter.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("m.kind = $%d", len(args)+1))
		args = append(args, *filter.Kind)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("m.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.ActiveOn != nil {
		conditions = append(conditions, fmt.Sprintf("m.start_date <= $%d AND m.end_date >= $%d", len(args)+1, len(args)+1))
		args = append(args, *filter.ActiveOn)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT m.id, m.student_id, m.name, m.dosage, m.time_ranges, m.notes, m.start_date, m.end_date, m.hour, m.kind, m.active, m.created_at, m.updated_at
        %s ORDER BY m.name ASC, m.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var meds []models.Medication
	if err := r.db.SelectContext(ctx, &meds, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list medications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count medications: %w", err)
	}
	return meds, total, nil
}

// ListActiveOn returns active medications whose date range covers the given
// day, both assigned and general. It is the candidate set the roster engine
// filters further by time range.
func (r *MedicationRepository) ListActiveOn(ctx context.Context, date models.Date) ([]models.Medication, error) {
	query := fmt.Sprintf(`SELECT %s FROM medications
        WHERE active = true AND start_date <= $1 AND end_date >= $1`, medicationColumns)
	var meds []models.Medication
	if err := r.db.SelectContext(ctx, &meds, query, date); err != nil {
		return nil, fmt.Errorf("list medications active on date: %w", err)
	}
	return meds, nil
}

// ListByStudent returns every medication assigned to a student.
func (r *MedicationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Medication, error) {
	query := fmt.Sprintf(`SELECT %s FROM medications WHERE student_id = $1 ORDER BY name ASC`, medicationColumns)
	var meds []models.Medication
	if err := r.db.SelectContext(ctx, &meds, query, studentID); err != nil {
		return nil, fmt.Errorf("list medications by student: %w", err)
	}
	return meds, nil
}

// FindByID fetches a medication by ID.
func (r *MedicationRepository) FindByID(ctx context.Context, id string) (*models.Medication, error) {
	query := fmt.Sprintf(`SELECT %s FROM medications WHERE id = $1`, medicationColumns)
	var med models.Medication
	if err := r.db.GetContext(ctx, &med, query, id); err != nil {
		return nil, err
	}
	return &med, nil
}

// Create inserts a new medication record.
func (r *MedicationRepository) Create(ctx context.Context, med *models.Medication) error {
	prepareMedication(med)
	const query = `INSERT INTO medications (id, student_id, name, dosage, time_ranges, notes, start_date, end_date, hour, kind, active, created_at, updated_at)
        VALUES (:id, :student_id, :name, :dosage, :time_ranges, :notes, :start_date, :end_date, :hour, :kind, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, med); err != nil {
		return fmt.Errorf("create medication: %w", err)
	}
	return nil
}

// Update modifies an existing medication.
func (r *MedicationRepository) Update(ctx context.Context, med *models.Medication) error {
	med.UpdatedAt = time.Now().UTC()
	const query = `UPDATE medications SET student_id = :student_id, name = :name, dosage = :dosage, time_ranges = :time_ranges, notes = :notes,
        start_date = :start_date, end_date = :end_date, hour = :hour, kind = :kind, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, med); err != nil {
		return fmt.Errorf("update medication: %w", err)
	}
	return nil
}

// Deactivate marks a medication as inactive.
func (r *MedicationRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE medications SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate medication: %w", err)
	}
	return nil
}

// SyncForStudent reconciles the full medication list of a student in one
// transaction: medications absent from the desired list are removed,
// existing ones are updated in place, and new ones are inserted. This keeps
// the student's prescriptions consistent under a single editor save.
func (r *MedicationRepository) SyncForStudent(ctx context.Context, studentID string, meds []models.Medication) ([]models.Medication, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin medication sync: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	keep := make([]string, 0, len(meds))
	for i := range meds {
		meds[i].StudentID = &studentID
		if meds[i].ID != "" {
			keep = append(keep, meds[i].ID)
		}
	}

	deleteQuery := `DELETE FROM medications WHERE student_id = ?`
	deleteArgs := []interface{}{studentID}
	if len(keep) > 0 {
		var inErr error
		deleteQuery, deleteArgs, inErr = sqlx.In(`DELETE FROM medications WHERE student_id = ? AND id NOT IN (?)`, studentID, keep)
		if inErr != nil {
			return nil, fmt.Errorf("build medication sync delete: %w", inErr)
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(deleteQuery), deleteArgs...); err != nil {
		return nil, fmt.Errorf("delete stale medications: %w", err)
	}

	const updateQuery = `UPDATE medications SET student_id = :student_id, name = :name, dosage = :dosage, time_ranges = :time_ranges, notes = :notes,
        start_date = :start_date, end_date = :end_date, hour = :hour, kind = :kind, active = :active, updated_at = :updated_at WHERE id = :id`
	const insertQuery = `INSERT INTO medications (id, student_id, name, dosage, time_ranges, notes, start_date, end_date, hour, kind, active, created_at, updated_at)
        VALUES (:id, :student_id, :name, :dosage, :time_ranges, :notes, :start_date, :end_date, :hour, :kind, :active, :created_at, :updated_at)`

	for i := range meds {
		med := &meds[i]
		if med.ID == "" {
			prepareMedication(med)
			if _, err := tx.NamedExecContext(ctx, insertQuery, med); err != nil {
				return nil, fmt.Errorf("insert medication: %w", err)
			}
			continue
		}
		med.UpdatedAt = time.Now().UTC()
		res, err := tx.NamedExecContext(ctx, updateQuery, med)
		if err != nil {
			return nil, fmt.Errorf("update medication: %w", err)
		}
		affected, err := res.RowsAffected()
		if err == nil && affected == 0 {
			prepareMedication(med)
			if _, err := tx.NamedExecContext(ctx, insertQuery, med); err != nil {
				return nil, fmt.Errorf("insert medication: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit medication sync: %w", err)
	}
	commit = true
	return meds, nil
}

func prepareMedication(med *models.Medication) {
	if med.ID == "" {
		med.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if med.CreatedAt.IsZero() {
		med.CreatedAt = now
	}
	med.UpdatedAt = now
}
