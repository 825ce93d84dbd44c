package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
	appErrors "github.com/sebastiansarmientoforjan-maker/students-meds/pkg/errors"
)

type administrationRepository interface {
	Upsert(ctx context.Context, record *models.Administration) (*models.Administration, error)
	FindByKey(ctx context.Context, studentID string, medicationID *string, date models.Date, timeRange models.TimeRange) (*models.Administration, error)
	List(ctx context.Context, filter models.AdministrationFilter) ([]models.Administration, error)
}

type administrationStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type administrationMedicationReader interface {
	FindByID(ctx context.Context, id string) (*models.Medication, error)
}

// RecordAdministrationRequest is the payload for marking a dose outcome.
// MedicationID is empty for manual entries, in which case the medication
// name and dosage must be supplied by the caller.
type RecordAdministrationRequest struct {
	StudentID      string `json:"student_id" validate:"required"`
	MedicationID   string `json:"medication_id"`
	MedicationName string `json:"medication_name"`
	Dosage         string `json:"dosage"`
	Date           string `json:"date" validate:"required"`
	TimeRange      string `json:"time_range" validate:"required"`
	Status         string `json:"status" validate:"required"`
	Hour           string `json:"hour"`
	Notes          string `json:"notes"`
}

// RecordResult carries the stored record plus a flag telling the caller the
// dose had already been marked GIVEN before this write. Re-confirming is not
// an error, but the UI warns about it.
type RecordResult struct {
	Administration *models.Administration `json:"administration"`
	AlreadyGiven   bool                   `json:"already_given"`
}

// AdministrationService handles dose outcome recording and history.
type AdministrationService struct {
	repo      administrationRepository
	students  administrationStudentReader
	meds      administrationMedicationReader
	cache     *CacheService
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdministrationService constructs the administration service.
func NewAdministrationService(repo administrationRepository, students administrationStudentReader, meds administrationMedicationReader, cache *CacheService, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *AdministrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdministrationService{repo: repo, students: students, meds: meds, cache: cache, audit: audit, validator: validate, logger: logger}
}

// Record writes the outcome for one dose key. The write is an upsert, so two
// nurses marking the same dose concurrently converge on a single record
// instead of producing duplicates. Student name, medication name and dosage
// are snapshotted into the record at this point and never re-derived.
func (s *AdministrationService) Record(ctx context.Context, actorUID string, req RecordAdministrationRequest) (*RecordResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid administration payload")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	timeRange := models.TimeRange(req.TimeRange)
	if !timeRange.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown time range "+req.TimeRange)
	}
	status, err := models.ParseAdministrationStatus(req.Status)
	if err != nil || status == models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be GIVEN or NOT_SHOWN")
	}
	if actorUID == "" {
		actorUID = models.AnonymousActorUID
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	record := &models.Administration{
		StudentID:           student.ID,
		StudentNameSortable: student.SortableFullName(),
		Date:                date,
		TimeRange:           timeRange,
		Status:              status,
		GivenByUID:          actorUID,
		Hour:                req.Hour,
		Notes:               req.Notes,
	}

	if req.MedicationID != "" {
		med, err := s.meds.FindByID(ctx, req.MedicationID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "medication not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load medication")
		}
		record.MedicationID = &med.ID
		record.MedicationName = med.Name
		record.Dosage = med.Dosage
	} else {
		if req.MedicationName == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "medication name is required for manual entries")
		}
		record.MedicationName = req.MedicationName
		record.Dosage = req.Dosage
	}

	prior, err := s.repo.FindByKey(ctx, record.StudentID, record.MedicationID, date, timeRange)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect existing record")
	}
	alreadyGiven := prior != nil && prior.Status == models.StatusGiven && status == models.StatusGiven
	if prior != nil {
		record.ID = prior.ID
		record.CreatedAt = prior.CreatedAt
	}

	stored, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record administration")
	}

	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "roster:"+date.String()+":*"); err != nil {
			s.logger.Warn("failed to invalidate roster cache", zap.Error(err))
		}
	}

	if s.audit != nil {
		payload, _ := json.Marshal(stored)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actorUID,
			Action:     models.AuditActionAdministrationRecord,
			Resource:   "administrations",
			ResourceID: &stored.ID,
			NewValues:  payload,
		}); err != nil {
			s.logger.Warn("failed to record administration audit log", zap.Error(err))
		}
	}

	return &RecordResult{Administration: stored, AlreadyGiven: alreadyGiven}, nil
}

// List returns the administration history for a date, optionally narrowed to
// one student or outcome.
func (s *AdministrationService) List(ctx context.Context, filter models.AdministrationFilter) ([]models.Administration, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list administrations")
	}
	return records, nil
}
