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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

type studentMedicationRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Medication, error)
	SyncForStudent(ctx context.Context, studentID string, meds []models.Medication) ([]models.Medication, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateStudentRequest holds payload for creating students. Medications may
// be supplied inline so a student and their prescriptions land in one save.
type CreateStudentRequest struct {
	FirstName     string              `json:"first_name" validate:"required"`
	FirstSurname  string              `json:"first_surname" validate:"required"`
	SecondSurname string              `json:"second_surname"`
	Medications   []MedicationPayload `json:"medications"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	FirstName     string `json:"first_name" validate:"required"`
	FirstSurname  string `json:"first_surname" validate:"required"`
	SecondSurname string `json:"second_surname"`
	Active        bool   `json:"active"`
}

// StudentDetail couples a student with their assigned medications.
type StudentDetail struct {
	models.Student
	Medications []models.Medication `json:"medications"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	meds      studentMedicationRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, meds studentMedicationRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, meds: meds, audit: audit, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns a student together with their medications.
func (s *StudentService) Get(ctx context.Context, id string) (*StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	meds, err := s.meds.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student medications")
	}
	return &StudentDetail{Student: *student, Medications: meds}, nil
}

// Create registers a new student, optionally with an initial medication list.
func (s *StudentService) Create(ctx context.Context, actorUID string, req CreateStudentRequest) (*StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := &models.Student{
		FirstName:     req.FirstName,
		FirstSurname:  req.FirstSurname,
		SecondSurname: req.SecondSurname,
		Active:        true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	var meds []models.Medication
	if len(req.Medications) > 0 {
		desired := make([]models.Medication, 0, len(req.Medications))
		for _, payload := range req.Medications {
			med, err := payload.toModel()
			if err != nil {
				return nil, err
			}
			desired = append(desired, *med)
		}
		synced, err := s.meds.SyncForStudent(ctx, student.ID, desired)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student medications")
		}
		meds = synced
	}

	s.recordAudit(ctx, actorUID, models.AuditActionStudentCreate, student.ID, student)

	return &StudentDetail{Student: *student, Medications: meds}, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, actorUID, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student.FirstName = req.FirstName
	student.FirstSurname = req.FirstSurname
	student.SecondSurname = req.SecondSurname
	student.Active = req.Active
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	s.recordAudit(ctx, actorUID, models.AuditActionStudentUpdate, student.ID, student)

	return student, nil
}

// SyncMedications replaces a student's medication list in one transaction.
func (s *StudentService) SyncMedications(ctx context.Context, actorUID, id string, payloads []MedicationPayload) ([]models.Medication, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	desired := make([]models.Medication, 0, len(payloads))
	for _, payload := range payloads {
		med, err := payload.toModel()
		if err != nil {
			return nil, err
		}
		desired = append(desired, *med)
	}
	synced, err := s.meds.SyncForStudent(ctx, id, desired)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync student medications")
	}

	s.recordAudit(ctx, actorUID, models.AuditActionMedicationSync, id, synced)

	return synced, nil
}

// Deactivate marks a student inactive. Historical administrations keep their
// denormalized snapshots, so nothing else is touched.
func (s *StudentService) Deactivate(ctx context.Context, actorUID, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}

	s.recordAudit(ctx, actorUID, models.AuditActionStudentDeactivate, id, nil)

	return nil
}

func (s *StudentService) recordAudit(ctx context.Context, actorUID, action, resourceID string, newValues interface{}) {
	if s.audit == nil {
		return
	}
	var payload []byte
	if newValues != nil {
		payload, _ = json.Marshal(newValues)
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorUID,
		Action:     action,
		Resource:   "students",
		ResourceID: &resourceID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record student audit log", zap.Error(err))
	}
}
