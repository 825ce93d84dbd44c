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

type medicationRepository interface {
	List(ctx context.Context, filter models.MedicationFilter) ([]models.Medication, int, error)
	FindByID(ctx context.Context, id string) (*models.Medication, error)
	Create(ctx context.Context, med *models.Medication) error
	Update(ctx context.Context, med *models.Medication) error
	Deactivate(ctx context.Context, id string) error
}

// MedicationPayload is the wire shape for creating or replacing a
// medication. ID is set when the caller intends to update in place.
type MedicationPayload struct {
	ID         string   `json:"id"`
	StudentID  *string  `json:"student_id"`
	Name       string   `json:"name"`
	Dosage     string   `json:"dosage"`
	TimeRanges []string `json:"time_ranges"`
	Notes      string   `json:"notes"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Hour       string   `json:"hour"`
	Kind       string   `json:"kind"`
	Active     *bool    `json:"active"`
}

// toModel validates the payload and converts it to the storage model. Rules:
// the name is required, at least one valid time range must be present, and
// the start date may not fall after the end date.
func (p MedicationPayload) toModel() (*models.Medication, error) {
	if p.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "medication name is required")
	}
	if len(p.TimeRanges) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one time range is required")
	}
	ranges := make(models.TimeRangeSet, 0, len(p.TimeRanges))
	for _, raw := range p.TimeRanges {
		tag := models.TimeRange(raw)
		if !tag.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown time range "+raw)
		}
		ranges = append(ranges, tag)
	}
	start, err := models.ParseDate(p.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}
	end, err := models.ParseDate(p.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end date")
	}
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date is after end date")
	}
	kind := models.MedicationKind(p.Kind)
	if p.Kind == "" {
		kind = models.MedicationKindStanding
	}
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown medication kind "+p.Kind)
	}
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return &models.Medication{
		ID:         p.ID,
		StudentID:  p.StudentID,
		Name:       p.Name,
		Dosage:     p.Dosage,
		TimeRanges: ranges,
		Notes:      p.Notes,
		StartDate:  start,
		EndDate:    end,
		Hour:       p.Hour,
		Kind:       kind,
		Active:     active,
	}, nil
}

// MedicationService handles medication use-cases.
type MedicationService struct {
	repo      medicationRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMedicationService constructs the medication service.
func NewMedicationService(repo medicationRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *MedicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MedicationService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns medications and pagination metadata.
func (s *MedicationService) List(ctx context.Context, filter models.MedicationFilter) ([]models.Medication, *models.Pagination, error) {
	meds, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list medications")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return meds, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a medication by ID.
func (s *MedicationService) Get(ctx context.Context, id string) (*models.Medication, error) {
	med, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "medication not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load medication")
	}
	return med, nil
}

// Create registers a new medication, assigned or general stock.
func (s *MedicationService) Create(ctx context.Context, actorUID string, payload MedicationPayload) (*models.Medication, error) {
	payload.ID = ""
	med, err := payload.toModel()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, med); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create medication")
	}

	s.recordAudit(ctx, actorUID, models.AuditActionMedicationCreate, med.ID, med)

	return med, nil
}

// CreateExtra registers a one-day extra dose for a student. The medication
// covers only the given date and is tagged as EXTRA so history can tell it
// apart from standing prescriptions.
func (s *MedicationService) CreateExtra(ctx context.Context, actorUID string, studentID string, payload MedicationPayload, date models.Date) (*models.Medication, error) {
	payload.ID = ""
	payload.StudentID = &studentID
	payload.StartDate = date.String()
	payload.EndDate = date.String()
	payload.Kind = string(models.MedicationKindExtra)
	med, err := payload.toModel()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, med); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create extra dose")
	}

	s.recordAudit(ctx, actorUID, models.AuditActionMedicationCreate, med.ID, med)

	return med, nil
}

// Update replaces a medication's mutable fields.
func (s *MedicationService) Update(ctx context.Context, actorUID, id string, payload MedicationPayload) (*models.Medication, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "medication not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load medication")
	}
	payload.ID = existing.ID
	med, err := payload.toModel()
	if err != nil {
		return nil, err
	}
	med.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, med); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update medication")
	}

	s.recordAudit(ctx, actorUID, models.AuditActionMedicationUpdate, med.ID, med)

	return med, nil
}

// Deactivate marks a medication as inactive without deleting history.
func (s *MedicationService) Deactivate(ctx context.Context, actorUID, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "medication not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load medication")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate medication")
	}

	s.recordAudit(ctx, actorUID, models.AuditActionMedicationDeactivate, id, nil)

	return nil
}

func (s *MedicationService) recordAudit(ctx context.Context, actorUID, action, resourceID string, newValues interface{}) {
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
		Resource:   "medications",
		ResourceID: &resourceID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record medication audit log", zap.Error(err))
	}
}
