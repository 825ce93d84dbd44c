package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
)

type medicationRepoStub struct {
	meds map[string]*models.Medication
}

func newMedicationRepoStub() *medicationRepoStub {
	return &medicationRepoStub{meds: map[string]*models.Medication{}}
}

func (r *medicationRepoStub) List(ctx context.Context, filter models.MedicationFilter) ([]models.Medication, int, error) {
	out := make([]models.Medication, 0, len(r.meds))
	for _, m := range r.meds {
		out = append(out, *m)
	}
	return out, len(out), nil
}

func (r *medicationRepoStub) FindByID(ctx context.Context, id string) (*models.Medication, error) {
	m, ok := r.meds[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return m, nil
}

func (r *medicationRepoStub) Create(ctx context.Context, med *models.Medication) error {
	if med.ID == "" {
		med.ID = uuid.NewString()
	}
	stored := *med
	r.meds[med.ID] = &stored
	return nil
}

func (r *medicationRepoStub) Update(ctx context.Context, med *models.Medication) error {
	stored := *med
	r.meds[med.ID] = &stored
	return nil
}

func (r *medicationRepoStub) Deactivate(ctx context.Context, id string) error {
	if m, ok := r.meds[id]; ok {
		m.Active = false
	}
	return nil
}

func newMedicationServiceForTest() (*MedicationService, *medicationRepoStub, *auditStub) {
	repo := newMedicationRepoStub()
	audit := &auditStub{}
	svc := NewMedicationService(repo, audit, nil, zap.NewNop())
	return svc, repo, audit
}

func TestMedicationServiceCreateDefaults(t *testing.T) {
	svc, repo, audit := newMedicationServiceForTest()

	med, err := svc.Create(context.Background(), "admin", validMedicationPayload())
	require.NoError(t, err)
	require.NotEmpty(t, med.ID)
	assert.Equal(t, models.MedicationKindStanding, med.Kind)
	assert.True(t, med.Active)
	assert.Nil(t, med.StudentID)
	assert.Contains(t, repo.meds, med.ID)
	require.NotEmpty(t, audit.logs)
	assert.Equal(t, models.AuditActionMedicationCreate, audit.logs[0].Action)
}

func TestMedicationServiceValidationRules(t *testing.T) {
	svc, _, _ := newMedicationServiceForTest()

	noName := validMedicationPayload()
	noName.Name = ""
	_, err := svc.Create(context.Background(), "admin", noName)
	require.Error(t, err)

	noRanges := validMedicationPayload()
	noRanges.TimeRanges = nil
	_, err = svc.Create(context.Background(), "admin", noRanges)
	require.Error(t, err)

	badRange := validMedicationPayload()
	badRange.TimeRanges = []string{"MERIENDA"}
	_, err = svc.Create(context.Background(), "admin", badRange)
	require.Error(t, err)

	inverted := validMedicationPayload()
	inverted.StartDate = "2026-03-31"
	inverted.EndDate = "2026-03-01"
	_, err = svc.Create(context.Background(), "admin", inverted)
	require.Error(t, err)
}

func TestMedicationServiceCreateExtraPinsDate(t *testing.T) {
	svc, _, _ := newMedicationServiceForTest()

	payload := validMedicationPayload()
	payload.TimeRanges = []string{"SOS"}
	payload.Hour = "15:00"
	med, err := svc.CreateExtra(context.Background(), "nurse-1", "stu-1", payload, models.MustDate("2026-03-10"))
	require.NoError(t, err)
	assert.Equal(t, models.MedicationKindExtra, med.Kind)
	assert.Equal(t, "stu-1", *med.StudentID)
	assert.Equal(t, "2026-03-10", med.StartDate.String())
	assert.Equal(t, "2026-03-10", med.EndDate.String())
	assert.Equal(t, "15:00", med.Hour)
}

func TestMedicationServiceUpdatePreservesCreatedAt(t *testing.T) {
	svc, repo, _ := newMedicationServiceForTest()

	created, err := svc.Create(context.Background(), "admin", validMedicationPayload())
	require.NoError(t, err)

	payload := validMedicationPayload()
	payload.Dosage = "400mg"
	updated, err := svc.Update(context.Background(), "admin", created.ID, payload)
	require.NoError(t, err)
	assert.Equal(t, "400mg", updated.Dosage)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "400mg", repo.meds[created.ID].Dosage)

	_, err = svc.Update(context.Background(), "admin", "missing", payload)
	require.Error(t, err)
}

func TestMedicationServiceDeactivate(t *testing.T) {
	svc, repo, _ := newMedicationServiceForTest()

	created, err := svc.Create(context.Background(), "admin", validMedicationPayload())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), "admin", created.ID))
	assert.False(t, repo.meds[created.ID].Active)

	require.Error(t, svc.Deactivate(context.Background(), "admin", "missing"))
}
