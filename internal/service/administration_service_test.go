package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
)

type administrationRepoStub struct {
	records map[string]*models.Administration
	byKey   *models.Administration
}

func administrationKey(studentID string, medicationID *string, date models.Date, timeRange models.TimeRange) string {
	med := ""
	if medicationID != nil {
		med = *medicationID
	}
	return studentID + "|" + med + "|" + date.String() + "|" + string(timeRange)
}

func (r *administrationRepoStub) Upsert(ctx context.Context, record *models.Administration) (*models.Administration, error) {
	if r.records == nil {
		r.records = map[string]*models.Administration{}
	}
	key := administrationKey(record.StudentID, record.MedicationID, record.Date, record.TimeRange)
	if record.ID == "" {
		record.ID = "adm-" + key
	}
	stored := *record
	r.records[key] = &stored
	return &stored, nil
}

func (r *administrationRepoStub) FindByKey(ctx context.Context, studentID string, medicationID *string, date models.Date, timeRange models.TimeRange) (*models.Administration, error) {
	key := administrationKey(studentID, medicationID, date, timeRange)
	if rec, ok := r.records[key]; ok {
		return rec, nil
	}
	return nil, nil
}

func (r *administrationRepoStub) List(ctx context.Context, filter models.AdministrationFilter) ([]models.Administration, error) {
	out := make([]models.Administration, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out, nil
}

type studentReaderStub struct {
	student *models.Student
}

func (s studentReaderStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s.student == nil || s.student.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.student, nil
}

type medicationReaderStub struct {
	med *models.Medication
}

func (m medicationReaderStub) FindByID(ctx context.Context, id string) (*models.Medication, error) {
	if m.med == nil || m.med.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.med, nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newAdministrationServiceForTest(repo *administrationRepoStub) (*AdministrationService, *auditStub) {
	studentID := "stu-1"
	medID := "med-1"
	student := &models.Student{ID: studentID, FirstName: "Ana", FirstSurname: "Gómez", SecondSurname: "Ruiz", Active: true}
	med := &models.Medication{ID: medID, StudentID: &studentID, Name: "Ibuprofeno", Dosage: "200mg"}
	audit := &auditStub{}
	cache := NewCacheService(nil, nil, 0, zap.NewNop(), false)
	svc := NewAdministrationService(repo, studentReaderStub{student: student}, medicationReaderStub{med: med}, cache, audit, nil, zap.NewNop())
	return svc, audit
}

func TestAdministrationServiceRecordSnapshots(t *testing.T) {
	repo := &administrationRepoStub{}
	svc, audit := newAdministrationServiceForTest(repo)

	result, err := svc.Record(context.Background(), "nurse-1", RecordAdministrationRequest{
		StudentID:    "stu-1",
		MedicationID: "med-1",
		Date:         "2026-03-10",
		TimeRange:    "ALMUERZO",
		Status:       "GIVEN",
	})
	require.NoError(t, err)
	assert.False(t, result.AlreadyGiven)
	assert.Equal(t, "Gómez Ruiz, Ana", result.Administration.StudentNameSortable)
	assert.Equal(t, "Ibuprofeno", result.Administration.MedicationName)
	assert.Equal(t, "200mg", result.Administration.Dosage)
	assert.Equal(t, "nurse-1", result.Administration.GivenByUID)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionAdministrationRecord, audit.logs[0].Action)
}

func TestAdministrationServiceRecordReGivenWarns(t *testing.T) {
	repo := &administrationRepoStub{}
	svc, _ := newAdministrationServiceForTest(repo)

	req := RecordAdministrationRequest{
		StudentID:    "stu-1",
		MedicationID: "med-1",
		Date:         "2026-03-10",
		TimeRange:    "ALMUERZO",
		Status:       "GIVEN",
	}
	first, err := svc.Record(context.Background(), "nurse-1", req)
	require.NoError(t, err)
	assert.False(t, first.AlreadyGiven)

	second, err := svc.Record(context.Background(), "nurse-2", req)
	require.NoError(t, err)
	assert.True(t, second.AlreadyGiven)
	assert.Equal(t, first.Administration.ID, second.Administration.ID)
	assert.Equal(t, "nurse-2", second.Administration.GivenByUID)
	require.Len(t, repo.records, 1)
}

func TestAdministrationServiceRecordAnonymousFallback(t *testing.T) {
	repo := &administrationRepoStub{}
	svc, _ := newAdministrationServiceForTest(repo)

	result, err := svc.Record(context.Background(), "", RecordAdministrationRequest{
		StudentID:    "stu-1",
		MedicationID: "med-1",
		Date:         "2026-03-10",
		TimeRange:    "CENA",
		Status:       "NOT_SHOWN",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AnonymousActorUID, result.Administration.GivenByUID)
}

func TestAdministrationServiceRecordLegacyStatusSpelling(t *testing.T) {
	repo := &administrationRepoStub{}
	svc, _ := newAdministrationServiceForTest(repo)

	result, err := svc.Record(context.Background(), "nurse-1", RecordAdministrationRequest{
		StudentID:    "stu-1",
		MedicationID: "med-1",
		Date:         "2026-03-10",
		TimeRange:    "CENA",
		Status:       "NO_SHOW",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotShown, result.Administration.Status)
}

func TestAdministrationServiceRecordManualEntry(t *testing.T) {
	repo := &administrationRepoStub{}
	svc, _ := newAdministrationServiceForTest(repo)

	result, err := svc.Record(context.Background(), "nurse-1", RecordAdministrationRequest{
		StudentID:      "stu-1",
		MedicationName: "Paracetamol",
		Dosage:         "500mg",
		Date:           "2026-03-10",
		TimeRange:      "SOS",
		Status:         "GIVEN",
		Hour:           "11:45",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Administration.MedicationID)
	assert.Equal(t, "Paracetamol", result.Administration.MedicationName)
	assert.Equal(t, "11:45", result.Administration.Hour)

	_, err = svc.Record(context.Background(), "nurse-1", RecordAdministrationRequest{
		StudentID: "stu-1",
		Date:      "2026-03-10",
		TimeRange: "SOS",
		Status:    "GIVEN",
	})
	require.Error(t, err)
}

func TestAdministrationServiceRecordRejectsPending(t *testing.T) {
	repo := &administrationRepoStub{}
	svc, _ := newAdministrationServiceForTest(repo)

	_, err := svc.Record(context.Background(), "nurse-1", RecordAdministrationRequest{
		StudentID:    "stu-1",
		MedicationID: "med-1",
		Date:         "2026-03-10",
		TimeRange:    "CENA",
		Status:       "PENDING",
	})
	require.Error(t, err)
}

func TestAdministrationServiceRecordUnknownStudent(t *testing.T) {
	repo := &administrationRepoStub{}
	svc, _ := newAdministrationServiceForTest(repo)

	_, err := svc.Record(context.Background(), "nurse-1", RecordAdministrationRequest{
		StudentID:    "stu-missing",
		MedicationID: "med-1",
		Date:         "2026-03-10",
		TimeRange:    "CENA",
		Status:       "GIVEN",
	})
	require.Error(t, err)
}
