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

type studentRepoStub struct {
	students map[string]*models.Student
}

func newStudentRepoStub() *studentRepoStub {
	return &studentRepoStub{students: map[string]*models.Student{}}
}

func (r *studentRepoStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	out := make([]models.Student, 0, len(r.students))
	for _, s := range r.students {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (r *studentRepoStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s, ok := r.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (r *studentRepoStub) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	stored := *student
	r.students[student.ID] = &stored
	return nil
}

func (r *studentRepoStub) Update(ctx context.Context, student *models.Student) error {
	stored := *student
	r.students[student.ID] = &stored
	return nil
}

func (r *studentRepoStub) Deactivate(ctx context.Context, id string) error {
	if s, ok := r.students[id]; ok {
		s.Active = false
	}
	return nil
}

type studentMedsStub struct {
	byStudent map[string][]models.Medication
}

func newStudentMedsStub() *studentMedsStub {
	return &studentMedsStub{byStudent: map[string][]models.Medication{}}
}

func (r *studentMedsStub) ListByStudent(ctx context.Context, studentID string) ([]models.Medication, error) {
	return r.byStudent[studentID], nil
}

func (r *studentMedsStub) SyncForStudent(ctx context.Context, studentID string, meds []models.Medication) ([]models.Medication, error) {
	for i := range meds {
		if meds[i].ID == "" {
			meds[i].ID = uuid.NewString()
		}
		meds[i].StudentID = &studentID
	}
	r.byStudent[studentID] = meds
	return meds, nil
}

func newStudentServiceForTest() (*StudentService, *studentRepoStub, *studentMedsStub, *auditStub) {
	repo := newStudentRepoStub()
	meds := newStudentMedsStub()
	audit := &auditStub{}
	svc := NewStudentService(repo, meds, audit, nil, zap.NewNop())
	return svc, repo, meds, audit
}

func validMedicationPayload() MedicationPayload {
	return MedicationPayload{
		Name:       "Ibuprofeno",
		Dosage:     "200mg",
		TimeRanges: []string{"ALMUERZO"},
		StartDate:  "2026-03-01",
		EndDate:    "2026-03-31",
	}
}

func TestStudentServiceCreateWithMedications(t *testing.T) {
	svc, repo, meds, audit := newStudentServiceForTest()

	detail, err := svc.Create(context.Background(), "admin", CreateStudentRequest{
		FirstName:    "Ana",
		FirstSurname: "Gómez",
		Medications:  []MedicationPayload{validMedicationPayload()},
	})
	require.NoError(t, err)
	require.NotEmpty(t, detail.ID)
	require.Len(t, detail.Medications, 1)
	assert.Equal(t, detail.ID, *detail.Medications[0].StudentID)
	assert.Contains(t, repo.students, detail.ID)
	assert.Len(t, meds.byStudent[detail.ID], 1)
	require.NotEmpty(t, audit.logs)
	assert.Equal(t, models.AuditActionStudentCreate, audit.logs[0].Action)
}

func TestStudentServiceCreateRequiresNames(t *testing.T) {
	svc, _, _, _ := newStudentServiceForTest()

	_, err := svc.Create(context.Background(), "admin", CreateStudentRequest{FirstSurname: "Gómez"})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), "admin", CreateStudentRequest{FirstName: "Ana"})
	require.Error(t, err)
}

func TestStudentServiceCreateRejectsInvalidMedication(t *testing.T) {
	svc, _, _, _ := newStudentServiceForTest()

	bad := validMedicationPayload()
	bad.TimeRanges = nil
	_, err := svc.Create(context.Background(), "admin", CreateStudentRequest{
		FirstName:    "Ana",
		FirstSurname: "Gómez",
		Medications:  []MedicationPayload{bad},
	})
	require.Error(t, err)
}

func TestStudentServiceSyncMedicationsReplacesList(t *testing.T) {
	svc, repo, meds, _ := newStudentServiceForTest()
	repo.students["stu-1"] = &models.Student{ID: "stu-1", FirstName: "Ana", FirstSurname: "Gómez", Active: true}
	meds.byStudent["stu-1"] = []models.Medication{{ID: "old-med", Name: "Viejo"}}

	payload := validMedicationPayload()
	synced, err := svc.SyncMedications(context.Background(), "admin", "stu-1", []MedicationPayload{payload})
	require.NoError(t, err)
	require.Len(t, synced, 1)
	assert.Equal(t, "Ibuprofeno", synced[0].Name)
	assert.Len(t, meds.byStudent["stu-1"], 1)
}

func TestStudentServiceDeactivateKeepsRecord(t *testing.T) {
	svc, repo, _, audit := newStudentServiceForTest()
	repo.students["stu-1"] = &models.Student{ID: "stu-1", FirstName: "Ana", FirstSurname: "Gómez", Active: true}

	require.NoError(t, svc.Deactivate(context.Background(), "admin", "stu-1"))
	assert.False(t, repo.students["stu-1"].Active)
	require.NotEmpty(t, audit.logs)
	assert.Equal(t, models.AuditActionStudentDeactivate, audit.logs[len(audit.logs)-1].Action)

	require.Error(t, svc.Deactivate(context.Background(), "admin", "missing"))
}
