package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/middleware"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/service"
)

type administrationRepoMock struct {
	records map[string]*models.Administration
}

func newAdministrationRepoMock() *administrationRepoMock {
	return &administrationRepoMock{records: map[string]*models.Administration{}}
}

func administrationKey(studentID string, medicationID *string, date models.Date, timeRange models.TimeRange) string {
	medKey := ""
	if medicationID != nil {
		medKey = *medicationID
	}
	return fmt.Sprintf("%s|%s|%s|%s", studentID, medKey, date, timeRange)
}

func (m *administrationRepoMock) Upsert(ctx context.Context, record *models.Administration) (*models.Administration, error) {
	key := administrationKey(record.StudentID, record.MedicationID, record.Date, record.TimeRange)
	stored := *record
	if stored.ID == "" {
		stored.ID = "adm-" + key
	}
	m.records[key] = &stored
	return &stored, nil
}

func (m *administrationRepoMock) FindByKey(ctx context.Context, studentID string, medicationID *string, date models.Date, timeRange models.TimeRange) (*models.Administration, error) {
	record, ok := m.records[administrationKey(studentID, medicationID, date, timeRange)]
	if !ok {
		return nil, nil
	}
	return record, nil
}

func (m *administrationRepoMock) List(ctx context.Context, filter models.AdministrationFilter) ([]models.Administration, error) {
	out := make([]models.Administration, 0, len(m.records))
	for _, record := range m.records {
		if record.Date == filter.Date {
			out = append(out, *record)
		}
	}
	return out, nil
}

type studentReaderMock struct {
	student *models.Student
}

func (m *studentReaderMock) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return m.student, nil
}

type medicationReaderMock struct {
	med *models.Medication
}

func (m *medicationReaderMock) FindByID(ctx context.Context, id string) (*models.Medication, error) {
	return m.med, nil
}

func newAdministrationHandlerForTest(repo *administrationRepoMock) *AdministrationHandler {
	cache := service.NewCacheService(nil, nil, 0, zap.NewNop(), false)
	svc := service.NewAdministrationService(
		repo,
		&studentReaderMock{student: &models.Student{ID: "stu-1", FirstName: "Lucía", FirstSurname: "Gómez", Active: true}},
		&medicationReaderMock{med: &models.Medication{ID: "med-1", Name: "Paracetamol", Dosage: "500mg", Active: true}},
		cache,
		nil,
		nil,
		zap.NewNop(),
	)
	return NewAdministrationHandler(svc)
}

func TestAdministrationHandlerRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newAdministrationRepoMock()
	handler := newAdministrationHandlerForTest(repo)

	payload, _ := json.Marshal(service.RecordAdministrationRequest{
		StudentID:    "stu-1",
		MedicationID: "med-1",
		Date:         "2026-03-10",
		TimeRange:    "ALMUERZO",
		Status:       "GIVEN",
	})
	c, w := newGinContext(http.MethodPost, "/administrations", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "nurse-1", Role: models.RoleNurse})

	handler.Record(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.records, 1)

	var envelope struct {
		Data service.RecordResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.False(t, envelope.Data.AlreadyGiven)
	require.Equal(t, "nurse-1", envelope.Data.Administration.GivenByUID)
}

func TestAdministrationHandlerRecordInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAdministrationHandlerForTest(newAdministrationRepoMock())

	c, w := newGinContext(http.MethodPost, "/administrations", []byte(`{"student_id":"stu-1"}`))

	handler.Record(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdministrationHandlerListRequiresDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAdministrationHandlerForTest(newAdministrationRepoMock())

	c, w := newGinContext(http.MethodGet, "/administrations", nil)

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
