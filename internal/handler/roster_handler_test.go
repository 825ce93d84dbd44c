package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/service"
)

type rosterStudentsMock struct {
	students []models.Student
}

func (m *rosterStudentsMock) ListActive(ctx context.Context) ([]models.Student, error) {
	return m.students, nil
}

type rosterMedsMock struct {
	meds []models.Medication
}

func (m *rosterMedsMock) ListActiveOn(ctx context.Context, date models.Date) ([]models.Medication, error) {
	return m.meds, nil
}

type rosterAdminsMock struct {
	records []models.Administration
}

func (m *rosterAdminsMock) ListForWindow(ctx context.Context, date models.Date, window models.Window) ([]models.Administration, error) {
	return m.records, nil
}

func newRosterHandlerForTest(students []models.Student, meds []models.Medication) *RosterHandler {
	cache := service.NewCacheService(nil, nil, 0, zap.NewNop(), false)
	svc := service.NewRosterService(
		&rosterStudentsMock{students: students},
		&rosterMedsMock{meds: meds},
		&rosterAdminsMock{},
		cache,
		time.Second,
		zap.NewNop(),
	)
	return NewRosterHandler(svc)
}

func TestRosterHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	studentID := "stu-1"
	handler := newRosterHandlerForTest(
		[]models.Student{{ID: studentID, FirstName: "Lucía", FirstSurname: "Gómez", Active: true}},
		[]models.Medication{{
			ID:         "med-1",
			StudentID:  &studentID,
			Name:       "Paracetamol",
			TimeRanges: models.TimeRangeSet{models.TimeRangeAlmuerzo},
			StartDate:  models.MustDate("2026-03-01"),
			EndDate:    models.MustDate("2026-03-31"),
			Kind:       models.MedicationKindStanding,
			Active:     true,
		}},
	)

	c, w := newGinContext(http.MethodGet, "/roster?date=2026-03-10&window=ALMUERZO", nil)

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Entries []struct {
				Student models.Student `json:"student"`
			} `json:"entries"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Entries, 1)
	require.Equal(t, "stu-1", envelope.Data.Entries[0].Student.ID)
}

func TestRosterHandlerGetRequiresWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newRosterHandlerForTest(nil, nil)

	c, w := newGinContext(http.MethodGet, "/roster?date=2026-03-10", nil)

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRosterHandlerGetRejectsBadWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newRosterHandlerForTest(nil, nil)

	c, w := newGinContext(http.MethodGet, "/roster?date=2026-03-10&window=MERIENDA", nil)

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
