package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
)

type rosterStudentsStub struct {
	students []models.Student
	calls    int
}

func (s *rosterStudentsStub) ListActive(ctx context.Context) ([]models.Student, error) {
	s.calls++
	return s.students, nil
}

type rosterMedsStub struct {
	meds []models.Medication
}

func (s *rosterMedsStub) ListActiveOn(ctx context.Context, date models.Date) ([]models.Medication, error) {
	return s.meds, nil
}

type rosterAdminsStub struct {
	records []models.Administration
}

func (s *rosterAdminsStub) ListForWindow(ctx context.Context, date models.Date, window models.Window) ([]models.Administration, error) {
	return s.records, nil
}

func rosterServiceFixture() (*RosterService, *rosterStudentsStub) {
	stuA := "stu-a"
	stuB := "stu-b"
	students := &rosterStudentsStub{students: []models.Student{
		{ID: stuA, FirstName: "Ana", FirstSurname: "Álvarez", Active: true},
		{ID: stuB, FirstName: "Berta", FirstSurname: "Gómez", Active: true},
	}}
	meds := &rosterMedsStub{meds: []models.Medication{
		{
			ID: "med-a", StudentID: &stuA, Name: "Ibuprofeno", Dosage: "200mg",
			TimeRanges: models.TimeRangeSet{models.TimeRangeAlmuerzo},
			StartDate:  models.MustDate("2026-03-01"), EndDate: models.MustDate("2026-03-31"),
			Kind: models.MedicationKindStanding, Active: true,
		},
		{
			ID: "med-b", StudentID: &stuB, Name: "Cetirizina", Dosage: "10mg",
			TimeRanges: models.TimeRangeSet{models.TimeRangeAlmuerzo},
			StartDate:  models.MustDate("2026-03-01"), EndDate: models.MustDate("2026-03-31"),
			Kind: models.MedicationKindStanding, Active: true,
		},
	}}
	medA := "med-a"
	admins := &rosterAdminsStub{records: []models.Administration{
		{
			ID: "adm-1", StudentID: stuA, MedicationID: &medA,
			Date: models.MustDate("2026-03-10"), TimeRange: models.TimeRangeAlmuerzo,
			Status: models.StatusGiven,
		},
	}}
	cache := NewCacheService(nil, nil, 0, zap.NewNop(), false)
	svc := NewRosterService(students, meds, admins, cache, 0, zap.NewNop())
	return svc, students
}

func TestRosterServiceGetProjectsStatuses(t *testing.T) {
	svc, _ := rosterServiceFixture()

	projection, cacheHit, err := svc.Get(context.Background(), models.MustDate("2026-03-10"), models.SingleWindow(models.TimeRangeAlmuerzo), models.StatusFilterAll)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	require.Len(t, projection.Entries, 2)

	// Álvarez sorts before Gómez under Spanish collation.
	assert.Equal(t, "stu-a", projection.Entries[0].Student.ID)
	assert.Equal(t, models.StatusGiven, projection.Entries[0].Medications[0].Status)
	assert.Equal(t, models.StatusPending, projection.Entries[1].Medications[0].Status)
}

func TestRosterServiceGetStatusFilters(t *testing.T) {
	svc, _ := rosterServiceFixture()
	date := models.MustDate("2026-03-10")
	window := models.SingleWindow(models.TimeRangeAlmuerzo)

	given, _, err := svc.Get(context.Background(), date, window, models.StatusFilterGiven)
	require.NoError(t, err)
	require.Len(t, given.Entries, 1)
	assert.Equal(t, "stu-a", given.Entries[0].Student.ID)

	notShown, _, err := svc.Get(context.Background(), date, window, models.StatusFilterNotShown)
	require.NoError(t, err)
	require.Len(t, notShown.Entries, 1)
	assert.Equal(t, "stu-b", notShown.Entries[0].Student.ID)
}

func TestRosterServiceRecomputesWhenCacheDisabled(t *testing.T) {
	svc, students := rosterServiceFixture()
	date := models.MustDate("2026-03-10")
	window := models.SingleWindow(models.TimeRangeAlmuerzo)

	_, _, err := svc.Get(context.Background(), date, window, models.StatusFilterAll)
	require.NoError(t, err)
	_, _, err = svc.Get(context.Background(), date, window, models.StatusFilterAll)
	require.NoError(t, err)
	assert.Equal(t, 2, students.calls)
}
