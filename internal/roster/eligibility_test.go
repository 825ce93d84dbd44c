package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
)

func ptr(s string) *string { return &s }

func standingMed(id, studentID string, ranges models.TimeRangeSet, start, end string) models.Medication {
	return models.Medication{
		ID:         id,
		StudentID:  ptr(studentID),
		Name:       "Paracetamol",
		Dosage:     "500 mg",
		TimeRanges: ranges,
		StartDate:  models.MustDate(start),
		EndDate:    models.MustDate(end),
		Kind:       models.MedicationKindStanding,
		Active:     true,
	}
}

func TestEligibleDateRange(t *testing.T) {
	med := standingMed("m1", "s1", models.TimeRangeSet{models.TimeRangeAlmuerzo}, "2024-01-01", "2024-01-31")
	window := models.SingleWindow(models.TimeRangeAlmuerzo)

	assert.True(t, Eligible(med, models.MustDate("2024-01-15"), window))
	assert.True(t, Eligible(med, models.MustDate("2024-01-01"), window))
	assert.True(t, Eligible(med, models.MustDate("2024-01-31"), window))
	assert.False(t, Eligible(med, models.MustDate("2023-12-31"), window))
	assert.False(t, Eligible(med, models.MustDate("2024-02-01"), window))
}

func TestEligibleWindowMismatch(t *testing.T) {
	med := standingMed("m1", "s1", models.TimeRangeSet{models.TimeRangeAlmuerzo}, "2024-01-01", "2024-01-31")
	assert.False(t, Eligible(med, models.MustDate("2024-01-15"), models.SingleWindow(models.TimeRangeCena)))
}

func TestEligibleInactive(t *testing.T) {
	med := standingMed("m1", "s1", models.TimeRangeSet{models.TimeRangeAlmuerzo}, "2024-01-01", "2024-01-31")
	med.Active = false
	assert.False(t, Eligible(med, models.MustDate("2024-01-15"), models.SingleWindow(models.TimeRangeAlmuerzo)))
}

func TestEligibleEmptyTimeRanges(t *testing.T) {
	med := standingMed("m1", "s1", models.TimeRangeSet{}, "2024-01-01", "2024-01-31")
	for _, window := range []models.Window{
		models.SingleWindow(models.TimeRangeAyuno),
		models.SingleWindow(models.TimeRangeSOS),
		models.CombinedWindow(),
	} {
		assert.False(t, Eligible(med, models.MustDate("2024-01-15"), window))
	}
}

func TestEligibleCombinedWindow(t *testing.T) {
	date := models.MustDate("2024-01-15")
	combined := models.CombinedWindow()

	ayunoOnly := standingMed("m1", "s1", models.TimeRangeSet{models.TimeRangeAyuno}, "2024-01-01", "2024-01-31")
	assert.True(t, Eligible(ayunoOnly, date, combined))

	desayunoOnly := standingMed("m2", "s1", models.TimeRangeSet{models.TimeRangeDesayuno}, "2024-01-01", "2024-01-31")
	assert.True(t, Eligible(desayunoOnly, date, combined))

	// Extra tags beyond the pair do not affect the outcome.
	mixed := standingMed("m3", "s1", models.TimeRangeSet{models.TimeRangeAyuno, models.TimeRangeCena, models.TimeRangeSOS}, "2024-01-01", "2024-01-31")
	assert.True(t, Eligible(mixed, date, combined))

	lunchOnly := standingMed("m4", "s1", models.TimeRangeSet{models.TimeRangeAlmuerzo}, "2024-01-01", "2024-01-31")
	assert.False(t, Eligible(lunchOnly, date, combined))
}

func TestDueForStudent(t *testing.T) {
	date := models.MustDate("2024-01-15")
	window := models.SingleWindow(models.TimeRangeDesayuno)
	meds := []models.Medication{
		standingMed("m1", "s1", models.TimeRangeSet{models.TimeRangeDesayuno}, "2024-01-01", "2024-01-31"),
		standingMed("m2", "s2", models.TimeRangeSet{models.TimeRangeDesayuno}, "2024-01-01", "2024-01-31"),
		standingMed("m3", "s1", models.TimeRangeSet{models.TimeRangeCena}, "2024-01-01", "2024-01-31"),
	}

	due := DueForStudent("s1", meds, date, window)
	assert.Len(t, due, 1)
	assert.Equal(t, "m1", due[0].ID)
}

func TestDueUnassigned(t *testing.T) {
	date := models.MustDate("2024-01-15")
	window := models.SingleWindow(models.TimeRangeSOS)
	general := models.Medication{
		ID:         "g1",
		Name:       "Ibuprofeno",
		TimeRanges: models.TimeRangeSet{models.TimeRangeSOS},
		StartDate:  models.MustDate("2024-01-01"),
		EndDate:    models.MustDate("2024-12-31"),
		Kind:       models.MedicationKindExtra,
		Active:     true,
	}
	owned := standingMed("m1", "s1", models.TimeRangeSet{models.TimeRangeSOS}, "2024-01-01", "2024-12-31")

	due := DueUnassigned([]models.Medication{general, owned}, date, window)
	assert.Len(t, due, 1)
	assert.Equal(t, "g1", due[0].ID)
}
