package roster

import (
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
)

// Resolve returns the recorded outcome for a student/medication pair on the
// given date and window. Absent a matching administration the dose is
// PENDING. Should multiple records exist for the same key (a data-quality
// anomaly from before the upsert key was enforced), the most recently
// created one wins. Legacy NO_SHOW spellings are normalized on the way out.
func Resolve(studentID string, medicationID *string, administrations []models.Administration, date models.Date, window models.Window) models.AdministrationStatus {
	var found *models.Administration
	for i := range administrations {
		a := &administrations[i]
		if !matches(a, studentID, medicationID, date, window) {
			continue
		}
		if found == nil || a.CreatedAt.After(found.CreatedAt) {
			found = a
		}
	}
	if found == nil {
		return models.StatusPending
	}
	status, err := models.ParseAdministrationStatus(string(found.Status))
	if err != nil {
		return models.StatusPending
	}
	return status
}

// GivenFor reports whether any administration for the student on the date
// and window records a GIVEN outcome, regardless of which medication it
// refers to. This is the student-level signal the status filter uses.
func GivenFor(studentID string, administrations []models.Administration, date models.Date, window models.Window) bool {
	for i := range administrations {
		a := &administrations[i]
		if a.StudentID != studentID || !a.Date.Equal(date) || !window.Matches(a.TimeRange) {
			continue
		}
		if status, err := models.ParseAdministrationStatus(string(a.Status)); err == nil && status == models.StatusGiven {
			return true
		}
	}
	return false
}

func matches(a *models.Administration, studentID string, medicationID *string, date models.Date, window models.Window) bool {
	if a.StudentID != studentID {
		return false
	}
	if !a.Date.Equal(date) {
		return false
	}
	if !window.Matches(a.TimeRange) {
		return false
	}
	if medicationID == nil {
		return a.MedicationID == nil
	}
	return a.MedicationID != nil && *a.MedicationID == *medicationID
}
