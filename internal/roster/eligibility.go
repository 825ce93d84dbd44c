// Package roster derives which students have medications due for a given
// date and time window, and with what administration status. All functions
// are pure queries over already-fetched snapshots.
package roster

import (
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
)

// Eligible reports whether a medication is due on the given date and window:
// the medication must be active, the date must fall inside its inclusive
// range, and its time-range set must intersect the window. A medication with
// an empty time-range set is never eligible.
func Eligible(med models.Medication, date models.Date, window models.Window) bool {
	if !med.Active {
		return false
	}
	if len(med.TimeRanges) == 0 {
		return false
	}
	if date.Before(med.StartDate) || date.After(med.EndDate) {
		return false
	}
	return med.TimeRanges.Intersects(window.Set())
}

// DueForStudent returns the medications owned by the student that are
// eligible for the date and window, preserving input order.
func DueForStudent(studentID string, meds []models.Medication, date models.Date, window models.Window) []models.Medication {
	due := make([]models.Medication, 0)
	for _, med := range meds {
		if med.AssignedTo(studentID) && Eligible(med, date, window) {
			due = append(due, med)
		}
	}
	return due
}

// DueUnassigned returns the eligible general stock medications, i.e. those
// not owned by any student.
func DueUnassigned(meds []models.Medication, date models.Date, window models.Window) []models.Medication {
	due := make([]models.Medication, 0)
	for _, med := range meds {
		if med.Unassigned() && Eligible(med, date, window) {
			due = append(due, med)
		}
	}
	return due
}
