package models

import (
	"fmt"
	"strings"
	"time"
)

// AdministrationStatus records the outcome of a dose for one window.
type AdministrationStatus string

const (
	StatusGiven    AdministrationStatus = "GIVEN"
	StatusNotShown AdministrationStatus = "NOT_SHOWN"
	StatusPending  AdministrationStatus = "PENDING"
)

// Valid returns true when the status is a supported value.
func (s AdministrationStatus) Valid() bool {
	switch s {
	case StatusGiven, StatusNotShown, StatusPending:
		return true
	default:
		return false
	}
}

// ParseAdministrationStatus normalizes the legacy NO_SHOW and NOSHOW
// spellings to the canonical NOT_SHOWN.
func ParseAdministrationStatus(raw string) (AdministrationStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "GIVEN":
		return StatusGiven, nil
	case "NOT_SHOWN", "NO_SHOW", "NOSHOW":
		return StatusNotShown, nil
	case "PENDING":
		return StatusPending, nil
	default:
		return "", fmt.Errorf("unknown administration status %q", raw)
	}
}

// Administration is a log entry recording that a dose was given or explicitly
// marked not shown. Student name, medication name and dosage are snapshots
// captured at write time, never re-derived. At most one record exists per
// (student, medication, date, time range) key.
type Administration struct {
	ID                  string               `db:"id" json:"id"`
	StudentID           string               `db:"student_id" json:"student_id"`
	StudentNameSortable string               `db:"student_name_sortable" json:"student_name_sortable"`
	MedicationID        *string              `db:"medication_id" json:"medication_id,omitempty"`
	MedicationName      string               `db:"medication_name" json:"medication_name"`
	Dosage              string               `db:"dosage" json:"dosage"`
	Date                Date                 `db:"date" json:"date"`
	TimeRange           TimeRange            `db:"time_range" json:"time_range"`
	Status              AdministrationStatus `db:"status" json:"status"`
	GivenByUID          string               `db:"given_by_uid" json:"given_by_uid"`
	Hour                string               `db:"hour" json:"hour,omitempty"`
	Notes               string               `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt           *time.Time           `db:"updated_at" json:"updated_at,omitempty"`
}

// AdministrationFilter scopes administration listing queries.
type AdministrationFilter struct {
	Date      Date
	Window    Window
	StudentID string
	Status    *AdministrationStatus
}

// StatusFilter is the roster-level filter over administration outcomes.
type StatusFilter string

const (
	StatusFilterAll      StatusFilter = "ALL"
	StatusFilterGiven    StatusFilter = "GIVEN"
	StatusFilterNotShown StatusFilter = "NOT_SHOWN"
)

// ParseStatusFilter normalizes the legacy NOSHOW and NO_SHOW spellings.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "ALL":
		return StatusFilterAll, nil
	case "GIVEN":
		return StatusFilterGiven, nil
	case "NOT_SHOWN", "NO_SHOW", "NOSHOW":
		return StatusFilterNotShown, nil
	default:
		return "", fmt.Errorf("unknown status filter %q", raw)
	}
}

// SOSReportRow is one line of the as-needed dosing report.
type SOSReportRow struct {
	Date           Date      `db:"date" json:"date"`
	Hour           string    `db:"hour" json:"hour"`
	StudentName    string    `db:"student_name_sortable" json:"student_name"`
	MedicationName string    `db:"medication_name" json:"medication_name"`
	Dosage         string    `db:"dosage" json:"dosage"`
	Notes          string    `db:"notes" json:"notes"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
