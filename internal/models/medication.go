package models

import "time"

// MedicationKind distinguishes a standing prescription from a one-off extra
// dose entered for a single day.
type MedicationKind string

const (
	MedicationKindStanding MedicationKind = "STANDING"
	MedicationKindExtra    MedicationKind = "EXTRA"
)

// Valid returns true when the kind is a supported value.
func (k MedicationKind) Valid() bool {
	return k == MedicationKindStanding || k == MedicationKindExtra
}

// Medication is a prescribed-or-extra medication assignment. StudentID is
// NULL for general stock medications not tied to one student. The date range
// is inclusive on both ends and StartDate never exceeds EndDate.
type Medication struct {
	ID         string         `db:"id" json:"id"`
	StudentID  *string        `db:"student_id" json:"student_id,omitempty"`
	Name       string         `db:"name" json:"name"`
	Dosage     string         `db:"dosage" json:"dosage"`
	TimeRanges TimeRangeSet   `db:"time_ranges" json:"time_ranges"`
	Notes      string         `db:"notes" json:"notes,omitempty"`
	StartDate  Date           `db:"start_date" json:"start_date"`
	EndDate    Date           `db:"end_date" json:"end_date"`
	Hour       string         `db:"hour" json:"hour,omitempty"`
	Kind       MedicationKind `db:"kind" json:"kind"`
	Active     bool           `db:"active" json:"active"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// AssignedTo reports whether the medication belongs to the given student.
func (m Medication) AssignedTo(studentID string) bool {
	return m.StudentID != nil && *m.StudentID == studentID
}

// Unassigned reports whether the medication is general stock.
func (m Medication) Unassigned() bool {
	return m.StudentID == nil || *m.StudentID == ""
}

// MedicationFilter scopes medication listing queries.
type MedicationFilter struct {
	StudentID  string
	Unassigned bool
	Kind       *MedicationKind
	Active     *bool
	ActiveOn   *Date
	Page       int
	PageSize   int
}
