package models

import (
	"strings"
	"time"
)

// Student represents a learner registered with the infirmary. Removal is a
// soft delete: roster queries only ever see active students.
type Student struct {
	ID            string    `db:"id" json:"id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	FirstSurname  string    `db:"first_surname" json:"first_surname"`
	SecondSurname string    `db:"second_surname" json:"second_surname,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SortableFullName renders the denormalized "Surname Surname, Name" string
// stamped onto administration records at write time.
func (s Student) SortableFullName() string {
	surnames := s.FirstSurname
	if s.SecondSurname != "" {
		surnames += " " + s.SecondSurname
	}
	return strings.TrimSpace(surnames) + ", " + s.FirstName
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortOrder string
}
