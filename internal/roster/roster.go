package roster

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
)

// MedicationStatus pairs a due medication with its resolved outcome.
type MedicationStatus struct {
	Medication models.Medication           `json:"medication"`
	Status     models.AdministrationStatus `json:"status"`
}

// Entry is one roster card: a student and their due medications.
type Entry struct {
	Student     models.Student     `json:"student"`
	Medications []MedicationStatus `json:"medications"`
}

// Roster is the filtered, sorted projection shown to staff. It is read-only
// and recomputed from scratch on every change to its inputs. General lists
// eligible stock medications not assigned to any student.
type Roster struct {
	Date         models.Date         `json:"date"`
	Window       string              `json:"window"`
	StatusFilter models.StatusFilter `json:"status_filter"`
	Entries      []Entry             `json:"entries"`
	General      []models.Medication `json:"general,omitempty"`
}

// Build combines the three snapshots into the roster projection.
//
// Inactive students are dropped, then students with no due medication.
// The status filter keeps: ALL, every remaining student; GIVEN, students
// with at least one GIVEN administration in the window (not necessarily all
// doses); NOT_SHOWN, students with no GIVEN administration. Surviving
// entries are sorted by first surname, second surname, then first name
// using Spanish collation. Dangling references resolve to PENDING rather
// than failing: snapshots refresh independently and may be transiently
// inconsistent.
func Build(students []models.Student, meds []models.Medication, administrations []models.Administration, date models.Date, window models.Window, filter models.StatusFilter) Roster {
	entries := make([]Entry, 0, len(students))
	for _, student := range students {
		if !student.Active {
			continue
		}
		due := DueForStudent(student.ID, meds, date, window)
		if len(due) == 0 {
			continue
		}

		if filter != models.StatusFilterAll {
			given := GivenFor(student.ID, administrations, date, window)
			if filter == models.StatusFilterGiven && !given {
				continue
			}
			if filter == models.StatusFilterNotShown && given {
				continue
			}
		}

		statuses := make([]MedicationStatus, 0, len(due))
		for _, med := range due {
			medID := med.ID
			statuses = append(statuses, MedicationStatus{
				Medication: med,
				Status:     Resolve(student.ID, &medID, administrations, date, window),
			})
		}
		entries = append(entries, Entry{Student: student, Medications: statuses})
	}

	coll := collate.New(language.Spanish)
	sort.SliceStable(entries, func(i, j int) bool {
		return lessStudent(coll, entries[i].Student, entries[j].Student)
	})
	for _, entry := range entries {
		meds := entry.Medications
		sort.SliceStable(meds, func(i, j int) bool {
			return coll.CompareString(meds[i].Medication.Name, meds[j].Medication.Name) < 0
		})
	}

	general := DueUnassigned(meds, date, window)
	sort.SliceStable(general, func(i, j int) bool {
		return coll.CompareString(general[i].Name, general[j].Name) < 0
	})

	return Roster{
		Date:         date,
		Window:       window.String(),
		StatusFilter: filter,
		Entries:      entries,
		General:      general,
	}
}

func lessStudent(coll *collate.Collator, a, b models.Student) bool {
	if c := coll.CompareString(a.FirstSurname, b.FirstSurname); c != 0 {
		return c < 0
	}
	if c := coll.CompareString(a.SecondSurname, b.SecondSurname); c != 0 {
		return c < 0
	}
	return coll.CompareString(a.FirstName, b.FirstName) < 0
}
