package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
)

func newAdministrationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func administrationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "student_name_sortable", "medication_id", "medication_name", "dosage",
		"date", "time_range", "status", "given_by_uid", "hour", "notes", "created_at", "updated_at",
	})
}

func TestAdministrationRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newAdministrationRepoMock(t)
	defer cleanup()
	repo := NewAdministrationRepository(db)

	medID := "med-1"
	now := time.Now()
	rows := administrationRows().
		AddRow("adm-1", "stu-1", "Gómez Ruiz, Ana", medID, "Ibuprofeno", "200mg",
			time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), "ALMUERZO", "GIVEN", "nurse-1", "", "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO administrations")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "Gómez Ruiz, Ana", "med-1", "Ibuprofeno", "200mg",
			sqlmock.AnyArg(), models.TimeRangeAlmuerzo, models.StatusGiven, "nurse-1", "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	stored, err := repo.Upsert(context.Background(), &models.Administration{
		StudentID:           "stu-1",
		StudentNameSortable: "Gómez Ruiz, Ana",
		MedicationID:        &medID,
		MedicationName:      "Ibuprofeno",
		Dosage:              "200mg",
		Date:                models.MustDate("2026-03-10"),
		TimeRange:           models.TimeRangeAlmuerzo,
		Status:              models.StatusGiven,
		GivenByUID:          "nurse-1",
	})
	require.NoError(t, err)
	require.Equal(t, "adm-1", stored.ID)
	require.Equal(t, models.StatusGiven, stored.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdministrationRepositoryFindByKeyMissing(t *testing.T) {
	db, mock, cleanup := newAdministrationRepoMock(t)
	defer cleanup()
	repo := NewAdministrationRepository(db)

	mock.ExpectQuery("SELECT .* FROM administrations").
		WithArgs("stu-1", "", sqlmock.AnyArg(), models.TimeRangeCena).
		WillReturnRows(administrationRows())

	record, err := repo.FindByKey(context.Background(), "stu-1", nil, models.MustDate("2026-03-10"), models.TimeRangeCena)
	require.NoError(t, err)
	require.Nil(t, record)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdministrationRepositoryListForWindowCombined(t *testing.T) {
	db, mock, cleanup := newAdministrationRepoMock(t)
	defer cleanup()
	repo := NewAdministrationRepository(db)

	now := time.Now()
	rows := administrationRows().
		AddRow("adm-1", "stu-1", "Gómez Ruiz, Ana", nil, "Paracetamol", "500mg",
			time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), "AYUNO", "GIVEN", "nurse-1", "", "", now, now)
	mock.ExpectQuery("SELECT .* FROM administrations WHERE date = .* AND time_range IN").
		WithArgs(sqlmock.AnyArg(), "AYUNO", "DESAYUNO").
		WillReturnRows(rows)

	records, err := repo.ListForWindow(context.Background(), models.MustDate("2026-03-10"), models.CombinedWindow())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Nil(t, records[0].MedicationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdministrationRepositoryListSOSRange(t *testing.T) {
	db, mock, cleanup := newAdministrationRepoMock(t)
	defer cleanup()
	repo := NewAdministrationRepository(db)

	rows := sqlmock.NewRows([]string{"date", "hour", "student_name_sortable", "medication_name", "dosage", "notes", "created_at"}).
		AddRow(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), "14:30", "Gómez Ruiz, Ana", "Ibuprofeno", "200mg", "dolor de cabeza", time.Now())
	mock.ExpectQuery("SELECT date, hour, student_name_sortable").
		WithArgs(models.TimeRangeSOS, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	report, err := repo.ListSOSRange(context.Background(), models.MustDate("2026-03-01"), models.MustDate("2026-03-31"))
	require.NoError(t, err)
	require.Len(t, report, 1)
	require.Equal(t, "2026-03-12", report[0].Date.String())
	require.NoError(t, mock.ExpectationsWereMet())
}
