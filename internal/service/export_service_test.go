package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
	"github.com/sebastiansarmientoforjan-maker/students-meds/pkg/export"
	"github.com/sebastiansarmientoforjan-maker/students-meds/pkg/storage"
)

type sosRowsStub struct{}

func (sosRowsStub) ListSOSRange(ctx context.Context, from, to models.Date) ([]models.SOSReportRow, error) {
	return []models.SOSReportRow{
		{
			Date:           from,
			Hour:           "14:30",
			StudentName:    "Gómez Ruiz, Ana",
			MedicationName: "Ibuprofeno",
			Dosage:         "200mg",
			Notes:          "dolor de cabeza",
			CreatedAt:      time.Now(),
		},
	}, nil
}

func sosParams(format models.ReportFormat) models.ReportJobParams {
	return models.ReportJobParams{
		From:   models.MustDate("2026-03-01"),
		To:     models.MustDate("2026-03-31"),
		Format: format,
	}
}

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	svc := NewExportService(sosRowsStub{}, store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-1",
		Type:      models.ReportTypeSOS,
		Params:    sosParams(models.ReportFormatCSV),
		CreatedBy: "admin",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "/reports/download/")

	path := store.Path(result.RelativePath)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-2",
		Type:      models.ReportTypeSOS,
		Params:    sosParams(models.ReportFormatPDF),
		CreatedBy: "admin",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, models.ReportFormatPDF, result.Format)

	path := filepath.Clean(store.Path(result.RelativePath))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}
