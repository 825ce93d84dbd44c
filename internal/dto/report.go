package dto

import "github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"

// ReportRequest captures the POST /reports payload. From and To bound the
// inclusive date range of SOS doses to export.
type ReportRequest struct {
	From   string              `json:"from"`
	To     string              `json:"to"`
	Format models.ReportFormat `json:"format"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
