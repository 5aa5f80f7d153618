package dto

import "github.com/noah-isme/result-ledger-api/internal/models"

// ReportRequest captures POST /reports/generate payload.
type ReportRequest struct {
	Type         models.ReportType   `json:"type" validate:"required,oneof=MARK_LEDGER GRADE_LEDGER MARKSHEETS"`
	SchoolID     string              `json:"schoolId" validate:"required"`
	AcademicYear string              `json:"academicYear" validate:"required"`
	Grade        int                 `json:"grade" validate:"required,oneof=11 12"`
	StudentID    *string             `json:"studentId,omitempty"`
	Format       models.ReportFormat `json:"format" validate:"omitempty,oneof=csv pdf"`
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
