package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/result-ledger-api/internal/dto"
	"github.com/noah-isme/result-ledger-api/internal/models"
	"github.com/noah-isme/result-ledger-api/internal/service"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
)

type reportServiceMock struct {
	createResp  *dto.ReportJobResponse
	createErr   error
	statusResp  *dto.ReportStatusResponse
	statusErr   error
	download    *service.ReportDownload
	downloadErr error
	actor       models.JWTClaims
}

func (m *reportServiceMock) CreateJob(ctx context.Context, req dto.ReportRequest, actor models.JWTClaims) (*dto.ReportJobResponse, error) {
	m.actor = actor
	return m.createResp, m.createErr
}

func (m *reportServiceMock) GetStatus(ctx context.Context, id string, actor models.JWTClaims) (*dto.ReportStatusResponse, error) {
	m.actor = actor
	return m.statusResp, m.statusErr
}

func (m *reportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error) {
	return m.download, m.downloadErr
}

func TestReportHandlerGenerateReport(t *testing.T) {
	mockSvc := &reportServiceMock{
		createResp: &dto.ReportJobResponse{ID: "job-1", Status: models.ReportStatusQueued, Progress: 0},
	}
	handler := NewReportHandler(mockSvc)

	payload := mustJSON(t, dto.ReportRequest{Type: models.ReportTypeGradeLedger, SchoolID: schoolA, AcademicYear: "2081", Grade: 11})
	c, w := newGinContext(http.MethodPost, "/reports/generate", payload)
	withClaims(c, adminAClaims)

	handler.GenerateReport(c)
	requireStatus(t, w, http.StatusAccepted)
	assert.Equal(t, "admin-a", mockSvc.actor.UserID)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"status":"QUEUED"`)
}

func TestReportHandlerGenerateReportRequiresClaims(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{})

	c, w := newGinContext(http.MethodPost, "/reports/generate", []byte(`{}`))
	handler.GenerateReport(c)
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestReportHandlerReportStatus(t *testing.T) {
	mockSvc := &reportServiceMock{
		statusResp: &dto.ReportStatusResponse{ID: "job-1", Status: models.ReportStatusFinished, Progress: 100},
	}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/status/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	withClaims(c, teacherAClaims)

	handler.ReportStatus(c)
	requireStatus(t, w, http.StatusOK)

	mockSvc.statusErr = appErrors.ErrForbidden
	c, w = newGinContext(http.MethodGet, "/reports/status/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	withClaims(c, teacherAClaims)
	handler.ReportStatus(c)
	requireStatus(t, w, http.StatusForbidden)
}

func TestReportHandlerDownloadReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.3"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	mockSvc := &reportServiceMock{
		download: &service.ReportDownload{
			File:      file,
			Filename:  "ledger.pdf",
			Format:    models.ReportFormatPDF,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}

	handler.DownloadReport(c)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="ledger.pdf"`)
	assert.Equal(t, "%PDF-1.3", w.Body.String())
}

func TestReportHandlerDownloadExpired(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "download link expired")})

	c, w := newGinContext(http.MethodGet, "/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}

	handler.DownloadReport(c)
	requireStatus(t, w, http.StatusForbidden)
}
