package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/result-ledger-api/internal/dto"
	"github.com/noah-isme/result-ledger-api/internal/middleware"
	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
)

const (
	schoolA = "7f1c0e4a-1111-4a4a-8a8a-000000000001"
	schoolB = "7f1c0e4a-2222-4a4a-8a8a-000000000002"
)

var (
	superadminClaims = &models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin}
	adminAClaims     = &models.JWTClaims{UserID: "admin-a", Role: models.RoleAdmin, SchoolID: schoolA}
	teacherAClaims   = &models.JWTClaims{UserID: "teacher-a", Role: models.RoleTeacher, SchoolID: schoolA}
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withClaims(c *gin.Context, claims *models.JWTClaims) {
	c.Set(middleware.ContextUserKey, claims)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// fakeStudentSvc serves as both studentService and studentFinder.
type fakeStudentSvc struct {
	students   map[string]models.Student
	lastFilter models.StudentFilter
	absentBy   string
	created    *dto.StudentRequest
}

func newFakeStudentSvc() *fakeStudentSvc {
	return &fakeStudentSvc{students: map[string]models.Student{
		"st-a": {ID: "st-a", SchoolID: schoolA, FullName: "Asha", RollNumber: "1", Grade: 11, AcademicYear: "2081"},
		"st-b": {ID: "st-b", SchoolID: schoolB, FullName: "Bikash", RollNumber: "1", Grade: 11, AcademicYear: "2081"},
	}}
}

func (f *fakeStudentSvc) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	f.lastFilter = filter
	var result []models.Student
	for _, s := range f.students {
		if filter.SchoolID == "" || s.SchoolID == filter.SchoolID {
			result = append(result, s)
		}
	}
	return result, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(result)}, nil
}

func (f *fakeStudentSvc) Get(ctx context.Context, id string) (*models.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return &s, nil
}

func (f *fakeStudentSvc) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	f.created = &req
	return &models.Student{ID: "st-new", SchoolID: req.SchoolID, FullName: req.FullName}, nil
}

func (f *fakeStudentSvc) Update(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error) {
	s := f.students[id]
	s.FullName = req.FullName
	s.SchoolID = req.SchoolID
	return &s, nil
}

func (f *fakeStudentSvc) SetAbsent(ctx context.Context, id string, absent bool, actorID string) (*models.Student, error) {
	s := f.students[id]
	s.IsAbsent = absent
	f.absentBy = actorID
	return &s, nil
}

func (f *fakeStudentSvc) Delete(ctx context.Context, id string) error {
	if _, ok := f.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.students, id)
	return nil
}

type fakeMarkSvc struct {
	actor    string
	bulk     *dto.BulkMarksRequest
	deleted  models.SubjectID
	upserted []dto.MarkEntry
}

func (f *fakeMarkSvc) StudentMarks(ctx context.Context, studentID string) (*dto.StudentMarksResponse, error) {
	return &dto.StudentMarksResponse{StudentID: studentID, Marks: []models.Mark{}}, nil
}

func (f *fakeMarkSvc) UpsertStudentMarks(ctx context.Context, studentID string, req dto.StudentMarksRequest, actorID string) ([]models.Mark, error) {
	f.actor = actorID
	f.upserted = req.Marks
	marks := make([]models.Mark, 0, len(req.Marks))
	for _, m := range req.Marks {
		marks = append(marks, models.Mark{StudentID: studentID, SubjectID: m.SubjectID, Theory: m.Theory, Internal: m.Internal})
	}
	return marks, nil
}

func (f *fakeMarkSvc) BulkUpsert(ctx context.Context, req dto.BulkMarksRequest, actorID string) (*dto.BulkMarksResult, error) {
	f.actor = actorID
	f.bulk = &req
	return &dto.BulkMarksResult{Saved: len(req.Entries)}, nil
}

func (f *fakeMarkSvc) Delete(ctx context.Context, studentID string, subjectID models.SubjectID) error {
	f.deleted = subjectID
	return nil
}

type fakeGradeSvc struct {
	scope models.ResultScope
	hit   bool
}

func (f *fakeGradeSvc) Grades(ctx context.Context, scope models.ResultScope) (models.GradesMap, bool, error) {
	f.scope = scope
	return models.GradesMap{"st-a": {GPA: 3.2, Status: models.GradeStatusGraded}}, f.hit, nil
}

func (f *fakeGradeSvc) StudentMarksheet(ctx context.Context, studentID string) (*models.Marksheet, error) {
	return &models.Marksheet{GPADisplay: "3.20", FinalGrade: "B+", Status: models.GradeStatusGraded}, nil
}

func (f *fakeGradeSvc) MarkLedger(ctx context.Context, scope models.ResultScope) (models.MarkLedger, bool, error) {
	f.scope = scope
	return models.MarkLedger{}, f.hit, nil
}

func (f *fakeGradeSvc) GradeLedger(ctx context.Context, scope models.ResultScope) (models.GradeLedger, bool, error) {
	f.scope = scope
	return models.GradeLedger{}, f.hit, nil
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equalf(t, status, w.Code, "body: %s", w.Body.String())
}
