package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
)

func seededFixture() *resultFixture {
	f := newResultFixture()
	f.assignments.assign("st-1", 1, 2)
	extra := models.SubjectID(3)
	f.assignments.rows = append(f.assignments.rows, models.AssignmentRow{StudentID: "st-1", SubjectID: extra, IsExtraCredit: true})
	f.assignments.assign("st-2", 1)
	f.marks.put("st-1", 1, 60, 20) // 3.6 / 3.6
	f.marks.put("st-1", 2, 45, 15) // 2.8 / 2.8
	f.marks.put("st-1", 3, 75, 25) // extra credit, display only
	return f
}

func TestGradeServiceGradesScope(t *testing.T) {
	f := seededFixture()
	svc := NewGradeService(f.loader, stubSchoolLookup{}, nil, NewMetricsService(), nil, nil)

	grades, hit, err := svc.Grades(context.Background(), scopeOf("school-1"))
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, grades, 2)

	first := grades["st-1"]
	assert.Equal(t, models.GradeStatusGraded, first.Status)
	assert.InDelta(t, 3.2, first.GPA, 1e-9)
	assert.Equal(t, "A", first.Subjects[1].Th)
	assert.Equal(t, "B", first.Subjects[2].In)
	require.NotNil(t, first.ExtraCredit)
	assert.Equal(t, "A+", first.ExtraCredit.Result.Th)

	second := grades["st-2"]
	assert.Equal(t, models.GradeStatusNotGraded, second.Status)
	assert.Zero(t, second.GPA)
}

func TestGradeServiceAbsentStudent(t *testing.T) {
	f := seededFixture()
	absent := f.students.byID["st-1"]
	absent.IsAbsent = true
	f.students.byID["st-1"] = absent
	svc := NewGradeService(f.loader, nil, nil, nil, nil, nil)

	grades, _, err := svc.Grades(context.Background(), scopeOf("school-1"))
	require.NoError(t, err)
	assert.Equal(t, models.GradeStatusAbsent, grades["st-1"].Status)
	assert.Zero(t, grades["st-1"].GPA)
}

func TestGradeServiceUsesCache(t *testing.T) {
	f := seededFixture()
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewGradeService(f.loader, nil, cache, nil, nil, nil)
	ctx := context.Background()

	_, hit, err := svc.Grades(ctx, scopeOf("school-1"))
	require.NoError(t, err)
	assert.False(t, hit)

	f.marks.put("st-2", 1, 75, 25)
	cachedGrades, hit, err := svc.Grades(ctx, scopeOf("school-1"))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, models.GradeStatusNotGraded, cachedGrades["st-2"].Status)

	cache.InvalidateSchool(ctx, "school-1")
	fresh, hit, err := svc.Grades(ctx, scopeOf("school-1"))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.InDelta(t, 4.0, fresh["st-2"].GPA, 1e-9)
}

func TestGradeServiceRejectsInvalidScope(t *testing.T) {
	svc := NewGradeService(newResultFixture().loader, nil, nil, nil, nil, nil)

	_, _, err := svc.Grades(context.Background(), models.ResultScope{SchoolID: "school-1", AcademicYear: "2081", Grade: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceStudentMarksheet(t *testing.T) {
	f := seededFixture()
	schools := stubSchoolLookup{"school-1": {ID: "school-1", Name: "Shree Secondary"}}
	svc := NewGradeService(f.loader, schools, nil, nil, nil, nil)

	sheet, err := svc.StudentMarksheet(context.Background(), "st-1")
	require.NoError(t, err)
	require.NotNil(t, sheet.School)
	assert.Equal(t, "Shree Secondary", sheet.School.Name)
	assert.Equal(t, "3.20", sheet.GPADisplay)
	require.Len(t, sheet.Subjects, 3)
	assert.True(t, sheet.Subjects[2].ExtraCredit)

	_, err = svc.StudentMarksheet(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceMarksheetsFilterStudent(t *testing.T) {
	f := seededFixture()
	svc := NewGradeService(f.loader, nil, nil, nil, nil, nil)
	ctx := context.Background()

	sheets, err := svc.Marksheets(ctx, scopeOf("school-1"), nil)
	require.NoError(t, err)
	assert.Len(t, sheets, 2)

	only := "st-2"
	sheets, err = svc.Marksheets(ctx, scopeOf("school-1"), &only)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "st-2", sheets[0].Student.ID)

	other := "st-3"
	_, err = svc.Marksheets(ctx, scopeOf("school-1"), &other)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceMarkLedger(t *testing.T) {
	f := seededFixture()
	svc := NewLedgerService(f.loader, nil, nil, nil, nil)

	ledger, _, err := svc.MarkLedger(context.Background(), scopeOf("school-1"))
	require.NoError(t, err)
	require.Len(t, ledger.Subjects, 3)
	require.Len(t, ledger.Rows, 2)

	row := ledger.Rows[0]
	assert.Equal(t, "st-1", row.Student.ID)
	assert.InDelta(t, 140.0, row.TotalMarks, 1e-9)
	assert.True(t, row.Cells[3].ExtraCredit)
	assert.False(t, ledger.Rows[1].Cells[2].Assigned)
}

func TestLedgerServiceGradeLedgerCached(t *testing.T) {
	f := seededFixture()
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewLedgerService(f.loader, cache, NewMetricsService(), nil, nil)
	ctx := context.Background()

	ledger, hit, err := svc.GradeLedger(ctx, scopeOf("school-1"))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "B+", ledger.Rows[0].FinalGrade)

	_, hit, err = svc.GradeLedger(ctx, scopeOf("school-1"))
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestLedgerServiceTable(t *testing.T) {
	f := seededFixture()
	svc := NewLedgerService(f.loader, nil, nil, nil, nil)
	ctx := context.Background()

	table, err := svc.Table(ctx, scopeOf("school-1"), models.LedgerModeGrades)
	require.NoError(t, err)
	assert.Equal(t, []string{"Roll No", "Symbol No", "Name"}, table.Headers[:3])
	assert.Equal(t, "Status", table.Headers[len(table.Headers)-1])
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "3.20", table.Rows[0][len(table.Rows[0])-3])

	table, err = svc.Table(ctx, scopeOf("school-1"), models.LedgerModeMarks)
	require.NoError(t, err)
	assert.Equal(t, "Remarks", table.Headers[len(table.Headers)-1])

	_, err = svc.Table(ctx, scopeOf("school-1"), models.LedgerMode("totals"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
